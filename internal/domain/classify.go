package domain

import (
	"fmt"
	"sort"
)

// Severity is the three-tier risk level shown on a card.
type Severity int

const (
	SeveritySafe Severity = iota
	SeverityAverage
	SeverityDangerous
)

func (s Severity) String() string {
	switch s {
	case SeveritySafe:
		return "Safe"
	case SeverityAverage:
		return "Average"
	default:
		return "Dangerous"
	}
}

// Color returns the card colour for the severity.
func (s Severity) Color() string {
	switch s {
	case SeveritySafe:
		return "#2e7d32"
	case SeverityAverage:
		return "#f9a825"
	default:
		return "#c62828"
	}
}

// MarshalText encodes the severity as its label.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity label.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Safe":
		*s = SeveritySafe
	case "Average":
		*s = SeverityAverage
	case "Dangerous":
		*s = SeverityDangerous
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Thresholds is the (safe, average) boundary pair used by Classify.
type Thresholds struct {
	Safe    float64
	Average float64
}

// DefaultThresholds applies to every metric regardless of unit.
var DefaultThresholds = Thresholds{Safe: 2, Average: 4}

// Classification is the labelled, coloured form of a single value.
type Classification struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
	Color    string   `json:"color"`
}

// Classify maps a value to a severity:
//   - value < t.Safe: Safe
//   - t.Safe <= value < t.Average: Average
//   - otherwise: Dangerous
//
// NaN fails both comparisons and is reported as Dangerous.
func Classify(value float64, t Thresholds) Classification {
	var s Severity
	switch {
	case value < t.Safe:
		s = SeveritySafe
	case value < t.Average:
		s = SeverityAverage
	default:
		s = SeverityDangerous
	}
	return Classification{Label: s.String(), Severity: s, Color: s.Color()}
}

// Card is one rendered metric.
type Card struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Classification
}

// BuildCards classifies every metric of a result, ordered by metric name.
func BuildCards(result ForecastResult, t Thresholds) []Card {
	if len(result) == 0 {
		return nil
	}
	names := make([]string, 0, len(result))
	for name := range result {
		names = append(names, name)
	}
	sort.Strings(names)

	cards := make([]Card, 0, len(names))
	for _, name := range names {
		v := result[name]
		cards = append(cards, Card{Metric: name, Value: v, Classification: Classify(v, t)})
	}
	return cards
}
