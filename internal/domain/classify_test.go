package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected Severity
	}{
		{"negative", -3, SeveritySafe},
		{"zero", 0, SeveritySafe},
		{"just below safe", 1.999, SeveritySafe},
		{"edge case 2", 2, SeverityAverage},
		{"average", 3, SeverityAverage},
		{"just below average", 3.999, SeverityAverage},
		{"edge case 4", 4, SeverityDangerous},
		{"dangerous", 12.5, SeverityDangerous},
		{"positive infinity", math.Inf(1), SeverityDangerous},
		{"negative infinity", math.Inf(-1), SeveritySafe},
		{"NaN", math.NaN(), SeverityDangerous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.value, DefaultThresholds)
			assert.Equal(t, tt.expected, c.Severity)
			assert.Equal(t, tt.expected.String(), c.Label)
			assert.Equal(t, tt.expected.Color(), c.Color)
		})
	}
}

func TestClassify_MatchesThresholdDefinition(t *testing.T) {
	for v := -10.0; v <= 10.0; v += 0.25 {
		c := Classify(v, DefaultThresholds)
		switch {
		case v < 2:
			assert.Equal(t, "Safe", c.Label, "value %v", v)
		case v < 4:
			assert.Equal(t, "Average", c.Label, "value %v", v)
		default:
			assert.Equal(t, "Dangerous", c.Label, "value %v", v)
		}
	}
}

func TestClassify_CustomThresholds(t *testing.T) {
	th := Thresholds{Safe: 10, Average: 20}
	assert.Equal(t, SeveritySafe, Classify(9, th).Severity)
	assert.Equal(t, SeverityAverage, Classify(10, th).Severity)
	assert.Equal(t, SeverityDangerous, Classify(20, th).Severity)
}

func TestSeverity_Labels(t *testing.T) {
	assert.Equal(t, "Safe", SeveritySafe.String())
	assert.Equal(t, "Average", SeverityAverage.String())
	assert.Equal(t, "Dangerous", SeverityDangerous.String())

	assert.NotEqual(t, SeveritySafe.Color(), SeverityAverage.Color())
	assert.NotEqual(t, SeverityAverage.Color(), SeverityDangerous.Color())
}

func TestBuildCards(t *testing.T) {
	t.Run("ordered by metric name", func(t *testing.T) {
		cards := BuildCards(ForecastResult{"wave": 5, "temp": 1}, DefaultThresholds)

		require.Len(t, cards, 2)
		assert.Equal(t, "temp", cards[0].Metric)
		assert.Equal(t, "Safe", cards[0].Label)
		assert.Equal(t, 1.0, cards[0].Value)
		assert.Equal(t, "wave", cards[1].Metric)
		assert.Equal(t, "Dangerous", cards[1].Label)
		assert.Equal(t, 5.0, cards[1].Value)
	})

	t.Run("empty result", func(t *testing.T) {
		assert.Nil(t, BuildCards(nil, DefaultThresholds))
		assert.Nil(t, BuildCards(ForecastResult{}, DefaultThresholds))
	})

	t.Run("serializes severity as label", func(t *testing.T) {
		cards := BuildCards(ForecastResult{"wave_height": 2.5}, DefaultThresholds)
		data, err := json.Marshal(cards[0])
		require.NoError(t, err)
		assert.JSONEq(t, `{"metric":"wave_height","value":2.5,"label":"Average","severity":"Average","color":"#f9a825"}`, string(data))
	})
}

func TestSeverity_UnmarshalText(t *testing.T) {
	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("Average")))
	assert.Equal(t, SeverityAverage, s)
	assert.Error(t, s.UnmarshalText([]byte("Calm")))
}
