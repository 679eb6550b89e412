package domain

import (
	"errors"
	"fmt"
	"strings"
)

// User-facing messages.
const (
	MsgSelectLocation = "Please select a location on the map first."
	MsgLandSelected   = "You selected a land area where data cannot be fetched."
	MsgFetchFailed    = "Failed to fetch weather data."
	MsgUpstreamFailed = "Weather data could not be retrieved at this time."
)

// CodeLandSelected is the error code the backend sends for land coordinates.
const CodeLandSelected = "land_selected"

// legacyLandSentinel is the grid overflow message older backends return for land cells.
const legacyLandSentinel = "bad number 4294967382 for type uint32"

var (
	// ErrMissingCoordinate means a fetch was triggered before any map click.
	ErrMissingCoordinate = errors.New(MsgSelectLocation)

	// ErrLandCoordinate means the selected coordinate lies on land.
	ErrLandCoordinate = errors.New(MsgLandSelected)
)

// ForecastError is a network or server failure, carrying the message to show the user.
type ForecastError struct {
	Message    string
	StatusCode int // 0 for transport failures
	Err        error
}

func (e *ForecastError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("forecast request failed with status %d: %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("forecast request failed: %s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ForecastError) Unwrap() error {
	return e.Err
}

// ValidationError reports an unusable input parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ClassifyFailure translates a backend failure into a domain error. An explicit
// "land_selected" code wins; otherwise the legacy overflow message is recognised.
// Everything else is a *ForecastError carrying the backend message, or the generic
// one when the backend gave none.
func ClassifyFailure(code, message string, status int) error {
	if code == CodeLandSelected || strings.Contains(message, legacyLandSentinel) {
		return ErrLandCoordinate
	}
	if strings.TrimSpace(message) == "" {
		message = MsgFetchFailed
	}
	return &ForecastError{Message: message, StatusCode: status}
}

// UserMessage returns the text a page should display for err.
func UserMessage(err error) string {
	var fe *ForecastError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLandCoordinate):
		return MsgLandSelected
	case errors.Is(err, ErrMissingCoordinate):
		return MsgSelectLocation
	case errors.As(err, &fe):
		return fe.Message
	default:
		return MsgFetchFailed
	}
}
