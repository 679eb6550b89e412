// Package mapselect turns pointer clicks on a map surface into coordinate selections.
package mapselect

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/couchcryptid/marine-risk-service/internal/domain"
)

// LatLng is the position payload of a map click, as reported by the map library.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ClickEvent is a single pointer click on the map surface.
type ClickEvent struct {
	LatLng LatLng `json:"latlng"`
}

// Surface is a map that reports pointer clicks to a registered handler.
type Surface interface {
	OnClick(handler func(ClickEvent))
}

// ErrAlreadyAttached is returned when a Selector is attached to a second surface.
var ErrAlreadyAttached = errors.New("selector already attached to a map surface")

// Selector forwards every click on its surface to a callback. It does not filter
// out-of-range coordinates or debounce clicks.
type Selector struct {
	onSelect func(domain.Coordinate)

	mu       sync.Mutex
	attached bool
}

// New creates a Selector that calls onSelect for each click.
func New(onSelect func(domain.Coordinate)) *Selector {
	return &Selector{onSelect: onSelect}
}

// Attach subscribes the selector to the surface's click event.
func (s *Selector) Attach(surface Surface) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return ErrAlreadyAttached
	}
	s.attached = true
	surface.OnClick(s.HandleClick)
	return nil
}

// HandleClick extracts the coordinate from a click and reports it synchronously.
func (s *Selector) HandleClick(ev ClickEvent) {
	if s.onSelect == nil {
		return
	}
	s.onSelect(domain.Coordinate{Latitude: ev.LatLng.Lat, Longitude: ev.LatLng.Lng})
}

// DecodeClick parses a click payload such as {"latlng":{"lat":1.5,"lng":-20}}.
func DecodeClick(data []byte) (ClickEvent, error) {
	var wire struct {
		LatLng *struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"latlng"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return ClickEvent{}, fmt.Errorf("decode click: %w", err)
	}
	if wire.LatLng == nil || wire.LatLng.Lat == nil || wire.LatLng.Lng == nil {
		return ClickEvent{}, errors.New("decode click: latlng requires both lat and lng")
	}
	return ClickEvent{LatLng: LatLng{Lat: *wire.LatLng.Lat, Lng: *wire.LatLng.Lng}}, nil
}
