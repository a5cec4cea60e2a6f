package domain

import (
	"fmt"
	"math"
)

// GeoPoint is a single position sample. Optional fields are nil when the
// provider did not report them, so a zero altitude stays distinguishable from a
// missing one.
type GeoPoint struct {
	Lat       float64  `json:"latitude"`
	Lon       float64  `json:"longitude"`
	Timestamp int64    `json:"timestamp"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

func (p GeoPoint) Validate() error {
	if !finite(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if !finite(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if p.Accuracy != nil && (!finite(*p.Accuracy) || *p.Accuracy < 0) {
		return fmt.Errorf("accuracy: must be a non-negative number")
	}
	if p.Speed != nil && (!finite(*p.Speed) || *p.Speed < 0) {
		return fmt.Errorf("speed: must be a non-negative number")
	}
	if p.Heading != nil && (!finite(*p.Heading) || *p.Heading < 0 || *p.Heading >= 360) {
		return fmt.Errorf("heading: must be in [0, 360)")
	}
	if p.Altitude != nil && !finite(*p.Altitude) {
		return fmt.Errorf("altitude: must be a finite number")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
