package domain

import (
	"errors"
	"fmt"
)

var (
	ErrGeofenceNotFound = errors.New("geofence not found")
	ErrGeofenceExists   = errors.New("geofence already exists")
	ErrTrackerNotFound  = errors.New("tracker not found")
	ErrAlertNotFound    = errors.New("alert not found")
)

// MalformedLocationError is returned when a location string is not two
// in-range numbers in latitude, longitude order.
type MalformedLocationError struct {
	Text   string
	Reason string
}

func (e *MalformedLocationError) Error() string {
	return fmt.Sprintf("malformed location %q: %s", e.Text, e.Reason)
}

type InvalidGeofenceError struct {
	Field  string
	Reason string
}

func (e *InvalidGeofenceError) Error() string {
	return fmt.Sprintf("invalid geofence: %s: %s", e.Field, e.Reason)
}
