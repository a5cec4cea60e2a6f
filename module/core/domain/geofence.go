package domain

import "math"

type GeofenceKind string

const (
	GeofenceKindEmergency  GeofenceKind = "emergency"
	GeofenceKindSafeZone   GeofenceKind = "safe_zone"
	GeofenceKindRestricted GeofenceKind = "restricted"
	GeofenceKindCustom     GeofenceKind = "custom"
)

func (k GeofenceKind) Valid() bool {
	switch k {
	case GeofenceKindEmergency, GeofenceKindSafeZone, GeofenceKindRestricted, GeofenceKindCustom:
		return true
	}
	return false
}

// Severity of a geofence. The empty value means none was assigned.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case "", SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type Geofence struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Kind         GeofenceKind `json:"kind"`
	Center       GeoPoint     `json:"center"`
	RadiusMeters float64      `json:"radius_meters"`
	Active       bool         `json:"active"`
	Severity     Severity     `json:"severity,omitempty"`
	ExpiresAt    *int64       `json:"expires_at,omitempty"`
}

// ActiveAt reports whether the fence takes part in evaluation at the given
// epoch-millis instant.
func (g Geofence) ActiveAt(ts int64) bool {
	if !g.Active {
		return false
	}
	return g.ExpiresAt == nil || ts < *g.ExpiresAt
}

func (g Geofence) Validate() error {
	if g.Name == "" {
		return &InvalidGeofenceError{Field: "name", Reason: "required"}
	}
	if !g.Kind.Valid() {
		return &InvalidGeofenceError{Field: "kind", Reason: "unknown kind " + string(g.Kind)}
	}
	if !g.Severity.Valid() {
		return &InvalidGeofenceError{Field: "severity", Reason: "unknown severity " + string(g.Severity)}
	}
	if math.IsNaN(g.RadiusMeters) || math.IsInf(g.RadiusMeters, 0) || g.RadiusMeters <= 0 {
		return &InvalidGeofenceError{Field: "radius_meters", Reason: "must be greater than 0"}
	}
	if err := g.Center.Validate(); err != nil {
		return &InvalidGeofenceError{Field: "center", Reason: err.Error()}
	}
	return nil
}

type GeofenceAction string

const (
	GeofenceEnter GeofenceAction = "enter"
	GeofenceExit  GeofenceAction = "exit"
)

// GeofenceHistoryEntry records one containment transition of a tracker.
type GeofenceHistoryEntry struct {
	GeofenceID string         `json:"geofence_id"`
	TrackerID  string         `json:"tracker_id"`
	Action     GeofenceAction `json:"action"`
	Timestamp  int64          `json:"timestamp"`
}

// GeofenceTransition is the message fanned out when a tracker crosses a fence.
type GeofenceTransition struct {
	TrackerID string         `json:"tracker_id"`
	Geofence  Geofence       `json:"geofence"`
	Action    GeofenceAction `json:"action"`
	Location  GeoPoint       `json:"location"`
	Timestamp int64          `json:"timestamp"`
}
