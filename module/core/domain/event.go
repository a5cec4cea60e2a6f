package domain

// EmergencyEvent is produced by the reporting subsystem and consumed read-only.
// LocationText holds "<lat> <lng>", latitude first.
type EmergencyEvent struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Severity     int    `json:"severity"`
	LocationText string `json:"location"`
}

type TargetType string

const (
	TargetEvent    TargetType = "event"
	TargetGeofence TargetType = "geofence"
)

type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "info"
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

type ProximityAlert struct {
	ID              string        `json:"id"`
	TargetID        string        `json:"target_id"`
	TargetType      TargetType    `json:"target_type"`
	DistanceMeters  float64       `json:"distance_meters"`
	ThresholdMeters float64       `json:"threshold_meters"`
	Message         string        `json:"message"`
	Severity        AlertSeverity `json:"severity"`
	CreatedAt       int64         `json:"created_at"`
	Read            bool          `json:"read"`
}

// TrackerAlert is the message fanned out when a tracker receives a new alert.
type TrackerAlert struct {
	TrackerID string         `json:"tracker_id"`
	Alert     ProximityAlert `json:"alert"`
	Location  GeoPoint       `json:"location"`
}
