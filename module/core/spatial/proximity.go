package spatial

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/nandanugg/openrelief/module/core/domain"
)

// SkipFunc is told about every event left out of a proximity check because its
// location could not be parsed.
type SkipFunc func(event domain.EmergencyEvent, err error)

// GenerateProximityAlerts returns one alert for every event within
// thresholdMeters of p. Events with malformed locations are skipped. Repeated
// calls produce fresh alerts; deduplication belongs to the caller.
func GenerateProximityAlerts(p domain.GeoPoint, events []domain.EmergencyEvent, thresholdMeters float64) []domain.ProximityAlert {
	return GenerateProximityAlertsFunc(p, events, thresholdMeters, nil)
}

// GenerateProximityAlertsFunc is GenerateProximityAlerts with a hook for
// skipped events. skip may be nil.
func GenerateProximityAlertsFunc(p domain.GeoPoint, events []domain.EmergencyEvent, thresholdMeters float64, skip SkipFunc) []domain.ProximityAlert {
	var alerts []domain.ProximityAlert
	for _, ev := range events {
		loc, err := ParseLocationText(ev.LocationText)
		if err != nil {
			if skip != nil {
				skip(ev, err)
			}
			continue
		}

		d := HaversineDistanceMeters(p, loc)
		if d > thresholdMeters {
			continue
		}
		alerts = append(alerts, domain.ProximityAlert{
			ID:              uuid.NewString(),
			TargetID:        ev.ID,
			TargetType:      domain.TargetEvent,
			DistanceMeters:  d,
			ThresholdMeters: thresholdMeters,
			Message:         fmt.Sprintf("%s is %s away", eventTitle(ev), FormatDistance(d)),
			Severity:        EventAlertSeverity(ev.Severity),
			CreatedAt:       p.Timestamp,
		})
	}
	return alerts
}

// GenerateGeofenceProximityAlerts warns about active fences whose boundary is
// within thresholdMeters of p while p is still outside them. Being inside a
// fence is a transition, not a proximity alert.
func GenerateGeofenceProximityAlerts(p domain.GeoPoint, fences []domain.Geofence, thresholdMeters float64) []domain.ProximityAlert {
	var alerts []domain.ProximityAlert
	for _, f := range fences {
		if !f.ActiveAt(p.Timestamp) {
			continue
		}
		toBoundary := HaversineDistanceMeters(p, f.Center) - f.RadiusMeters
		if toBoundary <= 0 || toBoundary > thresholdMeters {
			continue
		}
		alerts = append(alerts, domain.ProximityAlert{
			ID:              uuid.NewString(),
			TargetID:        f.ID,
			TargetType:      domain.TargetGeofence,
			DistanceMeters:  toBoundary,
			ThresholdMeters: thresholdMeters,
			Message:         fmt.Sprintf("%s boundary is %s away", f.Name, FormatDistance(toBoundary)),
			Severity:        GeofenceAlertSeverity(f),
			CreatedAt:       p.Timestamp,
		})
	}
	return alerts
}

// EventAlertSeverity maps an event severity on the 1..5 scale.
func EventAlertSeverity(severity int) domain.AlertSeverity {
	switch {
	case severity >= 4:
		return domain.AlertCritical
	case severity == 3:
		return domain.AlertWarning
	default:
		return domain.AlertInfo
	}
}

// GeofenceAlertSeverity derives the alert level from the fence severity.
// Restricted fences are raised one level.
func GeofenceAlertSeverity(f domain.Geofence) domain.AlertSeverity {
	level := domain.AlertInfo
	switch f.Severity {
	case domain.SeverityCritical:
		level = domain.AlertCritical
	case domain.SeverityHigh, domain.SeverityMedium:
		level = domain.AlertWarning
	}
	if f.Kind == domain.GeofenceKindRestricted {
		switch level {
		case domain.AlertInfo:
			level = domain.AlertWarning
		case domain.AlertWarning:
			level = domain.AlertCritical
		}
	}
	return level
}

// FormatDistance renders meters for humans: "850 m" below a kilometre,
// "1.2 km" above.
func FormatDistance(meters float64) string {
	if m := math.Round(meters); m < 1000 {
		return fmt.Sprintf("%d m", int(m))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func eventTitle(ev domain.EmergencyEvent) string {
	if ev.Title == "" {
		return "Emergency " + ev.ID
	}
	return ev.Title
}
