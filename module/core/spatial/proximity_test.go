package spatial

import (
	"strings"
	"testing"

	"github.com/nandanugg/openrelief/module/core/domain"
)

func TestGenerateProximityAlerts_Threshold(t *testing.T) {
	p := domain.GeoPoint{Lat: 40.7128, Lon: -74.0060, Timestamp: 1715003456000}
	target := Destination(p, 90, 1000)
	ev := domain.EmergencyEvent{ID: "ev1", Title: "Flood", Severity: 3, LocationText: FormatLocationText(target)}

	loc, err := ParseLocationText(ev.LocationText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := HaversineDistanceMeters(p, loc)

	alerts := GenerateProximityAlerts(p, []domain.EmergencyEvent{ev}, d)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert at exactly the threshold, got %d", len(alerts))
	}
	a := alerts[0]
	if a.TargetID != "ev1" || a.TargetType != domain.TargetEvent {
		t.Errorf("unexpected target %s/%s", a.TargetType, a.TargetID)
	}
	if a.DistanceMeters != d {
		t.Errorf("expected exact distance %f, got %f", d, a.DistanceMeters)
	}
	if a.ThresholdMeters != d {
		t.Errorf("expected threshold %f, got %f", d, a.ThresholdMeters)
	}
	if a.CreatedAt != p.Timestamp {
		t.Errorf("expected created_at %d, got %d", p.Timestamp, a.CreatedAt)
	}
	if a.ID == "" {
		t.Error("expected alert id")
	}
	if a.Read {
		t.Error("new alert should be unread")
	}
	if !strings.HasPrefix(a.Message, "Flood is ") || !strings.HasSuffix(a.Message, " away") {
		t.Errorf("unexpected message %q", a.Message)
	}

	if alerts := GenerateProximityAlerts(p, []domain.EmergencyEvent{ev}, d-0.01); len(alerts) != 0 {
		t.Fatalf("expected no alert 0.01m beyond the threshold, got %d", len(alerts))
	}
}

func TestGenerateProximityAlerts_SeverityMapping(t *testing.T) {
	p := domain.GeoPoint{Lat: -6.2088, Lon: 106.8456}
	want := map[int]domain.AlertSeverity{
		1: domain.AlertInfo,
		2: domain.AlertInfo,
		3: domain.AlertWarning,
		4: domain.AlertCritical,
		5: domain.AlertCritical,
	}

	for sev, expected := range want {
		ev := domain.EmergencyEvent{ID: "ev", Severity: sev, LocationText: "-6.2088 106.8456"}
		alerts := GenerateProximityAlerts(p, []domain.EmergencyEvent{ev}, 10)
		if len(alerts) != 1 {
			t.Fatalf("severity %d: expected 1 alert, got %d", sev, len(alerts))
		}
		if alerts[0].Severity != expected {
			t.Errorf("severity %d: expected %s, got %s", sev, expected, alerts[0].Severity)
		}
	}
}

func TestGenerateProximityAlerts_SkipsMalformed(t *testing.T) {
	p := domain.GeoPoint{Lat: -6.2088, Lon: 106.8456}
	events := []domain.EmergencyEvent{
		{ID: "bad", Severity: 5, LocationText: "106.8456 -6.2088"},
		{ID: "good", Severity: 5, LocationText: "-6.2088 106.8456"},
		{ID: "far", Severity: 5, LocationText: "-7.0 107.0"},
	}

	var skipped []string
	alerts := GenerateProximityAlertsFunc(p, events, 1000, func(ev domain.EmergencyEvent, err error) {
		skipped = append(skipped, ev.ID)
	})

	if len(alerts) != 1 || alerts[0].TargetID != "good" {
		t.Fatalf("expected only 'good' alert, got %+v", alerts)
	}
	if len(skipped) != 1 || skipped[0] != "bad" {
		t.Fatalf("expected 'bad' skipped, got %v", skipped)
	}
}

func TestGenerateProximityAlerts_NoDedup(t *testing.T) {
	p := domain.GeoPoint{Lat: -6.2088, Lon: 106.8456}
	events := []domain.EmergencyEvent{{ID: "ev1", Severity: 1, LocationText: "-6.2088 106.8456"}}

	first := GenerateProximityAlerts(p, events, 100)
	second := GenerateProximityAlerts(p, events, 100)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one alert per call, got %d and %d", len(first), len(second))
	}
	if first[0].ID == second[0].ID {
		t.Error("expected distinct alert ids")
	}
}

func TestGenerateGeofenceProximityAlerts(t *testing.T) {
	center := domain.GeoPoint{Lat: -6.2088, Lon: 106.8456}
	f := fence("f1", center.Lat, center.Lon, 100)
	f.Severity = domain.SeverityHigh

	near := Destination(center, 0, 300)
	alerts := GenerateGeofenceProximityAlerts(near, []domain.Geofence{f}, 500)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].TargetType != domain.TargetGeofence || alerts[0].TargetID != "f1" {
		t.Errorf("unexpected target %s/%s", alerts[0].TargetType, alerts[0].TargetID)
	}
	if d := alerts[0].DistanceMeters; d < 199 || d > 201 {
		t.Errorf("expected ~200m to boundary, got %f", d)
	}
	if alerts[0].Severity != domain.AlertWarning {
		t.Errorf("expected warning, got %s", alerts[0].Severity)
	}

	if alerts := GenerateGeofenceProximityAlerts(center, []domain.Geofence{f}, 500); len(alerts) != 0 {
		t.Errorf("inside the fence should not alert, got %d", len(alerts))
	}
	if alerts := GenerateGeofenceProximityAlerts(Destination(center, 0, 1000), []domain.Geofence{f}, 500); len(alerts) != 0 {
		t.Errorf("beyond threshold should not alert, got %d", len(alerts))
	}

	f.Active = false
	if alerts := GenerateGeofenceProximityAlerts(near, []domain.Geofence{f}, 500); len(alerts) != 0 {
		t.Errorf("inactive fence should not alert, got %d", len(alerts))
	}
}

func TestGeofenceAlertSeverity(t *testing.T) {
	tests := []struct {
		kind     domain.GeofenceKind
		severity domain.Severity
		want     domain.AlertSeverity
	}{
		{domain.GeofenceKindEmergency, "", domain.AlertInfo},
		{domain.GeofenceKindEmergency, domain.SeverityLow, domain.AlertInfo},
		{domain.GeofenceKindEmergency, domain.SeverityMedium, domain.AlertWarning},
		{domain.GeofenceKindEmergency, domain.SeverityHigh, domain.AlertWarning},
		{domain.GeofenceKindEmergency, domain.SeverityCritical, domain.AlertCritical},
		{domain.GeofenceKindRestricted, domain.SeverityLow, domain.AlertWarning},
		{domain.GeofenceKindRestricted, domain.SeverityHigh, domain.AlertCritical},
		{domain.GeofenceKindRestricted, domain.SeverityCritical, domain.AlertCritical},
	}

	for _, tt := range tests {
		got := GeofenceAlertSeverity(domain.Geofence{Kind: tt.kind, Severity: tt.severity})
		if got != tt.want {
			t.Errorf("%s/%s: expected %s, got %s", tt.kind, tt.severity, tt.want, got)
		}
	}
}

func TestFormatDistance(t *testing.T) {
	tests := map[float64]string{
		0:       "0 m",
		849.6:   "850 m",
		999.4:   "999 m",
		999.6:   "1.0 km",
		1000:    "1.0 km",
		1234.5:  "1.2 km",
		15000.0: "15.0 km",
	}
	for in, want := range tests {
		if got := FormatDistance(in); got != want {
			t.Errorf("FormatDistance(%v) = %q, want %q", in, got, want)
		}
	}
}
