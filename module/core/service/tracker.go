package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nandanugg/openrelief/metrics"
	"github.com/nandanugg/openrelief/module/core/domain"
	"github.com/nandanugg/openrelief/module/core/internal/repository/publisher"
	"github.com/nandanugg/openrelief/module/core/spatial"
)

var ErrStaleLocation = errors.New("location older than last accepted point")

type geofenceSource interface {
	List(ctx context.Context) ([]domain.Geofence, error)
	RecordTransitions(ctx context.Context, trackerID string, ts int64, tr spatial.Transitions) error
}

type eventSource interface {
	List() []domain.EmergencyEvent
}

type TrackerConfig struct {
	ThresholdMeters float64
	// AutoDismiss removes alerts this long after their creation. Zero keeps
	// them until dismissed.
	AutoDismiss time.Duration
	// SessionIdleTTL drops the state of trackers not heard from for this
	// long. A tracker coming back after that starts with an empty
	// containment set. Zero keeps sessions forever.
	SessionIdleTTL time.Duration
}

// LocationResult is what one location update produced for a tracker.
type LocationResult struct {
	Entered []domain.Geofence
	Exited  []domain.Geofence
	Alerts  []domain.ProximityAlert
}

// TrackerService owns the per-tracker state the spatial engine needs between
// ticks: containment set, targets already alerted on, and live alerts.
type TrackerService struct {
	geofences geofenceSource
	events    eventSource
	publisher publisher.AlertPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       TrackerConfig
	now       func() time.Time

	mu        sync.Mutex
	sessions  map[string]*trackerSession
	lastSweep time.Time
}

type trackerSession struct {
	// guarded by TrackerService.mu
	lastSeen time.Time

	mu          sync.Mutex
	last        *domain.GeoPoint
	containment spatial.Containment
	inRange     map[string]struct{}
	alerts      []domain.ProximityAlert
}

func NewTrackerService(geofences geofenceSource, events eventSource, pub publisher.AlertPublisher, m *metrics.Metrics, logger *zap.Logger, cfg TrackerConfig) *TrackerService {
	return &TrackerService{
		geofences: geofences,
		events:    events,
		publisher: pub,
		metrics:   m,
		logger:    logger.Named("tracker"),
		cfg:       cfg,
		now:       time.Now,
		sessions:  make(map[string]*trackerSession),
	}
}

// HandleLocation runs one tick for trackerID. Points for the same tracker are
// processed one at a time; a point older than the last accepted one is
// rejected with ErrStaleLocation.
func (s *TrackerService) HandleLocation(ctx context.Context, trackerID string, p domain.GeoPoint) (*LocationResult, error) {
	sess := s.session(trackerID, true)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.last != nil && p.Timestamp < sess.last.Timestamp {
		s.metrics.LocationsReceived.WithLabelValues("stale").Inc()
		return nil, ErrStaleLocation
	}

	fences, err := s.geofences.List(ctx)
	if err != nil {
		s.metrics.LocationsReceived.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("list geofences: %w", err)
	}

	tr := spatial.EvaluateGeofenceTransitions(p, fences, sess.containment)
	// containment only advances once the history is written, so a failed
	// write is retried on the next tick
	if err := s.geofences.RecordTransitions(ctx, trackerID, p.Timestamp, tr); err != nil {
		s.metrics.LocationsReceived.WithLabelValues("error").Inc()
		return nil, err
	}
	sess.containment = tr.Containment
	s.publishTransitions(ctx, trackerID, p, tr)

	candidates := spatial.GenerateProximityAlertsFunc(p, s.events.List(), s.cfg.ThresholdMeters, func(ev domain.EmergencyEvent, err error) {
		s.metrics.MalformedLocations.Inc()
		s.logger.Warn("skipping event with malformed location",
			zap.String("event_id", ev.ID),
			zap.Error(err))
	})
	candidates = append(candidates, spatial.GenerateGeofenceProximityAlerts(p, fences, s.cfg.ThresholdMeters)...)

	// alert age runs on the server clock, never the device's
	nowMillis := s.now().UnixMilli()
	inRange := make(map[string]struct{}, len(candidates))
	var fresh []domain.ProximityAlert
	for _, a := range candidates {
		key := targetKey(a.TargetType, a.TargetID)
		inRange[key] = struct{}{}
		if _, seen := sess.inRange[key]; seen {
			s.metrics.AlertsSuppressed.Inc()
			continue
		}
		a.CreatedAt = nowMillis
		fresh = append(fresh, a)
	}
	sess.inRange = inRange

	sess.prune(nowMillis, s.cfg.AutoDismiss)
	sess.alerts = append(sess.alerts, fresh...)
	s.publishAlerts(ctx, trackerID, p, fresh)

	last := p
	sess.last = &last
	s.metrics.LocationsReceived.WithLabelValues("ok").Inc()

	return &LocationResult{Entered: tr.Entered, Exited: tr.Exited, Alerts: fresh}, nil
}

// Alerts returns the live alerts of a tracker, oldest first.
func (s *TrackerService) Alerts(trackerID string) ([]domain.ProximityAlert, error) {
	sess := s.session(trackerID, false)
	if sess == nil {
		return nil, domain.ErrTrackerNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.prune(s.now().UnixMilli(), s.cfg.AutoDismiss)
	out := make([]domain.ProximityAlert, len(sess.alerts))
	copy(out, sess.alerts)
	return out, nil
}

func (s *TrackerService) MarkRead(trackerID, alertID string) error {
	sess := s.session(trackerID, false)
	if sess == nil {
		return domain.ErrTrackerNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	for i := range sess.alerts {
		if sess.alerts[i].ID == alertID {
			sess.alerts[i].Read = true
			return nil
		}
	}
	return domain.ErrAlertNotFound
}

// Dismiss removes an alert. The target stays suppressed until it leaves
// range, so a dismissed alert is not raised again on the next tick.
func (s *TrackerService) Dismiss(trackerID, alertID string) error {
	sess := s.session(trackerID, false)
	if sess == nil {
		return domain.ErrTrackerNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	for i := range sess.alerts {
		if sess.alerts[i].ID == alertID {
			sess.alerts = append(sess.alerts[:i], sess.alerts[i+1:]...)
			return nil
		}
	}
	return domain.ErrAlertNotFound
}

func (s *TrackerService) LastLocation(trackerID string) (*domain.GeoPoint, error) {
	sess := s.session(trackerID, false)
	if sess == nil {
		return nil, domain.ErrTrackerNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.last == nil {
		return nil, domain.ErrTrackerNotFound
	}
	p := *sess.last
	return &p, nil
}

// Check runs a stateless proximity check against the current events and
// geofences. A non-positive threshold falls back to the configured one.
func (s *TrackerService) Check(ctx context.Context, p domain.GeoPoint, thresholdMeters float64) ([]domain.ProximityAlert, error) {
	if thresholdMeters <= 0 {
		thresholdMeters = s.cfg.ThresholdMeters
	}
	fences, err := s.geofences.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list geofences: %w", err)
	}

	alerts := spatial.GenerateProximityAlerts(p, s.events.List(), thresholdMeters)
	alerts = append(alerts, spatial.GenerateGeofenceProximityAlerts(p, fences, thresholdMeters)...)
	return alerts, nil
}

func (s *TrackerService) session(trackerID string, create bool) *trackerSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictIdle(now)

	sess, ok := s.sessions[trackerID]
	if !ok && create {
		sess = &trackerSession{
			containment: spatial.NewContainment(),
			inRange:     make(map[string]struct{}),
		}
		s.sessions[trackerID] = sess
		s.metrics.TrackerSessions.Set(float64(len(s.sessions)))
	}
	if sess != nil && create {
		sess.lastSeen = now
	}
	return sess
}

// evictIdle runs at most once per half TTL. Callers hold s.mu.
func (s *TrackerService) evictIdle(now time.Time) {
	ttl := s.cfg.SessionIdleTTL
	if ttl <= 0 || now.Sub(s.lastSweep) < ttl/2 {
		return
	}
	s.lastSweep = now

	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) >= ttl {
			delete(s.sessions, id)
			s.logger.Debug("tracker session evicted", zap.String("tracker_id", id))
		}
	}
	s.metrics.TrackerSessions.Set(float64(len(s.sessions)))
}

// Sessions returns the number of trackers with live state.
func (s *TrackerService) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *TrackerService) publishTransitions(ctx context.Context, trackerID string, p domain.GeoPoint, tr spatial.Transitions) {
	publish := func(fences []domain.Geofence, action domain.GeofenceAction) {
		for _, f := range fences {
			s.metrics.GeofenceTransitions.WithLabelValues(string(action)).Inc()
			s.logger.Info("geofence transition",
				zap.String("tracker_id", trackerID),
				zap.String("geofence_id", f.ID),
				zap.String("action", string(action)))

			err := s.publisher.PublishTransition(ctx, &domain.GeofenceTransition{
				TrackerID: trackerID,
				Geofence:  f,
				Action:    action,
				Location:  p,
				Timestamp: p.Timestamp,
			})
			if err != nil {
				s.logger.Error("publish transition", zap.String("geofence_id", f.ID), zap.Error(err))
			}
		}
	}
	publish(tr.Entered, domain.GeofenceEnter)
	publish(tr.Exited, domain.GeofenceExit)
}

func (s *TrackerService) publishAlerts(ctx context.Context, trackerID string, p domain.GeoPoint, alerts []domain.ProximityAlert) {
	for _, a := range alerts {
		s.metrics.ProximityAlerts.WithLabelValues(string(a.TargetType), string(a.Severity)).Inc()
		if err := s.publisher.PublishAlert(ctx, &domain.TrackerAlert{TrackerID: trackerID, Alert: a, Location: p}); err != nil {
			s.logger.Error("publish alert", zap.String("alert_id", a.ID), zap.Error(err))
		}
	}
}

func (sess *trackerSession) prune(nowMillis int64, autoDismiss time.Duration) {
	if autoDismiss <= 0 {
		return
	}
	ttl := autoDismiss.Milliseconds()
	kept := sess.alerts[:0]
	for _, a := range sess.alerts {
		if nowMillis-a.CreatedAt < ttl {
			kept = append(kept, a)
		}
	}
	sess.alerts = kept
}

func targetKey(t domain.TargetType, id string) string {
	return string(t) + ":" + id
}
