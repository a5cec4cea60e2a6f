package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/nandanugg/openrelief/module/core/domain"
	"github.com/nandanugg/openrelief/module/core/service"
)

const TopicPattern = "/openrelief/tracker/+/location"

type trackerService interface {
	HandleLocation(ctx context.Context, trackerID string, p domain.GeoPoint) (*service.LocationResult, error)
}

// LocationMessage is the payload devices publish. Timestamp is epoch millis.
type LocationMessage struct {
	TrackerID string   `json:"tracker_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Timestamp int64    `json:"timestamp"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

type LocationSubscriber struct {
	client     mqtt.Client
	trackerSvc trackerService
	logger     *zap.Logger
}

func NewLocationSubscriber(client mqtt.Client, trackerSvc trackerService, logger *zap.Logger) *LocationSubscriber {
	return &LocationSubscriber{
		client:     client,
		trackerSvc: trackerSvc,
		logger:     logger.Named("location-subscriber"),
	}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(TopicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw LocationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		s.logger.Warn("invalid location message", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}

	// fall back to the topic segment when the payload omits the tracker id
	if raw.TrackerID == "" {
		raw.TrackerID = trackerFromTopic(msg.Topic())
	}

	p, err := toGeoPoint(&raw)
	if err != nil {
		s.logger.Warn("validation error", zap.String("tracker_id", raw.TrackerID), zap.Error(err))
		return
	}

	res, err := s.trackerSvc.HandleLocation(context.Background(), raw.TrackerID, p)
	if errors.Is(err, service.ErrStaleLocation) {
		s.logger.Debug("dropping stale location", zap.String("tracker_id", raw.TrackerID), zap.Int64("timestamp", p.Timestamp))
		return
	}
	if err != nil {
		s.logger.Error("handle location", zap.String("tracker_id", raw.TrackerID), zap.Error(err))
		return
	}

	s.logger.Debug("location processed",
		zap.String("tracker_id", raw.TrackerID),
		zap.Int("entered", len(res.Entered)),
		zap.Int("exited", len(res.Exited)),
		zap.Int("alerts", len(res.Alerts)))
}

func toGeoPoint(msg *LocationMessage) (domain.GeoPoint, error) {
	if msg.TrackerID == "" {
		return domain.GeoPoint{}, fmt.Errorf("tracker_id: required")
	}
	if msg.Timestamp <= 0 {
		return domain.GeoPoint{}, fmt.Errorf("timestamp: must be positive")
	}

	p := domain.GeoPoint{
		Lat:       msg.Latitude,
		Lon:       msg.Longitude,
		Timestamp: msg.Timestamp,
		Accuracy:  msg.Accuracy,
		Speed:     msg.Speed,
		Heading:   msg.Heading,
		Altitude:  msg.Altitude,
	}
	if err := p.Validate(); err != nil {
		return domain.GeoPoint{}, err
	}
	return p, nil
}

func trackerFromTopic(topic string) string {
	parts := strings.Split(strings.Trim(topic, "/"), "/")
	if len(parts) == 4 && parts[0] == "openrelief" && parts[1] == "tracker" && parts[3] == "location" {
		return parts[2]
	}
	return ""
}
