package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/nandanugg/openrelief/config"
	"github.com/nandanugg/openrelief/module/core/domain"
	"github.com/nandanugg/openrelief/module/core/spatial"
)

type locationMessage struct {
	TrackerID string   `json:"tracker_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Timestamp int64    `json:"timestamp"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// trackers start around this point so that a fence created on it sees
// enters and exits.
var origin = domain.GeoPoint{Lat: -6.2088, Lon: 106.8456}

func randomTrackerID() string {
	letter := string(charset[rand.Intn(26)])
	digits := fmt.Sprintf("%04d", rand.Intn(10000))
	return "TRK-" + letter + digits
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	logger, err := config.NewLogger("info")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	cfg.MQTTClientID = "openrelief-mock-publisher"

	client, err := config.NewMQTT(cfg, logger)
	if err != nil {
		logger.Fatal("mqtt", zap.Error(err))
	}
	defer client.Disconnect(250)

	trackers := make(map[string]domain.GeoPoint, 5)
	for len(trackers) < 5 {
		trackers[randomTrackerID()] = spatial.Destination(origin, rand.Float64()*360, rand.Float64()*2000)
	}
	ids := make([]string, 0, len(trackers))
	for id := range trackers {
		ids = append(ids, id)
	}

	logger.Info("publishing", zap.String("broker", cfg.MQTTBroker), zap.Int("interval_seconds", intervalSec), zap.Strings("trackers", ids))

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		id := ids[rand.Intn(len(ids))]

		// random walk of up to 150 m, pulled back toward the origin once a
		// tracker wanders past 3 km
		p := trackers[id]
		bearing := rand.Float64() * 360
		if spatial.HaversineDistanceMeters(p, origin) > 3000 {
			bearing = spatial.InitialBearing(p, origin)
		}
		p = spatial.Destination(p, bearing, rand.Float64()*150)
		trackers[id] = p

		publish(client, logger, id, p)
	}
}

func publish(client mqtt.Client, logger *zap.Logger, id string, p domain.GeoPoint) {
	accuracy := 5 + rand.Float64()*20
	msg := locationMessage{
		TrackerID: id,
		Latitude:  p.Lat,
		Longitude: p.Lon,
		Timestamp: time.Now().UnixMilli(),
		Accuracy:  &accuracy,
	}

	payload, _ := json.Marshal(msg)
	topic := fmt.Sprintf("/openrelief/tracker/%s/location", id)

	token := client.Publish(topic, 1, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		logger.Error("publish", zap.String("topic", topic), zap.Error(err))
		return
	}
	logger.Info("published", zap.String("topic", topic), zap.ByteString("payload", payload))
}
