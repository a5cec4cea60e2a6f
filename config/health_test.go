package config

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeDB struct{ err error }

func (f fakeDB) PingContext(context.Context) error { return f.err }

type fakeAMQP struct{ closed bool }

func (f fakeAMQP) IsClosed() bool { return f.closed }

type fakeMQTT struct{ connected bool }

func (f fakeMQTT) IsConnected() bool { return f.connected }

func checkHealth(t *testing.T, h *HealthChecker) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return w.Code, body
}

func TestHealth_AllUp(t *testing.T) {
	code, body := checkHealth(t, NewHealthChecker(fakeDB{}, fakeAMQP{}, fakeMQTT{connected: true}))

	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected status %v", body["status"])
	}
}

func TestHealth_Down(t *testing.T) {
	code, body := checkHealth(t, NewHealthChecker(fakeDB{err: errors.New("refused")}, fakeAMQP{closed: true}, fakeMQTT{connected: true}))

	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	deps := body["dependencies"].(map[string]any)
	pg := deps["postgres"].(map[string]any)
	if pg["status"] != "down" || pg["error"] != "refused" {
		t.Errorf("unexpected postgres %v", pg)
	}
	if deps["rabbitmq"].(map[string]any)["status"] != "down" {
		t.Errorf("expected rabbitmq down")
	}
	if deps["mqtt"].(map[string]any)["status"] != "up" {
		t.Errorf("expected mqtt up")
	}
}
