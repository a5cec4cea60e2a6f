package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/openrelief/module/core/domain"
)

type mockGeofenceService struct {
	createFn    func(ctx context.Context, g domain.Geofence) (*domain.Geofence, error)
	updateFn    func(ctx context.Context, g domain.Geofence) (*domain.Geofence, error)
	setActiveFn func(ctx context.Context, id string, active bool) (*domain.Geofence, error)
	deleteFn    func(ctx context.Context, id string) error
	getFn       func(ctx context.Context, id string) (*domain.Geofence, error)
	listFn      func(ctx context.Context) ([]domain.Geofence, error)
	historyFn   func(ctx context.Context, id string) ([]domain.GeofenceHistoryEntry, error)
}

func (m *mockGeofenceService) Create(ctx context.Context, g domain.Geofence) (*domain.Geofence, error) {
	return m.createFn(ctx, g)
}

func (m *mockGeofenceService) Update(ctx context.Context, g domain.Geofence) (*domain.Geofence, error) {
	return m.updateFn(ctx, g)
}

func (m *mockGeofenceService) SetActive(ctx context.Context, id string, active bool) (*domain.Geofence, error) {
	return m.setActiveFn(ctx, id, active)
}

func (m *mockGeofenceService) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockGeofenceService) Get(ctx context.Context, id string) (*domain.Geofence, error) {
	return m.getFn(ctx, id)
}

func (m *mockGeofenceService) List(ctx context.Context) ([]domain.Geofence, error) {
	return m.listFn(ctx)
}

func (m *mockGeofenceService) History(ctx context.Context, id string) ([]domain.GeofenceHistoryEntry, error) {
	return m.historyFn(ctx, id)
}

func setupGeofenceRouter(svc geofenceService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewGeofenceHandler(svc)
	h.Register(r.Group(""))
	return r
}

func TestCreateGeofence_Success(t *testing.T) {
	svc := &mockGeofenceService{
		createFn: func(_ context.Context, g domain.Geofence) (*domain.Geofence, error) {
			if g.Center.Lat != -6.2088 || g.Center.Lon != 106.8456 {
				t.Fatalf("unexpected center %+v", g.Center)
			}
			if !g.Active {
				t.Fatal("expected fence active by default")
			}
			g.ID = "f1"
			return &g, nil
		},
	}

	r := setupGeofenceRouter(svc)
	body := `{"name":"Flood zone","kind":"emergency","latitude":-6.2088,"longitude":106.8456,"radius_meters":50}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/geofences", bytes.NewBufferString(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var resp domain.Geofence
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ID != "f1" {
		t.Errorf("expected f1, got %s", resp.ID)
	}
}

func TestCreateGeofence_Invalid(t *testing.T) {
	svc := &mockGeofenceService{
		createFn: func(_ context.Context, g domain.Geofence) (*domain.Geofence, error) {
			return nil, g.Validate()
		},
	}

	r := setupGeofenceRouter(svc)
	body := `{"name":"Flood zone","kind":"emergency","latitude":-6.2088,"longitude":106.8456,"radius_meters":0}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/geofences", bytes.NewBufferString(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["field"] != "radius_meters" {
		t.Errorf("expected radius_meters, got %s", resp["field"])
	}
}

func TestCreateGeofence_MissingCenter(t *testing.T) {
	svc := &mockGeofenceService{
		createFn: func(_ context.Context, g domain.Geofence) (*domain.Geofence, error) {
			return nil, g.Validate()
		},
	}

	r := setupGeofenceRouter(svc)
	body := `{"name":"Flood zone","kind":"emergency","radius_meters":50}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/geofences", bytes.NewBufferString(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestCreateGeofence_BadJSON(t *testing.T) {
	r := setupGeofenceRouter(&mockGeofenceService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/geofences", bytes.NewBufferString("{"))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetGeofence_NotFound(t *testing.T) {
	svc := &mockGeofenceService{
		getFn: func(_ context.Context, _ string) (*domain.Geofence, error) {
			return nil, domain.ErrGeofenceNotFound
		},
	}

	r := setupGeofenceRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/geofences/missing", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUpdateGeofence_UsesPathID(t *testing.T) {
	svc := &mockGeofenceService{
		updateFn: func(_ context.Context, g domain.Geofence) (*domain.Geofence, error) {
			if g.ID != "f1" {
				t.Fatalf("expected f1, got %s", g.ID)
			}
			return &g, nil
		},
	}

	r := setupGeofenceRouter(svc)
	body := `{"name":"Flood zone","kind":"emergency","latitude":-6.2,"longitude":106.8,"radius_meters":75,"active":false}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/geofences/f1", bytes.NewBufferString(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp domain.Geofence
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Active {
		t.Error("expected inactive fence")
	}
}

func TestSetActive_Success(t *testing.T) {
	svc := &mockGeofenceService{
		setActiveFn: func(_ context.Context, id string, active bool) (*domain.Geofence, error) {
			return &domain.Geofence{ID: id, Active: active}, nil
		},
	}

	r := setupGeofenceRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/geofences/f1/active", bytes.NewBufferString(`{"active":false}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSetActive_MissingField(t *testing.T) {
	r := setupGeofenceRouter(&mockGeofenceService{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/geofences/f1/active", bytes.NewBufferString(`{}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDeleteGeofence(t *testing.T) {
	svc := &mockGeofenceService{
		deleteFn: func(_ context.Context, id string) error {
			if id == "missing" {
				return domain.ErrGeofenceNotFound
			}
			return nil
		},
	}
	r := setupGeofenceRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/geofences/f1", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/geofences/missing", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListGeofences_Empty(t *testing.T) {
	svc := &mockGeofenceService{
		listFn: func(_ context.Context) ([]domain.Geofence, error) { return nil, nil },
	}

	r := setupGeofenceRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/geofences", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "[]" {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}

func TestListGeofences_Error(t *testing.T) {
	svc := &mockGeofenceService{
		listFn: func(_ context.Context) ([]domain.Geofence, error) { return nil, errors.New("db error") },
	}

	r := setupGeofenceRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/geofences", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestGeofenceHistory_Success(t *testing.T) {
	svc := &mockGeofenceService{
		historyFn: func(_ context.Context, id string) ([]domain.GeofenceHistoryEntry, error) {
			return []domain.GeofenceHistoryEntry{
				{GeofenceID: id, TrackerID: "T1", Action: domain.GeofenceEnter, Timestamp: 1000},
				{GeofenceID: id, TrackerID: "T1", Action: domain.GeofenceExit, Timestamp: 2000},
			}, nil
		},
	}

	r := setupGeofenceRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/geofences/f1/history", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp []domain.GeofenceHistoryEntry
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp) != 2 || resp[1].Action != domain.GeofenceExit {
		t.Errorf("unexpected history %+v", resp)
	}
}
