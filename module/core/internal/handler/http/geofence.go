package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/openrelief/module/core/domain"
)

type geofenceService interface {
	Create(ctx context.Context, g domain.Geofence) (*domain.Geofence, error)
	Update(ctx context.Context, g domain.Geofence) (*domain.Geofence, error)
	SetActive(ctx context.Context, id string, active bool) (*domain.Geofence, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Geofence, error)
	List(ctx context.Context) ([]domain.Geofence, error)
	History(ctx context.Context, id string) ([]domain.GeofenceHistoryEntry, error)
}

type geofenceRequest struct {
	Name         string              `json:"name"`
	Kind         domain.GeofenceKind `json:"kind"`
	Latitude     *float64            `json:"latitude"`
	Longitude    *float64            `json:"longitude"`
	RadiusMeters float64             `json:"radius_meters"`
	Active       *bool               `json:"active"`
	Severity     domain.Severity     `json:"severity"`
	ExpiresAt    *int64              `json:"expires_at"`
}

type activeRequest struct {
	Active *bool `json:"active"`
}

type GeofenceHandler struct {
	svc geofenceService
}

func NewGeofenceHandler(svc geofenceService) *GeofenceHandler {
	return &GeofenceHandler{svc: svc}
}

func (h *GeofenceHandler) Register(r *gin.RouterGroup) {
	r.GET("/geofences", h.List)
	r.POST("/geofences", h.Create)
	r.GET("/geofences/:geofence_id", h.Get)
	r.PUT("/geofences/:geofence_id", h.Update)
	r.PATCH("/geofences/:geofence_id/active", h.SetActive)
	r.DELETE("/geofences/:geofence_id", h.Delete)
	r.GET("/geofences/:geofence_id/history", h.History)
}

func (h *GeofenceHandler) List(c *gin.Context) {
	fences, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch geofences"})
		return
	}
	if fences == nil {
		fences = []domain.Geofence{}
	}
	c.JSON(http.StatusOK, fences)
}

func (h *GeofenceHandler) Create(c *gin.Context) {
	var req geofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	g, err := h.svc.Create(c.Request.Context(), req.toGeofence(""))
	if err != nil {
		writeGeofenceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *GeofenceHandler) Get(c *gin.Context) {
	g, err := h.svc.Get(c.Request.Context(), c.Param("geofence_id"))
	if err != nil {
		writeGeofenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GeofenceHandler) Update(c *gin.Context) {
	var req geofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	g, err := h.svc.Update(c.Request.Context(), req.toGeofence(c.Param("geofence_id")))
	if err != nil {
		writeGeofenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GeofenceHandler) SetActive(c *gin.Context) {
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active: required"})
		return
	}

	g, err := h.svc.SetActive(c.Request.Context(), c.Param("geofence_id"), *req.Active)
	if err != nil {
		writeGeofenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GeofenceHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("geofence_id")); err != nil {
		writeGeofenceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GeofenceHandler) History(c *gin.Context) {
	entries, err := h.svc.History(c.Request.Context(), c.Param("geofence_id"))
	if err != nil {
		writeGeofenceError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.GeofenceHistoryEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// toGeofence maps the request onto a fence. Missing coordinates are sent as
// NaN so validation rejects them instead of defaulting to 0,0.
func (r geofenceRequest) toGeofence(id string) domain.Geofence {
	g := domain.Geofence{
		ID:           id,
		Name:         r.Name,
		Kind:         r.Kind,
		RadiusMeters: r.RadiusMeters,
		Active:       true,
		Severity:     r.Severity,
		ExpiresAt:    r.ExpiresAt,
		Center:       domain.GeoPoint{Lat: nan, Lon: nan},
	}
	if r.Latitude != nil {
		g.Center.Lat = *r.Latitude
	}
	if r.Longitude != nil {
		g.Center.Lon = *r.Longitude
	}
	if r.Active != nil {
		g.Active = *r.Active
	}
	return g
}

func writeGeofenceError(c *gin.Context, err error) {
	var ige *domain.InvalidGeofenceError
	switch {
	case errors.As(err, &ige):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ige.Error(), "field": ige.Field})
	case errors.Is(err, domain.ErrGeofenceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "geofence not found"})
	case errors.Is(err, domain.ErrGeofenceExists):
		c.JSON(http.StatusConflict, gin.H{"error": "geofence already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "geofence operation failed"})
	}
}
