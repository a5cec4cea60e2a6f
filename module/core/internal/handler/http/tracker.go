package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/openrelief/module/core/domain"
)

var nan = math.NaN()

type trackerService interface {
	Alerts(trackerID string) ([]domain.ProximityAlert, error)
	MarkRead(trackerID, alertID string) error
	Dismiss(trackerID, alertID string) error
	LastLocation(trackerID string) (*domain.GeoPoint, error)
	Check(ctx context.Context, p domain.GeoPoint, thresholdMeters float64) ([]domain.ProximityAlert, error)
}

type checkRequest struct {
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	ThresholdMeters float64  `json:"threshold_meters"`
}

type TrackerHandler struct {
	svc trackerService
	now func() time.Time
}

func NewTrackerHandler(svc trackerService) *TrackerHandler {
	return &TrackerHandler{svc: svc, now: time.Now}
}

func (h *TrackerHandler) Register(r *gin.RouterGroup) {
	r.GET("/trackers/:tracker_id/location", h.GetLastLocation)
	r.GET("/trackers/:tracker_id/alerts", h.GetAlerts)
	r.POST("/trackers/:tracker_id/alerts/:alert_id/read", h.MarkRead)
	r.DELETE("/trackers/:tracker_id/alerts/:alert_id", h.Dismiss)
	r.POST("/proximity/check", h.Check)
}

func (h *TrackerHandler) GetLastLocation(c *gin.Context) {
	p, err := h.svc.LastLocation(c.Param("tracker_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tracker not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *TrackerHandler) GetAlerts(c *gin.Context) {
	alerts, err := h.svc.Alerts(c.Param("tracker_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tracker not found"})
		return
	}

	if c.Query("unread") == "true" {
		unread := alerts[:0]
		for _, a := range alerts {
			if !a.Read {
				unread = append(unread, a)
			}
		}
		alerts = unread
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *TrackerHandler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Param("tracker_id"), c.Param("alert_id")); err != nil {
		writeAlertError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TrackerHandler) Dismiss(c *gin.Context) {
	if err := h.svc.Dismiss(c.Param("tracker_id"), c.Param("alert_id")); err != nil {
		writeAlertError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TrackerHandler) Check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}
	if req.ThresholdMeters < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold_meters: must not be negative"})
		return
	}

	p := domain.GeoPoint{Lat: *req.Latitude, Lon: *req.Longitude, Timestamp: h.now().UnixMilli()}
	if err := p.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alerts, err := h.svc.Check(c.Request.Context(), p, req.ThresholdMeters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "proximity check failed"})
		return
	}
	if alerts == nil {
		alerts = []domain.ProximityAlert{}
	}
	c.JSON(http.StatusOK, alerts)
}

func writeAlertError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrTrackerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "tracker not found"})
	case errors.Is(err, domain.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "alert operation failed"})
	}
}
