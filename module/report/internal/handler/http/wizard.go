package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/openrelief/module/report/domain"
	"github.com/nandanugg/openrelief/module/report/wizard"
)

type reportService interface {
	Steps() []wizard.StepDef
	Start() wizard.State
	Validate(st wizard.State, stepID string, payload map[string]any) (wizard.State, error)
	Advance(st wizard.State, stepID string, payload map[string]any) (wizard.State, error)
	Retreat(st wizard.State) (wizard.State, error)
	JumpTo(st wizard.State, index int) (wizard.State, error)
	Submit(ctx context.Context, st wizard.State) (*domain.Report, error)
}

// wizardRequest carries the client-held state plus, optionally, the payload
// just entered for one step.
type wizardRequest struct {
	State   wizard.State   `json:"state"`
	StepID  string         `json:"step_id"`
	Payload map[string]any `json:"payload"`
	Index   *int           `json:"index"`
}

type WizardHandler struct {
	svc reportService
}

func NewWizardHandler(svc reportService) *WizardHandler {
	return &WizardHandler{svc: svc}
}

func (h *WizardHandler) Register(r *gin.RouterGroup) {
	r.GET("/reports/wizard", h.GetSchema)
	r.POST("/reports/wizard/validate", h.Validate)
	r.POST("/reports/wizard/advance", h.Advance)
	r.POST("/reports/wizard/retreat", h.Retreat)
	r.POST("/reports/wizard/jump", h.Jump)
	r.POST("/reports", h.Submit)
}

func (h *WizardHandler) GetSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"steps": h.svc.Steps(),
		"state": h.svc.Start(),
	})
}

func (h *WizardHandler) Validate(c *gin.Context) {
	req, ok := bindWizardRequest(c)
	if !ok {
		return
	}
	st, err := h.svc.Validate(req.State, req.StepID, req.Payload)
	writeState(c, st, err)
}

func (h *WizardHandler) Advance(c *gin.Context) {
	req, ok := bindWizardRequest(c)
	if !ok {
		return
	}
	st, err := h.svc.Advance(req.State, req.StepID, req.Payload)
	writeState(c, st, err)
}

func (h *WizardHandler) Retreat(c *gin.Context) {
	req, ok := bindWizardRequest(c)
	if !ok {
		return
	}
	st, err := h.svc.Retreat(req.State)
	writeState(c, st, err)
}

func (h *WizardHandler) Jump(c *gin.Context) {
	req, ok := bindWizardRequest(c)
	if !ok {
		return
	}
	if req.Index == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}
	st, err := h.svc.JumpTo(req.State, *req.Index)
	writeState(c, st, err)
}

func (h *WizardHandler) Submit(c *gin.Context) {
	req, ok := bindWizardRequest(c)
	if !ok {
		return
	}

	report, err := h.svc.Submit(c.Request.Context(), req.State)
	var incomplete *wizard.IncompleteError
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, report)
	case errors.As(err, &incomplete):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "report is incomplete",
			"step":   incomplete.StepIndex,
			"errors": incomplete.Errors,
		})
	case errors.Is(err, wizard.ErrNotFinalStep):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, wizard.ErrStepOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit report"})
	}
}

func bindWizardRequest(c *gin.Context) (wizardRequest, bool) {
	var req wizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, false
	}
	return req, true
}

func writeState(c *gin.Context, st wizard.State, err error) {
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}
