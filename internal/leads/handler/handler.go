// Package handler exposes the lead pipeline over HTTP.
package handler

import (
	"net/http"

	"obraportal_backend/internal/leads/service"
	"obraportal_backend/internal/leads/transport"
	"obraportal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidLeadID  = "invalid lead id"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc *service.Service
}

// New creates a new leads handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes adds lead routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	leads := rg.Group("/leads")
	leads.GET("", h.List)
	leads.POST("", h.Create)
	leads.POST("/refresh", h.Refresh)
	leads.GET("/selection", h.GetSelection)
	leads.PUT("/selection", h.PutSelection)
	leads.GET("/:id", h.Get)
	leads.PATCH("/:id", h.Update)
	leads.DELETE("/:id", h.Delete)
	leads.POST("/:id/stage", h.TransitionStage)
	leads.GET("/:id/notes", h.ListNotes)
	leads.POST("/:id/notes", h.AddNote)
}

// List returns every lead in store order.
func (h *Handler) List(c *gin.Context) {
	httpkit.OK(c, h.svc.List())
}

// Get returns one lead by id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	lead, err := h.svc.Get(id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// Create inserts a new lead.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

// Update applies a partial update to a lead.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// TransitionStage moves a lead to a new pipeline stage.
func (h *Handler) TransitionStage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	var req transport.TransitionStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.TransitionStage(c.Request.Context(), id, req.Stage)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// Delete removes a lead.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh reloads the lead snapshot from the backing service.
func (h *Handler) Refresh(c *gin.Context) {
	if httpkit.HandleError(c, h.svc.Refresh(c.Request.Context())) {
		return
	}
	httpkit.OK(c, h.svc.List())
}

// GetSelection returns the currently selected lead id.
func (h *Handler) GetSelection(c *gin.Context) {
	httpkit.OK(c, transport.SelectionResponse{LeadID: h.svc.Selected()})
}

// PutSelection sets or clears the selected lead.
func (h *Handler) PutSelection(c *gin.Context) {
	var req transport.SelectLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Select(req.LeadID.Value)) {
		return
	}
	httpkit.OK(c, transport.SelectionResponse{LeadID: h.svc.Selected()})
}
