package board

import (
	"net/http"
	"strconv"

	"obraportal_backend/internal/board/drag"
	leadservice "obraportal_backend/internal/leads/service"
	leadtransport "obraportal_backend/internal/leads/transport"
	"obraportal_backend/platform/httpkit"
	"obraportal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const msgInvalidRequest = "invalid request"

// Handler exposes the board view and the drag gesture session over HTTP.
type Handler struct {
	agg  *Aggregator
	ctrl *drag.Controller
	svc  *leadservice.Service
	val  *validator.Validator
}

// NewHandler creates a board handler.
func NewHandler(agg *Aggregator, ctrl *drag.Controller, svc *leadservice.Service, val *validator.Validator) *Handler {
	return &Handler{agg: agg, ctrl: ctrl, svc: svc, val: val}
}

// RegisterRoutes adds board routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	board := rg.Group("/board")
	board.GET("", h.GetBoard)
	board.GET("/recent", h.GetRecent)
	board.PUT("/layout", h.PutLayout)
	board.GET("/gesture", h.GetGesture)
	board.POST("/gesture/down", h.PointerDown)
	board.POST("/gesture/move", h.PointerMove)
	board.POST("/gesture/up", h.PointerUp)
	board.POST("/gesture/cancel", h.Cancel)
}

// GetBoard returns every column with its leads and rollups.
func (h *Handler) GetBoard(c *gin.Context) {
	httpkit.OK(c, toBoardResponse(h.agg.Snapshot()))
}

// GetRecent returns leads ordered by last interaction, newest first.
func (h *Handler) GetRecent(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			httpkit.Error(c, http.StatusBadRequest, "limit must be between 1 and 100", nil)
			return
		}
		limit = parsed
	}
	httpkit.OK(c, leadtransport.ToLeadResponses(h.agg.RecentlyActive(limit)))
}

// PutLayout replaces the registered drop zones after a client re-layout.
func (h *Handler) PutLayout(c *gin.Context) {
	var req LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	h.ctrl.SetZones(req.Zones)
	c.Status(http.StatusNoContent)
}

// GetGesture returns the gesture phase and the hovered drop zone.
func (h *Handler) GetGesture(c *gin.Context) {
	httpkit.OK(c, GestureStateResponse{
		State: h.ctrl.State(),
		Hover: h.ctrl.Hover(),
	})
}

// PointerDown arms a gesture on a card.
func (h *Handler) PointerDown(c *gin.Context) {
	var req PointerDownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Get(req.LeadID)
	if httpkit.HandleError(c, err) {
		return
	}

	if httpkit.HandleError(c, h.ctrl.PointerDown(lead.ID, lead.Stage, req.At)) {
		return
	}
	httpkit.OK(c, GestureStateResponse{State: h.ctrl.State()})
}

// PointerMove advances the gesture and reports the hovered drop zone.
func (h *Handler) PointerMove(c *gin.Context) {
	var req PointerMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	hover := h.ctrl.PointerMove(req.At)
	httpkit.OK(c, GestureStateResponse{State: h.ctrl.State(), Hover: hover})
}

// PointerUp ends the gesture: click opens the card, a drop on another column
// commits the stage transition.
func (h *Handler) PointerUp(c *gin.Context) {
	var req PointerUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.ctrl.PointerUp(c.Request.Context(), req.At)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Cancel aborts the gesture without committing anything.
func (h *Handler) Cancel(c *gin.Context) {
	h.ctrl.Cancel()
	c.Status(http.StatusNoContent)
}
