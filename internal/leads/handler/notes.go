package handler

import (
	"net/http"

	"obraportal_backend/internal/leads/transport"
	"obraportal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListNotes returns a lead's note log, oldest first.
func (h *Handler) ListNotes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	notes, err := h.svc.Notes(id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, notes)
}

// AddNote appends a note to a lead, attributed to the acting agent when the
// upstream auth layer supplied one.
func (h *Handler) AddNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	var req transport.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var authorID *uuid.UUID
	if identity := httpkit.IdentityFromContext(c); identity.IsAuthenticated() {
		agentID := identity.AgentID()
		authorID = &agentID
	}

	lead, err := h.svc.AddNote(c.Request.Context(), id, authorID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}
