package board

import (
	"obraportal_backend/internal/board/drag"
	leadtransport "obraportal_backend/internal/leads/transport"
	"obraportal_backend/internal/pipeline"

	"github.com/google/uuid"
)

// Response DTOs

type StageResponse struct {
	ID       pipeline.StageID `json:"id"`
	Label    string           `json:"label"`
	Color    string           `json:"color"`
	Terminal bool             `json:"terminal"`
}

type ColumnResponse struct {
	Stage       StageResponse                `json:"stage"`
	Leads       []leadtransport.LeadResponse `json:"leads"`
	Count       int                          `json:"count"`
	TotalBudget float64                      `json:"totalBudget"`
}

type BoardResponse struct {
	Columns []ColumnResponse `json:"columns"`
}

type GestureStateResponse struct {
	State drag.State     `json:"state"`
	Hover *drag.DropZone `json:"hover,omitempty"`
}

// Request DTOs

type LayoutRequest struct {
	Zones []drag.DropZone `json:"zones" validate:"required,dive"`
}

type PointerDownRequest struct {
	LeadID uuid.UUID  `json:"leadId" validate:"required"`
	At     drag.Point `json:"at"`
}

type PointerMoveRequest struct {
	At drag.Point `json:"at"`
}

type PointerUpRequest struct {
	At drag.Point `json:"at"`
}

func toBoardResponse(columns []Column) BoardResponse {
	out := BoardResponse{Columns: make([]ColumnResponse, 0, len(columns))}
	for _, col := range columns {
		out.Columns = append(out.Columns, ColumnResponse{
			Stage: StageResponse{
				ID:       col.Stage.ID,
				Label:    col.Stage.Label,
				Color:    col.Stage.Color,
				Terminal: col.Stage.Terminal,
			},
			Leads:       leadtransport.ToLeadResponses(col.Leads),
			Count:       col.Count,
			TotalBudget: col.TotalBudget,
		})
	}
	return out
}
