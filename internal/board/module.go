package board

import (
	"context"

	"obraportal_backend/internal/board/drag"
	apphttp "obraportal_backend/internal/http"
	leadservice "obraportal_backend/internal/leads/service"
	"obraportal_backend/internal/leads/store"
	"obraportal_backend/internal/pipeline"
	"obraportal_backend/platform/logger"
	"obraportal_backend/platform/validator"

	"github.com/google/uuid"
)

// Module is the board bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule wires the board over the shared store and the lead service. The
// drag controller commits drops through the service so stage-change events
// and logging fire exactly as they do for direct API transitions.
func NewModule(st store.Store, svc *leadservice.Service, reg *pipeline.Registry, val *validator.Validator, log *logger.Logger) *Module {
	agg := NewAggregator(st, reg)
	ctrl := drag.New(serviceCommitter{svc: svc}, serviceOpener{svc: svc, log: log})
	return &Module{
		handler: NewHandler(agg, ctrl, svc, val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "board"
}

// RegisterRoutes mounts board routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1)
}

// serviceCommitter adapts the lead service to drag.Committer.
type serviceCommitter struct {
	svc *leadservice.Service
}

func (s serviceCommitter) CommitStage(ctx context.Context, leadID uuid.UUID, stage pipeline.StageID) error {
	_, err := s.svc.TransitionStage(ctx, leadID, stage)
	return err
}

// serviceOpener adapts the lead service to drag.Opener: a click selects the
// card for detail viewing. A click never fails the gesture, so a selection
// error (the card was deleted mid-gesture) is logged rather than returned.
type serviceOpener struct {
	svc *leadservice.Service
	log *logger.Logger
}

func (s serviceOpener) OpenLead(leadID uuid.UUID) {
	id := leadID
	if err := s.svc.Select(&id); err != nil && s.log != nil {
		s.log.Warn("failed to select lead on click", "lead_id", id, "error", err)
	}
}

var _ apphttp.Module = (*Module)(nil)
var _ drag.Committer = serviceCommitter{}
var _ drag.Opener = serviceOpener{}
