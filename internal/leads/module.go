// Package leads provides the lead pipeline bounded context: the dual-mode
// store, its HTTP surface, and the note log.
package leads

import (
	apphttp "obraportal_backend/internal/http"
	"obraportal_backend/internal/leads/handler"
	"obraportal_backend/internal/leads/service"
	"obraportal_backend/internal/leads/store"
	"obraportal_backend/internal/pipeline"
	"obraportal_backend/platform/events"
	"obraportal_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the leads module over an already-constructed store. The
// store's mode (local or remote) is decided by the composition root; nothing
// in this module can tell the difference.
func NewModule(st store.Store, reg *pipeline.Registry, bus events.Bus, val *validator.Validator) *Module {
	svc := service.New(st, reg, val, bus)
	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1)
}

var _ apphttp.Module = (*Module)(nil)
