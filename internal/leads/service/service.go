// Package service implements the lead pipeline use cases on top of the
// mode-agnostic store.
package service

import (
	"context"

	domainevents "obraportal_backend/internal/events"
	"obraportal_backend/internal/leads/domain"
	"obraportal_backend/internal/leads/store"
	"obraportal_backend/internal/leads/transport"
	"obraportal_backend/internal/pipeline"
	"obraportal_backend/platform/apperr"
	"obraportal_backend/platform/events"
	"obraportal_backend/platform/phone"
	"obraportal_backend/platform/validator"

	"github.com/google/uuid"
)

// Service orchestrates validation, normalization, store calls, and event
// publication for lead operations.
type Service struct {
	store     store.Store
	reg       *pipeline.Registry
	validator *validator.Validator
	bus       events.Bus
}

// New creates the lead service.
func New(st store.Store, reg *pipeline.Registry, v *validator.Validator, bus events.Bus) *Service {
	return &Service{
		store:     st,
		reg:       reg,
		validator: v,
		bus:       bus,
	}
}

// List returns every lead in store order.
func (s *Service) List() []transport.LeadResponse {
	return transport.ToLeadResponses(s.store.List())
}

// Get returns one lead by id.
func (s *Service) Get(id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.store.Get(id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

// Create validates and inserts a new lead, then publishes LeadCreated.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return transport.LeadResponse{}, apperr.Validation("invalid lead payload").WithDetails(err.Error())
	}

	fields := domain.NewLead{
		Name:            req.Name,
		Phone:           phone.NormalizeE164(req.Phone),
		Channel:         req.Channel,
		ProjectType:     req.ProjectType,
		EstimatedBudget: req.EstimatedBudget,
		Urgency:         req.Urgency,
		Tags:            req.Tags,
		Stage:           req.Stage,
		OwnerID:         req.OwnerID.Value,
	}
	if req.Email != "" {
		fields.Email = &req.Email
	}
	if req.Zone != "" {
		fields.Zone = &req.Zone
	}

	lead, err := s.store.Create(ctx, fields)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, domainevents.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Stage:     lead.Stage,
	})
	return transport.ToLeadResponse(lead), nil
}

// Update applies a partial update. Stage is not patchable here; stage moves
// go through TransitionStage so the interaction timestamp semantics hold.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return transport.LeadResponse{}, apperr.Validation("invalid lead payload").WithDetails(err.Error())
	}

	patch, err := buildPatch(req)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if patch.IsZero() {
		return s.Get(id)
	}

	lead, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

// TransitionStage moves a lead between pipeline stages and publishes
// LeadStageChanged when the stage actually changed.
func (s *Service) TransitionStage(ctx context.Context, id uuid.UUID, stage pipeline.StageID) (transport.LeadResponse, error) {
	before, err := s.store.Get(id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	lead, err := s.store.TransitionStage(ctx, id, stage)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if before.Stage != lead.Stage {
		s.bus.Publish(ctx, domainevents.LeadStageChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    id,
			From:      before.Stage,
			To:        lead.Stage,
		})
	}
	return transport.ToLeadResponse(lead), nil
}

// Delete removes a lead, publishing LeadDeleted only when a record was
// actually removed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if removed {
		s.bus.Publish(ctx, domainevents.LeadDeleted{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    id,
		})
	}
	return nil
}

// Refresh reloads the store snapshot from the backing service.
func (s *Service) Refresh(ctx context.Context) error {
	return s.store.Refresh(ctx)
}

// Select marks a lead as open for detail viewing; nil clears the selection.
func (s *Service) Select(id *uuid.UUID) error {
	if id != nil {
		if _, err := s.store.Get(*id); err != nil {
			return err
		}
	}
	s.store.Select(id)
	return nil
}

// Selected returns the currently selected lead id, if any.
func (s *Service) Selected() *uuid.UUID {
	return s.store.Selected()
}

func buildPatch(req transport.UpdateLeadRequest) (domain.LeadPatch, error) {
	patch := domain.LeadPatch{
		Name:    req.Name,
		Channel: req.Channel,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		patch.Phone = &normalized
	}
	if req.Email.Set {
		patch.EmailSet = true
		patch.Email = req.Email.Value
	}
	if req.Zone.Set {
		patch.ZoneSet = true
		patch.Zone = req.Zone.Value
	}
	if req.ProjectType.Set {
		patch.ProjectTypeSet = true
		if req.ProjectType.Value != nil {
			pt := domain.ProjectType(*req.ProjectType.Value)
			switch pt {
			case domain.ProjectRemodel, domain.ProjectNewBuild, domain.ProjectExtension,
				domain.ProjectRoofing, domain.ProjectCommercial, domain.ProjectOther:
			default:
				return domain.LeadPatch{}, apperr.Validation("unknown project type: " + string(pt))
			}
			patch.ProjectType = &pt
		}
	}
	if req.EstimatedBudget.Set {
		if req.EstimatedBudget.Value != nil && *req.EstimatedBudget.Value < 0 {
			return domain.LeadPatch{}, apperr.Validation("estimated budget must not be negative")
		}
		patch.EstimatedBudgetSet = true
		patch.EstimatedBudget = req.EstimatedBudget.Value
	}
	if req.Urgency.Set {
		patch.UrgencySet = true
		if req.Urgency.Value != nil {
			u := domain.Urgency(*req.Urgency.Value)
			switch u {
			case domain.UrgencyLow, domain.UrgencyMedium, domain.UrgencyHigh:
			default:
				return domain.LeadPatch{}, apperr.Validation("unknown urgency: " + string(u))
			}
			patch.Urgency = &u
		}
	}
	if req.Tags.Set {
		patch.TagsSet = true
		patch.Tags = req.Tags.Value
	}
	if req.OwnerID.Set {
		patch.OwnerIDSet = true
		patch.OwnerID = req.OwnerID.Value
	}
	if req.LossReason.Set {
		patch.LossReasonSet = true
		patch.LossReason = req.LossReason.Value
	}
	return patch, nil
}
