// Package store owns the canonical lead collection. It is constructed in
// exactly one of two modes at process start: a local mode seeded from demo
// data and mirrored to a durable snapshot, or a remote mode backed by a
// relational service. Both modes expose the same operations, return shapes,
// and error taxonomy, so no other component can tell them apart.
//
// The in-memory lead list is the only shared mutable resource of the
// pipeline engine and is mutated exclusively through these operations.
package store

import (
	"context"
	"strings"

	"obraportal_backend/internal/leads/domain"
	"obraportal_backend/internal/pipeline"
	"obraportal_backend/platform/apperr"

	"github.com/google/uuid"
)

// Store is the single source of truth for leads.
type Store interface {
	// List returns the current in-memory snapshot in store order.
	List() []domain.Lead
	// Get returns one lead by id.
	Get(id uuid.UUID) (domain.Lead, error)
	// Create validates, inserts, and persists a new lead.
	Create(ctx context.Context, fields domain.NewLead) (domain.Lead, error)
	// Update applies a partial update. Unknown ids surface NotFound.
	Update(ctx context.Context, id uuid.UUID, patch domain.LeadPatch) (domain.Lead, error)
	// TransitionStage moves a lead to a new pipeline stage, additionally
	// bumping the last-interaction timestamp. A same-stage transition is an
	// idempotent no-op.
	TransitionStage(ctx context.Context, id uuid.UUID, stage pipeline.StageID) (domain.Lead, error)
	// AddNote appends an entry to the lead's note log.
	AddNote(ctx context.Context, id uuid.UUID, authorID *uuid.UUID, body string) (domain.Lead, error)
	// Delete removes the record and reports whether one was actually removed.
	// Idempotent: deleting a missing id is a no-op that reports false.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// Refresh reloads the snapshot from the backing service (remote mode);
	// a no-op in local mode.
	Refresh(ctx context.Context) error
	// Select sets or clears which lead is open for detail viewing.
	Select(id *uuid.UUID)
	// Selected returns the currently selected lead id, if any.
	Selected() *uuid.UUID
	// LastError returns the most recent NotFound or store failure, for the
	// caller's UI to surface. Errors are never retried automatically.
	LastError() error
}

// PatchParams is the wire-level partial update sent to the remote backend.
// A stage transition is a patch restricted to the stage field plus an
// interaction-timestamp bump.
type PatchParams struct {
	domain.LeadPatch
	Stage            *pipeline.StageID
	TouchInteraction bool
}

// Backend is the remote relational service consumed in remote mode.
// The server assigns ids and timestamps on insert and re-stamps updated_at
// on patch.
type Backend interface {
	FetchAll(ctx context.Context) ([]domain.Lead, error)
	Insert(ctx context.Context, fields domain.NewLead) (domain.Lead, error)
	Patch(ctx context.Context, id uuid.UUID, params PatchParams) (domain.Lead, error)
	Remove(ctx context.Context, id uuid.UUID) error
	InsertNote(ctx context.Context, leadID uuid.UUID, authorID *uuid.UUID, body string) (domain.Note, error)
}

// validateNew checks field rules shared by both modes. Always runs before
// any I/O so invalid input never reaches the remote service.
func validateNew(reg *pipeline.Registry, fields *domain.NewLead) error {
	if strings.TrimSpace(fields.Name) == "" {
		return apperr.Validation("lead name is required")
	}
	if fields.Channel == "" {
		fields.Channel = domain.ChannelOther
	}
	if !domain.IsKnownChannel(fields.Channel) {
		return apperr.Validation("unknown origin channel: " + string(fields.Channel))
	}
	if fields.Stage == "" {
		fields.Stage = reg.First().ID
	} else if !reg.Contains(fields.Stage) {
		return apperr.Validation("unknown pipeline stage: " + string(fields.Stage))
	}
	if fields.Tags == nil {
		fields.Tags = []string{}
	}
	return nil
}

func validatePatch(patch domain.LeadPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return apperr.Validation("lead name is required")
	}
	if patch.Channel != nil && !domain.IsKnownChannel(*patch.Channel) {
		return apperr.Validation("unknown origin channel: " + string(*patch.Channel))
	}
	return nil
}

func validateStage(reg *pipeline.Registry, stage pipeline.StageID) error {
	if !reg.Contains(stage) {
		return apperr.Validation("unknown pipeline stage: " + string(stage))
	}
	return nil
}

func validateNote(body string) (string, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || len(trimmed) > 2000 {
		return "", apperr.Validation("note body must be between 1 and 2000 characters")
	}
	return trimmed, nil
}
