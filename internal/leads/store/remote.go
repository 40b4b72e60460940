package store

import (
	"context"
	"sync"

	"obraportal_backend/internal/leads/domain"
	"obraportal_backend/internal/pipeline"
	"obraportal_backend/platform/apperr"
	"obraportal_backend/platform/logger"

	"github.com/google/uuid"
)

// Remote is the online-mode store. The in-memory list starts empty and is
// populated by Refresh. Every mutation goes to the backend first; the cache
// is touched only after the request succeeds, so it always reflects the last
// known-good remote state. There is no mid-session fallback to local mode: a
// failed call surfaces as an error, never as a silent degrade.
type Remote struct {
	mu       sync.RWMutex
	leads    []domain.Lead
	selected *uuid.UUID
	lastErr  error

	backend Backend
	reg     *pipeline.Registry
	log     *logger.Logger
}

// NewRemote builds the online store over the given backend.
func NewRemote(reg *pipeline.Registry, backend Backend, log *logger.Logger) *Remote {
	return &Remote{
		backend: backend,
		reg:     reg,
		log:     log,
	}
}

// Refresh replaces the cache with the full remote snapshot, ordered by
// creation time descending. Called on demand only; there is no polling.
func (r *Remote) Refresh(ctx context.Context) error {
	leads, err := r.backend.FetchAll(ctx)
	if err != nil {
		return r.fail("store.Refresh", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = leads
	return nil
}

// List returns the cached snapshot.
func (r *Remote) List() []domain.Lead {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Lead, 0, len(r.leads))
	for _, l := range r.leads {
		out = append(out, l.Clone())
	}
	return out
}

// Get returns one cached lead by id.
func (r *Remote) Get(id uuid.UUID) (domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOfLocked(id)
	if i < 0 {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	return r.leads[i].Clone(), nil
}

// Create validates locally, inserts remotely, then prepends the server-
// stamped lead (the cache is ordered newest first, matching FetchAll).
func (r *Remote) Create(ctx context.Context, fields domain.NewLead) (domain.Lead, error) {
	if err := validateNew(r.reg, &fields); err != nil {
		return domain.Lead{}, err
	}

	lead, err := r.backend.Insert(ctx, fields)
	if err != nil {
		return domain.Lead{}, r.fail("store.Create", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append([]domain.Lead{lead}, r.leads...)
	return lead.Clone(), nil
}

// Update patches remotely and applies the server-stamped result on success.
func (r *Remote) Update(ctx context.Context, id uuid.UUID, patch domain.LeadPatch) (domain.Lead, error) {
	if err := validatePatch(patch); err != nil {
		return domain.Lead{}, err
	}
	if err := r.requireCached(id, "store.Update"); err != nil {
		return domain.Lead{}, err
	}

	updated, err := r.backend.Patch(ctx, id, PatchParams{LeadPatch: patch})
	if err != nil {
		return domain.Lead{}, r.fail("store.Update", err)
	}

	r.replace(updated)
	return updated.Clone(), nil
}

// TransitionStage patches the stage field remotely, bumping the interaction
// timestamp. A same-stage transition is resolved locally as a no-op without
// touching the backend.
func (r *Remote) TransitionStage(ctx context.Context, id uuid.UUID, stage pipeline.StageID) (domain.Lead, error) {
	if err := validateStage(r.reg, stage); err != nil {
		return domain.Lead{}, err
	}

	current, err := r.Get(id)
	if err != nil {
		return domain.Lead{}, r.record(apperr.NotFound("lead not found").WithOp("store.TransitionStage"))
	}
	if current.Stage == stage {
		return current, nil
	}

	params := PatchParams{Stage: &stage, TouchInteraction: true}
	if stage != r.reg.Terminal().ID {
		// A loss reason is only meaningful in the terminal stage.
		params.LossReasonSet = true
	}
	updated, err := r.backend.Patch(ctx, id, params)
	if err != nil {
		return domain.Lead{}, r.fail("store.TransitionStage", err)
	}

	r.replace(updated)
	return updated.Clone(), nil
}

// AddNote inserts the note remotely, then appends it to the cached lead.
func (r *Remote) AddNote(ctx context.Context, id uuid.UUID, authorID *uuid.UUID, body string) (domain.Lead, error) {
	trimmed, err := validateNote(body)
	if err != nil {
		return domain.Lead{}, err
	}
	if err := r.requireCached(id, "store.AddNote"); err != nil {
		return domain.Lead{}, err
	}

	note, err := r.backend.InsertNote(ctx, id, authorID, trimmed)
	if err != nil {
		return domain.Lead{}, r.fail("store.AddNote", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOfLocked(id)
	if i < 0 {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	r.leads[i].Notes = append(r.leads[i].Notes, note)
	r.leads[i].UpdatedAt = note.CreatedAt
	r.leads[i].LastInteractionAt = note.CreatedAt
	return r.leads[i].Clone(), nil
}

// Delete removes the record remotely, then from the cache, reporting whether
// a record was actually removed. Idempotent: a missing id is a no-op that
// never reaches the backend.
func (r *Remote) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	present := r.indexOfLocked(id) >= 0
	r.mu.RUnlock()
	if !present {
		return false, nil
	}

	if err := r.backend.Remove(ctx, id); err != nil {
		return false, r.fail("store.Delete", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOfLocked(id); i >= 0 {
		r.leads = append(r.leads[:i], r.leads[i+1:]...)
	}
	if r.selected != nil && *r.selected == id {
		r.selected = nil
	}
	return true, nil
}

// Select sets or clears the lead open for detail viewing. UI-adjacent state,
// never persisted remotely.
func (r *Remote) Select(id *uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = id
}

// Selected returns the currently selected lead id.
func (r *Remote) Selected() *uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected
}

// LastError returns the most recent recorded failure.
func (r *Remote) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

func (r *Remote) indexOfLocked(id uuid.UUID) int {
	for i := range r.leads {
		if r.leads[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Remote) requireCached(id uuid.UUID, op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOfLocked(id) < 0 {
		return r.recordLocked(apperr.NotFound("lead not found").WithOp(op))
	}
	return nil
}

func (r *Remote) replace(lead domain.Lead) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOfLocked(lead.ID); i >= 0 {
		r.leads[i] = lead
	}
}

// fail normalizes a backend error: typed NotFound passes through, anything
// else becomes an Unavailable store error. Either way it is recorded as the
// last error and the cache is left untouched.
func (r *Remote) fail(op string, err error) error {
	if apperr.Is(err, apperr.KindNotFound) {
		return r.record(apperr.NotFound("lead not found").WithOp(op))
	}
	return r.record(apperr.Unavailable("lead service unavailable", err).WithOp(op))
}

func (r *Remote) record(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recordLocked(err)
}

func (r *Remote) recordLocked(err error) error {
	r.lastErr = err
	if r.log != nil {
		r.log.StoreError("remote", err)
	}
	return err
}

var _ Store = (*Remote)(nil)
