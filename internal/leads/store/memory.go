package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"obraportal_backend/internal/leads/domain"
	"obraportal_backend/internal/pipeline"
	"obraportal_backend/platform/apperr"
	"obraportal_backend/platform/logger"

	"github.com/google/uuid"
)

// snapshot is the single durable entry mirrored to disk after every
// mutation: the serialized lead list plus the selected lead id.
type snapshot struct {
	Leads      []domain.Lead `json:"leads"`
	SelectedID *uuid.UUID    `json:"selectedId,omitempty"`
}

// Memory is the local/demo-mode store. All operations are synchronous and
// always succeed unless a field-validation rule is violated. The in-memory
// list is authoritative; the disk mirror is best effort, and a failed mirror
// write is logged and recorded as the last error without failing the
// operation.
type Memory struct {
	mu       sync.RWMutex
	leads    []domain.Lead
	selected *uuid.UUID
	lastErr  error

	reg  *pipeline.Registry
	path string
	log  *logger.Logger
	now  func() time.Time
}

// NewMemory builds the local store. An existing snapshot at path is restored
// verbatim; otherwise the store starts from seed and mirrors it immediately.
// An empty path disables the durable mirror (useful in tests).
func NewMemory(reg *pipeline.Registry, path string, seed []domain.Lead, log *logger.Logger) (*Memory, error) {
	m := &Memory{
		reg:  reg,
		path: path,
		log:  log,
		now:  time.Now,
	}

	restored, err := m.restore()
	if err != nil {
		return nil, err
	}
	if !restored {
		m.leads = make([]domain.Lead, 0, len(seed))
		for _, l := range seed {
			m.leads = append(m.leads, l.Clone())
		}
		if err := m.persistLocked(); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Memory) restore() (bool, error) {
	if m.path == "" {
		return false, nil
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read lead snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return false, fmt.Errorf("parse lead snapshot: %w", err)
	}

	// A stale snapshot may predate a stage-catalogue override. Leads in a
	// stage the registry no longer knows are remapped to the first stage so
	// every lead stays on the board.
	remapped := false
	first := m.reg.First().ID
	for i := range snap.Leads {
		if m.reg.Contains(snap.Leads[i].Stage) {
			continue
		}
		if m.log != nil {
			m.log.Warn("snapshot lead in unknown stage, remapping",
				"lead_id", snap.Leads[i].ID,
				"stage", string(snap.Leads[i].Stage),
				"remapped_to", string(first),
			)
		}
		snap.Leads[i].Stage = first
		remapped = true
	}

	m.leads = snap.Leads
	m.selected = snap.SelectedID
	if remapped {
		if err := m.persistLocked(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// persistLocked writes the snapshot atomically. Callers must hold the lock.
func (m *Memory) persistLocked() error {
	if m.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(snapshot{Leads: m.leads, SelectedID: m.selected}, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize lead snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write lead snapshot: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("rename lead snapshot: %w", err)
	}

	return nil
}

func (m *Memory) indexOfLocked(id uuid.UUID) int {
	for i := range m.leads {
		if m.leads[i].ID == id {
			return i
		}
	}
	return -1
}

// List returns the current snapshot in insertion order.
func (m *Memory) List() []domain.Lead {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Lead, 0, len(m.leads))
	for _, l := range m.leads {
		out = append(out, l.Clone())
	}
	return out
}

// Get returns one lead by id.
func (m *Memory) Get(id uuid.UUID) (domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOfLocked(id)
	if i < 0 {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	return m.leads[i].Clone(), nil
}

// Create validates, stamps, inserts, and mirrors a new lead.
func (m *Memory) Create(_ context.Context, fields domain.NewLead) (domain.Lead, error) {
	if err := validateNew(m.reg, &fields); err != nil {
		return domain.Lead{}, err
	}

	now := m.now()
	lead := domain.Lead{
		ID:                uuid.New(),
		Name:              fields.Name,
		Phone:             fields.Phone,
		Email:             fields.Email,
		Zone:              fields.Zone,
		Channel:           fields.Channel,
		ProjectType:       fields.ProjectType,
		EstimatedBudget:   fields.EstimatedBudget,
		Urgency:           fields.Urgency,
		Tags:              append([]string{}, fields.Tags...),
		Notes:             []domain.Note{},
		Stage:             fields.Stage,
		OwnerID:           fields.OwnerID,
		CreatedAt:         now,
		UpdatedAt:         now,
		LastInteractionAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads = append(m.leads, lead)
	m.mirrorLocked()
	return lead.Clone(), nil
}

// Update applies a partial update and refreshes updated_at.
func (m *Memory) Update(_ context.Context, id uuid.UUID, patch domain.LeadPatch) (domain.Lead, error) {
	if err := validatePatch(patch); err != nil {
		return domain.Lead{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOfLocked(id)
	if i < 0 {
		return domain.Lead{}, m.recordLocked(apperr.NotFound("lead not found").WithOp("store.Update"))
	}

	patch.Apply(&m.leads[i])
	m.leads[i].UpdatedAt = m.now()
	m.mirrorLocked()
	return m.leads[i].Clone(), nil
}

// TransitionStage moves a lead to a new stage, bumping both updated_at and
// last_interaction_at. Transitioning to the current stage changes nothing.
func (m *Memory) TransitionStage(_ context.Context, id uuid.UUID, stage pipeline.StageID) (domain.Lead, error) {
	if err := validateStage(m.reg, stage); err != nil {
		return domain.Lead{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOfLocked(id)
	if i < 0 {
		return domain.Lead{}, m.recordLocked(apperr.NotFound("lead not found").WithOp("store.TransitionStage"))
	}

	if m.leads[i].Stage == stage {
		return m.leads[i].Clone(), nil
	}

	now := m.now()
	m.leads[i].Stage = stage
	m.leads[i].UpdatedAt = now
	m.leads[i].LastInteractionAt = now
	if terminal := m.reg.Terminal(); stage != terminal.ID {
		// A loss reason is only meaningful in the terminal stage.
		m.leads[i].LossReason = nil
	}
	m.mirrorLocked()
	return m.leads[i].Clone(), nil
}

// AddNote appends an entry to the lead's note log and bumps
// last_interaction_at.
func (m *Memory) AddNote(_ context.Context, id uuid.UUID, authorID *uuid.UUID, body string) (domain.Lead, error) {
	trimmed, err := validateNote(body)
	if err != nil {
		return domain.Lead{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOfLocked(id)
	if i < 0 {
		return domain.Lead{}, m.recordLocked(apperr.NotFound("lead not found").WithOp("store.AddNote"))
	}

	now := m.now()
	m.leads[i].Notes = append(m.leads[i].Notes, domain.Note{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Body:      trimmed,
		CreatedAt: now,
	})
	m.leads[i].UpdatedAt = now
	m.leads[i].LastInteractionAt = now
	m.mirrorLocked()
	return m.leads[i].Clone(), nil
}

// Delete removes the record and reports whether it existed; deleting a
// missing id is a silent no-op.
func (m *Memory) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOfLocked(id)
	if i < 0 {
		return false, nil
	}

	m.leads = append(m.leads[:i], m.leads[i+1:]...)
	if m.selected != nil && *m.selected == id {
		m.selected = nil
	}
	m.mirrorLocked()
	return true, nil
}

// Refresh is a no-op in local mode; the snapshot is already authoritative.
func (m *Memory) Refresh(context.Context) error {
	return nil
}

// Select sets or clears the lead open for detail viewing. Persisted so the
// open detail survives a restart.
func (m *Memory) Select(id *uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = id
	m.mirrorLocked()
}

// Selected returns the currently selected lead id.
func (m *Memory) Selected() *uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// LastError returns the most recent recorded failure.
func (m *Memory) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// mirrorLocked rewrites the disk snapshot after a mutation. A failed write
// never fails the mutation; it is logged and surfaced through LastError.
// Callers must hold the lock.
func (m *Memory) mirrorLocked() {
	if err := m.persistLocked(); err != nil {
		m.lastErr = err
		if m.log != nil {
			m.log.StoreError("mirror", err)
		}
	}
}

func (m *Memory) recordLocked(err error) error {
	m.lastErr = err
	if m.log != nil {
		m.log.StoreError("local", err)
	}
	return err
}

var _ Store = (*Memory)(nil)
