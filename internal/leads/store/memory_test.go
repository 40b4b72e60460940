package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"obraportal_backend/internal/leads/domain"
	"obraportal_backend/internal/pipeline"
	"obraportal_backend/platform/apperr"

	"github.com/google/uuid"
)

func newTestMemory(t *testing.T, seed []domain.Lead) *Memory {
	t.Helper()
	m, err := NewMemory(pipeline.Default(), "", seed, nil)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	return m
}

func TestMemoryCreateAppliesDefaults(t *testing.T) {
	m := newTestMemory(t, nil)

	lead, err := m.Create(context.Background(), domain.NewLead{Name: "Sofía Ibarra"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if lead.Channel != domain.ChannelOther {
		t.Fatalf("expected default channel %q, got %q", domain.ChannelOther, lead.Channel)
	}
	if lead.Stage != pipeline.StageNew {
		t.Fatalf("expected default stage %q, got %q", pipeline.StageNew, lead.Stage)
	}
	if lead.Tags == nil || len(lead.Tags) != 0 {
		t.Fatalf("expected empty tag slice, got %#v", lead.Tags)
	}
	if lead.ID == uuid.Nil {
		t.Fatalf("expected a generated id")
	}
	if !lead.CreatedAt.Equal(lead.UpdatedAt) || !lead.CreatedAt.Equal(lead.LastInteractionAt) {
		t.Fatalf("expected all three timestamps equal at creation")
	}

	list := m.List()
	if len(list) != 1 || list[0].ID != lead.ID {
		t.Fatalf("expected created lead in list")
	}
}

func TestMemoryCreateRejectsInvalidInput(t *testing.T) {
	m := newTestMemory(t, nil)
	ctx := context.Background()

	if _, err := m.Create(ctx, domain.NewLead{Name: "   "}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
	if _, err := m.Create(ctx, domain.NewLead{Name: "X", Channel: "telegram"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown channel, got %v", err)
	}
	if _, err := m.Create(ctx, domain.NewLead{Name: "X", Stage: "limbo"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown stage, got %v", err)
	}
	if len(m.List()) != 0 {
		t.Fatalf("invalid creates must not mutate the list")
	}
}

func TestMemoryTransitionStageBumpsInteraction(t *testing.T) {
	m := newTestMemory(t, nil)
	ctx := context.Background()

	created, err := m.Create(ctx, domain.NewLead{Name: "Sofía Ibarra"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	later := created.CreatedAt.Add(time.Hour)
	m.now = func() time.Time { return later }

	moved, err := m.TransitionStage(ctx, created.ID, pipeline.StageContacted)
	if err != nil {
		t.Fatalf("TransitionStage: %v", err)
	}
	if moved.Stage != pipeline.StageContacted {
		t.Fatalf("expected stage %q, got %q", pipeline.StageContacted, moved.Stage)
	}
	if !moved.UpdatedAt.Equal(later) || !moved.LastInteractionAt.Equal(later) {
		t.Fatalf("expected transition to bump both timestamps")
	}
	if !moved.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("CreatedAt must be immutable")
	}
}

func TestMemoryUpdateDoesNotBumpInteraction(t *testing.T) {
	m := newTestMemory(t, nil)
	ctx := context.Background()

	created, err := m.Create(ctx, domain.NewLead{Name: "Sofía Ibarra"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	later := created.CreatedAt.Add(time.Hour)
	m.now = func() time.Time { return later }

	zone := "Centro"
	updated, err := m.Update(ctx, created.ID, domain.LeadPatch{Zone: &zone, ZoneSet: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Zone == nil || *updated.Zone != zone {
		t.Fatalf("expected zone applied")
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Fatalf("expected UpdatedAt bumped")
	}
	if !updated.LastInteractionAt.Equal(created.LastInteractionAt) {
		t.Fatalf("field edits must not bump LastInteractionAt")
	}
}

func TestMemorySameStageTransitionIsNoOp(t *testing.T) {
	m := newTestMemory(t, nil)
	ctx := context.Background()

	created, err := m.Create(ctx, domain.NewLead{Name: "Sofía Ibarra", Stage: pipeline.StageQualified})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	m.now = func() time.Time { return created.CreatedAt.Add(time.Hour) }

	same, err := m.TransitionStage(ctx, created.ID, pipeline.StageQualified)
	if err != nil {
		t.Fatalf("TransitionStage: %v", err)
	}
	if !same.UpdatedAt.Equal(created.UpdatedAt) || !same.LastInteractionAt.Equal(created.LastInteractionAt) {
		t.Fatalf("same-stage transition must not touch timestamps")
	}
}

func TestMemoryTransitionUnknownStageLeavesLeadUntouched(t *testing.T) {
	m := newTestMemory(t, nil)
	ctx := context.Background()

	created, err := m.Create(ctx, domain.NewLead{Name: "Sofía Ibarra"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := m.TransitionStage(ctx, created.ID, "limbo"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	got, err := m.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stage != created.Stage {
		t.Fatalf("failed transition must not change stage")
	}
}

func TestMemoryTransitionUnknownIDRecordsNotFound(t *testing.T) {
	m := newTestMemory(t, nil)

	_, err := m.TransitionStage(context.Background(), uuid.New(), pipeline.StageContacted)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if m.LastError() == nil {
		t.Fatalf("expected LastError recorded")
	}
}

func TestMemoryLeavingTerminalClearsLossReason(t *testing.T) {
	m := newTestMemory(t, DemoSeed())
	ctx := context.Background()

	var lost domain.Lead
	for _, l := range m.List() {
		if l.Stage == pipeline.StageLost {
			lost = l
			break
		}
	}
	if lost.ID == uuid.Nil {
		t.Fatalf("seed must contain a lost lead")
	}
	if lost.LossReason == nil {
		t.Fatalf("seeded lost lead must carry a loss reason")
	}

	revived, err := m.TransitionStage(ctx, lost.ID, pipeline.StageContacted)
	if err != nil {
		t.Fatalf("TransitionStage: %v", err)
	}
	if revived.LossReason != nil {
		t.Fatalf("leaving the terminal stage must clear the loss reason")
	}
}

func TestMemoryAddNote(t *testing.T) {
	m := newTestMemory(t, nil)
	ctx := context.Background()

	created, err := m.Create(ctx, domain.NewLead{Name: "Sofía Ibarra"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	later := created.CreatedAt.Add(time.Hour)
	m.now = func() time.Time { return later }

	author := uuid.New()
	withNote, err := m.AddNote(ctx, created.ID, &author, "  Llamar el lunes  ")
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if len(withNote.Notes) != 1 {
		t.Fatalf("expected one note, got %d", len(withNote.Notes))
	}
	note := withNote.Notes[0]
	if note.Body != "Llamar el lunes" {
		t.Fatalf("expected trimmed body, got %q", note.Body)
	}
	if note.AuthorID == nil || *note.AuthorID != author {
		t.Fatalf("expected author attribution")
	}
	if !withNote.LastInteractionAt.Equal(later) {
		t.Fatalf("note append must bump LastInteractionAt")
	}

	if _, err := m.AddNote(ctx, created.ID, nil, "   "); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank note, got %v", err)
	}
	if _, err := m.AddNote(ctx, created.ID, nil, strings.Repeat("x", 2001)); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for oversized note, got %v", err)
	}
}

func TestMemoryDeleteIsIdempotentAndClearsSelection(t *testing.T) {
	m := newTestMemory(t, nil)
	ctx := context.Background()

	created, err := m.Create(ctx, domain.NewLead{Name: "Sofía Ibarra"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	id := created.ID
	m.Select(&id)
	if sel := m.Selected(); sel == nil || *sel != id {
		t.Fatalf("expected selection set")
	}

	removed, err := m.Delete(ctx, id)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !removed {
		t.Fatalf("expected delete to report a removed record")
	}
	if m.Selected() != nil {
		t.Fatalf("deleting the selected lead must clear the selection")
	}
	removed, err = m.Delete(ctx, id)
	if err != nil {
		t.Fatalf("second delete must be a no-op, got %v", err)
	}
	if removed {
		t.Fatalf("second delete must report nothing removed")
	}
	if len(m.List()) != 0 {
		t.Fatalf("expected empty list after delete")
	}
}

func TestMemoryUpdateUnknownIDReturnsNotFound(t *testing.T) {
	m := newTestMemory(t, nil)

	name := "Nadie"
	_, err := m.Update(context.Background(), uuid.New(), domain.LeadPatch{Name: &name})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemorySnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	reg := pipeline.Default()

	first, err := NewMemory(reg, path, DemoSeed(), nil)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	created, err := first.Create(context.Background(), domain.NewLead{Name: "Sofía Ibarra"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := created.ID
	first.Select(&id)

	// A second store on the same path restores the mirror, not the seed.
	second, err := NewMemory(reg, path, nil, nil)
	if err != nil {
		t.Fatalf("NewMemory restore: %v", err)
	}

	if got, want := len(second.List()), len(first.List()); got != want {
		t.Fatalf("expected %d restored leads, got %d", want, got)
	}
	if _, err := second.Get(id); err != nil {
		t.Fatalf("expected created lead in restored snapshot: %v", err)
	}
	if sel := second.Selected(); sel == nil || *sel != id {
		t.Fatalf("expected selection restored")
	}
}

func TestMemoryMutationsSucceedWhenMirrorFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	reg := pipeline.Default()

	m, err := NewMemory(reg, path, nil, nil)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	// Block the snapshot path with a directory so the atomic rename fails.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove snapshot: %v", err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("block snapshot path: %v", err)
	}

	lead, err := m.Create(context.Background(), domain.NewLead{Name: "Sofía Ibarra"})
	if err != nil {
		t.Fatalf("a failed mirror write must not fail the create, got %v", err)
	}
	if got := m.List(); len(got) != 1 || got[0].ID != lead.ID {
		t.Fatalf("expected the created lead in the list, got %d leads", len(got))
	}
	if m.LastError() == nil {
		t.Fatalf("expected the mirror failure recorded as the last error")
	}

	if _, err := m.TransitionStage(context.Background(), lead.ID, pipeline.StageContacted); err != nil {
		t.Fatalf("a failed mirror write must not fail the transition, got %v", err)
	}
	got, err := m.Get(lead.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stage != pipeline.StageContacted {
		t.Fatalf("expected the transition applied, got stage %q", got.Stage)
	}
}

func TestMemoryRestoreRemapsUnknownStages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	reg := pipeline.Default()

	stale := DemoSeed()[0].Clone()
	stale.Stage = "cold_call"
	data, err := json.Marshal(snapshot{Leads: []domain.Lead{stale}})
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	m, err := NewMemory(reg, path, nil, nil)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	got, err := m.Get(stale.ID)
	if err != nil {
		t.Fatalf("expected the restored lead, got %v", err)
	}
	if got.Stage != reg.First().ID {
		t.Fatalf("expected unknown stage remapped to %q, got %q", reg.First().ID, got.Stage)
	}

	// The remap is written back, so a reload sees only known stages.
	reloaded, err := NewMemory(reg, path, nil, nil)
	if err != nil {
		t.Fatalf("NewMemory reload: %v", err)
	}
	again, err := reloaded.Get(stale.ID)
	if err != nil {
		t.Fatalf("expected the lead after reload, got %v", err)
	}
	if again.Stage != reg.First().ID {
		t.Fatalf("expected the remap persisted, got %q", again.Stage)
	}
}

func TestMemoryRefreshIsNoOp(t *testing.T) {
	m := newTestMemory(t, DemoSeed())
	before := len(m.List())

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(m.List()) != before {
		t.Fatalf("local refresh must not change the list")
	}
}

func TestMemoryListReturnsDeepCopies(t *testing.T) {
	m := newTestMemory(t, nil)

	created, err := m.Create(context.Background(), domain.NewLead{Name: "Sofía Ibarra", Tags: []string{"cocina"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	list := m.List()
	list[0].Tags[0] = "mutated"
	list[0].Name = "mutated"

	got, err := m.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Sofía Ibarra" || got.Tags[0] != "cocina" {
		t.Fatalf("store state mutated through a returned copy")
	}
}
