package service

import (
	"context"
	"testing"
	"time"

	domainevents "obraportal_backend/internal/events"
	"obraportal_backend/internal/leads/store"
	"obraportal_backend/internal/leads/transport"
	"obraportal_backend/internal/pipeline"
	"obraportal_backend/platform/apperr"
	"obraportal_backend/platform/events"
	"obraportal_backend/platform/validator"

	"github.com/google/uuid"
)

func newServiceFixture(t *testing.T) (*Service, *events.InMemoryBus) {
	t.Helper()

	reg := pipeline.Default()
	st, err := store.NewMemory(reg, "", nil, nil)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	bus := events.NewInMemoryBus(nil)
	return New(st, reg, validator.New(), bus), bus
}

func awaitEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
		return nil
	}
}

func subscribe(bus *events.InMemoryBus, name string) <-chan events.Event {
	ch := make(chan events.Event, 4)
	bus.Subscribe(name, events.HandlerFunc(func(_ context.Context, e events.Event) error {
		ch <- e
		return nil
	}))
	return ch
}

func TestServiceCreatePublishesEvent(t *testing.T) {
	svc, bus := newServiceFixture(t)
	created := subscribe(bus, domainevents.LeadCreatedName)

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:    "Mariana Gutiérrez",
		Phone:   "55 1234 0001",
		Channel: "whatsapp",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lead.Stage != pipeline.StageNew {
		t.Fatalf("expected default stage, got %q", lead.Stage)
	}

	e := awaitEvent(t, created)
	evt, ok := e.(domainevents.LeadCreated)
	if !ok {
		t.Fatalf("expected LeadCreated, got %T", e)
	}
	if evt.LeadID != lead.ID || evt.Stage != pipeline.StageNew {
		t.Fatalf("unexpected event payload: %+v", evt)
	}
}

func TestServiceCreateRejectsInvalidPayload(t *testing.T) {
	svc, _ := newServiceFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, transport.CreateLeadRequest{Name: ""}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
	if _, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "X", Channel: "telegram"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown channel, got %v", err)
	}
	if _, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "X", Stage: "limbo"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown stage, got %v", err)
	}
	if got := len(svc.List()); got != 0 {
		t.Fatalf("invalid creates must not persist, got %d leads", got)
	}
}

func TestServiceTransitionPublishesEventOnce(t *testing.T) {
	svc, bus := newServiceFixture(t)
	changed := subscribe(bus, domainevents.LeadStageChangedName)
	ctx := context.Background()

	lead, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "Jorge Peña"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	moved, err := svc.TransitionStage(ctx, lead.ID, pipeline.StageContacted)
	if err != nil {
		t.Fatalf("TransitionStage: %v", err)
	}
	if moved.Stage != pipeline.StageContacted {
		t.Fatalf("expected stage contacted, got %q", moved.Stage)
	}

	e := awaitEvent(t, changed)
	evt, ok := e.(domainevents.LeadStageChanged)
	if !ok {
		t.Fatalf("expected LeadStageChanged, got %T", e)
	}
	if evt.From != pipeline.StageNew || evt.To != pipeline.StageContacted {
		t.Fatalf("unexpected transition payload: %+v", evt)
	}

	// A same-stage transition is a no-op and must not publish.
	if _, err := svc.TransitionStage(ctx, lead.ID, pipeline.StageContacted); err != nil {
		t.Fatalf("TransitionStage no-op: %v", err)
	}
	select {
	case extra := <-changed:
		t.Fatalf("unexpected event for a no-op transition: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestServiceUpdateClearsNullableField(t *testing.T) {
	svc, _ := newServiceFixture(t)
	ctx := context.Background()

	lead, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "Jorge Peña", Email: "jorge@example.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lead.Email == nil {
		t.Fatalf("expected email set")
	}

	updated, err := svc.Update(ctx, lead.ID, transport.UpdateLeadRequest{
		Email: transport.OptionalString{Set: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Email != nil {
		t.Fatalf("expected an explicit null to clear the email")
	}
}

func TestServiceUpdateRejectsUnknownEnums(t *testing.T) {
	svc, _ := newServiceFixture(t)
	ctx := context.Background()

	lead, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "Jorge Peña"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	bogus := "catastrophic"
	_, err = svc.Update(ctx, lead.ID, transport.UpdateLeadRequest{
		Urgency: transport.OptionalString{Set: true, Value: &bogus},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown urgency, got %v", err)
	}

	_, err = svc.Update(ctx, lead.ID, transport.UpdateLeadRequest{
		ProjectType: transport.OptionalString{Set: true, Value: &bogus},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown project type, got %v", err)
	}
}

func TestServiceAddNotePublishesEvent(t *testing.T) {
	svc, bus := newServiceFixture(t)
	noted := subscribe(bus, domainevents.LeadNoteAddedName)
	ctx := context.Background()

	lead, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "Jorge Peña"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	author := uuid.New()
	withNote, err := svc.AddNote(ctx, lead.ID, &author, transport.AddNoteRequest{Body: "Visita el jueves"})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if len(withNote.Notes) != 1 {
		t.Fatalf("expected one note")
	}

	e := awaitEvent(t, noted)
	evt, ok := e.(domainevents.LeadNoteAdded)
	if !ok {
		t.Fatalf("expected LeadNoteAdded, got %T", e)
	}
	if evt.LeadID != lead.ID || evt.AuthorID == nil || *evt.AuthorID != author {
		t.Fatalf("unexpected note event payload: %+v", evt)
	}

	notes, err := svc.Notes(lead.ID)
	if err != nil {
		t.Fatalf("Notes: %v", err)
	}
	if len(notes) != 1 || notes[0].Body != "Visita el jueves" {
		t.Fatalf("expected the note in the log")
	}
}

func TestServiceSelectValidatesExistence(t *testing.T) {
	svc, _ := newServiceFixture(t)
	ctx := context.Background()

	lead, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "Jorge Peña"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	unknown := uuid.New()
	if err := svc.Select(&unknown); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown selection, got %v", err)
	}

	id := lead.ID
	if err := svc.Select(&id); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel := svc.Selected(); sel == nil || *sel != id {
		t.Fatalf("expected selection recorded")
	}

	if err := svc.Select(nil); err != nil {
		t.Fatalf("Select clear: %v", err)
	}
	if svc.Selected() != nil {
		t.Fatalf("expected selection cleared")
	}
}

func TestServiceDeletePublishesOnlyWhenRemoved(t *testing.T) {
	svc, bus := newServiceFixture(t)
	deleted := subscribe(bus, domainevents.LeadDeletedName)
	ctx := context.Background()

	if err := svc.Delete(ctx, uuid.New()); err != nil {
		t.Fatalf("deleting a missing id must be a no-op, got %v", err)
	}
	select {
	case e := <-deleted:
		t.Fatalf("no event expected for a missing id, got %#v", e)
	case <-time.After(100 * time.Millisecond):
	}

	lead, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "Jorge Peña"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, lead.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	event, ok := awaitEvent(t, deleted).(domainevents.LeadDeleted)
	if !ok {
		t.Fatalf("expected a LeadDeleted event")
	}
	if event.LeadID != lead.ID {
		t.Fatalf("expected event for %s, got %s", lead.ID, event.LeadID)
	}
}

func TestServiceDeleteThenGetNotFound(t *testing.T) {
	svc, _ := newServiceFixture(t)
	ctx := context.Background()

	lead, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "Jorge Peña"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, lead.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(lead.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
