// Package events defines the domain events emitted by the lead pipeline.
// Modules subscribe to these instead of importing each other directly.
package events

import (
	"obraportal_backend/internal/pipeline"
	"obraportal_backend/platform/events"

	"github.com/google/uuid"
)

// Event names for subscription.
const (
	LeadCreatedName      = "lead.created"
	LeadStageChangedName = "lead.stage_changed"
	LeadNoteAddedName    = "lead.note_added"
	LeadDeletedName      = "lead.deleted"
)

// LeadCreated is published after a lead is inserted into the store.
type LeadCreated struct {
	events.BaseEvent
	LeadID uuid.UUID
	Name   string
	Stage  pipeline.StageID
}

// EventName returns the event type identifier.
func (LeadCreated) EventName() string { return LeadCreatedName }

// LeadStageChanged is published after a lead moves between pipeline stages.
// Same-stage no-op transitions never emit this event.
type LeadStageChanged struct {
	events.BaseEvent
	LeadID uuid.UUID
	From   pipeline.StageID
	To     pipeline.StageID
}

// EventName returns the event type identifier.
func (LeadStageChanged) EventName() string { return LeadStageChangedName }

// LeadNoteAdded is published after a note is appended to a lead's log.
type LeadNoteAdded struct {
	events.BaseEvent
	LeadID   uuid.UUID
	NoteID   uuid.UUID
	AuthorID *uuid.UUID
}

// EventName returns the event type identifier.
func (LeadNoteAdded) EventName() string { return LeadNoteAddedName }

// LeadDeleted is published after a lead is removed.
type LeadDeleted struct {
	events.BaseEvent
	LeadID uuid.UUID
}

// EventName returns the event type identifier.
func (LeadDeleted) EventName() string { return LeadDeletedName }
