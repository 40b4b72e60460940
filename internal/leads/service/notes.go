package service

import (
	"context"

	domainevents "obraportal_backend/internal/events"
	"obraportal_backend/internal/leads/transport"
	"obraportal_backend/platform/events"

	"github.com/google/uuid"
)

// AddNote appends an entry to the lead's note log and publishes
// LeadNoteAdded. The author is the authenticated agent when present.
func (s *Service) AddNote(ctx context.Context, id uuid.UUID, authorID *uuid.UUID, req transport.AddNoteRequest) (transport.LeadResponse, error) {
	lead, err := s.store.AddNote(ctx, id, authorID, req.Body)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if n := len(lead.Notes); n > 0 {
		s.bus.Publish(ctx, domainevents.LeadNoteAdded{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    id,
			NoteID:    lead.Notes[n-1].ID,
			AuthorID:  authorID,
		})
	}
	return transport.ToLeadResponse(lead), nil
}

// Notes returns the note log for one lead, oldest first.
func (s *Service) Notes(id uuid.UUID) ([]transport.NoteResponse, error) {
	lead, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	notes := make([]transport.NoteResponse, 0, len(lead.Notes))
	for _, n := range lead.Notes {
		notes = append(notes, transport.NoteResponse{
			ID:        n.ID,
			AuthorID:  n.AuthorID,
			Body:      n.Body,
			CreatedAt: n.CreatedAt,
		})
	}
	return notes, nil
}
