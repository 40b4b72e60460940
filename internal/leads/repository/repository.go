// Package repository implements the remote lead backend over PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"obraportal_backend/internal/leads/domain"
	"obraportal_backend/internal/leads/store"
	"obraportal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadColumns = `id, name, phone, email, zone, channel, project_type, estimated_budget,
	urgency, tags, stage, owner_id, loss_reason, created_at, updated_at, last_interaction_at`

// Repository is the pgx-backed implementation of store.Backend.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a repository over the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	var projectType, urgency *string
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &lead.Zone, &lead.Channel,
		&projectType, &lead.EstimatedBudget, &urgency, &lead.Tags, &lead.Stage,
		&lead.OwnerID, &lead.LossReason, &lead.CreatedAt, &lead.UpdatedAt, &lead.LastInteractionAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	if projectType != nil {
		pt := domain.ProjectType(*projectType)
		lead.ProjectType = &pt
	}
	if urgency != nil {
		u := domain.Urgency(*urgency)
		lead.Urgency = &u
	}
	if lead.Tags == nil {
		lead.Tags = []string{}
	}
	lead.Notes = []domain.Note{}
	return lead, nil
}

// FetchAll returns every lead ordered by creation time descending, with
// note logs attached.
func (r *Repository) FetchAll(ctx context.Context) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		index[lead.ID] = len(leads)
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	noteRows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, author_id, body, created_at
		FROM lead_notes
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer noteRows.Close()

	for noteRows.Next() {
		var note domain.Note
		var leadID uuid.UUID
		if err := noteRows.Scan(&note.ID, &leadID, &note.AuthorID, &note.Body, &note.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[leadID]; ok {
			leads[i].Notes = append(leads[i].Notes, note)
		}
	}
	if noteRows.Err() != nil {
		return nil, noteRows.Err()
	}

	return leads, nil
}

// Insert creates a lead; the server assigns id and timestamps.
func (r *Repository) Insert(ctx context.Context, fields domain.NewLead) (domain.Lead, error) {
	var projectType, urgency *string
	if fields.ProjectType != nil {
		s := string(*fields.ProjectType)
		projectType = &s
	}
	if fields.Urgency != nil {
		s := string(*fields.Urgency)
		urgency = &s
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (name, phone, email, zone, channel, project_type, estimated_budget, urgency, tags, stage, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+leadColumns,
		fields.Name, fields.Phone, fields.Email, fields.Zone, string(fields.Channel),
		projectType, fields.EstimatedBudget, urgency, fields.Tags, string(fields.Stage), fields.OwnerID,
	)
	return scanLead(row)
}

// Patch applies a partial update and re-stamps updated_at (and
// last_interaction_at for stage transitions). Returns the updated lead with
// its note log.
func (r *Repository) Patch(ctx context.Context, id uuid.UUID, params store.PatchParams) (domain.Lead, error) {
	sets := []string{"updated_at = now()"}
	args := []interface{}{id}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.TouchInteraction {
		sets = append(sets, "last_interaction_at = now()")
	}
	if params.Stage != nil {
		add("stage", string(*params.Stage))
	}
	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Phone != nil {
		add("phone", *params.Phone)
	}
	if params.EmailSet {
		add("email", params.Email)
	}
	if params.ZoneSet {
		add("zone", params.Zone)
	}
	if params.Channel != nil {
		add("channel", string(*params.Channel))
	}
	if params.ProjectTypeSet {
		var value *string
		if params.ProjectType != nil {
			s := string(*params.ProjectType)
			value = &s
		}
		add("project_type", value)
	}
	if params.EstimatedBudgetSet {
		add("estimated_budget", params.EstimatedBudget)
	}
	if params.UrgencySet {
		var value *string
		if params.Urgency != nil {
			s := string(*params.Urgency)
			value = &s
		}
		add("urgency", value)
	}
	if params.TagsSet {
		add("tags", params.Tags)
	}
	if params.OwnerIDSet {
		add("owner_id", params.OwnerID)
	}
	if params.LossReasonSet {
		add("loss_reason", params.LossReason)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
		RETURNING `+leadColumns, args...)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return domain.Lead{}, err
	}

	notes, err := r.listNotes(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Notes = notes
	return lead, nil
}

// Remove deletes a lead; deleting a missing id is not an error.
func (r *Repository) Remove(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	return err
}

// InsertNote appends a note and bumps the lead's interaction timestamps in
// one transaction.
func (r *Repository) InsertNote(ctx context.Context, leadID uuid.UUID, authorID *uuid.UUID, body string) (domain.Note, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	defer tx.Rollback(ctx)

	var note domain.Note
	err = tx.QueryRow(ctx, `
		INSERT INTO lead_notes (lead_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, author_id, body, created_at
	`, leadID, authorID, body).Scan(&note.ID, &note.AuthorID, &note.Body, &note.CreatedAt)
	if err != nil {
		return domain.Note{}, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE leads SET updated_at = now(), last_interaction_at = now()
		WHERE id = $1
	`, leadID)
	if err != nil {
		return domain.Note{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Note{}, apperr.NotFound("lead not found")
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Note{}, err
	}
	return note, nil
}

func (r *Repository) listNotes(ctx context.Context, leadID uuid.UUID) ([]domain.Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, author_id, body, created_at
		FROM lead_notes
		WHERE lead_id = $1
		ORDER BY created_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]domain.Note, 0)
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(&note.ID, &note.AuthorID, &note.Body, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

var _ store.Backend = (*Repository)(nil)
