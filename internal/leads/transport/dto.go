// Package transport defines the HTTP request and response shapes for the
// leads module.
package transport

import (
	"time"

	"obraportal_backend/internal/leads/domain"
	"obraportal_backend/internal/pipeline"

	"github.com/google/uuid"
)

// Request DTOs

type CreateLeadRequest struct {
	Name            string              `json:"name" validate:"required,min=1,max=200"`
	Phone           string              `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Email           string              `json:"email,omitempty" validate:"omitempty,email"`
	Zone            string              `json:"zone,omitempty" validate:"max=200"`
	Channel         domain.Channel      `json:"channel,omitempty" validate:"omitempty,oneof=whatsapp social web referral search phone other"`
	ProjectType     *domain.ProjectType `json:"projectType,omitempty" validate:"omitempty,oneof=remodel new_build extension roofing commercial other"`
	EstimatedBudget *float64            `json:"estimatedBudget,omitempty" validate:"omitempty,gte=0"`
	Urgency         *domain.Urgency     `json:"urgency,omitempty" validate:"omitempty,oneof=low medium high"`
	Tags            []string            `json:"tags,omitempty" validate:"max=20,dive,min=1,max=50"`
	Stage           pipeline.StageID    `json:"stage,omitempty"`
	OwnerID         OptionalUUID        `json:"ownerId,omitempty" validate:"-"`
}

type UpdateLeadRequest struct {
	Name            *string         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone           *string         `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Email           OptionalString  `json:"email,omitempty" validate:"-"`
	Zone            OptionalString  `json:"zone,omitempty" validate:"-"`
	Channel         *domain.Channel `json:"channel,omitempty" validate:"omitempty,oneof=whatsapp social web referral search phone other"`
	ProjectType     OptionalString  `json:"projectType,omitempty" validate:"-"`
	EstimatedBudget OptionalFloat   `json:"estimatedBudget,omitempty" validate:"-"`
	Urgency         OptionalString  `json:"urgency,omitempty" validate:"-"`
	Tags            OptionalTags    `json:"tags,omitempty" validate:"-"`
	OwnerID         OptionalUUID    `json:"ownerId,omitempty" validate:"-"`
	LossReason      OptionalString  `json:"lossReason,omitempty" validate:"-"`
}

type TransitionStageRequest struct {
	Stage pipeline.StageID `json:"stage" validate:"required"`
}

type AddNoteRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

type SelectLeadRequest struct {
	LeadID OptionalUUID `json:"leadId" validate:"-"`
}

// Response DTOs

type NoteResponse struct {
	ID        uuid.UUID  `json:"id"`
	AuthorID  *uuid.UUID `json:"authorId,omitempty"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"createdAt"`
}

type LeadResponse struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Phone             string           `json:"phone"`
	Email             *string          `json:"email,omitempty"`
	Zone              *string          `json:"zone,omitempty"`
	Channel           domain.Channel   `json:"channel"`
	ProjectType       *string          `json:"projectType,omitempty"`
	EstimatedBudget   *float64         `json:"estimatedBudget,omitempty"`
	Urgency           *string          `json:"urgency,omitempty"`
	Tags              []string         `json:"tags"`
	Notes             []NoteResponse   `json:"notes"`
	Stage             pipeline.StageID `json:"stage"`
	OwnerID           *uuid.UUID       `json:"ownerId,omitempty"`
	LossReason        *string          `json:"lossReason,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	LastInteractionAt time.Time        `json:"lastInteractionAt"`
}

type SelectionResponse struct {
	LeadID *uuid.UUID `json:"leadId"`
}

// ToLeadResponse maps a domain lead to its response shape.
func ToLeadResponse(lead domain.Lead) LeadResponse {
	notes := make([]NoteResponse, 0, len(lead.Notes))
	for _, n := range lead.Notes {
		notes = append(notes, NoteResponse{
			ID:        n.ID,
			AuthorID:  n.AuthorID,
			Body:      n.Body,
			CreatedAt: n.CreatedAt,
		})
	}

	resp := LeadResponse{
		ID:                lead.ID,
		Name:              lead.Name,
		Phone:             lead.Phone,
		Email:             lead.Email,
		Zone:              lead.Zone,
		Channel:           lead.Channel,
		EstimatedBudget:   lead.EstimatedBudget,
		Tags:              lead.Tags,
		Notes:             notes,
		Stage:             lead.Stage,
		OwnerID:           lead.OwnerID,
		LossReason:        lead.LossReason,
		CreatedAt:         lead.CreatedAt,
		UpdatedAt:         lead.UpdatedAt,
		LastInteractionAt: lead.LastInteractionAt,
	}
	if lead.ProjectType != nil {
		s := string(*lead.ProjectType)
		resp.ProjectType = &s
	}
	if lead.Urgency != nil {
		s := string(*lead.Urgency)
		resp.Urgency = &s
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	return resp
}

// ToLeadResponses maps a slice of domain leads.
func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, ToLeadResponse(l))
	}
	return out
}
