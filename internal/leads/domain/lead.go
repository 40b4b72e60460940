// Package domain holds the lead entity and its closed classification enums.
package domain

import (
	"time"

	"obraportal_backend/internal/pipeline"

	"github.com/google/uuid"
)

// Channel is the origin channel a lead arrived through.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSocial   Channel = "social"
	ChannelWeb      Channel = "web"
	ChannelReferral Channel = "referral"
	ChannelSearch   Channel = "search"
	ChannelPhone    Channel = "phone"
	ChannelOther    Channel = "other"
)

var knownChannels = map[Channel]struct{}{
	ChannelWhatsApp: {},
	ChannelSocial:   {},
	ChannelWeb:      {},
	ChannelReferral: {},
	ChannelSearch:   {},
	ChannelPhone:    {},
	ChannelOther:    {},
}

// IsKnownChannel reports whether the channel belongs to the closed enum.
func IsKnownChannel(c Channel) bool {
	_, ok := knownChannels[c]
	return ok
}

// ProjectType classifies the construction work a lead is asking about.
type ProjectType string

const (
	ProjectRemodel    ProjectType = "remodel"
	ProjectNewBuild   ProjectType = "new_build"
	ProjectExtension  ProjectType = "extension"
	ProjectRoofing    ProjectType = "roofing"
	ProjectCommercial ProjectType = "commercial"
	ProjectOther      ProjectType = "other"
)

// Urgency is the ordinal urgency a lead reports.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Note is one append-only entry in a lead's internal log. Notes are never
// edited or deleted once written.
type Note struct {
	ID        uuid.UUID  `json:"id"`
	AuthorID  *uuid.UUID `json:"authorId,omitempty"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Lead is a prospective customer tracked through the pipeline.
// ID and CreatedAt are immutable after creation. UpdatedAt advances on every
// mutation; LastInteractionAt advances on stage transitions and note appends.
type Lead struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Phone             string           `json:"phone,omitempty"`
	Email             *string          `json:"email,omitempty"`
	Zone              *string          `json:"zone,omitempty"`
	Channel           Channel          `json:"channel"`
	ProjectType       *ProjectType     `json:"projectType,omitempty"`
	EstimatedBudget   *float64         `json:"estimatedBudget,omitempty"`
	Urgency           *Urgency         `json:"urgency,omitempty"`
	Tags              []string         `json:"tags"`
	Notes             []Note           `json:"notes"`
	Stage             pipeline.StageID `json:"stage"`
	OwnerID           *uuid.UUID       `json:"ownerId,omitempty"`
	LossReason        *string          `json:"lossReason,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	LastInteractionAt time.Time        `json:"lastInteractionAt"`
}

// Clone returns a deep copy so store callers never hold aliased state.
func (l Lead) Clone() Lead {
	out := l
	out.Tags = append([]string(nil), l.Tags...)
	out.Notes = append([]Note(nil), l.Notes...)
	return out
}

// NewLead carries the caller-supplied fields for lead creation.
// Name is the only required field; Stage defaults to the registry's first
// stage when empty.
type NewLead struct {
	Name            string
	Phone           string
	Email           *string
	Zone            *string
	Channel         Channel
	ProjectType     *ProjectType
	EstimatedBudget *float64
	Urgency         *Urgency
	Tags            []string
	Stage           pipeline.StageID
	OwnerID         *uuid.UUID
}

// LeadPatch carries a partial update. Pointer fields update when non-nil;
// nullable fields additionally use a Set flag so callers can clear them.
type LeadPatch struct {
	Name               *string
	Phone              *string
	Email              *string
	EmailSet           bool
	Zone               *string
	ZoneSet            bool
	Channel            *Channel
	ProjectType        *ProjectType
	ProjectTypeSet     bool
	EstimatedBudget    *float64
	EstimatedBudgetSet bool
	Urgency            *Urgency
	UrgencySet         bool
	Tags               []string
	TagsSet            bool
	OwnerID            *uuid.UUID
	OwnerIDSet         bool
	LossReason         *string
	LossReasonSet      bool
}

// IsZero reports whether the patch changes nothing.
func (p LeadPatch) IsZero() bool {
	return p.Name == nil && p.Phone == nil && !p.EmailSet && !p.ZoneSet &&
		p.Channel == nil && !p.ProjectTypeSet && !p.EstimatedBudgetSet &&
		!p.UrgencySet && !p.TagsSet && !p.OwnerIDSet && !p.LossReasonSet
}

// Apply merges the patch into the lead in place, timestamps excluded.
func (p LeadPatch) Apply(l *Lead) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.EmailSet {
		l.Email = p.Email
	}
	if p.ZoneSet {
		l.Zone = p.Zone
	}
	if p.Channel != nil {
		l.Channel = *p.Channel
	}
	if p.ProjectTypeSet {
		l.ProjectType = p.ProjectType
	}
	if p.EstimatedBudgetSet {
		l.EstimatedBudget = p.EstimatedBudget
	}
	if p.UrgencySet {
		l.Urgency = p.Urgency
	}
	if p.TagsSet {
		l.Tags = append([]string(nil), p.Tags...)
	}
	if p.OwnerIDSet {
		l.OwnerID = p.OwnerID
	}
	if p.LossReasonSet {
		l.LossReason = p.LossReason
	}
}
