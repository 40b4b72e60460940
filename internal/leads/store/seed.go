package store

import (
	"time"

	"obraportal_backend/internal/leads/domain"
	"obraportal_backend/internal/pipeline"

	"github.com/google/uuid"
)

// DemoSeed returns the fixed dataset the local/demo mode starts from.
func DemoSeed() []domain.Lead {
	base := time.Date(2026, time.July, 6, 9, 0, 0, 0, time.UTC)

	return []domain.Lead{
		seedLead(base, "Mariana Gutiérrez", "+525512340001", "mariana.g@example.com", "Col. Roma Norte",
			domain.ChannelWhatsApp, domain.ProjectRemodel, budget(850000), domain.UrgencyHigh,
			[]string{"cocina", "urgente"}, pipeline.StageNegotiation),
		seedLead(base.Add(26*time.Hour), "Constructora Álamo SA", "+525512340002", "", "Polanco",
			domain.ChannelReferral, domain.ProjectCommercial, budget(4200000), domain.UrgencyMedium,
			[]string{"oficinas"}, pipeline.StageQuoteSent),
		seedLead(base.Add(50*time.Hour), "Jorge Peña", "+525512340003", "jorge.pena@example.com", "Coyoacán",
			domain.ChannelWeb, domain.ProjectExtension, budget(1200000), domain.UrgencyLow,
			[]string{"segunda planta"}, pipeline.StageVisitScheduled),
		seedLead(base.Add(3*24*time.Hour), "Lucía Fernández", "+525512340004", "", "Del Valle",
			domain.ChannelSocial, domain.ProjectRoofing, nil, domain.UrgencyMedium,
			[]string{}, pipeline.StageContacted),
		seedLead(base.Add(4*24*time.Hour), "Héctor Ramírez", "+525512340005", "hramirez@example.com", "Satélite",
			domain.ChannelSearch, domain.ProjectNewBuild, budget(6800000), domain.UrgencyHigh,
			[]string{"terreno propio", "planos listos"}, pipeline.StageQualified),
		seedLead(base.Add(5*24*time.Hour), "Paola Méndez", "+525512340006", "", "Narvarte",
			domain.ChannelPhone, domain.ProjectRemodel, budget(300000), "",
			[]string{"baño"}, pipeline.StageNew),
		seedLead(base.Add(6*24*time.Hour), "Despacho Arqline", "+525512340007", "contacto@arqline.example.com", "Condesa",
			domain.ChannelReferral, "", budget(950000), domain.UrgencyLow,
			[]string{"subcontrato"}, pipeline.StageWon),
		seedLead(base.Add(7*24*time.Hour), "Raúl Ortega", "+525512340008", "", "Iztapalapa",
			domain.ChannelOther, domain.ProjectOther, nil, "",
			[]string{}, pipeline.StageLost),
	}
}

func seedLead(at time.Time, name, phoneNumber, email, zone string, channel domain.Channel,
	project domain.ProjectType, estimated *float64, urgency domain.Urgency,
	tags []string, stage pipeline.StageID) domain.Lead {

	lead := domain.Lead{
		ID:                uuid.New(),
		Name:              name,
		Phone:             phoneNumber,
		Channel:           channel,
		EstimatedBudget:   estimated,
		Tags:              tags,
		Notes:             []domain.Note{},
		Stage:             stage,
		CreatedAt:         at,
		UpdatedAt:         at,
		LastInteractionAt: at,
	}
	if email != "" {
		lead.Email = &email
	}
	if zone != "" {
		lead.Zone = &zone
	}
	if project != "" {
		lead.ProjectType = &project
	}
	if urgency != "" {
		lead.Urgency = &urgency
	}
	if stage == pipeline.StageLost {
		reason := "Eligió a otro contratista"
		lead.LossReason = &reason
	}
	return lead
}

func budget(v float64) *float64 {
	return &v
}
