// Package board derives the kanban view of the pipeline: one column per
// registry stage, populated from the lead store. The board holds no state of
// its own; every read re-derives from the store snapshot.
package board

import (
	"sort"

	"obraportal_backend/internal/leads/domain"
	"obraportal_backend/internal/leads/store"
	"obraportal_backend/internal/pipeline"
)

// Column is one board column: a stage plus its leads and rollups.
type Column struct {
	Stage       pipeline.Stage
	Leads       []domain.Lead
	Count       int
	TotalBudget float64
}

// Aggregator groups leads by stage in registry order.
type Aggregator struct {
	store store.Store
	reg   *pipeline.Registry
}

// NewAggregator creates a board aggregator over the given store.
func NewAggregator(st store.Store, reg *pipeline.Registry) *Aggregator {
	return &Aggregator{store: st, reg: reg}
}

// Snapshot returns every column in canonical stage order. A column's count
// always equals len(Leads); a lead without an estimated budget contributes
// zero to the rollup. Leads whose stage is not in the registry are omitted.
func (a *Aggregator) Snapshot() []Column {
	leads := a.store.List()
	stages := a.reg.Stages()

	columns := make([]Column, len(stages))
	index := make(map[pipeline.StageID]int, len(stages))
	for i, s := range stages {
		columns[i] = Column{Stage: s, Leads: []domain.Lead{}}
		index[s.ID] = i
	}

	for _, l := range leads {
		i, ok := index[l.Stage]
		if !ok {
			continue
		}
		columns[i].Leads = append(columns[i].Leads, l)
		columns[i].Count++
		if l.EstimatedBudget != nil {
			columns[i].TotalBudget += *l.EstimatedBudget
		}
	}

	return columns
}

// StageStats is the rollup for a single column.
type StageStats struct {
	Count       int
	TotalBudget float64
}

// Stats returns the count and budget rollup for one stage. A lead without
// an estimated budget contributes zero.
func (a *Aggregator) Stats(stage pipeline.StageID) StageStats {
	var stats StageStats
	for _, l := range a.store.List() {
		if l.Stage != stage {
			continue
		}
		stats.Count++
		if l.EstimatedBudget != nil {
			stats.TotalBudget += *l.EstimatedBudget
		}
	}
	return stats
}

// LeadsInStage returns the leads of one stage in store order.
func (a *Aggregator) LeadsInStage(stage pipeline.StageID) []domain.Lead {
	out := []domain.Lead{}
	for _, l := range a.store.List() {
		if l.Stage == stage {
			out = append(out, l)
		}
	}
	return out
}

// RecentlyActive returns up to limit leads ordered by last interaction,
// newest first.
func (a *Aggregator) RecentlyActive(limit int) []domain.Lead {
	leads := a.store.List()
	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].LastInteractionAt.After(leads[j].LastInteractionAt)
	})
	if limit > 0 && len(leads) > limit {
		leads = leads[:limit]
	}
	return leads
}
