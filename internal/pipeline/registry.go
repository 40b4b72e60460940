// Package pipeline defines the ordered catalogue of sales pipeline stages.
// The registry is configuration, not state: it is built once at startup and
// never mutated afterwards. Its array order is the canonical display order
// of board columns. Consumers may rely on id stability across releases but
// not on index stability.
package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StageID identifies a single pipeline stage.
type StageID string

// Built-in stage ids, ordered from earliest to latest in the sales process.
// StageLost is terminal and reachable from any non-terminal stage.
const (
	StageNew            StageID = "new"
	StageContacted      StageID = "contacted"
	StageQualified      StageID = "qualified"
	StageVisitScheduled StageID = "visit_scheduled"
	StageVisitDone      StageID = "visit_done"
	StageQuoteDraft     StageID = "quote_draft"
	StageQuoteSent      StageID = "quote_sent"
	StageNegotiation    StageID = "negotiation"
	StageWon            StageID = "won"
	StageInProgress     StageID = "in_progress"
	StageCompleted      StageID = "completed"
	StageAftercare      StageID = "aftercare"
	StageLost           StageID = "lost"
)

// Stage is one discrete step of the sales pipeline.
type Stage struct {
	ID       StageID `yaml:"id" json:"id"`
	Label    string  `yaml:"label" json:"label"`
	Color    string  `yaml:"color" json:"color"`
	Terminal bool    `yaml:"terminal" json:"terminal"`
}

// Registry holds the ordered, immutable stage catalogue.
type Registry struct {
	stages []Stage
	byID   map[StageID]int
}

func defaultStages() []Stage {
	return []Stage{
		{ID: StageNew, Label: "Nuevo", Color: "sky"},
		{ID: StageContacted, Label: "Contactado", Color: "blue"},
		{ID: StageQualified, Label: "Calificado", Color: "indigo"},
		{ID: StageVisitScheduled, Label: "Visita agendada", Color: "violet"},
		{ID: StageVisitDone, Label: "Visita realizada", Color: "purple"},
		{ID: StageQuoteDraft, Label: "Cotización en preparación", Color: "amber"},
		{ID: StageQuoteSent, Label: "Cotización enviada", Color: "orange"},
		{ID: StageNegotiation, Label: "Negociación", Color: "yellow"},
		{ID: StageWon, Label: "Ganado", Color: "green"},
		{ID: StageInProgress, Label: "Obra en curso", Color: "emerald"},
		{ID: StageCompleted, Label: "Obra terminada", Color: "teal"},
		{ID: StageAftercare, Label: "Postventa", Color: "cyan"},
		{ID: StageLost, Label: "Perdido", Color: "rose", Terminal: true},
	}
}

// Default returns the built-in registry.
func Default() *Registry {
	reg, err := newRegistry(defaultStages())
	if err != nil {
		// The built-in catalogue is validated by tests; a failure here is a bug.
		panic(err)
	}
	return reg
}

// Load builds the registry from an optional YAML file. An empty path yields
// the built-in default.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline stages file: %w", err)
	}

	var doc struct {
		Stages []Stage `yaml:"stages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse pipeline stages file: %w", err)
	}

	return newRegistry(doc.Stages)
}

func newRegistry(stages []Stage) (*Registry, error) {
	if len(stages) < 2 {
		return nil, fmt.Errorf("pipeline registry needs at least two stages, got %d", len(stages))
	}

	byID := make(map[StageID]int, len(stages))
	terminals := 0
	for i, s := range stages {
		if s.ID == "" {
			return nil, fmt.Errorf("stage at position %d has an empty id", i)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate stage id %q", s.ID)
		}
		byID[s.ID] = i
		if s.Terminal {
			terminals++
		}
	}
	if terminals != 1 {
		return nil, fmt.Errorf("pipeline registry needs exactly one terminal stage, got %d", terminals)
	}

	return &Registry{stages: stages, byID: byID}, nil
}

// Stages returns the stages in canonical display order.
func (r *Registry) Stages() []Stage {
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

// Find returns the stage for the given id.
func (r *Registry) Find(id StageID) (Stage, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Stage{}, false
	}
	return r.stages[i], true
}

// Contains reports whether the id belongs to the registry.
func (r *Registry) Contains(id StageID) bool {
	_, ok := r.byID[id]
	return ok
}

// First returns the earliest stage, the default for newly created leads.
func (r *Registry) First() Stage {
	return r.stages[0]
}

// Terminal returns the terminal (lost) stage.
func (r *Registry) Terminal() Stage {
	for _, s := range r.stages {
		if s.Terminal {
			return s
		}
	}
	// Unreachable: newRegistry guarantees exactly one terminal.
	return Stage{}
}
