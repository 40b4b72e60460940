// Package drag implements the pointer gesture state machine that drives
// card movement on the pipeline board.
package drag

import (
	"math"

	"obraportal_backend/internal/pipeline"

	"github.com/google/uuid"
)

// Point is a pointer position in board coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the rect's center point.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// ZoneKind distinguishes droppable column zones from card zones, which exist
// only for collision ranking.
type ZoneKind string

const (
	ZoneColumn ZoneKind = "column"
	ZoneCard   ZoneKind = "card"
)

// DropZone is one registered drop target on the board.
type DropZone struct {
	ID     string           `json:"id"`
	Kind   ZoneKind         `json:"kind"`
	Stage  pipeline.StageID `json:"stage"`
	LeadID *uuid.UUID       `json:"leadId,omitempty"`
	Bounds Rect             `json:"bounds"`
}

// closest resolves the active drop zone for a pointer position. Zones
// containing the pointer win by nearest center; if none contain it, the
// globally nearest center wins. Returns nil when no zones are registered.
func closest(zones []DropZone, p Point) *DropZone {
	if len(zones) == 0 {
		return nil
	}

	bestContaining, bestAny := -1, -1
	var dContaining, dAny float64
	for i := range zones {
		d := distance(zones[i].Bounds.Center(), p)
		if zones[i].Bounds.Contains(p) {
			if bestContaining < 0 || d < dContaining {
				bestContaining, dContaining = i, d
			}
		}
		if bestAny < 0 || d < dAny {
			bestAny, dAny = i, d
		}
	}

	if bestContaining >= 0 {
		z := zones[bestContaining]
		return &z
	}
	z := zones[bestAny]
	return &z
}
