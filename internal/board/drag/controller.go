package drag

import (
	"context"
	"sync"

	"obraportal_backend/internal/pipeline"
	"obraportal_backend/platform/apperr"

	"github.com/google/uuid"
)

// ActivationThreshold is the pointer travel, in board units, below which a
// gesture stays a click.
const ActivationThreshold = 8.0

// State is the gesture phase.
type State string

const (
	// StateIdle means no gesture is in flight.
	StateIdle State = "idle"
	// StateArmed means the pointer is down on a card but has not yet
	// travelled past the activation threshold.
	StateArmed State = "armed"
	// StateDragging means the card follows the pointer and drop zones are
	// live.
	StateDragging State = "dragging"
)

// Committer persists a stage change when a drag is dropped on a column.
type Committer interface {
	CommitStage(ctx context.Context, leadID uuid.UUID, stage pipeline.StageID) error
}

// Opener reacts to a sub-threshold release, which is a click, by opening the
// card's detail view.
type Opener interface {
	OpenLead(leadID uuid.UUID)
}

// Action describes what a pointer release resolved to.
type Action string

const (
	ActionNone      Action = "none"
	ActionOpened    Action = "opened"
	ActionCommitted Action = "committed"
)

// Result is the outcome of PointerUp.
type Result struct {
	Action Action           `json:"action"`
	LeadID uuid.UUID        `json:"leadId"`
	Stage  pipeline.StageID `json:"stage,omitempty"`
}

// Controller is the single-gesture pointer state machine. At most one card
// can be in flight; a second pointer-down while a gesture is active is
// rejected.
type Controller struct {
	mu        sync.Mutex
	state     State
	leadID    uuid.UUID
	fromStage pipeline.StageID
	origin    Point
	hover     *DropZone
	zones     []DropZone

	threshold float64
	committer Committer
	opener    Opener
}

// New creates an idle controller with the default activation threshold.
func New(committer Committer, opener Opener) *Controller {
	return &Controller{
		state:     StateIdle,
		threshold: ActivationThreshold,
		committer: committer,
		opener:    opener,
	}
}

// SetZones replaces the registered drop zones, typically after a board
// re-layout. Zones may change mid-gesture; the next move re-resolves.
func (c *Controller) SetZones(zones []DropZone) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zones = append([]DropZone(nil), zones...)
}

// Zones returns the registered drop zones.
func (c *Controller) Zones() []DropZone {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DropZone(nil), c.zones...)
}

// State returns the current gesture phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Hover returns the drop zone the dragged card currently resolves to.
func (c *Controller) Hover() *DropZone {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hover == nil {
		return nil
	}
	z := *c.hover
	return &z
}

// PointerDown arms a gesture on the given card. The card's current stage is
// captured so a drop back onto its own column commits nothing.
func (c *Controller) PointerDown(leadID uuid.UUID, fromStage pipeline.StageID, at Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return apperr.Conflict("a drag gesture is already in progress")
	}

	c.state = StateArmed
	c.leadID = leadID
	c.fromStage = fromStage
	c.origin = at
	c.hover = nil
	return nil
}

// PointerMove advances the gesture. An armed gesture becomes a drag once the
// pointer travels past the threshold; while dragging, the hovered drop zone
// is re-resolved by closest center. Moves while idle are ignored.
func (c *Controller) PointerMove(at Point) *DropZone {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateIdle:
		return nil
	case StateArmed:
		if distance(c.origin, at) < c.threshold {
			return nil
		}
		c.state = StateDragging
	}

	c.hover = closest(c.zones, at)
	if c.hover == nil {
		return nil
	}
	z := *c.hover
	return &z
}

// PointerUp ends the gesture. A release that never crossed the threshold is
// a click and opens the card. A drop on a column zone with a different stage
// commits the transition synchronously; everything else releases the card
// where it was. The controller returns to idle regardless of commit outcome.
func (c *Controller) PointerUp(ctx context.Context, at Point) (Result, error) {
	c.mu.Lock()

	if c.state == StateIdle {
		c.mu.Unlock()
		return Result{Action: ActionNone}, apperr.Conflict("no drag gesture in progress")
	}

	leadID := c.leadID
	fromStage := c.fromStage
	dragging := c.state == StateDragging

	var target *DropZone
	if dragging {
		target = closest(c.zones, at)
	}
	c.resetLocked()
	c.mu.Unlock()

	if !dragging {
		if c.opener != nil {
			c.opener.OpenLead(leadID)
		}
		return Result{Action: ActionOpened, LeadID: leadID}, nil
	}

	if target == nil || target.Kind != ZoneColumn || target.Stage == fromStage {
		return Result{Action: ActionNone, LeadID: leadID}, nil
	}

	if err := c.committer.CommitStage(ctx, leadID, target.Stage); err != nil {
		return Result{Action: ActionNone, LeadID: leadID}, err
	}
	return Result{Action: ActionCommitted, LeadID: leadID, Stage: target.Stage}, nil
}

// Cancel aborts the gesture without committing anything.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.state = StateIdle
	c.leadID = uuid.Nil
	c.fromStage = ""
	c.origin = Point{}
	c.hover = nil
}
