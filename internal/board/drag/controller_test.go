package drag

import (
	"context"
	"errors"
	"testing"

	"obraportal_backend/internal/pipeline"
	"obraportal_backend/platform/apperr"

	"github.com/google/uuid"
)

type recordingCommitter struct {
	calls  int
	leadID uuid.UUID
	stage  pipeline.StageID
	err    error
}

func (r *recordingCommitter) CommitStage(_ context.Context, leadID uuid.UUID, stage pipeline.StageID) error {
	r.calls++
	r.leadID = leadID
	r.stage = stage
	return r.err
}

type recordingOpener struct {
	calls  int
	leadID uuid.UUID
}

func (r *recordingOpener) OpenLead(leadID uuid.UUID) {
	r.calls++
	r.leadID = leadID
}

func testZones() []DropZone {
	return []DropZone{
		{ID: "col-new", Kind: ZoneColumn, Stage: pipeline.StageNew, Bounds: Rect{X: 0, Y: 0, Width: 100, Height: 400}},
		{ID: "col-contacted", Kind: ZoneColumn, Stage: pipeline.StageContacted, Bounds: Rect{X: 100, Y: 0, Width: 100, Height: 400}},
		{ID: "col-qualified", Kind: ZoneColumn, Stage: pipeline.StageQualified, Bounds: Rect{X: 200, Y: 0, Width: 100, Height: 400}},
	}
}

func newControllerFixture() (*Controller, *recordingCommitter, *recordingOpener) {
	committer := &recordingCommitter{}
	opener := &recordingOpener{}
	c := New(committer, opener)
	c.SetZones(testZones())
	return c, committer, opener
}

func TestSubThresholdReleaseOpensCard(t *testing.T) {
	c, committer, opener := newControllerFixture()
	leadID := uuid.New()

	if err := c.PointerDown(leadID, pipeline.StageNew, Point{X: 50, Y: 50}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	// 7.9 units of travel stays below the activation threshold.
	c.PointerMove(Point{X: 57.9, Y: 50})
	if c.State() != StateArmed {
		t.Fatalf("expected armed, got %q", c.State())
	}

	result, err := c.PointerUp(context.Background(), Point{X: 57.9, Y: 50})
	if err != nil {
		t.Fatalf("PointerUp: %v", err)
	}
	if result.Action != ActionOpened {
		t.Fatalf("expected opened, got %q", result.Action)
	}
	if opener.calls != 1 || opener.leadID != leadID {
		t.Fatalf("expected the opener invoked for the card")
	}
	if committer.calls != 0 {
		t.Fatalf("a click must not commit anything")
	}
	if c.State() != StateIdle {
		t.Fatalf("expected idle after release")
	}
}

func TestThresholdCrossingActivatesDrag(t *testing.T) {
	c, _, _ := newControllerFixture()

	if err := c.PointerDown(uuid.New(), pipeline.StageNew, Point{X: 50, Y: 50}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	c.PointerMove(Point{X: 58, Y: 50})
	if c.State() != StateDragging {
		t.Fatalf("expected dragging after 8 units of travel, got %q", c.State())
	}
}

func TestDropOnOtherColumnCommits(t *testing.T) {
	c, committer, opener := newControllerFixture()
	leadID := uuid.New()

	if err := c.PointerDown(leadID, pipeline.StageNew, Point{X: 50, Y: 50}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	c.PointerMove(Point{X: 150, Y: 50})

	result, err := c.PointerUp(context.Background(), Point{X: 150, Y: 50})
	if err != nil {
		t.Fatalf("PointerUp: %v", err)
	}
	if result.Action != ActionCommitted || result.Stage != pipeline.StageContacted {
		t.Fatalf("expected commit to contacted, got %+v", result)
	}
	if committer.calls != 1 || committer.leadID != leadID || committer.stage != pipeline.StageContacted {
		t.Fatalf("expected one commit for the dragged card")
	}
	if opener.calls != 0 {
		t.Fatalf("a drag must not open the card")
	}
}

func TestDropOnOwnColumnCommitsNothing(t *testing.T) {
	c, committer, _ := newControllerFixture()

	if err := c.PointerDown(uuid.New(), pipeline.StageNew, Point{X: 50, Y: 50}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	c.PointerMove(Point{X: 70, Y: 200})

	result, err := c.PointerUp(context.Background(), Point{X: 70, Y: 200})
	if err != nil {
		t.Fatalf("PointerUp: %v", err)
	}
	if result.Action != ActionNone {
		t.Fatalf("expected no action, got %q", result.Action)
	}
	if committer.calls != 0 {
		t.Fatalf("dropping on the origin column must not commit")
	}
}

func TestDropOnCardZoneCommitsNothing(t *testing.T) {
	c, committer, _ := newControllerFixture()
	cardOwner := uuid.New()

	zones := testZones()
	zones = append(zones, DropZone{
		ID:     "card-1",
		Kind:   ZoneCard,
		Stage:  pipeline.StageContacted,
		LeadID: &cardOwner,
		// Nested inside the contacted column with a nearer center.
		Bounds: Rect{X: 110, Y: 40, Width: 80, Height: 30},
	})
	c.SetZones(zones)

	if err := c.PointerDown(uuid.New(), pipeline.StageNew, Point{X: 50, Y: 50}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	hover := c.PointerMove(Point{X: 150, Y: 55})
	if hover == nil || hover.ID != "card-1" {
		t.Fatalf("expected the nested card zone to win collision, got %+v", hover)
	}

	result, err := c.PointerUp(context.Background(), Point{X: 150, Y: 55})
	if err != nil {
		t.Fatalf("PointerUp: %v", err)
	}
	if result.Action != ActionNone || committer.calls != 0 {
		t.Fatalf("dropping on a card zone must not commit")
	}
}

func TestCollisionPrefersContainingZone(t *testing.T) {
	c, _, _ := newControllerFixture()
	c.SetZones([]DropZone{
		{ID: "wide", Kind: ZoneColumn, Stage: pipeline.StageNew, Bounds: Rect{X: 0, Y: 0, Width: 300, Height: 400}},
		{ID: "narrow", Kind: ZoneColumn, Stage: pipeline.StageContacted, Bounds: Rect{X: 310, Y: 0, Width: 20, Height: 400}},
	})

	if err := c.PointerDown(uuid.New(), pipeline.StageNew, Point{X: 50, Y: 50}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}

	// The pointer sits at the far edge of the wide zone, closer to the narrow
	// zone's center. Containment still wins.
	hover := c.PointerMove(Point{X: 299, Y: 50})
	if hover == nil || hover.ID != "wide" {
		t.Fatalf("expected the containing zone, got %+v", hover)
	}
}

func TestCollisionFallsBackToNearestCenter(t *testing.T) {
	c, _, _ := newControllerFixture()

	if err := c.PointerDown(uuid.New(), pipeline.StageNew, Point{X: 50, Y: 50}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}

	// Below every zone: no containment, nearest center wins.
	hover := c.PointerMove(Point{X: 240, Y: 500})
	if hover == nil || hover.ID != "col-qualified" {
		t.Fatalf("expected the nearest zone by center, got %+v", hover)
	}
}

func TestSecondPointerDownRejected(t *testing.T) {
	c, _, _ := newControllerFixture()

	if err := c.PointerDown(uuid.New(), pipeline.StageNew, Point{X: 50, Y: 50}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	err := c.PointerDown(uuid.New(), pipeline.StageNew, Point{X: 60, Y: 60})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for a second gesture, got %v", err)
	}
}

func TestCancelResetsWithoutCommit(t *testing.T) {
	c, committer, opener := newControllerFixture()

	if err := c.PointerDown(uuid.New(), pipeline.StageNew, Point{X: 50, Y: 50}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	c.PointerMove(Point{X: 150, Y: 50})
	c.Cancel()

	if c.State() != StateIdle {
		t.Fatalf("expected idle after cancel")
	}
	if committer.calls != 0 || opener.calls != 0 {
		t.Fatalf("cancel must neither commit nor open")
	}

	// The controller accepts a fresh gesture after cancel.
	if err := c.PointerDown(uuid.New(), pipeline.StageNew, Point{X: 10, Y: 10}); err != nil {
		t.Fatalf("expected a new gesture after cancel, got %v", err)
	}
}

func TestCommitFailureSurfacesAndResets(t *testing.T) {
	c, committer, _ := newControllerFixture()
	committer.err = errors.New("store unavailable")

	if err := c.PointerDown(uuid.New(), pipeline.StageNew, Point{X: 50, Y: 50}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	c.PointerMove(Point{X: 150, Y: 50})

	result, err := c.PointerUp(context.Background(), Point{X: 150, Y: 50})
	if err == nil {
		t.Fatalf("expected the commit error surfaced")
	}
	if result.Action != ActionNone {
		t.Fatalf("a failed commit must not report success")
	}
	if c.State() != StateIdle {
		t.Fatalf("expected idle even after a failed commit")
	}
}

func TestPointerUpWithoutGestureIsConflict(t *testing.T) {
	c, _, _ := newControllerFixture()

	_, err := c.PointerUp(context.Background(), Point{X: 0, Y: 0})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMoveWhileIdleIsIgnored(t *testing.T) {
	c, _, _ := newControllerFixture()

	if hover := c.PointerMove(Point{X: 150, Y: 50}); hover != nil {
		t.Fatalf("idle moves must resolve nothing")
	}
	if c.State() != StateIdle {
		t.Fatalf("idle moves must not change state")
	}
}
