package transport

import (
	"encoding/json"
	"testing"
)

func TestOptionalStringDistinguishesAbsentAndNull(t *testing.T) {
	var req UpdateLeadRequest
	if err := json.Unmarshal([]byte(`{"zone":"Centro","email":null}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !req.Zone.Set || req.Zone.Value == nil || *req.Zone.Value != "Centro" {
		t.Fatalf("expected zone set to Centro, got %+v", req.Zone)
	}
	if !req.Email.Set || req.Email.Value != nil {
		t.Fatalf("expected email explicitly cleared, got %+v", req.Email)
	}
	if req.LossReason.Set {
		t.Fatalf("an omitted field must stay unset")
	}
}

func TestOptionalFloatNull(t *testing.T) {
	var req UpdateLeadRequest
	if err := json.Unmarshal([]byte(`{"estimatedBudget":null}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.EstimatedBudget.Set || req.EstimatedBudget.Value != nil {
		t.Fatalf("expected budget explicitly cleared, got %+v", req.EstimatedBudget)
	}

	var withValue UpdateLeadRequest
	if err := json.Unmarshal([]byte(`{"estimatedBudget":125000.5}`), &withValue); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if withValue.EstimatedBudget.Value == nil || *withValue.EstimatedBudget.Value != 125000.5 {
		t.Fatalf("expected budget value, got %+v", withValue.EstimatedBudget)
	}
}

func TestOptionalTagsNullResetsToEmpty(t *testing.T) {
	var req UpdateLeadRequest
	if err := json.Unmarshal([]byte(`{"tags":null}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.Tags.Set || req.Tags.Value == nil || len(req.Tags.Value) != 0 {
		t.Fatalf("expected null tags to reset to empty, got %+v", req.Tags)
	}
}

func TestOptionalUUIDParsing(t *testing.T) {
	var req UpdateLeadRequest
	if err := json.Unmarshal([]byte(`{"ownerId":"3b241101-e2bb-4255-8caf-4136c566a962"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.OwnerID.Set || req.OwnerID.Value == nil {
		t.Fatalf("expected owner id parsed, got %+v", req.OwnerID)
	}

	var cleared UpdateLeadRequest
	if err := json.Unmarshal([]byte(`{"ownerId":null}`), &cleared); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !cleared.OwnerID.Set || cleared.OwnerID.Value != nil {
		t.Fatalf("expected owner explicitly cleared, got %+v", cleared.OwnerID)
	}

	var invalid UpdateLeadRequest
	if err := json.Unmarshal([]byte(`{"ownerId":"nope"}`), &invalid); err == nil {
		t.Fatalf("expected an error for a malformed uuid")
	}
}
