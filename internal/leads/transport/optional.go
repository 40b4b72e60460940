package transport

import (
	"encoding/json"

	"github.com/google/uuid"
)

// The Optional types distinguish "field absent" from "field set to null".
// A PATCH body that omits a field leaves it untouched; an explicit null
// clears it.

type OptionalString struct {
	Value *string
	Set   bool
}

func (o OptionalString) IsZero() bool {
	return !o.Set
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Value = &raw
	return nil
}

type OptionalFloat struct {
	Value *float64
	Set   bool
}

func (o OptionalFloat) IsZero() bool {
	return !o.Set
}

func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var raw float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Value = &raw
	return nil
}

type OptionalTags struct {
	Value []string
	Set   bool
}

func (o OptionalTags) IsZero() bool {
	return !o.Set
}

func (o *OptionalTags) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = []string{}
		return nil
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Value = raw
	return nil
}

type OptionalUUID struct {
	Value *uuid.UUID
	Set   bool
}

func (o OptionalUUID) IsZero() bool {
	return !o.Set
}

func (o *OptionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		o.Value = nil
		return nil
	}

	parsed, err := uuid.Parse(raw)
	if err != nil {
		return err
	}
	o.Value = &parsed
	return nil
}
