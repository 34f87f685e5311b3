package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodePayloadRoundTrip(t *testing.T) {
	raw, err := json.Marshal(JobPayload{
		SchemaVersion: PayloadSchemaVersion,
		Text:          "meeting notes",
		TTLDays:       14,
		Source:        "calendar",
	})
	if err != nil {
		t.Fatal(err)
	}
	p, err := DecodePayload(raw)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if p.Text != "meeting notes" || p.TTLDays != 14 || p.Source != "calendar" {
		t.Errorf("payload fields lost: %+v", p)
	}
}

func TestDecodePayloadRejectsUnknownSchema(t *testing.T) {
	_, err := DecodePayload([]byte(`{"schema_version": 99, "text": "x"}`))
	if !errors.Is(err, ErrValidation) {
		t.Errorf("unknown schema version should be a validation error, got %v", err)
	}
	if _, err := DecodePayload([]byte(`{not json`)); err == nil {
		t.Error("malformed payload should fail")
	}
}
