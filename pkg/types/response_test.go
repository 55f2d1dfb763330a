package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewErrorEnvelopeOmitsEmptyDetails(t *testing.T) {
	for _, details := range []any{nil, map[string]string{}, map[string]any{}} {
		body, err := json.Marshal(NewErrorEnvelope("NOT_FOUND", "rentable not found", details))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if strings.Contains(string(body), "details") {
			t.Fatalf("expected no details in %s", body)
		}
	}
}

func TestNewErrorEnvelopeKeepsFieldMessages(t *testing.T) {
	env := NewErrorEnvelope("VALIDATION_ERROR", "name: required", map[string]string{"name": "required"})
	fields, ok := env.Error.Details.(map[string]string)
	if !ok || fields["name"] != "required" {
		t.Fatalf("unexpected details %#v", env.Error.Details)
	}
}
