package wizard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSchemaYAML = `
steps:
  - id: what
    title: What happened
    fields:
      - name: kind
        kind: choice
        required: true
        choices: [flood, quake]
  - id: confirm
    title: Confirm
    fields:
      - name: confirmed
        kind: boolean
        required: true
`

func TestDefaultSchema(t *testing.T) {
	s := DefaultSchema()
	if err := s.Validate(); err != nil {
		t.Fatalf("default schema invalid: %v", err)
	}

	want := []string{StepType, StepDetails, StepLocation, StepEvidence, StepReview}
	if len(s.Steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(s.Steps))
	}
	for i, id := range want {
		if s.Steps[i].ID != id {
			t.Errorf("step %d: expected %q, got %q", i, id, s.Steps[i].ID)
		}
	}
}

func TestParseSchema(t *testing.T) {
	s, err := ParseSchema([]byte(testSchemaYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(s.Steps))
	}
	f := s.Steps[0].Fields[0]
	if f.Name != "kind" || f.Kind != KindChoice || !f.Required || len(f.Choices) != 2 {
		t.Fatalf("unexpected field %+v", f)
	}

	w, err := New(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := w.Update(w.Start(), "what", map[string]any{"kind": "flood"})
	st = w.Advance(st)
	if st.CurrentStep != 1 {
		t.Fatalf("expected step 1, got %d", st.CurrentStep)
	}
	st = w.Update(st, "confirm", map[string]any{"confirmed": false})
	if _, err := w.Submit(st); err == nil {
		t.Fatal("expected unconfirmed submission to fail")
	}
}

func TestLoadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wizard.yaml")
	if err := os.WriteFile(path, []byte(testSchemaYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Steps[1].ID != "confirm" {
		t.Fatalf("unexpected steps %+v", s.Steps)
	}

	if _, err := LoadSchema(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no steps", "steps: []", "no steps"},
		{"duplicate step", "steps:\n  - id: a\n  - id: a\n", "duplicate step"},
		{"missing id", "steps:\n  - title: x\n", "without id"},
		{"duplicate field", "steps:\n  - id: a\n    fields:\n      - {name: f, kind: text}\n  - id: b\n    fields:\n      - {name: f, kind: text}\n", "already defined"},
		{"unknown kind", "steps:\n  - id: a\n    fields:\n      - {name: f, kind: photo}\n", "unknown kind"},
		{"inverted limits", "steps:\n  - id: a\n    fields:\n      - {name: f, kind: text, min_length: 10, max_length: 5}\n", "min_length above max_length"},
		{"bad yaml", "steps: [", "parse wizard schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchema([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
