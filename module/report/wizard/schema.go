package wizard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type FieldKind string

const (
	KindChoice      FieldKind = "choice"
	KindText        FieldKind = "text"
	KindCoordinates FieldKind = "coordinates"
	KindList        FieldKind = "list"
	KindBoolean     FieldKind = "boolean"
)

type FieldRule struct {
	Name      string    `yaml:"name" json:"name"`
	Kind      FieldKind `yaml:"kind" json:"kind"`
	Required  bool      `yaml:"required" json:"required"`
	MinLength int       `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength int       `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	MaxItems  int       `yaml:"max_items,omitempty" json:"max_items,omitempty"`
	Choices   []string  `yaml:"choices,omitempty" json:"choices,omitempty"`
}

type StepDef struct {
	ID     string      `yaml:"id" json:"id"`
	Title  string      `yaml:"title" json:"title"`
	Fields []FieldRule `yaml:"fields" json:"fields"`
}

// Schema is the ordered list of wizard steps and the rules for their fields.
type Schema struct {
	Steps []StepDef `yaml:"steps" json:"steps"`
}

const (
	StepType     = "type"
	StepDetails  = "details"
	StepLocation = "location"
	StepEvidence = "evidence"
	StepReview   = "review"
)

const MaxEvidenceItems = 5

// DefaultSchema is the emergency report flow: type, details, location,
// evidence, review.
func DefaultSchema() Schema {
	return Schema{Steps: []StepDef{
		{
			ID:    StepType,
			Title: "Emergency type",
			Fields: []FieldRule{
				{Name: "type", Kind: KindChoice, Required: true, Choices: []string{"fire", "medical", "security", "natural", "infrastructure"}},
			},
		},
		{
			ID:    StepDetails,
			Title: "Details",
			Fields: []FieldRule{
				{Name: "title", Kind: KindText, Required: true, MinLength: 5, MaxLength: 100},
				{Name: "description", Kind: KindText, Required: true, MinLength: 10, MaxLength: 500},
				{Name: "severity", Kind: KindChoice, Choices: []string{"1", "2", "3", "4", "5"}},
			},
		},
		{
			ID:    StepLocation,
			Title: "Location",
			Fields: []FieldRule{
				{Name: "location", Kind: KindCoordinates, Required: true},
				{Name: "address", Kind: KindText, MaxLength: 200},
			},
		},
		{
			ID:    StepEvidence,
			Title: "Evidence",
			Fields: []FieldRule{
				{Name: "evidence", Kind: KindList, MaxItems: MaxEvidenceItems},
			},
		},
		{
			ID:    StepReview,
			Title: "Review",
		},
	}}
}

// LoadSchema reads a YAML schema from path.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("read wizard schema: %w", err)
	}
	return ParseSchema(data)
}

func ParseSchema(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("parse wizard schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// Validate checks the schema itself. Field names must be unique across steps
// because the submission is their flat union.
func (s Schema) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("wizard schema: no steps")
	}

	steps := make(map[string]struct{}, len(s.Steps))
	fields := make(map[string]string)
	for _, step := range s.Steps {
		if step.ID == "" {
			return fmt.Errorf("wizard schema: step without id")
		}
		if _, dup := steps[step.ID]; dup {
			return fmt.Errorf("wizard schema: duplicate step %q", step.ID)
		}
		steps[step.ID] = struct{}{}

		for _, f := range step.Fields {
			if f.Name == "" {
				return fmt.Errorf("wizard schema: step %q has a field without name", step.ID)
			}
			if owner, dup := fields[f.Name]; dup {
				return fmt.Errorf("wizard schema: field %q in step %q already defined in step %q", f.Name, step.ID, owner)
			}
			fields[f.Name] = step.ID

			switch f.Kind {
			case KindChoice, KindText, KindCoordinates, KindList, KindBoolean:
			default:
				return fmt.Errorf("wizard schema: field %q has unknown kind %q", f.Name, f.Kind)
			}
			if f.MinLength < 0 || f.MaxLength < 0 || f.MaxItems < 0 {
				return fmt.Errorf("wizard schema: field %q has a negative limit", f.Name)
			}
			if f.MaxLength > 0 && f.MinLength > f.MaxLength {
				return fmt.Errorf("wizard schema: field %q has min_length above max_length", f.Name)
			}
		}
	}
	return nil
}
