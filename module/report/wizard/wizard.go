// Package wizard drives the multi-step emergency report form: each step's
// fields are validated before the form may move past it, and the final
// submission is assembled only when every step passes.
package wizard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrStepOutOfRange = errors.New("wizard: step index out of range")
	ErrNotFinalStep   = errors.New("wizard: submit is only available on the final step")
)

// IncompleteError is returned by Submit when a step does not validate.
type IncompleteError struct {
	StepIndex int
	StepID    string
	Errors    Errors
}

func (e *IncompleteError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("wizard: step %q is incomplete (%s)", e.StepID, strings.Join(fields, ", "))
}

// StepData holds the payload entered for each step, keyed by step id.
type StepData map[string]map[string]any

// State is the wizard's position and data. Every transition returns a new
// State; the receiver's maps are never written to.
type State struct {
	CurrentStep int      `json:"current_step"`
	StepData    StepData `json:"step_data"`
	Errors      Errors   `json:"errors"`
}

// Submission is the flat union of every step's declared fields.
type Submission map[string]any

type Wizard struct {
	schema Schema
}

func New(schema Schema) (*Wizard, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Wizard{schema: schema}, nil
}

func (w *Wizard) Steps() []StepDef {
	return w.schema.Steps
}

func (w *Wizard) Len() int {
	return len(w.schema.Steps)
}

// Start returns the initial state at the first step.
func (w *Wizard) Start() State {
	return State{StepData: StepData{}, Errors: Errors{}}
}

// CheckState rejects states whose current step does not exist.
func (w *Wizard) CheckState(s State) error {
	if s.CurrentStep < 0 || s.CurrentStep >= w.Len() {
		return ErrStepOutOfRange
	}
	return nil
}

// ValidateStep applies the rules of stepID to payload. Unknown steps have no
// rules.
func (w *Wizard) ValidateStep(stepID string, payload map[string]any) Errors {
	for _, step := range w.schema.Steps {
		if step.ID == stepID {
			return validateFields(step.Fields, payload)
		}
	}
	return Errors{}
}

// CanAdvance reports whether the step at index validates against data.
func (w *Wizard) CanAdvance(index int, data StepData) bool {
	if index < 0 || index >= w.Len() {
		return false
	}
	id := w.schema.Steps[index].ID
	return len(w.ValidateStep(id, data[id])) == 0
}

// Update replaces the payload of one step.
func (w *Wizard) Update(s State, stepID string, payload map[string]any) State {
	data := make(StepData, len(s.StepData)+1)
	for k, v := range s.StepData {
		data[k] = v
	}
	data[stepID] = payload
	s.StepData = data
	return s
}

// Validate recomputes Errors for the current step.
func (w *Wizard) Validate(s State) State {
	s.CurrentStep = w.clamp(s.CurrentStep)
	id := w.schema.Steps[s.CurrentStep].ID
	s.Errors = w.ValidateStep(id, s.StepData[id])
	return s
}

// Advance moves one step forward, clamped to the last step, if the current
// step validates. Otherwise the state stays put with the failing errors.
func (w *Wizard) Advance(s State) State {
	s = w.Validate(s)
	if len(s.Errors) > 0 {
		return s
	}
	s.CurrentStep = w.clamp(s.CurrentStep + 1)
	s.Errors = Errors{}
	return s
}

// Retreat moves one step back without validating. It never goes below the
// first step.
func (w *Wizard) Retreat(s State) State {
	s.CurrentStep = w.clamp(s.CurrentStep - 1)
	s.Errors = Errors{}
	return s
}

// JumpTo moves to index. Going back is always allowed; going forward requires
// the current step to validate.
func (w *Wizard) JumpTo(s State, index int) (State, error) {
	if index < 0 || index >= w.Len() {
		return s, ErrStepOutOfRange
	}
	s.CurrentStep = w.clamp(s.CurrentStep)

	if index > s.CurrentStep {
		s = w.Validate(s)
		if len(s.Errors) > 0 {
			return s, nil
		}
	}
	s.CurrentStep = index
	s.Errors = Errors{}
	return s, nil
}

// Submit assembles the submission. It requires the final step to be current
// and every step to validate; the first failing step is reported as an
// *IncompleteError.
func (w *Wizard) Submit(s State) (Submission, error) {
	if s.CurrentStep != w.Len()-1 {
		return nil, ErrNotFinalStep
	}

	out := Submission{}
	for i, step := range w.schema.Steps {
		payload := s.StepData[step.ID]
		if errs := validateFields(step.Fields, payload); len(errs) > 0 {
			return nil, &IncompleteError{StepIndex: i, StepID: step.ID, Errors: errs}
		}
		for _, f := range step.Fields {
			v, ok := payload[f.Name]
			if !ok || v == nil {
				continue
			}
			out[f.Name] = normalize(f, v)
		}
	}
	return out, nil
}

func (w *Wizard) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i > w.Len()-1 {
		return w.Len() - 1
	}
	return i
}

func normalize(rule FieldRule, v any) any {
	switch rule.Kind {
	case KindText:
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	case KindChoice:
		if s, ok := choiceValue(v); ok {
			return s
		}
	case KindCoordinates:
		if p, ok := coordinates(v); ok {
			return map[string]float64{"latitude": p.Lat, "longitude": p.Lon}
		}
	}
	return v
}
