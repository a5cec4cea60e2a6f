package domain

import (
	"encoding/json"

	"github.com/nandanugg/openrelief/module/report/wizard"
)

// Report is a submitted emergency report. On the wire the wizard fields are
// flattened next to id and submitted_at.
type Report struct {
	ID          string
	SubmittedAt int64
	Fields      wizard.Submission
}

func (r Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["id"] = r.ID
	out["submitted_at"] = r.SubmittedAt
	return json.Marshal(out)
}

func (r *Report) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.ID, _ = raw["id"].(string)
	if ts, ok := raw["submitted_at"].(float64); ok {
		r.SubmittedAt = int64(ts)
	}
	delete(raw, "id")
	delete(raw, "submitted_at")
	r.Fields = wizard.Submission(raw)
	return nil
}
