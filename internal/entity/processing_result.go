package entity

import (
	"encoding/json"
)

// ProcessingResult is one per-file record returned by the processed endpoint.
// Data stays raw: only JSON strings carry an extraction payload.
type ProcessingResult struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data,omitempty"`
}

// DataString returns the payload when Data is a JSON string.
func (r ProcessingResult) DataString() (string, bool) {
	if len(r.Data) == 0 || r.Data[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r.Data, &s); err != nil {
		return "", false
	}
	return s, true
}
