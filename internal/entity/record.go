package entity

import "github.com/joseph-ayodele/invoice-collator/constants"

// Entity is one extracted field of an invoice as the extraction service emits it.
type Entity map[string]any

// ExportRecord is an Entity with verbose fields removed and its source filename added.
type ExportRecord map[string]any

// SkippedResult notes a processing result that produced no records.
type SkippedResult struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// Dataset is the flattened, export-ready output of one run.
type Dataset struct {
	Records []ExportRecord  `json:"records"`
	Columns []string        `json:"columns"`
	Skipped []SkippedResult `json:"skipped,omitempty"`
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Filenames returns the distinct source filenames in first-seen order.
func (d *Dataset) Filenames() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range d.Records {
		name, _ := r[constants.FilenameField].(string)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
