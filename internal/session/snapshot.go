package session

import (
	"time"

	"github.com/joseph-ayodele/invoice-collator/constants"
	"github.com/joseph-ayodele/invoice-collator/internal/entity"
)

// FileSummary describes one selected file without its content.
type FileSummary struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Pages int    `json:"pages,omitempty"`
}

// Snapshot is a read-only view of a controller for rendering.
type Snapshot struct {
	SessionID string                 `json:"session_id"`
	RunID     string                 `json:"run_id,omitempty"`
	State     constants.RunState     `json:"state"`
	Message   string                 `json:"message,omitempty"`
	Files     []FileSummary          `json:"files"`
	Records   int                    `json:"records"`
	Columns   []string               `json:"columns,omitempty"`
	Skipped   []entity.SkippedResult `json:"skipped,omitempty"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// CanDownload reports whether the download action should be offered.
func (s Snapshot) CanDownload() bool {
	return s.State == constants.RunStateComplete && s.Records > 0
}

// Snapshot copies the current view state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	files := make([]FileSummary, 0, len(c.files))
	for _, f := range c.files {
		files = append(files, FileSummary{Name: f.Name, Size: f.Size, Pages: f.Pages})
	}
	s := Snapshot{
		SessionID: c.id,
		RunID:     c.runID,
		State:     c.state,
		Message:   c.message,
		Files:     files,
		UpdatedAt: c.updatedAt,
	}
	if c.dataset != nil {
		s.Records = c.dataset.Len()
		s.Columns = c.dataset.Columns
		s.Skipped = c.dataset.Skipped
	}
	return s
}
