package entity

import (
	"time"
)

// RunEvent is one state transition recorded in the session journal.
type RunEvent struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	RunID     string    `json:"run_id"`
	State     string    `json:"state"`
	Detail    string    `json:"detail,omitempty"`
	Files     int       `json:"files"`
	Records   int       `json:"records"`
	CreatedAt time.Time `json:"created_at"`
}
