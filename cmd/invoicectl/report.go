package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/invoice-collator/internal/entity"
	"github.com/joseph-ayodele/invoice-collator/internal/session"
)

// runReport is the machine-readable summary written by "process --report".
type runReport struct {
	SessionID string          `yaml:"session_id"`
	RunID     string          `yaml:"run_id"`
	State     string          `yaml:"state"`
	Output    string          `yaml:"output,omitempty"`
	Records   int             `yaml:"records"`
	Columns   []string        `yaml:"columns,omitempty"`
	Files     []reportFile    `yaml:"files"`
	Skipped   []reportSkipped `yaml:"skipped,omitempty"`
	Events    []reportEvent   `yaml:"events,omitempty"`
}

type reportFile struct {
	Name  string `yaml:"name"`
	Size  int    `yaml:"size"`
	Pages int    `yaml:"pages,omitempty"`
}

type reportSkipped struct {
	Name   string `yaml:"name"`
	Reason string `yaml:"reason"`
	Error  string `yaml:"error,omitempty"`
}

type reportEvent struct {
	State   string    `yaml:"state"`
	Detail  string    `yaml:"detail,omitempty"`
	Records int       `yaml:"records"`
	At      time.Time `yaml:"at"`
}

func newRunReport(snap session.Snapshot, events []entity.RunEvent, out string) runReport {
	r := runReport{
		SessionID: snap.SessionID,
		RunID:     snap.RunID,
		State:     string(snap.State),
		Output:    out,
		Records:   snap.Records,
		Columns:   snap.Columns,
	}
	for _, f := range snap.Files {
		r.Files = append(r.Files, reportFile{Name: f.Name, Size: f.Size, Pages: f.Pages})
	}
	for _, sk := range snap.Skipped {
		r.Skipped = append(r.Skipped, reportSkipped{Name: sk.Name, Reason: sk.Reason, Error: sk.Error})
	}
	for _, ev := range events {
		r.Events = append(r.Events, reportEvent{State: ev.State, Detail: ev.Detail, Records: ev.Records, At: ev.CreatedAt})
	}
	return r
}

func writeReport(path string, r runReport) error {
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}
