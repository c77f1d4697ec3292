package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/invoice-collator/constants"
	"github.com/joseph-ayodele/invoice-collator/internal/entity"
	"github.com/joseph-ayodele/invoice-collator/internal/export"
	"github.com/joseph-ayodele/invoice-collator/internal/session"
)

func TestWriteReport(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	snap := session.Snapshot{
		SessionID: "s1",
		RunID:     "r1",
		State:     constants.RunStateComplete,
		Records:   3,
		Columns:   []string{"type", constants.FilenameField},
		Files:     []session.FileSummary{{Name: "a.pdf", Size: 10, Pages: 2}},
		Skipped:   []entity.SkippedResult{{Name: "b.pdf", Reason: "no_entities"}},
	}
	events := []entity.RunEvent{
		{State: "LOADING", CreatedAt: at},
		{State: "COMPLETE", Records: 3, CreatedAt: at.Add(time.Second)},
	}

	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, writeReport(path, newRunReport(snap, events, "invoices.csv")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got runReport
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "COMPLETE", got.State)
	assert.Equal(t, "invoices.csv", got.Output)
	assert.Equal(t, 3, got.Records)
	assert.Equal(t, []reportFile{{Name: "a.pdf", Size: 10, Pages: 2}}, got.Files)
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, "no_entities", got.Skipped[0].Reason)
	require.Len(t, got.Events, 2)
	assert.True(t, at.Equal(got.Events[0].At))
}

func TestDefaultOutPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(file, []byte("%PDF-1.4"), 0644))

	assert.Equal(t, filepath.Join(dir, "invoices.csv"), defaultOutPath(dir, export.FormatCSV))
	assert.Equal(t, filepath.Join(dir, "invoices.xlsx"), defaultOutPath(file, export.FormatXLSX))
	assert.Equal(t, "invoices.csv", defaultOutPath(filepath.Join(dir, "**", "*.pdf"), export.FormatCSV))
}
