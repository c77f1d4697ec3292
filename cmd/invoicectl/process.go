package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-collator/constants"
	"github.com/joseph-ayodele/invoice-collator/internal/export"
	"github.com/joseph-ayodele/invoice-collator/internal/repository"
	"github.com/joseph-ayodele/invoice-collator/internal/selector"
	"github.com/joseph-ayodele/invoice-collator/internal/session"
)

var (
	outPath      string
	formatFlag   string
	reportPath   string
	errNoRecords = errors.New("batch finished without records")
)

var processCmd = &cobra.Command{
	Use:   "process [pdf files or directories...]",
	Short: "Process a batch of PDF invoices once and write the collated file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default invoices.<format> next to the first input)")
	processCmd.Flags().StringVarP(&formatFlag, "format", "f", "", "export format: csv or xlsx (default EXPORT_FORMAT)")
	processCmd.Flags().StringVar(&reportPath, "report", "", "write a YAML run report to this file")
}

func runProcess(cmd *cobra.Command, args []string) error {
	if formatFlag != "" {
		cfg.Export.Format = formatFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = defaultOutPath(args[0], format)
	}

	candidates, err := selector.FromPaths(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := repository.OpenInMemory(ctx, logger)
	if err != nil {
		return err
	}
	defer repository.Close(db, logger)
	journal := repository.NewRunJournal(db, logger)

	ctrl := session.NewController(uuid.NewString(), session.Deps{
		Pipeline: newPipeline(),
		Journal:  journal,
		Logger:   logger,
	})

	snap, err := ctrl.Select(ctx, candidates)
	if err != nil {
		return err
	}

	events, _ := journal.ListByRun(ctx, snap.RunID)
	for _, ev := range events {
		logger.Debug("run transition", "state", ev.State, "detail", ev.Detail, "at", ev.CreatedAt)
	}

	out, err := exportRun(ctrl, snap, format)
	if reportPath != "" {
		if rerr := writeReport(reportPath, newRunReport(snap, events, out)); rerr != nil {
			logger.Error("run report", "path", reportPath, "error", rerr)
		}
	}
	return err
}

// exportRun writes the collated file for a finished run and returns its path.
func exportRun(ctrl *session.Controller, snap session.Snapshot, format export.Format) (string, error) {
	switch snap.State {
	case constants.RunStateIdle:
		return "", errors.New("extraction service rejected the API key")
	case constants.RunStateFailed:
		return "", errors.New(session.MessageFailed)
	}

	b, err := ctrl.Export(format)
	if errors.Is(err, session.ErrNothingToExport) {
		printSummary(snap, "")
		return "", errNoRecords
	}
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(outPath, b, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}

	logger.Info("batch processing complete",
		"files", len(snap.Files),
		"records", snap.Records,
		"skipped", len(snap.Skipped),
		"output_file", outPath)
	printSummary(snap, outPath)
	return outPath, nil
}

// defaultOutPath places the collated file inside a directory argument, next
// to a file argument, and in the working directory for a glob pattern.
func defaultOutPath(arg string, format export.Format) string {
	if strings.ContainsAny(arg, "*?[{") {
		return format.FileName()
	}
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return filepath.Join(arg, format.FileName())
	}
	return filepath.Join(filepath.Dir(filepath.Clean(arg)), format.FileName())
}

func printSummary(snap session.Snapshot, out string) {
	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files uploaded: %d\n", len(snap.Files))
	fmt.Printf("- Records: %d\n", snap.Records)
	fmt.Printf("- Skipped results: %d\n", len(snap.Skipped))
	for _, sk := range snap.Skipped {
		fmt.Printf("  - %s (%s)\n", sk.Name, sk.Reason)
	}
	if out != "" {
		fmt.Printf("- Output: %s\n", out)
	}
}
