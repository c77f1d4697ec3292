package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-collator/internal/client"
	"github.com/joseph-ayodele/invoice-collator/internal/common"
	"github.com/joseph-ayodele/invoice-collator/internal/entity"
	"github.com/joseph-ayodele/invoice-collator/internal/flatten"
)

// ExtractionService is the remote side of a run: a batch upload followed by a
// fetch of the processed results.
type ExtractionService interface {
	Upload(ctx context.Context, files []entity.SelectedFile) (json.RawMessage, error)
	FetchProcessed(ctx context.Context) ([]entity.ProcessingResult, error)
}

// Stage names a step of the pipeline.
type Stage string

const (
	StageUpload  Stage = "upload"
	StageFetch   Stage = "fetch"
	StageFlatten Stage = "flatten"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	OutcomeComplete     Outcome = "complete"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeFailed       Outcome = "failed"
)

// Result is the typed output of one run. Dataset is set only on OutcomeComplete.
type Result struct {
	Outcome  Outcome
	Stage    Stage
	Dataset  *entity.Dataset
	Upload   json.RawMessage
	Err      error
	Duration time.Duration
}

// Pipeline runs upload, then fetch, then flatten, stopping at the first stage
// that fails.
type Pipeline struct {
	logger    *slog.Logger
	svc       ExtractionService
	flattener *flatten.Flattener
}

func NewPipeline(logger *slog.Logger, svc ExtractionService, flattener *flatten.Flattener) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if flattener == nil {
		flattener = flatten.New(logger)
	}
	return &Pipeline{logger: logger, svc: svc, flattener: flattener}
}

// Run executes one workflow run over files.
func (p *Pipeline) Run(ctx context.Context, files []entity.SelectedFile) Result {
	start := time.Now()
	runID := common.RunIDFromContext(ctx)

	// 1) upload → service acknowledges the batch
	ack, err := p.svc.Upload(ctx, files)
	if err != nil {
		return p.stop(StageUpload, err, start, runID)
	}
	p.logger.Debug("pipeline upload stage success", "run_id", runID, "files", len(files))

	// 2) fetch → processed per-file records
	results, err := p.svc.FetchProcessed(ctx)
	if err != nil {
		return p.stop(StageFetch, err, start, runID)
	}
	p.logger.Debug("pipeline fetch stage success", "run_id", runID, "results", len(results))

	// 3) flatten → export-ready records; never fails the batch
	ds := p.flattener.Flatten(results)

	res := Result{
		Outcome:  OutcomeComplete,
		Stage:    StageFlatten,
		Dataset:  ds,
		Upload:   ack,
		Duration: time.Since(start),
	}
	p.logger.Info("pipeline.complete",
		"run_id", runID,
		"files", len(files),
		"records", ds.Len(),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res
}

func (p *Pipeline) stop(stage Stage, err error, start time.Time, runID string) Result {
	res := Result{
		Outcome:  Classify(err),
		Stage:    stage,
		Err:      err,
		Duration: time.Since(start),
	}
	if res.Outcome == OutcomeUnauthorized {
		p.logger.Warn("pipeline.unauthorized", "run_id", runID, "stage", string(stage))
	} else {
		p.logger.Error("pipeline.failed", "run_id", runID, "stage", string(stage), "error", err)
	}
	return res
}

// Classify maps a stage error onto a run outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeComplete
	case errors.Is(err, client.ErrUnauthorized):
		return OutcomeUnauthorized
	default:
		return OutcomeFailed
	}
}
