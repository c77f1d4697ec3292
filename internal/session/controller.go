package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-collator/constants"
	"github.com/joseph-ayodele/invoice-collator/internal/common"
	"github.com/joseph-ayodele/invoice-collator/internal/entity"
	"github.com/joseph-ayodele/invoice-collator/internal/export"
	"github.com/joseph-ayodele/invoice-collator/internal/repository"
	"github.com/joseph-ayodele/invoice-collator/internal/selector"
	"github.com/joseph-ayodele/invoice-collator/internal/workflow"
)

var (
	// ErrBusy rejects a selection while a run is in flight; nothing is queued.
	ErrBusy = common.NewAppError("BUSY", "a batch is already being processed", common.ErrInvalidInput)
	// ErrRunFinished rejects a selection after a terminal state until Reset.
	ErrRunFinished = common.NewAppError("RUN_FINISHED", "the previous batch has finished; reset to start another", common.ErrInvalidInput)
	// ErrNothingToExport is returned when no completed dataset with records exists.
	ErrNothingToExport = common.NewAppError("NOTHING_TO_EXPORT", "no processed records to download", common.ErrInvalidInput)
)

// User-facing messages. Error details only ever reach the log.
const (
	MessageComplete = "Processing complete! Download the collated file below."
	MessageFailed   = "Something went wrong! Sorry, please check back later."
	MessageLoading  = "Please be patient - this process can take a few minutes."
)

// Runner executes one workflow run.
type Runner interface {
	Run(ctx context.Context, files []entity.SelectedFile) workflow.Result
}

// Deps are the collaborators shared by every controller.
type Deps struct {
	Selector *selector.Selector
	Pipeline Runner
	Exporter *export.Service
	Journal  repository.RunJournal // optional
	Logger   *slog.Logger
}

// Controller is the view-state machine of one session:
// Idle → Loading → Complete | Failed, with 401 falling back to Idle.
type Controller struct {
	id   string
	deps Deps

	mu        sync.Mutex
	state     constants.RunState
	runID     string
	files     []entity.SelectedFile
	dataset   *entity.Dataset
	message   string
	updatedAt time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Selector == nil {
		d.Selector = selector.New(d.Logger)
	}
	if d.Exporter == nil {
		d.Exporter = export.NewService(d.Logger)
	}
	return d
}

func NewController(id string, deps Deps) *Controller {
	return &Controller{
		id:        id,
		deps:      deps.withDefaults(),
		state:     constants.RunStateIdle,
		updatedAt: time.Now(),
	}
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// Select validates a new batch and, when accepted, runs the whole workflow
// before returning. A rejected batch leaves the state untouched.
func (c *Controller) Select(ctx context.Context, candidates []selector.Candidate) (Snapshot, error) {
	c.mu.Lock()
	switch {
	case c.state == constants.RunStateLoading:
		c.mu.Unlock()
		return c.Snapshot(), ErrBusy
	case c.state.Terminal():
		c.mu.Unlock()
		return c.Snapshot(), ErrRunFinished
	}

	files, err := c.deps.Selector.Select(candidates)
	if err != nil {
		c.mu.Unlock()
		c.deps.Logger.Warn("session.select.rejected", "session_id", c.id, "error", err)
		return c.Snapshot(), err
	}

	runID := uuid.NewString()
	c.files = files
	c.dataset = nil
	c.runID = runID
	c.setState(constants.RunStateLoading, MessageLoading)
	c.mu.Unlock()

	c.journal(ctx, runID, constants.RunStateLoading, "", len(files), 0)

	// the user cannot abort a run once it starts; only the HTTP timeout bounds it
	runCtx := common.WithRunID(common.WithSessionID(context.WithoutCancel(ctx), c.id), runID)
	res := c.deps.Pipeline.Run(runCtx, files)

	c.mu.Lock()
	var detail string
	switch res.Outcome {
	case workflow.OutcomeComplete:
		c.dataset = res.Dataset
		c.setState(constants.RunStateComplete, MessageComplete)
	case workflow.OutcomeUnauthorized:
		c.setState(constants.RunStateIdle, "")
		detail = fmt.Sprintf("%s: unauthorized", res.Stage)
	default:
		c.setState(constants.RunStateFailed, MessageFailed)
		detail = fmt.Sprintf("%s: %v", res.Stage, res.Err)
	}
	state := c.state
	c.mu.Unlock()

	c.journal(ctx, runID, state, detail, len(files), res.Dataset.Len())
	c.deps.Logger.Info("session.run.finished",
		"session_id", c.id,
		"run_id", runID,
		"state", string(state),
		"records", res.Dataset.Len(),
	)
	return c.Snapshot(), nil
}

// Reset is the explicit way back to Idle after a terminal state.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.state == constants.RunStateLoading {
		c.mu.Unlock()
		return ErrBusy
	}
	prev, runID := c.state, c.runID
	c.files = nil
	c.dataset = nil
	c.runID = ""
	c.setState(constants.RunStateIdle, "")
	c.mu.Unlock()

	if runID != "" {
		c.journal(ctx, runID, constants.RunStateIdle, "reset from "+string(prev), 0, 0)
	}
	return nil
}

// Export renders the completed dataset.
func (c *Controller) Export(format export.Format) ([]byte, error) {
	c.mu.Lock()
	ds, state := c.dataset, c.state
	c.mu.Unlock()

	if state != constants.RunStateComplete || ds.Len() == 0 {
		return nil, ErrNothingToExport
	}
	b, err := c.deps.Exporter.Encode(format, ds)
	if errors.Is(err, export.ErrNoRecords) {
		return nil, ErrNothingToExport
	}
	return b, err
}

// State returns the current state.
func (c *Controller) State() constants.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UpdatedAt returns the time of the last transition.
func (c *Controller) UpdatedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}

// setState must be called with mu held.
func (c *Controller) setState(s constants.RunState, message string) {
	c.state = s
	c.message = message
	c.updatedAt = time.Now()
}

func (c *Controller) journal(ctx context.Context, runID string, state constants.RunState, detail string, files, records int) {
	if c.deps.Journal == nil {
		return
	}
	_, err := c.deps.Journal.Record(context.WithoutCancel(ctx), entity.RunEvent{
		SessionID: c.id,
		RunID:     runID,
		State:     string(state),
		Detail:    detail,
		Files:     files,
		Records:   records,
	})
	if err != nil {
		c.deps.Logger.Warn("session.journal.error", "session_id", c.id, "run_id", runID, "error", err)
	}
}
