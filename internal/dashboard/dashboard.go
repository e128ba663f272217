// Package dashboard implements the demo flows: accepting uploads, the
// simulated processing run, the result view and the example browser.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/me/neurolens/internal/assets"
	"github.com/me/neurolens/internal/progress"
	"github.com/me/neurolens/internal/store"
	"github.com/me/neurolens/pkg/model"
)

var (
	// ErrRunNotFound is returned for unknown runs and runs of other sessions.
	ErrRunNotFound = errors.New("run not found")
	// ErrRunActive is returned when a run is already being processed.
	ErrRunActive = errors.New("run is already running")
	// ErrUnknownDataset is returned by Browse for labels with no directory.
	ErrUnknownDataset = errors.New("unknown dataset")
)

// Options configures a Dashboard.
type Options struct {
	// Datasets maps example labels to asset store directories.
	Datasets map[string]string
	Delay    time.Duration
}

// Dashboard ties the asset store, the run store and the progress loop together.
type Dashboard struct {
	assets   assets.Store
	runs     store.Store
	loop     *progress.Loop
	datasets map[model.DatasetLabel]string
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Dashboard.
func New(a assets.Store, st store.Store, opts Options, logger *slog.Logger) *Dashboard {
	datasets := make(map[model.DatasetLabel]string, len(opts.Datasets))
	for label, dir := range opts.Datasets {
		datasets[model.DatasetLabel(label)] = dir
	}
	return &Dashboard{
		assets:   a,
		runs:     st,
		loop:     progress.New(opts.Delay),
		datasets: datasets,
		logger:   logger.With("component", "dashboard"),
		now:      time.Now,
	}
}

// Assets returns the asset store the dashboard reads from.
func (d *Dashboard) Assets() assets.Store {
	return d.assets
}

// Datasets returns the configured example labels in lexical order.
func (d *Dashboard) Datasets() []model.DatasetLabel {
	labels := make([]model.DatasetLabel, 0, len(d.datasets))
	for l := range d.datasets {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// Upload validates fileName and records a run in state UPLOADED for the
// session. Nothing but the name is consulted.
func (d *Dashboard) Upload(ctx context.Context, sessionID, fileName string) (*model.Run, error) {
	ext, err := ValidateUpload(fileName)
	if err != nil {
		return nil, err
	}
	run := &model.Run{
		ID:        NewRunID(),
		SessionID: sessionID,
		FileName:  baseName(fileName),
		Extension: ext,
		State:     model.RunStateUploaded,
		CreatedAt: d.now().UTC(),
	}
	if err := d.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	d.logger.Info("file uploaded", "run_id", run.ID, "file", run.FileName)
	return run, nil
}

// Run returns the run id owned by sessionID.
func (d *Dashboard) Run(ctx context.Context, sessionID, id string) (*model.Run, error) {
	run, err := d.runs.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if run == nil || run.SessionID != sessionID {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// LatestRun returns the most recent run of the session, or nil.
func (d *Dashboard) LatestRun(ctx context.Context, sessionID string) (*model.Run, error) {
	if sessionID == "" {
		return nil, nil
	}
	runs, err := d.runs.ListRunsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// Start claims run for processing. The claim is a single conditional
// store write, so of two concurrent callers only one succeeds; the other
// gets ErrRunActive and run is left untouched.
func (d *Dashboard) Start(ctx context.Context, run *model.Run) error {
	started := *run
	if err := started.Start(d.now().UTC()); err != nil {
		return fmt.Errorf("%w: %v", ErrRunActive, err)
	}
	if err := d.runs.StartRun(ctx, run.ID, *started.StartedAt); err != nil {
		if errors.Is(err, store.ErrRunActive) {
			return fmt.Errorf("%w: run %s", ErrRunActive, run.ID)
		}
		return fmt.Errorf("start run: %w", err)
	}
	*run = started
	return nil
}

// Process starts run and drives it to the end, see Start and Drive.
func (d *Dashboard) Process(ctx context.Context, run *model.Run, emit func(progress.Update) error) (*model.Run, error) {
	if err := d.Start(ctx, run); err != nil {
		return run, err
	}
	return d.Drive(ctx, run, emit)
}

// Drive runs the progress loop for a run claimed with Start, passing every
// update to emit. The run ends COMPLETED, or FAILED when ctx is cancelled
// or emit fails; in that case the loop's error is returned alongside the run.
func (d *Dashboard) Drive(ctx context.Context, run *model.Run, emit func(progress.Update) error) (*model.Run, error) {
	logger := d.logger.With("run_id", run.ID)
	logger.Info("processing started", "delay", d.loop.Delay)

	loopErr := d.loop.Run(ctx, func(u progress.Update) error {
		run.Progress = u.Percent
		if err := d.runs.UpdateRun(ctx, run); err != nil {
			return fmt.Errorf("update run: %w", err)
		}
		return emit(u)
	})

	final := model.RunStateCompleted
	if loopErr != nil {
		final = model.RunStateFailed
	}
	if err := d.finish(ctx, run, final); err != nil {
		return run, err
	}

	if loopErr != nil {
		logger.Warn("processing aborted", "progress", run.Progress, "error", loopErr)
		return run, loopErr
	}
	logger.Info("processing complete")
	return run, nil
}

// Fail marks a claimed run FAILED without running the loop, for streams
// that could not be opened after Start.
func (d *Dashboard) Fail(ctx context.Context, run *model.Run) error {
	return d.finish(ctx, run, model.RunStateFailed)
}

func (d *Dashboard) finish(ctx context.Context, run *model.Run, state model.RunState) error {
	if err := run.Finish(state, d.now().UTC()); err != nil {
		return err
	}
	// The request context may already be gone; the final state is still recorded.
	if err := d.runs.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}
