package services

import (
	"context"
	"time"

	"regatta-resume/models"
	"regatta-resume/storage"
	"regatta-resume/utils"
)

// RunContext is the handle a pipeline run carries. It owns the durable run
// record; cancellation is discovered by polling that record.
type RunContext struct {
	store  storage.RunStore
	run    *models.Run
	logger *utils.Logger
	now    func() time.Time
}

// StartRun creates a run record in the running state.
func StartRun(ctx context.Context, store storage.RunStore, logger *utils.Logger) (*RunContext, error) {
	run, err := store.CreateRun(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("[run] Started run %s", run.ID)
	return &RunContext{store: store, run: run, logger: logger, now: time.Now}, nil
}

// ID is the run id.
func (rc *RunContext) ID() string { return rc.run.ID }

// Run returns a copy of the run record as last written.
func (rc *RunContext) Run() models.Run { return *rc.run }

// CancelRequested reads the durable cancel flag. A read failure is logged
// and treated as no request. The read ignores cancellation of ctx.
func (rc *RunContext) CancelRequested(ctx context.Context) bool {
	run, err := rc.store.GetRun(context.WithoutCancel(ctx), rc.run.ID)
	if err != nil {
		rc.logger.Warn("[run] Could not poll cancel flag: %v", err)
		return false
	}
	return run.CancelRequested
}

// Complete marks the run completed with stats.
func (rc *RunContext) Complete(ctx context.Context, stats models.RunStats) error {
	return rc.finish(ctx, models.RunCompleted, stats, "")
}

// Cancel marks the run cancelled, keeping the partial stats.
func (rc *RunContext) Cancel(ctx context.Context, stats models.RunStats) error {
	return rc.finish(ctx, models.RunCancelled, stats, "")
}

// Fail marks the run failed with the error message.
func (rc *RunContext) Fail(ctx context.Context, stats models.RunStats, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return rc.finish(ctx, models.RunFailed, stats, msg)
}

// finish records the terminal state even after ctx is cancelled, so an
// interrupted run never stays running.
func (rc *RunContext) finish(ctx context.Context, status models.RunStatus, stats models.RunStats, msg string) error {
	ctx = context.WithoutCancel(ctx)
	rc.run.Status = status
	rc.run.Stats = stats
	rc.run.ErrorMessage = msg
	rc.run.CompletedAt = rc.now()
	if err := rc.store.UpdateRun(ctx, rc.run); err != nil {
		rc.logger.Error("[run] Could not record %s for run %s: %v", status, rc.run.ID, err)
		return err
	}
	rc.logger.Info("[run] Run %s %s: %d regattas, %d sailors, %d results",
		rc.run.ID, status, stats.RegattasScraped, stats.SailorsAdded, stats.ResultsAdded)
	return nil
}
