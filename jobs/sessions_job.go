package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/coursepilot/coursepilot/internal/jobs"
)

// SessionPurger is the part of auth.Service the job needs.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// PurgeSessionsJob handles TaskPurgeSessions.
type PurgeSessionsJob struct {
	Purger  SessionPurger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPurgeSessionsJob initialises the handler.
func NewPurgeSessionsJob(purger SessionPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *PurgeSessionsJob {
	return &PurgeSessionsJob{Purger: purger, Logger: logger, Metrics: metrics}
}

// Handle deletes expired session audit rows.
func (j *PurgeSessionsJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Purger == nil {
		return errors.New("purge sessions: handler not configured")
	}
	tracker := j.Metrics.Track(TaskPurgeSessions)
	defer func() { err = tracker.End(err) }()

	n, err := j.Purger.PurgeExpiredSessions(ctx)
	if err != nil {
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("expired sessions purged", slog.Int64("deleted", n))
	}
	return nil
}
