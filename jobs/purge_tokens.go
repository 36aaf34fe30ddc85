package jobs

import (
	"context"
	"errors"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/hrdesk/hrdesk/internal/jobs"
)

// TokenPurger deletes expired auth tokens and reports how many were removed.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// PurgeTokensJob handles TaskPurgeExpiredTokens.
type PurgeTokensJob struct {
	Purger  TokenPurger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPurgeTokensJob wires dependencies for the purge handler.
func NewPurgeTokensJob(purger TokenPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *PurgeTokensJob {
	return &PurgeTokensJob{Purger: purger, Logger: logger, Metrics: metrics}
}

// Handle processes token purge tasks.
func (j *PurgeTokensJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Purger == nil {
		return errors.New("purge tokens: handler not configured")
	}
	var payload PurgeTokensPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Metrics.Track(TaskPurgeExpiredTokens)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger()
	if payload.RequestedBy != "" {
		logger = logger.With(slog.String("requested_by", payload.RequestedBy))
	}
	removed, err := j.Purger.PurgeExpiredTokens(ctx)
	if err != nil {
		logger.Error("purge expired tokens", slog.Any("error", err))
		return err
	}
	j.Metrics.AddPurged(removed)
	logger.Info("purged expired tokens", slog.Int64("removed", removed))
	return nil
}

func (j *PurgeTokensJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
