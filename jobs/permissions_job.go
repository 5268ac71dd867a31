package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/coursepilot/coursepilot/internal/jobs"
	"github.com/coursepilot/coursepilot/internal/permissions"
	"github.com/coursepilot/coursepilot/internal/shared"
)

// PermissionGenerator is the part of permissions.Service the job needs.
type PermissionGenerator interface {
	GenerateCRUD(ctx context.Context, resource, descriptionPrefix string) (permissions.GenerateResult, error)
}

// GeneratePermissionsJob handles TaskGeneratePermissions.
type GeneratePermissionsJob struct {
	Generator PermissionGenerator
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewGeneratePermissionsJob initialises the handler.
func NewGeneratePermissionsJob(generator PermissionGenerator, logger *slog.Logger, metrics *jobmetrics.Metrics) *GeneratePermissionsJob {
	return &GeneratePermissionsJob{Generator: generator, Logger: logger, Metrics: metrics}
}

// Handle generates the keys. Malformed payloads and invalid resources are not retried.
func (j *GeneratePermissionsJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Generator == nil {
		return errors.New("generate permissions: handler not configured")
	}
	tracker := j.Metrics.Track(TaskGeneratePermissions)
	defer func() { err = tracker.End(err) }()

	var payload GeneratePermissionsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("generate permissions: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	result, err := j.Generator.GenerateCRUD(ctx, payload.Resource, payload.DescriptionPrefix)
	if err != nil {
		if errors.Is(err, shared.ErrValidation) {
			return fmt.Errorf("generate permissions: %v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	j.logger().Info("permissions generated",
		slog.String("resource", result.Resource),
		slog.Int("created", result.Created),
		slog.Any("keys", result.Keys))
	return nil
}

func (j *GeneratePermissionsJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
