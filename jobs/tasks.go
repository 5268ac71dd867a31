package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGeneratePermissions upserts the CRUD keys of a resource.
	TaskGeneratePermissions = "permissions:generate"
	// TaskPurgeSessions deletes expired session audit rows.
	TaskPurgeSessions = "sessions:purge"

	// PurgeSessionsCron runs the purge daily at 03:00 UTC.
	PurgeSessionsCron = "0 3 * * *"
)

// GeneratePermissionsPayload names the resource whose CRUD keys are generated.
type GeneratePermissionsPayload struct {
	Resource          string `json:"resource"`
	DescriptionPrefix string `json:"descriptionPrefix,omitempty"`
}

// NewGeneratePermissionsTask constructs an Asynq task.
func NewGeneratePermissionsTask(resource, descriptionPrefix string) (*asynq.Task, error) {
	data, err := json.Marshal(GeneratePermissionsPayload{Resource: resource, DescriptionPrefix: descriptionPrefix})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGeneratePermissions, data, asynq.MaxRetry(3)), nil
}

// NewPurgeSessionsTask constructs an Asynq task. It carries no payload.
func NewPurgeSessionsTask() *asynq.Task {
	return asynq.NewTask(TaskPurgeSessions, nil, asynq.MaxRetry(3))
}
