// Package cli implements the operator subcommands of the coursepilot binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"

	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/jobs"
)

// Enqueuer is the part of jobs.Client the CLI drives.
type Enqueuer interface {
	EnqueueGeneratePermissions(ctx context.Context, resource, descriptionPrefix string) (*asynq.TaskInfo, error)
	EnqueuePurgeSessions(ctx context.Context) (*asynq.TaskInfo, error)
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    Enqueuer
	inspector jobs.QueueInspector
	closers   []io.Closer
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client := jobs.NewClient(opts)
	inspector := asynq.NewInspector(opts)
	return &JobsCLI{client: client, inspector: inspector, closers: []io.Closer{client, inspector}}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	for _, closer := range c.closers {
		if closeErr := closer.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Generate enqueues a permissions:generate job after checking the resource name locally.
func (c *JobsCLI) Generate(ctx context.Context, resource, descriptionPrefix string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	normalized, err := rbac.ValidateResource(resource)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueGeneratePermissions(ctx, normalized, descriptionPrefix)
}

// PurgeSessions enqueues a one-off sessions:purge job.
func (c *JobsCLI) PurgeSessions(ctx context.Context) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	return c.client.EnqueuePurgeSessions(ctx)
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		if errors.Is(err, asynq.ErrQueueNotFound) {
			return stats, nil
		}
		return QueueStats{}, err
	}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

const usage = `usage:
  coursepilot jobs generate <resource> [description-prefix]
  coursepilot jobs purge-sessions
  coursepilot jobs stats
`

// Run executes args against a CLI bound to redisAddr and returns the process exit code.
func Run(ctx context.Context, redisAddr string, args []string, stdout, stderr io.Writer) int {
	c := NewJobsCLI(redisAddr)
	defer func() { _ = c.Close() }()
	return c.Execute(ctx, args, stdout, stderr)
}

// Execute dispatches one subcommand. Exit code 2 signals a usage error.
func (c *JobsCLI) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 || args[0] != "jobs" {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var (
		info *asynq.TaskInfo
		err  error
	)
	switch args[1] {
	case "generate":
		if len(args) < 3 || len(args) > 4 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		prefix := ""
		if len(args) == 4 {
			prefix = args[3]
		}
		info, err = c.Generate(ctx, args[2], prefix)
	case "purge-sessions":
		info, err = c.PurgeSessions(ctx)
	case "stats":
		stats, statsErr := c.InspectQueue()
		if statsErr != nil {
			fmt.Fprintf(stderr, "jobs stats: %v\n", statsErr)
			return 1
		}
		fmt.Fprintf(stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return 0
	default:
		fmt.Fprint(stderr, usage)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "jobs %s: %v\n", args[1], err)
		return 1
	}
	fmt.Fprintf(stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return 0
}
