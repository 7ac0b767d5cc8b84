package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/standards-comb/app/config"
)

type TaskType string

const (
	TaskTypeRefreshOfficial TaskType = "refresh_official"
	TaskTypeCheckJournal    TaskType = "check_journal"
	TaskTypePurgeCache      TaskType = "purge_cache"
)

const (
	// DefaultMaxRetries applies to tasks not tied to a directive.
	DefaultMaxRetries = 3

	maxDirectiveRetries = 5
	maxRetryDelay       = 30 * time.Second
	defaultTaskTimeout  = 5 * time.Minute
)

// TaskInterface is a unit of background work. The scheduler keeps its
// bookkeeping in the embedded Task returned by Meta.
type TaskInterface interface {
	Execute(ctx context.Context) error
	Meta() *Task
}

type Task struct {
	ID        string
	Type      TaskType
	Directive string // empty for tasks not tied to a directive
	Retries   int
	// MaxRetries and Timeout follow the directive's settings.
	MaxRetries int
	Timeout    time.Duration
	StartedAt  time.Time
}

// NewTask prepares the bookkeeping for work on directive, or for global
// work when directive is nil.
func NewTask(taskType TaskType, directive *config.Directive) Task {
	task := Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		MaxRetries: DefaultMaxRetries,
		Timeout:    defaultTaskTimeout,
	}
	if directive != nil {
		task.Directive = directive.Code
		// One attempt fetches the list page and its linked documents.
		task.Timeout = 2 * directive.Settings.GetTimeout()
		task.MaxRetries = retryBudget(directive.Settings.GetRefreshInterval())
	}
	return task
}

func (t *Task) Meta() *Task {
	return t
}

func (t *Task) Start() {
	t.StartedAt = time.Now()
}

func (t *Task) Duration() time.Duration {
	if t.StartedAt.IsZero() {
		return 0
	}
	return time.Since(t.StartedAt)
}

func (t *Task) CanRetry() bool {
	return t.Retries < t.MaxRetries
}

// Fail records a failed attempt and returns how long to wait before the
// next one.
func (t *Task) Fail() time.Duration {
	t.Retries++
	return RetryDelay(t.Retries)
}

// RetryDelay doubles from one second for each retry, up to 30 seconds.
func RetryDelay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	if retry > 6 {
		return maxRetryDelay
	}
	return min(time.Duration(1<<uint(retry-1))*time.Second, maxRetryDelay)
}

// retryBudget counts the retries whose delays fit into half of interval, so
// a failing directive stops retrying well before its next scheduled run.
// At least one retry is always allowed.
func retryBudget(interval time.Duration) int {
	var waited time.Duration
	retries := 0
	for retries < maxDirectiveRetries {
		waited += RetryDelay(retries + 1)
		if waited > interval/2 {
			break
		}
		retries++
	}
	return max(retries, 1)
}
