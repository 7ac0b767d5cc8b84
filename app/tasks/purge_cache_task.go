package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type PurgeCacheTask struct {
	Task
	checker Checker
}

func NewPurgeCacheTask(checker Checker) *PurgeCacheTask {
	return &PurgeCacheTask{
		Task:    NewTask(TaskTypePurgeCache, nil),
		checker: checker,
	}
}

func (t *PurgeCacheTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	removed, err := t.checker.PurgeCache()
	if err != nil {
		return fmt.Errorf("purge task: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"removed", removed,
		"duration", t.Duration())

	return nil
}
