package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/standards-comb/app/config"
)

// RefreshOfficialTask refetches a directive's official list and replaces the
// cached copy, fresh or not.
type RefreshOfficialTask struct {
	Task
	DirectiveConfig *config.Directive
	checker         Checker
}

func NewRefreshOfficialTask(directive *config.Directive, checker Checker) *RefreshOfficialTask {
	return &RefreshOfficialTask{
		Task:            NewTask(TaskTypeRefreshOfficial, directive),
		DirectiveConfig: directive,
		checker:         checker,
	}
}

func (t *RefreshOfficialTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.DirectiveConfig.Settings.Enabled {
		slog.Debug("Directive disabled, skipping", "directive", t.Directive)
		return nil
	}

	list, err := t.checker.RefreshOfficial(ctx, t.Directive)
	if err != nil {
		return fmt.Errorf("failed to refresh official list: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"directive", t.Directive,
		"standards", len(list),
		"duration", t.Duration())

	return nil
}
