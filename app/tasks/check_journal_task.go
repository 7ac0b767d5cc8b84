package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/standards-comb/app/config"
)

// CheckJournalTask reads the journal feed of a directive and reports
// notices published on dates not yet recorded as amendments.
type CheckJournalTask struct {
	Task
	DirectiveConfig *config.Directive
	checker         Checker
}

func NewCheckJournalTask(directive *config.Directive, checker Checker) *CheckJournalTask {
	return &CheckJournalTask{
		Task:            NewTask(TaskTypeCheckJournal, directive),
		DirectiveConfig: directive,
		checker:         checker,
	}
}

func (t *CheckJournalTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.DirectiveConfig.JournalFeedURL == "" {
		slog.Debug("No journal feed configured, skipping", "directive", t.Directive)
		return nil
	}

	notices, err := t.checker.JournalNotices(ctx, t.Directive)
	if err != nil {
		return fmt.Errorf("failed to check journal: %w", err)
	}

	unrecorded := 0
	for _, notice := range notices {
		if notice.Known {
			continue
		}
		unrecorded++
		slog.Info("Unrecorded journal notice",
			"directive", t.Directive,
			"title", notice.Title,
			"link", notice.Link,
			"published_at", notice.PublishedAt)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"directive", t.Directive,
		"notices", len(notices),
		"unrecorded", unrecorded,
		"duration", t.Duration())

	return nil
}
