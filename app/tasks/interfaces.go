package tasks

import (
	"context"

	"github.com/lysyi3m/standards-comb/app/config"
	"github.com/lysyi3m/standards-comb/app/journal"
	"github.com/lysyi3m/standards-comb/app/standards"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background refreshes.
// Example usage:
//
//	scheduler := NewScheduler(directiveCache, checker, interval, workerCount)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRefreshOfficialTask(directive, checker))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Checker is the part of checker.Checker the tasks drive.
type Checker interface {
	RefreshOfficial(ctx context.Context, code string) ([]standards.OfficialStandard, error)
	JournalNotices(ctx context.Context, code string) ([]journal.Notice, error)
	PurgeCache() (int, error)
}

type DirectiveSource interface {
	GetEnabledConfigs() map[string]*config.Directive
}
