package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/standards-comb/app/config"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	directives  DirectiveSource
	checker     Checker
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	mu          sync.Mutex
	lastRefresh map[string]time.Time
	lastJournal map[string]time.Time
	now         func() time.Time
}

func NewScheduler(directives DirectiveSource, checker Checker, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if workerCount <= 0 {
		workerCount = 1
	}
	if interval <= 0 {
		interval = time.Hour
	}

	return &Scheduler{
		directives:  directives,
		checker:     checker,
		interval:    interval,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
		lastRefresh: make(map[string]time.Time),
		lastJournal: make(map[string]time.Time),
		now:         time.Now,
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

// Stop cancels running tasks and waits for the workers. The queue is left
// open so pending retries cannot send on a closed channel.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueTasks queues a refresh and a journal check for every enabled
// directive whose refresh interval has elapsed, then a cache purge.
func (s *Scheduler) enqueueTasks() {
	directives := s.directives.GetEnabledConfigs()
	if len(directives) == 0 {
		slog.Debug("No enabled directives found")
	} else {
		slog.Debug("Scheduling enabled directives", "count", len(directives))
	}

	for _, directive := range directives {
		if s.due(s.lastRefresh, directive) {
			if err := s.EnqueueTask(NewRefreshOfficialTask(directive, s.checker)); err != nil {
				slog.Warn("Failed to enqueue RefreshOfficialTask", "directive", directive.Code, "error", err)
			}
		} else {
			slog.Debug("Directive not due for refresh yet", "directive", directive.Code)
		}

		if directive.JournalFeedURL != "" && s.due(s.lastJournal, directive) {
			if err := s.EnqueueTask(NewCheckJournalTask(directive, s.checker)); err != nil {
				slog.Warn("Failed to enqueue CheckJournalTask", "directive", directive.Code, "error", err)
			}
		}
	}

	if err := s.EnqueueTask(NewPurgeCacheTask(s.checker)); err != nil {
		slog.Warn("Failed to enqueue PurgeCacheTask", "error", err)
	}
}

// due reports whether directive's refresh interval has elapsed since the
// last time it was scheduled in last, and records now if so.
func (s *Scheduler) due(last map[string]time.Time, directive *config.Directive) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if at, ok := last[directive.Code]; ok && now.Sub(at) < directive.Settings.GetRefreshInterval() {
		return false
	}
	last[directive.Code] = now
	return true
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	meta := task.Meta()
	meta.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, meta.Timeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(meta.Type), "id", meta.ID, "retry_count", meta.Retries, "error", err)

	if !meta.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(meta.Type), "id", meta.ID, "directive", meta.Directive, "max_retries", meta.MaxRetries, "last_error", err)
		return
	}

	retryDelay := meta.Fail()
	slog.Warn("Task retry scheduled", "type", string(meta.Type), "directive", meta.Directive, "retry_count", meta.Retries, "max_retries", meta.MaxRetries, "delay", retryDelay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(meta.Type), "id", meta.ID)
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(meta.Type), "id", meta.ID, "retry_count", meta.Retries, "error", retryErr)
			}
		}
	}()
}
