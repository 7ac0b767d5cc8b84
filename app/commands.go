package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lysyi3m/standards-comb/app/api"
	"github.com/lysyi3m/standards-comb/app/tasks"
)

const usage = `Usage: standards-comb [OPTIONS] <command> [ARGS]

Commands:
  directives                 list configured directives
  official <code>            show the official harmonised standards of a directive
  search <query> [code]      search official lists by number or title
  extract <file>             extract the standards listed in a certificate
  compare <file> [code]      compare a certificate with one or all directives
  journal <code>             show Official Journal notices for a directive
  history [code]             list recorded comparisons
  serve                      run the HTTP API and background refresh

Run with --help for options.`

var errUsage = errors.New("invalid arguments")

func (a *application) Run(ctx context.Context, args []string) error {
	command, operands := args[0], args[1:]

	switch command {
	case "directives":
		return a.writer.Directives(a.checker.Directives())

	case "official":
		if len(operands) != 1 {
			return usageError("official <code>")
		}
		list, err := a.checker.OfficialStandards(ctx, operands[0])
		if err != nil {
			return err
		}
		return a.writer.Official(operands[0], list)

	case "search":
		if len(operands) < 1 || len(operands) > 2 {
			return usageError("search <query> [code]")
		}
		list, err := a.checker.Search(ctx, operands[0], optional(operands, 1))
		if err != nil {
			return err
		}
		return a.writer.Official(optional(operands, 1), list)

	case "extract":
		if len(operands) != 1 {
			return usageError("extract <file>")
		}
		scope, err := a.checker.ScopeFromFile(operands[0])
		if err != nil {
			return err
		}
		return a.writer.Scope(scope)

	case "compare":
		if len(operands) < 1 || len(operands) > 2 {
			return usageError("compare <file> [code]")
		}
		return a.compare(ctx, operands[0], optional(operands, 1))

	case "journal":
		if len(operands) != 1 {
			return usageError("journal <code>")
		}
		notices, err := a.checker.JournalNotices(ctx, operands[0])
		if err != nil {
			return err
		}
		if a.cfg.Articles {
			notices = a.checker.ReadNotices(ctx, notices)
		}
		return a.writer.Notices(notices)

	case "history":
		if len(operands) > 1 {
			return usageError("history [code]")
		}
		list, err := a.checker.History(optional(operands, 0), 0)
		if err != nil {
			return err
		}
		return a.writer.History(list)

	case "serve":
		return a.serve(ctx)

	default:
		return fmt.Errorf("%w: unknown command %q\n\n%s", errUsage, command, usage)
	}
}

func (a *application) compare(ctx context.Context, path, code string) error {
	scope, err := a.checker.ScopeFromFile(path)
	if err != nil {
		return err
	}

	if code != "" {
		outcome, err := a.checker.Compare(ctx, code, scope)
		if err != nil {
			return err
		}
		return a.writer.Comparison(outcome.Directive, outcome.Result)
	}

	results, err := a.checker.CompareAll(ctx, scope)
	if err != nil {
		return err
	}
	return a.writer.Batch(results)
}

func (a *application) serve(ctx context.Context) error {
	if err := a.directives.Watch(ctx); err != nil {
		slog.Warn("Directive files will not be reloaded", "error", err)
	}

	slog.Info("Starting background scheduler", "workers", a.cfg.WorkerCount, "interval", a.cfg.GetSchedulerInterval())
	scheduler := tasks.NewScheduler(a.directives, a.checker, a.cfg.GetSchedulerInterval(), a.cfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(a.checker, a.directives, scheduler)
	httpServer := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      api.NewServer(handler, a.cfg.APIAccessKey, a.metrics),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", a.cfg.Port, "version", a.cfg.Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	slog.Info("HTTP server stopped")
	return nil
}

func usageError(form string) error {
	return fmt.Errorf("%w: usage: standards-comb %s", errUsage, form)
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
