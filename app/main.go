package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lysyi3m/standards-comb/app/cache"
	"github.com/lysyi3m/standards-comb/app/cfg"
	"github.com/lysyi3m/standards-comb/app/checker"
	"github.com/lysyi3m/standards-comb/app/config"
	"github.com/lysyi3m/standards-comb/app/database"
	"github.com/lysyi3m/standards-comb/app/document"
	"github.com/lysyi3m/standards-comb/app/metrics"
	"github.com/lysyi3m/standards-comb/app/report"
)

func main() {
	os.Exit(run())
}

func run() int {
	appConfig, args, err := cfg.Load(os.Args[1:])
	if err != nil {
		return 2
	}
	if appConfig == nil {
		// Help was shown
		return 0
	}

	setupLogging(appConfig.Debug)

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}

	a, err := newApplication(appConfig)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx, args); err != nil {
		slog.Error("Command failed", "command", args[0], "error", err)
		return 1
	}
	return 0
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// application holds the wired components shared by every command.
type application struct {
	cfg        *cfg.Cfg
	db         *database.DB
	directives *config.DirectiveCache
	checker    *checker.Checker
	metrics    *metrics.Metrics
	writer     *report.Writer
}

func newApplication(appConfig *cfg.Cfg) (*application, error) {
	format, err := report.ParseFormat(appConfig.Format)
	if err != nil {
		return nil, err
	}

	patterns, err := config.LoadPatterns(appConfig.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}

	directives := config.NewDirectiveCache(appConfig.ConfigDir)
	if err := directives.Run(); err != nil {
		return nil, fmt.Errorf("failed to load directives: %w", err)
	}
	slog.Debug("Configuration loaded", "directives", directives.GetConfigCount(), "families", len(patterns.Families))

	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	cacheRepo := database.NewCacheRepository(db)
	history := database.NewComparisonRepository(db)

	m := metrics.New()
	m.Count("standards_comb_cache_entries", "Number of stored cache entries", cacheRepo.GetEntryCount)
	m.Count("standards_comb_comparisons", "Number of recorded comparisons", history.GetComparisonCount)

	fetcher := document.NewFetcher(nil, appConfig.UserAgent, appConfig.GetTimeout()).
		WithRateLimit(appConfig.RateLimit, 1)

	return &application{
		cfg:        appConfig,
		db:         db,
		directives: directives,
		checker:    checker.New(patterns, directives, m.Fetcher(fetcher), cache.New(cacheRepo), history, appConfig.GetCacheTTL()),
		metrics:    m,
		writer:     report.NewWriter(os.Stdout, format),
	}, nil
}

func (a *application) Close() {
	if err := a.db.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}
