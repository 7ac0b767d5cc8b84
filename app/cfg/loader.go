package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	ConfigDir string `long:"config-dir" env:"CONFIG_DIR" default:"./config" description:"Directory containing patterns.yml and directives/"`
	DBPath    string `long:"db-path" env:"DB_PATH" default:"./standards-comb.db" description:"SQLite database for the cache and comparison history (:memory: keeps nothing)"`
	CacheTTL  int    `long:"cache-ttl" env:"CACHE_TTL" default:"86400" description:"Cache lifetime in seconds (0 disables caching)"`

	// Server
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for refresh tasks"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Scheduler interval in seconds"`

	// Fetching
	UserAgent string  `long:"user-agent" env:"USER_AGENT" default:"Standards Comb/1.0" description:"User agent string for HTTP requests"`
	Timeout   int     `long:"timeout" env:"TIMEOUT" default:"30" description:"HTTP request timeout in seconds"`
	RateLimit float64 `long:"rate-limit" env:"RATE_LIMIT" default:"2" description:"Maximum upstream requests per second (0 disables the limit)"`

	// Output
	Format   string `short:"f" long:"format" env:"FORMAT" default:"table" choice:"table" choice:"markdown" choice:"csv" choice:"json" description:"Report format"`
	Articles bool   `long:"articles" env:"ARTICLES" description:"Read the linked page of each journal notice"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Brussels)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses args and the environment. The returned arguments are what
// remains after the options: the command and its operands. A nil Cfg with
// a nil error means help was shown.
func Load(args []string) (*Cfg, []string, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	parser.Usage = "[OPTIONS] <official|search|extract|compare|journal|history|serve> [ARGS]"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil, nil
			}
		}
		return nil, nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ConfigDir:         raw.ConfigDir,
		DBPath:            raw.DBPath,
		CacheTTL:          raw.CacheTTL,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		UserAgent:         raw.UserAgent,
		Timeout:           raw.Timeout,
		RateLimit:         raw.RateLimit,
		Format:            raw.Format,
		Articles:          raw.Articles,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, rest, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// GetCacheTTL returns the cache lifetime as time.Duration
func (c *Cfg) GetCacheTTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// GetTimeout returns the request timeout as time.Duration
func (c *Cfg) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetSchedulerInterval returns the scheduler interval as time.Duration
func (c *Cfg) GetSchedulerInterval() time.Duration {
	return time.Duration(c.SchedulerInterval) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
