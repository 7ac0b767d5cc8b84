package cfg

type Cfg struct {
	// Storage
	ConfigDir string
	DBPath    string
	CacheTTL  int

	// Server
	Port              string
	APIAccessKey      string
	WorkerCount       int
	SchedulerInterval int

	// Fetching
	UserAgent string
	Timeout   int
	RateLimit float64

	// Output
	Format   string
	Articles bool

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
