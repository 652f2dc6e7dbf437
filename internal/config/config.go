// Package config defines portinsight configuration and its loading hooks.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// DBPath is the SQLite file holding summaries and insights.
	// ":memory:" keeps everything in process.
	DBPath string `koanf:"db_path"`

	// EventsPath is the JSON file the event source reads.
	EventsPath string `koanf:"events_path"`

	// AnalysisPeriodDays is the trailing window ending at the processing date.
	AnalysisPeriodDays int `koanf:"analysis_period_days"`

	// MaxDurationHours drops implausibly long visits; 0 disables the cap.
	MaxDurationHours float64 `koanf:"max_duration_hours"`

	// GrowthMode is "joint" or "vessels".
	GrowthMode string `koanf:"growth_mode"`

	// Composite score weights; they must sum to 1.
	WeightTradeVolume     float64 `koanf:"weight_trade_volume"`
	WeightEfficiency      float64 `koanf:"weight_efficiency"`
	WeightGrowthPotential float64 `koanf:"weight_growth_potential"`

	// DedupeSize bounds the event id cache per run; 0 is unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// BackfillWorkers caps concurrent processing dates during a backfill.
	BackfillWorkers int `koanf:"backfill_workers"`

	// Schedule is the cron spec for the daily run in serve mode.
	Schedule string `koanf:"schedule"`

	// MetricsAddr is where serve mode exposes /metrics; empty disables it.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		DBPath:                "data/portinsight.db",
		EventsPath:            "data/fishing-events.json",
		AnalysisPeriodDays:    30,
		MaxDurationHours:      8760,
		GrowthMode:            "joint",
		WeightTradeVolume:     0.4,
		WeightEfficiency:      0.3,
		WeightGrowthPotential: 0.3,
		DedupeSize:            0,
		BackfillWorkers:       4,
		Schedule:              "15 2 * * *",
		MetricsAddr:           ":9464",
	}
}
