// Package config defines the configuration structure for taskmaster.
//
// Configuration is organized into logical sections (Engine, Server, Runs) and
// uses creasty/defaults struct tags for default values. The CLI binds its
// flags and TASKMASTER_* environment variables through viper and unmarshals
// them on top of the defaults.
//
// # Configuration Structure
//
//	Configuration
//	├── Engine         - Defaults of every master a run creates
//	├── Server         - HTTP server settings
//	├── Runs           - Run service limits
//	├── DataFolder     - DuckDB ledger location
//	├── LogFormat      - Logging format
//	└── LogLevel       - Logging verbosity
//
// # Engine Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ Workers          │ 0       │ Workers per master, 0 = one per CPU    │
//	│ ChunkSize        │ 4096    │ Task granularity of the workloads      │
//	│ BackoffInitial   │ 50us    │ First wait after a TryAgain poll       │
//	│ BackoffMax       │ 10ms    │ Upper bound of the TryAgain wait       │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Server Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ ServerMode       │ "dev"   │ Server mode: "prod" or "dev"           │
//	│ HTTPPort         │ 8000    │ HTTP server listen port                │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Runs Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ MaxConcurrent    │ 2       │ Computations executing at once         │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// An empty DataFolder keeps the ledger in memory.
//
// # Usage Example
//
//	cfg := config.NewConfigurationWithDefaults()
//	if err := viper.Unmarshal(cfg); err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Debug Logging
//
//	zap.S().Infow("configuration loaded", "config", cfg.DebugMap())
package config
