package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kubev2v/taskmaster/internal/config"
)

const envPrefix = "TASKMASTER"

// app carries what every subcommand needs once the root command ran.
type app struct {
	v   *viper.Viper
	cfg *config.Configuration
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "taskmaster",
		Short:         "Run parallel computations on a pull-based worker pool",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = zap.L().Sync()
		},
	}

	registerFlags(root.PersistentFlags())
	if err := a.v.BindPFlags(root.PersistentFlags()); err != nil {
		panic(err)
	}

	root.AddCommand(
		newSumCmd(a),
		newMedianCmd(a),
		newServeCmd(a),
		newRunsCmd(a),
	)
	return root
}

// registerFlags declares the configuration flags. Flag names are the viper
// keys of config.Configuration.
func registerFlags(fs *pflag.FlagSet) {
	d := config.NewConfigurationWithDefaults()

	fs.Int("engine.workers", d.Engine.Workers, "workers per computation, 0 for one per CPU")
	fs.Int("engine.chunk-size", d.Engine.ChunkSize, "default task granularity")
	fs.Duration("engine.backoff-initial", d.Engine.BackoffInitial, "first wait after a try-again poll")
	fs.Duration("engine.backoff-max", d.Engine.BackoffMax, "longest wait after a try-again poll")
	fs.Int("engine.max-workers", d.Engine.MaxWorkers, "most workers a run may ask for")
	fs.Int("engine.max-field-cells", d.Engine.MaxFieldCells, "most cells of a median field")
	fs.String("server.mode", d.Server.ServerMode, "server mode: dev or prod")
	fs.Int("server.http-port", d.Server.HTTPPort, "HTTP listen port")
	fs.Int("runs.max-concurrent", d.Runs.MaxConcurrent, "computations executing at once")
	fs.String("data-folder", d.DataFolder, "folder of the run ledger, in memory when empty")
	fs.String("log-format", d.LogFormat, "log format: console or json")
	fs.String("log-level", d.LogLevel, "log level")
}

func (a *app) load() error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	cfg := config.NewConfigurationWithDefaults()
	if err := a.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)

	zap.S().Named("config").Debugw("configuration loaded", "config", cfg.DebugMap())
	a.cfg = cfg
	return nil
}

func newLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var zcfg zap.Config
	switch format {
	case "json":
		zcfg = zap.NewProductionConfig()
	default:
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}

	return zcfg.Build()
}
