package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
)

type Configuration struct {
	Engine     Engine `mapstructure:"engine"`
	Server     Server `mapstructure:"server"`
	Runs       Runs   `mapstructure:"runs"`
	DataFolder string `mapstructure:"data-folder" default:""`
	LogFormat  string `mapstructure:"log-format" default:"console"`
	LogLevel   string `mapstructure:"log-level" default:"info"`
}

// Engine holds the defaults of every master a run creates.
type Engine struct {
	// Workers is the worker count; 0 means one per CPU.
	Workers        int           `mapstructure:"workers" default:"0"`
	ChunkSize      int           `mapstructure:"chunk-size" default:"4096"`
	BackoffInitial time.Duration `mapstructure:"backoff-initial" default:"50us"`
	BackoffMax     time.Duration `mapstructure:"backoff-max" default:"10ms"`
	// MaxWorkers caps the workers a single run may ask for.
	MaxWorkers int `mapstructure:"max-workers" default:"256"`
	// MaxFieldCells caps rows*cols of a median field, 16Mi cells is 128MiB per copy.
	MaxFieldCells int `mapstructure:"max-field-cells" default:"16777216"`
}

type Server struct {
	ServerMode string `mapstructure:"mode" default:"dev"`
	HTTPPort   int    `mapstructure:"http-port" default:"8000"`
}

type Runs struct {
	// MaxConcurrent caps the computations executing at the same time.
	MaxConcurrent int `mapstructure:"max-concurrent" default:"2"`
}

// NewConfigurationWithDefaults returns a configuration with every default applied.
func NewConfigurationWithDefaults() *Configuration {
	cfg := &Configuration{}
	if err := defaults.Set(cfg); err != nil {
		// only reachable with a malformed default tag
		panic(err)
	}
	return cfg
}

// Validate rejects values the services cannot work with.
func (c *Configuration) Validate() error {
	switch {
	case c.Engine.Workers < 0:
		return fmt.Errorf("engine workers must not be negative: %d", c.Engine.Workers)
	case c.Engine.MaxWorkers <= 0:
		return fmt.Errorf("engine max workers must be positive: %d", c.Engine.MaxWorkers)
	case c.Engine.Workers > c.Engine.MaxWorkers:
		return fmt.Errorf("engine workers %d exceed the maximum of %d", c.Engine.Workers, c.Engine.MaxWorkers)
	case c.Engine.MaxFieldCells <= 0:
		return fmt.Errorf("engine max field cells must be positive: %d", c.Engine.MaxFieldCells)
	case c.Engine.ChunkSize <= 0:
		return fmt.Errorf("engine chunk size must be positive: %d", c.Engine.ChunkSize)
	case c.Engine.BackoffInitial <= 0 || c.Engine.BackoffMax < c.Engine.BackoffInitial:
		return fmt.Errorf("invalid backoff window [%s, %s]", c.Engine.BackoffInitial, c.Engine.BackoffMax)
	case c.Server.ServerMode != "dev" && c.Server.ServerMode != "prod":
		return fmt.Errorf("server mode must be dev or prod: %q", c.Server.ServerMode)
	case c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535:
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	case c.Runs.MaxConcurrent <= 0:
		return fmt.Errorf("max concurrent runs must be positive: %d", c.Runs.MaxConcurrent)
	case c.LogFormat != "console" && c.LogFormat != "json":
		return fmt.Errorf("log format must be console or json: %q", c.LogFormat)
	}
	return nil
}

// DebugMap flattens the configuration for structured logging.
func (c *Configuration) DebugMap() map[string]any {
	return map[string]any{
		"engine.workers":         c.Engine.Workers,
		"engine.chunk-size":      c.Engine.ChunkSize,
		"engine.backoff-initial": c.Engine.BackoffInitial.String(),
		"engine.backoff-max":     c.Engine.BackoffMax.String(),
		"engine.max-workers":     c.Engine.MaxWorkers,
		"engine.max-field-cells": c.Engine.MaxFieldCells,
		"server.mode":            c.Server.ServerMode,
		"server.http-port":       c.Server.HTTPPort,
		"runs.max-concurrent":    c.Runs.MaxConcurrent,
		"data-folder":            c.DataFolder,
		"log-format":             c.LogFormat,
		"log-level":              c.LogLevel,
	}
}
