package cli

import (
	"github.com/rs/zerolog"

	"github.com/zoneai/zoneai/internal/config"
	"github.com/zoneai/zoneai/pkg/logger"
)

// CLIContext carries the configuration and logger resolved by the root
// command's PersistentPreRunE down to every subcommand.
type CLIContext struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zerolog.Logger
	Verbose    bool
	Quiet      bool
}

// NewCLIContext builds a CLIContext.
func NewCLIContext(cfg *config.Config, configPath string, log *zerolog.Logger, verbose, quiet bool) *CLIContext {
	return &CLIContext{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     log,
		Verbose:    verbose,
		Quiet:      quiet,
	}
}

// Log returns the context's logger, falling back to the package-global
// logger if none was set.
func (c *CLIContext) Log() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.Get()
}
