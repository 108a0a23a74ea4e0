package commands

import (
	"context"
	"fmt"

	"github.com/ccollicutt/mmconsole/pkg/config"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// GlobalOptions holds the flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
}

// LoadConfig loads the --config file, or the defaults when none was given.
func (g *GlobalOptions) LoadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(ctx, g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// Level returns the --log-level flag, falling back to the configured level.
func (g *GlobalOptions) Level(cfg *config.Config) string {
	if g.LogLevel != "" {
		return g.LogLevel
	}
	return cfg.Log.Level
}
