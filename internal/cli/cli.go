// Package cli implements the muleflow command-line interface.
//
// # Commands
//
//   - generate: draw the flows of a Mule project or configuration file
//   - render: redraw a diagram previously exported as JSON
//   - components: list the component catalog
//   - cache: inspect or clear the artifact cache
//   - completion: shell completion scripts
//
// # Configuration
//
// Settings are taken from command flags, then MULEFLOW_* environment
// variables (a .env file in the working directory is loaded first), then a
// muleflow.toml project file, then built-in defaults.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// created once and passed explicitly to the pipeline.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/muleflow/pkg/buildinfo"
	"github.com/matzehuels/muleflow/pkg/cache"
)

const appName = "muleflow"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "muleflow draws Mule integration flows as diagrams",
		Long:          `muleflow reads the flow configuration of a Mule 3 or Mule 4 project and renders its flows, sub-flows and flow references as a diagram.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.componentsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCache opens the artifact cache selected by cfg. A Redis cache that
// cannot be reached falls back to the file cache.
func (c *CLI) newCache(ctx context.Context, cfg Config, noCache bool) (cache.Cache, cache.Keyer) {
	if noCache || cfg.Cache == cacheNone {
		return cache.NewNullCache(), nil
	}

	switch {
	case cfg.Cache == cacheRedis || (cfg.Cache == "" && cfg.RedisURL != ""):
		if cfg.RedisURL == "" {
			c.Logger.Warn("Redis cache selected without a URL, using file cache")
			break
		}
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			c.Logger.Warn("Redis cache unavailable, using file cache", "err", err)
			break
		}
		return rc, cache.NewScopedKeyer(nil, appName+":")
	case cfg.Cache == cacheMemory:
		mc, err := cache.NewMemoryCache(cache.DefaultMemoryEntries)
		if err == nil {
			return mc, nil
		}
	}

	fc, err := cache.NewFileCache(cfg.cacheDir())
	if err != nil {
		c.Logger.Debug("File cache unavailable, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}
