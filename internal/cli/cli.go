// Package cli implements the canvasctl command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/buildinfo"
	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/config"
	"github.com/matzehuels/flowcanvas/pkg/editor"
	"github.com/matzehuels/flowcanvas/pkg/scene"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories.
	appName = "flowcanvas"

	// cmdName is the binary name used in help text.
	cmdName = "canvasctl"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	redisURL   string
	backend    string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
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
		Use:   cmdName,
		Short: "canvasctl drives the flowcanvas layout and connection engine",
		Long: `canvasctl loads workflow canvas scenes from TOML, lays them out, replays
recorded editor sessions against them and repairs overlapping preview lines.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "engine configuration file (TOML)")
	root.PersistentFlags().StringVar(&c.redisURL, "redis", "", "store layout snapshots in redis (redis://host:port/db)")
	root.PersistentFlags().StringVar(&c.backend, "cache", "", "snapshot backend: file, redis, memory or none (default: redis when a URL is set, else file)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable layout snapshot caching (same as --cache=none)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.replayCommand())
	root.AddCommand(c.overlapCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Setup
// =============================================================================

// loadConfig returns the --config file merged over the defaults.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(c.configPath)
}

// openScene loads a scene file and builds an editor over it.
func (c *CLI) openScene(ctx context.Context, path string, cfg config.Config) (*scene.File, *editor.Editor, error) {
	f, err := scene.Load(path)
	if err != nil {
		return nil, nil, err
	}
	surface, err := f.Surface()
	if err != nil {
		return nil, nil, err
	}
	ed, err := editor.New(surface, cfg.EditorOptions(loggerFromContext(ctx)))
	if err != nil {
		return nil, nil, err
	}
	return f, ed, nil
}

// Snapshot backends accepted by --cache.
const (
	backendFile   = "file"
	backendRedis  = "redis"
	backendMemory = "memory"
	backendNone   = "none"
)

// newCache picks the snapshot backend. Without --cache it is redis when a
// URL is given on the command line or in the config, a file cache otherwise.
// The memory backend lives for one run and is shared by every scene of it.
func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	url := c.redisURL
	if url == "" {
		url = cfg.Cache.RedisURL
	}
	backend := c.backend
	switch {
	case c.noCache:
		backend = backendNone
	case backend == "" && url != "":
		backend = backendRedis
	case backend == "":
		backend = backendFile
	}

	switch backend {
	case backendNone:
		return cache.NewNullCache(), nil
	case backendMemory:
		return cache.NewMemoryCache(cfg.Cache.MaxSize), nil
	case backendRedis:
		if url == "" {
			return nil, fmt.Errorf("--cache=redis needs --redis or cache.redis_url")
		}
		return cache.NewRedisCache(ctx, cache.RedisOptions{URL: url, Prefix: cfg.Cache.Prefix})
	case backendFile:
		dir, err := cacheDirFor(cfg)
		if err != nil {
			loggerFromContext(ctx).Warn("snapshot cache disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
	return nil, fmt.Errorf("unknown cache backend %q (want file, redis, memory or none)", backend)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flowcanvas/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// cacheDirFor honours an explicit cache.dir from the config.
func cacheDirFor(cfg config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cacheDir()
}

// defaultOutput derives "<base>.<suffix>.toml" next to the input scene.
func defaultOutput(input, suffix string) string {
	ext := filepath.Ext(input)
	return input[:len(input)-len(ext)] + "." + suffix + ".toml"
}
