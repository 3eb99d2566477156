// Package config holds the tunable constants of the editor engine.
//
// Every threshold the engine uses (lock window, overlap tolerance, offset
// step, grid resize factors, spacing) is a named field with a default and
// can be overridden from a TOML file:
//
//	[drag]
//	lock_window = "50ms"
//
//	[connect]
//	overlap_tolerance = 10
//	offset_step = 30
//
//	[spatial]
//	dense_factor = 2.0
//	sparse_factor = 0.25
//
// Durations are written as Go duration strings.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/connect"
	"github.com/matzehuels/flowcanvas/pkg/drag"
	"github.com/matzehuels/flowcanvas/pkg/editor"
	"github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/spatial"
)

// Default timings.
const (
	DefaultShowThrottle = editor.DefaultShowThrottle
	DefaultHideDelay    = editor.DefaultHideDelay
	DefaultBranchTTL    = 5 * time.Minute
	DefaultSnapshotTTL  = 24 * time.Hour
)

// Config aggregates the options of every component.
type Config struct {
	Drag    Drag            `toml:"drag"`
	Menu    Menu            `toml:"menu"`
	Spatial spatial.Options `toml:"spatial"`
	Layout  layout.Options  `toml:"layout"`
	Connect connect.Options `toml:"connect"`
	Cache   Cache           `toml:"cache"`
}

// Drag configures the interaction state machine.
type Drag struct {
	// LockWindow absorbs duplicate start and end callbacks of one gesture.
	LockWindow time.Duration `toml:"lock_window"`
}

// Menu configures the node hover menu.
type Menu struct {
	ShowThrottle time.Duration `toml:"show_throttle"`
	HideDelay    time.Duration `toml:"hide_delay"`
}

// Cache configures the in-process branch cache and the snapshot store used
// by the command line tool.
type Cache struct {
	MaxSize         int           `toml:"max_size"`
	BranchTTL       time.Duration `toml:"branch_ttl"`
	CleanupInterval time.Duration `toml:"cleanup_interval"`

	// Dir is the file cache directory. Empty means the user cache dir.
	Dir string `toml:"dir"`

	// RedisURL selects a shared redis store instead of the file cache.
	RedisURL    string        `toml:"redis_url"`
	Prefix      string        `toml:"prefix"`
	SnapshotTTL time.Duration `toml:"snapshot_ttl"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Drag:    Drag{LockWindow: drag.DefaultLockWindow},
		Menu:    Menu{ShowThrottle: DefaultShowThrottle, HideDelay: DefaultHideDelay},
		Spatial: spatial.DefaultOptions(),
		Layout:  layout.DefaultOptions(),
		Connect: connect.DefaultOptions(),
		Cache: Cache{
			MaxSize:         cache.DefaultMaxSize,
			BranchTTL:       DefaultBranchTTL,
			CleanupInterval: cache.DefaultCleanupInterval,
			SnapshotTTL:     DefaultSnapshotTTL,
		},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are rejected so
// typos do not silently fall back to a default.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads TOML from r over the defaults and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfiguration, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write encodes the configuration as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := positiveDuration("drag.lock_window", c.Drag.LockWindow); err != nil {
		return err
	}
	if err := positiveDuration("menu.show_throttle", c.Menu.ShowThrottle); err != nil {
		return err
	}
	if err := positiveDuration("menu.hide_delay", c.Menu.HideDelay); err != nil {
		return err
	}
	if err := c.Spatial.Validate(); err != nil {
		return err
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := c.Connect.Validate(); err != nil {
		return err
	}
	if c.Cache.MaxSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "cache.max_size must be positive, got %d", c.Cache.MaxSize)
	}
	if err := positiveDuration("cache.branch_ttl", c.Cache.BranchTTL); err != nil {
		return err
	}
	return positiveDuration("cache.snapshot_ttl", c.Cache.SnapshotTTL)
}

func positiveDuration(name string, d time.Duration) error {
	if d <= 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "%s must be positive, got %s", name, d)
	}
	return nil
}

// DragOptions returns the drag machine options.
func (c Config) DragOptions(logger *log.Logger) drag.Options {
	return drag.Options{LockWindow: c.Drag.LockWindow, Logger: logger}
}

// SpatialOptions returns the spatial index options.
func (c Config) SpatialOptions(logger *log.Logger) spatial.Options {
	o := c.Spatial
	o.Logger = logger
	return o
}

// LayoutOptions returns the layout options.
func (c Config) LayoutOptions(logger *log.Logger) layout.Options {
	o := c.Layout
	o.Logger = logger
	return o
}

// ConnectOptions returns the connection controller options.
func (c Config) ConnectOptions(logger *log.Logger) connect.Options {
	o := c.Connect
	o.Logger = logger
	return o
}

// BranchCacheOptions returns the options of the branch list cache.
func (c Config) BranchCacheOptions() cache.LRUOptions {
	return cache.LRUOptions{
		MaxSize:         c.Cache.MaxSize,
		DefaultTTL:      c.Cache.BranchTTL,
		CleanupInterval: c.Cache.CleanupInterval,
		Name:            "branches",
	}
}

// EditorOptions returns the options of a full editor.
func (c Config) EditorOptions(logger *log.Logger) editor.Options {
	return editor.Options{
		Drag:         c.DragOptions(nil),
		Spatial:      c.SpatialOptions(nil),
		Layout:       c.LayoutOptions(nil),
		Connect:      c.ConnectOptions(nil),
		BranchCache:  c.BranchCacheOptions(),
		ShowThrottle: c.Menu.ShowThrottle,
		HideDelay:    c.Menu.HideDelay,
		Logger:       logger,
	}
}
