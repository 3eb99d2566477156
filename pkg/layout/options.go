package layout

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/errors"
)

// Default spacing values in pixels.
const (
	DefaultMinSpacing       = 120
	DefaultPreferredSpacing = 180
	DefaultMaxSpacing       = 300
	DefaultEndpointSpacing  = 150
	DefaultLayerHeight      = 150
	DefaultCenterTolerance  = 1
)

// Options configures spacing and the validator.
type Options struct {
	MinSpacing       float64 `toml:"min_spacing"`
	PreferredSpacing float64 `toml:"preferred_spacing"` // base spacing of normal nodes
	MaxSpacing       float64 `toml:"max_spacing"`
	EndpointSpacing  float64 `toml:"endpoint_spacing"` // base spacing of endpoints
	LayerHeight      float64 `toml:"layer_height"`
	CenterTolerance  float64 `toml:"center_tolerance"`

	Logger *log.Logger `toml:"-"`
}

// DefaultOptions returns the stock spacing.
func DefaultOptions() Options {
	return Options{
		MinSpacing:       DefaultMinSpacing,
		PreferredSpacing: DefaultPreferredSpacing,
		MaxSpacing:       DefaultMaxSpacing,
		EndpointSpacing:  DefaultEndpointSpacing,
		LayerHeight:      DefaultLayerHeight,
		CenterTolerance:  DefaultCenterTolerance,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinSpacing <= 0 {
		o.MinSpacing = d.MinSpacing
	}
	if o.PreferredSpacing <= 0 {
		o.PreferredSpacing = d.PreferredSpacing
	}
	if o.MaxSpacing <= 0 {
		o.MaxSpacing = d.MaxSpacing
	}
	if o.EndpointSpacing <= 0 {
		o.EndpointSpacing = d.EndpointSpacing
	}
	if o.LayerHeight <= 0 {
		o.LayerHeight = d.LayerHeight
	}
	if o.CenterTolerance <= 0 {
		o.CenterTolerance = d.CenterTolerance
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Validate reports inconsistent spacing.
func (o Options) Validate() error {
	for name, v := range map[string]float64{
		"layout.min_spacing":       o.MinSpacing,
		"layout.preferred_spacing": o.PreferredSpacing,
		"layout.max_spacing":       o.MaxSpacing,
		"layout.endpoint_spacing":  o.EndpointSpacing,
		"layout.layer_height":      o.LayerHeight,
	} {
		if err := errors.ValidatePositive(name, v); err != nil {
			return err
		}
	}
	if o.MinSpacing > o.MaxSpacing {
		return errors.New(errors.ErrCodeInvalidConfiguration, "layout.min_spacing %v exceeds max_spacing %v", o.MinSpacing, o.MaxSpacing)
	}
	return nil
}

// KeyOpts returns the options that identify a cached layout snapshot.
func (o Options) KeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		MinSpacing:       o.MinSpacing,
		PreferredSpacing: o.PreferredSpacing,
		MaxSpacing:       o.MaxSpacing,
		EndpointSpacing:  o.EndpointSpacing,
		LayerHeight:      o.LayerHeight,
	}
}
