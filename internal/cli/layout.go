package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/config"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/scene"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "layout [scene.toml]...",
		Short: "Lay out every node of a scene by depth",
		Long: `Lay out every node of a scene by depth.

Nodes are assigned to layers by their longest distance from a root, and each
layer is distributed symmetrically with the spacing from the configuration.
Unconnected preview lines take part as virtual endpoints.

Plans are cached per scene name, scene hash and layout options, in the file
cache by default, in redis with --redis, or for the run only with
--cache=memory. Several scenes share one cache per run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return fmt.Errorf("--output needs a single scene, got %d", len(args))
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runLayout(ctx, cmd.OutOrStdout(), args, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output scene (default: <input>.layout.toml)")

	return cmd
}

// runLayout lays out each input against one snapshot cache.
func (c *CLI) runLayout(ctx context.Context, w io.Writer, inputs []string, output string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := c.newCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open snapshot cache: %w", err)
	}
	defer store.Close()

	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := output
		if out == "" {
			out = defaultOutput(input, "layout")
		}
		if err := c.layoutScene(ctx, w, store, cfg, input, out); err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
	}
	return nil
}

// layoutScene computes or restores the plan, applies it and saves the scene.
func (c *CLI) layoutScene(ctx context.Context, w io.Writer, store cache.Cache, cfg config.Config, input, output string) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	f, ed, err := c.openScene(ctx, input, cfg)
	if err != nil {
		return err
	}
	defer ed.Destroy()

	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), f.Name+":")
	key := keyer.LayoutKey(f.Hash(), cfg.Layout.KeyOpts())

	plan, cached, err := loadPlan(ctx, store, key)
	if err != nil {
		logger.Warn("ignoring cached layout", "key", key, "error", err)
	}
	if cached {
		if _, err := ed.Apply(plan); err != nil {
			return fmt.Errorf("apply cached layout: %w", err)
		}
	} else {
		plan, _, err = ed.LayoutAll()
		if err != nil {
			return fmt.Errorf("layout: %w", err)
		}
		if err := storePlan(ctx, store, key, plan, cfg.Cache.SnapshotTTL); err != nil {
			logger.Warn("layout not cached", "key", key, "error", err)
		}
	}
	prog.done(fmt.Sprintf("Laid out %d positions in %d layers", len(plan.Positions), len(plan.Strategies)))

	out := scene.FromSurface(f.Name, ed.Surface())
	out.Events = f.Events
	if err := out.Save(output); err != nil {
		return err
	}

	printSuccess(w, "Laid out %s", f.Name)
	printStats(w, len(out.Nodes), len(out.Connections)+len(out.Previews), cached)
	for k, s := range plan.Strategies {
		printDetail(w, "layer %d: %s", k, s)
	}
	printFile(w, output)
	return nil
}

// loadPlan reads a cached plan. A malformed entry is reported as a miss
// together with the decode error.
func loadPlan(ctx context.Context, store cache.Cache, key string) (layout.Plan, bool, error) {
	data, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return layout.Plan{}, false, err
	}
	var plan layout.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return layout.Plan{}, false, err
	}
	return plan, true, nil
}

func storePlan(ctx context.Context, store cache.Cache, key string, plan layout.Plan, ttl time.Duration) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, data, ttl)
}
