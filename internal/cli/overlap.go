package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/connect"
	"github.com/matzehuels/flowcanvas/pkg/scene"
)

// overlapCommand creates the overlap command.
func (c *CLI) overlapCommand() *cobra.Command {
	var (
		fix    bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "overlap [scene.toml]",
		Short: "Report overlapping preview lines",
		Long: `Report overlapping preview lines.

Preview ends of one node that fall within the overlap tolerance of each other
are grouped and listed. With --fix every group is spread out along its branch
anchor and the scene is written back (in place unless -o is given).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = args[0]
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runOverlap(ctx, cmd.OutOrStdout(), args[0], output, fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "regenerate overlapping preview lines")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output scene with --fix (default: overwrite input)")

	return cmd
}

func (c *CLI) runOverlap(ctx context.Context, w io.Writer, input, output string, fix bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	f, ed, err := c.openScene(ctx, input, cfg)
	if err != nil {
		return err
	}
	defer ed.Destroy()

	ctrl := ed.Controller()
	var groups []connect.OverlapGroup
	for _, n := range ed.Surface().Nodes() {
		groups = append(groups, ctrl.CheckPreviewLineOverlap(n.ID)...)
	}
	if len(groups) == 0 {
		printSuccess(w, "No overlapping preview lines")
		return nil
	}

	for _, g := range groups {
		ids := make([]string, len(g.Previews))
		for i, p := range g.Previews {
			ids[i] = p.ID
		}
		printWarning(w, "%s: %d previews overlap", g.SourceNodeID, len(g.Previews))
		printDetail(w, "%s", strings.Join(ids, ", "))
	}

	if !fix {
		printNextStep(w, "Spread them out", fmt.Sprintf("%s overlap --fix %s", cmdName, input))
		return nil
	}

	moved := 0
	seen := make(map[string]bool)
	for _, g := range groups {
		if seen[g.SourceNodeID] {
			continue
		}
		seen[g.SourceNodeID] = true
		n, err := ctrl.RegenerateOverlappingPreviewLines(g.SourceNodeID)
		if err != nil {
			return err
		}
		moved += n
	}

	out := scene.FromSurface(f.Name, ed.Surface())
	out.Events = f.Events
	if err := out.Save(output); err != nil {
		return err
	}
	printSuccess(w, "Moved %s previews", StyleNumber.Render(fmt.Sprint(moved)))
	printFile(w, output)
	return nil
}
