package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/editor"
	"github.com/matzehuels/flowcanvas/pkg/scene"
)

// replayEpoch anchors event offsets. Any non-zero instant works since the
// editor only compares event times with each other.
var replayEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// replayCommand creates the replay command.
func (c *CLI) replayCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "replay [scene.toml]",
		Short: "Replay the recorded events of a scene",
		Long: `Replay the recorded events of a scene.

Every [[event]] entry is fed to the editor in order and the resulting host
commands are printed with their offset. Pending menu timers are flushed after
the last event. With -o the final canvas is written as a new scene.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runReplay(ctx, cmd.OutOrStdout(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the final canvas to this scene file")

	return cmd
}

func (c *CLI) runReplay(ctx context.Context, w io.Writer, input, output string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	f, ed, err := c.openScene(ctx, input, cfg)
	if err != nil {
		return err
	}
	defer ed.Destroy()

	events := f.EditorEvents(replayEpoch)
	if len(events) == 0 {
		printInfo(w, "%s has no events", input)
		return nil
	}

	total := 0
	last := replayEpoch
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, cmd := range ed.Tick(ev.At) {
			printCommand(w, ev.At.Sub(replayEpoch), cmd)
			total++
		}
		cmds, err := ed.Handle(ev)
		if err != nil {
			return fmt.Errorf("event %s at %s: %w", ev.Type, ev.At.Sub(replayEpoch), err)
		}
		for _, cmd := range cmds {
			printCommand(w, ev.At.Sub(replayEpoch), cmd)
		}
		total += len(cmds)
		last = ev.At
	}

	flush := last.Add(cfg.Menu.HideDelay)
	for _, cmd := range ed.Tick(flush) {
		printCommand(w, flush.Sub(replayEpoch), cmd)
		total++
	}

	printSuccess(w, "Replayed %d events, %d commands", len(events), total)
	if output != "" {
		out := scene.FromSurface(f.Name, ed.Surface())
		if err := out.Save(output); err != nil {
			return err
		}
		printFile(w, output)
	}
	return nil
}

// printCommand prints one host command with its offset into the replay.
func printCommand(w io.Writer, at time.Duration, cmd editor.Command) {
	offset := StyleDim.Render(fmt.Sprintf("%8s", at))
	name := StyleValue.Render(cmd.Name())
	if rej, ok := cmd.(editor.ConnectionRejected); ok {
		name = styleRejected.Render(cmd.Name())
		fmt.Fprintf(w, "%s %s %s\n", offset, name, StyleDim.Render(fmt.Sprintf("%s: %s", rej.Code, rej.Reason)))
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", offset, name, StyleDim.Render(describe(cmd)))
}

// describe renders the payload of a command.
func describe(cmd editor.Command) string {
	switch cmd := cmd.(type) {
	case editor.MoveNode:
		return fmt.Sprintf("%s to (%g, %g)", cmd.NodeID, cmd.Position.X, cmd.Position.Y)
	case editor.PreviewMoved:
		return fmt.Sprintf("%s to (%g, %g)", cmd.EdgeID, cmd.End.X, cmd.End.Y)
	case editor.HighlightTarget:
		return cmd.NodeID
	case editor.ShowMenu:
		return cmd.NodeID
	case editor.HideMenu:
		return cmd.NodeID
	case editor.ConnectionCreated:
		c := cmd.Connection
		return fmt.Sprintf("%s: %s -> %s branch=%q", c.ID, c.Source.NodeID, c.Target.NodeID, c.BranchID)
	case editor.ConnectionRemoved:
		return cmd.EdgeID
	case editor.PreviewLinesChanged:
		return fmt.Sprintf("%s created=%d removed=%d moved=%d", cmd.NodeID, len(cmd.Created), len(cmd.Removed), cmd.Moved)
	}
	return ""
}
