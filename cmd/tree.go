package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/eventlink/internal/behavior"
)

var treeMaxTicks int

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Tick a small behaviour tree",
	Long: `Tick a behaviour tree until it settles and print every tick.

The tree is a sequence of three steps: a fetch that runs for two ticks, a
fallback whose primary fails and whose backup runs for one tick, and a
report that succeeds at once.

Examples:
  eventlink tree
  eventlink tree --max-ticks 3`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit := cfg.Demo.TreeMaxTicks
		if cmd.Flags().Changed("max-ticks") {
			limit = treeMaxTicks
		}
		if limit < 1 {
			return fmt.Errorf("--max-ticks must be at least 1, got %d", limit)
		}
		status, _ := runTree(cmd.OutOrStdout(), limit)
		if status == behavior.Running {
			return fmt.Errorf("tree still running after %d ticks", limit)
		}
		return nil
	},
}

func init() {
	treeCmd.Flags().IntVarP(&treeMaxTicks, "max-ticks", "m", 0, "Tick limit (default: demo.tree_max_ticks from config)")
	rootCmd.AddCommand(treeCmd)
}

// runningFor returns an action that reports Running n times, then Success.
func runningFor(n int) behavior.Action {
	left := n
	return func() behavior.Status {
		if left > 0 {
			left--
			return behavior.Running
		}
		return behavior.Success
	}
}

func newDemoTree() *behavior.Tree {
	failing := behavior.Action(func() behavior.Status { return behavior.Failure })
	return behavior.NewTree(behavior.NewSequence(
		runningFor(2),
		behavior.NewFallback(failing, runningFor(1)),
		runningFor(0),
	))
}

// runTree ticks the demo tree up to limit times, printing each tick.
func runTree(w io.Writer, limit int) (behavior.Status, int) {
	t := newDemoTree()
	defer t.Close()

	tick := 0
	t.Ticked.Listen(func(s behavior.Status) {
		tick++
		_, _ = fmt.Fprintf(w, "%s %s\n", subtleStyle.Render(fmt.Sprintf("tick %2d", tick)), s)
	})
	t.Completed.Listen(func(s behavior.Status) {
		style := passStyle
		if s == behavior.Failure {
			style = failStyle
		}
		_, _ = fmt.Fprintln(w, style.Render("completed: "+s.String()))
	})

	return t.Run(limit)
}
