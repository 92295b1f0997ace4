package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/eventlink/internal/fsm"
)

var fsmCycles int

var fsmCmd = &cobra.Command{
	Use:   "fsm",
	Short: "Run a traffic-light state machine",
	Long: `Run a red, green, yellow traffic light and print every transition.

Each tick moves the light one state along. After the configured number of
full cycles the red state exits and the machine stops.

Examples:
  eventlink fsm
  eventlink fsm --cycles 5`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cycles := cfg.Demo.FSMCycles
		if cmd.Flags().Changed("cycles") {
			cycles = fsmCycles
		}
		if cycles < 1 {
			return fmt.Errorf("--cycles must be at least 1, got %d", cycles)
		}
		_, err := runFSM(cmd.OutOrStdout(), cycles)
		return err
	},
}

func init() {
	fsmCmd.Flags().IntVarP(&fsmCycles, "cycles", "n", 0, "Number of full cycles (default: demo.fsm_cycles from config)")
	rootCmd.AddCommand(fsmCmd)
}

// runFSM runs the traffic light for the given number of cycles and returns
// how many transitions it printed.
func runFSM(w io.Writer, cycles int) (int, error) {
	m := fsm.New()
	defer m.Close()

	completed := 0
	var red, green, yellow *fsm.ActionState
	red = fsm.NewActionState(func() *fsm.Transition {
		if completed >= cycles {
			return fsm.Exit
		}
		return &red.Done
	}, fsm.WithName("red"), fsm.WithActivated(func(*fsm.Transition) { completed++ }))
	green = fsm.NewActionState(func() *fsm.Transition { return &green.Done }, fsm.WithName("green"))
	yellow = fsm.NewActionState(func() *fsm.Transition { return &yellow.Done }, fsm.WithName("yellow"))

	red.Done.SwitchTo(green)
	green.Done.SwitchTo(yellow)
	yellow.Done.SwitchTo(red)

	transitions := 0
	m.Transitioned.Listen(func(c fsm.Change) {
		transitions++
		_, _ = fmt.Fprintf(w, "%s %s -> %s\n",
			subtleStyle.Render(fmt.Sprintf("%3d", transitions)),
			fsm.NameOf(c.From), keyStyle.Render(fsm.NameOf(c.To)))
	})
	m.Stopped.Listen(func(struct{}) {
		_, _ = fmt.Fprintf(w, "stopped in %s after %d cycles\n", fsm.NameOf(m.Current()), completed)
	})

	if err := m.SetCurrent(red); err != nil {
		return 0, err
	}
	for m.Running() {
		m.Tick()
	}
	return transitions, nil
}
