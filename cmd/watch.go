package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/eventlink/internal/log"
	"github.com/zjrosen/eventlink/internal/pubsub"
	"github.com/zjrosen/eventlink/internal/reload"
)

var watchTailLog bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload the config file whenever it changes",
	Long: `Watch the config file and print what changed after every save.

A changed log.level takes effect immediately. Invalid content is reported
and the last good config stays in place. The same broken content is only
reported once per watch.dedup_window.

With --tail-log, log entries are also printed to stderr as they are
written, whether or not --debug is set.

Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchTailLog, "tail-log", false, "Print log entries to stderr")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	path := configPath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no config file to watch at %s (run 'eventlink config init'): %w", path, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchTailLog {
		if logCleanup == nil {
			level, _ := log.ParseLevel(cfg.Log.Level)
			log.InitWriter(nil, level)
		}
		stopTail := tailLog(ctx, cmd.ErrOrStderr())
		defer stopTail()
	}

	r := reload.New(path, cfg)
	defer r.Close()
	subscribeReloadOutput(r, cmd.OutOrStdout(), cmd.ErrOrStderr())

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", keyStyle.Render(path))
	log.Info(log.CatCLI, "Watching config", "path", path, "run_id", runID)
	return r.Run(ctx)
}

// subscribeReloadOutput applies level changes and prints every reload.
func subscribeReloadOutput(r *reload.Reloader, out, errOut io.Writer) {
	r.Applied.Listen(func(u reload.Update) {
		if u.Previous.Log.Level != u.Config.Log.Level {
			level, _ := log.ParseLevel(u.Config.Log.Level)
			log.SetMinLevel(level)
		}
		cfg = u.Config
	})
	r.Applied.Listen(func(u reload.Update) {
		_, _ = fmt.Fprintln(out, headerStyle.Render("config reloaded"))
		_, _ = fmt.Fprint(out, formatDiff(u.Diff))
	})
	r.Failed.Listen(func(f reload.Failure) {
		_, _ = fmt.Fprintln(errOut, failStyle.Render("reload failed: "+f.Err.Error()))
	})
}

// tailLog prints log entries to w from a separate goroutine. Entries are
// published on whichever goroutine logged them, so they cross over through a
// broker rather than being written from the listener. The returned func stops
// tailing and waits for the printer to drain.
func tailLog(ctx context.Context, w io.Writer) func() {
	broker := pubsub.NewBroker[log.Entry]()
	fwd := pubsub.Forward(broker, pubsub.TopicLog)
	entries := broker.Subscribe(ctx)
	log.Subscribe(fwd)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range entries {
			_, _ = fmt.Fprintln(w, subtleStyle.Render(strings.TrimSuffix(msg.Payload.Line, "\n")))
		}
	}()

	return func() {
		log.Unsubscribe(fwd)
		broker.Close()
		<-done
		if n := broker.Dropped(); n > 0 {
			_, _ = fmt.Fprintf(w, "%d log entries dropped\n", n)
		}
	}
}
