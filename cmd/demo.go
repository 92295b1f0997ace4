package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/eventlink/internal/demo"
	"github.com/zjrosen/eventlink/internal/flags"
	"github.com/zjrosen/eventlink/internal/log"
	"github.com/zjrosen/eventlink/internal/tracing"
)

var demoOnly []string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the self-checking registry scenarios",
	Long: `Run every built-in registry scenario and report which ones passed.

The command exits non-zero when any scenario fails.

Feature flags:
  trace-dispatch  wrap each scenario and dispatch pass in a span
  panic-demo      include the scenario where a listener panics mid-dispatch

Examples:
  # Run everything
  eventlink demo

  # Run two scenarios
  eventlink demo --only counter --only move-handler

  # Trace every dispatch, printing spans to stdout
  eventlink config set-flag trace-dispatch true
  EVENTLINK_TRACING_EXPORTER=stdout eventlink demo`,
	RunE: runDemoCmd,
}

func init() {
	demoCmd.Flags().StringArrayVarP(&demoOnly, "only", "o", nil, "Run only the named scenario (can be repeated)")
	rootCmd.AddCommand(demoCmd)
}

func runDemoCmd(cmd *cobra.Command, _ []string) error {
	scenarios, err := selectScenarios(demo.Scenarios(flagRegistry.Enabled(flags.FlagPanicDemo)), demoOnly)
	if err != nil {
		return err
	}

	ctx := tracing.ContextWithRunID(cmd.Context(), runID)
	tracer, shutdown, err := startTracing()
	if err != nil {
		return err
	}
	defer shutdown()

	return runDemo(ctx, cmd.OutOrStdout(), tracer, scenarios)
}

// runDemo prints one line per scenario as it finishes and a summary.
func runDemo(ctx context.Context, w io.Writer, tracer trace.Tracer, scenarios []demo.Scenario) error {
	r := demo.Runner{Tracer: tracer}
	defer r.Finished.Close()

	failed := 0
	r.Finished.Listen(func(res demo.Result) {
		if !res.Passed() {
			failed++
		}
		_, _ = fmt.Fprintln(w, formatResult(res))
	})

	_, _ = fmt.Fprintln(w, headerStyle.Render("Registry scenarios"))
	r.Run(ctx, scenarios)
	_, _ = fmt.Fprintln(w, formatSummary(len(scenarios), failed))

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(scenarios))
	}
	return nil
}

// selectScenarios keeps the named scenarios in their built-in order. No
// names keeps all of them.
func selectScenarios(all []demo.Scenario, names []string) ([]demo.Scenario, error) {
	if len(names) == 0 {
		return all, nil
	}
	for _, name := range names {
		if !slices.ContainsFunc(all, func(s demo.Scenario) bool { return s.Name == name }) {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
	}
	return slices.DeleteFunc(slices.Clone(all), func(s demo.Scenario) bool {
		return !slices.Contains(names, s.Name)
	}), nil
}

// startTracing returns a nil tracer unless tracing is enabled in config or
// by the trace-dispatch flag.
func startTracing() (trace.Tracer, func(), error) {
	tc := tracing.FromConfig(cfg.Tracing)
	if flagRegistry.Enabled(flags.FlagTraceDispatch) {
		tc.Enabled = true
	}
	if !tc.Enabled {
		return nil, func() {}, nil
	}

	provider, err := tracing.NewProvider(tc)
	if err != nil {
		return nil, nil, fmt.Errorf("starting tracing: %w", err)
	}
	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatTrace, "Failed to flush traces", err)
		}
	}
	return provider.Tracer(), shutdown, nil
}
