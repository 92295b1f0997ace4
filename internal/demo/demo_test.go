package demo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/eventlink/internal/tracing"
)

func TestScenarios_AllPass(t *testing.T) {
	var r Runner
	results := r.Run(context.Background(), Scenarios(true))

	require.Len(t, results, len(Scenarios(true)))
	for _, res := range results {
		require.NoError(t, res.Err, res.Name)
		require.True(t, res.Passed())
	}
}

func TestScenarios_PanicScenarioBehindFlag(t *testing.T) {
	names := func(s []Scenario) []string {
		out := make([]string, 0, len(s))
		for _, sc := range s {
			out = append(out, sc.Name)
		}
		return out
	}

	require.NotContains(t, names(Scenarios(false)), "panic-safety")
	require.Contains(t, names(Scenarios(true)), "panic-safety")
	require.Len(t, Scenarios(true), len(Scenarios(false))+1)
}

func TestScenarios_NamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range Scenarios(true) {
		require.False(t, seen[s.Name], "duplicate scenario %q", s.Name)
		seen[s.Name] = true
		require.NotEmpty(t, s.Description)
	}
}

func TestRunner_PublishesEachResult(t *testing.T) {
	var r Runner
	var finished []string
	r.Finished.Listen(func(res Result) { finished = append(finished, res.Name) })

	scenarios := Scenarios(false)
	r.Run(context.Background(), scenarios)

	require.Len(t, finished, len(scenarios))
	require.Equal(t, scenarios[0].Name, finished[0])
}

func TestRunner_ReportsFailure(t *testing.T) {
	boom := errors.New("boom")
	var r Runner
	results := r.Run(context.Background(), []Scenario{
		{Name: "broken", Run: func(context.Context, trace.Tracer) error { return boom }},
		{Name: "counter", Run: counter},
	})

	require.Len(t, results, 2)
	require.ErrorIs(t, results[0].Err, boom)
	require.False(t, results[0].Passed())
	require.NoError(t, results[1].Err)
}

func TestRunner_TracesScenariosAndDispatches(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := Runner{Tracer: tp.Tracer("test")}
	ctx := tracing.ContextWithRunID(context.Background(), "run-7")
	results := r.Run(ctx, []Scenario{{Name: "counter", Run: counter}})
	require.NoError(t, results[0].Err)

	var scenario sdktrace.ReadOnlySpan
	dispatches := 0
	for _, s := range sr.Ended() {
		switch s.Name() {
		case tracing.SpanPrefixScenario + "counter":
			scenario = s
		case tracing.SpanPrefixDispatch + "counter":
			dispatches++
		}
	}
	require.NotNil(t, scenario)
	require.Equal(t, codes.Ok, scenario.Status().Code)
	require.Equal(t, 2, dispatches)

	for _, s := range sr.Ended() {
		if s.Name() == tracing.SpanPrefixDispatch+"counter" {
			require.Equal(t, scenario.SpanContext().SpanID(), s.Parent().SpanID())
		}
	}
}

func TestPanicSafety_RecordsPanicOnSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	require.NoError(t, panicSafety(context.Background(), tp.Tracer("test")))

	var panicked bool
	for _, s := range sr.Ended() {
		if s.Name() != tracing.SpanPrefixDispatch+"panic" {
			continue
		}
		require.Equal(t, codes.Error, s.Status().Code)
		for _, e := range s.Events() {
			if e.Name == tracing.EventListenerPanic {
				panicked = true
			}
		}
	}
	require.True(t, panicked)
}
