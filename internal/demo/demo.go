// Package demo holds the self-checking registry scenarios run by
// `eventlink demo`. Each scenario builds handlers and listeners, drives them,
// and returns an error describing the first expectation that did not hold.
package demo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/eventlink/internal/event"
	"github.com/zjrosen/eventlink/internal/log"
	"github.com/zjrosen/eventlink/internal/observable"
	"github.com/zjrosen/eventlink/internal/tracing"
)

// Scenario is one named check.
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, tr trace.Tracer) error
}

// Result is published after each scenario.
type Result struct {
	Name        string
	Description string
	Err         error
	Elapsed     time.Duration
}

// Passed reports whether the scenario met every expectation.
func (r Result) Passed() bool {
	return r.Err == nil
}

// Runner runs scenarios and publishes their results.
type Runner struct {
	// Tracer wraps scenarios and their dispatches in spans. Nil disables spans.
	Tracer trace.Tracer

	// Finished is dispatched after every scenario.
	Finished event.Handler[Result]
}

// Run executes every scenario in order and returns their results.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		start := time.Now()
		err := tracing.Scenario(ctx, r.Tracer, s.Name, func(ctx context.Context) error {
			return s.Run(ctx, r.Tracer)
		})
		res := Result{Name: s.Name, Description: s.Description, Err: err, Elapsed: time.Since(start)}
		if err != nil {
			log.ErrorErr(log.CatCLI, "Scenario failed", err, "scenario", s.Name)
		} else {
			log.Debug(log.CatCLI, "Scenario passed", "scenario", s.Name, "elapsed", res.Elapsed)
		}
		results = append(results, res)
		r.Finished.Dispatch(res)
	}
	return results
}

// Scenarios returns the built-in scenarios. The panic scenario is only
// included when withPanic is set.
func Scenarios(withPanic bool) []Scenario {
	s := []Scenario{
		{Name: "counter", Description: "three listeners count, one leaves", Run: counter},
		{Name: "fan-out", Description: "every listener runs once, in order", Run: fanOut},
		{Name: "idempotent-subscribe", Description: "subscribing twice runs once", Run: idempotentSubscribe},
		{Name: "safe-unsubscribe", Description: "unsubscribing a stranger is a no-op", Run: safeUnsubscribe},
		{Name: "reentrant-mutation", Description: "changes during a pass apply to the next one", Run: reentrantMutation},
		{Name: "move-handler", Description: "moving a handler transfers its listeners", Run: moveHandler},
		{Name: "copy-listener", Description: "a copied listener joins every handler", Run: copyListener},
		{Name: "close-listener", Description: "a closed listener leaves every handler", Run: closeListener},
		{Name: "value-binding", Description: "two bound values settle on one change", Run: valueBinding},
	}
	if withPanic {
		s = append(s, Scenario{Name: "panic-safety", Description: "a panicking listener leaves the handler usable", Run: panicSafety})
	}
	return s
}

func expect[V comparable](what string, got, want V) error {
	if got != want {
		return fmt.Errorf("%s: got %v, want %v", what, got, want)
	}
	return nil
}

func expectSeq[V comparable](what string, got, want []V) error {
	if !slices.Equal(got, want) {
		return fmt.Errorf("%s: got %v, want %v", what, got, want)
	}
	return nil
}

func counter(ctx context.Context, tr trace.Tracer) error {
	var h event.Handler[struct{}]
	count := 0
	inc := func(struct{}) { count++ }
	l1, l2, l3 := event.NewListener(inc), event.NewListener(inc), event.NewListener(inc)

	h.Subscribe(l1)
	h.Subscribe(l2)
	h.Subscribe(l3)
	tracing.Dispatch(ctx, tr, "counter", &h, struct{}{})
	if err := expect("count after first dispatch", count, 3); err != nil {
		return err
	}

	h.Unsubscribe(l1)
	tracing.Dispatch(ctx, tr, "counter", &h, struct{}{})
	return expect("count after unsubscribe", count, 5)
}

func fanOut(ctx context.Context, tr trace.Tracer) error {
	var h event.Handler[int]
	var order []string
	for _, name := range []string{"a", "b", "c", "d"} {
		h.Listen(func(n int) { order = append(order, fmt.Sprintf("%s%d", name, n)) })
	}

	tracing.Dispatch(ctx, tr, "fan-out", &h, 7)
	return expectSeq("invocation order", order, []string{"a7", "b7", "c7", "d7"})
}

func idempotentSubscribe(ctx context.Context, tr trace.Tracer) error {
	var h event.Handler[struct{}]
	calls := 0
	l := event.NewListener(func(struct{}) { calls++ })
	h.Subscribe(l)
	h.Subscribe(l)

	tracing.Dispatch(ctx, tr, "idempotent", &h, struct{}{})
	if err := expect("listener count", h.Len(), 1); err != nil {
		return err
	}
	return expect("calls", calls, 1)
}

func safeUnsubscribe(ctx context.Context, tr trace.Tracer) error {
	var h event.Handler[struct{}]
	calls := 0
	h.Listen(func(struct{}) { calls++ })
	stranger := event.NewListener(func(struct{}) { calls += 100 })

	h.Unsubscribe(stranger)
	h.Unsubscribe(nil)
	tracing.Dispatch(ctx, tr, "safe-unsubscribe", &h, struct{}{})
	return expect("calls", calls, 1)
}

func reentrantMutation(ctx context.Context, tr trace.Tracer) error {
	var h event.Handler[struct{}]
	var seen []string
	b := event.NewListener(func(struct{}) { seen = append(seen, "b") })
	c := event.NewListener(func(struct{}) { seen = append(seen, "c") })
	a := event.NewListener(func(struct{}) {
		seen = append(seen, "a")
		h.Unsubscribe(b)
		h.Subscribe(c)
	})
	h.Subscribe(a)
	h.Subscribe(b)

	tracing.Dispatch(ctx, tr, "reentrant", &h, struct{}{})
	if err := expectSeq("first pass", seen, []string{"a", "b"}); err != nil {
		return err
	}

	seen = nil
	tracing.Dispatch(ctx, tr, "reentrant", &h, struct{}{})
	return expectSeq("second pass", seen, []string{"a", "c"})
}

func moveHandler(ctx context.Context, tr trace.Tracer) error {
	const k = 4
	src := event.NewHandler[struct{}]()
	calls := 0
	listeners := make([]*event.Listener[struct{}], k)
	for i := range listeners {
		listeners[i] = src.Listen(func(struct{}) { calls++ })
	}

	dst := src.Move()
	tracing.Dispatch(ctx, tr, "moved-from", src, struct{}{})
	if err := expect("calls on moved-from handler", calls, 0); err != nil {
		return err
	}
	tracing.Dispatch(ctx, tr, "moved-to", dst, struct{}{})
	if err := expect("calls on new handler", calls, k); err != nil {
		return err
	}
	for i, l := range listeners {
		if !l.SubscribedTo(dst) || l.SubscribedTo(src) {
			return fmt.Errorf("listener %d still points at the moved-from handler", i)
		}
	}
	return nil
}

func copyListener(ctx context.Context, tr trace.Tracer) error {
	var h1, h2 event.Handler[*int]
	orig := event.NewListener(func(n *int) { *n++ })
	h1.Subscribe(orig)
	h2.Subscribe(orig)

	cp := orig.Clone()
	if err := expect("copy edges", cp.Len(), 2); err != nil {
		return err
	}

	n := 0
	tracing.Dispatch(ctx, tr, "h1", &h1, &n)
	if err := expect("calls after copy", n, 2); err != nil {
		return err
	}

	h1.Unsubscribe(cp)
	n = 0
	tracing.Dispatch(ctx, tr, "h1", &h1, &n)
	tracing.Dispatch(ctx, tr, "h2", &h2, &n)
	return expect("calls after removing the copy from h1", n, 3)
}

func closeListener(ctx context.Context, tr trace.Tracer) error {
	var h1, h2 event.Handler[struct{}]
	calls := 0
	l := event.NewListener(func(struct{}) { calls++ })
	h1.Subscribe(l)
	h2.Subscribe(l)

	l.Close()
	tracing.Dispatch(ctx, tr, "h1", &h1, struct{}{})
	tracing.Dispatch(ctx, tr, "h2", &h2, struct{}{})
	if err := expect("calls after close", calls, 0); err != nil {
		return err
	}
	return expect("handler sizes", h1.Len()+h2.Len(), 0)
}

func valueBinding(context.Context, trace.Tracer) error {
	a, b := observable.New(0), observable.New(0)
	a.Bind(b)
	back := b.Bind(a)

	changes := 0
	a.Changed.Listen(func(observable.Change[int]) { changes++ })

	a.Set(3)
	if err := expect("mirrored value", b.Get(), 3); err != nil {
		return err
	}
	if err := expect("changes on a", changes, 1); err != nil {
		return err
	}

	back.Close()
	b.Set(9)
	return expect("a after unbinding", a.Get(), 3)
}

func panicSafety(ctx context.Context, tr trace.Tracer) (err error) {
	var h event.Handler[struct{}]
	calls := 0
	late := event.NewListener(func(struct{}) { calls++ })
	var bomb *event.Listener[struct{}]
	bomb = h.Listen(func(struct{}) {
		h.Subscribe(late)
		h.Unsubscribe(bomb)
		panic("listener failure")
	})

	func() {
		defer func() {
			if r := recover(); r == nil {
				err = fmt.Errorf("expected the dispatch to panic")
			}
		}()
		tracing.Dispatch(ctx, tr, "panic", &h, struct{}{})
	}()
	if err != nil {
		return err
	}

	if h.Dispatching() {
		return fmt.Errorf("handler still dispatching after panic")
	}
	tracing.Dispatch(ctx, tr, "after-panic", &h, struct{}{})
	return expect("calls after recovery", calls, 1)
}
