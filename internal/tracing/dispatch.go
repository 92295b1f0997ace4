package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/eventlink/internal/event"
)

// Dispatch runs one dispatch pass of h inside a span named
// "dispatch.<name>". The span carries the handler name, the listener count
// at the start of the pass and the run ID from ctx. A panicking listener is
// recorded on the span and the panic continues. A nil tracer dispatches
// without a span.
func Dispatch[T any](ctx context.Context, tracer trace.Tracer, name string, h *event.Handler[T], arg T) {
	if tracer == nil {
		h.Dispatch(arg)
		return
	}

	_, span := tracer.Start(ctx, SpanPrefixDispatch+name, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String(AttrHandlerName, name),
		attribute.Int(AttrListenerCount, h.Len()),
	)
	if id := RunIDFromContext(ctx); id != "" {
		span.SetAttributes(attribute.String(AttrRunID, id))
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("listener panicked: %v", r)
			span.AddEvent(EventListenerPanic, trace.WithAttributes(attribute.String(AttrPanicValue, fmt.Sprint(r))))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			panic(r)
		}
	}()

	h.Dispatch(arg)
	span.SetStatus(codes.Ok, "")
}

// Scenario runs fn inside a span named "scenario.<name>" and records its
// error. The span context is passed to fn so nested dispatch spans become
// children.
func Scenario(ctx context.Context, tracer trace.Tracer, name string, fn func(context.Context) error) error {
	if tracer == nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, SpanPrefixScenario+name)
	defer span.End()
	span.SetAttributes(attribute.String(AttrScenario, name))
	if id := RunIDFromContext(ctx); id != "" {
		span.SetAttributes(attribute.String(AttrRunID, id))
	}

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
