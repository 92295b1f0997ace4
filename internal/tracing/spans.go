package tracing

// Span attribute keys.
const (
	AttrHandlerName   = "event.handler"
	AttrListenerCount = "event.listener_count"
	AttrRunID         = "run.id"
	AttrScenario      = "demo.scenario"
	AttrPanicValue    = "panic.value"
)

// Span name prefixes.
const (
	SpanPrefixDispatch = "dispatch."
	SpanPrefixScenario = "scenario."
)

// EventListenerPanic is recorded on a dispatch span whose listener panicked.
const EventListenerPanic = "listener.panic"
