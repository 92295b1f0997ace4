// Package flags provides feature flags for optional eventlink behaviour.
// Flags are read-only after initialization and default to off.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/eventlink/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagTraceDispatch wraps demo dispatch passes in tracing spans.
	FlagTraceDispatch = "trace-dispatch"

	// FlagPanicDemo adds the panicking-listener scenario to the demo run.
	FlagPanicDemo = "panic-demo"
)

var known = map[string]string{
	FlagTraceDispatch: "wrap demo dispatch passes in tracing spans",
	FlagPanicDemo:     "include the panicking-listener scenario in the demo",
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. The map is copied.
// If flags is nil, an empty registry is created (all flags disabled).
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: make(map[string]bool, len(flags))}
	maps.Copy(r.flags, flags)
	for name := range r.flags {
		if _, ok := known[name]; !ok {
			log.Warn(log.CatConfig, "Unknown feature flag in config", "flag", name)
		}
	}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(r.flags), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags and on a nil registry.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// All returns a copy of all configured flags.
// Returns an empty map if the registry is nil.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return make(map[string]bool)
	}
	return maps.Clone(r.flags)
}

// Known returns the names of every flag eventlink reads, sorted.
func Known() []string {
	return slices.Sorted(maps.Keys(known))
}

// Describe returns the help text for a known flag, or "".
func Describe(name string) string {
	return known[name]
}
