// Package observable holds values that publish their changes through the
// event registry.
package observable

import (
	"github.com/zjrosen/eventlink/internal/event"
	"github.com/zjrosen/eventlink/internal/log"
)

// Change is published when a Value changes.
type Change[T comparable] struct {
	Old T
	New T
}

// Value is an owned value with a change handler. A Value must not be copied
// after first use.
type Value[T comparable] struct {
	v T

	// Changed is dispatched after every Set that changed the value.
	Changed event.Handler[Change[T]]
}

// New creates a Value holding initial.
func New[T comparable](initial T) *Value[T] {
	return &Value[T]{v: initial}
}

// Get returns the current value.
func (o *Value[T]) Get() T {
	return o.v
}

// Set stores v and publishes the change. Setting the current value publishes
// nothing and returns false.
func (o *Value[T]) Set(v T) bool {
	if o.v == v {
		return false
	}
	old := o.v
	o.v = v
	log.Debug(log.CatValue, "Value changed", "old", old, "new", v, "listeners", o.Changed.Len())
	o.Changed.Dispatch(Change[T]{Old: old, New: v})
	return true
}

// Bind mirrors every later change of o into dst. Closing the returned
// listener ends the binding. Binding two values to each other is safe:
// the mirrored Set publishes nothing once both hold the same value.
func (o *Value[T]) Bind(dst *Value[T]) *event.Listener[Change[T]] {
	return o.Changed.Listen(func(c Change[T]) {
		dst.Set(c.New)
	})
}

// Close drops every listener of Changed.
func (o *Value[T]) Close() {
	o.Changed.Close()
}
