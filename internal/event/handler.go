// Package event provides a synchronous, bidirectional publish/subscribe registry.
//
// A Handler publishes to an ordered set of Listeners and every Listener keeps
// a back-reference to each Handler it is registered with, so either side can
// be closed, moved or copied without leaving a dangling edge behind. Listeners
// may subscribe or unsubscribe themselves or their siblings from inside a
// callback: mutations requested during a dispatch pass are queued and
// committed once the pass completes.
//
// Handlers and Listeners are not safe for concurrent use. Callers that share
// them across goroutines must provide their own locking.
//
// Go has no variadic type parameters, so the dispatch arguments are a single
// type T. Use a struct for several arguments, struct{} for none, and a pointer
// when listeners should observe or mutate caller-owned state.
package event

import "slices"

// Handler is the publishing side of the registry. The zero value is an idle
// handler with no listeners.
//
// Listeners refer back to a Handler by address, so a Handler must not be
// copied after first use. Use Clone or CopyFrom for a second handler with the
// same listeners, and Move or MoveFrom to relocate one.
type Handler[T any] struct {
	_ noCopy

	// listeners is the visible sequence, in registration order. It only
	// changes in place (never grows or shrinks) while a pass is running.
	listeners []*Listener[T]

	// pendingAdd and pendingRemove hold registration changes requested while
	// dispatching. Both are empty whenever depth is zero.
	pendingAdd    []*Listener[T]
	pendingRemove []*Listener[T]

	// depth counts active dispatch passes, including nested ones.
	depth int
}

// NewHandler creates an idle handler with no listeners.
func NewHandler[T any]() *Handler[T] {
	return &Handler[T]{}
}

// Subscribe registers l with the handler. Subscribing a listener that is
// already registered has no effect. While a dispatch is in progress the
// listener becomes visible only once the pass completes.
func (h *Handler[T]) Subscribe(l *Listener[T]) {
	if l == nil {
		return
	}
	if h.attach(l) {
		l.link(h)
	}
}

// Unsubscribe removes l from the handler. Unsubscribing a listener that was
// never registered is a no-op. While a dispatch is in progress the listener
// is still visited by the current pass and removed once it completes.
func (h *Handler[T]) Unsubscribe(l *Listener[T]) {
	if l == nil {
		return
	}
	h.detach(l)
	l.unlink(h)
}

// Listen creates a listener for callback, subscribes it and returns it.
// Close the returned listener to cancel the subscription.
func (h *Handler[T]) Listen(callback func(T)) *Listener[T] {
	l := NewListener(callback)
	h.Subscribe(l)
	return l
}

// Dispatch invokes every registered listener with arg, in registration
// order. Listeners added during the pass are not visited; listeners removed
// during the pass still are. Pending registration changes are committed when
// the outermost pass returns, including when a callback panics.
func (h *Handler[T]) Dispatch(arg T) {
	h.depth++
	defer h.finish()

	n := len(h.listeners)
	for i := 0; i < n && i < len(h.listeners); i++ {
		h.listeners[i].Invoke(arg)
	}
}

// Dispatching reports whether a dispatch pass is in progress.
func (h *Handler[T]) Dispatching() bool {
	return h.depth > 0
}

// Len returns the number of registered listeners. Queued subscriptions are
// counted and queued removals are not.
func (h *Handler[T]) Len() int {
	return len(h.members())
}

// Has reports whether l is registered with the handler.
func (h *Handler[T]) Has(l *Listener[T]) bool {
	return l != nil && slices.Contains(h.members(), l)
}

// Close removes the handler from every listener it holds and leaves it empty.
// Closing a handler from inside its own dispatch stops the remaining pass.
// A closed handler can be reused.
func (h *Handler[T]) Close() {
	for _, l := range h.members() {
		l.unlink(h)
	}
	h.listeners, h.pendingAdd, h.pendingRemove = nil, nil, nil
}

// Move transfers every edge of h to a new handler and returns it. Afterwards
// h has no listeners and dispatches to nobody.
func (h *Handler[T]) Move() *Handler[T] {
	dst := &Handler[T]{}
	dst.MoveFrom(h)
	return dst
}

// MoveFrom releases h's own edges and takes over src's listeners, keeping
// their order. Each listener's back-reference is rewritten from src to h and
// src is left empty.
func (h *Handler[T]) MoveFrom(src *Handler[T]) {
	if src == nil || src == h {
		return
	}
	h.Close()

	// Queued changes belong to src's running pass; settle them so the
	// transferred list matches the edges the listeners actually hold.
	src.commit()
	moved := src.listeners
	src.listeners = nil

	for _, l := range moved {
		l.relink(src, h)
	}
	if h.depth > 0 {
		h.pendingAdd = moved
		return
	}
	h.listeners = moved
}

// Clone returns a new handler registered with every listener of h. The
// listeners of h are untouched.
func (h *Handler[T]) Clone() *Handler[T] {
	dst := &Handler[T]{}
	dst.CopyFrom(h)
	return dst
}

// CopyFrom releases h's own edges and registers h with every listener of
// src, in src's order. src is untouched.
func (h *Handler[T]) CopyFrom(src *Handler[T]) {
	if src == nil || src == h {
		return
	}
	h.Close()
	for _, l := range src.members() {
		h.Subscribe(l)
	}
}

func (h *Handler[T]) finish() {
	h.depth--
	if h.depth == 0 {
		h.commit()
	}
}

func (h *Handler[T]) commit() {
	for _, l := range h.pendingRemove {
		h.listeners, _ = removeFirst(h.listeners, l)
	}
	for _, l := range h.pendingAdd {
		h.listeners, _ = appendUnique(h.listeners, l)
	}
	h.pendingAdd, h.pendingRemove = nil, nil
}

// members returns the listeners holding an edge to h, visible ones first.
func (h *Handler[T]) members() []*Listener[T] {
	out := make([]*Listener[T], 0, len(h.listeners)+len(h.pendingAdd))
	for _, l := range h.listeners {
		if !slices.Contains(h.pendingRemove, l) {
			out = append(out, l)
		}
	}
	return append(out, h.pendingAdd...)
}

// attach records l on the handler side and reports whether a new edge was
// created.
func (h *Handler[T]) attach(l *Listener[T]) bool {
	if h.depth == 0 {
		var added bool
		h.listeners, added = appendUnique(h.listeners, l)
		return added
	}

	var cancelled bool
	if h.pendingRemove, cancelled = removeFirst(h.pendingRemove, l); cancelled {
		return true
	}
	if slices.Contains(h.listeners, l) {
		return false
	}
	var queued bool
	h.pendingAdd, queued = appendUnique(h.pendingAdd, l)
	return queued
}

// detach drops l on the handler side only.
func (h *Handler[T]) detach(l *Listener[T]) {
	if h.depth == 0 {
		h.listeners, _ = removeFirst(h.listeners, l)
		return
	}

	var cancelled bool
	if h.pendingAdd, cancelled = removeFirst(h.pendingAdd, l); cancelled {
		return
	}
	if slices.Contains(h.listeners, l) {
		h.pendingRemove, _ = appendUnique(h.pendingRemove, l)
	}
}

// replace hands old's registration to v, keeping old's position.
func (h *Handler[T]) replace(old, v *Listener[T]) {
	if r := slices.Index(h.pendingRemove, v); r >= 0 {
		// v was released during this pass but is still visible. Swap slots so
		// the queued removal retires old and v ends up where old was.
		if i := slices.Index(h.listeners, old); i >= 0 {
			k := slices.Index(h.listeners, v)
			h.listeners[i], h.listeners[k] = v, old
			h.pendingRemove[r] = old
			return
		}
		h.pendingRemove = slices.Delete(h.pendingRemove, r, r+1)
		h.pendingAdd, _ = removeFirst(h.pendingAdd, old)
		return
	}
	if !replaceFirst(h.listeners, old, v) {
		replaceFirst(h.pendingAdd, old, v)
	}
}
