package event

// Listener is the subscribing side of the registry. It holds one callback
// and a back-reference to every Handler it is registered with. The zero value
// is a listener with no callback and no edges.
//
// Handlers refer back to a Listener by address, so a Listener must not be
// copied after first use. Use Clone or CopyFrom to duplicate its
// registrations, and Move or MoveFrom to relocate them.
type Listener[T any] struct {
	_ noCopy

	callback func(T)
	handlers []*Handler[T]
}

// NewListener creates a listener that forwards dispatches to callback.
func NewListener[T any](callback func(T)) *Listener[T] {
	return &Listener[T]{callback: callback}
}

// SetCallback replaces the callback. Registrations are unaffected.
func (l *Listener[T]) SetCallback(callback func(T)) {
	l.callback = callback
}

// Invoke calls the current callback with arg. A nil callback does nothing.
func (l *Listener[T]) Invoke(arg T) {
	if l.callback != nil {
		l.callback(arg)
	}
}

// Len returns the number of handlers the listener is registered with.
func (l *Listener[T]) Len() int {
	return len(l.handlers)
}

// SubscribedTo reports whether the listener is registered with h.
func (l *Listener[T]) SubscribedTo(h *Handler[T]) bool {
	for _, held := range l.handlers {
		if held == h {
			return true
		}
	}
	return false
}

// Close unregisters the listener from every handler it is linked to. If one
// of those handlers is dispatching, the removal is queued like an
// Unsubscribe. Close is idempotent and the listener can be reused.
func (l *Listener[T]) Close() {
	handlers := l.handlers
	l.handlers = nil
	for _, h := range handlers {
		h.detach(l)
	}
}

// Move transfers the callback and every edge of l to a new listener and
// returns it. The new listener takes l's position in each handler, so
// dispatch order is preserved. l is left empty.
func (l *Listener[T]) Move() *Listener[T] {
	dst := &Listener[T]{}
	dst.MoveFrom(l)
	return dst
}

// MoveFrom releases l's own edges, then takes over src's callback and
// registrations in place. src is left with no callback and no edges.
func (l *Listener[T]) MoveFrom(src *Listener[T]) {
	if src == nil || src == l {
		return
	}
	l.Close()

	l.callback, src.callback = src.callback, nil
	handlers := src.handlers
	src.handlers = nil
	for _, h := range handlers {
		h.replace(src, l)
		l.link(h)
	}
}

// Clone returns a new listener with the same callback, registered as an
// additional subscriber of every handler l is registered with. The two
// registrations are independent.
func (l *Listener[T]) Clone() *Listener[T] {
	dst := &Listener[T]{}
	dst.CopyFrom(l)
	return dst
}

// CopyFrom releases l's own edges, copies src's callback and subscribes l to
// every handler src is registered with. src is untouched.
func (l *Listener[T]) CopyFrom(src *Listener[T]) {
	if src == nil || src == l {
		return
	}
	l.Close()

	l.callback = src.callback
	for _, h := range src.handlers {
		h.Subscribe(l)
	}
}

func (l *Listener[T]) link(h *Handler[T]) {
	l.handlers, _ = appendUnique(l.handlers, h)
}

func (l *Listener[T]) unlink(h *Handler[T]) {
	l.handlers, _ = removeFirst(l.handlers, h)
}

// relink rewrites the back-reference to old so it points at h instead.
func (l *Listener[T]) relink(old, h *Handler[T]) {
	if !replaceFirst(l.handlers, old, h) {
		l.link(h)
	}
}
