// Package fsm provides a tick-driven finite-state machine that publishes its
// transitions through the event registry.
//
// Each tick asks the current State for a Transition. The sentinel NotChanged
// keeps the current state, Exit stops the machine, and any other transition
// switches to the state it is linked to. A transition linked to no state
// stops the machine and clears its current state.
package fsm

import (
	"errors"

	"github.com/zjrosen/eventlink/internal/event"
	"github.com/zjrosen/eventlink/internal/log"
)

// ErrNilState is returned when a nil state is made current.
var ErrNilState = errors.New("fsm: nil state")

// State is one node of a Machine.
type State interface {
	// Tick runs the state once and returns the transition to follow.
	// Returning nil is the same as returning NotChanged.
	Tick() *Transition

	// Activated is called after the machine switched to this state.
	Activated(by *Transition)
}

// Named is implemented by states that want a readable name in logs and CLI
// output.
type Named interface {
	Name() string
}

// Transition links a state's outcome to the state that should run next.
type Transition struct {
	target State
}

// SwitchTo links the transition to s.
func (t *Transition) SwitchTo(s State) {
	t.target = s
}

// Clear removes the link. Following an unlinked transition stops the machine
// and leaves it without a current state.
func (t *Transition) Clear() {
	t.target = nil
}

// Target returns the linked state, or nil.
func (t *Transition) Target() State {
	return t.target
}

// Sentinel transitions. Their links are never followed.
var (
	NotChanged = &Transition{}
	Exit       = &Transition{}
)

// Change describes one published state switch.
type Change struct {
	From State
	To   State
	Via  *Transition
}

// Machine runs one State per Tick. A Machine must not be copied after first
// use.
type Machine struct {
	current State
	running bool

	// Transitioned is dispatched after every switch, once the new state has
	// been activated.
	Transitioned event.Handler[Change]

	// Stopped is dispatched once each time the machine stops running.
	Stopped event.Handler[struct{}]
}

// New creates a machine with no current state. It does not run until
// SetCurrent is called.
func New() *Machine {
	return &Machine{}
}

// SetCurrent makes s the current state. Setting a state on a machine with no
// current state starts it; otherwise only the state is replaced.
func (m *Machine) SetCurrent(s State) error {
	if s == nil {
		return ErrNilState
	}
	if m.current == nil {
		m.running = true
	}
	m.current = s
	return nil
}

// Current returns the current state, or nil.
func (m *Machine) Current() State {
	return m.current
}

// Running reports whether Tick will run the current state.
func (m *Machine) Running() bool {
	return m.running
}

// Exit stops the machine.
func (m *Machine) Exit() {
	if m.running {
		m.stop()
	}
}

// Tick runs the current state once and follows the transition it returns.
// Ticking a stopped machine does nothing.
func (m *Machine) Tick() {
	if !m.running {
		return
	}

	t := m.current.Tick()
	switch t {
	case nil, NotChanged:
		return
	case Exit:
		m.stop()
		return
	}

	next := t.target
	if next == nil {
		// Following an unlinked transition leaves no current state, so the
		// next SetCurrent starts the machine again.
		log.Debug(log.CatFSM, "Transition has no target, stopping", "from", NameOf(m.current))
		m.current = nil
		m.stop()
		return
	}

	from := m.current
	m.current = next
	log.Debug(log.CatFSM, "Switched state", "from", NameOf(from), "to", NameOf(next))

	next.Activated(t)
	m.Transitioned.Dispatch(Change{From: from, To: next, Via: t})
}

// Close drops every listener of the machine's handlers.
func (m *Machine) Close() {
	m.Transitioned.Close()
	m.Stopped.Close()
}

func (m *Machine) stop() {
	m.running = false
	log.Debug(log.CatFSM, "Machine stopped", "state", NameOf(m.current))
	m.Stopped.Dispatch(struct{}{})
}

// NameOf returns the state's name when it implements Named, or "?".
func NameOf(s State) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return "?"
}
