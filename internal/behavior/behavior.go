// Package behavior implements a small tick-driven behaviour tree.
//
// Control nodes run one child per tick, so a tree of N leaves takes several
// ticks to settle. The Tree publishes every tick result and every completion
// through event handlers.
package behavior

import (
	"github.com/zjrosen/eventlink/internal/event"
	"github.com/zjrosen/eventlink/internal/log"
)

// Status is the result of ticking a node.
type Status int

const (
	Failure Status = iota
	Running
	Success
)

func (s Status) String() string {
	switch s {
	case Failure:
		return "failure"
	case Running:
		return "running"
	case Success:
		return "success"
	default:
		return "unknown"
	}
}

// Node is anything that can be ticked.
type Node interface {
	Tick() Status
}

// Action is a leaf node backed by a function.
type Action func() Status

// Tick calls the function. A nil Action fails.
func (a Action) Tick() Status {
	if a == nil {
		return Failure
	}
	return a()
}

type control struct {
	current  int
	children []Node
}

func (c *control) add(children []Node) {
	for _, child := range children {
		if child != nil {
			c.children = append(c.children, child)
		}
	}
}

// Sequence succeeds once every child has succeeded, in order, and fails as
// soon as one child fails.
type Sequence struct {
	control
}

// NewSequence creates a sequence with the given children.
func NewSequence(children ...Node) *Sequence {
	s := &Sequence{}
	s.add(children)
	return s
}

// Add appends children and returns the sequence.
func (s *Sequence) Add(children ...Node) *Sequence {
	s.add(children)
	return s
}

func (s *Sequence) Tick() Status {
	if s.current >= len(s.children) {
		s.current = 0
		return Failure
	}

	switch s.children[s.current].Tick() {
	case Failure:
		s.current = 0
		return Failure
	case Success:
		s.current++
		if s.current >= len(s.children) {
			s.current = 0
			return Success
		}
	}
	return Running
}

// Fallback succeeds as soon as one child succeeds and fails once every child
// has failed.
type Fallback struct {
	control
}

// NewFallback creates a fallback with the given children.
func NewFallback(children ...Node) *Fallback {
	f := &Fallback{}
	f.add(children)
	return f
}

// Add appends children and returns the fallback.
func (f *Fallback) Add(children ...Node) *Fallback {
	f.add(children)
	return f
}

func (f *Fallback) Tick() Status {
	if f.current >= len(f.children) {
		f.current = 0
		return Failure
	}

	switch f.children[f.current].Tick() {
	case Success:
		f.current = 0
		return Success
	case Failure:
		f.current++
		if f.current >= len(f.children) {
			f.current = 0
			return Failure
		}
	}
	return Running
}

// Tree owns a root node and publishes tick results. A Tree must not be copied
// after first use.
type Tree struct {
	root Node

	// Ticked is dispatched with the result of every tick.
	Ticked event.Handler[Status]

	// Completed is dispatched whenever the root settles on Success or Failure.
	Completed event.Handler[Status]
}

// NewTree creates a tree with the given root, which may be nil.
func NewTree(root Node) *Tree {
	return &Tree{root: root}
}

// SetRoot replaces the root node.
func (t *Tree) SetRoot(root Node) {
	t.root = root
}

// Root returns the root node, or nil.
func (t *Tree) Root() Node {
	return t.root
}

// Tick ticks the root once. A tree without a root fails.
func (t *Tree) Tick() Status {
	status := Failure
	if t.root != nil {
		status = t.root.Tick()
	}

	t.Ticked.Dispatch(status)
	if status != Running {
		log.Debug(log.CatTree, "Tree completed", "status", status)
		t.Completed.Dispatch(status)
	}
	return status
}

// Run ticks until the tree stops reporting Running or maxTicks ticks have
// run. It returns the last status and the number of ticks.
func (t *Tree) Run(maxTicks int) (Status, int) {
	status, ticks := Running, 0
	for status == Running && ticks < maxTicks {
		status = t.Tick()
		ticks++
	}
	return status, ticks
}

// Close drops every listener of the tree's handlers.
func (t *Tree) Close() {
	t.Ticked.Close()
	t.Completed.Close()
}
