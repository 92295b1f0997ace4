package fsm

// ActionState is a State built from functions.
type ActionState struct {
	// Done is a ready-made transition for the state's tick function to return.
	Done Transition

	name      string
	tick      func() *Transition
	activated func(*Transition)
}

// ActionOption configures an ActionState.
type ActionOption func(*ActionState)

// WithActivated sets the callback run when the state becomes current.
func WithActivated(fn func(by *Transition)) ActionOption {
	return func(s *ActionState) {
		s.activated = fn
	}
}

// WithName names the state for logs.
func WithName(name string) ActionOption {
	return func(s *ActionState) {
		s.name = name
	}
}

// NewActionState creates a state whose Tick calls tick.
func NewActionState(tick func() *Transition, opts ...ActionOption) *ActionState {
	s := &ActionState{tick: tick}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ActionState) Tick() *Transition {
	if s.tick == nil {
		return NotChanged
	}
	return s.tick()
}

func (s *ActionState) Activated(by *Transition) {
	if s.activated != nil {
		s.activated(by)
	}
}

func (s *ActionState) Name() string {
	return s.name
}
