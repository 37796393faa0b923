package session

// State is the lifecycle state of an exam session.
type State int

const (
	StateInProgress State = iota // Accepting answers, countdown running
	StateTimedOut                // Countdown reached zero, awaiting auto-submit
	StateSubmitted               // Terminal, ready for grading
	StateAbandoned               // Terminal, discarded without grading
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateTimedOut:
		return "timed_out"
	case StateSubmitted:
		return "submitted"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Gradable reports whether a session in this state may be graded.
func (s State) Gradable() bool {
	return s == StateSubmitted || s == StateTimedOut
}

// EventKind identifies a countdown event.
type EventKind int

const (
	EventTick EventKind = iota
	EventWarning
	EventTimedOut
)

func (k EventKind) String() string {
	switch k {
	case EventTick:
		return "tick"
	case EventWarning:
		return "warning"
	case EventTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Event is published by the countdown once per elapsed second.
type Event struct {
	Kind      EventKind
	Remaining int // seconds left after this tick
}
