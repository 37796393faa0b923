package session

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mth101/cbt/internal/questionbank"
	"github.com/mth101/cbt/internal/stage"
)

// Session is one exam attempt. All mutations, from user input and from the
// countdown, are serialized by mu.
type Session struct {
	id        string
	cfg       stage.Config
	questions []questionbank.Question
	startedAt time.Time
	now       func() time.Time
	log       zerolog.Logger

	mu        sync.Mutex
	pos       int
	answers   map[int]string
	flagged   map[int]bool
	remaining int
	state     State
	warned    bool
	endedAt   time.Time

	events   chan Event
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newSession(id string, cfg stage.Config, questions []questionbank.Question, now func() time.Time, log zerolog.Logger) *Session {
	return &Session{
		id:        id,
		cfg:       cfg,
		questions: questions,
		startedAt: now(),
		now:       now,
		log:       log,
		answers:   make(map[int]string),
		flagged:   make(map[int]bool),
		remaining: cfg.TimeLimit,
		state:     StateInProgress,
		events:    make(chan Event, eventBuffer),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// ID returns the attempt identifier.
func (s *Session) ID() string { return s.id }

// Stage returns the configuration the session was started with.
func (s *Session) Stage() stage.Config { return s.cfg }

// Len returns the number of questions in the session.
func (s *Session) Len() int { return len(s.questions) }

// Events returns the countdown event stream. It is closed when the
// countdown stops.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed once the countdown goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectAnswer records key as the answer for the current question,
// replacing any earlier choice.
func (s *Session) SelectAnswer(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrSessionClosed
	}
	if !s.questions[s.pos].HasOption(key) {
		return ErrInvalidOption
	}
	s.answers[s.pos] = key
	return nil
}

// ToggleFlag flips the review flag on the current question.
func (s *Session) ToggleFlag() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrSessionClosed
	}
	if s.flagged[s.pos] {
		delete(s.flagged, s.pos)
	} else {
		s.flagged[s.pos] = true
	}
	return nil
}

// GoTo moves to question i, clamped to the valid range.
func (s *Session) GoTo(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrSessionClosed
	}
	s.pos = clamp(i, 0, len(s.questions)-1)
	return nil
}

// Prev moves back one question, stopping at the first.
func (s *Session) Prev() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrSessionClosed
	}
	s.pos = clamp(s.pos-1, 0, len(s.questions)-1)
	return nil
}

// Next moves forward one question. On the last question it requests
// submission instead: the session is submitted when every question is
// answered, otherwise a *ConfirmationRequiredError is returned and nothing
// changes.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrSessionClosed
	}
	if s.pos < len(s.questions)-1 {
		s.pos++
		return nil
	}
	return s.submitLocked(false)
}

// Submit ends the session. While in progress, confirm must be true if any
// question is unanswered. A timed-out session is submitted unconditionally.
func (s *Session) Submit(confirm bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateTimedOut:
		s.state = StateSubmitted
		s.stopCountdown()
		s.log.Info().Str("attempt_id", s.id).Msg("session auto-submitted")
		return nil
	case StateInProgress:
		return s.submitLocked(confirm)
	default:
		return ErrSessionClosed
	}
}

func (s *Session) submitLocked(confirm bool) error {
	if n := len(s.questions) - len(s.answers); n > 0 && !confirm {
		return &ConfirmationRequiredError{Unanswered: n}
	}
	s.state = StateSubmitted
	s.endedAt = s.now()
	s.stopCountdown()
	s.log.Info().
		Str("attempt_id", s.id).
		Int("answered", len(s.answers)).
		Int("remaining_s", s.remaining).
		Msg("session submitted")
	return nil
}

// Abandon discards a session that has not been submitted. It is a no-op on
// terminal sessions.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitted || s.state == StateAbandoned {
		return
	}
	s.state = StateAbandoned
	s.endedAt = s.now()
	s.stopCountdown()
	s.log.Info().Str("attempt_id", s.id).Msg("session abandoned")
}

// Snapshot is a read-only view of a session for rendering.
type Snapshot struct {
	AttemptID string
	Stage     stage.Config
	State     State
	Position  int
	Total     int
	Question  questionbank.Question
	Selected  string // empty when the current question is unanswered
	Flagged   bool
	Remaining int // seconds
	Warned    bool
	Answered  []bool // indexed by position
	Flags     []bool // indexed by position
}

// AnsweredCount returns how many questions have an answer.
func (sn Snapshot) AnsweredCount() int {
	n := 0
	for _, a := range sn.Answered {
		if a {
			n++
		}
	}
	return n
}

// RemainingDuration returns Remaining as a time.Duration.
func (sn Snapshot) RemainingDuration() time.Duration {
	return time.Duration(sn.Remaining) * time.Second
}

// Snapshot returns the current presentation state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answered := make([]bool, len(s.questions))
	flags := make([]bool, len(s.questions))
	for i := range s.answers {
		answered[i] = true
	}
	for i := range s.flagged {
		flags[i] = true
	}

	return Snapshot{
		AttemptID: s.id,
		Stage:     s.cfg,
		State:     s.state,
		Position:  s.pos,
		Total:     len(s.questions),
		Question:  s.questions[s.pos],
		Selected:  s.answers[s.pos],
		Flagged:   s.flagged[s.pos],
		Remaining: s.remaining,
		Warned:    s.warned,
		Answered:  answered,
		Flags:     flags,
	}
}

// Sheet is the answer sheet handed to the grader.
type Sheet struct {
	AttemptID string
	Stage     int
	State     State
	Questions []questionbank.Question
	Answers   map[int]string
	StartedAt time.Time
	EndedAt   time.Time
}

// Unanswered returns the positions without an answer, in order.
func (sh Sheet) Unanswered() []int {
	var out []int
	for i := range sh.Questions {
		if _, ok := sh.Answers[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}

// Sheet returns a copy of the session's questions and answers.
func (s *Session) Sheet() Sheet {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions := make([]questionbank.Question, len(s.questions))
	copy(questions, s.questions)
	answers := make(map[int]string, len(s.answers))
	for i, k := range s.answers {
		answers[i] = k
	}

	return Sheet{
		AttemptID: s.id,
		Stage:     s.cfg.Number,
		State:     s.state,
		Questions: questions,
		Answers:   answers,
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
	}
}

// FlaggedPositions returns the flagged question positions in order.
func (s *Session) FlaggedPositions() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int, 0, len(s.flagged))
	for i := range s.flagged {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
