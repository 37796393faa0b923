package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mth101/cbt/internal/questionbank"
	"github.com/mth101/cbt/internal/stage"
)

// Engine starts exam sessions and owns the single active one.
type Engine struct {
	catalog   stage.Catalog
	repo      questionbank.Repository
	newTicker TickerFunc
	now       func() time.Time
	log       zerolog.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	active *Session
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for question selection.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithSeed makes question selection reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// WithTicker replaces the countdown ticker factory.
func WithTicker(f TickerFunc) Option {
	return func(e *Engine) { e.newTicker = f }
}

// WithClock replaces the wall clock used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an Engine over catalog and repo.
func NewEngine(catalog stage.Catalog, repo questionbank.Repository, opts ...Option) *Engine {
	e := &Engine{
		catalog:   catalog,
		repo:      repo,
		newTicker: NewTimeTicker,
		now:       time.Now,
		log:       zerolog.Nop(),
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("component", "session").Logger()
	return e
}

// Catalog returns the engine's stage catalog.
func (e *Engine) Catalog() stage.Catalog { return e.catalog }

// Start begins a new attempt at stage number. Questions are drawn uniformly
// without replacement from the stage's difficulty pool. A successful start
// abandons any session still active. The countdown runs until the session
// ends or ctx is cancelled.
func (e *Engine) Start(ctx context.Context, number int) (*Session, error) {
	cfg, err := e.catalog.Lookup(number)
	if err != nil {
		return nil, err
	}

	pool, err := e.repo.Pool(cfg.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("load %s pool: %w", cfg.Difficulty, err)
	}
	if len(pool) < cfg.Questions {
		return nil, &InsufficientQuestionsError{
			Difficulty: cfg.Difficulty,
			Have:       len(pool),
			Need:       cfg.Questions,
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		e.active.Abandon()
	}

	perm := e.rng.Perm(len(pool))
	picked := make([]questionbank.Question, cfg.Questions)
	for i := range picked {
		picked[i] = pool[perm[i]]
	}

	s := newSession(uuid.NewString(), cfg, picked, e.now, e.log)
	e.active = s
	go s.run(ctx, e.newTicker(TickInterval))

	e.log.Info().
		Str("attempt_id", s.id).
		Int("stage", cfg.Number).
		Str("difficulty", string(cfg.Difficulty)).
		Int("questions", cfg.Questions).
		Int("time_limit_s", cfg.TimeLimit).
		Msg("session started")
	return s, nil
}

// Active returns the current session, or nil.
func (e *Engine) Active() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Abandon discards the active session, if any, without grading it.
func (e *Engine) Abandon() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		e.active.Abandon()
		e.active = nil
	}
}
