package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mth101/cbt/internal/grading"
)

type slotKey struct {
	identity string
	stage    int
}

// Memory is an in-process Store. Nothing survives Close.
type Memory struct {
	mu       sync.Mutex
	results  map[slotKey]grading.Result
	attempts map[string][]grading.Result
	profiles map[string]Profile
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		results:  make(map[slotKey]grading.Result),
		attempts: make(map[string][]grading.Result),
		profiles: make(map[string]Profile),
	}
}

func (m *Memory) GetResult(_ context.Context, identity string, stage int) (*grading.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.results[slotKey{identity, stage}]
	if !ok {
		return nil, nil
	}
	r.Topics = cloneTopics(r.Topics)
	return &r, nil
}

func (m *Memory) PutResult(_ context.Context, identity string, r grading.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.Topics = cloneTopics(r.Topics)
	m.results[slotKey{identity, r.Stage}] = r
	return nil
}

func (m *Memory) DeleteResults(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.results {
		if k.identity == identity {
			delete(m.results, k)
		}
	}
	delete(m.attempts, identity)
	return nil
}

func (m *Memory) AppendAttempt(_ context.Context, identity string, r grading.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.Topics = cloneTopics(r.Topics)
	log := m.attempts[identity]
	for i := range log {
		if r.AttemptID != "" && log[i].AttemptID == r.AttemptID {
			log[i] = r
			return nil
		}
	}
	m.attempts[identity] = append(log, r)
	return nil
}

func (m *Memory) Attempts(_ context.Context, identity string, limit int) ([]grading.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.attempts[identity]
	out := make([]grading.Result, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, src[i])
	}
	return out, nil
}

func (m *Memory) SaveProfile(_ context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.LastSeen.IsZero() {
		p.LastSeen = time.Now()
	}
	m.profiles[p.Name] = p
	return nil
}

func (m *Memory) LastProfile(ctx context.Context) (*Profile, error) {
	ps, _ := m.ListProfiles(ctx)
	if len(ps) == 0 {
		return nil, nil
	}
	return &ps[0], nil
}

func (m *Memory) ListProfiles(_ context.Context) ([]Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func cloneTopics(in map[string]grading.TopicStat) map[string]grading.TopicStat {
	if in == nil {
		return nil
	}
	out := make(map[string]grading.TopicStat, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
