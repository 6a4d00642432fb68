package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"docassist/internal/log"
)

// Factory builds a fresh session for an id.
type Factory func(id string) (*Session, error)

// ManagerOptions bound how many sessions a Manager keeps and for how long.
type ManagerOptions struct {
	// TTL drops a session idle for longer than this; 0 keeps sessions forever.
	TTL time.Duration
	// MaxSessions evicts the least recently used sessions beyond this count; 0 means no cap.
	MaxSessions int
	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

type managedSession struct {
	session  *Session
	lastSeen time.Time
}

// Manager hands out one session per user.
type Manager struct {
	mu       sync.Mutex
	factory  Factory
	opts     ManagerOptions
	sessions map[string]*managedSession
}

func NewManager(factory Factory, opts ManagerOptions) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{factory: factory, opts: opts, sessions: make(map[string]*managedSession)}
}

// Get returns the live session for id. Any other id, including an expired one,
// gets a new session under a freshly issued id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.opts.Now()
	if ms, ok := m.sessions[id]; ok {
		if !m.expired(ms, now) {
			ms.lastSeen = now
			return ms.session, nil
		}
		delete(m.sessions, id)
	}
	s, err := m.factory(uuid.NewString())
	if err != nil {
		return nil, err
	}
	m.sessions[s.ID()] = &managedSession{session: s, lastSeen: now}
	m.evict(now, s.ID())
	return s, nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweep(m.opts.Now())
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if m.opts.TTL <= 0 {
		return
	}
	if interval <= 0 {
		interval = m.opts.TTL / 2
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				log.Info("expired sessions dropped", "count", n, "live", m.Len())
			}
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) expired(ms *managedSession, now time.Time) bool {
	return m.opts.TTL > 0 && now.Sub(ms.lastSeen) > m.opts.TTL
}

func (m *Manager) sweep(now time.Time) int {
	n := 0
	for id, ms := range m.sessions {
		if m.expired(ms, now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// evict drops expired sessions, then the least recently used ones above
// MaxSessions. The session keep is never evicted.
func (m *Manager) evict(now time.Time, keep string) {
	m.sweep(now)
	excess := len(m.sessions) - m.opts.MaxSessions
	if m.opts.MaxSessions <= 0 || excess <= 0 {
		return
	}
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		if id != keep {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.sessions[ids[i]].lastSeen.Before(m.sessions[ids[j]].lastSeen)
	})
	for _, id := range ids[:excess] {
		delete(m.sessions, id)
	}
	log.Debug("sessions evicted", "count", excess)
}
