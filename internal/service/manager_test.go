package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docassist/internal/fake"
)

// clock is a manually advanced time source.
type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newManager(opts ManagerOptions) *Manager {
	return NewManager(NewFactory(Options{
		Embedder:  fake.NewEmbedder(),
		Completer: fake.NewCompleter(""),
	}), opts)
}

func TestManager_Get(t *testing.T) {
	m := newManager(ManagerOptions{})

	s1, err := m.Get("")
	require.NoError(t, err)
	_, err = uuid.Parse(s1.ID())
	require.NoError(t, err)

	again, err := m.Get(s1.ID())
	require.NoError(t, err)
	assert.Same(t, s1, again)

	s2, err := m.Get("not-a-uuid")
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", s2.ID())
	assert.NotSame(t, s1, s2)
	assert.Equal(t, 2, m.Len())
}

func TestManager_UnknownIDGetsFreshID(t *testing.T) {
	m := newManager(ManagerOptions{})
	chosen := uuid.NewString()

	s, err := m.Get(chosen)
	require.NoError(t, err)
	assert.NotEqual(t, chosen, s.ID())

	_, err = uuid.Parse(s.ID())
	assert.NoError(t, err)
}

func TestManager_IdleSessionsExpire(t *testing.T) {
	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newManager(ManagerOptions{TTL: time.Hour, Now: c.Now})

	idle, err := m.Get("")
	require.NoError(t, err)
	active, err := m.Get("")
	require.NoError(t, err)

	c.Advance(40 * time.Minute)
	_, err = m.Get(active.ID())
	require.NoError(t, err)

	c.Advance(40 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())

	same, err := m.Get(active.ID())
	require.NoError(t, err)
	assert.Same(t, active, same)

	replaced, err := m.Get(idle.ID())
	require.NoError(t, err)
	assert.NotSame(t, idle, replaced)
	assert.NotEqual(t, idle.ID(), replaced.ID())
}

func TestManager_ExpiredSessionIsReplacedOnGet(t *testing.T) {
	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newManager(ManagerOptions{TTL: time.Minute, Now: c.Now})

	s, err := m.Get("")
	require.NoError(t, err)
	c.Advance(2 * time.Minute)

	next, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.NotEqual(t, s.ID(), next.ID())
	assert.Equal(t, 1, m.Len())
}

func TestManager_CapBoundsSessions(t *testing.T) {
	m := newManager(ManagerOptions{MaxSessions: 3})
	for i := 0; i < 1000; i++ {
		_, err := m.Get("")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, m.Len())
}

func TestManager_CapEvictsLeastRecentlyUsed(t *testing.T) {
	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newManager(ManagerOptions{MaxSessions: 2, Now: c.Now})

	a, err := m.Get("")
	require.NoError(t, err)
	c.Advance(time.Second)
	b, err := m.Get("")
	require.NoError(t, err)
	c.Advance(time.Second)
	_, err = m.Get(a.ID())
	require.NoError(t, err)
	c.Advance(time.Second)
	newest, err := m.Get("")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	kept, err := m.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, kept)
	kept, err = m.Get(newest.ID())
	require.NoError(t, err)
	assert.Same(t, newest, kept)

	replaced, err := m.Get(b.ID())
	require.NoError(t, err)
	assert.NotEqual(t, b.ID(), replaced.ID())
}

func TestManager_RunSweeps(t *testing.T) {
	m := newManager(ManagerOptions{TTL: 10 * time.Millisecond})
	_, err := m.Get("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestManager_FactoryError(t *testing.T) {
	m := NewManager(func(string) (*Session, error) { return nil, errors.New("no backend") }, ManagerOptions{})
	_, err := m.Get("")
	assert.Error(t, err)
	assert.Zero(t, m.Len())
}
