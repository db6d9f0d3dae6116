package dialog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nickname-notifier/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestSessions(ttl time.Duration) (*Sessions, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewSessions(ttl)
	s.now = clock.Now
	return s, clock
}

func TestSessions_DefaultIsIdle(t *testing.T) {
	s, _ := newTestSessions(time.Minute)

	assert.Equal(t, StateIdle, s.Get(1).State)
	assert.Zero(t, s.Len())
}

func TestSessions_SetGetClear(t *testing.T) {
	s, _ := newTestSessions(time.Minute)

	s.Set(1, Session{State: StateAwaitTargetNickname, TargetRole: model.RoleAdmin})
	got := s.Get(1)
	assert.Equal(t, StateAwaitTargetNickname, got.State)
	assert.Equal(t, model.RoleAdmin, got.TargetRole)
	assert.Equal(t, StateIdle, s.Get(2).State)

	assert.True(t, s.Clear(1))
	assert.False(t, s.Clear(1))
	assert.Equal(t, StateIdle, s.Get(1).State)
}

func TestSessions_SetIdleRemoves(t *testing.T) {
	s, _ := newTestSessions(time.Minute)

	s.Set(1, Session{State: StateAwaitNickname})
	s.Set(1, Session{State: StateIdle})
	assert.Zero(t, s.Len())
}

func TestSessions_Expiry(t *testing.T) {
	s, clock := newTestSessions(time.Minute)

	s.Set(1, Session{State: StateAwaitNickname})
	s.Set(2, Session{State: StateAwaitRemoveNickname})

	clock.now = clock.now.Add(30 * time.Second)
	s.Set(2, Session{State: StateAwaitRemoveNickname})

	clock.now = clock.now.Add(45 * time.Second)
	assert.Equal(t, StateIdle, s.Get(1).State)
	assert.Equal(t, StateAwaitRemoveNickname, s.Get(2).State)

	clock.now = clock.now.Add(time.Minute)
	assert.False(t, s.Clear(2))
}

func TestSessions_Sweep(t *testing.T) {
	s, clock := newTestSessions(time.Minute)

	s.Set(1, Session{State: StateAwaitNickname})
	s.Set(2, Session{State: StateAwaitNickname})
	clock.now = clock.now.Add(2 * time.Minute)
	s.Set(3, Session{State: StateAwaitNickname})

	assert.Equal(t, 2, s.Sweep())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, StateAwaitNickname, s.Get(3).State)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "await_role_choice", StateAwaitRoleChoice.String())
	assert.Equal(t, "unknown", State(42).String())
}
