package dialog

import (
	"sync"
	"time"

	"nickname-notifier/internal/model"
)

// State is the position of a chat inside a multi-step command.
type State int

const (
	StateIdle State = iota
	StateAwaitNickname
	StateAwaitRoleChoice
	StateAwaitTargetNickname
	StateAwaitRemoveNickname
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitNickname:
		return "await_nickname"
	case StateAwaitRoleChoice:
		return "await_role_choice"
	case StateAwaitTargetNickname:
		return "await_target_nickname"
	case StateAwaitRemoveNickname:
		return "await_remove_nickname"
	default:
		return "unknown"
	}
}

// Session is the progress of one chat. TargetRole is set only in
// StateAwaitTargetNickname.
type Session struct {
	State      State
	TargetRole model.Role
	UpdatedAt  time.Time
}

// Sessions keeps at most one Session per chat in memory. A session that was
// not touched for longer than the TTL is treated as abandoned.
type Sessions struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	byChat map[int64]Session
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:    ttl,
		now:    time.Now,
		byChat: make(map[int64]Session),
	}
}

// Get returns the chat's session, or an idle one when there is none.
func (s *Sessions) Get(chatID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byChat[chatID]
	if !ok {
		return Session{State: StateIdle}
	}
	if s.expired(sess) {
		delete(s.byChat, chatID)
		return Session{State: StateIdle}
	}
	return sess
}

// Set stores sess for the chat. Storing an idle session removes it.
func (s *Sessions) Set(chatID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.State == StateIdle {
		delete(s.byChat, chatID)
		return
	}
	sess.UpdatedAt = s.now()
	s.byChat[chatID] = sess
}

// Clear drops the chat's session and reports whether an active one existed.
func (s *Sessions) Clear(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byChat[chatID]
	delete(s.byChat, chatID)
	return ok && !s.expired(sess)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for chatID, sess := range s.byChat {
		if s.expired(sess) {
			delete(s.byChat, chatID)
			removed++
		}
	}
	return removed
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byChat)
}

func (s *Sessions) expired(sess Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl
}
