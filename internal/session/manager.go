// Package session tracks one in-progress conversation flow per user.
//
// Every user has at most one active session. Dispatch routes an incoming
// event to the handler of the session's current state under a per-user lock,
// so two events for the same user can never race into two different state
// transitions. Distinct users proceed independently.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m3rciful/wallbot/internal/logger"
	"log/slog"
)

// State identifies a step of a multi-step conversation flow.
type State string

const (
	// StateAwaitingSecret waits for the operator shared secret.
	StateAwaitingSecret State = "awaiting_secret"
	// StateAwaitingPhoto waits for the wallpaper photo during upload.
	StateAwaitingPhoto State = "awaiting_photo"
	// StateAwaitingVisibility waits for the publish-all/publish-vip choice.
	StateAwaitingVisibility State = "awaiting_visibility"
)

// Session is the transient state of one user's active flow. Handlers may
// mutate it only while their Dispatch call holds the user's lock.
type Session struct {
	Owner int64
	State State
	// PendingFileID carries the uploaded photo handle between the photo
	// and visibility steps.
	PendingFileID string

	deadline time.Time
	ended    bool
}

// Transition moves the session to the next state and renews its deadline.
func (s *Session) Transition(st State) {
	s.State = st
	s.ended = false
}

// End marks the session for destruction once the current handler returns.
// Terminal transitions always end the session, including failures.
func (s *Session) End() {
	s.ended = true
}

// HandlerFunc processes one event for a session in a given state.
type HandlerFunc[E any] func(ctx context.Context, s *Session, ev E) error

// Manager owns the per-user session table and dispatches events to state
// handlers. Handlers are registered on the instance by the owning service;
// there is no global handler table.
type Manager[E any] struct {
	ttl      time.Duration
	handlers map[State]HandlerFunc[E]
	now      func() time.Time

	mu    sync.RWMutex
	slots map[int64]*slot
}

// slot serializes all session access for one user. Slots are never removed:
// the footprint is one small struct per user ever seen, and keeping them
// avoids delete/lock races on the table.
type slot struct {
	mu   sync.Mutex
	sess *Session
}

// NewManager creates a Manager whose sessions expire after ttl.
func NewManager[E any](ttl time.Duration) *Manager[E] {
	return &Manager[E]{
		ttl:      ttl,
		handlers: make(map[State]HandlerFunc[E]),
		now:      time.Now,
		slots:    make(map[int64]*slot),
	}
}

// Handle associates a state with its handler. Registration happens during
// service construction, before any dispatching.
func (m *Manager[E]) Handle(st State, h HandlerFunc[E]) {
	if h == nil {
		return
	}
	m.handlers[st] = h
}

func (m *Manager[E]) slot(userID int64) *slot {
	m.mu.RLock()
	sl, ok := m.slots[userID]
	m.mu.RUnlock()
	if ok {
		return sl
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if sl, ok = m.slots[userID]; ok {
		return sl
	}
	sl = &slot{}
	m.slots[userID] = sl
	return sl
}

// Begin starts a new session for the user in the given state. An existing
// session is replaced: last write wins, flows never queue.
func (m *Manager[E]) Begin(ctx context.Context, userID int64, st State) {
	sl := m.slot(userID)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.sess != nil {
		logger.Debug(ctx, "session", "session.replace",
			slog.Int64("user_id", userID),
			slog.String("state", string(sl.sess.State)),
			slog.String("next", string(st)),
		)
	}
	sl.sess = &Session{
		Owner:    userID,
		State:    st,
		deadline: m.now().Add(m.ttl),
	}
}

// Active reports whether the user currently has a live session.
func (m *Manager[E]) Active(userID int64) bool {
	sl := m.slot(userID)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.sess != nil && !m.expired(sl.sess)
}

// Dispatch routes the event to the handler of the user's current session
// state. It reports false when no live session exists, in which case the
// caller falls through to command matching. When a session exists the event
// is always claimed, even if the handler ignores its kind: absorbing
// unexpected events keeps them away from the command matcher.
func (m *Manager[E]) Dispatch(ctx context.Context, userID int64, ev E) (bool, error) {
	sl := m.slot(userID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	s := sl.sess
	if s == nil {
		return false, nil
	}
	if m.expired(s) {
		logger.Info(ctx, "session", "session.expired",
			slog.Int64("user_id", userID),
			slog.String("state", string(s.State)),
		)
		sl.sess = nil
		return false, nil
	}

	h, ok := m.handlers[s.State]
	if !ok {
		// A session in a state without a handler is a state-machine bug,
		// not a user error.
		sl.sess = nil
		logger.Error(ctx, "session", "session.state.unreachable",
			slog.Int64("user_id", userID),
			slog.String("state", string(s.State)),
		)
		return true, fmt.Errorf("session: no handler for state %q", s.State)
	}

	err := h(ctx, s, ev)
	if s.ended {
		sl.sess = nil
	} else {
		s.deadline = m.now().Add(m.ttl)
	}
	return true, err
}

func (m *Manager[E]) expired(s *Session) bool {
	return m.ttl > 0 && m.now().After(s.deadline)
}
