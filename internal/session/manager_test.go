package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

type testEvent struct {
	text string
}

func newTestManager(ttl time.Duration) *Manager[testEvent] {
	return NewManager[testEvent](ttl)
}

func TestDispatchWithoutSessionFallsThrough(t *testing.T) {
	m := newTestManager(time.Minute)
	m.Handle(StateAwaitingSecret, func(ctx context.Context, s *Session, ev testEvent) error {
		t.Fatal("handler fired without a session")
		return nil
	})
	handled, err := m.Dispatch(context.Background(), 1, testEvent{text: "hi"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if handled {
		t.Fatal("event claimed without a session")
	}
}

func TestDispatchClaimsUnexpectedEvents(t *testing.T) {
	m := newTestManager(time.Minute)
	var calls int
	m.Handle(StateAwaitingPhoto, func(ctx context.Context, s *Session, ev testEvent) error {
		calls++
		// Handler ignores the event kind; session stays open.
		return nil
	})
	ctx := context.Background()
	m.Begin(ctx, 1, StateAwaitingPhoto)

	for i := 0; i < 3; i++ {
		handled, err := m.Dispatch(ctx, 1, testEvent{text: "not a photo"})
		if err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if !handled {
			t.Fatal("active session must claim every event")
		}
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if !m.Active(1) {
		t.Fatal("session destroyed by absorbed events")
	}
}

func TestBeginReplacesActiveSession(t *testing.T) {
	m := newTestManager(time.Minute)
	var secretCalls, photoCalls int
	m.Handle(StateAwaitingSecret, func(ctx context.Context, s *Session, ev testEvent) error {
		secretCalls++
		s.End()
		return nil
	})
	m.Handle(StateAwaitingPhoto, func(ctx context.Context, s *Session, ev testEvent) error {
		photoCalls++
		s.End()
		return nil
	})

	ctx := context.Background()
	m.Begin(ctx, 1, StateAwaitingSecret)
	m.Begin(ctx, 1, StateAwaitingPhoto)

	if _, err := m.Dispatch(ctx, 1, testEvent{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if secretCalls != 0 {
		t.Fatal("stale handler fired after session replacement")
	}
	if photoCalls != 1 {
		t.Fatalf("photoCalls = %d, want 1", photoCalls)
	}
	if m.Active(1) {
		t.Fatal("terminal transition left the session alive")
	}

	// The replaced flow is gone for good: nothing left to dispatch to.
	handled, err := m.Dispatch(ctx, 1, testEvent{})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if handled {
		t.Fatal("destroyed session claimed an event")
	}
}

func TestTerminalFailureDestroysSession(t *testing.T) {
	m := newTestManager(time.Minute)
	m.Handle(StateAwaitingSecret, func(ctx context.Context, s *Session, ev testEvent) error {
		// Wrong secret: single-shot, no retry within the flow.
		s.End()
		return nil
	})
	ctx := context.Background()
	m.Begin(ctx, 1, StateAwaitingSecret)
	if _, err := m.Dispatch(ctx, 1, testEvent{text: "wrong"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if m.Active(1) {
		t.Fatal("failed login left the session open")
	}
}

func TestConcurrentUsersResolveIndependently(t *testing.T) {
	m := newTestManager(time.Minute)
	results := make(map[int64]string)
	var resultsMu sync.Mutex
	m.Handle(StateAwaitingSecret, func(ctx context.Context, s *Session, ev testEvent) error {
		resultsMu.Lock()
		results[s.Owner] = ev.text
		resultsMu.Unlock()
		s.End()
		return nil
	})

	ctx := context.Background()
	const users = 32
	for i := int64(1); i <= users; i++ {
		m.Begin(ctx, i, StateAwaitingSecret)
	}

	var wg sync.WaitGroup
	for i := int64(1); i <= users; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			handled, err := m.Dispatch(ctx, id, testEvent{text: secretFor(id)})
			if err != nil {
				t.Errorf("dispatch(%d): %v", id, err)
			}
			if !handled {
				t.Errorf("dispatch(%d): not handled", id)
			}
		}(i)
	}
	wg.Wait()

	for i := int64(1); i <= users; i++ {
		if results[i] != secretFor(i) {
			t.Fatalf("user %d saw %q, want %q: cross-user session leak", i, results[i], secretFor(i))
		}
	}
}

func secretFor(id int64) string {
	return "secret-" + string(rune('a'+id%26))
}

func TestSameUserDispatchSerialized(t *testing.T) {
	m := newTestManager(time.Minute)
	var inFlight, maxInFlight int
	var mu sync.Mutex
	m.Handle(StateAwaitingPhoto, func(ctx context.Context, s *Session, ev testEvent) error {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil
	})

	ctx := context.Background()
	m.Begin(ctx, 1, StateAwaitingPhoto)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Dispatch(ctx, 1, testEvent{})
		}()
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Fatalf("maxInFlight = %d, want 1: same-user events ran concurrently", maxInFlight)
	}
}

func TestExpiredSessionFallsThrough(t *testing.T) {
	m := newTestManager(time.Minute)
	now := time.Now()
	m.now = func() time.Time { return now }
	m.Handle(StateAwaitingPhoto, func(ctx context.Context, s *Session, ev testEvent) error {
		t.Fatal("handler fired for expired session")
		return nil
	})

	ctx := context.Background()
	m.Begin(ctx, 1, StateAwaitingPhoto)

	now = now.Add(2 * time.Minute)
	handled, err := m.Dispatch(ctx, 1, testEvent{})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if handled {
		t.Fatal("expired session claimed an event")
	}
	if m.Active(1) {
		t.Fatal("expired session still active")
	}
}

func TestUnreachableStateSurfacesInternalFault(t *testing.T) {
	m := newTestManager(time.Minute)
	ctx := context.Background()
	m.Begin(ctx, 1, State("no_such_state"))

	handled, err := m.Dispatch(ctx, 1, testEvent{})
	if !handled {
		t.Fatal("event must be claimed even on internal fault")
	}
	if err == nil {
		t.Fatal("expected internal fault error")
	}
	if m.Active(1) {
		t.Fatal("broken session must be destroyed")
	}
}
