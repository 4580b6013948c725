package confirm

import (
	"errors"
	"testing"
	"time"

	"svsboard/pkg/extract"
)

func openTestSession(m *Manager, id string, timeout time.Duration) {
	m.Open(&Session{
		ID:      id,
		Record:  extract.NewRecord(),
		State:   StateSoftConfirmOffered,
		Payload: &Payload{Type: PayloadSoftConfirm},
	}, timeout)
}

func TestResolveConfirm(t *testing.T) {
	m := NewManager()
	openTestSession(m, "sub-1", time.Minute)
	s, err := m.Resolve("sub-1", ActionConfirm)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.State != StateAccepted {
		t.Fatalf("expected accepted got %s", s.State)
	}
}

func TestResolveIsSingleShot(t *testing.T) {
	m := NewManager()
	openTestSession(m, "sub-1", time.Minute)
	if _, err := m.Resolve("sub-1", ActionConfirm); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	// a duplicate click must not commit a second time
	if _, err := m.Resolve("sub-1", ActionConfirm); !errors.Is(err, ErrUnknownSubmission) {
		t.Fatalf("expected ErrUnknownSubmission got %v", err)
	}
}

func TestResolveActions(t *testing.T) {
	m := NewManager()
	openTestSession(m, "a", time.Minute)
	openTestSession(m, "b", time.Minute)
	s, _ := m.Resolve("a", ActionCorrect)
	if s.State != StateCorrected {
		t.Fatalf("expected corrected got %s", s.State)
	}
	s, _ = m.Resolve("b", ActionCancel)
	if s.State != StateCancelled {
		t.Fatalf("expected cancelled got %s", s.State)
	}
}

func TestResolveBadAction(t *testing.T) {
	m := NewManager()
	openTestSession(m, "sub-1", time.Minute)
	if _, err := m.Resolve("sub-1", "frobnicate"); !errors.Is(err, ErrBadAction) {
		t.Fatalf("expected ErrBadAction got %v", err)
	}
	// session must survive a bad action
	if !m.Pending("sub-1") {
		t.Fatalf("bad action should not consume the session")
	}
}

func TestTimeoutWinsOverLateAction(t *testing.T) {
	m := NewManager()
	timedOut := make(chan *Session, 1)
	m.OnTimeout = func(s *Session) { timedOut <- s }
	openTestSession(m, "sub-1", 10*time.Millisecond)

	select {
	case s := <-timedOut:
		if s.State != StateTimedOut {
			t.Fatalf("expected timed_out got %s", s.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout never fired")
	}
	if _, err := m.Resolve("sub-1", ActionConfirm); !errors.Is(err, ErrUnknownSubmission) {
		t.Fatalf("late action after timeout must fail, got %v", err)
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []State{StateAutoAccepted, StateAccepted, StateCorrected, StateCancelled, StateTimedOut} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StatePending, StateSoftConfirmOffered, StateDisambiguationOffered} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
