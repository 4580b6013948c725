package confirm

import (
	"errors"
	"sync"
	"time"

	"svsboard/pkg/extract"
)

var (
	ErrUnknownSubmission = errors.New("unknown or already resolved submission")
	ErrNotOffered        = errors.New("submission is not awaiting a user action")
	ErrBadAction         = errors.New("unsupported action")
)

// Session is one submission waiting on a user action. It lives from the
// moment a payload is offered until a terminal transition; no partial state
// is visible to other submissions.
type Session struct {
	ID          string
	SubmitterID string
	CommunityID string
	Record      *extract.Record
	State       State
	Payload     *Payload
	CreatedAt   time.Time

	timer *time.Timer
}

// Manager owns the pending sessions and guarantees exactly one terminal
// transition per submission id: whichever of user action and timeout comes
// first wins, the loser finds the session gone.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	// OnTimeout is invoked (without the lock held) after a session expires.
	OnTimeout func(*Session)
}

func NewManager() *Manager {
	return &Manager{sessions: map[string]*Session{}}
}

// Open registers a session in an offered state and arms its timeout timer.
func (m *Manager) Open(s *Session, timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.CreatedAt = time.Now()
	s.timer = time.AfterFunc(timeout, func() { m.expire(s.ID) })
	m.sessions[s.ID] = s
}

func (m *Manager) expire(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, id)
	s.State = StateTimedOut
	m.mu.Unlock()
	if m.OnTimeout != nil {
		m.OnTimeout(s)
	}
}

// Resolve applies a user action to a pending session. The session is removed
// before the caller sees it, so a duplicate action (or a racing timeout)
// cannot commit the record twice.
func (m *Manager) Resolve(id, action string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrUnknownSubmission
	}
	switch s.State {
	case StateSoftConfirmOffered, StateDisambiguationOffered:
	default:
		return nil, ErrNotOffered
	}
	var next State
	switch action {
	case ActionConfirm:
		next = StateAccepted
	case ActionCorrect:
		next = StateCorrected
	case ActionCancel:
		next = StateCancelled
	default:
		return nil, ErrBadAction
	}
	delete(m.sessions, id)
	if s.timer != nil {
		s.timer.Stop()
	}
	s.State = next
	return s, nil
}

// Pending returns whether a submission is still awaiting an action.
func (m *Manager) Pending(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	return ok
}
