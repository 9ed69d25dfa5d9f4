package services

import (
	"fmt"
	"sync"

	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/SscSPs/finsync/internal/progress"
)

// SessionRegistry tracks running sessions, at most one per credential.
type SessionRegistry struct {
	mu     sync.Mutex
	active map[string]*sessionRun
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{active: make(map[string]*sessionRun)}
}

func (r *SessionRegistry) acquire(run *sessionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	credentialID := run.session.CredentialID
	if other, busy := r.active[credentialID]; busy {
		return fmt.Errorf("credential %s is already syncing in session %s: %w", credentialID, other.SessionID(), apperrors.ErrConflict)
	}
	r.active[credentialID] = run
	return nil
}

func (r *SessionRegistry) release(run *sessionRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	credentialID := run.Session().CredentialID
	if r.active[credentialID] == run {
		delete(r.active, credentialID)
	}
}

// Active returns a snapshot of the running session of a credential.
func (r *SessionRegistry) Active(credentialID string) (domain.SyncSession, bool) {
	r.mu.Lock()
	run, ok := r.active[credentialID]
	r.mu.Unlock()
	if !ok {
		return domain.SyncSession{}, false
	}
	return run.Session(), true
}

// sessionRun is the shared state of one running session: the session record
// guarded by a lock and the outbound event channel.
type sessionRun struct {
	mu      sync.RWMutex
	session domain.SyncSession
	events  chan progress.Event
}

func newSessionRun(session domain.SyncSession, buffer int) *sessionRun {
	return &sessionRun{session: session, events: make(chan progress.Event, buffer)}
}

func (r *sessionRun) SessionID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session.SessionID
}

func (r *sessionRun) Events() <-chan progress.Event {
	return r.events
}

func (r *sessionRun) Session() domain.SyncSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.session
	if s.Summary != nil {
		summary := *s.Summary
		s.Summary = &summary
	}
	return s
}

func (r *sessionRun) update(fn func(s *domain.SyncSession) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&r.session)
}
