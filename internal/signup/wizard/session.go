package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"jiran/internal/signup/models"
	"jiran/internal/signup/staging"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
	"jiran/pkg/requestcontext"
)

// Session is one applicant's wizard run: the draft, the staged
// documents, and the current state. A session has a single writer; the
// service serializes access through mu.
type Session struct {
	ID      id.SessionID
	State   State
	Draft   models.RegistrationDraft
	Staging *staging.Area
	// Message is the last user-facing validation or submission message,
	// cleared on the next successful transition.
	Message   string
	Result    *models.ProvisionedIdentity
	CreatedAt time.Time
	UpdatedAt time.Time

	mu sync.Mutex
}

// SessionStore keeps live wizard sessions in memory. Sessions idle
// longer than the TTL are dropped by Sweep.
type SessionStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[id.SessionID]*Session
	logger   *slog.Logger
}

// NewSessionStore constructs an empty session store with the given idle
// TTL.
func NewSessionStore(ttl time.Duration, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[id.SessionID]*Session),
		logger:   logger,
	}
}

// Open creates a session in the initial editing state.
func (s *SessionStore) Open(ctx context.Context) *Session {
	now := requestcontext.Now(ctx)
	session := &Session{
		ID:        id.NewSessionID(),
		State:     StateStep1Editing,
		Staging:   staging.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return session
}

// Get returns a live session.
//
// Error contract:
//   - sentinel.ErrNotFound when the session does not exist
//   - sentinel.ErrExpired when it idled past the TTL
func (s *SessionStore) Get(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	s.mu.RLock()
	session, found := s.sessions[sessionID]
	s.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("wizard session %s: %w", sessionID, sentinel.ErrNotFound)
	}
	if s.expired(session, requestcontext.Now(ctx)) {
		s.Delete(sessionID)
		return nil, fmt.Errorf("wizard session %s: %w", sessionID, sentinel.ErrExpired)
	}
	return session, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(sessionID id.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len reports how many sessions are held, expired or not.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(session *Session, now time.Time) bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	return now.Sub(session.UpdatedAt) > s.ttl
}

// Sweep drops expired sessions every interval until ctx is cancelled.
// Run it as a background goroutine from main.
func (s *SessionStore) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweepOnce(now)
		}
	}
}

func (s *SessionStore) sweepOnce(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sessionID, session := range s.sessions {
		session.mu.Lock()
		idle := now.Sub(session.UpdatedAt)
		session.mu.Unlock()
		if idle > s.ttl {
			delete(s.sessions, sessionID)
			s.logger.Debug("expired wizard session swept", "session_id", sessionID)
		}
	}
}
