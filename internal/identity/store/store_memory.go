package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"jiran/internal/identity/models"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
)

// InMemoryUsers stores accounts in a map for tests and local
// development. Email uniqueness is case-insensitive.
type InMemoryUsers struct {
	mu      sync.RWMutex
	byID    map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

// NewInMemoryUsers constructs an empty in-memory user store.
func NewInMemoryUsers() *InMemoryUsers {
	return &InMemoryUsers{
		byID:    make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *InMemoryUsers) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, found := s.byEmail[key]; found {
		return fmt.Errorf("email %s: %w", user.Email, sentinel.ErrAlreadyUsed)
	}
	s.byID[user.ID] = &user
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemoryUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, found := s.byEmail[strings.ToLower(email)]
	if !found {
		return models.User{}, fmt.Errorf("user %s: %w", email, sentinel.ErrNotFound)
	}
	return *s.byID[userID], nil
}

func (s *InMemoryUsers) FindByID(_ context.Context, userID id.UserID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, found := s.byID[userID]; found {
		return *user, nil
	}
	return models.User{}, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
}

// InMemorySessions tracks sessions per user.
type InMemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewInMemorySessions constructs an empty in-memory session store.
func NewInMemorySessions() *InMemorySessions {
	return &InMemorySessions{sessions: make(map[string]*models.Session)}
}

func (s *InMemorySessions) Save(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = &session
	return nil
}

func (s *InMemorySessions) DeleteByUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sessionID, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, sessionID)
		}
	}
	return nil
}

func (s *InMemorySessions) CountByUser(_ context.Context, userID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, session := range s.sessions {
		if session.UserID == userID {
			count++
		}
	}
	return count, nil
}
