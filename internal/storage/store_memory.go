package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"jiran/pkg/platform/sentinel"
)

type object struct {
	contentType string
	content     []byte
}

// InMemory keeps uploaded objects in a map for tests and local
// development.
type InMemory struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]object
}

// NewInMemory constructs an empty in-memory object store.
func NewInMemory(baseURL string) *InMemory {
	return &InMemory{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string]object),
	}
}

func (s *InMemory) Upload(_ context.Context, path, contentType string, content []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.objects[path]; found {
		return "", fmt.Errorf("object %s: %w", path, sentinel.ErrAlreadyUsed)
	}
	stored := make([]byte, len(content))
	copy(stored, content)
	s.objects[path] = object{contentType: contentType, content: stored}
	return path, nil
}

func (s *InMemory) PublicURL(path string) string {
	return s.baseURL + "/" + path
}

// Get returns a stored object; tests use it to verify upload content.
func (s *InMemory) Get(path string) (contentType string, content []byte, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, found := s.objects[path]
	if !found {
		return "", nil, false
	}
	return obj.contentType, obj.content, true
}

// Len reports how many objects are stored.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
