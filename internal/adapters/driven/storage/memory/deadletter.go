// Package memory provides in-memory store implementations, used by
// tests and as a fallback when no database path is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
)

// Ensure DeadLetterStore implements the interface.
var _ driven.DeadLetterStore = (*DeadLetterStore)(nil)

// DeadLetterStore is an in-memory implementation of driven.DeadLetterStore.
type DeadLetterStore struct {
	mu      sync.RWMutex
	letters map[string]domain.DeadLetter
}

// NewDeadLetterStore creates a new in-memory dead letter store.
func NewDeadLetterStore() *DeadLetterStore {
	return &DeadLetterStore{
		letters: make(map[string]domain.DeadLetter),
	}
}

// Save stores or updates a dead letter.
func (s *DeadLetterStore) Save(_ context.Context, letter domain.DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if letter.CreatedAt.IsZero() {
		letter.CreatedAt = time.Now().UTC()
	}
	s.letters[letter.ID] = letter
	return nil
}

// List returns all recorded entries, newest first.
func (s *DeadLetterStore) List(_ context.Context) ([]domain.DeadLetter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	letters := make([]domain.DeadLetter, 0, len(s.letters))
	for _, letter := range s.letters {
		letters = append(letters, letter)
	}
	sort.Slice(letters, func(i, j int) bool {
		if letters[i].CreatedAt.Equal(letters[j].CreatedAt) {
			return letters[i].ID < letters[j].ID
		}
		return letters[i].CreatedAt.After(letters[j].CreatedAt)
	})
	return letters, nil
}

// Get fetches one entry by ID.
func (s *DeadLetterStore) Get(_ context.Context, id string) (*domain.DeadLetter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	letter, ok := s.letters[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &letter, nil
}

// Delete removes an entry by ID.
func (s *DeadLetterStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.letters[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.letters, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *DeadLetterStore) Close() error {
	return nil
}
