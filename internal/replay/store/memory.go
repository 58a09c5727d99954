// Package store holds the replay ledger backends. Every backend reports a
// repeated nonce as sentinel.ErrAlreadyUsed.
package store

import (
	"context"
	"sync"
	"time"

	"guestman/internal/replay/models"
	"guestman/pkg/platform/sentinel"
)

// InMemory is a map-backed replay ledger for dev mode and unit tests.
type InMemory struct {
	mu      sync.Mutex
	byNonce map[string]models.ProcessedEvent
}

// NewInMemory constructs an empty ledger.
func NewInMemory() *InMemory {
	return &InMemory{byNonce: make(map[string]models.ProcessedEvent)}
}

func (s *InMemory) Record(_ context.Context, nonce, provider string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.byNonce[nonce]; seen {
		return sentinel.ErrAlreadyUsed
	}
	s.byNonce[nonce] = models.ProcessedEvent{Nonce: nonce, Provider: provider, ProcessedAt: at}
	return nil
}

func (s *InMemory) Exists(_ context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, seen := s.byNonce[nonce]
	return seen, nil
}

func (s *InMemory) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for nonce, ev := range s.byNonce {
		if ev.ProcessedAt.Before(cutoff) {
			delete(s.byNonce, nonce)
			deleted++
		}
	}
	return deleted, nil
}
