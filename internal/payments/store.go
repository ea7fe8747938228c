package payments

import (
	"context"
	"sync"
	"time"
)

// IntentStore persists payment intents keyed by reference.
//
// Resolve upserts: a callback can land for a reference the store never saw
// (a restart wiped memory, or another node created the intent), and the
// outcome must still be recorded. Once an intent is terminal its status,
// receipt and failure never change.
type IntentStore interface {
	Create(ctx context.Context, intent Intent) error
	Resolve(ctx context.Context, reference string, status Status, receipt, failure string) error
	Get(ctx context.Context, reference string) (Intent, bool, error)
	Close() error
}

// MemoryStore is the default in-process IntentStore.
type MemoryStore struct {
	mu      sync.Mutex
	intents map[string]Intent
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		intents: make(map[string]Intent),
		now:     time.Now,
	}
}

// Create records a new intent, stamping timestamps.
func (s *MemoryStore) Create(_ context.Context, intent Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	intent.CreatedAt = now
	intent.UpdatedAt = now
	s.intents[intent.Reference] = intent
	return nil
}

// Resolve applies a provider outcome, upserting unknown references and
// leaving terminal intents untouched.
func (s *MemoryStore) Resolve(_ context.Context, reference string, status Status, receipt, failure string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	intent, ok := s.intents[reference]
	if !ok {
		intent = Intent{Reference: reference, CreatedAt: now}
	}
	if intent.Status.Terminal() {
		return nil
	}
	intent.Status = status
	intent.Receipt = receipt
	intent.Failure = failure
	intent.UpdatedAt = now
	s.intents[reference] = intent
	return nil
}

// Get looks up an intent by reference.
func (s *MemoryStore) Get(_ context.Context, reference string) (Intent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[reference]
	return intent, ok, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
