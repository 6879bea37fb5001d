package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/storefront/internal/domain/auth"
)

var _ auth.Repository = (*APIKeyStore)(nil)

// APIKeyStore keeps API keys in memory, indexed by hash.
type APIKeyStore struct {
	mu   sync.RWMutex
	keys map[string]auth.APIKey
}

// NewAPIKeyStore creates an empty APIKeyStore.
func NewAPIKeyStore() *APIKeyStore {
	return &APIKeyStore{keys: make(map[string]auth.APIKey)}
}

func (s *APIKeyStore) FindByHash(_ context.Context, hash string) (*auth.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.keys[hash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	k.Scopes = slices.Clone(k.Scopes)
	return &k, nil
}

func (s *APIKeyStore) Create(_ context.Context, key *auth.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := *key
	k.Scopes = slices.Clone(key.Scopes)
	s.keys[k.KeyHash] = k
	return nil
}
