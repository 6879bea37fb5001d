package memory

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/checkout"
)

var _ checkout.Repository = (*SessionStore)(nil)

type sessionEntry struct {
	session   *checkout.Session
	expiresAt time.Time
}

// SessionStore keeps checkout sessions in memory. A session expires after
// ttl without access; expired sessions are swept in the background.
type SessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]sessionEntry

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSessionStore creates a SessionStore and starts its sweeper. Call Close
// to stop it.
func NewSessionStore(ttl, sweepInterval time.Duration) *SessionStore {
	s := &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]sessionEntry),
		stop:     make(chan struct{}),
	}
	if sweepInterval > 0 {
		s.wg.Add(1)
		go s.sweepLoop(sweepInterval)
	}
	return s
}

func (s *SessionStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *SessionStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Close stops the sweeper.
func (s *SessionStore) Close() {
	close(s.stop)
	s.wg.Wait()
}

func (s *SessionStore) Create(_ context.Context, sess *checkout.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; ok {
		return errors.Errorf("session %s already exists", sess.ID)
	}
	s.sessions[sess.ID] = sessionEntry{session: sess.Clone(), expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*checkout.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	now := s.now()
	if !ok || now.After(e.expiresAt) {
		delete(s.sessions, id)
		return nil, checkout.ErrSessionNotFound
	}
	e.expiresAt = now.Add(s.ttl)
	s.sessions[id] = e
	return e.session.Clone(), nil
}

func (s *SessionStore) Save(_ context.Context, sess *checkout.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sess.ID]
	now := s.now()
	if !ok || now.After(e.expiresAt) {
		delete(s.sessions, sess.ID)
		return checkout.ErrSessionNotFound
	}
	s.sessions[sess.ID] = sessionEntry{session: sess.Clone(), expiresAt: now.Add(s.ttl)}
	return nil
}
