package session

import (
	"context"
	"errors"
	"sync"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
	"github.com/SARVESHVARADKAR123/biolink/internal/plan"
)

var ErrClosed = errors.New("session closed")

// Session is scoped to one authenticated user between login and logout.
type Session struct {
	UserID string

	store    *Store
	resolver plan.Resolver

	mu     sync.Mutex
	closed bool
}

func (s *Session) Profile(ctx context.Context) (*model.Profile, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	return s.store.Profile(ctx, s.UserID)
}

// Entitlement derives the plan snapshot from the cached profile. Founder
// counters that fail to load never block it.
func (s *Session) Entitlement(ctx context.Context) (plan.Snapshot, error) {
	p, err := s.Profile(ctx)
	if err != nil {
		return plan.Snapshot{}, err
	}
	if s.store.plans == nil {
		return s.resolver.Resolve(p, 0, true), nil
	}
	return s.store.plans.Entitlement(ctx, &s.resolver, p), nil
}

// Close ends the session and evicts the user's cached profile.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.store.release(s)
	s.store.Invalidate(ctx, s.UserID)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
