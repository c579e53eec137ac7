package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/SARVESHVARADKAR123/biolink/internal/cache"
	"github.com/SARVESHVARADKAR123/biolink/internal/model"
	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
	"github.com/SARVESHVARADKAR123/biolink/internal/plan"
)

type ProfileLoader interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
}

type ProfileCache interface {
	Get(ctx context.Context, id string) (*model.Profile, error)
	Set(ctx context.Context, p *model.Profile) error
	Delete(ctx context.Context, id string) error
}

// Store owns the profile cache for every session. Concurrent lookups of the
// same user share one in-flight database read.
type Store struct {
	profiles ProfileLoader
	cache    ProfileCache
	plans    *plan.Service
	timeout  time.Duration

	group singleflight.Group

	mu       sync.Mutex
	gens     map[string]uint64
	sessions map[string]*Session
}

// NewStore builds a store. cache may be nil.
func NewStore(profiles ProfileLoader, cache ProfileCache, plans *plan.Service) *Store {
	return &Store{
		profiles: profiles,
		cache:    cache,
		plans:    plans,
		timeout:  8 * time.Second,
		gens:     make(map[string]uint64),
		sessions: make(map[string]*Session),
	}
}

// Profile returns the profile for userID from cache or the database.
func (s *Store) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	log := observability.GetLogger(ctx)

	if s.cache != nil {
		p, err := s.cache.Get(ctx, userID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn("profile cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	v, err, _ := s.group.Do(userID, func() (any, error) {
		// The read is shared, so one caller's cancellation must not fail the others.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		gen := s.generation(userID)
		p, err := s.profiles.GetByID(fctx, userID)
		if err != nil {
			return nil, err
		}
		p.ApplyDefaults()
		s.fill(fctx, userID, gen, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	cp := *v.(*model.Profile)
	return &cp, nil
}

// fill caches p unless userID was invalidated after the read began. An
// invalidation racing the write is caught by the second check.
func (s *Store) fill(ctx context.Context, userID string, gen uint64, p *model.Profile) {
	if s.cache == nil || s.generation(userID) != gen {
		return
	}
	log := observability.GetLogger(ctx)
	if err := s.cache.Set(ctx, p); err != nil {
		log.Warn("profile cache write failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if s.generation(userID) != gen {
		if err := s.cache.Delete(ctx, userID); err != nil {
			log.Warn("profile cache delete failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

func (s *Store) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

// Invalidate drops the cached profile so the next read hits the database.
func (s *Store) Invalidate(ctx context.Context, userID string) {
	s.mu.Lock()
	s.gens[userID]++
	s.mu.Unlock()

	s.group.Forget(userID)
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		observability.GetLogger(ctx).Warn("profile cache delete failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// Open returns the live session of an authenticated user, starting one if
// needed. The session keeps its entitlement memo across requests until Close.
func (s *Store) Open(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	sess := &Session{UserID: userID, store: s}
	s.sessions[userID] = sess
	return sess
}

func (s *Store) release(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[sess.UserID] == sess {
		delete(s.sessions, sess.UserID)
	}
}
