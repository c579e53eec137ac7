package plan

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
	"github.com/SARVESHVARADKAR123/biolink/internal/resilience"
)

// FounderSource exposes the server-computed founder programme values.
type FounderSource interface {
	FounderCount(ctx context.Context) (int, error)
	CanBeFounder(ctx context.Context) (bool, error)
}

// Service resolves entitlements. The founder values are informational: when
// they cannot be loaded the snapshot is still produced from the profile.
type Service struct {
	Founders FounderSource
	Timeout  time.Duration
}

// FounderStatus loads both founder values concurrently. Failures fall back
// to a count of 0 and an eligible flag.
func (s *Service) FounderStatus(ctx context.Context) (count int, eligible bool) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	log := observability.GetLogger(ctx)

	eligible = true
	var g errgroup.Group
	g.Go(func() error {
		n, err := resilience.WithTimeout(ctx, timeout, s.Founders.FounderCount)
		if err != nil {
			observability.OptionalFetchFailuresTotal.WithLabelValues("founder_count").Inc()
			log.Warn("founder count unavailable", zap.Error(err))
			return nil
		}
		count = n
		return nil
	})
	g.Go(func() error {
		ok, err := resilience.WithTimeout(ctx, timeout, s.Founders.CanBeFounder)
		if err != nil {
			observability.OptionalFetchFailuresTotal.WithLabelValues("can_be_founder").Inc()
			log.Warn("founder eligibility unavailable", zap.Error(err))
			return nil
		}
		eligible = ok
		return nil
	})
	_ = g.Wait()
	return count, eligible
}

// Entitlement resolves p with fresh founder values through r.
func (s *Service) Entitlement(ctx context.Context, r *Resolver, p *model.Profile) Snapshot {
	count, eligible := s.FounderStatus(ctx)
	return r.Resolve(p, count, eligible)
}
