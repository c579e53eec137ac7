package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
)

// ErrMiss is returned when a profile is not cached.
var ErrMiss = errors.New("cache miss")

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

type ProfileCache struct {
	R   *redis.Client
	TTL time.Duration
}

func key(id string) string { return "biolink:profile:" + id }

// entry carries the fields the public JSON form omits.
type entry struct {
	Profile              model.Profile `json:"profile"`
	StripeCustomerID     string        `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string        `json:"stripe_subscription_id,omitempty"`
}

func (c *ProfileCache) Get(ctx context.Context, id string) (*model.Profile, error) {
	b, err := c.R.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var e entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	p := e.Profile
	p.StripeCustomerID = e.StripeCustomerID
	p.StripeSubscriptionID = e.StripeSubscriptionID
	return &p, nil
}

func (c *ProfileCache) Set(ctx context.Context, p *model.Profile) error {
	b, err := json.Marshal(entry{
		Profile:              *p,
		StripeCustomerID:     p.StripeCustomerID,
		StripeSubscriptionID: p.StripeSubscriptionID,
	})
	if err != nil {
		return err
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return c.R.Set(ctx, key(p.ID), b, ttl).Err()
}

func (c *ProfileCache) Delete(ctx context.Context, id string) error {
	return c.R.Del(ctx, key(id)).Err()
}
