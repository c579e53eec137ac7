package clicks

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
)

// Counter increments a link's click counter and returns the new value.
type Counter interface {
	IncrementClicks(ctx context.Context, linkID string) (int64, error)
}

// EventStore appends click events.
type EventStore interface {
	Insert(ctx context.Context, c model.Click) error
}

// Visit describes the request that produced a click.
type Visit struct {
	IP        string
	UserAgent string
	Referer   string
}

// Tracker records link clicks without ever failing the navigation it
// accompanies.
type Tracker struct {
	counter      Counter
	events       EventStore
	ipKey        []byte
	eventTimeout time.Duration

	wg sync.WaitGroup
}

// NewTracker builds a tracker. ipKey keys the IP hash; an empty key stores
// no IP information at all.
func NewTracker(counter Counter, events EventStore, ipKey []byte) *Tracker {
	return &Tracker{
		counter:      counter,
		events:       events,
		ipKey:        ipKey,
		eventTimeout: 5 * time.Second,
	}
}

// Record increments the counter and returns the new count, or 0 if the
// increment failed. The click event is written in the background.
func (t *Tracker) Record(ctx context.Context, linkID string, v Visit) int64 {
	log := observability.GetLogger(ctx)

	click := model.Click{
		ID:        uuid.NewString(),
		LinkID:    linkID,
		IPHash:    t.hashIP(v.IP),
		UserAgent: v.UserAgent,
		Referer:   v.Referer,
		CreatedAt: time.Now().UTC(),
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.eventTimeout)
		defer cancel()
		if err := t.events.Insert(ectx, click); err != nil {
			observability.OptionalFetchFailuresTotal.WithLabelValues("click_event").Inc()
			log.Warn("click event not recorded", zap.String("link_id", linkID), zap.Error(err))
		}
	}()

	n, err := t.counter.IncrementClicks(ctx, linkID)
	if err != nil {
		observability.LinkClicksTotal.WithLabelValues("failed").Inc()
		log.Warn("click count not incremented", zap.String("link_id", linkID), zap.Error(err))
		return 0
	}
	observability.LinkClicksTotal.WithLabelValues("ok").Inc()
	return n
}

// Wait blocks until background event writes have finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) hashIP(ip string) string {
	if ip == "" || len(t.ipKey) == 0 {
		return ""
	}
	h, err := blake2b.New256(t.ipKey)
	if err != nil {
		return ""
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}
