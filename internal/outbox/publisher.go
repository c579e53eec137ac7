package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
)

// Source is the outbox table as seen by the publisher.
type Source interface {
	Fetch(ctx context.Context, limit int) ([]Row, error)
	MarkPublished(ctx context.Context, id string) error
}

// Sink delivers a row to the broker.
type Sink interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Publisher polls the outbox table and forwards unpublished events to Kafka.
type Publisher struct {
	src      Source
	sink     Sink
	interval time.Duration
	batch    int
}

func NewPublisher(src Source, sink Sink, interval time.Duration, batch int) *Publisher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &Publisher{src: src, sink: sink, interval: interval, batch: batch}
}

// Start blocks until ctx is cancelled.
func (p *Publisher) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PublishBatch(ctx)
		}
	}
}

// PublishBatch forwards one batch. Rows that fail to publish stay in the
// table and are retried on the next tick.
func (p *Publisher) PublishBatch(ctx context.Context) int {
	log := observability.GetLogger(ctx)

	rows, err := p.src.Fetch(ctx, p.batch)
	if err != nil {
		log.Error("outbox fetch failed", zap.Error(err))
		return 0
	}

	published := 0
	for _, row := range rows {
		if err := p.sink.Publish(ctx, row.Topic, []byte(row.Key), row.Payload); err != nil {
			log.Warn("outbox publish failed", zap.String("topic", row.Topic), zap.String("id", row.ID), zap.Error(err))
			continue
		}
		if err := p.src.MarkPublished(ctx, row.ID); err != nil {
			log.Error("outbox mark published failed", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		published++
	}
	observability.OutboxPublishedTotal.Add(float64(published))
	return published
}
