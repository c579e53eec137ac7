package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type memSource struct {
	rows      []Row
	published []string
}

func (m *memSource) Fetch(_ context.Context, limit int) ([]Row, error) {
	if len(m.rows) > limit {
		return m.rows[:limit], nil
	}
	return m.rows, nil
}

func (m *memSource) MarkPublished(_ context.Context, id string) error {
	m.published = append(m.published, id)
	return nil
}

type flakySink struct{ failTopic string }

func (s *flakySink) Publish(_ context.Context, topic string, _, _ []byte) error {
	if s.failTopic != "" && topic == s.failTopic {
		return errors.New("broker unavailable")
	}
	return nil
}

func TestPublishBatch_SkipsFailedRows(t *testing.T) {
	src := &memSource{rows: []Row{
		{ID: "1", Topic: "link.clicked"},
		{ID: "2", Topic: "profile.plan_changed"},
		{ID: "3", Topic: "link.clicked"},
	}}
	p := NewPublisher(src, &flakySink{failTopic: "profile.plan_changed"}, 0, 10)

	n := p.PublishBatch(context.Background())

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"1", "3"}, src.published)
}

func TestPublishBatch_RespectsBatchSize(t *testing.T) {
	src := &memSource{rows: []Row{
		{ID: "1", Topic: "link.clicked"},
		{ID: "2", Topic: "link.clicked"},
		{ID: "3", Topic: "link.clicked"},
	}}
	p := NewPublisher(src, &flakySink{}, 0, 2)

	assert.Equal(t, 2, p.PublishBatch(context.Background()))
	assert.Equal(t, []string{"1", "2"}, src.published)
}
