package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
)

const TopicUserCreated = "identity.user.created"

// --------------- Producer ---------------

// Producer wraps a kafka.Writer. The topic is taken from each message.
type Producer struct {
	w *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireAll,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

func (p *Producer) Close() error { return p.w.Close() }

// --------------- Consumer ---------------

type UserCreated struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type ProfileCreator interface {
	CreateIfNotExists(ctx context.Context, id, username, name string) error
}

// HandleUserCreated creates the profile row for a new account. Creation is
// idempotent, so redelivered messages are harmless.
func HandleUserCreated(ctx context.Context, repo ProfileCreator, value []byte) error {
	var e UserCreated
	if err := json.Unmarshal(value, &e); err != nil {
		return err
	}
	if e.UserID == "" || e.Username == "" {
		return errors.New("user.created event without user_id or username")
	}
	name := e.Name
	if name == "" {
		name = e.Username
	}
	return repo.CreateIfNotExists(ctx, e.UserID, strings.ToLower(e.Username), name)
}

// StartUserCreatedConsumer blocks until ctx is cancelled.
func StartUserCreatedConsumer(ctx context.Context, brokers []string, repo ProfileCreator) {
	log := observability.GetLogger(ctx)

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   TopicUserCreated,
		GroupID: "biolink-profiles",
	})
	defer r.Close()

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("user.created consumer stopped", zap.Error(err))
			}
			return
		}

		if err := HandleUserCreated(ctx, repo, m.Value); err != nil {
			log.Warn("user.created not applied", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}
