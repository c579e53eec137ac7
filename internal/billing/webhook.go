package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

const SubscriptionPeriod = 30 * 24 * time.Hour

type SubscriptionStore interface {
	Activate(ctx context.Context, c model.SubscriptionChange) error
	// Cancel returns the id of the profile that held the subscription.
	Cancel(ctx context.Context, subscriptionID string) (string, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// Webhook applies verified Stripe events to profiles.
type Webhook struct {
	Secret   string
	Store    SubscriptionStore
	Sessions CacheInvalidator
	Now      func() time.Time
}

// Handle verifies signature against the raw payload before looking at the
// event, then applies it.
func (w *Webhook) Handle(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, w.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		observability.WebhookEventsTotal.WithLabelValues("unknown", "bad_signature").Inc()
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	log := observability.GetLogger(ctx).With(zap.String("event_id", event.ID), zap.String("type", string(event.Type)))

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = w.checkoutCompleted(ctx, event)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		err = w.subscriptionDeleted(ctx, log, event)
	default:
		log.Debug("ignoring webhook event")
		observability.WebhookEventsTotal.WithLabelValues(string(event.Type), "ignored").Inc()
		return nil
	}

	if err != nil {
		observability.WebhookEventsTotal.WithLabelValues(string(event.Type), "failed").Inc()
		log.Error("webhook event not applied", zap.Error(err))
		return err
	}
	observability.WebhookEventsTotal.WithLabelValues(string(event.Type), "applied").Inc()
	log.Info("webhook event applied")
	return nil
}

func (w *Webhook) checkoutCompleted(ctx context.Context, event stripe.Event) error {
	var cs stripe.CheckoutSession
	if err := decode(event, &cs); err != nil {
		return err
	}

	userID := cs.Metadata["user_id"]
	if userID == "" {
		userID = cs.ClientReferenceID
	}
	if userID == "" {
		return fmt.Errorf("%w: checkout session %s has no user_id", ErrMalformedEvent, cs.ID)
	}

	change := model.SubscriptionChange{
		UserID:    userID,
		IsFounder: cs.Metadata["is_founder"] == "true",
		Expires:   w.now().Add(SubscriptionPeriod),
	}
	if cs.Customer != nil {
		change.CustomerID = cs.Customer.ID
	}
	if cs.Subscription != nil {
		change.SubscriptionID = cs.Subscription.ID
	}

	if err := w.Store.Activate(ctx, change); err != nil {
		return fmt.Errorf("activate subscription for %s: %w", userID, err)
	}
	w.invalidate(ctx, userID)
	return nil
}

// subscriptionDeleted matches on the subscription id: cancellation events do
// not carry the application user id.
func (w *Webhook) subscriptionDeleted(ctx context.Context, log *zap.Logger, event stripe.Event) error {
	var sub stripe.Subscription
	if err := decode(event, &sub); err != nil {
		return err
	}
	if sub.ID == "" {
		return fmt.Errorf("%w: subscription without id", ErrMalformedEvent)
	}

	userID, err := w.Store.Cancel(ctx, sub.ID)
	if errors.Is(err, model.ErrProfileNotFound) {
		log.Warn("no profile holds cancelled subscription", zap.String("subscription_id", sub.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("cancel subscription %s: %w", sub.ID, err)
	}
	w.invalidate(ctx, userID)
	return nil
}

func (w *Webhook) invalidate(ctx context.Context, userID string) {
	if w.Sessions != nil {
		w.Sessions.Invalidate(ctx, userID)
	}
}

func (w *Webhook) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func decode(event stripe.Event, v any) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}
