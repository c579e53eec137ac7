// Package billing sells the founder subscription through Stripe Checkout and
// applies the resulting subscription events to profiles.
package billing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
)

var (
	// ErrFounderSlotsExhausted is a business outcome, not a transient failure.
	ErrFounderSlotsExhausted = errors.New("founder slots exhausted")
	ErrMissingEmail          = errors.New("account has no email")
)

type Eligibility interface {
	CanBeFounder(ctx context.Context) (bool, error)
}

// PaymentGateway is the subset of the payment processor the checkout needs.
type PaymentGateway interface {
	FindOrCreateCustomer(ctx context.Context, email, userID string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

type CheckoutRequest struct {
	CustomerID string
	UserID     string
	PriceID    string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

type Checkout struct {
	Founders   Eligibility
	Gateway    PaymentGateway
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// Create starts a founder subscription checkout for userID.
func (c *Checkout) Create(ctx context.Context, userID, email string) (*CheckoutSession, error) {
	log := observability.GetLogger(ctx).With(zap.String("user_id", userID))

	if email == "" {
		return nil, ErrMissingEmail
	}

	ok, err := c.Founders.CanBeFounder(ctx)
	if err != nil {
		return nil, fmt.Errorf("check founder eligibility: %w", err)
	}
	if !ok {
		log.Info("checkout refused, founder slots exhausted")
		return nil, ErrFounderSlotsExhausted
	}

	customerID, err := c.Gateway.FindOrCreateCustomer(ctx, email, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}

	sess, err := c.Gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		CustomerID: customerID,
		UserID:     userID,
		PriceID:    c.PriceID,
		SuccessURL: c.SuccessURL,
		CancelURL:  c.CancelURL,
		Metadata: map[string]string{
			"user_id":    userID,
			"is_founder": "true",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	log.Info("checkout session created", zap.String("session_id", sess.ID), zap.String("customer_id", customerID))
	return sess, nil
}
