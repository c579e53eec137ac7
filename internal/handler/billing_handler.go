package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/biolink/internal/billing"
	"github.com/SARVESHVARADKAR123/biolink/internal/middleware"
	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
	"github.com/SARVESHVARADKAR123/biolink/internal/transport"
)

// Stripe events are small; anything larger is not from Stripe.
const maxWebhookBytes = 64 << 10

type CheckoutCreator interface {
	Create(ctx context.Context, userID, email string) (*billing.CheckoutSession, error)
}

type WebhookProcessor interface {
	Handle(ctx context.Context, payload []byte, signature string) error
}

type BillingHandler struct {
	Checkout CheckoutCreator
	Webhook  WebhookProcessor
	Now      func() time.Time
}

func NewBillingHandler(c CheckoutCreator, wh WebhookProcessor) *BillingHandler {
	return &BillingHandler{Checkout: c, Webhook: wh, Now: time.Now}
}

// CreateCheckout starts a founder subscription checkout.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := middleware.UserID(ctx)

	sess, err := h.Checkout.Create(ctx, uid, middleware.Email(ctx))
	if err != nil {
		observability.GetLogger(ctx).Error("checkout failed", zap.String("user_id", uid), zap.Error(err))
		transport.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error":     "failed to create checkout session",
			"details":   err.Error(),
			"timestamp": h.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	transport.WriteJSON(w, http.StatusOK, sess)
}

// HandleWebhook passes the raw body through untouched: the signature covers
// the exact bytes Stripe sent.
func (h *BillingHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		transport.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}

	err = h.Webhook.Handle(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		transport.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, billing.ErrInvalidSignature), errors.Is(err, billing.ErrMalformedEvent):
		transport.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		transport.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "webhook not applied"})
	}
}
