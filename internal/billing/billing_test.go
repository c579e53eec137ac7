package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
)

const testSecret = "whsec_test"

func sign(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

type memSubscriptions struct {
	activated []model.SubscriptionChange
	cancelled []string
	owners    map[string]string
	err       error
}

func (m *memSubscriptions) Activate(_ context.Context, c model.SubscriptionChange) error {
	if m.err != nil {
		return m.err
	}
	m.activated = append(m.activated, c)
	return nil
}

func (m *memSubscriptions) Cancel(_ context.Context, subscriptionID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	owner, ok := m.owners[subscriptionID]
	if !ok {
		return "", model.ErrProfileNotFound
	}
	m.cancelled = append(m.cancelled, subscriptionID)
	return owner, nil
}

type invalidations []string

func (i *invalidations) Invalidate(_ context.Context, userID string) { *i = append(*i, userID) }

func newWebhook(store *memSubscriptions, inv *invalidations, now time.Time) *Webhook {
	return &Webhook{Secret: testSecret, Store: store, Sessions: inv, Now: func() time.Time { return now }}
}

const checkoutCompleted = `{
  "id": "evt_1",
  "object": "event",
  "type": "checkout.session.completed",
  "data": {"object": {
    "id": "cs_1",
    "object": "checkout.session",
    "customer": "cus_1",
    "subscription": "sub_1",
    "client_reference_id": "u1",
    "metadata": {"user_id": "u1", "is_founder": "true"}
  }}
}`

func TestWebhook_CheckoutCompleted(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memSubscriptions{}
	inv := &invalidations{}
	w := newWebhook(store, inv, now)

	payload := []byte(checkoutCompleted)
	require.NoError(t, w.Handle(context.Background(), payload, sign(payload, testSecret, time.Now())))

	require.Len(t, store.activated, 1)
	got := store.activated[0]
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.IsFounder)
	assert.Equal(t, "cus_1", got.CustomerID)
	assert.Equal(t, "sub_1", got.SubscriptionID)
	assert.Equal(t, now.Add(30*24*time.Hour), got.Expires)
	assert.Equal(t, invalidations{"u1"}, *inv)
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	store := &memSubscriptions{}
	w := newWebhook(store, &invalidations{}, time.Now())
	payload := []byte(checkoutCompleted)

	tests := []struct {
		name      string
		signature string
	}{
		{"wrong secret", sign(payload, "whsec_other", time.Now())},
		{"missing header", ""},
		{"stale timestamp", sign(payload, testSecret, time.Now().Add(-time.Hour))},
		{"garbage", "t=abc,v1=zzz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.Handle(context.Background(), payload, tt.signature)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
	assert.Empty(t, store.activated)
}

func TestWebhook_TamperedPayload(t *testing.T) {
	store := &memSubscriptions{}
	w := newWebhook(store, &invalidations{}, time.Now())

	sig := sign([]byte(checkoutCompleted), testSecret, time.Now())
	tampered := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"metadata":{"user_id":"attacker"}}}}`)

	assert.ErrorIs(t, w.Handle(context.Background(), tampered, sig), ErrInvalidSignature)
	assert.Empty(t, store.activated)
}

func TestWebhook_SubscriptionDeleted(t *testing.T) {
	store := &memSubscriptions{owners: map[string]string{"sub_1": "u1"}}
	inv := &invalidations{}
	w := newWebhook(store, inv, time.Now())

	payload := []byte(`{"id":"evt_2","object":"event","type":"customer.subscription.deleted",
		"data":{"object":{"id":"sub_1","object":"subscription","customer":"cus_1"}}}`)
	require.NoError(t, w.Handle(context.Background(), payload, sign(payload, testSecret, time.Now())))

	assert.Equal(t, []string{"sub_1"}, store.cancelled)
	assert.Equal(t, invalidations{"u1"}, *inv)
}

func TestWebhook_UnknownSubscriptionIsAcknowledged(t *testing.T) {
	store := &memSubscriptions{owners: map[string]string{}}
	w := newWebhook(store, &invalidations{}, time.Now())

	payload := []byte(`{"id":"evt_3","object":"event","type":"customer.subscription.deleted",
		"data":{"object":{"id":"sub_unknown","object":"subscription"}}}`)
	assert.NoError(t, w.Handle(context.Background(), payload, sign(payload, testSecret, time.Now())))
}

func TestWebhook_MissingUserID(t *testing.T) {
	w := newWebhook(&memSubscriptions{}, &invalidations{}, time.Now())

	payload := []byte(`{"id":"evt_4","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_2","object":"checkout.session","metadata":{}}}}`)
	err := w.Handle(context.Background(), payload, sign(payload, testSecret, time.Now()))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestWebhook_IgnoresOtherEvents(t *testing.T) {
	store := &memSubscriptions{}
	w := newWebhook(store, &invalidations{}, time.Now())

	payload := []byte(`{"id":"evt_5","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)
	assert.NoError(t, w.Handle(context.Background(), payload, sign(payload, testSecret, time.Now())))
	assert.Empty(t, store.activated)
}

func TestWebhook_StoreFailurePropagates(t *testing.T) {
	w := newWebhook(&memSubscriptions{err: errors.New("db down")}, &invalidations{}, time.Now())
	payload := []byte(checkoutCompleted)

	err := w.Handle(context.Background(), payload, sign(payload, testSecret, time.Now()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
}

type stubEligibility struct {
	ok  bool
	err error
}

func (s stubEligibility) CanBeFounder(context.Context) (bool, error) { return s.ok, s.err }

type fakeGateway struct {
	customerErr error
	sessionErr  error
	customers   []string
	requests    []CheckoutRequest
}

func (g *fakeGateway) FindOrCreateCustomer(_ context.Context, email, _ string) (string, error) {
	if g.customerErr != nil {
		return "", g.customerErr
	}
	g.customers = append(g.customers, email)
	return "cus_" + email, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	g.requests = append(g.requests, req)
	return &CheckoutSession{ID: "cs_new", URL: "https://checkout.stripe.com/c/pay/cs_new"}, nil
}

func TestCheckout_Create(t *testing.T) {
	gw := &fakeGateway{}
	c := &Checkout{Founders: stubEligibility{ok: true}, Gateway: gw, PriceID: "price_founder",
		SuccessURL: "https://app.example.com/ok", CancelURL: "https://app.example.com/cancel"}

	sess, err := c.Create(context.Background(), "u1", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cs_new", sess.ID)

	require.Len(t, gw.requests, 1)
	req := gw.requests[0]
	assert.Equal(t, "cus_alice@example.com", req.CustomerID)
	assert.Equal(t, "price_founder", req.PriceID)
	assert.Equal(t, map[string]string{"user_id": "u1", "is_founder": "true"}, req.Metadata)
}

func TestCheckout_Failures(t *testing.T) {
	tests := []struct {
		name    string
		elig    stubEligibility
		gw      *fakeGateway
		email   string
		wantErr error
	}{
		{"slots exhausted", stubEligibility{ok: false}, &fakeGateway{}, "a@example.com", ErrFounderSlotsExhausted},
		{"missing email", stubEligibility{ok: true}, &fakeGateway{}, "", ErrMissingEmail},
		{"eligibility rpc failed", stubEligibility{err: errors.New("rpc")}, &fakeGateway{}, "a@example.com", nil},
		{"customer failed", stubEligibility{ok: true}, &fakeGateway{customerErr: errors.New("stripe")}, "a@example.com", nil},
		{"session failed", stubEligibility{ok: true}, &fakeGateway{sessionErr: errors.New("stripe")}, "a@example.com", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Checkout{Founders: tt.elig, Gateway: tt.gw, PriceID: "price"}
			_, err := c.Create(context.Background(), "u1", tt.email)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if errors.Is(err, ErrFounderSlotsExhausted) {
				assert.Empty(t, tt.gw.customers)
			}
		})
	}
}
