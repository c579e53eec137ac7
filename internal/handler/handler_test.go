package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/biolink/internal/billing"
	"github.com/SARVESHVARADKAR123/biolink/internal/clicks"
	"github.com/SARVESHVARADKAR123/biolink/internal/config"
	"github.com/SARVESHVARADKAR123/biolink/internal/model"
	"github.com/SARVESHVARADKAR123/biolink/internal/page"
	"github.com/SARVESHVARADKAR123/biolink/internal/plan"
	"github.com/SARVESHVARADKAR123/biolink/internal/session"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "biolink-auth"
	testAudience = "biolink-clients"
)

// --------------- fakes ---------------

type pageStore struct {
	mu          sync.Mutex
	profileErrs []error
	calls       int
}

func (s *pageStore) GetByUsername(_ context.Context, username string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.profileErrs) > 0 {
		err := s.profileErrs[0]
		s.profileErrs = s.profileErrs[1:]
		return nil, err
	}
	if username != "alice" {
		return nil, model.ErrProfileNotFound
	}
	return &model.Profile{ID: "u-alice", Username: "alice", Name: "Alice", Plan: model.PlanFree}, nil
}

func (s *pageStore) ListActive(_ context.Context, userID string) ([]model.Link, error) {
	return []model.Link{
		{ID: "l1", UserID: userID, Title: "Blog", URL: "alice.dev", Position: 0, IsActive: true},
	}, nil
}

func (s *pageStore) List(_ context.Context, _ string) ([]model.SocialLink, error) {
	return nil, errors.New("social table unavailable")
}

type recordedClick struct {
	linkID string
	visit  clicks.Visit
}

type fakeClicks struct {
	n   int64
	got []recordedClick
}

func (f *fakeClicks) Record(_ context.Context, linkID string, v clicks.Visit) int64 {
	f.got = append(f.got, recordedClick{linkID, v})
	return f.n
}

type profileLoader struct{ p model.Profile }

func (l profileLoader) GetByID(_ context.Context, id string) (*model.Profile, error) {
	if id != l.p.ID {
		return nil, model.ErrProfileNotFound
	}
	p := l.p
	return &p, nil
}

type founders struct{}

func (founders) FounderCount(context.Context) (int, error) { return 0, errors.New("rpc failed") }
func (founders) CanBeFounder(context.Context) (bool, error) { return true, nil }

type fakeCheckout struct {
	err    error
	userID string
	email  string
}

func (f *fakeCheckout) Create(_ context.Context, userID, email string) (*billing.CheckoutSession, error) {
	f.userID, f.email = userID, email
	if f.err != nil {
		return nil, f.err
	}
	return &billing.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/pay/cs_1"}, nil
}

type fakeWebhook struct {
	err       error
	payload   string
	signature string
}

func (f *fakeWebhook) Handle(_ context.Context, payload []byte, signature string) error {
	f.payload, f.signature = string(payload), signature
	return f.err
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

// --------------- helpers ---------------

type fixture struct {
	pages    *pageStore
	clicks   *fakeClicks
	checkout *fakeCheckout
	webhook  *fakeWebhook
	db       *pinger
	router   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		pages:    &pageStore{},
		clicks:   &fakeClicks{n: 7},
		checkout: &fakeCheckout{},
		webhook:  &fakeWebhook{},
		db:       &pinger{},
	}

	cfg := &config.Config{
		ServiceName:       "biolink-test",
		JWTSecret:         testSecret,
		JWTIssuer:         testIssuer,
		JWTAudience:       testAudience,
		RateLimitRequests: 1000,
		RateLimitWindow:   "1m",
	}

	pageCfg := page.DefaultConfig()
	pageCfg.Sleep = func(context.Context, time.Duration) error { return nil }

	store := session.NewStore(
		profileLoader{p: model.Profile{ID: "u1", Username: "alice", Plan: model.PlanPro, IsFounder: true}},
		nil,
		&plan.Service{Founders: founders{}},
	)

	bh := NewBillingHandler(f.checkout, f.webhook)
	bh.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	f.router = NewRouter(cfg, Deps{
		Pages:    PageSources{Profiles: f.pages, Links: f.pages, Socials: f.pages},
		PageCfg:  pageCfg,
		Clicks:   f.clicks,
		Sessions: store,
		Billing:  bh,
		DB:       f.db,
	})
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	base := jwt.MapClaims{
		"iss": testIssuer,
		"aud": testAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		base[k] = v
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, base).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func authed(t *testing.T, method, path string, claims jwt.MapClaims) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token(t, claims))
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// --------------- pages ---------------

func TestPage_Success(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/pages/alice", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(0), body["retry_count"])
	assert.Equal(t, "alice", body["profile"].(map[string]any)["username"])

	links := body["links"].([]any)
	require.Len(t, links, 1)
	assert.Equal(t, "https://alice.dev", links[0].(map[string]any)["url"])
	assert.Empty(t, body["social_links"])
}

func TestPage_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/pages/ghost", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, `profile "ghost" not found`, decode(t, rec)["message"])
	assert.Equal(t, 1, f.pages.calls)
}

func TestPage_RecoversAfterRetry(t *testing.T) {
	f := newFixture(t)
	f.pages.profileErrs = []error{errors.New("connection reset")}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/pages/alice", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["retry_count"])
}

func TestPage_Unavailable(t *testing.T) {
	f := newFixture(t)
	down := errors.New("connection refused")
	f.pages.profileErrs = []error{down, down, down}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/pages/alice", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "connection refused", body["message"])
	assert.Equal(t, float64(2), body["retry_count"])
	assert.Equal(t, 3, f.pages.calls)
}

// --------------- clicks ---------------

func TestClick_Track(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/links/l1/click", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Referer", "https://instagram.com")

	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7), decode(t, rec)["click_count"])

	require.Len(t, f.clicks.got, 1)
	assert.Equal(t, recordedClick{"l1", clicks.Visit{IP: "203.0.113.9", UserAgent: "test-agent", Referer: "https://instagram.com"}}, f.clicks.got[0])
}

func TestClick_FailureStillOK(t *testing.T) {
	f := newFixture(t)
	f.clicks.n = 0

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/links/l1/click", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["click_count"])
}

// --------------- auth + plan ---------------

func TestAuth_Rejects(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"garbage", "Bearer not-a-jwt"},
		{"wrong audience", "Bearer " + token(t, jwt.MapClaims{"sub": "u1", "aud": "other"})},
		{"no subject", "Bearer " + token(t, jwt.MapClaims{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/plan/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)
		})
	}
}

func TestPlan_Me(t *testing.T) {
	f := newFixture(t)

	rec := f.do(authed(t, http.MethodGet, "/api/v1/plan/me", jwt.MapClaims{"sub": "u1"}))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["is_pro"])
	assert.Equal(t, true, body["is_founder"])
	assert.Equal(t, false, body["can_upgrade"])
	assert.Nil(t, body["max_links"])
	assert.Equal(t, float64(0), body["founder_count"])
}

func TestPlan_UnknownUser(t *testing.T) {
	f := newFixture(t)

	rec := f.do(authed(t, http.MethodGet, "/api/v1/plan/me", jwt.MapClaims{"sub": "nobody"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	rec := f.do(authed(t, http.MethodPost, "/api/v1/session/logout", jwt.MapClaims{"sub": "u1"}))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// --------------- billing ---------------

func TestCheckout_OK(t *testing.T) {
	f := newFixture(t)

	rec := f.do(authed(t, http.MethodPost, "/api/v1/billing/checkout",
		jwt.MapClaims{"sub": "u1", "email": "alice@example.com"}))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "cs_1", body["sessionId"])
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_1", body["url"])
	assert.Equal(t, "u1", f.checkout.userID)
	assert.Equal(t, "alice@example.com", f.checkout.email)
}

func TestCheckout_Failure(t *testing.T) {
	f := newFixture(t)
	f.checkout.err = billing.ErrFounderSlotsExhausted

	rec := f.do(authed(t, http.MethodPost, "/api/v1/billing/checkout", jwt.MapClaims{"sub": "u1"}))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "failed to create checkout session", body["error"])
	assert.Equal(t, billing.ErrFounderSlotsExhausted.Error(), body["details"])
	assert.Equal(t, "2026-03-01T12:00:00Z", body["timestamp"])
}

func TestWebhook(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"applied", nil, http.StatusOK},
		{"bad signature", billing.ErrInvalidSignature, http.StatusBadRequest},
		{"malformed", billing.ErrMalformedEvent, http.StatusBadRequest},
		{"store failure", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.webhook.err = tt.err

			req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/webhook", strings.NewReader(`{"id":"evt_1"}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")

			rec := f.do(req)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, `{"id":"evt_1"}`, f.webhook.payload)
			assert.Equal(t, "t=1,v1=abc", f.webhook.signature)
			if tt.err == nil {
				assert.Equal(t, true, decode(t, rec)["received"])
			}
		})
	}
}

// --------------- health ---------------

func TestHealth(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
	assert.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)

	f.db.err = errors.New("down")
	assert.Equal(t, http.StatusServiceUnavailable, f.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)
}
