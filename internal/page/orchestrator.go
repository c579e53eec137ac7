package page

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
	"github.com/SARVESHVARADKAR123/biolink/internal/resilience"
)

const (
	MessageSlowConnection = "Conexão lenta - tente novamente"
	MessageGeneric        = "Não foi possível carregar a página"
)

var (
	// ErrSuperseded is returned by a Load whose result lost to a newer Load.
	ErrSuperseded = errors.New("page load superseded by a newer request")
	// ErrNothingToRetry is returned by Retry before any Load.
	ErrNothingToRetry = errors.New("no page load to retry")
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// PageData is everything the public page renders.
type PageData struct {
	Profile     *model.Profile     `json:"profile"`
	Links       []model.Link       `json:"links"`
	SocialLinks []model.SocialLink `json:"social_links"`
}

// State is a snapshot of the orchestrator.
type State struct {
	Status     Status
	Username   string
	Data       *PageData
	Err        error
	Message    string
	RetryCount int
}

// NotFound reports whether the terminal error is a missing profile.
func (s State) NotFound() bool {
	var nf *NotFoundError
	return errors.As(s.Err, &nf)
}

type Config struct {
	ProfileTimeout time.Duration
	LinkTimeout    time.Duration
	SocialTimeout  time.Duration
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration

	// Sleep overrides the backoff wait, mainly for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultConfig() Config {
	return Config{
		ProfileTimeout: 8 * time.Second,
		LinkTimeout:    8 * time.Second,
		SocialTimeout:  4 * time.Second,
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		MaxDelay:       5 * time.Second,
	}
}

// Orchestrator loads a public page: profile first, then links and social
// links concurrently, all under a retry policy. Only the most recent Load may
// write the state.
type Orchestrator struct {
	profiles *ProfileResolver
	links    *LinkSetLoader
	socials  *SocialLinkLoader
	policy   resilience.Policy

	mu       sync.Mutex
	gen      uint64
	state    State
	onChange func(State)
}

func NewOrchestrator(profiles ProfileSource, links LinkSource, socials SocialLinkSource, cfg Config) *Orchestrator {
	return &Orchestrator{
		profiles: NewProfileResolver(profiles, cfg.ProfileTimeout),
		links:    NewLinkSetLoader(links, cfg.LinkTimeout),
		socials:  NewSocialLinkLoader(socials, cfg.SocialTimeout),
		policy: resilience.Policy{
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     resilience.ExponentialBackoff(cfg.BaseDelay, cfg.MaxDelay),
			Retryable:   retryable,
			Sleep:       cfg.Sleep,
		},
		state: State{Status: StatusIdle},
	}
}

// OnChange registers fn to receive every state transition. fn runs on the
// loading goroutine and must not block.
func (o *Orchestrator) OnChange(fn func(State)) {
	o.mu.Lock()
	o.onChange = fn
	o.mu.Unlock()
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) RetryCount() int {
	return o.State().RetryCount
}

// Load fetches the page for username, replacing any previous result.
func (o *Orchestrator) Load(ctx context.Context, username string) (*PageData, error) {
	start := time.Now()
	ctx, span := observability.Tracer().Start(ctx, "page.Load")
	span.SetAttributes(attribute.String("page.username", username))
	defer span.End()

	o.mu.Lock()
	o.gen++
	gen := o.gen
	o.mu.Unlock()
	o.commit(gen, State{Status: StatusLoading, Username: username})

	policy := o.policy
	policy.OnAttempt = func(attempt int) {
		if attempt > 0 {
			observability.PageLoadRetriesTotal.Inc()
		}
		o.commit(gen, State{Status: StatusLoading, Username: username, RetryCount: attempt})
	}

	data, err := resilience.Do(ctx, policy, func(ctx context.Context, attempt int) (*PageData, error) {
		data, err := o.attempt(ctx, username)
		if err != nil {
			observability.GetLogger(ctx).Warn("page load attempt failed",
				zap.String("username", username), zap.Int("attempt", attempt), zap.Error(err))
		}
		return data, err
	})
	observability.PageLoadDuration.Observe(time.Since(start).Seconds())

	next := State{Status: StatusSuccess, Username: username, Data: data, RetryCount: o.attemptsSeen(gen)}
	if err != nil {
		next = State{Status: StatusError, Username: username, Err: err, Message: UserMessage(err), RetryCount: next.RetryCount}
		span.RecordError(err)
		span.SetStatus(codes.Error, next.Message)
	}
	if !o.commit(gen, next) {
		observability.PageLoadsTotal.WithLabelValues("superseded").Inc()
		return nil, ErrSuperseded
	}

	observability.PageLoadsTotal.WithLabelValues(outcome(next)).Inc()
	return data, err
}

// Retry reloads the last requested username from attempt zero.
func (o *Orchestrator) Retry(ctx context.Context) (*PageData, error) {
	username := o.State().Username
	if username == "" {
		return nil, ErrNothingToRetry
	}
	return o.Load(ctx, username)
}

func (o *Orchestrator) attempt(ctx context.Context, username string) (*PageData, error) {
	profile, err := o.profiles.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}

	var (
		links   []model.Link
		socials []model.SocialLink
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		links, err = o.links.Load(gctx, profile.ID)
		return err
	})
	g.Go(func() error {
		socials = o.socials.Load(gctx, profile.ID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &PageData{Profile: profile, Links: links, SocialLinks: socials}, nil
}

// commit stores s if gen is still the newest generation.
func (o *Orchestrator) commit(gen uint64, s State) bool {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return false
	}
	o.state = s
	fn := o.onChange
	o.mu.Unlock()

	if fn != nil {
		fn(s)
	}
	return true
}

func (o *Orchestrator) attemptsSeen(gen uint64) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		return 0
	}
	return o.state.RetryCount
}

// UserMessage turns a terminal load error into the text shown to visitors.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, resilience.ErrTimeout):
		return MessageSlowConnection
	case err.Error() != "":
		return err.Error()
	default:
		return MessageGeneric
	}
}

func retryable(err error) bool {
	var nf *NotFoundError
	switch {
	case errors.As(err, &nf):
		return false
	case errors.Is(err, model.ErrInvalidUsername):
		return false
	case errors.Is(err, context.Canceled):
		return false
	}
	return true
}

func outcome(s State) string {
	switch {
	case s.Status == StatusSuccess:
		return "success"
	case s.NotFound():
		return "not_found"
	case errors.Is(s.Err, resilience.ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
