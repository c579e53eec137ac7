package handler

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
	"github.com/SARVESHVARADKAR123/biolink/internal/page"
	"github.com/SARVESHVARADKAR123/biolink/internal/transport"
)

// PageSources are the stores behind a public page.
type PageSources struct {
	Profiles page.ProfileSource
	Links    page.LinkSource
	Socials  page.SocialLinkSource
}

// PageHandler serves public link-in-bio pages.
type PageHandler struct {
	src PageSources
	cfg page.Config
}

func NewPageHandler(src PageSources, cfg page.Config) *PageHandler {
	return &PageHandler{src: src, cfg: cfg}
}

type pageResponse struct {
	*page.PageData
	RetryCount int `json:"retry_count"`
}

// Get loads the page for the {username} path parameter. Every request gets
// its own orchestrator so concurrent visitors never share state.
func (h *PageHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	log := observability.GetLogger(r.Context()).With(zap.String("username", username))

	o := page.NewOrchestrator(h.src.Profiles, h.src.Links, h.src.Socials, h.cfg)
	var retries atomic.Int64
	o.OnChange(func(s page.State) {
		retries.Store(int64(s.RetryCount))
		log.Debug("page state", zap.String("status", string(s.Status)), zap.Int("retry_count", s.RetryCount))
	})

	data, err := o.Load(r.Context(), username)
	state := o.State()
	switch {
	case err == nil:
		transport.WriteJSON(w, http.StatusOK, pageResponse{PageData: data, RetryCount: int(retries.Load())})
	case state.NotFound():
		transport.WriteError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, page.ErrSuperseded):
		transport.WriteError(w, http.StatusConflict, "superseded", err.Error())
	default:
		log.Warn("page load failed", zap.Int("retry_count", state.RetryCount), zap.Error(err))
		transport.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":       "unavailable",
			"message":     page.UserMessage(err),
			"retry_count": state.RetryCount,
		})
	}
}
