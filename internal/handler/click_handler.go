package handler

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SARVESHVARADKAR123/biolink/internal/clicks"
	"github.com/SARVESHVARADKAR123/biolink/internal/transport"
)

type ClickRecorder interface {
	Record(ctx context.Context, linkID string, v clicks.Visit) int64
}

type ClickHandler struct{ T ClickRecorder }

func NewClickHandler(t ClickRecorder) *ClickHandler { return &ClickHandler{t} }

// Track counts a click on {id}. It always answers 200 so the visitor's
// navigation is never held up; click_count is 0 when counting failed.
func (h *ClickHandler) Track(w http.ResponseWriter, r *http.Request) {
	linkID := chi.URLParam(r, "id")

	n := h.T.Record(r.Context(), linkID, clicks.Visit{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	})

	transport.WriteJSON(w, http.StatusOK, map[string]int64{"click_count": n})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
