package handler

import (
	"net/http"

	"github.com/SARVESHVARADKAR123/biolink/internal/middleware"
	"github.com/SARVESHVARADKAR123/biolink/internal/session"
	"github.com/SARVESHVARADKAR123/biolink/internal/transport"
)

// SessionHandler exposes the signed-in user's plan and logout.
type SessionHandler struct{ S *session.Store }

func NewSessionHandler(s *session.Store) *SessionHandler { return &SessionHandler{s} }

// Plan returns the entitlement snapshot of the authenticated user.
func (h *SessionHandler) Plan(w http.ResponseWriter, r *http.Request) {
	sess := h.S.Open(middleware.UserID(r.Context()))

	snap, err := sess.Entitlement(r.Context())
	if err != nil {
		transport.Error(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, snap)
}

// Logout evicts the cached profile of the authenticated user.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.S.Open(middleware.UserID(r.Context())).Close(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
