package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-portal/meridian-portal/internal/platform/httpx"
	"github.com/meridian-portal/meridian-portal/internal/shared"
)

// Handler exposes the session lifecycle over HTTP for the SPA warning
// dialog: state polling, activity signals, extension, and logout.
type Handler struct {
	logger  *slog.Logger
	manager *Manager
	secure  bool
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, manager *Manager, secure bool) *Handler {
	return &Handler{logger: logger, manager: manager, secure: secure}
}

// MountRoutes registers session routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.state)
	r.Post("/activity", h.activity)
	r.Post("/extend", h.extend)
	r.Post("/logout", h.logout)
}

type stateResponse struct {
	State                string    `json:"state"`
	IsActive             bool      `json:"is_active"`
	ShowWarning          bool      `json:"show_warning"`
	TimeRemainingSeconds int64     `json:"time_remaining_seconds"`
	LastActivity         time.Time `json:"last_activity"`
}

func toStateResponse(snap Snapshot) stateResponse {
	return stateResponse{
		State:                snap.State.String(),
		IsActive:             snap.IsActive,
		ShowWarning:          snap.ShowWarning,
		TimeRemainingSeconds: int64(snap.TimeRemaining / time.Second),
		LastActivity:         snap.LastActivity,
	}
}

// SessionIDFromRequest extracts the session ID from the request cookie.
func SessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// ClearCookie expires the session cookie on the client.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.manager.State)
}

func (h *Handler) activity(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.manager.Activity)
}

func (h *Handler) extend(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.manager.Extend)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	id := SessionIDFromRequest(r)
	if id == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.manager.Logout(r.Context(), id); err != nil {
		h.logger.Error("session logout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	ClearCookie(w, h.secure)
	httpx.NoContent(w)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (Snapshot, error)) {
	id := SessionIDFromRequest(r)
	if id == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	snap, err := op(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrSessionExpired) {
			ClearCookie(w, h.secure)
			httpx.Problem(w, http.StatusUnauthorized, "Session Expired", "the session has expired; sign in again")
			return
		}
		h.logger.Error("session operation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toStateResponse(snap))
}
