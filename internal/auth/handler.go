package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-portal/meridian-portal/internal/platform/httpx"
	"github.com/meridian-portal/meridian-portal/internal/rbac"
	"github.com/meridian-portal/meridian-portal/internal/session"
	"github.com/meridian-portal/meridian-portal/internal/shared"
)

// Handler manages login and logout endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	registry *rbac.Registry
	sessions *session.Manager
	validate *validator.Validate
	secure   bool
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, registry *rbac.Registry, sessions *session.Manager, secure bool) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		registry: registry,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		secure:   secure,
	}
}

// MountRoutes registers authentication routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type principalResponse struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
			return
		}
		h.logger.Error("authenticate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	id, _, err := h.sessions.Start(r.Context(), user.ID, user.Email, user.Roles)
	if err != nil {
		h.logger.Error("start session", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	httpx.JSON(w, http.StatusOK, principalResponse{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Roles:       user.Roles,
		Permissions: h.registry.MaterializedPermissions(user.Roles),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if id := session.SessionIDFromRequest(r); id != "" {
		if err := h.sessions.Logout(r.Context(), id); err != nil {
			h.logger.Warn("logout", slog.Any("error", err))
		}
	}
	session.ClearCookie(w, h.secure)
	httpx.NoContent(w)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, principalResponse{
		UserID:      principal.UserID,
		Email:       principal.Email,
		Roles:       principal.Roles,
		Permissions: principal.Permissions,
	})
}
