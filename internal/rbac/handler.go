package rbac

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-portal/meridian-portal/internal/platform/httpx"
	"github.com/meridian-portal/meridian-portal/internal/shared"
)

// Handler exposes the role administration and authorization-check API.
type Handler struct {
	logger   *slog.Logger
	registry *Registry
	guard    Middleware
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, registry *Registry, guard Middleware) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
		guard:    guard,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers RBAC routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAction("roles", ActionRead))
		r.Get("/permissions", h.listPermissions)
		r.Get("/roles", h.listRoles)
		r.Get("/roles/{name}", h.getRole)
		r.Get("/roles/{name}/permissions", h.rolePermissions)
		r.Get("/roles/{name}/modules", h.roleModules)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAction("roles", ActionCreate))
		r.Post("/roles", h.createRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAction("roles", ActionUpdate))
		r.Patch("/roles/{name}", h.updateRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAction("roles", ActionDelete))
		r.Delete("/roles/{name}", h.deleteRole)
	})
	// Evaluation endpoints for the SPA shell; any authenticated principal
	// may ask about its own access.
	r.Get("/check/module", h.checkModule)
	r.Get("/check/action", h.checkAction)
}

type permissionPayload struct {
	Resource string `json:"resource" validate:"required,max=64"`
	Action   string `json:"action" validate:"required,oneof=create read update delete admin"`
}

type createRoleRequest struct {
	Name        string              `json:"name" validate:"required,min=2,max=64"`
	DisplayName string              `json:"display_name" validate:"max=128"`
	Description string              `json:"description" validate:"max=512"`
	Permissions []permissionPayload `json:"permissions" validate:"dive"`
	Modules     []string            `json:"modules" validate:"dive,min=1,max=64"`
}

type updateRoleRequest struct {
	DisplayName *string              `json:"display_name" validate:"omitempty,max=128"`
	Description *string              `json:"description" validate:"omitempty,max=512"`
	Permissions *[]permissionPayload `json:"permissions" validate:"omitempty,dive"`
	Modules     *[]string            `json:"modules" validate:"omitempty,dive,min=1,max=64"`
	IsActive    *bool                `json:"is_active"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	var roles []Role
	switch r.URL.Query().Get("filter") {
	case "system":
		roles = h.registry.SystemRoles()
	case "custom":
		roles = h.registry.CustomRoles()
	default:
		roles = h.registry.AvailableRoles()
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, ok := h.registry.Role(chi.URLParam(r, "name"))
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	perms := h.registry.RolePermissions(chi.URLParam(r, "name"))
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) roleModules(w http.ResponseWriter, r *http.Request) {
	modules := h.registry.RoleModules(chi.URLParam(r, "name"))
	httpx.JSON(w, http.StatusOK, map[string]any{"modules": modules})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": h.registry.Permissions()})
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	role, err := h.registry.CreateCustomRole(req.Name, req.DisplayName, req.Description, toPermissions(req.Permissions), req.Modules)
	if err != nil {
		if errors.Is(err, ErrRoleExists) {
			httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrDuplicate, req.Name))
			return
		}
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if principal := shared.PrincipalFromContext(r.Context()); principal != nil {
		h.logger.Info("custom role created",
			slog.String("role", role.Name),
			slog.String("by", principal.UserID))
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	upd := RoleUpdate{
		DisplayName: req.DisplayName,
		Description: req.Description,
		Modules:     req.Modules,
		IsActive:    req.IsActive,
	}
	if req.Permissions != nil {
		perms := toPermissions(*req.Permissions)
		upd.Permissions = &perms
	}
	role, err := h.registry.UpdateRole(chi.URLParam(r, "name"), upd)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.registry.DeleteRole(name); err != nil {
		switch {
		case errors.Is(err, ErrRoleNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		case errors.Is(err, ErrSystemRole):
			httpx.RespondError(w, fmt.Errorf("%w: %s is a system role", httpx.ErrForbidden, name))
		default:
			httpx.RespondError(w, err)
		}
		return
	}
	h.logger.Info("role deleted", slog.String("role", name))
	httpx.NoContent(w)
}

func (h *Handler) checkModule(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	module := r.URL.Query().Get("module")
	httpx.JSON(w, http.StatusOK, map[string]any{
		"module":  module,
		"allowed": h.registry.CanAccessModule(principal.Roles, module),
	})
}

func (h *Handler) checkAction(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	resource := r.URL.Query().Get("resource")
	action := Action(r.URL.Query().Get("action"))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"resource": resource,
		"action":   action,
		"allowed":  h.registry.CanPerformAction(principal.Roles, resource, action),
	})
}

func toPermissions(payloads []permissionPayload) []Permission {
	perms := make([]Permission, 0, len(payloads))
	for _, p := range payloads {
		perms = append(perms, Permission{Resource: p.Resource, Action: Action(p.Action)})
	}
	return perms
}
