package roles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hrdesk/hrdesk/internal/platform/httpx"
	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/shared"
)

// Handler manages role management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   rbac.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Collection(rbac.ResourceRole))
		r.Get("/", h.listRoles)
		r.Post("/", h.createRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Instance(rbac.ResourceRole))
		r.Get("/{id}", h.getRole)
		r.Put("/{id}", h.updateRole)
		r.Patch("/{id}", h.updateRole)
		r.Delete("/{id}", h.deleteRole)
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListRoles(r.Context(), ListFilters{Query: r.URL.Query().Get("q")})
	if err != nil {
		httpx.Fail(w, h.logger, "list roles", err)
		return
	}
	views := make([]View, 0, len(list))
	for _, role := range list {
		views = append(views, h.service.View(role))
	}
	httpx.OK(w, "Roles fetched successfully", views)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	role, err := h.service.CreateRole(r.Context(), in)
	if err != nil {
		httpx.Fail(w, h.logger, "create role", err)
		return
	}
	httpx.OK(w, "Role created successfully.", h.service.View(role))
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.OK(w, "Role retrieved successfully.", h.service.View(role))
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	role, ok := h.load(w, r)
	if !ok {
		return
	}
	var in Patch
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	updated, err := h.service.UpdateRole(r.Context(), role.ID, in)
	if err != nil {
		httpx.Fail(w, h.logger, "update role", err)
		return
	}
	httpx.OK(w, "Role updated successfully.", h.service.View(updated))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	role, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), role.ID); err != nil {
		httpx.Fail(w, h.logger, "delete role", err)
		return
	}
	httpx.OK(w, "Role deleted successfully.", nil)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Role, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return Role{}, false
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "load role", err)
		return Role{}, false
	}
	if err := h.guard.CheckObject(r, role); err != nil {
		httpx.Fail(w, h.logger, "authorize role", err)
		return Role{}, false
	}
	return role, true
}
