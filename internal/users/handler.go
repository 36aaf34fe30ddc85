package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hrdesk/hrdesk/internal/platform/httpx"
	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   rbac.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Collection(rbac.ResourceUser))
		r.Get("/", h.list)
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Instance(rbac.ResourceUser))
		r.Get("/{id}", h.retrieve)
		r.Put("/{id}", h.update)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.destroy)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	httpx.OK(w, "Users fetched successfully.", Views(list))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.guard.CheckPayload(r, rbac.Payload{Admin: in.IsAdmin}); err != nil {
		h.fail(w, "authorize user", err)
		return
	}
	user, err := h.service.Create(r.Context(), rbac.PrincipalFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, "create user", err)
		return
	}
	httpx.OK(w, "User created successfully.", user.View())
}

func (h *Handler) retrieve(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.OK(w, "User retrieved successfully.", user.View())
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	updated, err := h.service.Update(r.Context(), rbac.PrincipalFromContext(r.Context()), user.ID, in)
	if err != nil {
		h.fail(w, "update user", err)
		return
	}
	httpx.OK(w, "User updated successfully.", updated.View())
}

func (h *Handler) destroy(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), user.ID); err != nil {
		h.fail(w, "delete user", err)
		return
	}
	httpx.OK(w, "User deleted successfully.", nil)
}

// load fetches the addressed user and runs the object check.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (User, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return User{}, false
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "load user", h.guard.LoadError(r, err))
		return User{}, false
	}
	if err := h.guard.CheckObject(r, user); err != nil {
		h.fail(w, "authorize user", err)
		return User{}, false
	}
	return user, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	httpx.Fail(w, h.logger, op, err)
}
