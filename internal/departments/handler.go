package departments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hrdesk/hrdesk/internal/platform/httpx"
	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/shared"
)

// Handler manages department endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   rbac.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers department routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Collection(rbac.ResourceDepartment))
		r.Get("/", h.list)
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Instance(rbac.ResourceDepartment))
		r.Get("/{id}", h.retrieve)
		r.Put("/{id}", h.update)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.destroy)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), ListFilters{
		Query: r.URL.Query().Get("q"),
		Page:  shared.PageRequestFromQuery(r.URL.Query()),
	})
	if err != nil {
		httpx.Fail(w, h.logger, "list departments", err)
		return
	}
	httpx.OK(w, "Departments fetched successfully", page)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	d, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.Fail(w, h.logger, "create department", err)
		return
	}
	httpx.OK(w, "Department created successfully", d.View())
}

func (h *Handler) retrieve(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.OK(w, "Department retrieved successfully", d.View())
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	var in Patch
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	updated, err := h.service.Update(r.Context(), d.ID, in)
	if err != nil {
		httpx.Fail(w, h.logger, "update department", err)
		return
	}
	httpx.OK(w, "Department updated successfully", updated.View())
}

func (h *Handler) destroy(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), d.ID); err != nil {
		httpx.Fail(w, h.logger, "delete department", err)
		return
	}
	httpx.OK(w, "Department deleted successfully", nil)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Department, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return Department{}, false
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "load department", err)
		return Department{}, false
	}
	if err := h.guard.CheckObject(r, d); err != nil {
		httpx.Fail(w, h.logger, "authorize department", err)
		return Department{}, false
	}
	return d, true
}
