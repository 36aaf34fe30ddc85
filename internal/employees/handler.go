package employees

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hrdesk/hrdesk/internal/platform/httpx"
	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/shared"
)

// Handler manages employee, salary and leave endpoints.
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

// MountRoutes registers employee routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Collection(rbac.ResourceEmployee))
		r.Get("/", h.listEmployees)
		r.Post("/", h.createEmployee)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Instance(rbac.ResourceEmployee))
		r.Get("/{id:[0-9]+}", h.retrieveEmployee)
		r.Put("/{id:[0-9]+}", h.updateEmployee)
		r.Patch("/{id:[0-9]+}", h.updateEmployee)
		r.Delete("/{id:[0-9]+}", h.destroyEmployee)
	})
}

// MountSalaryRoutes registers salary routes.
func (h *Handler) MountSalaryRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Collection(rbac.ResourceSalary))
		r.Get("/", h.listSalaries)
		r.Post("/", h.createSalary)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Instance(rbac.ResourceSalary))
		r.Get("/{id}", h.retrieveSalary)
		r.Put("/{id}", h.updateSalary)
		r.Patch("/{id}", h.updateSalary)
		r.Delete("/{id}", h.destroySalary)
	})
}

// MountLeaveRoutes registers leave routes.
func (h *Handler) MountLeaveRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Collection(rbac.ResourceLeave))
		r.Get("/", h.listLeaves)
		r.Post("/", h.createLeave)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Instance(rbac.ResourceLeave))
		r.Get("/{id}", h.retrieveLeave)
		r.Put("/{id}", h.updateLeave)
		r.Patch("/{id}", h.updateLeave)
		r.Delete("/{id}", h.destroyLeave)
	})
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.ListEmployees(r.Context(), ListFilters{
		Query:        q.Get("q"),
		DepartmentID: queryID(q, "department_id"),
		EmployeeID:   rbac.EmployeeFilter(r.Context()),
		Page:         shared.PageRequestFromQuery(q),
	})
	if err != nil {
		h.fail(w, "list employees", err)
		return
	}
	httpx.OK(w, "Employees fetched successfully.", page)
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if !h.decode(w, r, &in) {
		return
	}
	if err := h.guard.CheckPayload(r, rbac.Payload{}); err != nil {
		h.fail(w, "authorize employee", err)
		return
	}
	e, err := h.service.CreateEmployee(r.Context(), rbac.PrincipalFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, "create employee", err)
		return
	}
	h.respondEmployee(w, r, "Employee created successfully.", e)
}

func (h *Handler) retrieveEmployee(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEmployee(w, r)
	if !ok {
		return
	}
	h.respondEmployee(w, r, "Employee retrieved successfully", e)
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEmployee(w, r)
	if !ok {
		return
	}
	var in UpdateInput
	if !h.decode(w, r, &in) {
		return
	}
	updated, err := h.service.UpdateEmployee(r.Context(), rbac.PrincipalFromContext(r.Context()), e.ID, in)
	if err != nil {
		h.fail(w, "update employee", err)
		return
	}
	h.respondEmployee(w, r, "Employee updated successfully.", updated)
}

func (h *Handler) destroyEmployee(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEmployee(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteEmployee(r.Context(), e.ID); err != nil {
		h.fail(w, "delete employee", err)
		return
	}
	httpx.OK(w, "Employee deleted successfully.", nil)
}

func (h *Handler) respondEmployee(w http.ResponseWriter, r *http.Request, msg string, e Employee) {
	v, err := h.service.Detail(r.Context(), e)
	if err != nil {
		h.fail(w, "employee detail", err)
		return
	}
	httpx.OK(w, msg, v)
}

func (h *Handler) loadEmployee(w http.ResponseWriter, r *http.Request) (Employee, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return Employee{}, false
	}
	e, err := h.service.GetEmployee(r.Context(), id)
	if err != nil {
		h.fail(w, "load employee", h.guard.LoadError(r, err))
		return Employee{}, false
	}
	if err := h.guard.CheckObject(r, e); err != nil {
		h.fail(w, "authorize employee", err)
		return Employee{}, false
	}
	return e, true
}

func (h *Handler) listSalaries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.ListSalaries(r.Context(), RecordFilters{
		Query:      q.Get("q"),
		EmployeeID: rbac.EmployeeFilter(r.Context()),
		Page:       shared.PageRequestFromQuery(q),
	})
	if err != nil {
		h.fail(w, "list salaries", err)
		return
	}
	httpx.OK(w, "Salaries fetched successfully.", page)
}

func (h *Handler) createSalary(w http.ResponseWriter, r *http.Request) {
	var in CreateSalaryInput
	if !h.decode(w, r, &in) {
		return
	}
	if err := h.guard.CheckPayload(r, rbac.Payload{Employee: employeeRef(in.EmployeeID)}); err != nil {
		h.fail(w, "authorize salary", err)
		return
	}
	s, err := h.service.CreateSalary(r.Context(), in)
	if err != nil {
		h.fail(w, "create salary", err)
		return
	}
	httpx.OK(w, "Salary record created successfully.", s.View())
}

func (h *Handler) retrieveSalary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSalary(w, r)
	if !ok {
		return
	}
	httpx.OK(w, "Salary record retrieved successfully.", s.View())
}

func (h *Handler) updateSalary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSalary(w, r)
	if !ok {
		return
	}
	var in SalaryPatch
	if !h.decode(w, r, &in) {
		return
	}
	updated, err := h.service.UpdateSalary(r.Context(), s.ID, in)
	if err != nil {
		h.fail(w, "update salary", err)
		return
	}
	httpx.OK(w, "Salary record updated successfully.", updated.View())
}

func (h *Handler) destroySalary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSalary(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSalary(r.Context(), s.ID); err != nil {
		h.fail(w, "delete salary", err)
		return
	}
	httpx.OK(w, "Salary record deleted successfully.", nil)
}

func (h *Handler) loadSalary(w http.ResponseWriter, r *http.Request) (Salary, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return Salary{}, false
	}
	s, err := h.service.GetSalary(r.Context(), id)
	if err != nil {
		h.fail(w, "load salary", h.guard.LoadError(r, err))
		return Salary{}, false
	}
	if err := h.guard.CheckObject(r, s); err != nil {
		h.fail(w, "authorize salary", err)
		return Salary{}, false
	}
	return s, true
}

func (h *Handler) listLeaves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.ListLeaves(r.Context(), RecordFilters{
		Query:      q.Get("q"),
		EmployeeID: rbac.EmployeeFilter(r.Context()),
		Page:       shared.PageRequestFromQuery(q),
	})
	if err != nil {
		h.fail(w, "list leaves", err)
		return
	}
	httpx.OK(w, "Leave requests fetched successfully.", page)
}

func (h *Handler) createLeave(w http.ResponseWriter, r *http.Request) {
	var in CreateLeaveInput
	if !h.decode(w, r, &in) {
		return
	}
	if err := h.guard.CheckPayload(r, rbac.Payload{Employee: employeeRef(in.EmployeeID)}); err != nil {
		h.fail(w, "authorize leave", err)
		return
	}
	l, err := h.service.CreateLeave(r.Context(), rbac.PrincipalFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, "create leave", err)
		return
	}
	httpx.OK(w, "Leave request created successfully.", l.View())
}

func (h *Handler) retrieveLeave(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLeave(w, r)
	if !ok {
		return
	}
	httpx.OK(w, "Leave request retrieved successfully.", l.View())
}

func (h *Handler) updateLeave(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLeave(w, r)
	if !ok {
		return
	}
	var in LeavePatch
	if !h.decode(w, r, &in) {
		return
	}
	updated, err := h.service.UpdateLeave(r.Context(), rbac.PrincipalFromContext(r.Context()), l.ID, in)
	if err != nil {
		h.fail(w, "update leave", err)
		return
	}
	httpx.OK(w, "Leave request updated successfully.", updated.View())
}

func (h *Handler) destroyLeave(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLeave(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteLeave(r.Context(), l.ID); err != nil {
		h.fail(w, "delete leave", err)
		return
	}
	httpx.OK(w, "Leave request deleted successfully.", nil)
}

func (h *Handler) loadLeave(w http.ResponseWriter, r *http.Request) (Leave, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return Leave{}, false
	}
	l, err := h.service.GetLeave(r.Context(), id)
	if err != nil {
		h.fail(w, "load leave", h.guard.LoadError(r, err))
		return Leave{}, false
	}
	if err := h.guard.CheckObject(r, l); err != nil {
		h.fail(w, "authorize leave", err)
		return Leave{}, false
	}
	return l, true
}

// decode reads the JSON body. Field-level parse failures such as a bad date
// keep their validation message.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	err := httpx.DecodeJSON(r, target)
	if err == nil {
		return true
	}
	if errors.Is(err, shared.ErrValidation) {
		httpx.RespondError(w, err)
		return false
	}
	httpx.Error(w, http.StatusBadRequest, "Malformed request body.")
	return false
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	httpx.Fail(w, h.logger, op, err)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.ErrNotFound)
		return 0, false
	}
	return id, true
}

func employeeRef(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// queryID parses an optional positive integer filter. Malformed values are
// ignored.
func queryID(q url.Values, key string) *int64 {
	id, err := strconv.ParseInt(q.Get(key), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}
