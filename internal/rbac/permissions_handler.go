package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hrdesk/hrdesk/internal/platform/httpx"
)

// PermissionsHandler exposes the permission catalog for client-side UIs.
type PermissionsHandler struct {
	logger  *slog.Logger
	catalog *Catalog
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, catalog *Catalog) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, catalog: catalog}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPermissions)
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, "Custom permissions fetched successfully.", h.catalog.ListAll())
}
