package auth

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hrdesk/hrdesk/internal/platform/httpx"
	"github.com/hrdesk/hrdesk/internal/rbac"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	result, err := h.service.Login(r.Context(), in, clientInfo(r))
	if err != nil {
		httpx.Fail(w, h.logger, "login", err)
		return
	}
	httpx.OK(w, "User logged in successfully.", result)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !rbac.PrincipalFromContext(r.Context()).IsAuthenticated {
		httpx.Error(w, http.StatusForbidden, rbac.MsgLoginRequired)
		return
	}
	if err := h.service.Logout(r.Context(), TokenFromContext(r.Context())); err != nil {
		httpx.Fail(w, h.logger, "logout", err)
		return
	}
	httpx.OK(w, "User logged out successfully.", nil)
}

func clientInfo(r *http.Request) ClientInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return ClientInfo{IP: ip, UserAgent: r.UserAgent()}
}
