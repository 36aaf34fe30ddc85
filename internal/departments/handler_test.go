package departments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/shared"
)

func TestDepartmentRoutesFollowRolePermissions(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Create(context.Background(), Input{Name: "Engineering"})
	require.NoError(t, err)

	serve := func(p rbac.Principal, method, target, body string) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(rbac.ContextWithPrincipal(req.Context(), p)))
			})
		})
		guard := rbac.Guard{Evaluator: rbac.NewEvaluator(rbac.DefaultCatalog(), nil)}
		r.Route("/departments", NewHandler(nil, svc, guard).MountRoutes)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
		return rec
	}
	viewer := rbac.Principal{IsAuthenticated: true, Role: &rbac.Role{Permissions: []string{"department_view_all"}}}

	rec := serve(viewer, http.MethodGet, "/departments/?q=eng", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data shared.Page[View] `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Data.Total)

	assert.Equal(t, http.StatusOK, serve(viewer, http.MethodGet, "/departments/1", "").Code)

	rec = serve(viewer, http.MethodPost, "/departments/", `{"name":"Ops"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient permission")

	rec = serve(viewer, http.MethodPatch, "/departments/1", `{"name":"Ops"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, http.StatusForbidden, serve(rbac.Anonymous(), http.MethodGet, "/departments/", "").Code)
}

func TestDepartmentRetrieveNeedsViewPermission(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Create(context.Background(), Input{Name: "Engineering"})
	require.NoError(t, err)
	h := NewHandler(nil, svc, rbac.Guard{Evaluator: rbac.NewEvaluator(rbac.DefaultCatalog(), nil)})

	serve := func(p rbac.Principal, target string) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(rbac.ContextWithPrincipal(req.Context(), p)))
			})
		})
		r.Route("/departments", h.MountRoutes)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	roleless := rbac.Principal{IsAuthenticated: true}
	rec := serve(roleless, "/departments/1")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient permission")
	assert.Equal(t, http.StatusForbidden, serve(roleless, "/departments/999").Code)

	viewer := rbac.Principal{IsAuthenticated: true, Role: &rbac.Role{Permissions: []string{"department_view_all"}}}
	rec = serve(viewer, "/departments/1")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Message string `json:"message"`
		Data    View   `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Department retrieved successfully", env.Message)
	assert.Equal(t, "Engineering", env.Data.Name)
	assert.Equal(t, http.StatusNotFound, serve(viewer, "/departments/999").Code)
}
