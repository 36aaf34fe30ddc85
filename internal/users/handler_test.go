package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrdesk/hrdesk/internal/rbac"
)

type envelope struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, svc *Service, p rbac.Principal, method, target, body string) (int, envelope) {
	t.Helper()
	guard := rbac.Guard{Evaluator: rbac.NewEvaluator(rbac.DefaultCatalog(), nil)}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(rbac.ContextWithPrincipal(req.Context(), p)))
		})
	})
	r.Route("/auth/users", NewHandler(nil, svc, guard).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestBootstrapAdminAnonymously(t *testing.T) {
	svc, _ := newTestService()
	body := `{"username":"root","password":"Sup3r$ecret","is_admin":true}`
	code, env := serve(t, svc, rbac.Anonymous(), http.MethodPost, "/auth/users/", body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User created successfully.", env.Message)

	var view map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "root", view["username"])
	assert.NotContains(t, view, "password")
	assert.NotContains(t, view, "password_hash")

	code, env = serve(t, svc, rbac.Anonymous(), http.MethodPost, "/auth/users/", strings.Replace(body, "root", "root2", 1))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, MsgAdminExists, env.Message)
}

func TestAnonymousNonAdminCreateDenied(t *testing.T) {
	svc, _ := newTestService()
	code, env := serve(t, svc, rbac.Anonymous(), http.MethodPost, "/auth/users/", `{"username":"ana","password":"Sup3r$ecret"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, rbac.MsgLoginRequired, env.Message)
}

func TestListIsAdminOnly(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Create(context.Background(), operator, CreateInput{Username: "ana", Password: goodPassword})
	require.NoError(t, err)

	code, _ := serve(t, svc, rbac.Principal{UserID: u.ID, IsAuthenticated: true}, http.MethodGet, "/auth/users/", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, env := serve(t, svc, rbac.Principal{IsAuthenticated: true, IsAdmin: true}, http.MethodGet, "/auth/users/", "")
	require.Equal(t, http.StatusOK, code)
	var list []View
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
}

func TestUserReachesOnlyOwnRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	ana, err := svc.Create(ctx, operator, CreateInput{Username: "ana", Password: goodPassword})
	require.NoError(t, err)
	bob, err := svc.Create(ctx, operator, CreateInput{Username: "bob", Password: goodPassword})
	require.NoError(t, err)
	p := rbac.Principal{UserID: ana.ID, IsAuthenticated: true}

	code, _ := serve(t, svc, p, http.MethodGet, "/auth/users/"+ana.ID.String(), "")
	assert.Equal(t, http.StatusOK, code)

	code, env := serve(t, svc, p, http.MethodPatch, "/auth/users/"+ana.ID.String(), `{"first_name":"Ana"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User updated successfully.", env.Message)

	code, env = serve(t, svc, p, http.MethodGet, "/auth/users/"+bob.ID.String(), "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, env.Message, "insufficient permission")

	code, _ = serve(t, svc, p, http.MethodDelete, "/auth/users/"+ana.ID.String(), "")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestUnknownUserIs404(t *testing.T) {
	svc, _ := newTestService()
	admin := rbac.Principal{IsAuthenticated: true, IsAdmin: true}
	code, _ := serve(t, svc, admin, http.MethodGet, "/auth/users/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAnonymousCannotSmuggleAdminFlag(t *testing.T) {
	svc, repo := newTestService()
	for _, body := range []string{
		`{"username":"eve","password":"Sup3r$ecret","is_admin":true,"IS_ADMIN":false,"role":1}`,
		`{"username":"eve","password":"Sup3r$ecret","Is_Admin":false,"is_admin":true,"role":1}`,
	} {
		code, env := serve(t, svc, rbac.Anonymous(), http.MethodPost, "/auth/users/", body)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Equal(t, "Malformed request body.", env.Message)
	}

	code, env := serve(t, svc, rbac.Anonymous(), http.MethodPost, "/auth/users/", `{"username":"eve","password":"Sup3r$ecret","IS_ADMIN":false,"role":1}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, rbac.MsgLoginRequired, env.Message)
	assert.Empty(t, repo.users)
}

func TestMissingUserIsForbiddenForNonAdmins(t *testing.T) {
	svc, _ := newTestService()
	ana, err := svc.Create(context.Background(), operator, CreateInput{Username: "ana", Password: goodPassword})
	require.NoError(t, err)

	missing := "/auth/users/" + uuid.NewString()
	code, env := serve(t, svc, rbac.Principal{UserID: ana.ID, IsAuthenticated: true}, http.MethodGet, missing, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, rbac.MsgInsufficientPermission, env.Message)

	code, _ = serve(t, svc, rbac.Principal{IsAuthenticated: true, IsAdmin: true}, http.MethodGet, missing, "")
	assert.Equal(t, http.StatusNotFound, code)
}
