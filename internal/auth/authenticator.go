package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hrdesk/hrdesk/internal/platform/httpx"
	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/shared"
)

const tokenScheme = "Token"

// PrincipalSource resolves token keys to principals.
type PrincipalSource interface {
	Principal(ctx context.Context, key string) (rbac.Principal, error)
}

// Authenticator attaches the request principal to the context. Requests
// without credentials continue as anonymous; the guards decide what they
// may reach.
type Authenticator struct {
	source PrincipalSource
	logger *slog.Logger
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(source PrincipalSource, logger *slog.Logger) *Authenticator {
	return &Authenticator{source: source, logger: logger}
}

// Middleware resolves the Authorization header.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, present := TokenFromRequest(r)
		if !present {
			next.ServeHTTP(w, r.WithContext(rbac.ContextWithPrincipal(r.Context(), rbac.Anonymous())))
			return
		}
		if key == "" {
			httpx.RespondError(w, shared.ErrInvalidToken)
			return
		}
		p, err := a.source.Principal(r.Context(), key)
		if err != nil {
			httpx.Fail(w, a.logger, "authenticate", err)
			return
		}
		ctx := rbac.ContextWithPrincipal(r.Context(), p)
		next.ServeHTTP(w, r.WithContext(contextWithToken(ctx, key)))
	})
}

// TokenFromRequest extracts the key of an "Authorization: Token <key>"
// header. present is false when no such header was sent.
func TokenFromRequest(r *http.Request) (key string, present bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, rest, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, tokenScheme) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

type tokenContextKey struct{}

func contextWithToken(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, key)
}

// TokenFromContext returns the token the current request authenticated with.
func TokenFromContext(ctx context.Context) string {
	key, _ := ctx.Value(tokenContextKey{}).(string)
	return key
}
