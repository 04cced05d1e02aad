package gateway

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"Storefront/internal/accounts"
	"Storefront/pkg/kit"
)

type ctxKey string

const staffIDKey ctxKey = "staff_id"

func StaffIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(staffIDKey).(string)
	return v, ok
}

// StaffOnly admits only requests carrying a valid staff access token.
func StaffOnly(tokens *accounts.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := tokens.Verify(strings.TrimPrefix(authz, "Bearer "))
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}
			if claims.Role != accounts.RoleStaff {
				kit.WriteError(w, r, http.StatusForbidden, "staff only", nil)
				return
			}

			r.Header.Set("X-Staff-Id", claims.AccountID)

			ctx := context.WithValue(r.Context(), staffIDKey, claims.AccountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func NewReverseProxy(target string, log *zap.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if log != nil {
			log.Warn("proxy error",
				zap.String("target", target),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
	}

	return p, nil
}
