package adminapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type ctxKey string

const ctxKeyUserID ctxKey = "uid"

// mustJWKS fetches JWKS and panics on failure.
func mustJWKS(url string) jwk.Set {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	set, err := jwk.Fetch(ctx, url)
	if err != nil {
		panic(err)
	}
	return set
}

func userID(ctx context.Context) string {
	if v := ctx.Value(ctxKeyUserID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// adminAuth validates an admin bearer token, or allows a dev header override
// when no JWKS is configured.
func (a *App) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.adminJWKS == nil {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			if uid := strings.TrimSpace(r.Header.Get("X-User-ID")); uid != "" {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUserID, uid)))
				return
			}
			http.Error(w, "missing user id", http.StatusBadRequest)
			return
		}

		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			http.Error(w, "missing bearer", http.StatusUnauthorized)
			return
		}
		tok := strings.TrimSpace(authz[len("Bearer "):])
		jt, err := jwt.Parse([]byte(tok),
			jwt.WithKeySet(a.adminJWKS),
			jwt.WithIssuer(a.adminIssuer),
			jwt.WithAudience(a.adminAud),
			jwt.WithValidate(true),
		)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		role, _ := jt.Get("role")
		if role == nil || role.(string) != "admin" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		uid := fmt.Sprint(jt.Subject())
		if uid == "" {
			http.Error(w, "missing subject", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUserID, uid)))
	})
}
