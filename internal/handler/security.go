package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
)

// APIKeyHeader carries the admin API key.
const APIKeyHeader = "api_key"

type apiKeyCtxKey struct{}

// apiKeyFromContext returns the key authenticated by RequireAPIKey.
func apiKeyFromContext(ctx context.Context) *auth.APIKey {
	k, _ := ctx.Value(apiKeyCtxKey{}).(*auth.APIKey)
	return k
}

// RequireAPIKey rejects requests without a valid API key holding scope.
// The key is read from the api_key header, falling back to a bearer token.
func (h *Handler) RequireAPIKey(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(APIKeyHeader)
			if raw == "" {
				raw, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			key, err := h.auth.Authenticate(r.Context(), raw, scope)
			if err != nil {
				zctx.From(r.Context()).Warn("API key rejected",
					zap.String("scope", scope),
					zap.Error(err),
				)
				h.fail(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), apiKeyCtxKey{}, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
