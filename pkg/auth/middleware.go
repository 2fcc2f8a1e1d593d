package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Middleware authenticates API callers. EVM signature headers are the
// primary scheme; bearer tokens are accepted when a JWKS endpoint is
// configured. The recovered caller address lands in the request context;
// requests without credentials pass through unauthenticated and handlers
// that need a caller reject them.
type Middleware struct {
	validator *JWTValidator
	logger    *zap.Logger
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(validator *JWTValidator, logger *zap.Logger) *Middleware {
	return &Middleware{validator: validator, logger: logger}
}

// Authenticate wraps next with caller authentication.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// EVM signature authentication first.
		signature := r.Header.Get("X-Signature")
		message := r.Header.Get("X-Message")
		if signature != "" && message != "" {
			recovered, err := VerifyEIP191Signature(message, signature)
			if err != nil {
				m.logger.Warn("signature authentication failed", zap.Error(err))
				writeUnauthorized(w, "invalid signature")
				return
			}

			ctx := WithCaller(r.Context(), NormalizeAddress(recovered.Hex()))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// Bearer token fallback.
		if m.validator != nil && m.validator.IsConfigured() {
			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token := strings.TrimPrefix(authHeader, "Bearer ")
				claims, err := m.validator.ValidateToken(token)
				if err != nil {
					m.logger.Warn("token authentication failed", zap.Error(err))
					writeUnauthorized(w, "invalid token")
					return
				}

				sub, ok := claims["sub"].(string)
				if !ok || !ValidateEVMAddress(sub) {
					writeUnauthorized(w, "token subject is not a caller address")
					return
				}

				ctx := WithCaller(r.Context(), NormalizeAddress(sub))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": message,
		"code":  http.StatusUnauthorized,
	})
}
