package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/usermeta/usermeta/internal/vault"
)

// AuthKeyHeader is the shared-secret request header.
const AuthKeyHeader = "x-auth-key"

// AuthKeyConfig holds configuration for the auth key middleware.
type AuthKeyConfig struct {
	Logger *slog.Logger
	// Secrets is the vault the reference secret is fetched from.
	Secrets vault.SecretSource
	// SecretName is the vault entry holding the shared secret.
	SecretName string
}

// AuthKey returns a middleware that verifies the x-auth-key header
// against the vault secret. It guards every API route the same way;
// per-route exceptions are not supported on purpose.
//
// The reference secret is fetched per request rather than cached, so a
// rotated secret takes effect immediately. The vault client owns the
// retry policy for that fetch.
func AuthKey(cfg AuthKeyConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret, err := cfg.Secrets.GetSecret(r.Context(), cfg.SecretName)
			if err != nil {
				cfg.Logger.Error("failed to fetch auth secret",
					slog.String("error", err.Error()),
					slog.String("secret_name", cfg.SecretName),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
				return
			}

			presented := r.Header.Get(AuthKeyHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "auth_key_mismatch"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid "+AuthKeyHeader)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeAuthError writes a JSON error response without leaking detail.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}
