package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/usermeta/usermeta/internal/vault"
)

func authKeyHandler(secrets vault.SecretSource, called *bool) http.Handler {
	cfg := AuthKeyConfig{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Secrets:    secrets,
		SecretName: "UserDBKey",
	}
	return AuthKey(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestAuthKey_MatchingSecretPasses(t *testing.T) {
	var called bool
	h := authKeyHandler(vault.Static{"UserDBKey": "s3cret"}, &called)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users?userid=alice", nil)
	req.Header.Set(AuthKeyHeader, "s3cret")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if !called {
		t.Error("expected next handler to be called")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rec.Code)
	}
}

func TestAuthKey_MismatchIsRejected(t *testing.T) {
	var called bool
	h := authKeyHandler(vault.Static{"UserDBKey": "s3cret"}, &called)

	// Valid query parameter does not rescue a bad key
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users?userid=alice", nil)
	req.Header.Set(AuthKeyHeader, "wrong")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if called {
		t.Error("next handler must not run on auth failure")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["code"] != "UNAUTHORIZED" {
		t.Errorf("unexpected error code: %s", resp["code"])
	}
}

func TestAuthKey_MissingHeaderIsRejected(t *testing.T) {
	var called bool
	h := authKeyHandler(vault.Static{"UserDBKey": "s3cret"}, &called)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if called {
		t.Error("next handler must not run without a key")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthKey_SecretFetchFailureIsOpaque500(t *testing.T) {
	var called bool
	h := authKeyHandler(vault.Static{}, &called)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users?userid=alice", nil)
	req.Header.Set(AuthKeyHeader, "s3cret")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if called {
		t.Error("next handler must not run when the secret cannot be fetched")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
}
