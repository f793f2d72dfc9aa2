package vault

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func kvHandler(t *testing.T, secrets map[string]string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Vault-Token"); got != "test-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		name := r.URL.Path[len("/v1/secret/data/"):]
		value, ok := secrets[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"data": {"value": "` + value + `"}}}`))
	})
}

func TestClient_GetSecret(t *testing.T) {
	srv := httptest.NewServer(kvHandler(t, map[string]string{"UserDBKey": "s3cret"}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token")

	value, err := c.GetSecret(context.Background(), "UserDBKey")
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if value != "s3cret" {
		t.Errorf("unexpected secret value: %s", value)
	}
}

func TestClient_GetSecretNotFoundFailsFast(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token")

	_, err := c.GetSecret(context.Background(), "Missing")
	if !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("expected ErrSecretNotFound, got %v", err)
	}
	if calls != 1 {
		t.Errorf("not-found must not be retried; got %d calls", calls)
	}
}

func TestClient_FetchClassifiesRetryable(t *testing.T) {
	status := http.StatusInternalServerError
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token")

	// 5xx is transient
	if _, retryable, err := c.fetch(context.Background(), "UserDBKey"); err == nil || !retryable {
		t.Errorf("expected retryable error for 500, got retryable=%v err=%v", retryable, err)
	}

	// Other 4xx is terminal
	status = http.StatusForbidden
	if _, retryable, err := c.fetch(context.Background(), "UserDBKey"); err == nil || retryable {
		t.Errorf("expected terminal error for 403, got retryable=%v err=%v", retryable, err)
	}
}

func TestClient_GetSecretRespectsContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.GetSecret(ctx, "UserDBKey"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestStatic_GetSecret(t *testing.T) {
	s := Static{"UserDBKey": "s3cret"}

	value, err := s.GetSecret(context.Background(), "UserDBKey")
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if value != "s3cret" {
		t.Errorf("unexpected value: %s", value)
	}

	if _, err := s.GetSecret(context.Background(), "Other"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("expected ErrSecretNotFound, got %v", err)
	}
}
