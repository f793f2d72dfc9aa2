// Package vault provides secret retrieval from a managed secret store.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/usermeta/usermeta/internal/telemetry"
)

// ErrSecretNotFound is returned when the named secret does not exist.
var ErrSecretNotFound = errors.New("secret not found")

// SecretSource returns a secret value by name. Implementations must be
// safe for concurrent use; retry policy is the implementation's concern,
// callers never retry.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Retry policy for transient vault failures: exponential backoff from
// 2s capped at 16s, five retries.
const (
	retryInitialDelay = 2 * time.Second
	retryMaxDelay     = 16 * time.Second
	retryMaxRetries   = 5
)

// HTTP client timeouts.
const (
	clientTimeout         = 30 * time.Second
	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 15 * time.Second
)

// newHTTPClient creates an HTTP client configured for vault requests.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: clientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   dialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   tlsHandshakeTimeout,
			ResponseHeaderTimeout: responseHeaderTimeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Client fetches secrets from a KV-v2 style HTTP secret store.
// Values are fetched on every call, never cached, so rotated secrets
// take effect immediately.
type Client struct {
	addr   string
	token  string
	client *http.Client
}

// NewClient creates a vault client for the given address and token.
func NewClient(addr, token string) *Client {
	return &Client{
		addr:   addr,
		token:  token,
		client: newHTTPClient(),
	}
}

// GetSecret fetches the named secret, retrying transient failures with
// exponential backoff. Not-found and other caller errors fail fast.
func (c *Client) GetSecret(ctx context.Context, name string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "vault.GetSecret",
		attribute.String("secret.name", name),
	)
	defer span.End()

	delay := retryInitialDelay
	var lastErr error

	for attempt := 0; attempt <= retryMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				span.RecordError(ctx.Err())
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > retryMaxDelay {
				delay = retryMaxDelay
			}
		}

		value, retryable, err := c.fetch(ctx, name)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if !retryable {
			span.RecordError(err)
			return "", err
		}
	}

	err := fmt.Errorf("failed to fetch secret after %d attempts: %w", retryMaxRetries+1, lastErr)
	span.RecordError(err)
	return "", err
}

// kvResponse is the KV-v2 read response envelope.
type kvResponse struct {
	Data struct {
		Data map[string]string `json:"data"`
	} `json:"data"`
}

// fetch performs one request. The retryable result distinguishes
// transient failures (network, 5xx) from terminal ones.
func (c *Client) fetch(ctx context.Context, name string) (value string, retryable bool, err error) {
	endpoint := c.addr + "/v1/secret/data/" + url.PathEscape(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to build vault request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("X-Vault-Token", c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("vault request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", false, ErrSecretNotFound
	case resp.StatusCode >= 500:
		return "", true, fmt.Errorf("vault returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", false, fmt.Errorf("vault returned status %d", resp.StatusCode)
	}

	var body kvResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, fmt.Errorf("failed to decode vault response: %w", err)
	}

	v, ok := body.Data.Data["value"]
	if !ok {
		return "", false, ErrSecretNotFound
	}

	return v, false, nil
}

// Static is an in-memory SecretSource for development and tests.
type Static map[string]string

// GetSecret returns the named secret from the map.
func (s Static) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok {
		return "", ErrSecretNotFound
	}
	return v, nil
}
