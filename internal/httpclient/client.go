package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a single token refresh call. Without it a
// hung refresh would hold every queued request indefinitely, so the client
// fails closed instead: the refresh errors, all waiters fail, and the
// auth-expired hook fires.
const DefaultRefreshTimeout = 10 * time.Second

// TokenSource supplies and renews the access token.
type TokenSource interface {
	// Token returns the current access token.
	Token() string

	// Refresh obtains a new access token and makes it current.
	Refresh(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed token; Refresh hands back the
// same token, so a 401 against it surfaces as an auth failure.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

func (s StaticToken) Refresh(ctx context.Context) (string, error) {
	return string(s), nil
}

// Config holds HTTP client configuration.
type Config struct {
	// RefreshTimeout bounds the token refresh call. Zero means
	// DefaultRefreshTimeout.
	RefreshTimeout time.Duration

	// OnAuthExpired runs when a refresh fails, i.e. the session is no
	// longer recoverable. Typically wired to the logout side effect.
	OnAuthExpired func()
}

// Client is an http.Client wrapper that attaches bearer tokens and renews
// them on 401 responses. Concurrent requests hitting 401 at once share a
// single in-flight refresh: the first caller performs it and the rest wait
// for its outcome, then all retry with the new token (or all fail).
type Client struct {
	http           *http.Client
	tokens         TokenSource
	group          singleflight.Group
	refreshTimeout time.Duration
	onAuthExpired  func()
	logger         zerolog.Logger
}

// New creates an authenticated HTTP client.
func New(httpClient *http.Client, tokens TokenSource, cfg Config, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	timeout := cfg.RefreshTimeout
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}

	return &Client{
		http:           httpClient,
		tokens:         tokens,
		refreshTimeout: timeout,
		onAuthExpired:  cfg.OnAuthExpired,
		logger:         logger.With().Str("component", "http-client").Logger(),
	}
}

// Do sends the request with the current token, refreshing and retrying
// once on a 401.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.send(req, c.tokens.Token())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Drain the rejected response so the connection can be reused.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	token, err := c.refresh()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	if req.Body != nil {
		if req.GetBody == nil {
			return nil, fmt.Errorf("cannot retry request without a rewindable body")
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		req.Body = body
	}

	return c.send(req, token)
}

func (c *Client) send(req *http.Request, token string) (*http.Response, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.http.Do(req)
}

// refresh funnels all callers through one in-flight refresh. The refresh
// runs under its own deadline, detached from any single caller's context:
// one impatient caller must not cancel the refresh everyone is waiting on.
func (c *Client) refresh() (string, error) {
	result, err, shared := c.group.Do("token-refresh", func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()

		token, err := c.tokens.Refresh(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("token refresh failed, session expired")
			if c.onAuthExpired != nil {
				c.onAuthExpired()
			}
			return nil, err
		}

		c.logger.Debug().Msg("access token refreshed")
		return token, nil
	})
	if err != nil {
		return "", err
	}

	if shared {
		c.logger.Debug().Msg("reused in-flight token refresh")
	}
	return result.(string), nil
}

// GetJSON issues a GET and decodes a JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.doJSON(req, out)
}

// PostJSON issues a POST with a JSON body and decodes a JSON response into
// out. A nil out discards the response body.
func (c *Client) PostJSON(ctx context.Context, url string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", req.Method, req.URL, resp.StatusCode, bytes.TrimSpace(body))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL, err)
	}
	return nil
}
