// Package github provides the hosting-platform client: listing changed files,
// posting comments, and adding labels on pull requests.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// Retry parameters for exponential backoff with jitter.
const (
	maxRetryAttempts  = 5
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 30 * time.Second

	defaultHTTPTimeout = 30 * time.Second
	perPageLimit       = 100 // GitHub API per_page limit
)

// HTTPDoer provides an interface for making HTTP requests.
// This allows us to mock HTTP calls in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// PlatformError reports a hosting API failure. It is fatal to the pipeline
// wherever it occurs.
type PlatformError struct {
	Op         string
	Message    string
	StatusCode int
}

func (e *PlatformError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("github: %s failed (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github: %s failed: %s", e.Op, e.Message)
}

// Client handles all GitHub API interactions.
type Client struct {
	httpClient         HTTPDoer
	installationTokens map[string]string
	installationExpiry map[string]time.Time
	installationIDs    map[string]int
	token              string
	appID              string
	currentOrg         string
	privateKey         []byte
	tokenExpiry        time.Time
	tokenMutex         sync.RWMutex
	isAppAuth          bool
}

// Config holds configuration for creating a new GitHub client.
type Config struct {
	HTTPClient HTTPDoer // nil = default http.Client
	Token      string   // personal access token (non-app auth)
	AppID      string
	AppKey     []byte // PEM private key content (app auth)
	UseAppAuth bool
}

// New creates a GitHub API client using token or GitHub App authentication.
func New(cfg Config) (*Client, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	if cfg.UseAppAuth {
		return newAppAuthClient(cfg.AppID, cfg.AppKey, httpClient)
	}

	if cfg.Token == "" {
		return nil, &PlatformError{Op: "auth", Message: "no GitHub token provided"}
	}
	return &Client{
		httpClient: httpClient,
		token:      cfg.Token,
	}, nil
}

// SetCurrentOrg sets the organization whose installation token should sign
// subsequent requests. Only meaningful for App authentication.
func (c *Client) SetCurrentOrg(org string) {
	c.tokenMutex.Lock()
	defer c.tokenMutex.Unlock()
	c.currentOrg = org
}

// Token returns the token for external use (e.g., the sprinkler client). For
// App authentication with a current org set, returns the installation token.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.isAppAuth {
		c.tokenMutex.RLock()
		org := c.currentOrg
		c.tokenMutex.RUnlock()
		if org != "" {
			return c.installationToken(ctx, org)
		}
	}
	c.tokenMutex.RLock()
	defer c.tokenMutex.RUnlock()
	return c.token, nil
}

// drainAndCloseBody drains and closes an HTTP response body to prevent
// resource leaks.
func drainAndCloseBody(body io.ReadCloser) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		slog.Warn("Failed to drain response body", "error", err)
	}
	if err := body.Close(); err != nil {
		slog.Warn("Failed to close response body", "error", err)
	}
}

// doRequest makes an HTTP request to the GitHub API with retry logic.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body any) (*http.Response, error) {
	if c.isAppAuth {
		if err := c.refreshJWTIfNeeded(); err != nil {
			return nil, fmt.Errorf("failed to refresh JWT: %w", err)
		}
	}

	slog.Debug("HTTP request", "component", "github", "method", method, "url", apiURL)

	var resp *http.Response
	err := retryWithBackoff(ctx, fmt.Sprintf("%s %s", method, apiURL), func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyBytes, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("failed to marshal request body: %w", err)
			}
			bodyReader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		authToken := c.authTokenFor(ctx)
		if c.isAppAuth {
			req.Header.Set("Authorization", "Bearer "+authToken)
		} else {
			req.Header.Set("Authorization", "token "+authToken)
		}
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		localResp, err := c.httpClient.Do(req) //nolint:bodyclose // body is closed by the caller or drained below
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if localResp.StatusCode == http.StatusTooManyRequests {
			drainAndCloseBody(localResp.Body)
			slog.Warn("Rate limited - will retry with backoff", "method", method, "url", apiURL)
			return fmt.Errorf("http %d: rate limited", localResp.StatusCode)
		}
		if localResp.StatusCode >= http.StatusInternalServerError {
			drainAndCloseBody(localResp.Body)
			slog.Warn("Server error - will retry with backoff", "method", method, "url", apiURL, "status", localResp.StatusCode)
			return fmt.Errorf("http %d: server error", localResp.StatusCode)
		}

		resp = localResp
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("HTTP response", "component", "github", "method", method, "url", apiURL, "status", resp.StatusCode)
	return resp, nil
}

// authTokenFor picks the token for the current request, preferring the org's
// installation token under App auth and degrading to the JWT on failure.
func (c *Client) authTokenFor(ctx context.Context) string {
	c.tokenMutex.RLock()
	token := c.token
	org := c.currentOrg
	isApp := c.isAppAuth
	c.tokenMutex.RUnlock()

	if isApp && org != "" {
		installToken, err := c.installationToken(ctx, org)
		if err == nil {
			return installToken
		}
		slog.Warn("Failed to get installation token, attempting with JWT", "org", org, "error", err)
	}
	return token
}

// retryWithBackoff executes a function with exponential backoff using the
// codeGROOVE retry library.
func retryWithBackoff(ctx context.Context, operation string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(uint(maxRetryAttempts)),
		retry.Delay(initialRetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(initialRetryDelay/4),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("Retry attempt", "component", "retry", "operation", operation, "attempt", n+1, "max_attempts", maxRetryAttempts, "error", err)
		}),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if err == nil {
				return false
			}
			errStr := err.Error()
			return strings.Contains(errStr, "rate limited") ||
				strings.Contains(errStr, "server error") ||
				strings.Contains(errStr, "connection refused") ||
				strings.Contains(errStr, "timeout") ||
				strings.Contains(errStr, "EOF")
		}),
	)
}
