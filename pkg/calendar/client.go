// Package calendar provides a minimal Google Calendar client: service-account
// authentication via a signed JWT assertion and event insertion. Failures are
// surfaced as CalendarError and are never fatal to the rest of a run.
package calendar

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/golang-jwt/jwt/v5"
)

const (
	calendarScope   = "https://www.googleapis.com/auth/calendar"
	defaultTokenURI = "https://oauth2.googleapis.com/token"
	eventsURLFmt    = "https://www.googleapis.com/calendar/v3/calendars/%s/events"

	assertionLifetime = 1 * time.Hour
	tokenSafetyMargin = 1 * time.Minute

	defaultHTTPTimeout = 30 * time.Second

	maxRetryAttempts  = 3
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 15 * time.Second
)

// HTTPDoer provides an interface for making HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CalendarError reports a calendar API failure (auth, quota, malformed
// credentials). Callers treat it as non-fatal.
//
//nolint:revive // name matches the error taxonomy used across the system
type CalendarError struct {
	Op         string
	Message    string
	StatusCode int
}

func (e *CalendarError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("calendar: %s failed (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("calendar: %s failed: %s", e.Op, e.Message)
}

// credentials is the subset of a Google service-account JSON key we use.
type credentials struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// Client talks to the Google Calendar v3 REST API.
type Client struct {
	httpClient  HTTPDoer
	key         *rsa.PrivateKey
	clientEmail string
	tokenURI    string
	calendarID  string
	accessToken string
	tokenExpiry time.Time
	tokenMutex  sync.Mutex
}

// Config holds configuration for creating a calendar client.
type Config struct {
	HTTPClient      HTTPDoer // nil = default http.Client
	CredentialsJSON []byte   // service-account key file content
	CalendarID      string
}

// New creates a calendar client from service-account credentials.
func New(cfg Config) (*Client, error) {
	var creds credentials
	if err := json.Unmarshal(cfg.CredentialsJSON, &creds); err != nil {
		return nil, &CalendarError{Op: "parse credentials", Message: err.Error()}
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, &CalendarError{Op: "parse credentials", Message: "missing client_email or private_key"}
	}
	if creds.TokenURI == "" {
		creds.TokenURI = defaultTokenURI
	}

	key, err := parseRSAPrivateKey([]byte(creds.PrivateKey))
	if err != nil {
		return nil, &CalendarError{Op: "parse credentials", Message: err.Error()}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &Client{
		httpClient:  httpClient,
		key:         key,
		clientEmail: creds.ClientEmail,
		tokenURI:    creds.TokenURI,
		calendarID:  cfg.CalendarID,
	}, nil
}

// parseRSAPrivateKey parses a PEM-encoded RSA private key in PKCS8 or PKCS1
// format. Service-account keys ship as PKCS8.
func parseRSAPrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the private key")
	}

	parsedKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		return key, nil
	}
	key, ok := parsedKey.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

// token exchanges a signed JWT assertion for an access token, caching it
// until close to expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.tokenMutex.Lock()
	defer c.tokenMutex.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   c.clientEmail,
		"scope": calendarScope,
		"aud":   c.tokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.key)
	if err != nil {
		return "", &CalendarError{Op: "sign assertion", Message: err.Error()}
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &CalendarError{Op: "token exchange", Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &CalendarError{Op: "token exchange", Message: err.Error()}
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", &CalendarError{Op: "token exchange", StatusCode: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", &CalendarError{Op: "token exchange", Message: fmt.Sprintf("failed to decode response: %v", err)}
	}
	if tokenResp.AccessToken == "" {
		return "", &CalendarError{Op: "token exchange", Message: "received empty access token"}
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = now.Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenSafetyMargin)
	slog.Info("Obtained calendar access token", "component", "calendar", "expires_in", tokenResp.ExpiresIn)
	return c.accessToken, nil
}

// Insertion is the calendar service's confirmation of an inserted event.
type Insertion struct {
	Link           string
	ConfirmedStart time.Time
}

// InsertEvent inserts an event into the configured calendar.
func (c *Client) InsertEvent(ctx context.Context, event *Event) (*Insertion, error) {
	accessToken, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, &CalendarError{Op: "insert event", Message: err.Error()}
	}

	apiURL := fmt.Sprintf(eventsURLFmt, url.PathEscape(c.calendarID))

	var resp *http.Response
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("Authorization", "Bearer "+accessToken)
			req.Header.Set("Content-Type", "application/json")

			localResp, err := c.httpClient.Do(req) //nolint:bodyclose // body is closed by the caller or drained below
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			if localResp.StatusCode == http.StatusTooManyRequests || localResp.StatusCode >= http.StatusInternalServerError {
				status := localResp.StatusCode
				drainAndCloseBody(localResp.Body)
				return fmt.Errorf("http %d: retryable calendar error", status)
			}
			resp = localResp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(maxRetryAttempts),
		retry.Delay(initialRetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, &CalendarError{Op: "insert event", Message: err.Error()}
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &CalendarError{Op: "insert event", StatusCode: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}

	var created struct {
		HTMLLink string `json:"htmlLink"`
		Start    struct {
			DateTime string `json:"dateTime"`
		} `json:"start"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, &CalendarError{Op: "insert event", Message: fmt.Sprintf("failed to decode response: %v", err)}
	}

	insertion := &Insertion{Link: created.HTMLLink}
	if created.Start.DateTime != "" {
		if start, err := time.Parse(time.RFC3339, created.Start.DateTime); err == nil {
			insertion.ConfirmedStart = start
		}
	}

	slog.Info("Inserted calendar event", "component", "calendar", "summary", event.Summary, "link", insertion.Link)
	return insertion, nil
}

func drainAndCloseBody(body io.ReadCloser) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		slog.Warn("Failed to drain response body", "error", err)
	}
	if err := body.Close(); err != nil {
		slog.Warn("Failed to close response body", "error", err)
	}
}

func readErrorBody(body io.Reader) string {
	const maxErrorBody = 2048
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return fmt.Sprintf("(could not read body: %v)", err)
	}
	return string(data)
}
