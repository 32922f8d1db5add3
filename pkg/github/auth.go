package github

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
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// App JWTs expire after 10 minutes max; refresh one minute early.
const (
	appJWTLifetime = 10 * time.Minute
	appJWTRefresh  = 9 * time.Minute
)

// parseRSAPrivateKey parses a PEM-encoded RSA private key in PKCS1 or PKCS8
// format.
func parseRSAPrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	if !bytes.Contains(pemData, []byte("BEGIN RSA PRIVATE KEY")) &&
		!bytes.Contains(pemData, []byte("BEGIN PRIVATE KEY")) {
		return nil, errors.New("key does not appear to be a valid PEM private key")
	}

	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the private key")
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		parsedKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		var ok bool
		key, ok = parsedKey.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("private key is not RSA")
		}
	}
	return key, nil
}

// generateAppJWT generates a JWT for GitHub App authentication.
func generateAppJWT(appID string, privateKey []byte) (string, error) {
	key, err := parseRSAPrivateKey(privateKey)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(appJWTLifetime).Unix(),
		"iss": appID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

// newAppAuthClient creates a GitHub client with App authentication.
func newAppAuthClient(appID string, privateKey []byte, httpClient HTTPDoer) (*Client, error) {
	if appID == "" {
		return nil, &PlatformError{Op: "auth", Message: "GitHub App ID is required"}
	}
	if len(privateKey) == 0 {
		return nil, &PlatformError{Op: "auth", Message: "GitHub App private key is required"}
	}

	jwtToken, err := generateAppJWT(appID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}
	slog.Info("Successfully generated JWT for GitHub App", "component", "auth")

	return &Client{
		httpClient:         httpClient,
		token:              jwtToken,
		isAppAuth:          true,
		appID:              appID,
		privateKey:         privateKey,
		tokenExpiry:        time.Now().Add(appJWTRefresh),
		installationTokens: make(map[string]string),
		installationExpiry: make(map[string]time.Time),
		installationIDs:    make(map[string]int),
	}, nil
}

// refreshJWTIfNeeded refreshes the App JWT when it is close to expiry.
func (c *Client) refreshJWTIfNeeded() error {
	if !c.isAppAuth {
		return nil
	}

	c.tokenMutex.RLock()
	needsRefresh := time.Now().After(c.tokenExpiry)
	c.tokenMutex.RUnlock()
	if !needsRefresh {
		return nil
	}

	c.tokenMutex.Lock()
	defer c.tokenMutex.Unlock()
	if time.Now().Before(c.tokenExpiry) {
		return nil
	}

	newToken, err := generateAppJWT(c.appID, c.privateKey)
	if err != nil {
		return fmt.Errorf("failed to generate JWT for refresh: %w", err)
	}
	c.token = newToken
	c.tokenExpiry = time.Now().Add(appJWTRefresh)
	slog.Info("Refreshed GitHub App JWT", "component", "auth")
	return nil
}

// installationToken gets or refreshes an installation access token for an
// organization.
func (c *Client) installationToken(ctx context.Context, org string) (string, error) {
	if !c.isAppAuth {
		return c.token, nil
	}
	if org == "" {
		return "", errors.New("organization name cannot be empty")
	}

	c.tokenMutex.RLock()
	if token, ok := c.installationTokens[org]; ok {
		if expiry, ok := c.installationExpiry[org]; ok && time.Now().Before(expiry) {
			c.tokenMutex.RUnlock()
			return token, nil
		}
	}
	c.tokenMutex.RUnlock()

	if err := c.refreshJWTIfNeeded(); err != nil {
		return "", fmt.Errorf("failed to refresh JWT: %w", err)
	}

	c.tokenMutex.Lock()
	defer c.tokenMutex.Unlock()

	// Double-check cache after acquiring the write lock.
	if token, ok := c.installationTokens[org]; ok {
		if expiry, ok := c.installationExpiry[org]; ok && time.Now().Before(expiry) {
			return token, nil
		}
	}

	installationID, ok := c.installationIDs[org]
	if !ok {
		return "", fmt.Errorf("no installation ID found for organization %s (is the app installed?)", org)
	}

	slog.Info("Creating installation access token", "component", "auth", "org", org, "installation_id", installationID)
	apiURL := fmt.Sprintf("https://api.github.com/app/installations/%d/access_tokens", installationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get installation token: %w", err)
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusCreated {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if readErr != nil {
			return "", fmt.Errorf("failed to create installation token (status %d)", resp.StatusCode)
		}
		return "", fmt.Errorf("failed to create installation token (status %d): %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		ExpiresAt time.Time `json:"expires_at"`
		Token     string    `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.Token == "" {
		return "", errors.New("received empty installation token")
	}

	// Expire 5 minutes before the actual expiry for safety.
	c.installationTokens[org] = tokenResp.Token
	c.installationExpiry[org] = tokenResp.ExpiresAt.Add(-5 * time.Minute)

	slog.Info("Created installation access token", "component", "auth", "org", org, "expires_at", tokenResp.ExpiresAt.Format(time.RFC3339))
	return tokenResp.Token, nil
}

// Installation represents a GitHub App installation.
type Installation struct {
	Account struct {
		Login string `json:"login"`
		Type  string `json:"type"`
	} `json:"account"`
	ID int `json:"id"`
}

// ListAppInstallations returns all accounts where this GitHub App is
// installed, recording installation IDs for later token creation.
func (c *Client) ListAppInstallations(ctx context.Context) ([]string, error) {
	if !c.isAppAuth {
		return nil, errors.New("app installations can only be listed with GitHub App authentication")
	}

	slog.Info("Fetching GitHub App installations", "component", "api")
	resp, err := c.doRequest(ctx, http.MethodGet, "https://api.github.com/app/installations", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get app installations: %w", err)
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list installations (status %d)", resp.StatusCode)
	}

	var installations []Installation
	if err := json.NewDecoder(resp.Body).Decode(&installations); err != nil {
		return nil, fmt.Errorf("failed to decode installations: %w", err)
	}

	orgs := make([]string, 0, len(installations))
	c.tokenMutex.Lock()
	for _, installation := range installations {
		orgs = append(orgs, installation.Account.Login)
		c.installationIDs[installation.Account.Login] = installation.ID
		slog.Info("Found installation", "component", "app", "account", installation.Account.Login, "type", installation.Account.Type, "id", installation.ID)
	}
	c.tokenMutex.Unlock()

	slog.Info("Found installations", "component", "app", "count", len(orgs))
	return orgs, nil
}
