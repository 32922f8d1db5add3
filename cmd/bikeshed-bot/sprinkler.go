package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/codeGROOVE-dev/sprinkler/pkg/client"

	"github.com/bikeshedbot/bikeshed/pkg/types"
)

const (
	eventQueueSize    = 50
	dedupeWindow      = 2 * time.Minute
	dedupeMapMaxSize  = 1000
	reconnectBaseWait = 5 * time.Second
	reconnectMaxWait  = 2 * time.Minute
	reviewMaxRetries  = 3
	reviewRetryDelay  = 2 * time.Second
	reviewMaxDelay    = 10 * time.Second
)

// eventMonitor holds one WebSocket subscription for a single org and feeds
// pull request events into the review pipeline.
type eventMonitor struct {
	bot       *Bot
	org       string
	eventChan chan string
	stopChan  chan struct{}

	mu          sync.RWMutex
	connected   bool
	connectedAt time.Time
	lastEventAt time.Time
	lastSeen    map[string]time.Time
	stopped     bool
}

func newEventMonitor(bot *Bot, org string) *eventMonitor {
	return &eventMonitor{
		bot:       bot,
		org:       org,
		eventChan: make(chan string, eventQueueSize),
		stopChan:  make(chan struct{}),
		lastSeen:  make(map[string]time.Time),
	}
}

// start launches the connection manager and the event processor.
func (m *eventMonitor) start(ctx context.Context) {
	slog.Info("Starting event monitor", "component", "sprinkler", "org", m.org)
	go m.manageConnection(ctx)
	go m.processEvents(ctx)
}

// stop shuts the monitor down. Safe to call once.
func (m *eventMonitor) stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.mu.Unlock()
	close(m.stopChan)
	slog.Info("Event monitor stopped", "component", "sprinkler", "org", m.org)
}

// manageConnection keeps the WebSocket alive, backing off between attempts.
// The sprinkler client reconnects internally; this loop only restarts it when
// it gives up entirely.
func (m *eventMonitor) manageConnection(ctx context.Context) {
	wait := reconnectBaseWait
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		default:
		}

		start := time.Now()
		err := m.connect(ctx)
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			slog.Warn("WebSocket connection ended", "component", "sprinkler", "org", m.org,
				"uptime", time.Since(start).Round(time.Second), "error", err)
		}

		// A connection that held for a while earns a fresh backoff.
		if time.Since(start) > reconnectMaxWait {
			wait = reconnectBaseWait
		}

		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-time.After(wait):
		}
		wait = min(wait*2, reconnectMaxWait)
	}
}

// connect runs one WebSocket session. Blocks until the session ends.
func (m *eventMonitor) connect(ctx context.Context) error {
	cfg := client.Config{
		ServerURL:    "wss://" + client.DefaultServerAddress + "/ws",
		Organization: m.org,
		TokenProvider: func() (string, error) {
			m.bot.client.SetCurrentOrg(m.org)
			defer m.bot.client.SetCurrentOrg("")
			token, err := m.bot.client.Token(ctx)
			if err != nil {
				return "", fmt.Errorf("failed to get token: %w", err)
			}
			return token, nil
		},
		EventTypes: []string{"pull_request"},
		OnConnect: func() {
			m.mu.Lock()
			m.connected = true
			m.connectedAt = time.Now()
			m.mu.Unlock()
			slog.Info("WebSocket connected", "component", "sprinkler", "org", m.org)
		},
		OnDisconnect: func(err error) {
			m.mu.Lock()
			wasConnected := m.connected
			m.connected = false
			m.mu.Unlock()
			if err != nil && wasConnected && !errors.Is(err, context.Canceled) {
				slog.Warn("WebSocket disconnected", "component", "sprinkler", "org", m.org, "error", err)
			}
		},
		OnEvent: m.handleEvent,
	}

	wsClient, err := client.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create websocket client: %w", err)
	}
	return wsClient.Start(ctx)
}

// handleEvent filters, dedupes, and queues an incoming event.
func (m *eventMonitor) handleEvent(event client.Event) {
	if event.Type != "pull_request" || event.URL == "" {
		return
	}

	m.mu.Lock()
	now := time.Now()
	if seen, ok := m.lastSeen[event.URL]; ok && now.Sub(seen) < dedupeWindow {
		m.mu.Unlock()
		return
	}
	m.lastSeen[event.URL] = now
	m.lastEventAt = now
	if len(m.lastSeen) > dedupeMapMaxSize {
		cutoff := now.Add(-dedupeWindow)
		for url, seen := range m.lastSeen {
			if seen.Before(cutoff) {
				delete(m.lastSeen, url)
			}
		}
	}
	m.mu.Unlock()

	select {
	case m.eventChan <- event.URL:
	default:
		slog.Warn("Event queue full, dropping event", "component", "sprinkler", "org", m.org, "url", event.URL)
	}
}

// processEvents drains the queue, reviewing one PR at a time.
func (m *eventMonitor) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case prURL := <-m.eventChan:
			m.processEvent(ctx, prURL)
		}
	}
}

// processEvent reviews one PR, retrying transient failures.
func (m *eventMonitor) processEvent(ctx context.Context, prURL string) {
	ref, err := parsePRURL(prURL)
	if err != nil {
		slog.Warn("Failed to parse PR URL", "component", "sprinkler", "url", prURL, "error", err)
		return
	}

	slog.Info("Processing PR event", "component", "sprinkler", "owner", ref.Owner, "repo", ref.Repo, "pr", ref.Number)
	err = retry.Do(
		func() error { return m.bot.reviewPR(ctx, ref) },
		retry.Context(ctx),
		retry.Attempts(reviewMaxRetries),
		retry.Delay(reviewRetryDelay),
		retry.MaxDelay(reviewMaxDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("Retrying PR review", "component", "sprinkler", "attempt", n+1, "url", prURL, "error", err)
		}),
	)
	if err != nil {
		slog.Error("Failed to review PR after retries", "component", "sprinkler", "url", prURL, "error", err)
	}
}

// healthStatus reports connection state for the /healthz endpoint.
func (m *eventMonitor) healthStatus() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := map[string]any{
		"connected": m.connected,
	}
	if !m.connectedAt.IsZero() {
		status["connected_at"] = m.connectedAt.Format(time.RFC3339)
	}
	if !m.lastEventAt.IsZero() {
		status["last_event_at"] = m.lastEventAt.Format(time.RFC3339)
	}
	return status
}

// parsePRURL extracts owner, repo, and number from a GitHub PR URL of the
// form https://github.com/owner/repo/pull/123.
func parsePRURL(prURL string) (types.PRRef, error) {
	trimmed := strings.TrimPrefix(prURL, "https://github.com/")
	if trimmed == prURL {
		return types.PRRef{}, fmt.Errorf("unexpected PR URL %q", prURL)
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) != 4 || parts[2] != "pull" {
		return types.PRRef{}, fmt.Errorf("unexpected PR URL %q", prURL)
	}
	number, err := strconv.Atoi(parts[3])
	if err != nil || number <= 0 {
		return types.PRRef{}, fmt.Errorf("invalid PR number in URL %q", prURL)
	}
	return types.PRRef{Owner: parts[0], Repo: parts[1], Number: number}, nil
}
