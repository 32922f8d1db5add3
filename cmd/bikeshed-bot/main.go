// Package main implements the long-running bikeshed bot: a GitHub App that
// watches pull request events across every installed organization and reviews
// each PR as it arrives.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bikeshedbot/bikeshed/pkg/calendar"
	"github.com/bikeshedbot/bikeshed/pkg/config"
	"github.com/bikeshedbot/bikeshed/pkg/github"
	"github.com/bikeshedbot/bikeshed/pkg/pipeline"
	"github.com/bikeshedbot/bikeshed/pkg/random"
	"github.com/bikeshedbot/bikeshed/pkg/types"
)

const (
	serverReadTimeout = 10 * time.Second
	serverIdleTimeout = 60 * time.Second
	rescanInterval    = 1 * time.Hour // re-list installations for new orgs
)

var (
	// GitHub App authentication flags.
	appID      = flag.String("app-id", "", "GitHub App ID for authentication")
	appKeyPath = flag.String("app-key-path", "", "Path to GitHub App private key file")

	// Review behavior flags.
	botName      = flag.String("bot-name", config.DefaultBotName, "Name the bot signs comments with")
	commentStyle = flag.String("comment-style", string(types.StyleConstructive), "Comment style: constructive, friendly, or formal")
	maxMeetings  = flag.Int("max-meetings", 3, "Maximum concerns (and meetings) per PR")
	minConcerns  = flag.Int("min-concerns", 1, "Minimum concerns per PR")
	addLabels    = flag.Bool("add-labels", true, "Add review labels to PRs")
	useEmojis    = flag.Bool("use-emojis", true, "Use emojis in comments")
	timezone     = flag.String("timezone", config.DefaultTimezone, "IANA time zone for proposed meetings")
	calendarID   = flag.String("calendar-id", "", "Google Calendar ID (credentials via GOOGLE_CALENDAR_CREDENTIALS)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "GitHub App bot that reviews pull requests for discussion-worthy details.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  GITHUB_APP_ID                 - GitHub App ID\n")
		fmt.Fprintf(os.Stderr, "  GITHUB_APP_KEY                - GitHub App private key content\n")
		fmt.Fprintf(os.Stderr, "  GITHUB_APP_KEY_PATH           - Path to GitHub App private key file\n")
		fmt.Fprintf(os.Stderr, "  GOOGLE_CALENDAR_CREDENTIALS   - Service account JSON for meeting scheduling\n")
		fmt.Fprintf(os.Stderr, "  PORT                          - HTTP server port (default: 8080)\n")
	}
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("Bot failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	client, err := newAppClient()
	if err != nil {
		return err
	}

	cfg, err := reviewConfig()
	if err != nil {
		return err
	}

	var cal pipeline.CalendarService
	if creds := os.Getenv("GOOGLE_CALENDAR_CREDENTIALS"); creds != "" && *calendarID != "" {
		calClient, err := calendar.New(calendar.Config{
			CredentialsJSON: []byte(creds),
			CalendarID:      *calendarID,
		})
		if err != nil {
			return err
		}
		cal = calClient
		slog.Info("Calendar scheduling enabled", "calendar_id", *calendarID)
	}

	bot := &Bot{
		client:   client,
		cal:      cal,
		cfg:      cfg,
		monitors: make(map[string]*eventMonitor),
	}

	go bot.serveHealth(ctx)

	// Initial scan plus periodic rescans to pick up new installations.
	bot.syncMonitors(ctx)
	ticker := time.NewTicker(rescanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			bot.stopAll()
			return nil
		case <-ticker.C:
			bot.syncMonitors(ctx)
		}
	}
}

// newAppClient builds the GitHub App client from flags or environment.
func newAppClient() (*github.Client, error) {
	id := *appID
	if id == "" {
		id = os.Getenv("GITHUB_APP_ID")
	}

	var key []byte
	switch {
	case os.Getenv("GITHUB_APP_KEY") != "":
		key = []byte(os.Getenv("GITHUB_APP_KEY"))
	case *appKeyPath != "":
		var err error
		if key, err = os.ReadFile(*appKeyPath); err != nil {
			return nil, fmt.Errorf("failed to read app key: %w", err)
		}
	case os.Getenv("GITHUB_APP_KEY_PATH") != "":
		var err error
		if key, err = os.ReadFile(os.Getenv("GITHUB_APP_KEY_PATH")); err != nil {
			return nil, fmt.Errorf("failed to read app key: %w", err)
		}
	}

	return github.New(github.Config{UseAppAuth: true, AppID: id, AppKey: key})
}

// reviewConfig assembles the pipeline configuration from bot flags.
func reviewConfig() (*config.Config, error) {
	style := types.Style(*commentStyle)
	switch style {
	case types.StyleConstructive, types.StyleFriendly, types.StyleFormal:
	default:
		return nil, fmt.Errorf("unknown comment style %q", *commentStyle)
	}
	if *maxMeetings < 1 || *minConcerns < 1 {
		return nil, fmt.Errorf("max-meetings and min-concerns must be at least 1")
	}

	return &config.Config{
		BotName:          *botName,
		CommentStyle:     style,
		MaxMeetingsPerPR: *maxMeetings,
		MinConcerns:      *minConcerns,
		AddLabels:        *addLabels,
		UseEmojis:        *useEmojis,
		Timezone:         *timezone,
	}, nil
}

// Bot reviews pull requests across all installed organizations.
type Bot struct {
	client   *github.Client
	cal      pipeline.CalendarService
	cfg      *config.Config
	monitors map[string]*eventMonitor
	mu       sync.Mutex
}

// syncMonitors starts an event monitor for every installation that lacks one.
func (b *Bot) syncMonitors(ctx context.Context) {
	orgs, err := b.client.ListAppInstallations(ctx)
	if err != nil {
		slog.Error("Failed to list app installations", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, org := range orgs {
		if _, ok := b.monitors[org]; ok {
			continue
		}
		monitor := newEventMonitor(b, org)
		b.monitors[org] = monitor
		monitor.start(ctx)
	}
	slog.Info("Monitors synced", "orgs", len(orgs), "monitors", len(b.monitors))
}

// stopAll stops every monitor during shutdown.
func (b *Bot) stopAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, monitor := range b.monitors {
		monitor.stop()
	}
}

// reviewPR runs the pipeline for a single pull request event.
func (b *Bot) reviewPR(ctx context.Context, ref types.PRRef) error {
	b.client.SetCurrentOrg(ref.Owner)
	defer b.client.SetCurrentOrg("")

	p := pipeline.New(b.client, b.cal, random.NewTimeSeeded(), b.cfg)
	outputs, err := p.Run(ctx, "pull_request", ref)
	if err != nil {
		return err
	}
	if outputs != nil {
		slog.Info("Reviewed PR", "owner", ref.Owner, "repo", ref.Repo, "pr", ref.Number,
			"concerns", outputs.ConcernsFound, "meetings", outputs.MeetingsScheduled)
	}
	return nil
}

// serveHealth exposes monitor status for liveness checks.
func (b *Bot) serveHealth(ctx context.Context) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		status := make(map[string]any, len(b.monitors))
		for org, monitor := range b.monitors {
			status[org] = monitor.healthStatus()
		}
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			slog.Warn("Failed to encode health status", "error", err)
		}
	})

	server := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: serverReadTimeout,
		IdleTimeout: serverIdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Health server shutdown failed", "error", err)
		}
	}()

	slog.Info("Health server listening", "port", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Health server failed", "error", err)
	}
}
