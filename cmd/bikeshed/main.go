// Package main implements the one-shot bikeshed run used from CI: it reads
// action inputs from the environment, inspects the triggering event, and
// reviews the pull request once.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bikeshedbot/bikeshed/pkg/calendar"
	"github.com/bikeshedbot/bikeshed/pkg/config"
	"github.com/bikeshedbot/bikeshed/pkg/github"
	"github.com/bikeshedbot/bikeshed/pkg/pipeline"
	"github.com/bikeshedbot/bikeshed/pkg/random"
	"github.com/bikeshedbot/bikeshed/pkg/types"
)

var (
	eventName = flag.String("event-name", "", "Trigger event name (default: $GITHUB_EVENT_NAME)")
	repoFlag  = flag.String("repo", "", "Repository as owner/repo (default: $GITHUB_REPOSITORY)")
	prNumber  = flag.Int("pr", 0, "Pull request number (default: parsed from $GITHUB_EVENT_PATH)")
)

func main() {
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Gate on the event before touching inputs or the event payload: a push
	// payload carries no PR number and must not turn into a failure.
	event := *eventName
	if event == "" {
		event = os.Getenv("GITHUB_EVENT_NAME")
	}
	if !pipeline.IsPullRequestEvent(event) {
		slog.Info("Not a pull request event, nothing to do", "event", event)
		return nil
	}

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		return err
	}

	ref, err := resolvePR()
	if err != nil {
		return err
	}

	ghClient, err := github.New(github.Config{Token: cfg.GitHubToken})
	if err != nil {
		return err
	}

	var cal pipeline.CalendarService
	if cfg.EnableCalendar {
		calClient, err := calendar.New(calendar.Config{
			CredentialsJSON: []byte(cfg.CalendarCredentials),
			CalendarID:      cfg.CalendarID,
		})
		if err != nil {
			return err
		}
		cal = calClient
	}

	src := random.NewTimeSeeded()
	if cfg.SeedSet {
		src = random.New(cfg.RandomSeed)
		slog.Info("Using fixed random seed", "seed", cfg.RandomSeed)
	}

	p := pipeline.New(ghClient, cal, src, cfg)
	if cfg.CatalogFile != "" {
		catalog, err := config.LoadCatalog(cfg.CatalogFile)
		if err != nil {
			return err
		}
		slog.Info("Loaded topic catalog override", "path", cfg.CatalogFile, "topics", len(catalog))
		p.SetCatalog(catalog)
	}

	outputs, err := p.Run(ctx, event, ref)
	if err != nil {
		return err
	}
	if outputs == nil {
		return nil
	}
	return writeOutputs(outputs)
}

// resolvePR determines which pull request to review, preferring flags over
// the event context.
func resolvePR() (types.PRRef, error) {
	repo := *repoFlag
	if repo == "" {
		repo = os.Getenv("GITHUB_REPOSITORY")
	}
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return types.PRRef{}, fmt.Errorf("invalid repository %q (want owner/repo)", repo)
	}

	number := *prNumber
	if number == 0 {
		var err error
		number, err = prNumberFromEvent(os.Getenv("GITHUB_EVENT_PATH"))
		if err != nil {
			return types.PRRef{}, err
		}
	}

	return types.PRRef{Owner: owner, Repo: name, Number: number}, nil
}

// prNumberFromEvent extracts the PR number from the event payload file.
func prNumberFromEvent(path string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("no pull request number: set -pr or GITHUB_EVENT_PATH")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read event payload: %w", err)
	}

	var payload struct {
		PullRequest struct {
			Number int `json:"number"`
		} `json:"pull_request"`
		Number int `json:"number"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, fmt.Errorf("failed to parse event payload: %w", err)
	}

	number := payload.PullRequest.Number
	if number == 0 {
		number = payload.Number
	}
	if number == 0 {
		return 0, fmt.Errorf("event payload carries no pull request number")
	}
	return number, nil
}

// writeOutputs reports run outputs using the GITHUB_OUTPUT file convention,
// falling back to stdout.
func writeOutputs(outputs *types.Outputs) error {
	lines := fmt.Sprintf("concerns-found=%d\nmeetings-scheduled=%d\n",
		outputs.ConcernsFound, outputs.MeetingsScheduled)

	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		fmt.Print(lines)
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("Failed to close output file", "error", err)
		}
	}()

	if _, err := f.WriteString(lines); err != nil {
		return fmt.Errorf("failed to write outputs: %w", err)
	}
	return nil
}
