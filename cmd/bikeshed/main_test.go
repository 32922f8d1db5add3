package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeEventPayload(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	return path
}

func TestRun_NonPullRequestEventIsNoOp(t *testing.T) {
	// A push payload has no pull request number; the event gate must return
	// before the payload is ever consulted.
	t.Setenv("GITHUB_EVENT_NAME", "push")
	t.Setenv("GITHUB_REPOSITORY", "acme/widgets")
	t.Setenv("GITHUB_EVENT_PATH", writeEventPayload(t, `{"ref":"refs/heads/main"}`))

	if err := run(context.Background()); err != nil {
		t.Fatalf("run: %v, want clean no-op for a push event", err)
	}
}

func TestRun_EmptyEventNameIsNoOp(t *testing.T) {
	t.Setenv("GITHUB_EVENT_NAME", "")
	if err := run(context.Background()); err != nil {
		t.Fatalf("run: %v, want clean no-op without an event name", err)
	}
}

func TestResolvePR_ReadsEventPayload(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "acme/widgets")
	t.Setenv("GITHUB_EVENT_PATH", writeEventPayload(t, `{"pull_request":{"number":42}}`))

	ref, err := resolvePR()
	if err != nil {
		t.Fatalf("resolvePR: %v", err)
	}
	if ref.Owner != "acme" || ref.Repo != "widgets" || ref.Number != 42 {
		t.Errorf("ref = %+v", ref)
	}
}

func TestResolvePR_RejectsBadRepository(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "not-a-repo")
	if _, err := resolvePR(); err == nil {
		t.Fatal("expected error for repository without owner/repo form")
	}
}

func TestPRNumberFromEvent_FallsBackToTopLevelNumber(t *testing.T) {
	path := writeEventPayload(t, `{"number":7}`)
	number, err := prNumberFromEvent(path)
	if err != nil {
		t.Fatalf("prNumberFromEvent: %v", err)
	}
	if number != 7 {
		t.Errorf("number = %d, want 7", number)
	}
}

func TestPRNumberFromEvent_NoNumberErrors(t *testing.T) {
	path := writeEventPayload(t, `{"ref":"refs/heads/main"}`)
	if _, err := prNumberFromEvent(path); err == nil {
		t.Fatal("expected error when payload carries no PR number")
	}
}
