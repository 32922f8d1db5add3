package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bikeshedbot/bikeshed/pkg/calendar"
	"github.com/bikeshedbot/bikeshed/pkg/config"
	"github.com/bikeshedbot/bikeshed/pkg/random"
	"github.com/bikeshedbot/bikeshed/pkg/types"
)

type fakeHost struct {
	files      []types.ChangedFile
	filesErr   error
	commentErr error
	labelsErr  error
	comments   []string
	labelCalls [][]string
	listCalls  int
}

func (f *fakeHost) ChangedFiles(_ context.Context, _ types.PRRef) ([]types.ChangedFile, error) {
	f.listCalls++
	return f.files, f.filesErr
}

func (f *fakeHost) PostComment(_ context.Context, _ types.PRRef, body string) error {
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comments = append(f.comments, body)
	return nil
}

func (f *fakeHost) AddLabels(_ context.Context, _ types.PRRef, labels []string) error {
	if f.labelsErr != nil {
		return f.labelsErr
	}
	f.labelCalls = append(f.labelCalls, labels)
	return nil
}

type fakeCalendar struct {
	err       error
	confirmed time.Time
	inserts   []*calendar.Event
}

func (f *fakeCalendar) InsertEvent(_ context.Context, ev *calendar.Event) (*calendar.Insertion, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inserts = append(f.inserts, ev)
	return &calendar.Insertion{Link: "https://calendar.example/evt", ConfirmedStart: f.confirmed}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		GitHubToken:      "ghp_testtoken",
		BotName:          "Bikeshed Bot",
		Timezone:         "America/New_York",
		CommentStyle:     types.StyleConstructive,
		MaxMeetingsPerPR: 3,
		MinConcerns:      1,
		AddLabels:        true,
		UseEmojis:        true,
	}
}

var testRef = types.PRRef{Owner: "acme", Repo: "widgets", Number: 7}

// Two changed files: a test-named JS file with an added line and a spec file
// carrying a TODO in an added line. Matches the end-to-end scenario the
// bot is documented with.
func scenarioFiles() []types.ChangedFile {
	return []types.ChangedFile{
		{Filename: "src/test.js", Patch: "+const widget = makeWidget()"},
		{Filename: "tests/test.spec.js", Patch: "+// TODO: cover the sad path"},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		host := &fakeHost{files: scenarioFiles()}
		p := New(host, nil, random.New(seed), testConfig())

		outputs, err := p.Run(context.Background(), "pull_request", testRef)
		if err != nil {
			t.Fatalf("seed %d: Run: %v", seed, err)
		}
		if outputs == nil {
			t.Fatalf("seed %d: nil outputs", seed)
		}

		if outputs.ConcernsFound < 1 || outputs.ConcernsFound > 3 {
			t.Errorf("seed %d: concerns-found = %d, want within [1,3]", seed, outputs.ConcernsFound)
		}
		if want := min(outputs.ConcernsFound, 3); outputs.MeetingsScheduled != want {
			t.Errorf("seed %d: meetings-scheduled = %d, want %d", seed, outputs.MeetingsScheduled, want)
		}

		// One overview plus one comment per concern.
		if len(host.comments) != 1+outputs.ConcernsFound {
			t.Errorf("seed %d: posted %d comments, want %d", seed, len(host.comments), 1+outputs.ConcernsFound)
		}
		if !strings.Contains(host.comments[0], "Bikeshed Bot") {
			t.Errorf("seed %d: overview missing bot name: %s", seed, host.comments[0])
		}
		if len(host.labelCalls) != outputs.ConcernsFound {
			t.Errorf("seed %d: %d label calls, want %d", seed, len(host.labelCalls), outputs.ConcernsFound)
		}
	}
}

func TestRun_NonPullRequestEventIsNoOp(t *testing.T) {
	host := &fakeHost{files: scenarioFiles()}
	p := New(host, &fakeCalendar{}, random.New(1), testConfig())

	outputs, err := p.Run(context.Background(), "push", testRef)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outputs != nil {
		t.Errorf("outputs = %+v, want nil for non-PR event", outputs)
	}
	if host.listCalls != 0 || len(host.comments) != 0 {
		t.Errorf("no hosting API calls expected, got list=%d comments=%d", host.listCalls, len(host.comments))
	}
}

func TestRun_PullRequestTargetAccepted(t *testing.T) {
	host := &fakeHost{files: scenarioFiles()}
	p := New(host, nil, random.New(1), testConfig())

	outputs, err := p.Run(context.Background(), "pull_request_target", testRef)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outputs == nil {
		t.Fatal("expected outputs for pull_request_target")
	}
}

func TestRun_ListFailureIsFatal(t *testing.T) {
	host := &fakeHost{filesErr: errors.New("boom")}
	p := New(host, nil, random.New(1), testConfig())

	if _, err := p.Run(context.Background(), "pull_request", testRef); err == nil {
		t.Fatal("expected error when listing files fails")
	}
	if len(host.comments) != 0 {
		t.Errorf("no comments should be posted after a fatal failure")
	}
}

func TestRun_CommentFailureIsFatal(t *testing.T) {
	host := &fakeHost{files: scenarioFiles(), commentErr: errors.New("boom")}
	p := New(host, nil, random.New(1), testConfig())

	if _, err := p.Run(context.Background(), "pull_request", testRef); err == nil {
		t.Fatal("expected error when posting comments fails")
	}
}

func TestRun_LabelFailureIsNotFatal(t *testing.T) {
	host := &fakeHost{files: scenarioFiles(), labelsErr: errors.New("labels unavailable")}
	p := New(host, nil, random.New(1), testConfig())

	outputs, err := p.Run(context.Background(), "pull_request", testRef)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outputs == nil || outputs.ConcernsFound < 1 {
		t.Fatal("run should complete despite label failures")
	}
}

func TestRun_CalendarAttachesMeetings(t *testing.T) {
	host := &fakeHost{files: scenarioFiles()}
	cal := &fakeCalendar{}
	p := New(host, cal, random.New(2), testConfig())
	p.SetNow(func() time.Time { return time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC) })

	outputs, err := p.Run(context.Background(), "pull_request", testRef)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cal.inserts) != outputs.ConcernsFound {
		t.Fatalf("inserted %d events, want %d", len(cal.inserts), outputs.ConcernsFound)
	}

	// Every concern comment should carry the meeting block with the link.
	for _, body := range host.comments[1:] {
		if !strings.Contains(body, "Meeting Details") {
			t.Errorf("concern comment missing meeting block: %s", body)
		}
		if !strings.Contains(body, "https://calendar.example/evt") {
			t.Errorf("concern comment missing calendar link: %s", body)
		}
	}
}

func TestRun_ConfirmedStartShownInComments(t *testing.T) {
	host := &fakeHost{files: scenarioFiles()}
	// The service confirms a start that differs from any requested slot:
	// 16:30 UTC is 12:30 PM EDT in the configured zone.
	cal := &fakeCalendar{confirmed: time.Date(2026, 8, 21, 16, 30, 0, 0, time.UTC)}
	p := New(host, cal, random.New(2), testConfig())
	p.SetNow(func() time.Time { return time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC) })

	if _, err := p.Run(context.Background(), "pull_request", testRef); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, body := range host.comments[1:] {
		if !strings.Contains(body, "Friday, August 21 at 12:30 PM EDT") {
			t.Errorf("comment should show the confirmed start, got: %s", body)
		}
	}
}

func TestRun_CalendarFailureIsNotFatal(t *testing.T) {
	host := &fakeHost{files: scenarioFiles()}
	cal := &fakeCalendar{err: &calendar.CalendarError{Op: "insert event", StatusCode: 403, Message: "quota"}}
	p := New(host, cal, random.New(2), testConfig())

	outputs, err := p.Run(context.Background(), "pull_request", testRef)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outputs == nil {
		t.Fatal("run should produce outputs despite calendar failure")
	}
	if len(host.comments) != 1+outputs.ConcernsFound {
		t.Errorf("posted %d comments, want %d", len(host.comments), 1+outputs.ConcernsFound)
	}
	if len(host.labelCalls) != outputs.ConcernsFound {
		t.Errorf("labels should still be added")
	}

	// Only the meeting blocks are absent.
	for _, body := range host.comments[1:] {
		if strings.Contains(body, "Meeting Details") {
			t.Errorf("meeting block should be absent after calendar failure: %s", body)
		}
	}
}

func TestRun_SeededRunsAreReproducible(t *testing.T) {
	run := func() []string {
		host := &fakeHost{files: scenarioFiles()}
		p := New(host, nil, random.New(1234), testConfig())
		if _, err := p.Run(context.Background(), "pull_request", testRef); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return host.comments
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("runs posted different comment counts: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("comment %d differs between identically seeded runs", i)
		}
	}
}

func TestRun_RespectsDisabledLabels(t *testing.T) {
	cfg := testConfig()
	cfg.AddLabels = false
	host := &fakeHost{files: scenarioFiles()}
	p := New(host, nil, random.New(3), cfg)

	if _, err := p.Run(context.Background(), "pull_request", testRef); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(host.labelCalls) != 0 {
		t.Errorf("labels disabled but %d label calls made", len(host.labelCalls))
	}
}
