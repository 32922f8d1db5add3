package config

import (
	"errors"
	"testing"

	"github.com/bikeshedbot/bikeshed/pkg/types"
)

func fakeEnv(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(fakeEnv(map[string]string{
		"INPUT_GITHUB_TOKEN": "ghp_testtoken",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.EnableCalendar {
		t.Error("enable-calendar should default to false")
	}
	if !cfg.AddLabels {
		t.Error("add-labels should default to true")
	}
	if !cfg.UseEmojis {
		t.Error("use-emojis should default to true")
	}
	if cfg.MaxMeetingsPerPR != 3 {
		t.Errorf("max-meetings-per-pr = %d, want 3", cfg.MaxMeetingsPerPR)
	}
	if cfg.MinConcerns != 1 {
		t.Errorf("min-concerns = %d, want 1", cfg.MinConcerns)
	}
	if cfg.CommentStyle != types.StyleConstructive {
		t.Errorf("comment-style = %q, want constructive", cfg.CommentStyle)
	}
	if cfg.BotName != "Bikeshed Bot" {
		t.Errorf("bot-name = %q", cfg.BotName)
	}
	if cfg.Timezone != "America/New_York" {
		t.Errorf("timezone = %q", cfg.Timezone)
	}
	if cfg.PreferredHours != nil {
		t.Errorf("preferred hours = %v, want nil (use finder default)", cfg.PreferredHours)
	}
	if cfg.SeedSet {
		t.Error("seed should not be set by default")
	}
}

func TestFromEnv_MissingTokenIsConfigError(t *testing.T) {
	_, err := FromEnv(fakeEnv(nil))
	if err == nil {
		t.Fatal("expected error for missing github-token")
	}
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
	if cerr.Input != "github-token" {
		t.Errorf("error input = %q", cerr.Input)
	}
}

func TestFromEnv_CalendarRequiresCredentials(t *testing.T) {
	_, err := FromEnv(fakeEnv(map[string]string{
		"INPUT_GITHUB_TOKEN":    "ghp_testtoken",
		"INPUT_ENABLE_CALENDAR": "true",
	}))
	if err == nil {
		t.Fatal("expected error when calendar enabled without credentials")
	}
}

func TestFromEnv_ParsesEverything(t *testing.T) {
	cfg, err := FromEnv(fakeEnv(map[string]string{
		"INPUT_GITHUB_TOKEN":                "ghp_testtoken",
		"INPUT_ENABLE_CALENDAR":             "true",
		"INPUT_GOOGLE_CALENDAR_CREDENTIALS": `{"client_email":"svc@x.iam.gserviceaccount.com"}`,
		"INPUT_GOOGLE_CALENDAR_ID":          "team@group.calendar.google.com",
		"INPUT_MAX_MEETINGS_PER_PR":         "5",
		"INPUT_MIN_CONCERNS":                "2",
		"INPUT_COMMENT_STYLE":               "friendly",
		"INPUT_ADD_LABELS":                  "false",
		"INPUT_BOT_NAME":                    "Shed Inspector",
		"INPUT_USE_EMOJIS":                  "false",
		"INPUT_TIMEZONE":                    "Europe/Berlin",
		"INPUT_PREFERRED_MEETING_HOURS":     "9, 13,17",
		"INPUT_PR_AUTHOR_EMAIL":             "author@example.com",
		"INPUT_REVIEWER_EMAILS":             "a@x.com,b@x.com",
		"INPUT_RANDOM_SEED":                 "42",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.MaxMeetingsPerPR != 5 || cfg.MinConcerns != 2 {
		t.Errorf("counts = %d/%d", cfg.MinConcerns, cfg.MaxMeetingsPerPR)
	}
	if cfg.CommentStyle != types.StyleFriendly {
		t.Errorf("style = %q", cfg.CommentStyle)
	}
	if cfg.AddLabels || cfg.UseEmojis {
		t.Error("bool inputs not honored")
	}
	wantHours := []int{9, 13, 17}
	if len(cfg.PreferredHours) != 3 {
		t.Fatalf("hours = %v, want %v", cfg.PreferredHours, wantHours)
	}
	for i, h := range wantHours {
		if cfg.PreferredHours[i] != h {
			t.Errorf("hour %d = %d, want %d", i, cfg.PreferredHours[i], h)
		}
	}
	if !cfg.SeedSet || cfg.RandomSeed != 42 {
		t.Errorf("seed = %d (set=%v), want 42", cfg.RandomSeed, cfg.SeedSet)
	}
}

func TestFromEnv_RejectsBadInputs(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"bad style", "INPUT_COMMENT_STYLE", "sarcastic"},
		{"bad bool", "INPUT_ENABLE_CALENDAR", "perhaps"},
		{"bad int", "INPUT_MAX_MEETINGS_PER_PR", "three"},
		{"zero max", "INPUT_MAX_MEETINGS_PER_PR", "0"},
		{"zero min", "INPUT_MIN_CONCERNS", "0"},
		{"hour out of range", "INPUT_PREFERRED_MEETING_HOURS", "10,25"},
		{"bad hour", "INPUT_PREFERRED_MEETING_HOURS", "ten"},
		{"bad seed", "INPUT_RANDOM_SEED", "lucky"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromEnv(fakeEnv(map[string]string{
				"INPUT_GITHUB_TOKEN": "ghp_testtoken",
				tc.key:               tc.val,
			}))
			if err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.val)
			}
		})
	}
}

func TestLocation_Resolves(t *testing.T) {
	cfg := &Config{Timezone: "America/New_York"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "America/New_York" {
		t.Errorf("location = %s", loc)
	}

	cfg.Timezone = "Mars/Olympus_Mons"
	if _, err := cfg.Location(); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestParseCatalog(t *testing.T) {
	data := []byte(`
- name: naming conventions
  meeting_minutes: 30
  urgency: surprisingly urgent
- name: interface design
  meeting_minutes: 45
  urgency: future-proofing required
`)
	topics, err := ParseCatalog(data)
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(topics))
	}
	if topics[0].Name != "naming conventions" || topics[0].MeetingMinutes != 30 {
		t.Errorf("first topic = %+v", topics[0])
	}
}

func TestParseCatalog_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"empty list", `[]`},
		{"missing name", "- meeting_minutes: 30\n  urgency: x"},
		{"zero length", "- name: x\n  meeting_minutes: 0\n  urgency: y"},
		{"not yaml", `{{{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(tc.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
