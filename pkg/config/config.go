// Package config builds the single explicit configuration value the rest of
// the system receives at construction. Inputs arrive from the host
// environment using the INPUT_<NAME> convention; nothing else reads the
// environment after startup.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bikeshedbot/bikeshed/pkg/types"
)

// Defaults for optional inputs.
const (
	DefaultBotName  = "Bikeshed Bot"
	DefaultTimezone = "America/New_York"

	defaultMaxMeetings = 3
	defaultMinConcerns = 1
)

// ConfigError reports a missing or malformed input.
//
//nolint:revive // name matches the error taxonomy used across the system
type ConfigError struct {
	Input  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config input %q: %s", e.Input, e.Reason)
}

// Config is the run's configuration snapshot, read once at startup.
type Config struct {
	GitHubToken         string
	CalendarCredentials string // service account JSON, required when calendar enabled
	CalendarID          string
	BotName             string
	Timezone            string // IANA zone name
	PRAuthorEmail       string
	ReviewerEmails      string // comma-separated
	CatalogFile         string // optional YAML topic catalog override
	CommentStyle        types.Style
	PreferredHours      []int
	MaxMeetingsPerPR    int
	MinConcerns         int
	RandomSeed          int64
	SeedSet             bool
	EnableCalendar      bool
	AddLabels           bool
	UseEmojis           bool
}

// FromEnv builds a Config from action inputs. getenv is injected so tests can
// supply a fake environment; pass os.Getenv in production.
func FromEnv(getenv func(string) string) (*Config, error) {
	input := func(name string) string {
		key := "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		return strings.TrimSpace(getenv(key))
	}

	cfg := &Config{
		GitHubToken:         input("github-token"),
		CalendarCredentials: input("google-calendar-credentials"),
		CalendarID:          input("google-calendar-id"),
		BotName:             input("bot-name"),
		Timezone:            input("timezone"),
		PRAuthorEmail:       input("pr-author-email"),
		ReviewerEmails:      input("reviewer-emails"),
		CatalogFile:         input("catalog-file"),
	}

	if cfg.GitHubToken == "" {
		return nil, &ConfigError{Input: "github-token", Reason: "required"}
	}

	var err error
	if cfg.EnableCalendar, err = parseBool(input("enable-calendar"), false); err != nil {
		return nil, &ConfigError{Input: "enable-calendar", Reason: err.Error()}
	}
	if cfg.AddLabels, err = parseBool(input("add-labels"), true); err != nil {
		return nil, &ConfigError{Input: "add-labels", Reason: err.Error()}
	}
	if cfg.UseEmojis, err = parseBool(input("use-emojis"), true); err != nil {
		return nil, &ConfigError{Input: "use-emojis", Reason: err.Error()}
	}

	if cfg.EnableCalendar {
		if cfg.CalendarCredentials == "" {
			return nil, &ConfigError{Input: "google-calendar-credentials", Reason: "required when enable-calendar is true"}
		}
		if cfg.CalendarID == "" {
			return nil, &ConfigError{Input: "google-calendar-id", Reason: "required when enable-calendar is true"}
		}
	}

	if cfg.MaxMeetingsPerPR, err = parseInt(input("max-meetings-per-pr"), defaultMaxMeetings); err != nil {
		return nil, &ConfigError{Input: "max-meetings-per-pr", Reason: err.Error()}
	}
	if cfg.MaxMeetingsPerPR < 1 {
		return nil, &ConfigError{Input: "max-meetings-per-pr", Reason: "must be at least 1"}
	}
	if cfg.MinConcerns, err = parseInt(input("min-concerns"), defaultMinConcerns); err != nil {
		return nil, &ConfigError{Input: "min-concerns", Reason: err.Error()}
	}
	if cfg.MinConcerns < 1 {
		return nil, &ConfigError{Input: "min-concerns", Reason: "must be at least 1"}
	}

	style := types.Style(input("comment-style"))
	switch style {
	case types.StyleConstructive, types.StyleFriendly, types.StyleFormal:
		cfg.CommentStyle = style
	case "":
		cfg.CommentStyle = types.StyleConstructive
	default:
		return nil, &ConfigError{Input: "comment-style", Reason: fmt.Sprintf("unknown style %q", style)}
	}

	if cfg.BotName == "" {
		cfg.BotName = DefaultBotName
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}

	if cfg.PreferredHours, err = parseHours(input("preferred-meeting-hours")); err != nil {
		return nil, &ConfigError{Input: "preferred-meeting-hours", Reason: err.Error()}
	}

	if seed := input("random-seed"); seed != "" {
		n, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return nil, &ConfigError{Input: "random-seed", Reason: "not an integer"}
		}
		cfg.RandomSeed = n
		cfg.SeedSet = true
	}

	return cfg, nil
}

// Location resolves the configured IANA time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, &ConfigError{Input: "timezone", Reason: fmt.Sprintf("unknown zone %q", c.Timezone)}
	}
	return loc, nil
}

func parseBool(raw string, def bool) (bool, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("not a boolean: %q", raw)
	}
	return v, nil
}

func parseInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return v, nil
}

// parseHours parses a comma-separated hour list. Empty input returns nil so
// the slot finder falls back to its default set.
func parseHours(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	var hours []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", part)
		}
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("hour %d out of range 0-23", h)
		}
		hours = append(hours, h)
	}
	return hours, nil
}
