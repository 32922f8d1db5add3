// Package types contains shared data structures used across the bikeshed system.
//
//nolint:revive // "types" is a standard Go package name for shared data structures
package types

import "time"

// Severity classifies how urgently a concern supposedly needs to be discussed.
type Severity string

// The severity set drawn by the severity assigner.
const (
	SeverityCritical         Severity = "CRITICAL"
	SeverityHigh             Severity = "HIGH"
	SeverityMedium           Severity = "MEDIUM"
	SeverityDiscussionNeeded Severity = "DISCUSSION_NEEDED"
	SeverityWorthNoting      Severity = "WORTH_NOTING"
)

// Severities used only by synthesized concerns. These are deliberately kept
// distinct from the assigner's draw set: the spelling leaks into label names
// (priority-follow_up_needed), so unifying them would change external output.
const (
	SeverityFollowUpNeeded  Severity = "FOLLOW_UP_NEEDED"
	SeverityWorthDiscussing Severity = "WORTH_DISCUSSING"
)

// Topic is a named discussion subject with an associated meeting length and
// urgency tag.
type Topic struct {
	Name           string `yaml:"name"`
	Urgency        string `yaml:"urgency"`
	MeetingMinutes int    `yaml:"meeting_minutes"`
}

// Concern is one synthesized discussion point tied to a file, topic, and
// severity. The Meeting field is attached later by the pipeline when calendar
// integration is enabled; everything else is read-only after generation.
type Concern struct {
	Meeting  *MeetingProposal
	File     string
	Snippet  string // first added line of the diff, if any
	Topic    Topic
	Severity Severity
	Line     int // 0 means no specific line
}

// MeetingProposal is a candidate meeting slot for a concern. It exists only
// for the duration of one run.
type MeetingProposal struct {
	Start     time.Time
	Title     string
	Link      string // confirmation link from the calendar service, if any
	Attendees []string
	Minutes   int
}

// Style selects a comment template pool.
type Style string

// Recognized comment styles.
const (
	StyleConstructive Style = "constructive"
	StyleFriendly     Style = "friendly"
	StyleFormal       Style = "formal"
)

// ChangedFile represents a file changed in a pull request.
type ChangedFile struct {
	Filename  string
	Status    string // "added", "modified", "removed", "renamed"
	Patch     string
	Additions int
	Deletions int
}

// PRRef identifies a pull request.
type PRRef struct {
	Owner  string
	Repo   string
	Number int
}

// Outputs holds the values the run reports back to the host environment.
type Outputs struct {
	ConcernsFound     int
	MeetingsScheduled int
}
