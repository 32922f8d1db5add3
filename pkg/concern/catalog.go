// Package concern generates the bounded set of synthetic discussion points
// for a pull request and derives review labels from them.
package concern

import "github.com/bikeshedbot/bikeshed/pkg/types"

// Ad-hoc topics synthesized by special-case generator rules. They are not
// part of the catalog draw.
var (
	testCoverageTopic = types.Topic{
		Name:           "test coverage approach",
		MeetingMinutes: 30,
		Urgency:        "should be discussed before merge",
	}

	todoDebtTopic = types.Topic{
		Name:           "TODO items and technical debt",
		MeetingMinutes: 45,
		Urgency:        "accumulating quietly",
	}
)

// DefaultCatalog returns the fixed table of discussion topics. Callers get a
// fresh slice; mutating it does not affect later calls.
func DefaultCatalog() []types.Topic {
	return []types.Topic{
		{Name: "naming conventions", MeetingMinutes: 30, Urgency: "surprisingly urgent"},
		{Name: "error handling strategy", MeetingMinutes: 45, Urgency: "worth a whiteboard"},
		{Name: "function length and complexity", MeetingMinutes: 30, Urgency: "mildly concerning"},
		{Name: "code organization", MeetingMinutes: 60, Urgency: "deserves a full hour"},
		{Name: "choice of dependencies", MeetingMinutes: 45, Urgency: "strategically important"},
		{Name: "level of abstraction", MeetingMinutes: 60, Urgency: "philosophically loaded"},
		{Name: "formatting and whitespace", MeetingMinutes: 15, Urgency: "extremely urgent"},
		{Name: "documentation completeness", MeetingMinutes: 30, Urgency: "can probably wait"},
		{Name: "variable naming consistency", MeetingMinutes: 15, Urgency: "bothering someone"},
		{Name: "interface design", MeetingMinutes: 45, Urgency: "future-proofing required"},
	}
}
