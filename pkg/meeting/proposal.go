package meeting

import (
	"strings"
	"time"

	"github.com/bikeshedbot/bikeshed/pkg/comment"
	"github.com/bikeshedbot/bikeshed/pkg/random"
	"github.com/bikeshedbot/bikeshed/pkg/types"
)

// titleTemplates is the pool meeting titles are drawn from. The same
// placeholder substitution as comment templates applies.
var titleTemplates = []string{
	"Quick sync: {TOPIC} in {FILE}",
	"Alignment meeting: {TOPIC}",
	"Urgent: {TOPIC} needs a decision",
	"Discussion: {TOPIC} ({FILE})",
	"Let's talk about {TOPIC}",
	"Deep dive: {TOPIC} at line {LINE_NUMBER}",
	"Pre-merge review: {TOPIC}",
	"Stakeholder check-in: {TOPIC}",
	"Whiteboard session: {TOPIC} in {FILE}",
	"Team huddle: {TOPIC} ({URGENCY})",
}

// BuildProposal assembles the meeting proposal for a concern starting at
// start. The attendee list is the optional author email plus the
// comma-separated reviewer emails, trimmed, with no validation.
func BuildProposal(c types.Concern, start time.Time, authorEmail, reviewerEmails string, src random.Source) types.MeetingProposal {
	var attendees []string
	if authorEmail != "" {
		attendees = append(attendees, authorEmail)
	}
	for _, email := range strings.Split(reviewerEmails, ",") {
		if email = strings.TrimSpace(email); email != "" {
			attendees = append(attendees, email)
		}
	}

	return types.MeetingProposal{
		Title:     comment.Expand(random.Pick(src, titleTemplates), c),
		Start:     start,
		Minutes:   c.Topic.MeetingMinutes,
		Attendees: attendees,
	}
}
