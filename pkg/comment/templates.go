package comment

import "github.com/bikeshedbot/bikeshed/pkg/types"

// Template pools per comment style. Placeholders are substituted by Expand;
// anything that is not a known placeholder passes through untouched.
var constructiveTemplates = []string{
	"I noticed the {TOPIC} in `{FILE}` around line {LINE_NUMBER}. " +
		"Looking at `{CODE_SNIPPET}`, I think there's room to align on direction here. " +
		"This feels {URGENCY} — worth getting everyone in a room?",

	"Before we merge, can we talk about the {TOPIC} in `{FILE}`? " +
		"The change at line {LINE_NUMBER} (`{CODE_SNIPPET}`) raises some questions " +
		"that are probably easier to resolve synchronously.",

	"There's an interesting decision buried in `{FILE}` at line {LINE_NUMBER}: " +
		"`{CODE_SNIPPET}`. The {TOPIC} here is {URGENCY}, and I'd hate for us to " +
		"lock something in without discussing it first.",

	"Flagging the {TOPIC} in `{FILE}` for discussion. Specifically, " +
		"`{CODE_SNIPPET}` near line {LINE_NUMBER} could go several ways, and the " +
		"team should weigh in before this ships.",

	"I keep coming back to line {LINE_NUMBER} of `{FILE}`. The {TOPIC} question " +
		"(`{CODE_SNIPPET}`) is {URGENCY} in my view. Let's make sure we're all " +
		"on the same page.",
}

var friendlyTemplates = []string{
	"Hey! 👋 Quick thought on `{FILE}` — the {TOPIC} around line {LINE_NUMBER} " +
		"caught my eye (`{CODE_SNIPPET}`). No pressure, but it might be fun to chat " +
		"about it! It's {URGENCY}, after all. 😄",

	"Love the progress here! One tiny thing: `{CODE_SNIPPET}` in `{FILE}` got me " +
		"thinking about {TOPIC}. Want to grab some time to talk it through? 🙌",

	"Ooh, line {LINE_NUMBER} of `{FILE}`! The {TOPIC} situation is {URGENCY} — " +
		"let's huddle on it sometime. ☕",
}

var formalTemplates = []string{
	"Per review of `{FILE}`, the {TOPIC} at line {LINE_NUMBER} requires " +
		"stakeholder alignment prior to merge. Reference: `{CODE_SNIPPET}`. " +
		"Priority assessment: {URGENCY}.",

	"This change introduces considerations regarding {TOPIC} in `{FILE}` " +
		"(line {LINE_NUMBER}, `{CODE_SNIPPET}`). A synchronous review session is " +
		"recommended. Urgency classification: {URGENCY}.",

	"Formal review note: `{FILE}` line {LINE_NUMBER} warrants discussion of " +
		"{TOPIC} before approval can be granted. The matter is {URGENCY}.",
}

// poolFor returns the template pool for a style, defaulting to constructive
// for unrecognized styles.
func poolFor(style types.Style) []string {
	switch style {
	case types.StyleFriendly:
		return friendlyTemplates
	case types.StyleFormal:
		return formalTemplates
	case types.StyleConstructive:
		return constructiveTemplates
	default:
		return constructiveTemplates
	}
}
