// Package comment renders concerns into templated review comments: one
// aggregate overview per run plus one style-specific comment per concern.
package comment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bikeshedbot/bikeshed/pkg/random"
	"github.com/bikeshedbot/bikeshed/pkg/types"
)

// Placeholder defaults for concerns that carry no snippet or line number.
const (
	defaultSnippet = "this implementation"
	defaultLine    = "1"
)

// Renderer renders comments. Template choice draws from the shared random
// source so runs are reproducible under a fixed seed.
type Renderer struct {
	rand random.Source
}

// NewRenderer returns a Renderer drawing template choices from src.
func NewRenderer(src random.Source) *Renderer {
	return &Renderer{rand: src}
}

// Expand substitutes the concern's fields into tmpl. Every placeholder has a
// default, so expansion cannot fail; unknown brace tokens are left as literal
// text.
func Expand(tmpl string, c types.Concern) string {
	snippet := c.Snippet
	if snippet == "" {
		snippet = defaultSnippet
	}
	line := defaultLine
	if c.Line > 0 {
		line = strconv.Itoa(c.Line)
	}

	r := strings.NewReplacer(
		"{FILE}", c.File,
		"{TOPIC}", c.Topic.Name,
		"{CODE_SNIPPET}", snippet,
		"{URGENCY}", c.Topic.Urgency,
		"{LINE_NUMBER}", line,
	)
	return r.Replace(tmpl)
}

// RenderConcern renders one concern using a randomly chosen template from the
// style's pool, appending the meeting details block when a proposal is
// attached.
func (r *Renderer) RenderConcern(c types.Concern, style types.Style) string {
	body := Expand(random.Pick(r.rand, poolFor(style)), c)
	if c.Meeting != nil {
		body += meetingDetails(c)
	}
	return body
}

// meetingDetails formats the fixed block appended to a concern comment when a
// meeting slot was scheduled.
func meetingDetails(c types.Concern) string {
	m := c.Meeting
	var b strings.Builder
	b.WriteString("\n\n---\n**Meeting Details**\n")
	fmt.Fprintf(&b, "- Time: %s\n", m.Start.Format("Monday, January 2 at 3:04 PM MST"))
	fmt.Fprintf(&b, "- Duration: %d minutes\n", m.Minutes)
	fmt.Fprintf(&b, "- Topic: %s\n", c.Topic.Name)
	if m.Link != "" {
		fmt.Fprintf(&b, "- Calendar: %s\n", m.Link)
	}
	return b.String()
}

// RenderOverview renders the aggregate comment posted once per run, listing
// every concern in generation order.
func (r *Renderer) RenderOverview(concerns []types.Concern, botName string, useEmojis, calendarEnabled bool) string {
	var b strings.Builder

	if useEmojis {
		fmt.Fprintf(&b, "## 🚲 %s Review\n\n", botName)
	} else {
		fmt.Fprintf(&b, "## %s Review\n\n", botName)
	}

	if len(concerns) == 1 {
		b.WriteString("I've identified 1 area that could benefit from discussion:\n\n")
	} else {
		fmt.Fprintf(&b, "I've identified %d areas that could benefit from discussion:\n\n", len(concerns))
	}

	for i, c := range concerns {
		fmt.Fprintf(&b, "%d. **%s** in `%s` (%s)\n", i+1, c.Topic.Name, c.File, c.Topic.Urgency)
	}
	b.WriteString("\n")

	if calendarEnabled {
		b.WriteString("I've proposed a meeting time for each of these — see the individual comments below.")
		if useEmojis {
			b.WriteString(" 📅")
		}
	} else {
		b.WriteString("Let's work through these in the comments below.")
		if useEmojis {
			b.WriteString(" 💬")
		}
	}
	b.WriteString("\n\nRemember: no detail is too small to deserve a meeting.\n")

	return b.String()
}
