// Package pipeline wires the run together: trigger gate, concern generation,
// comment posting, meeting scheduling, and labeling, strictly in order.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bikeshedbot/bikeshed/pkg/calendar"
	"github.com/bikeshedbot/bikeshed/pkg/comment"
	"github.com/bikeshedbot/bikeshed/pkg/concern"
	"github.com/bikeshedbot/bikeshed/pkg/config"
	"github.com/bikeshedbot/bikeshed/pkg/meeting"
	"github.com/bikeshedbot/bikeshed/pkg/random"
	"github.com/bikeshedbot/bikeshed/pkg/types"
)

// Hosting is the hosting-platform surface the pipeline consumes.
type Hosting interface {
	ChangedFiles(ctx context.Context, ref types.PRRef) ([]types.ChangedFile, error)
	PostComment(ctx context.Context, ref types.PRRef, body string) error
	AddLabels(ctx context.Context, ref types.PRRef, labels []string) error
}

// CalendarService is the calendar surface the pipeline consumes. Failures
// from it are logged and swallowed.
type CalendarService interface {
	InsertEvent(ctx context.Context, event *calendar.Event) (*calendar.Insertion, error)
}

// Pipeline runs the bikeshed review for one pull request. A single logical
// thread of control: external calls are awaited one at a time so posted
// comments match generation order.
type Pipeline struct {
	host    Hosting
	cal     CalendarService // nil when calendar integration is disabled
	rand    random.Source
	now     func() time.Time
	cfg     *config.Config
	catalog []types.Topic // empty = default catalog
}

// New creates a pipeline. cal may be nil to disable meeting scheduling.
func New(host Hosting, cal CalendarService, src random.Source, cfg *config.Config) *Pipeline {
	return &Pipeline{
		host: host,
		cal:  cal,
		rand: src,
		now:  time.Now,
		cfg:  cfg,
	}
}

// SetCatalog overrides the topic catalog, typically from a YAML file.
func (p *Pipeline) SetCatalog(catalog []types.Topic) {
	p.catalog = catalog
}

// SetNow overrides the clock. Used by tests.
func (p *Pipeline) SetNow(now func() time.Time) {
	p.now = now
}

// IsPullRequestEvent reports whether the trigger event carries a pull
// request. Entry points check it before resolving any PR context so non-PR
// events stay a clean no-op.
func IsPullRequestEvent(eventName string) bool {
	return eventName == "pull_request" || eventName == "pull_request_target"
}

// Run executes the full review for one pull request. Non-pull-request events
// are a no-op returning nil outputs. Hosting failures abort the run; calendar
// and label failures are logged and skipped.
func (p *Pipeline) Run(ctx context.Context, eventName string, ref types.PRRef) (*types.Outputs, error) {
	if !IsPullRequestEvent(eventName) {
		slog.Info("Not a pull request event, nothing to do", "component", "pipeline", "event", eventName)
		return nil, nil
	}

	loc, err := p.cfg.Location()
	if err != nil {
		return nil, err
	}

	files, err := p.host.ChangedFiles(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed files: %w", err)
	}
	slog.Info("Fetched changed files", "component", "pipeline", "owner", ref.Owner, "repo", ref.Repo, "pr", ref.Number, "files", len(files))

	generator := concern.NewGenerator(p.rand, concern.Config{
		Catalog:     p.catalog,
		MinConcerns: p.cfg.MinConcerns,
		MaxConcerns: p.cfg.MaxMeetingsPerPR,
	})
	concerns := generator.Generate(files)
	slog.Info("Generated concerns", "component", "pipeline", "count", len(concerns))

	renderer := comment.NewRenderer(p.rand)

	overview := renderer.RenderOverview(concerns, p.cfg.BotName, p.cfg.UseEmojis, p.cal != nil)
	if err := p.host.PostComment(ctx, ref, overview); err != nil {
		return nil, fmt.Errorf("failed to post overview comment: %w", err)
	}

	for i := range concerns {
		if p.cal != nil {
			p.scheduleMeeting(ctx, &concerns[i], loc)
		}

		body := renderer.RenderConcern(concerns[i], p.cfg.CommentStyle)
		if err := p.host.PostComment(ctx, ref, body); err != nil {
			return nil, fmt.Errorf("failed to post concern comment: %w", err)
		}

		if p.cfg.AddLabels {
			if err := p.host.AddLabels(ctx, ref, concern.LabelsFor(concerns[i])); err != nil {
				slog.Warn("Failed to add labels, continuing", "component", "pipeline", "pr", ref.Number, "error", err)
			}
		}
	}

	outputs := &types.Outputs{
		ConcernsFound:     len(concerns),
		MeetingsScheduled: min(len(concerns), p.cfg.MaxMeetingsPerPR),
	}
	slog.Info("Run complete", "component", "pipeline",
		"concerns_found", outputs.ConcernsFound, "meetings_scheduled", outputs.MeetingsScheduled)
	return outputs, nil
}

// scheduleMeeting finds a slot, builds the proposal, and inserts the calendar
// event. Any calendar failure discards the proposal and the run continues.
func (p *Pipeline) scheduleMeeting(ctx context.Context, c *types.Concern, loc *time.Location) {
	slot := meeting.FindSlot(p.now().In(loc), p.cfg.PreferredHours, p.rand)
	proposal := meeting.BuildProposal(*c, slot, p.cfg.PRAuthorEmail, p.cfg.ReviewerEmails, p.rand)

	description := fmt.Sprintf("Proposed by %s to discuss %s in %s.", p.cfg.BotName, c.Topic.Name, c.File)
	insertion, err := p.cal.InsertEvent(ctx, calendar.EventFromProposal(proposal, description))
	if err != nil {
		slog.Warn("Calendar scheduling failed, continuing without a meeting", "component", "pipeline", "topic", c.Topic.Name, "error", err)
		return
	}

	proposal.Link = insertion.Link
	// The service may confirm a different start than requested; the comment
	// shows what is actually on the calendar.
	if !insertion.ConfirmedStart.IsZero() {
		proposal.Start = insertion.ConfirmedStart.In(loc)
	}
	c.Meeting = &proposal
}
