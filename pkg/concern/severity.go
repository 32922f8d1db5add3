package concern

import (
	"github.com/bikeshedbot/bikeshed/pkg/random"
	"github.com/bikeshedbot/bikeshed/pkg/types"
)

// assignable is the closed severity set the assigner draws from. Synthesized
// concerns use their own literals and never pass through here.
var assignable = []types.Severity{
	types.SeverityCritical,
	types.SeverityHigh,
	types.SeverityMedium,
	types.SeverityDiscussionNeeded,
	types.SeverityWorthNoting,
}

// Assigner draws severities for generated concerns.
type Assigner struct {
	rand random.Source
}

// NewAssigner returns an Assigner drawing from src.
func NewAssigner(src random.Source) *Assigner {
	return &Assigner{rand: src}
}

// Assign returns a uniform draw from the severity set.
func (a *Assigner) Assign() types.Severity {
	return random.Pick(a.rand, assignable)
}
