package concern

import (
	"strings"

	"github.com/bikeshedbot/bikeshed/pkg/random"
	"github.com/bikeshedbot/bikeshed/pkg/types"
)

// Generation policy defaults. The inclusion chances are deliberate
// probabilistic policy, not incidental nondeterminism; they are configurable
// per Config.
const (
	DefaultFileChance = 0.70 // chance the per-file rule emits a concern
	DefaultTestChance = 0.50 // chance a "test" file gets a coverage concern
	DefaultTODOChance = 0.80 // chance an added TODO gets a debt concern

	DefaultMinConcerns = 1
	DefaultMaxConcerns = 3

	maxSyntheticLine = 50 // synthetic line numbers are sampled from [1, 50]

	// fillerFile is the file label attached to concerns synthesized only to
	// satisfy the configured minimum.
	fillerFile = "overall approach"
)

// Config controls concern generation.
type Config struct {
	Catalog     []types.Topic // empty = DefaultCatalog
	MinConcerns int
	MaxConcerns int
	FileChance  float64
	TestChance  float64
	TODOChance  float64
}

// withDefaults fills zero values and enforces the count invariant
// 0 < min <= max.
func (c Config) withDefaults() Config {
	if len(c.Catalog) == 0 {
		c.Catalog = DefaultCatalog()
	}
	if c.MinConcerns < 1 {
		c.MinConcerns = DefaultMinConcerns
	}
	if c.MaxConcerns < 1 {
		c.MaxConcerns = DefaultMaxConcerns
	}
	if c.MinConcerns > c.MaxConcerns {
		c.MinConcerns = c.MaxConcerns
	}
	if c.FileChance == 0 {
		c.FileChance = DefaultFileChance
	}
	if c.TestChance == 0 {
		c.TestChance = DefaultTestChance
	}
	if c.TODOChance == 0 {
		c.TODOChance = DefaultTODOChance
	}
	return c
}

// Generator produces the ordered concern sequence for one pull request.
type Generator struct {
	rand     random.Source
	assigner *Assigner
	cfg      Config
}

// NewGenerator returns a Generator drawing from src.
func NewGenerator(src random.Source, cfg Config) *Generator {
	return &Generator{
		rand:     src,
		assigner: NewAssigner(src),
		cfg:      cfg.withDefaults(),
	}
}

// Generate applies the inclusion rules to each changed file independently,
// pads with filler concerns up to the configured minimum, and truncates to
// the configured maximum. Order is file order, then rule order, then filler.
func (g *Generator) Generate(files []types.ChangedFile) []types.Concern {
	var concerns []types.Concern

	for _, file := range files {
		added := addedLines(file.Patch)

		// Any file with an extension is fair game for a generic concern.
		if strings.Contains(file.Filename, ".") && random.Chance(g.rand, g.cfg.FileChance) {
			concerns = append(concerns, types.Concern{
				File:     file.Filename,
				Line:     random.IntBetween(g.rand, 1, maxSyntheticLine),
				Topic:    random.Pick(g.rand, g.cfg.Catalog),
				Severity: g.assigner.Assign(),
				Snippet:  firstLine(added),
			})
		}

		if strings.Contains(file.Filename, "test") && random.Chance(g.rand, g.cfg.TestChance) {
			concerns = append(concerns, types.Concern{
				File:     file.Filename,
				Topic:    testCoverageTopic,
				Severity: types.SeverityDiscussionNeeded,
				Snippet:  firstLine(added),
			})
		}

		if containsTODO(added) && random.Chance(g.rand, g.cfg.TODOChance) {
			concerns = append(concerns, types.Concern{
				File:     file.Filename,
				Topic:    todoDebtTopic,
				Severity: types.SeverityFollowUpNeeded,
				Snippet:  firstLine(added),
			})
		}
	}

	for len(concerns) < g.cfg.MinConcerns {
		concerns = append(concerns, types.Concern{
			File:     fillerFile,
			Topic:    random.Pick(g.rand, g.cfg.Catalog),
			Severity: types.SeverityWorthDiscussing,
		})
	}

	if len(concerns) > g.cfg.MaxConcerns {
		concerns = concerns[:g.cfg.MaxConcerns]
	}

	return concerns
}

// addedLines extracts the added lines from a unified diff patch, with the
// leading "+" stripped. File header lines ("+++") do not count.
func addedLines(patch string) []string {
	var added []string
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			added = append(added, strings.TrimPrefix(line, "+"))
		}
	}
	return added
}

func firstLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}

func containsTODO(lines []string) bool {
	for _, line := range lines {
		if strings.Contains(line, "TODO") {
			return true
		}
	}
	return false
}
