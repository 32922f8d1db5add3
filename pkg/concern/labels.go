package concern

import (
	"strings"

	"github.com/bikeshedbot/bikeshed/pkg/types"
)

// Labels every concern carries regardless of severity.
const (
	labelNeedsDiscussion = "needs-discussion"
	labelBikeshedReview  = "bikeshed-review"
)

// LabelsFor derives the review labels for a concern. The severity string
// itself, lowercased, is the priority suffix.
func LabelsFor(c types.Concern) []string {
	return []string{
		labelNeedsDiscussion,
		labelBikeshedReview,
		"priority-" + strings.ToLower(string(c.Severity)),
	}
}
