package grading

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Similarity returns a ratio in [0, 1] between two program outputs. Both
// sides are whitespace-collapsed (case preserved) before comparison, then
// scored as 2*common/(len(a)+len(b)) where common is the total length of the
// equal runs found by a character-level diff.
//
// The metric is deterministic: identical outputs always score 1.0, and
// outputs sharing no characters score 0.0, the documented floor.
func Similarity(a, b string) float64 {
	a = collapseWhitespace(a)
	b = collapseWhitespace(b)

	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	dmp := diffmatchpatch.New()
	// No wall-clock cutoff: a timed-out diff varies with machine speed and
	// the score must not.
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMain(a, b, false)

	common := 0
	for _, diff := range diffs {
		if diff.Type == diffmatchpatch.DiffEqual {
			common += len(diff.Text)
		}
	}

	return float64(2*common) / float64(len(a)+len(b))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
