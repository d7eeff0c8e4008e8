package watchset

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders a unified diff between two watched-file listings. It returns
// "" when the listings are equal.
func Diff(before, after []string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        lines(before),
		B:        lines(after),
		FromFile: "watched (before)",
		ToFile:   "watched (after)",
		Context:  1,
	})
}

func lines(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p + "\n"
	}

	return out
}
