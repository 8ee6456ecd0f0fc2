package diffpatch

import (
	"github.com/pmezard/go-difflib/difflib"
)

// DTSIDiff renders a unified diff between two compiled DTSI texts
// (`glovebox layout diff --format dtsi`, spec §6). go-difflib is the
// retrieval pack's own line-diff library (present in its dependency
// graph); it is purpose-built for exactly this "unified diff of two text
// blobs" shape, so there is no reason to hand-roll an LCS implementation
// here the way the JSON-patch tree-diff had to be hand-rolled.
func DTSIDiff(fromName, toName, a, b string) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}
