package diffpatch

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

// Statistics summarizes a patch's operation counts (diff.py's
// `_calculate_diff_statistics`).
type Statistics struct {
	TotalOperations int `json:"totalOperations"`
	Additions       int `json:"additions"`
	Removals        int `json:"removals"`
	Replacements    int `json:"replacements"`
}

// Result is the full output of a layout diff: the RFC-6902 patch plus the
// layout-aware summary, binding-movement tracking, and patch statistics.
type Result struct {
	Patch      []Operation `json:"patch"`
	Summary    Summary     `json:"summary"`
	Movements  Movements   `json:"movements"`
	Statistics Statistics  `json:"statistics"`
}

// Diff computes the full comparison between two layout documents
// (spec §4 item F / SPEC_FULL.md §7).
func Diff(base, modified *model.LayoutDocument) (*Result, error) {
	patch, err := makePatch(base, modified)
	if err != nil {
		return nil, err
	}
	return &Result{
		Patch:      patch,
		Summary:    analyzeLayoutChanges(base, modified),
		Movements:  trackBindingMovements(base, modified),
		Statistics: calculateStatistics(patch),
	}, nil
}

// makePatch produces the RFC-6902 patch transforming base into modified by
// a from-scratch tree-diff over each document's canonical JSON
// representation (encoding/json round trip into generic trees).
func makePatch(base, modified *model.LayoutDocument) ([]Operation, error) {
	baseTree, err := toTree(base)
	if err != nil {
		return nil, xerrors.ErrLayoutInvalid.WithCause(err).WithMessage("encoding base layout for diff")
	}
	modifiedTree, err := toTree(modified)
	if err != nil {
		return nil, xerrors.ErrLayoutInvalid.WithCause(err).WithMessage("encoding modified layout for diff")
	}
	return treeDiff("", baseTree, modifiedTree), nil
}

func toTree(doc *model.LayoutDocument) (map[string]interface{}, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func treeDiff(path string, a, b interface{}) []Operation {
	if reflect.DeepEqual(a, b) {
		return nil
	}
	am, aIsMap := a.(map[string]interface{})
	bm, bIsMap := b.(map[string]interface{})
	if aIsMap && bIsMap {
		return diffMap(path, am, bm)
	}
	aArr, aIsArr := a.([]interface{})
	bArr, bIsArr := b.([]interface{})
	if aIsArr && bIsArr {
		return diffArray(path, aArr, bArr)
	}
	if a == nil {
		return []Operation{{Op: "add", Path: path, Value: b}}
	}
	if b == nil {
		return []Operation{{Op: "remove", Path: path}}
	}
	return []Operation{{Op: "replace", Path: path, Value: b}}
}

func diffMap(path string, a, b map[string]interface{}) []Operation {
	var ops []Operation
	for k, av := range a {
		if bv, ok := b[k]; ok {
			ops = append(ops, treeDiff(joinPath(path, k), av, bv)...)
		} else {
			ops = append(ops, Operation{Op: "remove", Path: joinPath(path, k)})
		}
	}
	for k, bv := range b {
		if _, ok := a[k]; !ok {
			ops = append(ops, Operation{Op: "add", Path: joinPath(path, k), Value: bv})
		}
	}
	return ops
}

// diffArray recurses per shared index and otherwise removes trailing
// elements (descending, so indices stay valid during sequential apply)
// then appends new trailing elements — simple and correct for the
// apply(A, diff(A,B)) == B property, though not an edit-distance-minimal
// patch.
func diffArray(path string, a, b []interface{}) []Operation {
	var ops []Operation
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ops = append(ops, treeDiff(fmt.Sprintf("%s/%d", path, i), a[i], b[i])...)
	}
	for i := len(a) - 1; i >= len(b); i-- {
		ops = append(ops, Operation{Op: "remove", Path: fmt.Sprintf("%s/%d", path, i)})
	}
	for i := len(a); i < len(b); i++ {
		ops = append(ops, Operation{Op: "add", Path: path + "/-", Value: b[i]})
	}
	return ops
}

func calculateStatistics(patch []Operation) Statistics {
	stats := Statistics{TotalOperations: len(patch)}
	for _, op := range patch {
		switch op.Op {
		case "add":
			stats.Additions++
		case "remove":
			stats.Removals++
		case "replace":
			stats.Replacements++
		}
	}
	return stats
}
