package diffpatch

import (
	"encoding/json"
	"strconv"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

// Apply transforms doc by patch and decodes the result back into a layout
// document (spec §8 testable property: apply(A, diff(A,B)) == B).
func Apply(doc *model.LayoutDocument, patch []Operation) (*model.LayoutDocument, error) {
	tree, err := toTree(doc)
	if err != nil {
		return nil, xerrors.ErrLayoutInvalid.WithCause(err).WithMessage("encoding layout for patch application")
	}

	var node interface{} = tree
	for _, op := range patch {
		node, err = applyOne(node, op)
		if err != nil {
			return nil, xerrors.ErrLayoutInvalid.WithCause(err).WithMessage("applying patch operation " + op.Op + " " + op.Path)
		}
	}

	raw, err := json.Marshal(node)
	if err != nil {
		return nil, xerrors.ErrLayoutInvalid.WithCause(err).WithMessage("encoding patched tree")
	}
	out := &model.LayoutDocument{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, xerrors.ErrLayoutInvalid.WithCause(err).WithMessage("decoding patched layout")
	}
	return out, nil
}

func applyOne(root interface{}, op Operation) (interface{}, error) {
	segs := splitPointer(op.Path)
	if len(segs) == 0 {
		switch op.Op {
		case "add", "replace":
			return op.Value, nil
		default:
			return nil, errUnsupportedRootOp(op.Op)
		}
	}
	return applyAt(root, segs, op)
}

func applyAt(node interface{}, segs []string, op Operation) (interface{}, error) {
	seg := segs[0]
	rest := segs[1:]

	switch typed := node.(type) {
	case map[string]interface{}:
		if len(rest) == 0 {
			switch op.Op {
			case "add", "replace":
				typed[seg] = op.Value
			case "remove":
				delete(typed, seg)
			default:
				return nil, errUnsupportedOp(op.Op)
			}
			return typed, nil
		}
		child, ok := typed[seg]
		if !ok {
			return nil, errPathNotFound(seg)
		}
		newChild, err := applyAt(child, rest, op)
		if err != nil {
			return nil, err
		}
		typed[seg] = newChild
		return typed, nil

	case []interface{}:
		if len(rest) == 0 {
			return applyArrayLeaf(typed, seg, op)
		}
		idx, err := arrayIndex(typed, seg)
		if err != nil {
			return nil, err
		}
		newChild, err := applyAt(typed[idx], rest, op)
		if err != nil {
			return nil, err
		}
		typed[idx] = newChild
		return typed, nil

	default:
		return nil, errCannotNavigate(seg)
	}
}

func applyArrayLeaf(arr []interface{}, seg string, op Operation) ([]interface{}, error) {
	switch op.Op {
	case "add":
		if seg == "-" {
			return append(arr, op.Value), nil
		}
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx > len(arr) {
			return nil, errBadIndex(seg)
		}
		arr = append(arr, nil)
		copy(arr[idx+1:], arr[idx:])
		arr[idx] = op.Value
		return arr, nil
	case "replace":
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(arr) {
			return nil, errBadIndex(seg)
		}
		arr[idx] = op.Value
		return arr, nil
	case "remove":
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(arr) {
			return nil, errBadIndex(seg)
		}
		return append(arr[:idx], arr[idx+1:]...), nil
	default:
		return nil, errUnsupportedOp(op.Op)
	}
}

func arrayIndex(arr []interface{}, seg string) (int, error) {
	idx, err := strconv.Atoi(seg)
	if err != nil || idx < 0 || idx >= len(arr) {
		return 0, errBadIndex(seg)
	}
	return idx, nil
}
