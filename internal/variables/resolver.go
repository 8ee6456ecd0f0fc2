package variables

import (
	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

// Resolver resolves `${...}` references against a fixed variables table.
// It is built once per layout document and reused for every field that
// needs resolving.
type Resolver struct {
	vars map[string]model.Value
}

// New builds a Resolver over the given variables table (typically
// LayoutDocument.Variables).
func New(vars map[string]model.Value) *Resolver {
	if vars == nil {
		vars = map[string]model.Value{}
	}
	return &Resolver{vars: vars}
}

// Resolve resolves a raw field value that may contain zero, one, or
// several `${...}` references. A string consisting of exactly one
// reference preserves that reference's resolved type (so a numeric
// variable stays numeric); any other mix of literal text and references
// is stringified and concatenated, per spec §4.2.
func (r *Resolver) Resolve(raw string) (model.Value, error) {
	refs := parseReferences(raw)
	if len(refs) == 0 {
		return model.NewString(raw), nil
	}
	if ref, ok := isWholeReference(raw, refs); ok {
		return r.resolveRef(ref, map[string]bool{})
	}
	return r.substitute(raw, refs, map[string]bool{})
}

// HasReference reports whether raw contains at least one `${...}` token,
// used by callers deciding whether a field is worth resolving at all.
func HasReference(raw string) bool {
	return len(parseReferences(raw)) > 0
}

// substitute replaces every reference in raw with its stringified value,
// failing if any resolves to a non-scalar (spec §9 open question: "fail
// with LayoutInvalid rather than silently flatten a list/object into a
// string").
func (r *Resolver) substitute(raw string, refs []reference, stack map[string]bool) (model.Value, error) {
	var out []byte
	last := 0
	for _, ref := range refs {
		out = append(out, raw[last:ref.start]...)
		val, err := r.resolveRef(ref, stack)
		if err != nil {
			return model.Value{}, err
		}
		if !val.IsScalar() {
			return model.Value{}, xerrors.ErrLayoutInvalid.WithMessagef(
				"reference %q embedded in a larger string must resolve to a scalar, got %s", ref.raw, kindName(val.Kind))
		}
		out = append(out, val.String()...)
		last = ref.end
	}
	out = append(out, raw[last:]...)
	return model.NewString(string(out)), nil
}

// resolveRef resolves a single parsed reference: variable lookup, accessor
// navigation, default fallback, and lazy chain resolution when the result
// is itself wholly another reference.
func (r *Resolver) resolveRef(ref reference, stack map[string]bool) (model.Value, error) {
	if stack[ref.name] {
		return model.Value{}, xerrors.ErrVariableCycle.WithMessagef("variable %q is part of a reference cycle", ref.name)
	}

	val, ok := r.vars[ref.name]
	if !ok {
		if ref.hasDefault {
			return model.NewString(ref.defaultVal), nil
		}
		return model.Value{}, xerrors.ErrUndefinedVariable.WithMessagef("undefined variable %q", ref.path())
	}

	for _, a := range ref.accessors {
		next, ok := navigate(val, a)
		if !ok {
			if ref.hasDefault {
				return model.NewString(ref.defaultVal), nil
			}
			return model.Value{}, xerrors.ErrUndefinedVariable.WithMessagef("undefined variable path %q", ref.path())
		}
		val = next
	}

	stack[ref.name] = true
	defer delete(stack, ref.name)

	if val.Kind == model.KindString {
		innerRefs := parseReferences(val.Str)
		if innerRef, whole := isWholeReference(val.Str, innerRefs); whole {
			return r.resolveRef(innerRef, stack)
		}
		if len(innerRefs) > 0 {
			return r.substitute(val.Str, innerRefs, stack)
		}
	}
	return val, nil
}

func navigate(v model.Value, a accessor) (model.Value, bool) {
	switch a.kind {
	case accessSubkey:
		if v.Kind != model.KindObject {
			return model.Value{}, false
		}
		next, ok := v.Object[a.subkey]
		return next, ok
	case accessIndex:
		if v.Kind != model.KindArray || a.index < 0 || a.index >= len(v.Array) {
			return model.Value{}, false
		}
		return v.Array[a.index], true
	}
	return model.Value{}, false
}

func kindName(k model.ValueKind) string {
	switch k {
	case model.KindNull:
		return "null"
	case model.KindString:
		return "string"
	case model.KindNumber:
		return "number"
	case model.KindBool:
		return "bool"
	case model.KindArray:
		return "array"
	case model.KindObject:
		return "object"
	default:
		return "unknown"
	}
}
