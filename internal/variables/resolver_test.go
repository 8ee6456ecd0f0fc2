package variables

import (
	"testing"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

func TestResolveWholeReferencePreservesType(t *testing.T) {
	r := New(map[string]model.Value{"count": model.NewNumber(200)})
	v, err := r.Resolve("${count}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != model.KindNumber || v.Num != 200 {
		t.Fatalf("expected numeric 200, got %+v", v)
	}
}

func TestResolveChain(t *testing.T) {
	// a: "${b}", b: 200 -> resolving "a" yields 200, type preserved.
	r := New(map[string]model.Value{
		"a": model.NewString("${b}"),
		"b": model.NewNumber(200),
	})
	v, err := r.Resolve("${a}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != model.KindNumber || v.Num != 200 {
		t.Fatalf("expected chained resolution to 200, got %+v", v)
	}
}

func TestResolveUndefinedVariable(t *testing.T) {
	r := New(map[string]model.Value{})
	_, err := r.Resolve("${nope}")
	if !xerrors.Is(err, xerrors.ErrUndefinedVariable) {
		t.Fatalf("expected UndefinedVariable, got %v", err)
	}
}

func TestResolveCycleDetected(t *testing.T) {
	r := New(map[string]model.Value{
		"a": model.NewString("${b}"),
		"b": model.NewString("${a}"),
	})
	_, err := r.Resolve("${a}")
	if !xerrors.Is(err, xerrors.ErrVariableCycle) {
		t.Fatalf("expected VariableCycle, got %v", err)
	}
}

func TestResolveSubkeyAndIndex(t *testing.T) {
	r := New(map[string]model.Value{
		"host": model.NewObject(map[string]model.Value{
			"name": model.NewString("kb"),
		}),
		"items": model.NewArray([]model.Value{model.NewString("first"), model.NewString("second")}),
	})
	v, err := r.Resolve("${host.name}")
	if err != nil || v.Str != "kb" {
		t.Fatalf("expected kb, got %+v err=%v", v, err)
	}
	v, err = r.Resolve("${items[1]}")
	if err != nil || v.Str != "second" {
		t.Fatalf("expected second, got %+v err=%v", v, err)
	}
}

func TestResolveDefault(t *testing.T) {
	r := New(map[string]model.Value{})
	v, err := r.Resolve("${missing:fallback}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != model.KindString || v.Str != "fallback" {
		t.Fatalf("expected fallback string, got %+v", v)
	}
}

func TestResolveEmbeddedInterpolation(t *testing.T) {
	r := New(map[string]model.Value{"n": model.NewNumber(5)})
	v, err := r.Resolve("count=${n}!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != model.KindString || v.Str != "count=5!" {
		t.Fatalf("expected \"count=5!\", got %+v", v)
	}
}

func TestResolveEmbeddedNonScalarFails(t *testing.T) {
	r := New(map[string]model.Value{"arr": model.NewArray([]model.Value{model.NewString("a")})})
	_, err := r.Resolve("x=${arr}")
	if !xerrors.Is(err, xerrors.ErrLayoutInvalid) {
		t.Fatalf("expected LayoutInvalid for non-scalar embed, got %v", err)
	}
}

func TestResolveNoReferencePassesThrough(t *testing.T) {
	r := New(nil)
	v, err := r.Resolve("plain text")
	if err != nil || v.Str != "plain text" {
		t.Fatalf("expected passthrough, got %+v err=%v", v, err)
	}
}
