package codegen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
	"github.com/AdaDoom3/Ada83-sub004/internal/symtab"
	"github.com/AdaDoom3/Ada83-sub004/internal/types"
)

func TestSymbolOrdinalDiffersAcrossFiles(t *testing.T) {
	a := &symtab.Symbol{Name: "X", Loc: diag.Location{File: "a.ads", Line: 3, Column: 5}}
	b := &symtab.Symbol{Name: "X", Loc: diag.Location{File: "b.ads", Line: 3, Column: 5}}
	if symbolOrdinal(a) == symbolOrdinal(b) {
		t.Fatalf("symbols at the same line/column in different files must not share an ordinal")
	}
	if mangle(symbolName(a), symbolOrdinal(a)) == mangle(symbolName(b), symbolOrdinal(b)) {
		t.Fatalf("mangled names must differ across with'd files")
	}
}

func TestConstraintErrorIdentityFoundWhenRegistered(t *testing.T) {
	e := NewEmitter(&bytes.Buffer{}, types.NewFreezer(), []*symtab.Symbol{symtab.ConstraintError})
	ident, ok := e.constraintErrorIdentity()
	if !ok {
		t.Fatalf("expected CONSTRAINT_ERROR identity to be found")
	}
	if !strings.HasPrefix(ident, "@__exc.") {
		t.Fatalf("ident = %q, want @__exc. prefix", ident)
	}
}

func TestConstraintErrorIdentityMissingWithoutRegistration(t *testing.T) {
	e := NewEmitter(&bytes.Buffer{}, types.NewFreezer(), nil)
	if _, ok := e.constraintErrorIdentity(); ok {
		t.Fatalf("expected no identity when CONSTRAINT_ERROR was never registered")
	}
}

func TestEmitStringEqualityEmitsMemcmpOnEqualLength(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf, types.NewFreezer(), nil)
	str := &types.Type{Kind: types.StringKind, Name: "STRING", EqualityFuncName: "_ada_eq_STRING_0"}
	e.emitOneEqualityFunction(str)
	e.Flush()
	out := buf.String()
	if !strings.Contains(out, "@memcmp") {
		t.Fatalf("STRING equality should compare bytes via memcmp, got:\n%s", out)
	}
	if !strings.Contains(out, "extractvalue") {
		t.Fatalf("STRING equality should unpack the fat pointer via extractvalue, got:\n%s", out)
	}
}
