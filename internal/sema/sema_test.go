package sema

import (
	"os"
	"testing"

	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
	"github.com/AdaDoom3/Ada83-sub004/internal/parser"
	"github.com/AdaDoom3/Ada83-sub004/internal/symtab"
	"github.com/AdaDoom3/Ada83-sub004/internal/types"
)

func parseUnit(t *testing.T, src string) (*ast.CompilationUnit, *diag.Reporter) {
	t.Helper()
	a := arena.New(1 << 16)
	rep := diag.NewReporter(os.Stderr)
	p := parser.New("t.adb", []byte(src), a, rep)
	return p.ParseCompilationUnit(), rep
}

func resolveUnit(t *testing.T, src string, loader UnitLoader) (*ast.CompilationUnit, *Resolver, *diag.Reporter) {
	t.Helper()
	cu, rep := parseUnit(t, src)
	if rep.HasErrors() {
		t.Fatalf("parse errors: %v", rep.Diagnostics())
	}
	a := arena.New(1 << 16)
	r := NewResolver(a, rep, loader)
	r.ResolveCompilationUnit(cu)
	return cu, r, rep
}

func TestResolveObjectDeclFreezesItsType(t *testing.T) {
	src := `
procedure P is
   X : INTEGER := 1;
begin
   X := X + 1;
end P;
`
	cu, _, rep := resolveUnit(t, src, nil)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
	body := cu.Unit.(*ast.SubprogramBody)
	decl := body.Decls[0].(*ast.ObjectDecl)
	sym := decl.Symbols[0].(*symtab.Symbol)
	if !sym.Type.IsFrozen() {
		t.Fatalf("object declaration should freeze its type")
	}
}

func TestConstraintErrorIsPredefinedAndRegistered(t *testing.T) {
	src := `
procedure P is
begin
   null;
exception
   when CONSTRAINT_ERROR =>
      null;
end P;
`
	_, r, rep := resolveUnit(t, src, nil)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
	found := false
	for _, exc := range r.Exceptions() {
		if exc == symtab.ConstraintError {
			found = true
		}
	}
	if !found {
		t.Fatalf("CONSTRAINT_ERROR should be registered in the resolver's exception list")
	}
}

func TestTwoPhaseForwardReference(t *testing.T) {
	// Is_Even calls Is_Odd, which is declared after it in the same
	// declarative part; this only resolves if preDeclare ran first.
	src := `
procedure P is
   function Is_Even(N : INTEGER) return BOOLEAN is
   begin
      return Is_Odd(N);
   end Is_Even;

   function Is_Odd(N : INTEGER) return BOOLEAN is
   begin
      return Is_Even(N);
   end Is_Odd;
begin
   null;
end P;
`
	_, _, rep := resolveUnit(t, src, nil)
	if rep.HasErrors() {
		t.Fatalf("forward reference should resolve without error: %v", rep.Diagnostics())
	}
}

func TestPackageDeclaredLaterIsForwardVisible(t *testing.T) {
	src := `
procedure P is
   X : INTEGER := Inner.Y;

   package Inner is
      Y : INTEGER;
   end Inner;
begin
   null;
end P;
`
	_, _, rep := resolveUnit(t, src, nil)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
}

type stubLoader struct {
	units map[string]*ast.CompilationUnit
}

func (s *stubLoader) Load(name string) (*ast.CompilationUnit, bool) {
	cu, ok := s.units[name]
	return cu, ok
}

func TestWithClauseResolvesViaLoader(t *testing.T) {
	pkgSrc := `
package Util is
   Max : INTEGER;
end Util;
`
	pkgCU, rep := parseUnit(t, pkgSrc)
	if rep.HasErrors() {
		t.Fatalf("unexpected parse errors in Util: %v", rep.Diagnostics())
	}
	loader := &stubLoader{units: map[string]*ast.CompilationUnit{"Util": pkgCU}}

	mainSrc := `
with Util;
procedure Main is
begin
   null;
end Main;
`
	cu, _, mainRep := resolveUnit(t, mainSrc, loader)
	if mainRep.HasErrors() {
		t.Fatalf("unexpected errors resolving Main: %v", mainRep.Diagnostics())
	}
	_ = cu
}

func TestMissingWithClauseReportsError(t *testing.T) {
	src := `
with Nonexistent;
procedure Main is
begin
   null;
end Main;
`
	_, _, rep := resolveUnit(t, src, &stubLoader{units: map[string]*ast.CompilationUnit{}})
	if rep.ErrorCount() != 1 {
		t.Fatalf("ErrorCount() = %d, want 1 for an unresolvable with-clause", rep.ErrorCount())
	}
}

func TestPragmaSuppressSetsCheckBit(t *testing.T) {
	src := `
procedure P is
   X : INTEGER := 1;
   pragma Suppress(Range_Check, X);
begin
   null;
end P;
`
	cu, _, rep := resolveUnit(t, src, nil)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
	body := cu.Unit.(*ast.SubprogramBody)
	decl := body.Decls[0].(*ast.ObjectDecl)
	sym := decl.Symbols[0].(*symtab.Symbol)
	if sym.SuppressedChecks&types.RangeCheck == 0 {
		t.Fatalf("pragma Suppress(Range_Check, X) should set X's RangeCheck bit")
	}
}

func TestPragmaImportIsAcceptedOnAForwardDeclaredSubprogram(t *testing.T) {
	src := `
procedure P is
   procedure C_Func;
   pragma Import(C, C_Func, "c_func");
begin
   null;
end P;
`
	_, _, rep := resolveUnit(t, src, nil)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
}

func TestUnresolvedNameRecoversWithPlaceholderType(t *testing.T) {
	src := `
procedure P is
begin
   Undeclared_Var := 1;
end P;
`
	_, _, rep := resolveUnit(t, src, nil)
	if rep.ErrorCount() != 1 {
		t.Fatalf("ErrorCount() = %d, want 1 for a single undefined reference", rep.ErrorCount())
	}
}

func TestConstrainedSubtypeSynthesisFromApply(t *testing.T) {
	src := `
procedure P is
   type Arr is array (INTEGER) of INTEGER;
   A : Arr(1 .. 10);
begin
   null;
end P;
`
	cu, _, rep := resolveUnit(t, src, nil)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
	body := cu.Unit.(*ast.SubprogramBody)
	decl := body.Decls[1].(*ast.ObjectDecl)
	sym := decl.Symbols[0].(*symtab.Symbol)
	if sym.Type == nil || sym.Type.Kind != types.ArrayKind {
		t.Fatalf("A's type should be a synthesized constrained array, got %+v", sym.Type)
	}
	if len(sym.Type.Indices) != 1 {
		t.Fatalf("synthesized array should carry one index constraint, got %d", len(sym.Type.Indices))
	}
}
