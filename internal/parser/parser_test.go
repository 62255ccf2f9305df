package parser

import (
	"os"
	"testing"

	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
)

func parseSource(t *testing.T, src string) (*ast.CompilationUnit, *diag.Reporter) {
	t.Helper()
	a := arena.New(1 << 16)
	rep := diag.NewReporter(os.Stderr)
	p := New("t.adb", []byte(src), a, rep)
	return p.ParseCompilationUnit(), rep
}

func TestParseMinimalProcedureBody(t *testing.T) {
	src := `
procedure Greet is
   X : INTEGER := 1;
begin
   X := X + 1;
end Greet;
`
	cu, rep := parseSource(t, src)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
	body, ok := cu.Unit.(*ast.SubprogramBody)
	if !ok {
		t.Fatalf("Unit = %T, want *ast.SubprogramBody", cu.Unit)
	}
	if body.Spec.Name != "Greet" {
		t.Fatalf("Name = %q, want Greet", body.Spec.Name)
	}
	if len(body.Decls) != 1 {
		t.Fatalf("Decls = %v, want 1 object decl", body.Decls)
	}
	if len(body.Stmts) != 1 {
		t.Fatalf("Stmts = %v, want 1 assignment", body.Stmts)
	}
	if _, ok := body.Stmts[0].(*ast.AssignStmt); !ok {
		t.Fatalf("Stmts[0] = %T, want *ast.AssignStmt", body.Stmts[0])
	}
}

func TestParseIfAndLoop(t *testing.T) {
	src := `
procedure P is
begin
   if X > 0 then
      Y := 1;
   elsif X = 0 then
      Y := 0;
   else
      Y := -1;
   end if;
   for I in 1 .. 10 loop
      Put(I);
   end loop;
end P;
`
	cu, rep := parseSource(t, src)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
	body := cu.Unit.(*ast.SubprogramBody)
	if len(body.Stmts) != 2 {
		t.Fatalf("Stmts = %v, want [if, loop]", body.Stmts)
	}
	ifStmt, ok := body.Stmts[0].(*ast.IfStmt)
	if !ok || len(ifStmt.Elsifs) != 1 {
		t.Fatalf("if statement shape = %+v", body.Stmts[0])
	}
	loopStmt, ok := body.Stmts[1].(*ast.LoopStmt)
	if !ok {
		t.Fatalf("Stmts[1] = %T, want *ast.LoopStmt", body.Stmts[1])
	}
	if _, ok := loopStmt.Scheme.(*ast.ForScheme); !ok {
		t.Fatalf("Scheme = %T, want *ast.ForScheme", loopStmt.Scheme)
	}
}

func TestParseWithClause(t *testing.T) {
	src := `
with Ada_IO;
procedure Main is
begin
   null;
end Main;
`
	cu, rep := parseSource(t, src)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
	if len(cu.Context.WithClauses) != 1 || cu.Context.WithClauses[0].Names[0] != "Ada_IO" {
		t.Fatalf("WithClauses = %+v", cu.Context.WithClauses)
	}
}

func TestParseAggregateVsParenExpr(t *testing.T) {
	src := `
procedure P is
   A : INTEGER := (1 + 2);
   B : MY_ARR := (1, 2, 3);
begin
   null;
end P;
`
	cu, rep := parseSource(t, src)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
	body := cu.Unit.(*ast.SubprogramBody)
	a := body.Decls[0].(*ast.ObjectDecl)
	if _, ok := a.Init.(*ast.BinaryExpr); !ok {
		t.Fatalf("(1 + 2) should parse as a parenthesized expression, got %T", a.Init)
	}
	b := body.Decls[1].(*ast.ObjectDecl)
	agg, ok := b.Init.(*ast.AggregateExpr)
	if !ok || len(agg.Associations) != 3 {
		t.Fatalf("(1, 2, 3) should parse as a 3-element aggregate, got %T", b.Init)
	}
}

func TestParseExceptionHandler(t *testing.T) {
	src := `
procedure P is
begin
   null;
exception
   when Constraint_Error =>
      null;
   when others =>
      null;
end P;
`
	cu, rep := parseSource(t, src)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
	body := cu.Unit.(*ast.SubprogramBody)
	if len(body.Handlers) != 2 {
		t.Fatalf("Handlers = %v, want 2", body.Handlers)
	}
	if !body.Handlers[1].Others {
		t.Fatalf("second handler should be 'when others'")
	}
}

func TestEndNameMismatchIsNonFatalError(t *testing.T) {
	src := `
procedure P is
begin
   null;
end Q;
`
	_, rep := parseSource(t, src)
	if rep.ErrorCount() != 1 {
		t.Fatalf("ErrorCount() = %d, want 1 for end-name mismatch", rep.ErrorCount())
	}
}

func TestAndThenParsesAsSingleLogicalOp(t *testing.T) {
	src := `
procedure P is
begin
   if A and then B then
      null;
   end if;
end P;
`
	cu, rep := parseSource(t, src)
	if rep.HasErrors() {
		t.Fatalf("unexpected errors: %v", rep.Diagnostics())
	}
	body := cu.Unit.(*ast.SubprogramBody)
	ifStmt := body.Stmts[0].(*ast.IfStmt)
	bin, ok := ifStmt.Cond.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.OpAndThen {
		t.Fatalf("Cond = %+v, want a single OpAndThen BinaryExpr", ifStmt.Cond)
	}
}
