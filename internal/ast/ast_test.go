package ast

import (
	"testing"

	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
)

func TestApplyExprIsUnifiedNode(t *testing.T) {
	// spec.md's AST invariant: every apply node carries a prefix and an
	// association list regardless of what it will later resolve to
	// (call, index, slice, conversion).
	loc := diag.Location{File: "t.ads", Line: 1, Column: 1}
	prefix := &IdentExpr{baseExpr: baseExpr{base: base{Loc: loc}}, Name: "Foo"}
	arg := &Association{base: base{Loc: loc}, Value: &IntegerLitExpr{baseExpr: baseExpr{base: base{Loc: loc}}, Value: 1}}
	apply := &ApplyExpr{baseExpr: baseExpr{base: base{Loc: loc}}, Prefix: prefix, Args: []*Association{arg}}

	var e Expr = apply
	if e.Location() != loc {
		t.Fatalf("Location() = %+v, want %+v", e.Location(), loc)
	}
	if len(apply.Args) != 1 || len(apply.Args[0].Choices) != 0 {
		t.Fatalf("expected one positional association, got %+v", apply.Args)
	}
}

func TestExprTypeRoundTrips(t *testing.T) {
	var e Expr = &IdentExpr{Name: "X"}
	if e.ExprType() != nil {
		t.Fatalf("ExprType() initial = %v, want nil", e.ExprType())
	}
	e.SetExprType("INTEGER")
	if e.ExprType() != "INTEGER" {
		t.Fatalf("ExprType() after SetExprType = %v, want INTEGER", e.ExprType())
	}
}

func TestAssociationChoicesEmptyIffPositional(t *testing.T) {
	positional := &Association{Value: &IdentExpr{Name: "X"}}
	named := &Association{Choices: []Expr{&IdentExpr{Name: "Field"}}, Value: &IdentExpr{Name: "X"}}
	if len(positional.Choices) != 0 {
		t.Fatalf("positional association should have no choices")
	}
	if len(named.Choices) == 0 {
		t.Fatalf("named association should have choices")
	}
}
