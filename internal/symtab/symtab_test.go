package symtab

import (
	"os"
	"testing"

	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
	"github.com/AdaDoom3/Ada83-sub004/internal/types"
)

func TestLookupWalksParentChain(t *testing.T) {
	outer := PredefinedEnvironment(arena.New(4096))
	inner := NewScope(outer)
	sym := &Symbol{Name: "X", Kind: SymVariable, Type: types.Integer, Visibility: ImmediatelyVisible}
	inner.Add(sym, nil)

	if inner.Lookup("INTEGER") == nil {
		t.Fatalf("expected to find predefined INTEGER through parent chain")
	}
	if outer.Lookup("X") != nil {
		t.Fatalf("outer scope should not see inner's local X")
	}
	if inner.Lookup("x") != sym {
		t.Fatalf("Lookup should be case-insensitive")
	}
}

func TestOverloadChainForSubprograms(t *testing.T) {
	s := NewScope(nil)
	rep := diag.NewReporter(os.Stderr)
	f1 := &Symbol{Name: "Foo", Kind: SymFunction}
	f2 := &Symbol{Name: "FOO", Kind: SymFunction}
	s.Add(f1, rep)
	s.Add(f2, rep)

	found := s.Lookup("foo")
	if found != f1 {
		t.Fatalf("Lookup should return the first-declared overload")
	}
	if found.NextOverload != f2 {
		t.Fatalf("second same-name subprogram should link onto the overload chain")
	}
}

func TestRedefinitionOfNonSubprogramIsAnError(t *testing.T) {
	s := NewScope(nil)
	rep := diag.NewReporter(os.Stderr)
	s.Add(&Symbol{Name: "X", Kind: SymVariable}, rep)
	s.Add(&Symbol{Name: "X", Kind: SymVariable}, rep)
	if rep.ErrorCount() != 1 {
		t.Fatalf("ErrorCount() = %d, want 1 for a duplicate variable declaration", rep.ErrorCount())
	}
}

func TestAddVariableAssignsGrowingFrameOffsets(t *testing.T) {
	s := NewScope(nil)
	a := &Symbol{Name: "A", Kind: SymVariable, Type: types.Integer}
	b := &Symbol{Name: "B", Kind: SymVariable, Type: types.Integer}
	s.AddVariable(a, nil)
	s.AddVariable(b, nil)
	if a.FrameOffset != 0 {
		t.Errorf("a.FrameOffset = %d, want 0", a.FrameOffset)
	}
	if b.FrameOffset != 4 {
		t.Errorf("b.FrameOffset = %d, want 4 (sizeof INTEGER)", b.FrameOffset)
	}
	if s.FrameSize != 8 {
		t.Errorf("FrameSize = %d, want 8", s.FrameSize)
	}
}

func TestPredefinedEnvironmentHasBooleanLiterals(t *testing.T) {
	env := PredefinedEnvironment(arena.New(4096))
	if env.Lookup("TRUE") == nil || env.Lookup("FALSE") == nil {
		t.Fatalf("predefined environment must declare TRUE and FALSE")
	}
	if env.Lookup("STRING").Type.Kind != types.StringKind {
		t.Fatalf("STRING symbol should carry the STRING type")
	}
}
