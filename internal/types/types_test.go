package types

import "testing"

func TestFreezeIsIdempotent(t *testing.T) {
	f := NewFreezer()
	ty := &Type{Kind: IntegerKind, Name: "My_Int"}
	f.Freeze(ty)
	if !ty.IsFrozen() {
		t.Fatalf("expected frozen after first Freeze")
	}
	f.Freeze(ty) // must not panic or double-register
	if len(f.Composites()) != 0 {
		t.Fatalf("scalar type should not be registered as composite")
	}
}

func TestFreezeDoesNotFreezeAccessDesignated(t *testing.T) {
	// RM 13.14: mutually recursive access-to-record must not deadlock.
	rec := &Type{Kind: RecordKind, Name: "Node"}
	acc := &Type{Kind: AccessKind, Name: "Node_Ptr", Designated: rec}
	rec.Components = []Component{{Name: "Next", Type: acc}}

	f := NewFreezer()
	f.Freeze(acc)
	if !acc.IsFrozen() {
		t.Fatalf("access type should be frozen")
	}
	if rec.IsFrozen() {
		t.Fatalf("designated subtype must NOT be frozen when its access type freezes (RM 13.14)")
	}
}

func TestFreezeRegistersCompositesInOrder(t *testing.T) {
	f := NewFreezer()
	r1 := &Type{Kind: RecordKind, Name: "A"}
	r2 := &Type{Kind: RecordKind, Name: "B"}
	f.Freeze(r1)
	f.Freeze(r2)
	comps := f.Composites()
	if len(comps) != 2 || comps[0] != r1 || comps[1] != r2 {
		t.Fatalf("Composites() = %v, want [r1, r2] in freeze order", comps)
	}
	if r1.EqualityFuncName != "_ada_eq_A_0" {
		t.Errorf("EqualityFuncName = %q, want _ada_eq_A_0", r1.EqualityFuncName)
	}
	if r2.EqualityFuncName != "_ada_eq_B_1" {
		t.Errorf("EqualityFuncName = %q, want _ada_eq_B_1", r2.EqualityFuncName)
	}
}

func TestCompatibleUniversalIntegerWithAnyDiscrete(t *testing.T) {
	myEnum := &Type{Kind: EnumerationKind, Name: "Color"}
	if !Compatible(UniversalInteger, myEnum) {
		t.Fatalf("universal_integer should be compatible with any discrete type")
	}
}

func TestCompatibleStringArrays(t *testing.T) {
	other := &Type{Kind: ArrayKind, Name: "Line", ElemType: Character}
	if !Compatible(String, other) {
		t.Fatalf("STRING should be compatible with any character array")
	}
}

func TestFreezeRegistersPredefinedStringPerFreezer(t *testing.T) {
	f1 := NewFreezer()
	f1.Freeze(String)
	found := false
	for _, c := range f1.Composites() {
		if c == String {
			found = true
		}
	}
	if !found {
		t.Fatalf("predefined STRING singleton must be registered with a fresh Freezer, even though it is already frozen")
	}
	if String.EqualityFuncName == "" {
		t.Fatalf("STRING should have an equality function name assigned")
	}

	// A second, independent compilation's Freezer must register it too,
	// so that compilation's own output defines the equality function it
	// calls — not just reuse the name from f1's registration.
	f2 := NewFreezer()
	f2.Freeze(String)
	found = false
	for _, c := range f2.Composites() {
		if c == String {
			found = true
		}
	}
	if !found {
		t.Fatalf("a second Freezer must also register the predefined STRING singleton")
	}
}

func TestFreezeRegistersUserStringKindType(t *testing.T) {
	f := NewFreezer()
	sub := &Type{Kind: StringKind, Name: "LINE_10", ElemType: Character}
	f.Freeze(sub)
	if !sub.IsFrozen() {
		t.Fatalf("expected STRING subtype to be frozen")
	}
	if sub.EqualityFuncName == "" {
		t.Fatalf("expected STRING subtype to get an equality function name")
	}
	comps := f.Composites()
	if len(comps) != 1 || comps[0] != sub {
		t.Fatalf("Composites() = %v, want [sub]", comps)
	}
}

func TestCompatibleSameBase(t *testing.T) {
	sub := &Type{Kind: IntegerKind, Name: "Small_Int", BaseType: Integer}
	if !Compatible(sub, Integer) {
		t.Fatalf("a subtype should be compatible with its base type")
	}
}

func TestBaseWalksChain(t *testing.T) {
	sub := &Type{Kind: IntegerKind, Name: "Sub", BaseType: Integer}
	if Base(sub) != Integer {
		t.Fatalf("Base(sub) = %v, want Integer", Base(sub))
	}
	if Base(Integer) != Integer {
		t.Fatalf("Base(Integer) should be itself")
	}
}
