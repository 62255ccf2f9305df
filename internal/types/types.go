// Package types implements the Type_Info variant of spec.md 3 ("Type")
// and the freeze-state machine of spec.md 4.G. It generalizes the
// kind-discriminated struct in lang/yparse/types.go (Type.Kind, Size,
// Alignment, Equal) from wut4's four machine types to the nineteen
// kinds below (besides Unknown) and adds the freeze machinery the teacher never
// needed (wut4 types are fully known at parse time; Ada types gain
// bounds and representation incrementally and are only fully known at
// a freeze point).
package types

// Kind discriminates a Type.
type Kind int

const (
	Unknown Kind = iota
	BooleanKind
	CharacterKind
	IntegerKind
	ModularKind
	EnumerationKind
	FloatKind
	FixedKind
	ArrayKind
	RecordKind
	StringKind
	AccessKind
	UniversalIntegerKind
	UniversalRealKind
	TaskKind
	SubprogramKind
	PrivateKind
	LimitedPrivateKind
	IncompleteKind
	PackageKind
)

// FreezeState tracks how much of a type's representation is settled,
// spec.md 4.G's incomplete -> fleshed -> frozen progression.
type FreezeState int

const (
	StateIncomplete FreezeState = iota
	StateFleshed
	StateFrozen
)

// Bound is a scalar bound: a literal integer/float value or a
// deferred expression (e.g. a discriminant-dependent bound), spec.md
// 3's "(int|float|expr)" tagged union.
type Bound struct {
	HasInt   bool
	Int      int64
	HasFloat bool
	Float    float64
	Expr     any // an ast.Expr, boxed to avoid an import cycle; set when neither literal is known yet
}

// IntBound returns a literal-integer Bound.
func IntBound(v int64) Bound { return Bound{HasInt: true, Int: v} }

// FloatBound returns a literal-float Bound.
func FloatBound(v float64) Bound { return Bound{HasFloat: true, Float: v} }

// Component is one record field: name, type, and byte offset (computed
// when sema resolves the record type definition, from each component
// type's size and alignment).
type Component struct {
	Name   string
	Type   *Type
	Offset int
}

// Type is the tagged-variant Type_Info of spec.md 3.
type Type struct {
	Kind Kind
	Name string

	Size      int // bytes, never bits (spec.md 3's global invariant)
	Alignment int // bytes

	DefiningSymbol any // *symtab.Symbol, boxed to avoid an import cycle

	BaseType   *Type // subtype -> base
	ParentType *Type // derived -> parent

	LowBound  Bound
	HighBound Bound
	Modulus   uint64

	// Array
	ElemType *Type
	Indices  []*Type // one index type per dimension

	// Record
	Components []Component

	// Access
	Designated *Type

	SuppressedChecks uint32
	IsPacked         bool

	state            FreezeState
	EqualityFuncName string
}

const (
	RangeCheck    uint32 = 1
	OverflowCheck uint32 = 2
	IndexCheck    uint32 = 4
	LengthCheck   uint32 = 8
	AllChecks     uint32 = 0xFFFFFFFF
)

// IsFrozen reports whether Freeze has already settled this type.
func (t *Type) IsFrozen() bool { return t.state == StateFrozen }

// Freezer collects frozen composite (record/array/string) types in
// freeze order so codegen can emit one equality function per type, per
// spec.md 4.G ("every composite type is added to a global ordered
// list"). Capped at 256 per spec.md 5's resource-model note. Each
// sema.Resolver owns its own Freezer, so the list is per compilation
// unit rather than process-global.
type Freezer struct {
	composites []*Type
	registered map[*Type]bool
}

func NewFreezer() *Freezer { return &Freezer{} }

const maxFrozenComposites = 256

// Freeze settles t's representation. Idempotent: a type already
// frozen is returned unchanged. Access types do NOT freeze their
// designated subtype (RM 13.14) — otherwise two mutually recursive
// access-to-record types would deadlock each trying to freeze the
// other first.
func (f *Freezer) Freeze(t *Type) {
	if t == nil {
		return
	}
	if t.Kind == StringKind {
		// STRING itself is a package-level singleton frozen at Go
		// init time, before any Freezer exists, so its representation
		// never needs settling here — but it still needs an implicit
		// equality function registered with THIS freezer so codegen
		// emits one into THIS compilation's output.
		f.registerComposite(t)
	}
	if t.IsFrozen() {
		return
	}
	t.state = StateFrozen

	if t.BaseType != nil {
		f.Freeze(t.BaseType)
	}
	if t.ParentType != nil {
		f.Freeze(t.ParentType)
	}

	switch t.Kind {
	case ArrayKind:
		f.Freeze(t.ElemType)
		for _, idx := range t.Indices {
			f.Freeze(idx)
		}
		f.registerComposite(t)
	case StringKind:
		f.Freeze(t.ElemType)
		for _, idx := range t.Indices {
			f.Freeze(idx)
		}
		f.registerComposite(t)
	case RecordKind:
		for i := range t.Components {
			f.Freeze(t.Components[i].Type)
		}
		f.registerComposite(t)
	case AccessKind:
		// Deliberately does not freeze t.Designated: RM 13.14.
	}
}

// registerComposite assigns t an implicit equality function name (once
// ever, across all compilations sharing a process) and adds t to this
// freezer's emission list (once per Freezer instance, even if t's name
// was assigned by an earlier one) so every compilation unit's output
// defines the functions it calls.
func (f *Freezer) registerComposite(t *Type) {
	if f.registered == nil {
		f.registered = map[*Type]bool{}
	}
	if f.registered[t] {
		return
	}
	if len(f.composites) >= maxFrozenComposites {
		return
	}
	f.registered[t] = true
	if t.EqualityFuncName == "" {
		t.EqualityFuncName = mangleEqualityName(t.Name, len(f.composites))
	}
	f.composites = append(f.composites, t)
}

func mangleEqualityName(typeName string, ordinal int) string {
	if typeName == "" {
		typeName = "anon"
	}
	return "_ada_eq_" + typeName + "_" + itoa(ordinal)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Composites returns the frozen composite types in freeze order.
func (f *Freezer) Composites() []*Type { return f.composites }

// Base walks the BaseType chain to the ultimate base type, spec.md
// 4.G's "Type_Base walks base_type chain".
func Base(t *Type) *Type {
	for t.BaseType != nil {
		t = t.BaseType
	}
	return t
}

// Compatible implements spec.md 4.G's type compatibility rules.
func Compatible(a, b *Type) bool {
	if a == nil || b == nil {
		return true // permissive for unknown, per spec.md
	}
	if a == b {
		return true
	}
	if a.Kind == UniversalIntegerKind && IsDiscrete(b) {
		return true
	}
	if b.Kind == UniversalIntegerKind && IsDiscrete(a) {
		return true
	}
	if a.Kind == UniversalRealKind && IsReal(b) {
		return true
	}
	if b.Kind == UniversalRealKind && IsReal(a) {
		return true
	}
	aArrayLike := a.Kind == ArrayKind || a.Kind == StringKind
	bArrayLike := b.Kind == ArrayKind || b.Kind == StringKind
	if aArrayLike && bArrayLike {
		if a.Kind == StringKind || b.Kind == StringKind {
			return true
		}
		return Compatible(a.ElemType, b.ElemType)
	}
	if a.Kind == Unknown || b.Kind == Unknown {
		return true
	}
	return Base(a) == Base(b)
}

// IsDiscrete reports whether t is an integer, modular, enumeration,
// character, or boolean type.
func IsDiscrete(t *Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case IntegerKind, ModularKind, EnumerationKind, CharacterKind, BooleanKind, UniversalIntegerKind:
		return true
	}
	return false
}

// IsReal reports whether t is a float or fixed-point type.
func IsReal(t *Type) bool {
	if t == nil {
		return false
	}
	return t.Kind == FloatKind || t.Kind == FixedKind || t.Kind == UniversalRealKind
}

// IsNumeric reports whether t is discrete or real.
func IsNumeric(t *Type) bool { return IsDiscrete(t) || IsReal(t) }

// Predefined environment, spec.md 4.H.
var (
	Boolean = &Type{Kind: BooleanKind, Name: "BOOLEAN", Size: 1, Alignment: 1, state: StateFrozen}
	Character = &Type{Kind: CharacterKind, Name: "CHARACTER", Size: 1, Alignment: 1, state: StateFrozen}
	Integer = &Type{
		Kind: IntegerKind, Name: "INTEGER", Size: 4, Alignment: 4,
		LowBound: IntBound(-2147483648), HighBound: IntBound(2147483647), state: StateFrozen,
	}
	Float = &Type{Kind: FloatKind, Name: "FLOAT", Size: 8, Alignment: 8, state: StateFrozen}
	UniversalInteger = &Type{Kind: UniversalIntegerKind, Name: "universal_integer", Size: 8, Alignment: 8, state: StateFrozen}
	UniversalReal    = &Type{Kind: UniversalRealKind, Name: "universal_real", Size: 8, Alignment: 8, state: StateFrozen}
)

// String is the unconstrained array of CHARACTER, represented as a
// 16-byte fat pointer (data pointer + low/high bound), spec.md 4.H.
var String = &Type{
	Kind: StringKind, Name: "STRING", Size: 16, Alignment: 8,
	ElemType: Character, state: StateFrozen,
}
