// Package symtab implements the scope tree and symbol storage of
// spec.md 4.H: hashed buckets plus a parallel linear list per scope,
// overload chains for subprograms, and frame-offset bookkeeping for
// static links. Grounded on lang/yparse/symtab.go's SymbolTable/
// FuncScope (AddLocal's frame_offset bookkeeping, alignUp/alignDown)
// generalized from wut4's flat global-plus-one-function-scope model to
// Ada's arbitrarily nested package/subprogram scope tree.
package symtab

import (
	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
	"github.com/AdaDoom3/Ada83-sub004/internal/strs"
	"github.com/AdaDoom3/Ada83-sub004/internal/types"
)

// Kind discriminates what a Symbol names.
type Kind int

const (
	SymVariable Kind = iota
	SymConstant
	SymParameter
	SymType
	SymSubtype
	SymException
	SymProcedure
	SymFunction
	SymPackage
	SymEnumLiteral
	SymLabel
)

// Visibility records how a symbol is visible: declared directly, or
// brought in by a use clause. Lookup and LookupLocal do not filter on it.
type Visibility int

const (
	NotVisible Visibility = iota
	UseVisible
	ImmediatelyVisible
)

// Convention is the calling convention recorded by a pragma Import/
// Export/Convention (spec.md 4.I's pragma table).
type Convention int

const (
	ConventionAda Convention = iota
	ConventionC
	ConventionStdcall
	ConventionIntrinsic
	ConventionAssembler
)

// Symbol is one named entity: a variable, subprogram, type, etc.
type Symbol struct {
	Name       string
	Kind       Kind
	Type       *types.Type
	Loc        diag.Location
	Visibility Visibility

	// Overload chain: subprograms sharing a name in the same scope link
	// here instead of shadowing, per spec.md 4.H.
	NextOverload *Symbol

	// Frame layout, filled in as the symbol is added to a FuncScope.
	FrameOffset int

	// Subprogram-specific.
	Params     []*Symbol
	ReturnType *types.Type
	IsInline   bool

	// Pragma-driven attributes (spec.md 4.I's pragma table).
	IsImported       bool
	IsExported       bool
	Convention       Convention
	ExternalName     string
	IsUnreferenced   bool
	SuppressedChecks uint32 // pragma Suppress(check, entity) target, spec.md 4.I

	// Package-specific: the scope holding its visible declarations.
	PackageScope *Scope

	// Exception-specific: identity constants are materialized by
	// codegen from the compiler-wide exception list (spec.md 4.I).
	IsException bool
}

const bucketCount = 1024

type bucket struct {
	hash uint64
	sym  *Symbol
	next *bucket
}

// Scope is one node of the scope tree: a hashed lookup table plus a
// parallel linear list (declaration order, for frame-offset replay)
// and a frame-size counter for static-link GEPs.
type Scope struct {
	Parent *Scope
	buckets [bucketCount]*bucket
	Order   []*Symbol // declaration order, for static-link replay

	FrameSize int // grows as variables/parameters are added (spec.md 4.H)
}

// NewScope creates a scope nested under parent (nil for the top-level
// predefined environment scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{Parent: parent}
}

func bucketIndex(h uint64) int { return int(h % bucketCount) }

// Add inserts sym into s. If a subprogram with the same (case-folded)
// name already exists in this scope, sym is linked onto its overload
// chain instead of shadowing it; any other same-name-same-scope
// collision is reported as a redefinition error via rep (spec.md 4.H
// notes this is "not enforced rigorously in the reference" but we
// implement it fully per the Open Question decision in DESIGN.md).
func (s *Scope) Add(sym *Symbol, rep *diag.Reporter) {
	h := strs.Slice(sym.Name).Hash()
	idx := bucketIndex(h)
	for b := s.buckets[idx]; b != nil; b = b.next {
		if b.hash != h {
			continue
		}
		if !strs.EqualFold(strs.Slice(b.sym.Name), strs.Slice(sym.Name)) {
			continue
		}
		if isSubprogram(b.sym.Kind) && isSubprogram(sym.Kind) {
			last := b.sym
			for last.NextOverload != nil {
				last = last.NextOverload
			}
			last.NextOverload = sym
			s.Order = append(s.Order, sym)
			return
		}
		if rep != nil {
			rep.Report(sym.Loc, "redefinition of %q (previously declared at %s)", sym.Name, b.sym.Loc)
		}
		return
	}
	s.buckets[idx] = &bucket{hash: h, sym: sym, next: s.buckets[idx]}
	s.Order = append(s.Order, sym)
}

func isSubprogram(k Kind) bool { return k == SymProcedure || k == SymFunction }

// Lookup searches s and its ancestors for the first symbol named name
// (case-insensitively), per spec.md 4.H's Symbol_Find. The symbol's
// Visibility is not consulted: a UseVisible or NotVisible symbol
// matches like an ImmediatelyVisible one.
func (s *Scope) Lookup(name string) *Symbol {
	h := strs.Slice(name).Hash()
	idx := bucketIndex(h)
	for scope := s; scope != nil; scope = scope.Parent {
		for b := scope.buckets[idx]; b != nil; b = b.next {
			if b.hash != h {
				continue
			}
			if strs.EqualFold(strs.Slice(b.sym.Name), strs.Slice(name)) {
				return b.sym
			}
		}
	}
	return nil
}

// LookupLocal searches only s itself, not its ancestors.
func (s *Scope) LookupLocal(name string) *Symbol {
	h := strs.Slice(name).Hash()
	idx := bucketIndex(h)
	for b := s.buckets[idx]; b != nil; b = b.next {
		if b.hash == h && strs.EqualFold(strs.Slice(b.sym.Name), strs.Slice(name)) {
			return b.sym
		}
	}
	return nil
}

func alignUp(n, align int) int {
	if align <= 0 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

// AddVariable adds a variable or parameter symbol to s and assigns it
// a frame offset: s.FrameSize is first rounded up to the type's
// alignment (8 if unknown), frame_offset = s.FrameSize, then
// s.FrameSize += sizeof(type) (or 8 if the type is not yet sized),
// per spec.md 4.H.
func (s *Scope) AddVariable(sym *Symbol, rep *diag.Reporter) {
	size := 8
	if sym.Type != nil && sym.Type.Size > 0 {
		size = sym.Type.Size
	}
	align := 8
	if sym.Type != nil && sym.Type.Alignment > 0 {
		align = sym.Type.Alignment
	}
	s.FrameSize = alignUp(s.FrameSize, align)
	sym.FrameOffset = s.FrameSize
	s.FrameSize += size
	s.Add(sym, rep)
}

// ConstraintError is the predefined exception raised by the checked
// arithmetic codegen emits (overflow and division by zero, spec.md
// 4.I.k); codegen emits no subtype-range or array-index checks. It is a package-level singleton rather than an
// arena-allocated symbol for the same reason the predefined types in
// internal/types are: it must exist before any per-compilation Arena
// does, and every compilation unit needs the identical symbol pointer
// so runtime-raised errors and `when CONSTRAINT_ERROR =>` handlers
// agree on the same exception identity.
var ConstraintError = &Symbol{Name: "CONSTRAINT_ERROR", Kind: SymException, Visibility: ImmediatelyVisible, IsException: true}

// PredefinedEnvironment builds the top-level scope containing BOOLEAN,
// INTEGER, FLOAT, CHARACTER, STRING, the universal types, the
// enumeration literals FALSE/TRUE, and the predefined CONSTRAINT_ERROR
// exception, per spec.md 4.H. The symbols it allocates fresh are
// carved from a, the same arena backing the rest of the unit being
// resolved, so this scope's lifetime matches every other symbol's.
func PredefinedEnvironment(a *arena.Arena) *Scope {
	env := NewScope(nil)
	add := func(name string, k Kind, t *types.Type) {
		env.Add(arena.Make(a, Symbol{Name: name, Kind: k, Type: t, Visibility: ImmediatelyVisible}), nil)
	}
	add("BOOLEAN", SymType, types.Boolean)
	add("INTEGER", SymType, types.Integer)
	add("FLOAT", SymType, types.Float)
	add("CHARACTER", SymType, types.Character)
	add("STRING", SymType, types.String)
	add("UNIVERSAL_INTEGER", SymType, types.UniversalInteger)
	add("UNIVERSAL_REAL", SymType, types.UniversalReal)

	falseSym := arena.Make(a, Symbol{Name: "FALSE", Kind: SymEnumLiteral, Type: types.Boolean, Visibility: ImmediatelyVisible})
	trueSym := arena.Make(a, Symbol{Name: "TRUE", Kind: SymEnumLiteral, Type: types.Boolean, Visibility: ImmediatelyVisible})
	env.Add(falseSym, nil)
	env.Add(trueSym, nil)
	env.Add(ConstraintError, nil)
	return env
}
