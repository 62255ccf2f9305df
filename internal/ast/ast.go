// Package ast defines the tagged-variant abstract syntax tree produced
// by internal/parser (spec.md 3, "AST node"). It generalizes the
// marker-interface sum-type idiom in lang/yparse/ast.go (Decl/Stmt/Expr
// interfaces implemented by concrete structs with a no-op marker
// method) from wut4's small C-like node set to Ada 83's declarations,
// statements, expressions and type definitions.
package ast

import "github.com/AdaDoom3/Ada83-sub004/internal/diag"

// Node is implemented by every AST node; it carries the one field
// every node has per spec.md 3 ("Each node carries location, optional
// type, optional symbol").
type Node interface {
	Location() diag.Location
}

// Decl, Stmt and Expr are marker interfaces implemented by concrete
// node structs, mirroring lang/yparse/ast.go's Decl/Stmt/Expr trio.
type Decl interface {
	Node
	declNode()
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
	ExprType() any // *types.Type, boxed as any to avoid an import cycle with internal/types
	SetExprType(any)
}

// base carries the fields every node has.
type base struct {
	Loc diag.Location
}

func (b base) Location() diag.Location { return b.Loc }

// baseExpr adds the resolved-type and symbol slots every expression
// and name node accumulates during the semantic pass, matching
// lang/yparse/ast.go's baseExpr{ExprType *Type, Loc SourceLoc}.
type baseExpr struct {
	base
	Type   any
	Symbol any // *symtab.Symbol, boxed as any to avoid an import cycle
}

func (e *baseExpr) exprNode()          {}
func (e *baseExpr) ExprType() any      { return e.Type }
func (e *baseExpr) SetExprType(t any)  { e.Type = t }

// ---- Compilation unit -------------------------------------------------

type CompilationUnit struct {
	base
	Context *Context
	Unit    Decl // PackageSpec, PackageBody, ProcedureBody or FunctionBody
}

type Context struct {
	base
	WithClauses []*WithClause
	UseClauses  []*UseClause
}

type WithClause struct {
	base
	Names []string
	Pin   string // "name@semver" pin text for include-path ordering; the parser never sets it, so it is always empty
}

func (*WithClause) declNode() {}

type UseClause struct {
	base
	Names []string
}

func (*UseClause) declNode() {}

// ---- Declarations -------------------------------------------------

type ObjectDecl struct {
	base
	Names      []string
	TypeIndic  Expr // subtype_indication, parsed as a name/apply expression
	Constant   bool
	Init       Expr // optional
	Symbols    []any
}

func (*ObjectDecl) declNode() {}

type TypeDecl struct {
	base
	Name       string
	Definition TypeDef
	Symbol     any
}

func (*TypeDecl) declNode() {}

type SubtypeDecl struct {
	base
	Name      string
	TypeIndic Expr
	Symbol    any
}

func (*SubtypeDecl) declNode() {}

type ExceptionDecl struct {
	base
	Names   []string
	Symbols []any
}

func (*ExceptionDecl) declNode() {}

type ParamSpec struct {
	base
	Names     []string
	TypeIndic Expr
	Mode      ParamMode
	Default   Expr
}

func (*ParamSpec) declNode() {}

type ParamMode int

const (
	ModeIn ParamMode = iota
	ModeOut
	ModeInOut
)

type SubprogramSpec struct {
	base
	IsFunction bool
	Name       string
	Params     []*ParamSpec
	ReturnType Expr // nil for procedures
}

func (*SubprogramSpec) declNode() {}

type SubprogramBody struct {
	base
	Spec         *SubprogramSpec
	Decls        []Decl
	Stmts        []Stmt
	Handlers     []*ExceptionHandler
	EndName      string
	Symbol       any
}

func (*SubprogramBody) declNode() {}

type PackageSpec struct {
	base
	Name          string
	VisibleDecls  []Decl
	PrivateDecls  []Decl
	EndName       string
	Symbol        any
}

func (*PackageSpec) declNode() {}

type PackageBody struct {
	base
	Name    string
	Decls   []Decl
	Stmts   []Stmt
	Handlers []*ExceptionHandler
	EndName string
	Symbol  any
}

func (*PackageBody) declNode() {}

type PragmaDecl struct {
	base
	Name string
	Args []Expr
}

func (*PragmaDecl) declNode() {}

type GenericDecl struct {
	base
	FormalParams []Decl
	Decl         Decl
}

func (*GenericDecl) declNode() {}

type GenericInstDecl struct {
	base
	Name      string
	Generic   Expr
	Actuals   []*Association
}

func (*GenericInstDecl) declNode() {}

// ---- Type definitions -----------------------------------------------

// TypeDef is implemented by the RHS of a full type declaration.
type TypeDef interface {
	Node
	typeDefNode()
}

type EnumTypeDef struct {
	base
	Literals []string
}

func (*EnumTypeDef) typeDefNode() {}

type IntegerTypeDef struct {
	base
	Low, High Expr
}

func (*IntegerTypeDef) typeDefNode() {}

type ModularTypeDef struct {
	base
	Modulus Expr
}

func (*ModularTypeDef) typeDefNode() {}

type RealTypeDef struct {
	base
	Digits      Expr // nil if fixed
	Delta       Expr // nil if float
	Low, High   Expr
}

func (*RealTypeDef) typeDefNode() {}

type ArrayTypeDef struct {
	base
	IndexConstraints []Expr // ranges or subtype names, one per dimension
	ComponentType    Expr
}

func (*ArrayTypeDef) typeDefNode() {}

type RecordTypeDef struct {
	base
	Components   []*ComponentDecl
	Discriminants []*ParamSpec
	Variant      *VariantPart
}

func (*RecordTypeDef) typeDefNode() {}

type ComponentDecl struct {
	base
	Names     []string
	TypeIndic Expr
	Default   Expr
}

type VariantPart struct {
	base
	Discriminant string
	Variants     []*Variant
}

type Variant struct {
	base
	Choices    []Expr
	Components []*ComponentDecl
}

type AccessTypeDef struct {
	base
	Designated Expr
}

func (*AccessTypeDef) typeDefNode() {}

type DerivedTypeDef struct {
	base
	ParentType Expr
}

func (*DerivedTypeDef) typeDefNode() {}

// ---- Statements --------------------------------------------------

type AssignStmt struct {
	base
	LHS, RHS Expr
}

func (*AssignStmt) stmtNode() {}

type CallStmt struct {
	base
	Call Expr // an ApplyExpr used as a statement
}

func (*CallStmt) stmtNode() {}

type ReturnStmt struct {
	base
	Value Expr // nil for procedures
}

func (*ReturnStmt) stmtNode() {}

type IfStmt struct {
	base
	Cond      Expr
	Then      []Stmt
	Elsifs    []*ElsifArm
	Else      []Stmt
}

func (*IfStmt) stmtNode() {}

type ElsifArm struct {
	Cond Expr
	Body []Stmt
}

type CaseStmt struct {
	base
	Selector Expr
	Alts     []*CaseAlt
}

func (*CaseStmt) stmtNode() {}

type CaseAlt struct {
	Choices []Expr
	Body    []Stmt
}

type LoopStmt struct {
	base
	Label    string
	Scheme   LoopScheme // nil for a bare loop
	Body     []Stmt
}

func (*LoopStmt) stmtNode() {}

// LoopScheme is implemented by WhileScheme and ForScheme.
type LoopScheme interface {
	loopSchemeNode()
}

type WhileScheme struct{ Cond Expr }

func (*WhileScheme) loopSchemeNode() {}

type ForScheme struct {
	Var     string
	Range   Expr
	Reverse bool
	Symbol  any // *symtab.Symbol, filled in by semantic analysis
}

func (*ForScheme) loopSchemeNode() {}

type ExitStmt struct {
	base
	Label string
	When  Expr // optional
}

func (*ExitStmt) stmtNode() {}

type BlockStmt struct {
	base
	Label    string
	Decls    []Decl
	Stmts    []Stmt
	Handlers []*ExceptionHandler
}

func (*BlockStmt) stmtNode() {}

type NullStmt struct{ base }

func (*NullStmt) stmtNode() {}

type GotoStmt struct {
	base
	Label string
}

func (*GotoStmt) stmtNode() {}

type LabelStmt struct {
	base
	Name string
}

func (*LabelStmt) stmtNode() {}

type RaiseStmt struct {
	base
	Exception Expr // nil for bare "raise;"
}

func (*RaiseStmt) stmtNode() {}

type ExceptionHandler struct {
	base
	Choices []Expr // exception names, or nil for "when others"
	Others  bool
	Body    []Stmt
}

type DelayStmt struct {
	base
	Duration Expr
}

func (*DelayStmt) stmtNode() {}

// ---- Expressions --------------------------------------------------

type IdentExpr struct {
	baseExpr
	Name string
}

type SelectedExpr struct {
	baseExpr
	Prefix Expr
	Field  string
}

type AttributeExpr struct {
	baseExpr
	Prefix Expr
	Name   string
	Args   []Expr
}

type QualifiedExpr struct {
	baseExpr
	TypeMark Expr
	Value    Expr
}

// ApplyExpr is the unified call/index/slice/conversion node; semantic
// analysis alone decides which it is, per spec.md 3's AST invariant.
type ApplyExpr struct {
	baseExpr
	Prefix Expr
	Args   []*Association
}

// Association is the unified positional/named/choice-list element used
// by aggregates, call arguments and generic actuals alike.
type Association struct {
	base
	Choices []Expr // empty for a positional association
	Value   Expr
}

type RangeExpr struct {
	baseExpr
	Low, High Expr
}

type BinaryExpr struct {
	baseExpr
	Op          BinaryOp
	Left, Right Expr
}

type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpConcat // &
	OpMul
	OpDiv
	OpMod
	OpRem
	OpPow
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpXor
	OpAndThen
	OpOrElse
	OpIn
	OpNotIn
)

type UnaryExpr struct {
	baseExpr
	Op      UnaryOp
	Operand Expr
}

type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpIdentity
	OpNot
	OpAbs
)

type AllExpr struct { // X.all, pointer dereference
	baseExpr
	Prefix Expr
}

type AggregateExpr struct {
	baseExpr
	Associations []*Association
}

type AllocatorExpr struct {
	baseExpr
	TypeMark Expr
	Init     Expr // optional qualified expression for the initial value
}

type IntegerLitExpr struct {
	baseExpr
	Value  int64
	Big    string // decimal digits, set when the literal does not fit int64
	HasBig bool
}

type RealLitExpr struct {
	baseExpr
	Value float64
}

type CharLitExpr struct {
	baseExpr
	Value byte
}

type StringLitExpr struct {
	baseExpr
	Value string
}

type ErrorExpr struct {
	baseExpr
}
