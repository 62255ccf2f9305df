package codegen

import (
	"fmt"

	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/symtab"
	"github.com/AdaDoom3/Ada83-sub004/internal/types"
)

// EmitCompilationUnit is the single entry point codegen exposes to
// internal/compiler: lower the resolved unit's library item to LLVM
// text, preceded by the module prologue and the implicit equality
// functions, per spec.md 4.I.k's emission order ("declarations... then
// exception identity globals, then implicit equality functions, then
// user code, then buffered string constants").
func (e *Emitter) EmitCompilationUnit(unit ast.Decl) error {
	e.emitPrologue()
	e.emitEqualityFunctions()

	switch n := unit.(type) {
	case *ast.SubprogramBody:
		e.emitSubprogramBody(n, nil)
	case *ast.PackageBody:
		e.emitPackageBody(n)
	case *ast.PackageSpec:
		e.emitPackageSpecGlobals(n)
	default:
		e.internalError("unsupported library unit kind for %s", declName(unit))
	}

	e.emitStringConstants()
	return e.Flush()
}

func (e *Emitter) emitStringConstants() {
	for i, sc := range e.stringConsts {
		e.emit("@.str.%d = private unnamed_addr constant [%d x i8] c\"%s\"\n", i, len(sc.value), escapeLLVMString(sc.value))
	}
}

func escapeLLVMString(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 32 && c < 127 && c != '"' && c != '\\' {
			out = append(out, c)
		} else {
			out = append(out, []byte(fmt.Sprintf("\\%02X", c))...)
		}
	}
	return string(out)
}

// hasNestedSubprogram reports whether decls directly contains a nested
// subprogram body, deciding whether the enclosing subprogram needs a
// frame at all (spec.md 4.I.k: only allocated "if a subprogram has any
// nested subprogram").
func hasNestedSubprogram(decls []ast.Decl) bool {
	for _, d := range decls {
		if _, ok := d.(*ast.SubprogramBody); ok {
			return true
		}
	}
	return false
}

func (e *Emitter) emitPackageSpecGlobals(n *ast.PackageSpec) {
	e.emitGlobalsForDecls(n.VisibleDecls)
	e.emitGlobalsForDecls(n.PrivateDecls)
}

func (e *Emitter) emitPackageBody(n *ast.PackageBody) {
	e.emitGlobalsForDecls(n.Decls)
	for _, d := range n.Decls {
		if body, ok := d.(*ast.SubprogramBody); ok {
			e.emitSubprogramBody(body, nil)
		}
	}
}

// emitGlobalsForDecls emits one LLVM global per package-level object
// declaration, zero-initialized (spec.md does not specify elaboration
// code for this core's scope). A package-level object's initializer
// expression is not emitted, so each such global starts out zero.
func (e *Emitter) emitGlobalsForDecls(decls []ast.Decl) {
	for _, d := range decls {
		obj, ok := d.(*ast.ObjectDecl)
		if !ok {
			continue
		}
		for _, anySym := range obj.Symbols {
			sym, ok := anySym.(*symtab.Symbol)
			if !ok {
				continue
			}
			lt := llvmType(sym.Type)
			e.emit("@G_%s = global %s zeroinitializer\n", mangle(symbolName(sym), symbolOrdinal(sym)), lt)
		}
	}
}

// locals tracks, for the subprogram currently being emitted, where
// each symbol's storage lives: a plain alloca pointer, or (when the
// subprogram has a frame) an offset into it.
type locals struct {
	addr map[*symtab.Symbol]string
	typ  map[*symtab.Symbol]*types.Type
}

func newLocals() *locals {
	return &locals{addr: map[*symtab.Symbol]string{}, typ: map[*symtab.Symbol]*types.Type{}}
}

func (e *Emitter) emitSubprogramBody(n *ast.SubprogramBody, parent *frame) {
	sym, _ := n.Symbol.(*symtab.Symbol)
	if sym == nil {
		sym = &symtab.Symbol{Name: n.Spec.Name}
	}
	funcName := mangledFuncName(sym)
	retType := "void"
	if n.Spec.IsFunction {
		retType = llvmType(sym.ReturnType)
	}

	needsFrame := hasNestedSubprogram(n.Decls)
	isNested := parent != nil

	var params []string
	if isNested {
		params = append(params, "ptr %__parent_frame")
	}
	for _, p := range sym.Params {
		params = append(params, fmt.Sprintf("%s %%p_%s", llvmType(p.Type), symbolName(p)))
	}

	e.emit("define %s %s(%s) {\n", retType, funcName, joinParams(params))
	e.emitLabelDef("entry")

	loc := newLocals()

	frameSize := 0
	if needsFrame {
		frameSize = frameSizeFor(sym, n.Decls)
		e.curFrame.baseRef = e.newTemp()
		e.emit("  %s = alloca i8, i64 %d\n", e.curFrame.baseRef, maxInt(frameSize, 1))
		e.curFrame.offsets = map[string]int{}
	} else {
		e.curFrame.baseRef = ""
		e.curFrame.offsets = nil
	}
	if isNested {
		e.curFrame.parentRef = "%__parent_frame"
		e.curFrame.parentVars = parent.parentVars
	} else {
		e.curFrame.parentRef = ""
	}

	// Materialize parameters: either into the frame (if this subprogram
	// has nested bodies referencing them) or a fresh alloca.
	offset := 0
	for _, p := range sym.Params {
		pt := llvmType(p.Type)
		if needsFrame {
			off := offset
			offset += sizeOf(p.Type)
			addr := e.newTemp()
			e.emit("  %s = getelementptr i8, ptr %s, i64 %d\n", addr, e.curFrame.baseRef, off)
			e.emit("  store %s %%p_%s, ptr %s\n", pt, symbolName(p), addr)
			loc.addr[p] = addr
			e.curFrame.offsets[symbolKey(p)] = off
		} else {
			addr := e.newTemp()
			e.emit("  %s = alloca %s\n", addr, pt)
			e.emit("  store %s %%p_%s, ptr %s\n", pt, symbolName(p), addr)
			loc.addr[p] = addr
		}
		loc.typ[p] = p.Type
	}

	e.emitDeclarativePart(n.Decls, loc, needsFrame, &offset)

	if len(n.Handlers) > 0 {
		e.emitProtectedRegion(n.Stmts, n.Handlers, loc, sym, retType)
	} else {
		e.emitStmtsCtx(n.Stmts, loc)
		e.emitImplicitReturn(n.Spec.IsFunction, retType)
	}

	e.emit("}\n\n")

	// Nested subprogram bodies found in this body's own declarative part
	// are rendered now but held back until after this function's closing
	// brace (spec.md 4.I.k's deferred-nested-body rule).
	for _, d := range n.Decls {
		if nested, ok := d.(*ast.SubprogramBody); ok {
			e.emitNestedDeferred(nested, sym, loc, offset)
		}
	}
}

func (e *Emitter) emitNestedDeferred(n *ast.SubprogramBody, parentSym *symtab.Symbol, parentLocals *locals, parentFrameSize int) {
	if e.nestedCount >= maxDeferredBodies {
		e.internalError("deferred nested body stack exhausted (%d max)", maxDeferredBodies)
		return
	}
	e.nestedCount++
	parentFrame := &frame{size: parentFrameSize, parentVars: e.curFrame.offsets}
	saved := e.curFrame
	e.emitSubprogramBody(n, parentFrame)
	e.curFrame = saved
}

func joinParams(ps []string) string {
	out := ""
	for i, p := range ps {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func sizeOf(t *types.Type) int {
	if t == nil || t.Size <= 0 {
		return 8
	}
	return t.Size
}

func frameSizeFor(sym *symtab.Symbol, decls []ast.Decl) int {
	total := 0
	for _, p := range sym.Params {
		total += sizeOf(p.Type)
	}
	for _, d := range decls {
		if obj, ok := d.(*ast.ObjectDecl); ok {
			for _, anySym := range obj.Symbols {
				if s, ok := anySym.(*symtab.Symbol); ok {
					total += sizeOf(s.Type)
				}
			}
		}
	}
	return total
}

// emitDeclarativePart allocates storage for each object declaration
// (in the frame if the enclosing subprogram needs one, else via
// alloca) and emits its initializer, matching spec.md 4.I.k's
// frame-vs-alloca addressing rule.
func (e *Emitter) emitDeclarativePart(decls []ast.Decl, loc *locals, useFrame bool, offset *int) {
	for _, d := range decls {
		obj, ok := d.(*ast.ObjectDecl)
		if !ok {
			continue
		}
		for _, anySym := range obj.Symbols {
			sym, ok := anySym.(*symtab.Symbol)
			if !ok {
				continue
			}
			lt := llvmType(sym.Type)
			var addr string
			if useFrame {
				off := *offset
				*offset += sizeOf(sym.Type)
				addr = e.newTemp()
				e.emit("  %s = getelementptr i8, ptr %s, i64 %d\n", addr, e.curFrame.baseRef, off)
				e.curFrame.offsets[symbolKey(sym)] = off
			} else {
				addr = e.newTemp()
				e.emit("  %s = alloca %s\n", addr, lt)
			}
			loc.addr[sym] = addr
			loc.typ[sym] = sym.Type
			if obj.Init != nil {
				v := e.emitExpr(obj.Init, loc)
				v = e.convert(v, lt)
				e.emit("  store %s %s, ptr %s\n", lt, v.Ref, addr)
			}
		}
	}
}

func (e *Emitter) emitImplicitReturn(isFunction bool, retType string) {
	if isFunction {
		e.terminate("  unreachable\n")
	} else {
		e.terminate("  ret void\n")
	}
}
