// Package compiler sequences the passes (arena, lex, parse, resolve,
// freeze, emit) spec.md §2 fixes into a single call per source file,
// aborting between passes on a nonzero diagnostic count (spec.md §7,
// §9 "Propagation policy"). Grounded on lang/ya/main.go's runPipeline,
// collapsed from that file's exec.Command subprocess chain into direct
// function calls since every stage here lives in one binary.
package compiler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/AdaDoom3/Ada83-sub004/internal/arena"
	"github.com/AdaDoom3/Ada83-sub004/internal/ast"
	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
	"github.com/AdaDoom3/Ada83-sub004/internal/parser"
)

// unitLoader implements sema.UnitLoader by searching include paths for
// a with'd package's spec file, per spec.md §4.I/§9's "with-clause
// resolution": case-insensitive filename match, first include path
// that has "<lowercased-name>.ads" wins. Candidate paths (which may
// carry a "<dir>@<semver>" version) are ordered
// by pin.go's resolvePins before the first-hit search, so a higher
// pinned version on a later include path can still win over an
// unpinned hit on an earlier one.
type unitLoader struct {
	includePaths []string
	arena        *arena.Arena
	report       *diag.Reporter
	loaded       map[string]*ast.CompilationUnit
	pins         map[string]string // folded with'd name -> "module@semver" pin text
}

func newUnitLoader(includePaths []string, a *arena.Arena, r *diag.Reporter, pins map[string]string) *unitLoader {
	return &unitLoader{
		includePaths: includePaths,
		arena:        a,
		report:       r,
		loaded:       map[string]*ast.CompilationUnit{},
		pins:         pins,
	}
}

// Load resolves name to its parsed compilation unit, searching
// includePaths in pin-adjusted order. Results are cached by folded
// name so a package with'd from two different units is parsed once.
func (l *unitLoader) Load(name string) (*ast.CompilationUnit, bool) {
	key := strings.ToLower(name)
	if cu, ok := l.loaded[key]; ok {
		return cu, true
	}

	candidates := resolvePins(l.includePaths, l.pins[key])
	fileName := key + ".ads"
	for _, dir := range candidates {
		path := filepath.Join(dir, fileName)
		src, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		p := parser.New(path, src, l.arena, l.report)
		cu := p.ParseCompilationUnit()
		l.loaded[key] = cu
		return cu, true
	}
	l.loaded[key] = nil
	return nil, false
}
