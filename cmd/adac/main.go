// adac - Ada 83 to LLVM IR compiler driver
//
// Usage: adac [flags] file
//
// Flags:
//   -I path    Add an include path searched for with'd specs (repeatable)
//   -o file    Write generated LLVM IR to file (default "output.ll")
//
// The compiler pipeline: source.ad? -> lex -> parse -> resolve+freeze -> emit
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/AdaDoom3/Ada83-sub004/internal/compiler"
	"github.com/AdaDoom3/Ada83-sub004/internal/diag"
)

// includePaths collects repeated "-I" flags in the order given,
// mirroring lang/ya/main.go's single-valued flag vars generalized to
// the one flag this driver needs to accept more than once.
type includePaths []string

func (p *includePaths) String() string {
	return fmt.Sprint([]string(*p))
}

func (p *includePaths) Set(value string) error {
	*p = append(*p, value)
	return nil
}

var (
	includes   includePaths
	outputFile = flag.String("o", "output.ll", "output file name")
)

func main() {
	flag.Var(&includes, "I", "add an include path searched for with'd specs (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] file\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ada 83 to LLVM IR compiler driver\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	paths := []string(includes)
	if len(paths) == 0 {
		paths = []string{"."}
	}

	out, err := os.Create(*outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "adac: cannot create %s: %v\n", *outputFile, err)
		os.Exit(1)
	}
	defer out.Close()

	report := diag.NewReporter(os.Stderr)
	opts := compiler.Options{
		InputPath:    flag.Arg(0),
		IncludePaths: paths,
		Output:       out,
	}
	if err := compiler.CompileFile(opts, report); err != nil {
		fmt.Fprintf(os.Stderr, "adac: %v\n", err)
		os.Exit(1)
	}

	if report.HasErrors() {
		os.Exit(1)
	}
}
