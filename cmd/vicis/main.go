// Command vicis is the minimal driver spec.md §6 describes: parse a
// textual module, either print it back out or lower it against a target,
// and (when an interpreter is wired in) run it, translating its exit
// value. Grounded on ajroetker/goat/main.go's single-root-command cobra
// shape (PersistentFlags read back inside Run, os.Exit on failure).
package main

import (
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/vicis-ir/vicis/internal/codegen/isa"
	"github.com/vicis-ir/vicis/internal/codegen/isa/x86_64"
	"github.com/vicis-ir/vicis/internal/codegen/lower"
	"github.com/vicis-ir/vicis/internal/ir/module"
	"github.com/vicis-ir/vicis/internal/ir/parser"
	"github.com/vicis-ir/vicis/internal/ir/printer"
)

// interpretHook, when non-nil, runs m's @main with loadLibs registered
// and returns its raw return value. No build in this module supplies
// one — the interpreter front-end is a delegated collaborator outside
// this module's scope (spec.md §1) — so the default binary always hits
// errNoInterpreter. A future build wiring a real interpreter need only
// set this var from an init() in a separate build-tagged file.
var interpretHook func(m *module.Module, loadLibs []string) (int64, error)

var errNoInterpreter = fmt.Errorf("vicis: no interpreter registered in this build")

// exitCode carries the interpreted low 32 bits of @main's return value
// out of RunE, since cobra only distinguishes error/no-error, not an
// arbitrary exit status.
var exitCode int

var (
	loadLibs   []string
	printFlag  bool
	targetName string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:  "vicis FILE",
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().StringArrayVar(&loadLibs, "load", nil, "dynamic-library path for the interpreter front-end (repeatable)")
	rootCmd.Flags().BoolVar(&printFlag, "print", false, "round-trip the module through the printer instead of lowering it")
	rootCmd.Flags().StringVar(&targetName, "target", "x86_64", "target descriptor to lower against")
	rootCmd.Flags().BoolVar(&debugFlag, "debug", false, "dump the parsed module (and lowered function, unless --print) to stderr")
}

func resolveTarget(name string) (isa.TargetIsa, error) {
	switch name {
	case "x86_64":
		return x86_64.New(), nil
	default:
		return nil, fmt.Errorf("vicis: unknown target %q", name)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	m, err := parser.Parse(path, string(src))
	if err != nil {
		return err
	}
	if debugFlag {
		_, _ = pretty.Fprintf(os.Stderr, "%# v\n", m)
	}

	if printFlag {
		fmt.Print(printer.PrintModule(m))
		return nil
	}

	target, err := resolveTarget(targetName)
	if err != nil {
		return err
	}
	mm, err := lower.CompileModule(target, m)
	if err != nil {
		return err
	}
	if debugFlag {
		_, _ = pretty.Fprintf(os.Stderr, "%# v\n", mm)
	}

	if interpretHook == nil {
		return errNoInterpreter
	}
	ret, err := interpretHook(m, loadLibs)
	if err != nil {
		return err
	}
	exitCode = int(uint32(ret))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
