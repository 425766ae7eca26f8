package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wflint/internal/config"
	"wflint/internal/document"
	"wflint/internal/findings"
	"wflint/internal/frontmatter"
	"wflint/internal/report"
	"wflint/internal/rules"
	"wflint/internal/schema"
	"wflint/internal/tui"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "check",
		short: "Lint workflow files and print their review reports",
		usage: "wflint check <path>...",
		long: `Lint one or more workflow files and print a review report for each.

A directory argument is walked for *.yml and *.yaml files in sorted order,
skipping hidden directories.

Exit status: 1 when any must-fix finding is reported, 2 when any file fails
to parse.
`,
		run: runCheck,
	},
	{
		name:  "export",
		short: "Write a review report to a markdown file with metadata",
		usage: "wflint export <workflow.yml> <out.md>",
		long: `Lint a workflow file and write its review report to a markdown file.

The output carries YAML frontmatter recording the source path and the
finding counts.
`,
		run: runExport,
	},
	{
		name:  "rules",
		short: "List the rule catalog",
		usage: "wflint rules",
		long: `List every rule in evaluation order with its severity tier and a
one-line description.
`,
		run: runRules,
	},
	{
		name:  "tui",
		short: "Browse a workflow's findings interactively",
		usage: "wflint tui <workflow.yml>",
		long: `Lint a workflow file and open an interactive findings browser.

Navigate with the arrow keys or j/k; quit with q, esc, or ctrl-c.
`,
		run: runTUI,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "wflint — rule-based CI workflow linter\n\n")
	fmt.Fprintf(w, "Usage:\n  wflint <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'wflint help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "wflint: unknown command %q\n\nRun 'wflint help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'wflint help' for usage.", args[0])
}

// exitError carries a specific process exit status through dispatch.
type exitError struct {
	code int
	msg  string
}

func (e exitError) Error() string { return e.msg }

// review is one linted file's outcome.
type review struct {
	source string
	doc    *schema.Document
	ranked []findings.Finding
}

func (r review) mustFix() int      { return findings.Count(r.ranked, findings.MustFix) }
func (r review) improvements() int { return findings.Count(r.ranked, findings.Improvement) }

// lintFile runs the whole pipeline over one workflow file.
func lintFile(reg *rules.Registry, path string) (review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return review{}, err
	}
	root, err := document.Load(data)
	if err != nil {
		return review{}, fmt.Errorf("%s: %w", path, err)
	}
	doc := schema.Normalize(root)
	ranked := findings.Aggregate(reg.Run(context.Background(), doc))
	return review{source: path, doc: doc, ranked: ranked}, nil
}

func newRegistry() (*rules.Registry, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}
	return rules.NewRegistry(cfg), nil
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

// collectWorkflows expands each argument into workflow file paths. Directory
// arguments are walked in lexical order; hidden directories are skipped.
func collectWorkflows(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if name := d.Name(); strings.HasPrefix(name, ".") && path != p {
					return fs.SkipDir
				}
				return nil
			}
			if ext := filepath.Ext(path); ext == ".yml" || ext == ".yaml" {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func runCheck(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: wflint check <path>...")
	}
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	files, err := collectWorkflows(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no workflow files found")
	}

	var parseErrs, mustFix int
	for _, file := range files {
		rev, err := lintFile(reg, file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "wflint: %v\n", err)
			parseErrs++
			continue
		}
		if len(files) > 1 {
			fmt.Printf("=== %s\n\n", file)
		}
		fmt.Print(report.Render(rev.doc, rev.ranked))
		fmt.Println()
		mustFix += rev.mustFix()
	}

	switch {
	case parseErrs > 0:
		return exitError{code: 2, msg: fmt.Sprintf("%d file(s) failed to parse", parseErrs)}
	case mustFix > 0:
		return exitError{code: 1, msg: fmt.Sprintf("%d must-fix finding(s)", mustFix)}
	}
	return nil
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func runExport(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: wflint export <workflow.yml> <out.md>")
	}
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	rev, err := lintFile(reg, args[0])
	if err != nil {
		return err
	}
	out, err := frontmatter.Encode(frontmatter.Meta{
		Source:       rev.source,
		MustFix:      rev.mustFix(),
		Improvements: rev.improvements(),
		Generated:    time.Now().UTC().Format(time.RFC3339),
	}, report.Render(rev.doc, rev.ranked))
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], out, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d must-fix, %d improvements)\n", args[1], rev.mustFix(), rev.improvements())
	return nil
}

// ---------------------------------------------------------------------------
// rules
// ---------------------------------------------------------------------------

func runRules(args []string) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	for _, r := range reg.Rules() {
		fmt.Printf("%-28s %-12s %s\n", r.ID(), r.Severity(), r.Describe())
	}
	return nil
}

// ---------------------------------------------------------------------------
// tui
// ---------------------------------------------------------------------------

func runTUI(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: wflint tui <workflow.yml>")
	}
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	rev, err := lintFile(reg, args[0])
	if err != nil {
		return err
	}
	return tui.Run(rev.source, rev.ranked)
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			fmt.Fprintf(os.Stderr, "wflint: %s\n", exit.msg)
			os.Exit(exit.code)
		}
		log.Fatal(err)
	}
}
