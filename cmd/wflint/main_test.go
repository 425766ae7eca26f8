package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectWorkflows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), "on: push\n")
	writeFile(t, filepath.Join(dir, "a.yml"), "on: push\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a workflow\n")
	writeFile(t, filepath.Join(dir, ".git", "hook.yml"), "on: push\n")
	writeFile(t, filepath.Join(dir, "sub", "c.yml"), "on: push\n")

	got, err := collectWorkflows([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "sub", "c.yml"),
	}
	if len(got) != len(want) {
		t.Fatalf("collected %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCollectWorkflowsSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ci.yml")
	writeFile(t, path, "on: push\n")

	got, err := collectWorkflows([]string{path})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != path {
		t.Fatalf("collected %v, want [%s]", got, path)
	}
}

const cleanWorkflow = `name: Build
on:
  push:
    branches: [main]
permissions:
  contents: read
jobs:
  build:
    name: Build
    runs-on: ubuntu-24.04
    timeout-minutes: 15
    steps:
      - name: Run Tests
        run: make test
`

func TestRunCheckExitCodes(t *testing.T) {
	dir := t.TempDir()

	clean := filepath.Join(dir, "clean.yml")
	writeFile(t, clean, cleanWorkflow)
	if err := runCheck([]string{clean}); err != nil {
		t.Errorf("clean workflow: %v, want nil", err)
	}

	dirty := filepath.Join(dir, "dirty.yml")
	writeFile(t, dirty, "on: push\njobs:\n  deploy:\n    runs-on: ubuntu-latest\n    steps:\n      - run: make deploy\n")
	var exit exitError
	if err := runCheck([]string{dirty}); !errors.As(err, &exit) || exit.code != 1 {
		t.Errorf("must-fix workflow: %v, want exit code 1", err)
	}

	broken := filepath.Join(dir, "broken.yml")
	writeFile(t, broken, "a: [1, 2\n")
	if err := runCheck([]string{broken}); !errors.As(err, &exit) || exit.code != 2 {
		t.Errorf("malformed workflow: %v, want exit code 2", err)
	}

	// Parse failures outrank must-fix findings.
	if err := runCheck([]string{dirty, broken}); !errors.As(err, &exit) || exit.code != 2 {
		t.Errorf("mixed failure: %v, want exit code 2", err)
	}
}

func TestRunExport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "ci.yml")
	out := filepath.Join(dir, "review.md")
	writeFile(t, src, cleanWorkflow)

	if err := runExport([]string{src, out}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"---\n", "source: " + src, "# Workflow Review"} {
		if !strings.Contains(text, want) {
			t.Errorf("exported report missing %q", want)
		}
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	if err := dispatch([]string{"frobnicate"}); err == nil {
		t.Fatal("unknown command should error")
	}
}
