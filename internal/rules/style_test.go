package rules

// style_test.go — naming, scalar style, anchor, and expression checks.

import (
	"strings"
	"testing"

	"wflint/internal/config"
)

func TestIsTitleCase(t *testing.T) {
	tests := []struct {
		in     string
		policy config.CasingPolicy
		want   bool
	}{
		{"Build and Test", config.CasingAllWords, false},
		{"Build And Test", config.CasingAllWords, true},
		{"Build and Test", config.CasingStandard, true},
		{"build and test", config.CasingStandard, false},
		{"Deploy to Production", config.CasingStandard, true},
		{"Release 2.0", config.CasingAllWords, true},
		// Expression interiors are exempt regardless of their own casing.
		{"Test ${{ matrix.os }}", config.CasingAllWords, true},
		{"Build ${{matrix.os}} Image", config.CasingAllWords, true},
		{"Deploy ${{ github.event.inputs.env }} Stack", config.CasingAllWords, true},
		// Words outside the expression are still checked.
		{"Test ${{ matrix.os }} suite", config.CasingAllWords, false},
		// Trailing small word still needs a capital under the standard policy.
		{"What It Is for", config.CasingStandard, false},
	}
	for _, tc := range tests {
		if got := isTitleCase(tc.in, tc.policy); got != tc.want {
			t.Errorf("isTitleCase(%q, %s) = %v, want %v", tc.in, tc.policy, got, tc.want)
		}
	}
}

func TestNameCasing(t *testing.T) {
	src := `name: build pipeline
on: push
jobs:
  build:
    name: Compile And Link
    steps:
      - name: run the tests
        run: make test
`
	r := nameCasing{cfg: config.Default()}
	got := r.Check(docFrom(t, src))
	if len(got) != 2 {
		t.Fatalf("%d findings, want 2 (workflow and step name)", len(got))
	}
	paths := map[string]bool{}
	for _, f := range got {
		paths[f.Path] = true
	}
	if !paths["/name"] || !paths["/jobs/build/steps/0/name"] {
		t.Errorf("unexpected paths %v", paths)
	}
}

func TestNameCasingAllowsExpressionNames(t *testing.T) {
	src := `name: Build
on: push
jobs:
  test:
    name: Test ${{ matrix.os }}
    strategy:
      matrix:
        os: [ubuntu-24.04]
    steps: []
`
	r := nameCasing{cfg: config.Default()}
	if got := r.Check(docFrom(t, src)); len(got) != 0 {
		t.Fatalf("interpolated job name: %d findings, want 0: %+v", len(got), got)
	}
}

func TestIDNaming(t *testing.T) {
	src := `on:
  workflow_dispatch:
    inputs:
      dryRun:
        type: boolean
      target_env:
        type: string
jobs:
  build:
    outputs:
      imageTag: ${{ steps.meta.outputs.tag }}
    steps:
      - id: meta
        run: make meta
      - id: buildStep
        run: make build
`
	got := idNaming{}.Check(docFrom(t, src))
	if len(got) != 3 {
		t.Fatalf("%d findings, want 3", len(got))
	}
	wantPaths := map[string]bool{
		"/on/workflow_dispatch/inputs/dryRun": true,
		"/jobs/build/outputs/imageTag":        true,
		"/jobs/build/steps/1/id":              true,
	}
	for _, f := range got {
		if !wantPaths[f.Path] {
			t.Errorf("unexpected finding path %q", f.Path)
		}
	}
}

func TestMatrixName(t *testing.T) {
	fixed := `on: push
jobs:
  test:
    name: Run Tests
    strategy:
      matrix:
        os: [ubuntu-24.04, macos-14]
    steps: []
`
	got := matrixName{}.Check(docFrom(t, fixed))
	if len(got) != 1 {
		t.Fatalf("fixed matrix name: %d findings, want 1", len(got))
	}
	if !strings.Contains(got[0].Patch, "matrix.os") {
		t.Errorf("patch should name the first matrix key, got %q", got[0].Patch)
	}

	interpolated := `on: push
jobs:
  test:
    name: Run Tests (${{ matrix.os }})
    strategy:
      matrix:
        os: [ubuntu-24.04]
    steps: []
`
	if got := (matrixName{}).Check(docFrom(t, interpolated)); len(got) != 0 {
		t.Fatalf("interpolated name: %d findings, want 0", len(got))
	}

	// No matrix, no requirement.
	plain := "on: push\njobs:\n  test:\n    name: Run Tests\n    steps: []\n"
	if got := (matrixName{}).Check(docFrom(t, plain)); len(got) != 0 {
		t.Fatalf("plain job: %d findings, want 0", len(got))
	}
}

func TestScalarStyle(t *testing.T) {
	src := jobHeader + `    steps:
      - run: |
          make build
      - run: |
          make lint
          make test
      - run: make check
`
	got := scalarStyle{}.Check(docFrom(t, src))
	if len(got) != 1 {
		t.Fatalf("%d findings, want 1 (single-line block scalar)", len(got))
	}
	if got[0].Path != "/jobs/build/steps/0/run" {
		t.Errorf("path %q, want the first step's run", got[0].Path)
	}
}

func TestAnchorUsage(t *testing.T) {
	src := `on: push
env: &shared
  CI: "1"
jobs:
  build:
    env: *shared
    steps: []
`
	got := anchorUsage{}.Check(docFrom(t, src))
	if len(got) != 2 {
		t.Fatalf("%d findings, want 2 (anchor plus alias)", len(got))
	}
	var sawAnchor, sawAlias bool
	for _, f := range got {
		if strings.Contains(f.Message, "anchor &shared") {
			sawAnchor = true
		}
		if strings.Contains(f.Message, "alias reference") {
			sawAlias = true
		}
	}
	if !sawAnchor || !sawAlias {
		t.Errorf("messages should cover both sides: %+v", got)
	}
}

func TestIfExpression(t *testing.T) {
	src := `on: push
jobs:
  deploy:
    if: github.ref == 'refs/heads/main'
    steps:
      - if: ${{ success() }}
        run: make deploy
      - if: failure()
        run: make rollback
`
	got := ifExpression{}.Check(docFrom(t, src))
	if len(got) != 2 {
		t.Fatalf("%d findings, want 2", len(got))
	}
	wantPaths := map[string]bool{
		"/jobs/deploy/if":         true,
		"/jobs/deploy/steps/1/if": true,
	}
	for _, f := range got {
		if !wantPaths[f.Path] {
			t.Errorf("unexpected finding path %q", f.Path)
		}
	}
}
