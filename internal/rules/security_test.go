package rules

// security_test.go — must-fix tier rule checks.

import (
	"testing"

	"wflint/internal/config"
	"wflint/internal/document"
	"wflint/internal/findings"
	"wflint/internal/schema"
)

func docFrom(t *testing.T, src string) *schema.Document {
	t.Helper()
	root, err := document.Load([]byte(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return schema.Normalize(root)
}

// minimal job wrapper for single-rule tests.
const jobHeader = "on: push\njobs:\n  build:\n"

// ---------------------------------------------------------------------------
// permissions-missing
// ---------------------------------------------------------------------------

func TestPermissionsMissing(t *testing.T) {
	r := permissionsMissing{}
	if got := r.Check(docFrom(t, "on: push\njobs: {}\n")); len(got) != 1 {
		t.Fatalf("missing permissions: %d findings, want 1", len(got))
	}
	if got := r.Check(docFrom(t, "on: push\npermissions:\n  contents: read\njobs: {}\n")); len(got) != 0 {
		t.Fatalf("declared permissions: %d findings, want 0", len(got))
	}
}

// ---------------------------------------------------------------------------
// runner-unpinned
// ---------------------------------------------------------------------------

func TestRunnerUnpinned(t *testing.T) {
	r := runnerUnpinned{cfg: config.Default()}
	tests := []struct {
		name   string
		runsOn string
		want   int
	}{
		{"latest tag", "ubuntu-latest", 1},
		{"pinned", "ubuntu-24.04", 0},
		{"slim exempt", "ubuntu-slim", 0},
		{"windows latest", "windows-latest", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := docFrom(t, jobHeader+"    runs-on: "+tc.runsOn+"\n    steps: []\n")
			got := r.Check(doc)
			if len(got) != tc.want {
				t.Fatalf("runs-on %q: %d findings, want %d", tc.runsOn, len(got), tc.want)
			}
			if tc.want == 1 {
				f := got[0]
				if f.Severity != findings.MustFix {
					t.Errorf("severity = %v, want must-fix", f.Severity)
				}
				if f.Path != "/jobs/build/runs-on" {
					t.Errorf("path = %q", f.Path)
				}
			}
		})
	}
}

func TestRunnerUnpinnedSequenceForm(t *testing.T) {
	r := runnerUnpinned{cfg: config.Default()}
	doc := docFrom(t, jobHeader+"    runs-on: [self-hosted, ubuntu-latest]\n    steps: []\n")
	got := r.Check(doc)
	if len(got) != 1 {
		t.Fatalf("%d findings, want 1", len(got))
	}
	if got[0].Path != "/jobs/build/runs-on/1" {
		t.Errorf("path = %q, want element path", got[0].Path)
	}
}

// ---------------------------------------------------------------------------
// slim-runner-secrets
// ---------------------------------------------------------------------------

func TestSlimRunnerSecrets(t *testing.T) {
	r := slimRunnerSecrets{cfg: config.Default()}

	withSecret := jobHeader + `    runs-on: ubuntu-slim
    steps:
      - uses: some/action@v1
        with:
          token: ${{ secrets.API_TOKEN }}
`
	if got := r.Check(docFrom(t, withSecret)); len(got) != 1 {
		t.Fatalf("slim + secret: %d findings, want 1", len(got))
	}

	reviewed := "on: push\njobs:\n  # reviewed: token scoped to read-only telemetry\n  build:\n" + `    runs-on: ubuntu-slim
    steps:
      - uses: some/action@v1
        with:
          token: ${{ secrets.API_TOKEN }}
`
	if got := r.Check(docFrom(t, reviewed)); len(got) != 0 {
		t.Fatalf("reviewed slim job: %d findings, want 0", len(got))
	}

	fullImage := jobHeader + `    runs-on: ubuntu-24.04
    steps:
      - uses: some/action@v1
        with:
          token: ${{ secrets.API_TOKEN }}
`
	if got := r.Check(docFrom(t, fullImage)); len(got) != 0 {
		t.Fatalf("full image + secret: %d findings, want 0", len(got))
	}

	noSecret := jobHeader + "    runs-on: ubuntu-slim\n    steps:\n      - run: echo ok\n"
	if got := r.Check(docFrom(t, noSecret)); len(got) != 0 {
		t.Fatalf("slim without secret: %d findings, want 0", len(got))
	}
}

// ---------------------------------------------------------------------------
// secrets-in-env
// ---------------------------------------------------------------------------

func TestSecretsInEnvScopes(t *testing.T) {
	r := secretsInEnv{}

	rootEnv := `on: push
env:
  TOKEN: ${{ secrets.DEPLOY_TOKEN }}
jobs: {}
`
	got := r.Check(docFrom(t, rootEnv))
	if len(got) != 1 {
		t.Fatalf("root env secret: %d findings, want 1", len(got))
	}
	if got[0].Severity != findings.MustFix || got[0].Path != "/env/TOKEN" {
		t.Errorf("finding = %+v", got[0])
	}

	jobEnv := jobHeader + `    runs-on: ubuntu-24.04
    env:
      TOKEN: ${{ secrets.DEPLOY_TOKEN }}
    steps: []
`
	if got := r.Check(docFrom(t, jobEnv)); len(got) != 1 {
		t.Fatalf("unreviewed job env secret: %d findings, want 1", len(got))
	}

	jobEnvReviewed := jobHeader + `    runs-on: ubuntu-24.04
    env:
      # reviewed: needed by every step of the deploy sequence
      TOKEN: ${{ secrets.DEPLOY_TOKEN }}
    steps: []
`
	if got := r.Check(docFrom(t, jobEnvReviewed)); len(got) != 0 {
		t.Fatalf("reviewed job env secret: %d findings, want 0", len(got))
	}

	// Step-scoped secrets are this rule's happy path.
	stepWith := jobHeader + `    runs-on: ubuntu-24.04
    steps:
      - uses: some/action@v1
        with:
          token: ${{ secrets.DEPLOY_TOKEN }}
`
	if got := r.Check(docFrom(t, stepWith)); len(got) != 0 {
		t.Fatalf("step-scoped secret: %d findings, want 0", len(got))
	}
}

// ---------------------------------------------------------------------------
// shell-strict-mode
// ---------------------------------------------------------------------------

func TestShellStrictMode(t *testing.T) {
	r := shellStrictMode{}

	bad := jobHeader + `    steps:
      - run: |
          make build
          make test
`
	got := r.Check(docFrom(t, bad))
	if len(got) != 1 {
		t.Fatalf("unguarded multi-line script: %d findings, want 1", len(got))
	}
	if got[0].Path != "/jobs/build/steps/0/run" {
		t.Errorf("path = %q", got[0].Path)
	}

	good := jobHeader + `    steps:
      - run: |
          set -euo pipefail
          make build
          make test
`
	if got := r.Check(docFrom(t, good)); len(got) != 0 {
		t.Fatalf("strict-mode script: %d findings, want 0", len(got))
	}

	// Single logical line needs no strict mode, even in block style.
	single := jobHeader + "    steps:\n      - run: |\n          make test\n"
	if got := r.Check(docFrom(t, single)); len(got) != 0 {
		t.Fatalf("single-line block script: %d findings, want 0", len(got))
	}

	// Plain scalars are out of scope for this rule.
	plain := jobHeader + "    steps:\n      - run: make build && make test\n"
	if got := r.Check(docFrom(t, plain)); len(got) != 0 {
		t.Fatalf("plain scalar run: %d findings, want 0", len(got))
	}
}

// ---------------------------------------------------------------------------
// timeout rules
// ---------------------------------------------------------------------------

func TestTimeoutMatrix(t *testing.T) {
	missing := timeoutMissing{}
	excessive := timeoutExcessive{cfg: config.Default()}

	noTimeout := jobHeader + "    runs-on: ubuntu-24.04\n    steps: []\n"
	if got := missing.Check(docFrom(t, noTimeout)); len(got) != 1 {
		t.Fatalf("absent timeout: %d must-fix findings, want 1", len(got))
	}

	high := jobHeader + "    runs-on: ubuntu-24.04\n    timeout-minutes: 45\n    steps: []\n"
	doc := docFrom(t, high)
	if got := missing.Check(doc); len(got) != 0 {
		t.Fatalf("declared timeout still flagged missing: %d", len(got))
	}
	got := excessive.Check(doc)
	if len(got) != 1 {
		t.Fatalf("timeout 45 without marker: %d findings, want 1", len(got))
	}
	if got[0].Severity != findings.Improvement {
		t.Errorf("severity = %v, want improvement", got[0].Severity)
	}

	justified := jobHeader + "    runs-on: ubuntu-24.04\n    timeout-minutes: 45 # justification: full browser matrix\n    steps: []\n"
	if got := excessive.Check(docFrom(t, justified)); len(got) != 0 {
		t.Fatalf("justified timeout: %d findings, want 0", len(got))
	}

	ok := jobHeader + "    runs-on: ubuntu-24.04\n    timeout-minutes: 15\n    steps: []\n"
	doc = docFrom(t, ok)
	if n := len(missing.Check(doc)) + len(excessive.Check(doc)); n != 0 {
		t.Fatalf("timeout 15: %d findings, want 0", n)
	}
}

// ---------------------------------------------------------------------------
// concurrency rules
// ---------------------------------------------------------------------------

func TestConcurrencyMissing(t *testing.T) {
	r := concurrencyMissing{}

	both := "on: [push, pull_request]\njobs:\n  build:\n    steps: []\n"
	if got := r.Check(docFrom(t, both)); len(got) != 1 {
		t.Fatalf("push+pr without concurrency: %d findings, want 1", len(got))
	}

	rootLevel := `on: [push, pull_request]
concurrency:
  group: ${{ github.workflow }}-${{ github.head_ref || github.ref_name }}
jobs:
  build:
    steps: []
`
	if got := r.Check(docFrom(t, rootLevel)); len(got) != 0 {
		t.Fatalf("workflow-level concurrency: %d findings, want 0", len(got))
	}

	jobLevel := `on: [push, pull_request]
jobs:
  build:
    concurrency:
      group: build-${{ github.head_ref || github.ref_name }}
    steps: []
`
	if got := r.Check(docFrom(t, jobLevel)); len(got) != 0 {
		t.Fatalf("job-level concurrency: %d findings, want 0", len(got))
	}

	pushOnly := "on: push\njobs:\n  build:\n    steps: []\n"
	if got := r.Check(docFrom(t, pushOnly)); len(got) != 0 {
		t.Fatalf("push-only trigger: %d findings, want 0", len(got))
	}
}

func TestConcurrencyGroupFallback(t *testing.T) {
	r := concurrencyGroupFallback{cfg: config.Default()}

	noFallback := `on: push
concurrency:
  group: ${{ github.head_ref }}
jobs: {}
`
	got := r.Check(docFrom(t, noFallback))
	if len(got) != 1 {
		t.Fatalf("group without fallback: %d findings, want 1", len(got))
	}
	if got[0].Severity != findings.Improvement {
		t.Errorf("severity = %v, want improvement", got[0].Severity)
	}
	if got[0].Path != "/concurrency/group" {
		t.Errorf("path = %q", got[0].Path)
	}

	withFallback := `on: push
concurrency:
  group: ${{ github.workflow }}-${{ github.head_ref || github.ref_name }}
jobs: {}
`
	if got := r.Check(docFrom(t, withFallback)); len(got) != 0 {
		t.Fatalf("group with fallback: %d findings, want 0", len(got))
	}

	// The alternate policy expects github.ref instead.
	cfg := config.Default()
	cfg.ConcurrencyPattern = config.ConcurrencyRef
	alt := concurrencyGroupFallback{cfg: cfg}
	refGroup := `on: push
concurrency:
  group: ${{ github.head_ref || github.ref }}
jobs: {}
`
	if got := alt.Check(docFrom(t, refGroup)); len(got) != 0 {
		t.Fatalf("alternate policy group: %d findings, want 0", len(got))
	}
}

// ---------------------------------------------------------------------------
// destructive-command
// ---------------------------------------------------------------------------

func TestDestructiveCommand(t *testing.T) {
	r := destructiveCommand{}

	tests := []struct {
		name string
		step string
		want int
	}{
		{
			"unguarded rm -rf",
			"      - run: |\n          set -euo pipefail\n          rm -rf build\n",
			1,
		},
		{
			"guarded by test",
			"      - run: |\n          if [ -d build ]; then rm -rf build; fi\n          make\n",
			0,
		},
		{
			"guarded by continue-on-error",
			"      - continue-on-error: true\n        run: rm -rf build\n",
			0,
		},
		{
			"separate flags",
			"      - run: rm -r -f build\n",
			1,
		},
		{
			"plain rm",
			"      - run: rm build/output.txt\n",
			0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := docFrom(t, jobHeader+"    steps:\n"+tc.step)
			if got := r.Check(doc); len(got) != tc.want {
				t.Fatalf("%d findings, want %d", len(got), tc.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// no-jobs
// ---------------------------------------------------------------------------

func TestNoJobs(t *testing.T) {
	r := noJobs{}
	for _, src := range []string{"on: push\n", "on: push\njobs: {}\n", "plain text\n"} {
		got := r.Check(docFrom(t, src))
		if len(got) != 1 || got[0].Severity != findings.MustFix {
			t.Fatalf("source %q: findings %+v, want one must-fix", src, got)
		}
	}
	if got := r.Check(docFrom(t, jobHeader+"    steps: []\n")); len(got) != 0 {
		t.Fatalf("workflow with a job: %d findings, want 0", len(got))
	}
}
