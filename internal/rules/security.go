package rules

// security.go — the must-fix tier: permission scope, runner pinning, secret
// exposure, shell strictness, timeouts, concurrency guards, and destructive
// shell commands.

import (
	"fmt"
	"strconv"
	"strings"

	"wflint/internal/config"
	"wflint/internal/document"
	"wflint/internal/findings"
	"wflint/internal/schema"
)

// markers recognized in adjacent comments.
const (
	markerReviewed      = "reviewed:"
	markerJustification = "justification:"
)

// ---------------------------------------------------------------------------
// permissions-missing
// ---------------------------------------------------------------------------

type permissionsMissing struct{}

func (permissionsMissing) ID() string                   { return "permissions-missing" }
func (permissionsMissing) Severity() findings.Severity  { return findings.MustFix }
func (permissionsMissing) Category() findings.Category  { return findings.CategoryTriggers }
func (permissionsMissing) Describe() string {
	return "top-level permissions block must be declared"
}

func (r permissionsMissing) Check(doc *schema.Document) []findings.Finding {
	if doc.Permissions != nil {
		return nil
	}
	return []findings.Finding{{
		RuleID:   r.ID(),
		Severity: r.Severity(),
		Category: r.Category(),
		Path:     "/",
		Order:    doc.Root.Index,
		Line:     doc.Root.Line,
		Col:      doc.Root.Col,
		Message:  "workflow declares no top-level permissions block",
		Why:      "without an explicit permissions block the workflow inherits the repository default token scope, which is usually far broader than it needs",
		FixHint:  "add a top-level permissions block granting the least scope the jobs need",
		Patch:    "permissions:\n  contents: read",
	}}
}

// ---------------------------------------------------------------------------
// runner-unpinned
// ---------------------------------------------------------------------------

type runnerUnpinned struct{ cfg config.Config }

func (runnerUnpinned) ID() string                  { return "runner-unpinned" }
func (runnerUnpinned) Severity() findings.Severity { return findings.MustFix }
func (runnerUnpinned) Category() findings.Category { return findings.CategoryPinning }
func (runnerUnpinned) Describe() string {
	return "runs-on must not use a floating \"-latest\" runner image"
}

func (r runnerUnpinned) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	for _, job := range doc.Jobs {
		for i, label := range job.RunsOnValues() {
			if label.Kind != document.Scalar || !strings.HasSuffix(label.Value, r.cfg.RunnerDenySuffix) {
				continue
			}
			path := job.Path + "/runs-on"
			if job.RunsOn.Kind == document.Sequence {
				path += "/" + strconv.Itoa(i)
			}
			out = append(out, findings.Finding{
				RuleID:   r.ID(),
				Severity: r.Severity(),
				Category: r.Category(),
				Path:     path,
				Order:    label.Index,
				Line:     label.Line,
				Col:      label.Col,
				Message:  fmt.Sprintf("job %q runs on floating image %q", job.ID, label.Value),
				Why:      "floating runner images change underneath the workflow, so a passing build today can break or behave differently tomorrow",
				FixHint:  "pin the runner to an explicit version",
				Patch:    "runs-on: " + strings.TrimSuffix(label.Value, r.cfg.RunnerDenySuffix) + "-24.04",
			})
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// slim-runner-secrets
// ---------------------------------------------------------------------------

type slimRunnerSecrets struct{ cfg config.Config }

func (slimRunnerSecrets) ID() string                  { return "slim-runner-secrets" }
func (slimRunnerSecrets) Severity() findings.Severity { return findings.MustFix }
func (slimRunnerSecrets) Category() findings.Category { return findings.CategoryTriggers }
func (slimRunnerSecrets) Describe() string {
	return "jobs on slim runner images must not touch secrets without review"
}

func (r slimRunnerSecrets) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	for _, job := range doc.Jobs {
		exempt := false
		for _, label := range job.RunsOnValues() {
			if strings.HasSuffix(label.Value, r.cfg.RunnerExemptSuffix) {
				exempt = true
				break
			}
		}
		if !exempt || hasMarker(markerReviewed, job.IDNode, job.Node) {
			continue
		}
		for _, step := range job.Steps {
			hit := findSecretRef(step.With)
			if hit == nil {
				hit = findSecretRef(step.Env)
			}
			if hit == nil {
				hit = findSecretRef(step.Run)
			}
			if hit == nil {
				continue
			}
			out = append(out, findings.Finding{
				RuleID:   r.ID(),
				Severity: r.Severity(),
				Category: r.Category(),
				Path:     step.Path,
				Order:    hit.Index,
				Line:     hit.Line,
				Col:      hit.Col,
				Message:  fmt.Sprintf("job %q runs on a slim image and step %d references a secret", job.ID, step.Index),
				Why:      "slim images trade hardening for size; handing them secrets needs an explicit review decision",
				FixHint:  "move the job to a pinned full image, or record the review in a comment on the job (\"# reviewed: …\")",
			})
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// secrets-in-env
// ---------------------------------------------------------------------------

type secretsInEnv struct{}

func (secretsInEnv) ID() string                  { return "secrets-in-env" }
func (secretsInEnv) Severity() findings.Severity { return findings.MustFix }
func (secretsInEnv) Category() findings.Category { return findings.CategoryTriggers }
func (secretsInEnv) Describe() string {
	return "secret expressions must not appear in broad-scope env blocks"
}

func (r secretsInEnv) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding

	report := func(path string, hit *document.Node, scope string) {
		out = append(out, findings.Finding{
			RuleID:   r.ID(),
			Severity: r.Severity(),
			Category: r.Category(),
			Path:     path,
			Order:    hit.Index,
			Line:     hit.Line,
			Col:      hit.Col,
			Message:  fmt.Sprintf("secret expression exposed through the %s env block", scope),
			Why:      "every step inherits the block, so the secret reaches commands that have no business seeing it",
			FixHint:  "move the secret into the env or with block of the single step that needs it",
		})
	}

	if doc.Env != nil && doc.Env.Kind == document.Mapping {
		for _, p := range doc.Env.Pairs {
			if hit := findSecretRef(p.Value); hit != nil {
				report(document.Path("env", p.Key), hit, "workflow-level")
			}
		}
	}
	for _, job := range doc.Jobs {
		if job.Env == nil || job.Env.Kind != document.Mapping {
			continue
		}
		for _, p := range job.Env.Pairs {
			hit := findSecretRef(p.Value)
			if hit == nil {
				continue
			}
			if hasMarker(markerReviewed, p.KeyNode, p.Value, job.Env) {
				continue
			}
			report(job.Path+"/env/"+p.Key, hit, "job-level")
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// shell-strict-mode
// ---------------------------------------------------------------------------

const strictModePrefix = "set -euo pipefail"

type shellStrictMode struct{}

func (shellStrictMode) ID() string                  { return "shell-strict-mode" }
func (shellStrictMode) Severity() findings.Severity { return findings.MustFix }
func (shellStrictMode) Category() findings.Category { return findings.CategoryIdempotency }
func (shellStrictMode) Describe() string {
	return "multi-line run scripts must start with set -euo pipefail"
}

func (r shellStrictMode) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	for _, job := range doc.Jobs {
		for _, step := range job.Steps {
			if !isBlockScalar(step.Run) {
				continue
			}
			lines := logicalLines(step.Run.Value)
			if len(lines) <= 1 || strings.HasPrefix(lines[0], strictModePrefix) {
				continue
			}
			out = append(out, findings.Finding{
				RuleID:   r.ID(),
				Severity: r.Severity(),
				Category: r.Category(),
				Path:     step.Path + "/run",
				Order:    step.Run.Index,
				Line:     step.Run.Line,
				Col:      step.Run.Col,
				Message:  fmt.Sprintf("multi-line script in job %q does not enable strict shell mode", job.ID),
				Why:      "without set -euo pipefail a failing middle command is silently ignored and the step reports success",
				FixHint:  "make set -euo pipefail the first line of the script",
				Patch:    "run: |\n  set -euo pipefail\n  " + lines[0],
			})
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// timeout-missing / timeout-excessive
// ---------------------------------------------------------------------------

type timeoutMissing struct{}

func (timeoutMissing) ID() string                  { return "timeout-missing" }
func (timeoutMissing) Severity() findings.Severity { return findings.MustFix }
func (timeoutMissing) Category() findings.Category { return findings.CategoryPinning }
func (timeoutMissing) Describe() string {
	return "every job must declare timeout-minutes"
}

func (r timeoutMissing) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	for _, job := range doc.Jobs {
		if job.Timeout != nil {
			continue
		}
		out = append(out, findings.Finding{
			RuleID:   r.ID(),
			Severity: r.Severity(),
			Category: r.Category(),
			Path:     job.Path,
			Order:    job.IDNode.Index,
			Line:     job.IDNode.Line,
			Col:      job.IDNode.Col,
			Message:  fmt.Sprintf("job %q has no timeout-minutes", job.ID),
			Why:      "a hung job without a timeout holds its runner until the platform ceiling, blocking the queue and burning minutes",
			FixHint:  "declare timeout-minutes on the job",
			Patch:    "timeout-minutes: 10",
		})
	}
	return out
}

type timeoutExcessive struct{ cfg config.Config }

func (timeoutExcessive) ID() string                  { return "timeout-excessive" }
func (timeoutExcessive) Severity() findings.Severity { return findings.Improvement }
func (timeoutExcessive) Category() findings.Category { return findings.CategoryPinning }
func (timeoutExcessive) Describe() string {
	return "large timeout-minutes values need a justification comment"
}

func (r timeoutExcessive) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	for _, job := range doc.Jobs {
		v, ok := job.Timeout.Int()
		if !ok || v <= r.cfg.MaxTimeoutMinutes {
			continue
		}
		pair := job.Node.Pair("timeout-minutes")
		var keyNode *document.Node
		if pair != nil {
			keyNode = pair.KeyNode
		}
		if hasMarker(markerJustification, keyNode, job.Timeout) {
			continue
		}
		out = append(out, findings.Finding{
			RuleID:   r.ID(),
			Severity: r.Severity(),
			Category: r.Category(),
			Path:     job.Path + "/timeout-minutes",
			Order:    job.Timeout.Index,
			Line:     job.Timeout.Line,
			Col:      job.Timeout.Col,
			Message:  fmt.Sprintf("job %q allows %d minutes (limit %d) with no justification", job.ID, v, r.cfg.MaxTimeoutMinutes),
			Why:      "a generous timeout hides regressions that make the job drift slower over time",
			FixHint:  fmt.Sprintf("lower the timeout to %d minutes or record why it needs more (\"# justification: …\")", r.cfg.MaxTimeoutMinutes),
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// concurrency-missing / concurrency-group-fallback
// ---------------------------------------------------------------------------

func isPushTrigger(name string) bool { return name == "push" }

func isPullRequestTrigger(name string) bool {
	return name == "pull_request" || name == "pull_request_target"
}

type concurrencyMissing struct{}

func (concurrencyMissing) ID() string                  { return "concurrency-missing" }
func (concurrencyMissing) Severity() findings.Severity { return findings.MustFix }
func (concurrencyMissing) Category() findings.Category { return findings.CategoryConcurrency }
func (concurrencyMissing) Describe() string {
	return "push + pull_request triggers require a concurrency block"
}

func (r concurrencyMissing) Check(doc *schema.Document) []findings.Finding {
	var hasPush, hasPR bool
	for _, t := range doc.Triggers {
		hasPush = hasPush || isPushTrigger(t.Name)
		hasPR = hasPR || isPullRequestTrigger(t.Name)
	}
	if !hasPush || !hasPR || doc.Concurrency != nil {
		return nil
	}
	for _, job := range doc.Jobs {
		if job.Concurrency != nil {
			return nil
		}
	}
	return []findings.Finding{{
		RuleID:   r.ID(),
		Severity: r.Severity(),
		Category: r.Category(),
		Path:     "/",
		Order:    doc.Root.Index,
		Line:     doc.Root.Line,
		Col:      doc.Root.Col,
		Message:  "workflow triggers on both push and pull_request but declares no concurrency block",
		Why:      "the same commit can run twice in parallel and the runs race each other over shared resources",
		FixHint:  "add a concurrency block at workflow or job level",
		Patch:    "concurrency:\n  group: ${{ github.workflow }}-${{ github.head_ref || github.ref_name }}\n  cancel-in-progress: true",
	}}
}

type concurrencyGroupFallback struct{ cfg config.Config }

func (concurrencyGroupFallback) ID() string                  { return "concurrency-group-fallback" }
func (concurrencyGroupFallback) Severity() findings.Severity { return findings.Improvement }
func (concurrencyGroupFallback) Category() findings.Category { return findings.CategoryConcurrency }
func (concurrencyGroupFallback) Describe() string {
	return "concurrency groups should combine head_ref with a ref fallback"
}

func (r concurrencyGroupFallback) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	check := func(path string, node *document.Node) {
		group := node
		if node.Kind == document.Mapping {
			group = node.Get("group")
			path += "/group"
		}
		if group == nil || group.Kind != document.Scalar {
			return
		}
		fallback := r.cfg.ConcurrencyPattern.FallbackContext()
		if strings.Contains(group.Value, "github.head_ref") && strings.Contains(group.Value, fallback) {
			return
		}
		out = append(out, findings.Finding{
			RuleID:   r.ID(),
			Severity: r.Severity(),
			Category: r.Category(),
			Path:     path,
			Order:    group.Index,
			Line:     group.Line,
			Col:      group.Col,
			Message:  "concurrency group does not combine github.head_ref with " + fallback,
			Why:      "head_ref is empty outside pull requests, so a group keyed on it alone collapses all non-PR runs into one bucket",
			FixHint:  "key the group on ${{ github.head_ref || " + fallback + " }}",
			Patch:    "group: ${{ github.workflow }}-${{ github.head_ref || " + fallback + " }}",
		})
	}
	if doc.Concurrency != nil {
		check("/concurrency", doc.Concurrency)
	}
	for _, job := range doc.Jobs {
		if job.Concurrency != nil {
			check(job.Path+"/concurrency", job.Concurrency)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// destructive-command
// ---------------------------------------------------------------------------

type destructiveCommand struct{}

func (destructiveCommand) ID() string                  { return "destructive-command" }
func (destructiveCommand) Severity() findings.Severity { return findings.MustFix }
func (destructiveCommand) Category() findings.Category { return findings.CategoryIdempotency }
func (destructiveCommand) Describe() string {
	return "recursive deletes need an existence check or continue-on-error"
}

func (r destructiveCommand) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	for _, job := range doc.Jobs {
		for _, step := range job.Steps {
			if step.Run == nil || step.Run.Kind != document.Scalar {
				continue
			}
			if step.ContinueOnError != nil && step.ContinueOnError.Value == "true" {
				continue
			}
			guarded := false
			for _, line := range logicalLines(step.Run.Value) {
				if isExistenceCheck(line) {
					guarded = true
					continue
				}
				if !isRecursiveDelete(line) || guarded {
					continue
				}
				out = append(out, findings.Finding{
					RuleID:   r.ID(),
					Severity: r.Severity(),
					Category: r.Category(),
					Path:     step.Path + "/run",
					Order:    step.Run.Index,
					Line:     step.Run.Line,
					Col:      step.Run.Col,
					Message:  fmt.Sprintf("unguarded recursive delete in job %q: %q", job.ID, line),
					Why:      "re-running the step against an absent or half-built path turns a cleanup into data loss or a hard failure",
					FixHint:  "guard the delete with an existence check, or mark the step continue-on-error",
					Patch:    "run: |\n  if [ -d <path> ]; then\n    " + line + "\n  fi",
				})
				break // one finding per script is enough
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// no-jobs
// ---------------------------------------------------------------------------

type noJobs struct{}

func (noJobs) ID() string                  { return "no-jobs" }
func (noJobs) Severity() findings.Severity { return findings.MustFix }
func (noJobs) Category() findings.Category { return findings.CategoryTriggers }
func (noJobs) Describe() string {
	return "a workflow must define at least one job"
}

func (r noJobs) Check(doc *schema.Document) []findings.Finding {
	if len(doc.Jobs) > 0 {
		return nil
	}
	return []findings.Finding{{
		RuleID:   r.ID(),
		Severity: r.Severity(),
		Category: r.Category(),
		Path:     "/",
		Order:    doc.Root.Index,
		Line:     doc.Root.Line,
		Col:      doc.Root.Col,
		Message:  "no jobs found in document",
		Why:      "a workflow without jobs never runs anything; the file is either misplaced or mis-indented",
		FixHint:  "add a jobs mapping with at least one job",
	}}
}
