package rules

// practice.go — the improvement tier for workflow logic: trigger hygiene,
// caching, artifacts, and script shape.

import (
	"fmt"
	"strings"

	"wflint/internal/config"
	"wflint/internal/document"
	"wflint/internal/findings"
	"wflint/internal/schema"
)

// ---------------------------------------------------------------------------
// push-branch-filter
// ---------------------------------------------------------------------------

type pushBranchFilter struct{}

func (pushBranchFilter) ID() string { return "push-branch-filter" }
func (pushBranchFilter) Severity() findings.Severity { return findings.Improvement }
func (pushBranchFilter) Category() findings.Category { return findings.CategoryTriggers }
func (pushBranchFilter) Describe() string {
	return "push triggers alongside pull_request should carry a branch filter"
}

func (r pushBranchFilter) Check(doc *schema.Document) []findings.Finding {
	hasPR := false
	for _, t := range doc.Triggers {
		if isPullRequestTrigger(t.Name) {
			hasPR = true
		}
	}
	if !hasPR {
		return nil
	}
	var out []findings.Finding
	for _, t := range doc.Triggers {
		if !isPushTrigger(t.Name) {
			continue
		}
		if t.Node != nil && t.Node.Kind == document.Mapping {
			if t.Node.Get("branches") != nil || t.Node.Get("branches-ignore") != nil || t.Node.Get("tags") != nil {
				continue
			}
		}
		out = append(out, findings.Finding{
			RuleID:   r.ID(),
			Severity: r.Severity(),
			Category: r.Category(),
			Path:     "/on/push",
			Order:    t.Node.Index,
			Line:     t.Node.Line,
			Col:      t.Node.Col,
			Message:  "push trigger has no branch filter although pull_request is also configured",
			Why:      "an unfiltered push trigger re-runs the same commits the pull_request trigger already covers",
			FixHint:  "restrict push to the long-lived branches",
			Patch:    "on:\n  push:\n    branches: [main]",
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// schedule-notification
// ---------------------------------------------------------------------------

// notifyActionHints marks uses: targets that can alert a human.
var notifyActionHints = []string{"slack", "notify", "mail", "teams", "discord", "pager"}

type scheduleNotification struct{}

func (scheduleNotification) ID() string { return "schedule-notification" }
func (scheduleNotification) Severity() findings.Severity { return findings.Improvement }
func (scheduleNotification) Category() findings.Category { return findings.CategoryTriggers }
func (scheduleNotification) Describe() string {
	return "scheduled workflows should notify someone on failure"
}

func (r scheduleNotification) Check(doc *schema.Document) []findings.Finding {
	var schedule *document.Node
	for _, t := range doc.Triggers {
		if t.Name == "schedule" {
			schedule = t.Node
		}
	}
	if schedule == nil {
		return nil
	}
	for _, job := range doc.Jobs {
		for _, step := range job.Steps {
			if step.Uses != nil {
				uses := strings.ToLower(step.Uses.Value)
				for _, hint := range notifyActionHints {
					if strings.Contains(uses, hint) {
						return nil
					}
				}
			}
			if step.Run != nil && strings.Contains(strings.ToLower(step.Run.Value), "webhook") {
				return nil
			}
		}
	}
	return []findings.Finding{{
		RuleID:   r.ID(),
		Severity: r.Severity(),
		Category: r.Category(),
		Path:     "/on/schedule",
		Order:    schedule.Index,
		Line:     schedule.Line,
		Col:      schedule.Col,
		Message:  "scheduled workflow has no notification-capable step",
		Why:      "nobody watches cron runs; failures go unnoticed until something downstream breaks",
		FixHint:  "add a failure-notification step (chat webhook, mail action) to one of the jobs",
	}}
}

// ---------------------------------------------------------------------------
// manual-cache
// ---------------------------------------------------------------------------

// dependencyDirs are cache paths that setup actions can manage natively.
var dependencyDirs = []string{
	"node_modules", "~/.npm", "~/.cache/pip", "~/.m2", "vendor/bundle", "~/go/pkg/mod",
}

type manualCache struct{}

func (manualCache) ID() string { return "manual-cache" }
func (manualCache) Severity() findings.Severity { return findings.Improvement }
func (manualCache) Category() findings.Category { return findings.CategoryCaching }
func (manualCache) Describe() string {
	return "prefer setup-action native caching over a manual actions/cache step"
}

func (r manualCache) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	for _, job := range doc.Jobs {
		hasSetup := false
		for _, step := range job.Steps {
			if step.Uses != nil && strings.HasPrefix(step.Uses.Value, "actions/setup-") {
				hasSetup = true
				break
			}
		}
		if !hasSetup {
			continue
		}
		for _, step := range job.Steps {
			if step.Uses == nil || !strings.HasPrefix(step.Uses.Value, "actions/cache") {
				continue
			}
			cachePath := step.With.Get("path")
			if cachePath == nil {
				continue
			}
			for _, dir := range dependencyDirs {
				if !strings.Contains(cachePath.Value, dir) {
					continue
				}
				out = append(out, findings.Finding{
					RuleID:   r.ID(),
					Severity: r.Severity(),
					Category: r.Category(),
					Path:     step.Path,
					Order:    step.Node.Index,
					Line:     step.Node.Line,
					Col:      step.Node.Col,
					Message:  fmt.Sprintf("job %q caches %q manually next to a setup action", job.ID, cachePath.Value),
					Why:      "the setup action already knows the right cache key and path; a parallel manual cache drifts and double-stores",
					FixHint:  "drop the actions/cache step and enable the setup action's cache option",
					Patch:    "with:\n  cache: true",
				})
				break
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// artifact-retention
// ---------------------------------------------------------------------------

type artifactRetention struct{ cfg config.Config }

func (artifactRetention) ID() string { return "artifact-retention" }
func (artifactRetention) Severity() findings.Severity { return findings.Improvement }
func (artifactRetention) Category() findings.Category { return findings.CategoryCaching }
func (artifactRetention) Describe() string {
	return "artifact uploads should declare a short retention-days"
}

func (r artifactRetention) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	for _, job := range doc.Jobs {
		for _, step := range job.Steps {
			if step.Uses == nil || !strings.HasPrefix(step.Uses.Value, "actions/upload-artifact") {
				continue
			}
			retention := step.With.Get("retention-days")
			if retention == nil {
				out = append(out, findings.Finding{
					RuleID:   r.ID(),
					Severity: r.Severity(),
					Category: r.Category(),
					Path:     step.Path,
					Order:    step.Node.Index,
					Line:     step.Node.Line,
					Col:      step.Node.Col,
					Message:  fmt.Sprintf("artifact upload in job %q has no retention-days", job.ID),
					Why:      "default retention keeps every build's artifacts for months and quietly eats storage quota",
					FixHint:  "set retention-days on the upload step",
					Patch:    fmt.Sprintf("with:\n  retention-days: %d", r.cfg.MaxRetentionDays),
				})
				continue
			}
			if v, ok := retention.Int(); ok && v > r.cfg.MaxRetentionDays {
				out = append(out, findings.Finding{
					RuleID:   r.ID(),
					Severity: r.Severity(),
					Category: r.Category(),
					Path:     step.Path + "/with/retention-days",
					Order:    retention.Index,
					Line:     retention.Line,
					Col:      retention.Col,
					Message:  fmt.Sprintf("retention-days %d exceeds the limit of %d", v, r.cfg.MaxRetentionDays),
					Why:      "CI artifacts are scratch output; days, not weeks, is almost always enough",
					FixHint:  fmt.Sprintf("lower retention-days to at most %d", r.cfg.MaxRetentionDays),
				})
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// working-directory
// ---------------------------------------------------------------------------

type workingDirectory struct{}

func (workingDirectory) ID() string { return "working-directory" }
func (workingDirectory) Severity() findings.Severity { return findings.Improvement }
func (workingDirectory) Category() findings.Category { return findings.CategoryIdempotency }
func (workingDirectory) Describe() string {
	return "use the working-directory attribute instead of cd in scripts"
}

func (r workingDirectory) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	for _, job := range doc.Jobs {
		for _, step := range job.Steps {
			if step.Run == nil || step.Run.Kind != document.Scalar {
				continue
			}
			for _, line := range logicalLines(step.Run.Value) {
				if !strings.HasPrefix(line, "cd ") {
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
					Message:  fmt.Sprintf("script in job %q changes directory with %q", job.ID, line),
					Why:      "an in-script cd leaks into later commands of the same step and hides the step's real working root",
					FixHint:  "set the step's working-directory attribute instead",
					Patch:    "working-directory: " + strings.TrimSpace(strings.TrimPrefix(line, "cd ")),
				})
				break
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// run-length
// ---------------------------------------------------------------------------

type runLength struct{ cfg config.Config }

func (runLength) ID() string { return "run-length" }
func (runLength) Severity() findings.Severity { return findings.Improvement }
func (runLength) Category() findings.Category { return findings.CategoryIdempotency }
func (runLength) Describe() string {
	return "long inline scripts belong in a checked-in script file"
}

func (r runLength) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	for _, job := range doc.Jobs {
		for _, step := range job.Steps {
			if step.Run == nil || step.Run.Kind != document.Scalar {
				continue
			}
			n := len(logicalLines(step.Run.Value))
			if n <= r.cfg.MaxRunLines {
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
				Message:  fmt.Sprintf("inline script in job %q spans %d logical lines (limit %d)", job.ID, n, r.cfg.MaxRunLines),
				Why:      "long inline scripts cannot be shell-checked, tested, or reused outside the workflow",
				FixHint:  "extract the script into the repository and invoke it from the step",
				Patch:    "run: ./scripts/" + job.ID + ".sh",
			})
		}
	}
	return out
}
