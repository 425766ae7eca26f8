package rules

// ordering.go — canonical key ordering at root, job, and step level.
//
// A key is out of order when some earlier key in the document should come
// after it canonically; the finding names the first such key. Keys outside
// the canonical list have no defined position and are ignored.

import (
	"fmt"

	"wflint/internal/document"
	"wflint/internal/findings"
	"wflint/internal/schema"
)

var rootKeyOrder = []string{
	"name", "run-name", "on", "permissions", "concurrency", "defaults", "env", "jobs",
}

var jobKeyOrder = []string{
	"name", "needs", "if", "snapshot", "permissions", "strategy", "environment",
	"runs-on", "container", "timeout-minutes", "continue-on-error", "concurrency",
	"outputs", "defaults", "services", "env", "uses", "secrets", "with", "steps",
}

var stepKeyOrder = []string{
	"name", "id", "if", "continue-on-error", "timeout-minutes", "uses", "with",
	"secrets", "shell", "env", "working-directory", "run",
}

func rankMap(order []string) map[string]int {
	m := make(map[string]int, len(order))
	for i, k := range order {
		m[k] = i
	}
	return m
}

var (
	rootRanks = rankMap(rootKeyOrder)
	jobRanks  = rankMap(jobKeyOrder)
	stepRanks = rankMap(stepKeyOrder)
)

type keyOrder struct{}

func (keyOrder) ID() string { return "key-order" }
func (keyOrder) Severity() findings.Severity { return findings.Improvement }
func (keyOrder) Category() findings.Category { return findings.CategoryOrdering }
func (keyOrder) Describe() string {
	return "root, job, and step keys follow the canonical ordering"
}

func (r keyOrder) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	out = append(out, checkKeyOrder(doc.Root, "", "root", rootRanks)...)
	for _, job := range doc.Jobs {
		out = append(out, checkKeyOrder(job.Node, job.Path, "job "+job.ID, jobRanks)...)
		for _, step := range job.Steps {
			out = append(out, checkKeyOrder(step.Node, step.Path, fmt.Sprintf("job %s step %d", job.ID, step.Index), stepRanks)...)
		}
	}
	return out
}

func checkKeyOrder(node *document.Node, basePath, scope string, ranks map[string]int) []findings.Finding {
	if node == nil || node.Kind != document.Mapping {
		return nil
	}
	var out []findings.Finding
	type placed struct {
		key  string
		rank int
	}
	var seen []placed
	for _, p := range node.Pairs {
		rank, known := ranks[p.Key]
		if !known {
			continue
		}
		for _, s := range seen {
			if s.rank <= rank {
				continue
			}
			out = append(out, findings.Finding{
				RuleID:   "key-order",
				Severity: findings.Improvement,
				Category: findings.CategoryOrdering,
				Path:     basePath + "/" + p.Key,
				Order:    p.KeyNode.Index,
				Line:     p.KeyNode.Line,
				Col:      p.KeyNode.Col,
				Message:  fmt.Sprintf("%s: key %q expected before %q", scope, p.Key, s.key),
				Why:      "a fixed key order lets reviewers find triggers, permissions, and steps without re-reading each file's layout",
				FixHint:  fmt.Sprintf("move %q before %q", p.Key, s.key),
			})
			break
		}
		seen = append(seen, placed{p.Key, rank})
	}
	return out
}
