package rules

// style.go — consistency checks: naming, scalar styles, anchors, and
// expression delimiters.

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"wflint/internal/config"
	"wflint/internal/document"
	"wflint/internal/findings"
	"wflint/internal/schema"
)

// ---------------------------------------------------------------------------
// name-casing
// ---------------------------------------------------------------------------

// smallWords may stay lowercase mid-title under the standard-title-case
// policy.
var smallWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "to": true, "in": true, "on": true, "for": true, "with": true,
}

// isTitleCase applies the configured casing policy to a display name.
// Words starting with a non-letter (numbers) and everything inside a
// ${{ … }} expression are exempt; hyphenated words are judged by their
// first segment.
func isTitleCase(s string, policy config.CasingPolicy) bool {
	words := strings.Fields(s)
	inExpr := false
	for i, w := range words {
		if inExpr {
			if strings.Contains(w, "}}") {
				inExpr = false
			}
			continue
		}
		if strings.Contains(w, "${{") {
			inExpr = !strings.Contains(w, "}}")
			continue
		}
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsLetter(r) {
			continue
		}
		if policy == config.CasingStandard && i > 0 && i < len(words)-1 && smallWords[w] {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

type nameCasing struct{ cfg config.Config }

func (nameCasing) ID() string { return "name-casing" }
func (nameCasing) Severity() findings.Severity { return findings.Improvement }
func (nameCasing) Category() findings.Category { return findings.CategoryOrdering }
func (nameCasing) Describe() string {
	return "workflow, job, and step names follow the configured Title Case"
}

func (r nameCasing) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	report := func(path, kind string, n *document.Node) {
		if n == nil || n.Kind != document.Scalar || isTitleCase(n.Value, r.cfg.CasingPolicy) {
			return
		}
		out = append(out, findings.Finding{
			RuleID:   "name-casing",
			Severity: findings.Improvement,
			Category: findings.CategoryOrdering,
			Path:     path,
			Order:    n.Index,
			Line:     n.Line,
			Col:      n.Col,
			Message:  fmt.Sprintf("%s name %q is not Title Case", kind, n.Value),
			Why:      "mixed casing across names makes run listings harder to scan",
			FixHint:  "capitalize each word of the display name",
		})
	}
	report("/name", "workflow", doc.Name)
	for _, job := range doc.Jobs {
		report(job.Path+"/name", "job", job.Name)
		for _, step := range job.Steps {
			report(step.Path+"/name", "step", step.Name)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// id-naming
// ---------------------------------------------------------------------------

var snakeCaseRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type idNaming struct{}

func (idNaming) ID() string { return "id-naming" }
func (idNaming) Severity() findings.Severity { return findings.Improvement }
func (idNaming) Category() findings.Category { return findings.CategoryOrdering }
func (idNaming) Describe() string {
	return "step ids, output keys, and input keys are snake_case"
}

func (r idNaming) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	report := func(path, kind, value string, n *document.Node) {
		if snakeCaseRe.MatchString(value) {
			return
		}
		out = append(out, findings.Finding{
			RuleID:   "id-naming",
			Severity: findings.Improvement,
			Category: findings.CategoryOrdering,
			Path:     path,
			Order:    n.Index,
			Line:     n.Line,
			Col:      n.Col,
			Message:  fmt.Sprintf("%s %q is not snake_case", kind, value),
			Why:      "identifiers are referenced from expressions; one naming shape keeps those references predictable",
			FixHint:  "rename to lower snake_case",
		})
	}

	for _, t := range doc.Triggers {
		if t.Name != "workflow_dispatch" && t.Name != "workflow_call" {
			continue
		}
		inputs := t.Node.Get("inputs")
		if inputs == nil || inputs.Kind != document.Mapping {
			continue
		}
		for _, p := range inputs.Pairs {
			report(document.Path("on", t.Name, "inputs", p.Key), "input key", p.Key, p.KeyNode)
		}
	}
	for _, job := range doc.Jobs {
		if job.Outputs != nil && job.Outputs.Kind == document.Mapping {
			for _, p := range job.Outputs.Pairs {
				report(job.Path+"/outputs/"+p.Key, "output key", p.Key, p.KeyNode)
			}
		}
		for _, step := range job.Steps {
			if step.ID != nil && step.ID.Kind == document.Scalar {
				report(step.Path+"/id", "step id", step.ID.Value, step.ID)
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// matrix-name
// ---------------------------------------------------------------------------

type matrixName struct{}

func (matrixName) ID() string { return "matrix-name" }
func (matrixName) Severity() findings.Severity { return findings.Improvement }
func (matrixName) Category() findings.Category { return findings.CategoryOrdering }
func (matrixName) Describe() string {
	return "matrix job names should interpolate a matrix variable"
}

func (r matrixName) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	for _, job := range doc.Jobs {
		if job.Matrix == nil || job.Name == nil || job.Name.Kind != document.Scalar {
			continue
		}
		if strings.Contains(job.Name.Value, "matrix.") {
			continue
		}
		out = append(out, findings.Finding{
			RuleID:   "matrix-name",
			Severity: findings.Improvement,
			Category: findings.CategoryOrdering,
			Path:     job.Path + "/name",
			Order:    job.Name.Index,
			Line:     job.Name.Line,
			Col:      job.Name.Col,
			Message:  fmt.Sprintf("matrix job %q has a fixed name; its runs are indistinguishable", job.ID),
			Why:      "every matrix leg shows the same label in the run list, so a failing leg cannot be told apart",
			FixHint:  "interpolate the matrix variable into the name",
			Patch:    fmt.Sprintf("name: %s (${{ matrix.%s }})", job.Name.Value, firstMatrixKey(job.Matrix)),
		})
	}
	return out
}

func firstMatrixKey(matrix *document.Node) string {
	if matrix != nil && matrix.Kind == document.Mapping && len(matrix.Pairs) > 0 {
		return matrix.Pairs[0].Key
	}
	return "variant"
}

// ---------------------------------------------------------------------------
// scalar-style
// ---------------------------------------------------------------------------

type scalarStyle struct{}

func (scalarStyle) ID() string { return "scalar-style" }
func (scalarStyle) Severity() findings.Severity { return findings.Improvement }
func (scalarStyle) Category() findings.Category { return findings.CategoryOrdering }
func (scalarStyle) Describe() string {
	return "single-line values do not need block scalar syntax"
}

func (r scalarStyle) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	walk(doc.Root, "/", func(path string, n *document.Node) {
		if !isBlockScalar(n) {
			return
		}
		if strings.Contains(strings.TrimRight(n.Value, "\n"), "\n") {
			return
		}
		out = append(out, findings.Finding{
			RuleID:   "scalar-style",
			Severity: findings.Improvement,
			Category: findings.CategoryOrdering,
			Path:     path,
			Order:    n.Index,
			Line:     n.Line,
			Col:      n.Col,
			Message:  fmt.Sprintf("single-line value %q uses %s style", strings.TrimRight(n.Value, "\n"), n.Style),
			Why:      "block syntax signals a multi-line script; using it for one line misleads the reader",
			FixHint:  "write the value as a plain scalar",
		})
	})
	return out
}

// ---------------------------------------------------------------------------
// anchor-usage
// ---------------------------------------------------------------------------

type anchorUsage struct{}

func (anchorUsage) ID() string { return "anchor-usage" }
func (anchorUsage) Severity() findings.Severity { return findings.Improvement }
func (anchorUsage) Category() findings.Category { return findings.CategoryOrdering }
func (anchorUsage) Describe() string {
	return "YAML anchors and aliases are avoided in workflows"
}

func (r anchorUsage) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	walk(doc.Root, "/", func(path string, n *document.Node) {
		var what string
		switch {
		case n.Anchor != "":
			what = fmt.Sprintf("anchor &%s", n.Anchor)
		case n.Style == document.StyleAnchorRef:
			what = "alias reference"
		default:
			return
		}
		out = append(out, findings.Finding{
			RuleID:   "anchor-usage",
			Severity: findings.Improvement,
			Category: findings.CategoryOrdering,
			Path:     path,
			Order:    n.Index,
			Line:     n.Line,
			Col:      n.Col,
			Message:  what + " used",
			Why:      "several workflow runners and review tools resolve anchors differently or not at all",
			FixHint:  "inline the shared block, duplicating it where needed",
		})
	})
	return out
}

// ---------------------------------------------------------------------------
// if-expression
// ---------------------------------------------------------------------------

type ifExpression struct{}

func (ifExpression) ID() string { return "if-expression" }
func (ifExpression) Severity() findings.Severity { return findings.Improvement }
func (ifExpression) Category() findings.Category { return findings.CategoryOrdering }
func (ifExpression) Describe() string {
	return "if conditions are wrapped in ${{ … }} delimiters"
}

func (r ifExpression) Check(doc *schema.Document) []findings.Finding {
	var out []findings.Finding
	report := func(path string, n *document.Node) {
		if n == nil || n.Kind != document.Scalar || isExpression(n.Value) {
			return
		}
		out = append(out, findings.Finding{
			RuleID:   "if-expression",
			Severity: findings.Improvement,
			Category: findings.CategoryOrdering,
			Path:     path,
			Order:    n.Index,
			Line:     n.Line,
			Col:      n.Col,
			Message:  fmt.Sprintf("if condition %q is not wrapped in ${{ … }}", n.Value),
			Why:      "bare conditions rely on implicit expression coercion, which treats some misspellings as the constant true",
			FixHint:  "wrap the condition in the expression delimiters",
			Patch:    fmt.Sprintf("if: ${{ %s }}", n.Value),
		})
	}
	for _, job := range doc.Jobs {
		report(job.Path+"/if", job.Node.Get("if"))
		for _, step := range job.Steps {
			report(step.Path+"/if", step.If)
		}
	}
	return out
}
