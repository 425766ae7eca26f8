// Package report renders a ranked findings list into the fixed four-part
// review text: Summary, Must-fix, Improvements, Quick Checklist.
package report

import (
	"fmt"
	"strings"

	"wflint/internal/document"
	"wflint/internal/findings"
	"wflint/internal/schema"
)

// Render formats the review for one workflow document. Pure formatting: the
// same document and findings always produce byte-identical text.
func Render(doc *schema.Document, ranked []findings.Finding) string {
	var b strings.Builder
	b.WriteString("# Workflow Review\n\n")
	writeSummary(&b, doc, ranked)
	writeTier(&b, "Must-fix", tier(ranked, findings.MustFix))
	writeTier(&b, "Improvements", tier(ranked, findings.Improvement))
	writeChecklist(&b, ranked)
	return b.String()
}

func tier(ranked []findings.Finding, sev findings.Severity) []findings.Finding {
	var out []findings.Finding
	for _, f := range ranked {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

func writeSummary(b *strings.Builder, doc *schema.Document, ranked []findings.Finding) {
	b.WriteString("## Summary\n\n")

	subject := "The workflow"
	if doc.Name != nil && doc.Name.Kind == document.Scalar && doc.Name.Value != "" {
		subject = fmt.Sprintf("Workflow %q", doc.Name.Value)
	}

	triggers := doc.TriggerNames()
	trigPart := "declares no triggers"
	if len(triggers) > 0 {
		trigPart = "triggers on " + strings.Join(triggers, ", ")
	}

	jobIDs := make([]string, 0, len(doc.Jobs))
	for _, job := range doc.Jobs {
		jobIDs = append(jobIDs, job.ID)
	}
	jobPart := "defines no jobs"
	if len(jobIDs) > 0 {
		jobPart = fmt.Sprintf("runs %s (%s)",
			plural(len(jobIDs), "job"), strings.Join(jobIDs, ", "))
	}

	fmt.Fprintf(b, "%s %s and %s. ", subject, trigPart, jobPart)

	must := findings.Count(ranked, findings.MustFix)
	impr := findings.Count(ranked, findings.Improvement)
	switch {
	case must == 0 && impr == 0:
		b.WriteString("The review found nothing to flag.\n\n")
	case must == 0:
		fmt.Fprintf(b, "The review found %s.\n\n", plural(impr, "improvement"))
	default:
		fmt.Fprintf(b, "The review found %s and %s.\n\n",
			plural(must, "must-fix issue"), plural(impr, "improvement"))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// ---------------------------------------------------------------------------
// Finding tiers
// ---------------------------------------------------------------------------

func writeTier(b *strings.Builder, title string, list []findings.Finding) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(list) == 0 {
		b.WriteString("Nothing in this tier.\n\n")
		return
	}
	for i, f := range list {
		fmt.Fprintf(b, "%d. [%s] %s (line %d)\n", i+1, f.RuleID, f.Path, f.Line)
		fmt.Fprintf(b, "   Issue: %s\n", f.Message)
		fmt.Fprintf(b, "   Why it matters: %s\n", f.Why)
		fmt.Fprintf(b, "   Requested change: %s\n", f.FixHint)
		if f.Patch != "" {
			b.WriteString("   Suggested patch:\n")
			for _, line := range strings.Split(f.Patch, "\n") {
				b.WriteString("       " + line + "\n")
			}
		}
		b.WriteString("\n")
	}
}

// ---------------------------------------------------------------------------
// Checklist
// ---------------------------------------------------------------------------

// A checked box means the review flagged something in that category; a clean
// workflow renders all six boxes unchecked.
func writeChecklist(b *strings.Builder, ranked []findings.Finding) {
	b.WriteString("## Quick Checklist\n\n")
	for _, c := range findings.Categories() {
		mark := " "
		if findings.HasCategory(ranked, c) {
			mark = "x"
		}
		fmt.Fprintf(b, "- [%s] %s\n", mark, c)
	}
}
