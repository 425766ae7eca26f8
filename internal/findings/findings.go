// Package findings defines the linter's output unit and the aggregation
// step that turns per-rule result lists into one ranked, deduplicated list.
package findings

import "sort"

// Severity partitions findings into exactly two tiers.
type Severity uint8

const (
	MustFix Severity = iota + 1
	Improvement
)

func (s Severity) String() string {
	if s == MustFix {
		return "must-fix"
	}
	return "improvement"
}

// Category maps a finding onto one of the six checklist items.
type Category uint8

const (
	CategoryTriggers Category = iota
	CategoryPinning
	CategoryCaching
	CategoryOrdering
	CategoryConcurrency
	CategoryIdempotency
	categoryCount
)

// Categories lists all checklist categories in report order.
func Categories() []Category {
	out := make([]Category, categoryCount)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

func (c Category) String() string {
	switch c {
	case CategoryTriggers:
		return "Triggers & Permissions"
	case CategoryPinning:
		return "Pinning & Timeouts"
	case CategoryCaching:
		return "Caching & Artifacts"
	case CategoryOrdering:
		return "Key Ordering & Naming"
	case CategoryConcurrency:
		return "Concurrency"
	case CategoryIdempotency:
		return "Idempotent Operations"
	default:
		return "Unknown"
	}
}

// Finding is one reported issue. Immutable once created.
//
// Order is the document-order index of the offending node; the aggregator
// uses it so findings come out in source order within a severity tier.
type Finding struct {
	RuleID   string
	Severity Severity
	Category Category

	Path  string // JSON-pointer-like location
	Order int
	Line  int
	Col   int

	Message string // the issue itself
	Why     string // why it matters
	FixHint string // requested change
	Patch   string // optional suggested patch snippet
}

// Aggregate merges per-rule result lists into a single ranked list.
//
// Exact (RuleID, Path) duplicates collapse to the first occurrence; distinct
// rules firing on the same location all survive. The sort is stable on
// (severity rank, document order, rule id), so repeated runs over the same
// document produce identical output regardless of rule completion order.
func Aggregate(results [][]Finding) []Finding {
	var out []Finding
	seen := make(map[[2]string]bool)
	for _, rr := range results {
		for _, f := range rr {
			key := [2]string{f.RuleID, f.Path}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity < out[j].Severity
		}
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

// Count returns how many findings carry the given severity.
func Count(list []Finding, sev Severity) int {
	n := 0
	for _, f := range list {
		if f.Severity == sev {
			n++
		}
	}
	return n
}

// HasCategory reports whether any finding belongs to category c.
func HasCategory(list []Finding, c Category) bool {
	for _, f := range list {
		if f.Category == c {
			return true
		}
	}
	return false
}
