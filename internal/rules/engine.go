package rules

// engine.go — concurrent rule evaluation.
//
// Rules only read the normalized document, so the engine runs them all in
// parallel and merges by registry position: the caller sees the same result
// slice ordering no matter which goroutine finished first.

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"wflint/internal/findings"
	"wflint/internal/schema"
)

// Run evaluates every rule against doc and returns one result list per rule,
// in registry order. A rule that panics contributes an empty result; it
// never aborts evaluation of the other rules.
func (r *Registry) Run(ctx context.Context, doc *schema.Document) [][]findings.Finding {
	results := make([][]findings.Finding, len(r.rules))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rule := range r.rules {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = checkIsolated(rule, doc)
			return nil
		})
	}
	_ = g.Wait() // cancellation surfaces as missing results, not a crash
	return results
}

// checkIsolated runs one rule, converting a panic into an empty result.
func checkIsolated(rule Rule, doc *schema.Document) (out []findings.Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
		}
	}()
	return rule.Check(doc)
}
