// Package rules holds the lint rule catalog and the engine that evaluates
// it. Every rule is a pure, total function of the normalized document: no
// shared mutable state, no I/O, no error returns. A construct a rule cannot
// classify is skipped, and its absence means "no findings".
package rules

import (
	"wflint/internal/config"
	"wflint/internal/findings"
	"wflint/internal/schema"
)

// Rule is one independent check. Implementations must be deterministic and
// safe to evaluate concurrently against the same read-only document.
type Rule interface {
	// ID is the rule's stable kebab-case identifier.
	ID() string
	// Severity is the tier the rule reports at (timeout checks split across
	// two rule ids so each rule stays single-tier).
	Severity() findings.Severity
	// Category maps the rule onto one checklist item.
	Category() findings.Category
	// Describe returns a one-line summary for rule listings.
	Describe() string
	// Check evaluates the rule and returns zero or more findings.
	Check(doc *schema.Document) []findings.Finding
}

// Registry is the immutable rule catalog, built once per process.
type Registry struct {
	rules []Rule
}

// NewRegistry builds the full catalog in its fixed evaluation order.
func NewRegistry(cfg config.Config) *Registry {
	return &Registry{rules: []Rule{
		// Security / reliability.
		permissionsMissing{},
		runnerUnpinned{cfg: cfg},
		slimRunnerSecrets{cfg: cfg},
		secretsInEnv{},
		shellStrictMode{},
		timeoutMissing{},
		timeoutExcessive{cfg: cfg},
		concurrencyMissing{},
		concurrencyGroupFallback{cfg: cfg},
		destructiveCommand{},
		noJobs{},
		// Best practice.
		pushBranchFilter{},
		scheduleNotification{},
		manualCache{},
		artifactRetention{cfg: cfg},
		workingDirectory{},
		runLength{cfg: cfg},
		// Style / consistency.
		nameCasing{cfg: cfg},
		idNaming{},
		matrixName{},
		scalarStyle{},
		anchorUsage{},
		ifExpression{},
		keyOrder{},
	}}
}

// Rules returns the catalog in evaluation order.
func (r *Registry) Rules() []Rule {
	return r.rules
}
