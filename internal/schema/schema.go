// Package schema classifies a parsed node tree into workflow constructs.
//
// Normalize never fails: a document that does not resemble a workflow simply
// produces a near-empty Document, and rules report the gaps as findings.
// Unrecognized keys stay reachable through the raw nodes, so ordering and
// style rules see every key whether the schema knows it or not.
package schema

import (
	"strconv"

	"wflint/internal/document"
)

// Document is the normalized, read-only view of one workflow.
type Document struct {
	Root *document.Node // raw tree, never nil

	Name        *document.Node // top-level name scalar, nil if absent
	Triggers    []Trigger      // in source order
	Permissions *document.Node
	Concurrency *document.Node
	Env         *document.Node // top-level env mapping
	Jobs        []Job          // in source order
}

// Trigger is one entry of the `on` section. Node is the trigger's
// configuration mapping for the mapping form, or the scalar naming it for
// the scalar and sequence forms.
type Trigger struct {
	Name string
	Node *document.Node
}

// Job is one named entry under `jobs`.
type Job struct {
	ID      string
	IDNode  *document.Node
	Node    *document.Node // the job mapping
	Path    string         // "/jobs/<id>"
	Name    *document.Node
	RunsOn  *document.Node // scalar or sequence
	Timeout *document.Node // timeout-minutes scalar

	Permissions *document.Node
	Concurrency *document.Node
	Env         *document.Node
	Strategy    *document.Node
	Matrix      *document.Node // strategy.matrix, nil if absent
	Outputs     *document.Node
	Steps       []Step
}

// Step is one entry of a job's steps sequence.
type Step struct {
	Index int
	Node  *document.Node
	Path  string // "/jobs/<id>/steps/<n>"

	Name            *document.Node
	ID              *document.Node
	If              *document.Node
	Uses            *document.Node
	Run             *document.Node
	With            *document.Node
	Env             *document.Node
	WorkingDir      *document.Node
	ContinueOnError *document.Node
}

// HasTrigger reports whether any trigger has the given event name.
func (d *Document) HasTrigger(name string) bool {
	for _, t := range d.Triggers {
		if t.Name == name {
			return true
		}
	}
	return false
}

// TriggerNames returns trigger event names in source order.
func (d *Document) TriggerNames() []string {
	names := make([]string, len(d.Triggers))
	for i, t := range d.Triggers {
		names[i] = t.Name
	}
	return names
}

// RunsOnValues flattens runs-on into its scalar labels (one for the scalar
// form, each element for the sequence form).
func (j *Job) RunsOnValues() []*document.Node {
	switch {
	case j.RunsOn == nil:
		return nil
	case j.RunsOn.Kind == document.Scalar:
		return []*document.Node{j.RunsOn}
	case j.RunsOn.Kind == document.Sequence:
		return j.RunsOn.Items
	default:
		return nil
	}
}

// Normalize builds the workflow view of root. Nil input normalizes the same
// way as an empty mapping.
func Normalize(root *document.Node) *Document {
	if root == nil {
		root = &document.Node{Kind: document.Mapping}
	}
	d := &Document{Root: root}
	if root.Kind != document.Mapping {
		return d
	}

	d.Name = root.Get("name")
	d.Permissions = root.Get("permissions")
	d.Concurrency = root.Get("concurrency")
	d.Env = root.Get("env")
	d.Triggers = normalizeTriggers(root.Get("on"))

	jobs := root.Get("jobs")
	if jobs == nil || jobs.Kind != document.Mapping {
		return d
	}
	for _, p := range jobs.Pairs {
		d.Jobs = append(d.Jobs, normalizeJob(p))
	}
	return d
}

func normalizeTriggers(on *document.Node) []Trigger {
	if on == nil {
		return nil
	}
	switch on.Kind {
	case document.Scalar:
		return []Trigger{{Name: on.Value, Node: on}}
	case document.Sequence:
		out := make([]Trigger, 0, len(on.Items))
		for _, item := range on.Items {
			if item.Kind == document.Scalar {
				out = append(out, Trigger{Name: item.Value, Node: item})
			}
		}
		return out
	case document.Mapping:
		out := make([]Trigger, 0, len(on.Pairs))
		for _, p := range on.Pairs {
			out = append(out, Trigger{Name: p.Key, Node: p.Value})
		}
		return out
	default:
		return nil
	}
}

func normalizeJob(p document.Pair) Job {
	j := Job{
		ID:     p.Key,
		IDNode: p.KeyNode,
		Node:   p.Value,
		Path:   document.Path("jobs", p.Key),
	}
	node := p.Value
	if node == nil || node.Kind != document.Mapping {
		return j
	}
	j.Name = node.Get("name")
	j.RunsOn = node.Get("runs-on")
	j.Timeout = node.Get("timeout-minutes")
	j.Permissions = node.Get("permissions")
	j.Concurrency = node.Get("concurrency")
	j.Env = node.Get("env")
	j.Strategy = node.Get("strategy")
	j.Matrix = j.Strategy.Get("matrix")
	j.Outputs = node.Get("outputs")

	steps := node.Get("steps")
	if steps == nil || steps.Kind != document.Sequence {
		return j
	}
	for i, sn := range steps.Items {
		j.Steps = append(j.Steps, normalizeStep(j.Path, i, sn))
	}
	return j
}

func normalizeStep(jobPath string, index int, node *document.Node) Step {
	s := Step{
		Index: index,
		Node:  node,
		Path:  jobPath + "/steps/" + strconv.Itoa(index),
	}
	if node == nil || node.Kind != document.Mapping {
		return s
	}
	s.Name = node.Get("name")
	s.ID = node.Get("id")
	s.If = node.Get("if")
	s.Uses = node.Get("uses")
	s.Run = node.Get("run")
	s.With = node.Get("with")
	s.Env = node.Get("env")
	s.WorkingDir = node.Get("working-directory")
	s.ContinueOnError = node.Get("continue-on-error")
	return s
}
