package rules

// script.go — shared predicates over scalar values and shell bodies.

import (
	"strconv"
	"strings"

	"wflint/internal/document"
)

// logicalLines splits a script body into logical lines: blank lines and
// comment-only lines are dropped, and a trailing backslash joins a line with
// its continuation so the pair counts once.
func logicalLines(body string) []string {
	var out []string
	continued := false
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if continued {
			continued = strings.HasSuffix(line, "\\")
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		continued = strings.HasSuffix(line, "\\")
		out = append(out, line)
	}
	return out
}

// referencesSecret reports whether a scalar value mentions the secrets
// context.
func referencesSecret(s string) bool {
	return strings.Contains(s, "secrets.")
}

// findSecretRef walks a subtree and returns the first scalar node that
// references a secret, in document order.
func findSecretRef(n *document.Node) *document.Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case document.Scalar:
		if referencesSecret(n.Value) {
			return n
		}
	case document.Sequence:
		for _, item := range n.Items {
			if hit := findSecretRef(item); hit != nil {
				return hit
			}
		}
	case document.Mapping:
		for _, p := range n.Pairs {
			if hit := findSecretRef(p.Value); hit != nil {
				return hit
			}
		}
	}
	return nil
}

// hasMarker reports whether any comment attached to the given nodes carries
// a line starting with the marker prefix (after stripping '#' and spaces).
// Used for the "reviewed:" and "justification:" annotations.
func hasMarker(prefix string, nodes ...*document.Node) bool {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		for _, line := range strings.Split(n.Comments(), "\n") {
			line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
			if strings.HasPrefix(line, prefix) {
				return true
			}
		}
	}
	return false
}

// isExpression reports whether s is wrapped in the ${{ … }} template
// delimiters.
func isExpression(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "${{") && strings.HasSuffix(s, "}}")
}

// isRecursiveDelete reports whether a logical line invokes rm with both the
// recursive and force flags, in any spelling (-rf, -fr, -Rf, separate flags).
func isRecursiveDelete(line string) bool {
	fields := strings.Fields(line)
	for i, f := range fields {
		f = strings.TrimLeft(f, "(;&|")
		if f != "rm" {
			continue
		}
		var recursive, force bool
		for _, flag := range fields[i+1:] {
			if !strings.HasPrefix(flag, "-") {
				continue
			}
			if strings.ContainsAny(flag, "rR") {
				recursive = true
			}
			if strings.Contains(flag, "f") {
				force = true
			}
		}
		if recursive && force {
			return true
		}
	}
	return false
}

// isExistenceCheck reports whether a logical line guards a path's existence
// (test/[/[[ with a file operator).
func isExistenceCheck(line string) bool {
	for _, prefix := range []string{"test -", "if test -", "[ -", "if [ -", "[[ -", "if [[ -"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// isBlockScalar reports whether n is a multi-line-capable scalar node.
func isBlockScalar(n *document.Node) bool {
	return n != nil && n.Kind == document.Scalar &&
		(n.Style == document.StyleBlockLiteral || n.Style == document.StyleBlockFolded)
}

// walk visits every node of the tree in document order, passing its
// JSON-pointer-like path. The root is visited with path "/".
func walk(n *document.Node, path string, visit func(path string, n *document.Node)) {
	if n == nil {
		return
	}
	visit(path, n)
	base := path
	if base == "/" {
		base = ""
	}
	switch n.Kind {
	case document.Sequence:
		for i, item := range n.Items {
			walk(item, base+"/"+strconv.Itoa(i), visit)
		}
	case document.Mapping:
		for _, p := range n.Pairs {
			walk(p.Value, base+"/"+p.Key, visit)
		}
	}
}
