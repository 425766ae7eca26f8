// Package frontmatter encodes exported review reports as markdown documents
// with a YAML metadata block between --- delimiters. The block lets later
// tooling pick out the source file and finding counts without re-parsing the
// review text.
package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Meta is the metadata stamped onto an exported report.
type Meta struct {
	Source       string `yaml:"source"`
	MustFix      int    `yaml:"must_fix"`
	Improvements int    `yaml:"improvements"`
	Generated    string `yaml:"generated,omitempty"`
}

// Encode renders meta as YAML frontmatter followed by the review body.
func Encode(meta Meta, body string) ([]byte, error) {
	fm, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: marshal: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n")
	if body != "" {
		buf.WriteString(body)
	}
	return buf.Bytes(), nil
}

// Decode splits an exported report back into its metadata and body. The
// document must begin with "---\n"; the next "---" line closes the block.
func Decode(data []byte) (Meta, string, error) {
	const delim = "---\n"
	if !bytes.HasPrefix(data, []byte(delim)) {
		return Meta{}, "", fmt.Errorf("frontmatter: missing opening --- delimiter")
	}
	rest := data[len(delim):]
	idx := bytes.Index(rest, []byte("\n---"))
	if idx < 0 {
		return Meta{}, "", fmt.Errorf("frontmatter: missing closing --- delimiter")
	}
	var meta Meta
	if err := yaml.Unmarshal(rest[:idx], &meta); err != nil {
		return Meta{}, "", fmt.Errorf("frontmatter: unmarshal: %w", err)
	}
	body := rest[idx+4:]
	if len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	}
	return meta, string(body), nil
}
