package rules

// corpus_test.go — whole-pipeline fixtures. Each testdata archive holds one
// workflow and the (ruleID, path) lines the full catalog is expected to emit,
// in aggregate order.

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"wflint/internal/config"
	"wflint/internal/document"
	"wflint/internal/findings"
	"wflint/internal/schema"
)

func TestCorpus(t *testing.T) {
	archives, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(archives) == 0 {
		t.Fatal("no corpus archives under testdata/")
	}

	reg := NewRegistry(config.Default())
	for _, name := range archives {
		t.Run(filepath.Base(name), func(t *testing.T) {
			ar, err := txtar.ParseFile(name)
			if err != nil {
				t.Fatal(err)
			}
			var workflow, expected []byte
			for _, f := range ar.Files {
				switch f.Name {
				case "workflow.yml":
					workflow = f.Data
				case "findings.txt":
					expected = f.Data
				}
			}
			if workflow == nil {
				t.Fatal("archive has no workflow.yml")
			}

			root, err := document.Load(workflow)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			ranked := findings.Aggregate(reg.Run(context.Background(), schema.Normalize(root)))

			var got []string
			for _, f := range ranked {
				got = append(got, f.RuleID+" "+f.Path)
			}
			var want []string
			for _, line := range strings.Split(strings.TrimSpace(string(expected)), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					want = append(want, line)
				}
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("findings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
