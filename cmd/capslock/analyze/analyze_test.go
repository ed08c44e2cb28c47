package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
)

const artifact = `{
  "format_version": 1,
  "module": "mylib",
  "unit": "mylib",
  "functions": [
    {"symbol": "mylib::run", "entry": true, "calls": [
      {"kind": "direct", "callee": "std::fs::read", "location": {"file": "src/lib.rs", "line": 3}}
    ]},
    {"symbol": "std::fs::read", "external": true}
  ]
}`

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mylib.json")
	if err := os.WriteFile(path, []byte(artifact), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	opts := options{format: "json", artifacts: []string{writeArtifact(t)}}
	if err := run(context.Background(), opts, hclog.NewNullLogger(), &buf); err != nil {
		t.Fatalf("run: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if doc["rule_table_version"] == "" {
		t.Error("missing rule table version")
	}
	if !strings.Contains(buf.String(), "FILESYSTEM") {
		t.Error("std::fs::read must grant FILESYSTEM under the default ruleset")
	}
}

func TestRunTextFormat(t *testing.T) {
	var buf bytes.Buffer
	opts := options{format: "text", artifacts: []string{writeArtifact(t)}}
	if err := run(context.Background(), opts, hclog.NewNullLogger(), &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "Capability Report") {
		t.Errorf("unexpected text output:\n%s", buf.String())
	}
}

func TestRunSARIFFormat(t *testing.T) {
	var buf bytes.Buffer
	opts := options{format: "sarif", artifacts: []string{writeArtifact(t)}}
	if err := run(context.Background(), opts, hclog.NewNullLogger(), &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "2.1.0") {
		t.Error("missing SARIF version")
	}
}

func TestRunMissingArtifact(t *testing.T) {
	var buf bytes.Buffer
	opts := options{format: "text", artifacts: []string{"does-not-exist.json"}}
	if err := run(context.Background(), opts, hclog.NewNullLogger(), &buf); err == nil {
		t.Fatal("missing artifact must fail the run")
	}
}

func TestRunCustomRules(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	table := `
version: "v9.0.0"
rules:
  - prefix: "std::fs::"
    capabilities: [FILESYSTEM]
`
	if err := os.WriteFile(rulesPath, []byte(table), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	opts := options{format: "json", rulesPath: rulesPath, artifacts: []string{writeArtifact(t)}}
	if err := run(context.Background(), opts, hclog.NewNullLogger(), &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "v9.0.0") {
		t.Error("custom rule table version not reflected in the report")
	}
}

func TestRunExitCodes(t *testing.T) {
	if got := Run([]string{"--format", "bogus", "x.json"}); got != 2 {
		t.Errorf("bad format exit = %d, want 2", got)
	}
	if got := Run([]string{}); got != 2 {
		t.Errorf("no inputs exit = %d, want 2", got)
	}
	if got := Run([]string{"--go", "dir", "extra.json"}); got != 2 {
		t.Errorf("both input kinds exit = %d, want 2", got)
	}
}
