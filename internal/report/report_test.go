package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Report {
	return &Report{
		RunID:            "7c9f0b1e-0000-0000-0000-000000000000",
		RuleTableVersion: "v1.3.0",
		Units: []Unit{
			{
				Name:         "mylib",
				Capabilities: []string{"FILESYSTEM", "UNANALYZED"},
				Findings: []Finding{
					{
						Capability: "FILESYSTEM",
						Kind:       "transitive",
						Path: []PathStep{
							{Symbol: "mylib::run", Site: "src/lib.rs:10"},
							{Symbol: "std::fs::read", DisplayName: "std::fs::read"},
						},
					},
					{
						Capability: "UNANALYZED",
						Kind:       "direct",
						Path:       []PathStep{{Symbol: "mylib::run"}},
					},
				},
			},
			{Name: "quietlib", Capabilities: []string{}},
		},
		Warnings: []Warning{
			{Kind: "rule_ambiguity", Symbol: "std::fs::read", Patterns: []string{"std::fs::", "std::fs::"}},
		},
		Gaps: []Gap{
			{Kind: "unresolved_call", Function: "mylib::run", Symbol: "mystery", Site: "src/lib.rs:12"},
		},
	}
}

func TestHasUnanalyzed(t *testing.T) {
	r := sample()
	assert.True(t, r.HasUnanalyzed())

	r.Units[0].Capabilities = []string{"FILESYSTEM"}
	assert.False(t, r.HasUnanalyzed())
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()))

	var back Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "v1.3.0", back.RuleTableVersion)
	require.Len(t, back.Units, 2)
	assert.Equal(t, "mylib", back.Units[0].Name)
	assert.Equal(t, []string{"FILESYSTEM", "UNANALYZED"}, back.Units[0].Capabilities)
	require.Len(t, back.Units[0].Findings, 2)
	assert.Equal(t, "src/lib.rs:10", back.Units[0].Findings[0].Path[0].Site)
}

func TestWriteJSONDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, WriteJSON(&a, sample()))
	require.NoError(t, WriteJSON(&b, sample()))
	assert.Equal(t, a.String(), b.String())
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	WriteText(&buf, sample())
	out := buf.String()

	assert.Contains(t, out, "Capability Report")
	assert.Contains(t, out, "mylib")
	assert.Contains(t, out, "FILESYSTEM")
	assert.Contains(t, out, "→ std::fs::read")
	assert.Contains(t, out, "(no capabilities)")
	assert.Contains(t, out, "rule_ambiguity")
	assert.Contains(t, out, "unresolved_call")
	assert.Contains(t, out, "src/lib.rs:12")
}

func TestWriteSARIF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(&buf, sample()))
	out := buf.String()

	assert.Contains(t, out, `"version": "2.1.0"`)
	assert.Contains(t, out, "CAPSLOCK_FILESYSTEM")
	assert.Contains(t, out, "CAPSLOCK_UNANALYZED")
	assert.Contains(t, out, "CAPSLOCK_RULE_AMBIGUITY")
	assert.Contains(t, out, "src/lib.rs")

	// SARIF output must itself be valid JSON.
	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
}

func TestSplitSite(t *testing.T) {
	file, line := splitSite("src/lib.rs:42:7")
	assert.Equal(t, "src/lib.rs", file)
	assert.Equal(t, 42, line)

	file, line = splitSite("nocolon")
	assert.Equal(t, "nocolon", file)
	assert.Zero(t, line)
}
