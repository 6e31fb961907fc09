package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupProject isolates a test in a temp working directory with no user
// config, no API key, and HOME pointed away from the real one.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("OPENAI_API_KEY", "")
	t.Chdir(dir)
	return dir
}

// execute runs the CLI with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()
	assert.Equal(t, "ctxrag", root.Use)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"index", "search", "serve", "status", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ctxrag")
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["go_version"])
}

func TestStatusWithoutIndex(t *testing.T) {
	setupProject(t)

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No index found")
}

func TestIndexThenSearchOffline(t *testing.T) {
	dir := setupProject(t)

	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	content := "The ghost runner rule places a runner on second base in extra innings.\n\n" +
		"Each team fields nine players at a time during regulation play."
	require.NoError(t, os.WriteFile(filepath.Join(docs, "rules.txt"), []byte(content), 0o644))

	out, err := execute(t, "index", "docs", "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed")
	assert.FileExists(t, filepath.Join(dir, ".ctxrag", "chunks.json"))

	out, err = execute(t, "search", "ghost", "runner", "--format", "json", "--no-rerank")
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, "rules", top["document_title"])
	assert.Contains(t, top["content"], "ghost runner")
	assert.Greater(t, top["combined_score"], 0.0)
}

func TestIndexThenStatus(t *testing.T) {
	dir := setupProject(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"),
		[]byte("Pitchers warm up in the bullpen before entering the game."), 0o644))

	_, err := execute(t, "index", "notes.md", "--offline")
	require.NoError(t, err)

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents:    1")
	assert.Contains(t, out, "Chunks:       1")
}

func TestSearchWithoutIndex(t *testing.T) {
	setupProject(t)

	_, err := execute(t, "search", "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ctxrag index")
}

func TestSearchTextOutput(t *testing.T) {
	dir := setupProject(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.txt"),
		[]byte("The infield fly rule protects baserunners from deliberate drops."), 0o644))

	_, err := execute(t, "index", ".", "--offline")
	require.NoError(t, err)

	out, err := execute(t, "search", "infield fly")
	require.NoError(t, err)
	assert.Contains(t, out, `Results for "infield fly"`)
	assert.Contains(t, out, "rules (p.1)")
}
