// cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs a fresh root command with the given args, capturing
// output. A new instance per test keeps flag state isolated.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRunCmd_RequiredFlags(t *testing.T) {
	_, err := executeCommand(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s)")
	assert.Contains(t, err.Error(), "instruction")
	assert.Contains(t, err.Error(), "url")
}

func TestBatchCmd_RequiredFlags(t *testing.T) {
	_, err := executeCommand(t, "batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "\"file\" not set")
}

func TestVersionFlag(t *testing.T) {
	output, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, output, Version)
}

func TestHelpListsSubcommands(t *testing.T) {
	output, err := executeCommand(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, output, "run")
	assert.Contains(t, output, "batch")
}

func TestReadTaskFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "tasks.json")
		content := `[
			{"instruction": "search for go browser automation", "target_url": "https://duckduckgo.com"},
			{"instruction": "find pricing page", "target_url": "https://example.com", "max_steps": 8}
		]`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		specs, err := readTaskFile(path)
		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, "https://duckduckgo.com", specs[0].TargetURL)
		assert.Equal(t, 8, specs[1].MaxSteps)
	})

	t.Run("empty array", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`[]`), 0644))

		_, err := readTaskFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no tasks")
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

		_, err := readTaskFile(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readTaskFile(filepath.Join(dir, "nope.json"))
		require.Error(t, err)
	})
}
