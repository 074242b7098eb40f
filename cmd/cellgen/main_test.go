// Package main provides tests for the cellgen CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cellgen/internal/cli"
	"github.com/leapstack-labs/cellgen/internal/cli/config"
	"github.com/leapstack-labs/cellgen/internal/cli/testutil"
)

// run executes the root command in a fresh project directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cellgen v")
}

func TestHelpCommand(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)

	for _, expected := range []string{"analyse", "generate", "track", "order", "units", "history", "profiles"} {
		assert.Contains(t, out, expected)
	}
}

func TestAnalyseCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	out, err := run(t, "analyse", "--output", "markdown")
	require.NoError(t, err)
	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# decay")
	assert.Contains(t, out, "# nla")
	assert.Contains(t, out, "Nla #1")
}

func TestLogLevelFlag(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	out, err := run(t, "analyse", "--output", "json", "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "document analysed")

	config.ResetConfig()
	out, err = run(t, "analyse", "--output", "json")
	require.NoError(t, err)
	assert.NotContains(t, out, "level=DEBUG")

	config.ResetConfig()
	_, err = run(t, "analyse", "--log-level", "loud")
	assert.ErrorContains(t, err, "log_level")
}

func TestGenerateCommand_WritesFiles(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	_, err := run(t, "generate", filepath.Join("models", "decay.yaml"), "--profile", "c,python", "--out-dir", "gen")
	require.NoError(t, err)

	files := map[string]string{
		"model.h":  "computeRates",
		"model.c":  "computeRates",
		"model.py": "def compute_rates",
	}
	for name, want := range files {
		content, err := os.ReadFile(filepath.Join(dir, "gen", name))
		require.NoError(t, err, name)
		assert.Contains(t, string(content), want, name)
	}
}

func TestGenerateCommand_InvalidModel(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "broken.yaml", testutil.BrokenModel)
	t.Chdir(dir)

	out, err := run(t, "generate", "--output", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 model is invalid")

	var decoded struct {
		Models []struct {
			Type  string `json:"type"`
			Files []any  `json:"files"`
		} `json:"models"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Models, 1)
	assert.Equal(t, "overconstrained", decoded.Models[0].Type)
	assert.Empty(t, decoded.Models[0].Files)
}

func TestHistoryAfterAnalyse(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	_, err := run(t, "analyse", "--output", "json")
	require.NoError(t, err)

	out, err := run(t, "history", "--output", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "decay")
	assert.Contains(t, out, "nla")
	assert.FileExists(t, filepath.Join(dir, config.DefaultHistoryFile))
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := run(t, "completion", shell)
			require.NoError(t, err)
			assert.True(t, strings.Contains(out, "cellgen"), "completion script should mention cellgen")
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	_, err := run(t, "unknown-command")
	assert.Error(t, err)
}
