package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cellgen/pkg/profile"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "cellgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, []string{"c"}, cfg.Profile)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.OutDir)
	assert.Empty(t, GetConfigFileUsed())

	root, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, root)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultHistoryFile), cfg.HistoryPath)
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, `output: json
profile: [c, python]
out_dir: generated
externals:
  - membrane.i_Na
untrack: [constants]
profiles:
  c:
    templates:
      interface_file_name: cell.h
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, []string{"c", "python"}, cfg.Profile)
	assert.Equal(t, filepath.Join(dir, "generated"), cfg.OutDir)
	assert.Equal(t, []string{"membrane.i_Na"}, cfg.Externals)
	assert.Equal(t, []string{"constants"}, cfg.Untrack)
	assert.Same(t, cfg, GetCurrentConfig())

	profiles, err := cfg.ResolveProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "cell.h", profiles[0].Templates.InterfaceFileName)
	assert.Equal(t, "python", profiles[1].Name)
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeConfig(t, root, "profile: python\n")
	nested := filepath.Join(root, "models", "cardiac")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"python"}, cfg.Profile, "a single value decodes into a list")
	assert.NotEmpty(t, GetConfigFileUsed())
	assert.Equal(t, "cellgen.yaml", filepath.Base(GetConfigFileUsed()))
}

func TestLoadConfig_Precedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, "output: markdown\nlog_level: info\nuntrack: [main.a]\n")

	t.Setenv("CELLGEN_OUTPUT", "text")
	t.Setenv("CELLGEN_UNTRACK", "main.b, main.c")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("output", "o", "", "output format")
	flags.String("out-dir", "", "output directory")
	flags.String("log-level", "", "log level")
	require.NoError(t, flags.Set("output", "json"))
	require.NoError(t, flags.Set("out-dir", "gen"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat, "flag should override env var and config file")
	assert.Equal(t, []string{"main.b", "main.c"}, cfg.Untrack, "env var should override config file")
	assert.Equal(t, "info", cfg.LogLevel, "unset flag must not override config file")
	assert.Equal(t, filepath.Join(dir, "gen"), cfg.OutDir)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"invalid output", "output: html\n", "invalid output format"},
		{"invalid log level", "log_level: loud\n", "invalid log_level"},
		{"unknown profile overrides", "profiles:\n  fortran:\n    name: f\n", "profile not found"},
		{"negative concurrency", "concurrency: -1\n", "concurrency"},
		{"malformed yaml", "output: [json\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := LoadConfig(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestConfig_Level(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want slog.Level
	}{
		{"default", Config{}, slog.LevelWarn},
		{"explicit", Config{LogLevel: "info"}, slog.LevelInfo},
		{"verbose wins", Config{LogLevel: "error", Verbose: true}, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.Level()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_ResolveProfiles(t *testing.T) {
	t.Run("defaults to c", func(t *testing.T) {
		profiles, err := (&Config{}).ResolveProfiles()
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, "c", profiles[0].Name)
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := (&Config{Profile: []string{"fortran"}}).ResolveProfiles()
		require.Error(t, err)
	})

	t.Run("bad override", func(t *testing.T) {
		cfg := &Config{
			Profile:  []string{"C"},
			Profiles: map[string]profile.Overrides{"c": {"no_such_field": 1}},
		}
		_, err := cfg.ResolveProfiles()
		require.Error(t, err)
	})
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "falls back to a discard logger")

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestIsConfigFile(t *testing.T) {
	assert.True(t, IsConfigFile("cellgen.yaml"))
	assert.True(t, IsConfigFile(filepath.Join("project", "cellgen.yml")))
	assert.False(t, IsConfigFile("models/cellgen_model.yaml"))
	assert.False(t, IsConfigFile("decay.hcl"))
}
