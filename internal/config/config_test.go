package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bpe/internal/logutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bpe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, "language: ur\niterations: 10\nmin_frequency: 2\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ur", cfg.Language)
	assert.Equal(t, 10, cfg.Iterations)
	assert.Equal(t, 2, cfg.MinFrequency)
	assert.Equal(t, "<unk>", cfg.UnknownToken)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "iterations: 10\n")
	t.Setenv("BPE_ITERATIONS", "7")
	t.Setenv("BPE_MIN_FREQUENCY", " 1 ")
	t.Setenv("BPE_UNK", `"[UNK]"`)
	t.Setenv("BPE_DEBUG", "1")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Iterations)
	assert.Equal(t, 1, cfg.MinFrequency)
	assert.Equal(t, "[UNK]", cfg.UnknownToken)
	assert.Equal(t, Verbosity(1), cfg.Debug)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, 7, cfg.AsMap()["BPE_ITERATIONS"].Value)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad yaml", body: "iterations: [1"},
		{name: "negative iterations", body: "iterations: -1"},
		{name: "negative workers", body: "workers: -2"},
		{name: "empty language", body: "language: \"\""},
		{name: "bad env int", env: map[string]string{"BPE_ITERATIONS": "many"}},
		{name: "bad env debug", env: map[string]string{"BPE_DEBUG": "sometimes"}},
		{name: "bad yaml debug", body: "debug: loud"},
		{name: "negative debug", body: "debug: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.body != "" {
				path = writeConfig(t, tt.body)
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.MinFrequency = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)

	cfg = Default()
	cfg.UnknownToken = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  string
		want slog.Level
	}{
		{name: "default", want: slog.LevelInfo},
		{name: "yaml bool", body: "debug: true", want: slog.LevelDebug},
		{name: "yaml false", body: "debug: false", want: slog.LevelInfo},
		{name: "yaml level", body: "debug: 2", want: logutil.LevelTrace},
		{name: "env true", env: "true", want: slog.LevelDebug},
		{name: "env trace", env: "2", want: logutil.LevelTrace},
		{name: "env overrides yaml", body: "debug: 2", env: "0", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("BPE_DEBUG", tt.env)
			}
			path := ""
			if tt.body != "" {
				path = writeConfig(t, tt.body)
			}
			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LogLevel())
		})
	}
}
