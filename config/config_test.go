package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.True(t, cfg.Concurrent)
	assert.Equal(t, runtime.NumCPU(), cfg.MaxWorkers)
	assert.Equal(t, 30*time.Minute, cfg.TaskTimeout)
	assert.True(t, cfg.RunMolProbity)
	assert.Equal(t, "iris-density", cfg.DensityCommand)
	assert.Equal(t, "iris-covariance", cfg.CovarianceCommand)
	assert.Equal(t, "rosettanpz", cfg.DistpredFormat)
	assert.False(t, cfg.HeaderResolution)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("IRIS_CONCURRENT", "false")
	t.Setenv("IRIS_MAX_WORKERS", "3")
	t.Setenv("IRIS_TASK_TIMEOUT", "90s")
	t.Setenv("IRIS_RUN_COVARIANCE", "0")
	t.Setenv("IRIS_LOG_LEVEL", "debug")

	cfg := Load()
	assert.False(t, cfg.Concurrent)
	assert.Equal(t, 3, cfg.MaxWorkers)
	assert.Equal(t, 90*time.Second, cfg.TaskTimeout)
	assert.False(t, cfg.RunCovariance)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadEnvClamp(t *testing.T) {
	t.Setenv("IRIS_MAX_WORKERS", "-1")
	t.Setenv("IRIS_TASK_TIMEOUT", "-5m")
	t.Setenv("IRIS_CONCURRENT", "sometimes")

	cfg := Load()
	assert.Equal(t, runtime.NumCPU(), cfg.MaxWorkers)
	assert.Equal(t, DefaultTaskTimeout, cfg.TaskTimeout)
	assert.True(t, cfg.Concurrent, "unparseable values keep the default")

	t.Setenv("IRIS_TASK_TIMEOUT", "0s")
	assert.Equal(t, time.Duration(0), Load().TaskTimeout, "zero disables the timeout")
}

func TestLoadFileTOML(t *testing.T) {
	path := writeFile(t, "iris.toml", `
concurrent = false
max_workers = 2
task_timeout = "45m"
run_molprobity = false
density_command = "/opt/iris/sample-map"
header_resolution = true
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.Concurrent)
	assert.Equal(t, 2, cfg.MaxWorkers)
	assert.Equal(t, 45*time.Minute, cfg.TaskTimeout)
	assert.False(t, cfg.RunMolProbity)
	assert.Equal(t, "/opt/iris/sample-map", cfg.DensityCommand)
	assert.True(t, cfg.HeaderResolution)
	assert.Equal(t, DefaultCovarianceCommand, cfg.CovarianceCommand)
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "iris.yaml", `
max_workers: 6
task_timeout: 10m
distpred_format: npz
log_level: warn
`)
	t.Setenv("IRIS_MAX_WORKERS", "1")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MaxWorkers, "environment wins over the file")
	assert.Equal(t, 10*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, "npz", cfg.DistpredFormat)
	assert.True(t, cfg.Concurrent)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "iris.json", `{}`))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = LoadFile(writeFile(t, "iris.toml", `max_workers = "many"`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MolProbityDir = filepath.Join(t.TempDir(), "missing")
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MolProbityDir = writeFile(t, "clashscore", "")
	assert.ErrorContains(t, cfg.Validate(), "not a directory")

	cfg = Default()
	cfg.MolProbityDir = t.TempDir()
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.DistpredFormat = "../npz"
	assert.Error(t, cfg.Validate())
}
