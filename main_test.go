package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikz/iris/acquire"
	"github.com/tikz/iris/config"
	"github.com/tikz/iris/metric"
	"github.com/tikz/iris/molprobity"
)

func TestParseFlags(t *testing.T) {
	_, err := parseFlags([]string{"-previous", "a.pdb"})
	assert.Error(t, err)

	o, err := parseFlags([]string{
		"-latest", "b.pdb", "-latest-reflections", "b.mtz",
		"-previous", "a.pdb", "-previous-reflections", "a.mtz",
		"-molprobity=false", "-sync",
	})
	require.NoError(t, err)

	inputs := o.inputs()
	require.Len(t, inputs, 2)
	assert.Equal(t, "a.pdb", inputs[0].ModelPath, "previous comes first")
	assert.Equal(t, "b.mtz", inputs[1].ReflectionsPath)

	cfg, err := loadConfig(o)
	require.NoError(t, err)
	assert.False(t, cfg.RunMolProbity)
	assert.True(t, cfg.RunCovariance, "unset flags keep the configured value")
	assert.False(t, cfg.Concurrent)

	o, err = parseFlags([]string{"-latest", "b.pdb"})
	require.NoError(t, err)
	assert.Len(t, o.inputs(), 1)
}

func TestRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	o := options{
		latest:   version{model: "metrics/testdata/latest.pdb"},
		previous: version{model: "metrics/testdata/previous.pdb"},
		output:   out,
	}
	cfg := config.Default()
	cfg.RunMolProbity = false
	cfg.RunCovariance = false

	var logs bytes.Buffer
	err := run(context.Background(), o, cfg, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "report written")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)

	var report struct {
		Chains []struct {
			ChainID       string `json:"chain_id"`
			AlignedLength int    `json:"aligned_length"`
			HasMolProbity bool   `json:"has_molprobity"`
		} `json:"chains"`
		Models []json.RawMessage `json:"models"`
	}
	require.NoError(t, json.Unmarshal(raw, &report))
	require.Len(t, report.Chains, 2)
	assert.Equal(t, "A", report.Chains[0].ChainID)
	assert.Equal(t, 6, report.Chains[0].AlignedLength)
	assert.False(t, report.Chains[0].HasMolProbity)
	assert.Len(t, report.Models, 2)
}

func TestRunErrors(t *testing.T) {
	cfg := config.Default()
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	o := options{
		latest:   version{model: "metrics/testdata/latest.pdb", reflections: "latest.mtz"},
		previous: version{model: "metrics/testdata/previous.pdb"},
	}
	assert.ErrorIs(t, run(context.Background(), o, cfg, log), acquire.ErrPathCount)

	o = options{latest: version{model: filepath.Join(t.TempDir(), "missing.pdb")}}
	assert.Error(t, run(context.Background(), o, cfg, log))
}

func TestTaskSettings(t *testing.T) {
	cfg := config.Default()
	cfg.CovarianceCommand = "iris-covariance"
	cfg.DistpredFormat = "npz"
	assert.Equal(t, []string{"iris-covariance", "npz"}, taskSettings(acquire.Covariance, cfg))

	key := func(c config.Config) string {
		t.Helper()
		dir := t.TempDir()
		in := acquire.Input{
			ModelPath:    filepath.Join(dir, "model.pdb"),
			SequencePath: filepath.Join(dir, "seq.fasta"),
			DistpredPath: filepath.Join(dir, "pred.npz"),
		}
		for _, p := range []string{in.ModelPath, in.SequencePath, in.DistpredPath} {
			require.NoError(t, os.WriteFile(p, []byte("x\n"), 0o644))
		}
		k, err := inputKey(acquire.Covariance, taskSettings(acquire.Covariance, c), in)
		require.NoError(t, err)
		return k
	}

	other := cfg
	other.DistpredFormat = "json"
	assert.Equal(t, key(cfg), key(cfg))
	assert.NotEqual(t, key(cfg), key(other))

	// Settings are delimited so values cannot run into each other.
	joined := cfg
	joined.CovarianceCommand, joined.DistpredFormat = "iris-covariancen", "pz"
	assert.NotEqual(t, key(cfg), key(joined))
}

func TestCached(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.pdb")
	require.NoError(t, os.WriteFile(model, []byte("ATOM\n"), 0o644))

	var calls int32
	task := func(ctx context.Context, in acquire.Input, aux acquire.Aux) (any, error) {
		atomic.AddInt32(&calls, 1)
		return &molprobity.Result{
			Residues: map[metric.Key]molprobity.Indicators{
				{Chain: "A", SeqNum: 1}: {Clash: metric.Allowed},
			},
			Summary: molprobity.Summary{CBetaDeviations: 2},
		}, nil
	}

	cache := filepath.Join(dir, "cache")
	wrapped := cached(cache, acquire.Geometry, []string{"/opt/molprobity/bin"}, task)
	aux := acquire.Aux{Log: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}
	in := acquire.Input{ModelPath: model}

	first, err := wrapped(context.Background(), in, aux)
	require.NoError(t, err)
	second, err := wrapped(context.Background(), in, aux)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls)
	res, ok := second.(*molprobity.Result)
	require.True(t, ok)
	assert.Equal(t, first, res)
	assert.Equal(t, metric.Allowed, res.Residues[metric.Key{Chain: "A", SeqNum: 1}].Clash)

	require.NoError(t, os.WriteFile(model, []byte("ATOM changed\n"), 0o644))
	_, err = wrapped(context.Background(), in, aux)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls, "changed inputs miss the cache")

	moved := cached(cache, acquire.Geometry, []string{"/usr/local/molprobity/bin"}, task)
	_, err = moved(context.Background(), in, aux)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls, "changed settings miss the cache")
	_, err = moved(context.Background(), in, aux)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls)

	_, err = wrapped(context.Background(), acquire.Input{ModelPath: filepath.Join(dir, "missing.pdb")}, aux)
	assert.Error(t, err)
}
