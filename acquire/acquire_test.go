package acquire

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikz/iris/covariance"
	"github.com/tikz/iris/density"
	"github.com/tikz/iris/molprobity"
)

// syncBuffer is a bytes.Buffer safe for the concurrent handler writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger(w *syncBuffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		inputs []Input
		err    error
	}{
		{"no models", nil, ErrNoModels},
		{"single model", []Input{{ModelPath: "a.pdb"}}, nil},
		{"two models", []Input{{ModelPath: "a.pdb"}, {ModelPath: "b.pdb"}}, nil},
		{"reflections for all", []Input{
			{ModelPath: "a.pdb", ReflectionsPath: "a.mtz"},
			{ModelPath: "b.pdb", ReflectionsPath: "b.mtz"},
		}, nil},
		{"reflections for one", []Input{
			{ModelPath: "a.pdb"},
			{ModelPath: "b.pdb", ReflectionsPath: "b.mtz"},
		}, ErrPathCount},
		{"sequence for one", []Input{
			{ModelPath: "a.pdb", SequencePath: "a.fasta", DistpredPath: "a.npz"},
			{ModelPath: "b.pdb"},
		}, ErrPathCount},
		{"empty model path", []Input{{ModelPath: ""}}, ErrNoModels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.inputs)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}

	err := Validate([]Input{{ModelPath: "a.pdb", SequencePath: "a.fasta"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "given together")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "geometry", Geometry.String())
	assert.Equal(t, "covariance", Covariance.String())
	assert.Equal(t, "reflections", Reflections.String())
	assert.Equal(t, "kind(7)", Kind(7).String())
}

// fakeTasks returns results carrying the model id so the bundles can be checked.
func fakeTasks(calls *int32) map[Kind]Task {
	return map[Kind]Task{
		Geometry: func(ctx context.Context, in Input, aux Aux) (any, error) {
			atomic.AddInt32(calls, 1)
			return &molprobity.Result{Summary: molprobity.Summary{CBetaDeviations: aux.ModelID}}, nil
		},
		Covariance: func(ctx context.Context, in Input, aux Aux) (any, error) {
			atomic.AddInt32(calls, 1)
			return &covariance.Result{}, nil
		},
		Reflections: func(ctx context.Context, in Input, aux Aux) (any, error) {
			atomic.AddInt32(calls, 1)
			return &density.Result{Resolution: float64(aux.ModelID) + 1.5}, nil
		},
	}
}

func TestRun(t *testing.T) {
	inputs := []Input{
		{ModelPath: "a.pdb", ReflectionsPath: "a.mtz"},
		{ModelPath: "b.pdb", ReflectionsPath: "b.mtz"},
	}

	for _, concurrent := range []bool{true, false} {
		var calls int32
		c := &Coordinator{Concurrent: concurrent, MaxWorkers: 2, Log: testLogger(&syncBuffer{})}
		bundles := c.Run(context.Background(), inputs, fakeTasks(&calls))

		require.Len(t, bundles, 2)
		assert.Equal(t, int32(4), calls, "covariance needs a sequence and a distance prediction")
		for i, b := range bundles {
			assert.Equal(t, i, b.ModelID)
			require.NotNil(t, b.Geometry)
			assert.Equal(t, i, b.Geometry.Summary.CBetaDeviations)
			require.NotNil(t, b.Density)
			assert.Equal(t, float64(i)+1.5, b.Density.Resolution)
			assert.Nil(t, b.Covariance)
		}
		assert.NotEmpty(t, bundles[0].RunID)
		assert.Equal(t, bundles[0].RunID, bundles[1].RunID)
	}
}

func TestRunBoundedWorkers(t *testing.T) {
	var running, peak int32
	task := func(ctx context.Context, in Input, aux Aux) (any, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return &molprobity.Result{}, nil
	}

	inputs := make([]Input, 6)
	for i := range inputs {
		inputs[i] = Input{ModelPath: "m.pdb"}
	}
	c := &Coordinator{Concurrent: true, MaxWorkers: 2, Log: testLogger(&syncBuffer{})}
	bundles := c.Run(context.Background(), inputs, map[Kind]Task{Geometry: task})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	for _, b := range bundles {
		assert.NotNil(t, b.Geometry)
	}
}

func TestRunFailures(t *testing.T) {
	buf := &syncBuffer{}
	tasks := map[Kind]Task{
		Geometry: func(ctx context.Context, in Input, aux Aux) (any, error) {
			if aux.ModelID == 0 {
				return nil, errors.New("engine not installed")
			}
			return &molprobity.Result{}, nil
		},
		Reflections: func(ctx context.Context, in Input, aux Aux) (any, error) {
			panic("bad map")
		},
		Covariance: func(ctx context.Context, in Input, aux Aux) (any, error) {
			return "not a result", nil
		},
	}
	inputs := []Input{
		{ModelPath: "a.pdb", ReflectionsPath: "a.mtz", SequencePath: "a.fasta", DistpredPath: "a.npz"},
		{ModelPath: "b.pdb", ReflectionsPath: "b.mtz", SequencePath: "b.fasta", DistpredPath: "b.npz"},
	}

	c := &Coordinator{Concurrent: true, Log: testLogger(buf)}
	bundles := c.Run(context.Background(), inputs, tasks)

	require.Len(t, bundles, 2)
	assert.Nil(t, bundles[0].Geometry)
	assert.NotNil(t, bundles[1].Geometry)
	for _, b := range bundles {
		assert.Nil(t, b.Density)
		assert.Nil(t, b.Covariance)
	}

	logged := buf.String()
	assert.Contains(t, logged, "engine not installed")
	assert.Contains(t, logged, "panic: bad map")
	assert.Contains(t, logged, "returned no result")
	assert.Contains(t, logged, "model_id=0")
	assert.Contains(t, logged, "task=geometry")
}

func TestRunTimeout(t *testing.T) {
	buf := &syncBuffer{}
	release := make(chan struct{})
	defer close(release)

	tasks := map[Kind]Task{
		// Ignores the context; the coordinator stops waiting anyway.
		Geometry: func(ctx context.Context, in Input, aux Aux) (any, error) {
			<-release
			return &molprobity.Result{}, nil
		},
		Reflections: func(ctx context.Context, in Input, aux Aux) (any, error) {
			return &density.Result{}, nil
		},
	}
	inputs := []Input{{ModelPath: "a.pdb", ReflectionsPath: "a.mtz"}}

	for _, concurrent := range []bool{true, false} {
		c := &Coordinator{Concurrent: concurrent, Timeout: 20 * time.Millisecond, Log: testLogger(buf)}
		bundles := c.Run(context.Background(), inputs, tasks)

		require.Len(t, bundles, 1)
		assert.Nil(t, bundles[0].Geometry)
		assert.NotNil(t, bundles[0].Density)
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "acquisition task timed out"))
}

func TestRunNoTasks(t *testing.T) {
	c := &Coordinator{Concurrent: true, Log: testLogger(&syncBuffer{})}
	bundles := c.Run(context.Background(), []Input{{ModelPath: "a.pdb"}}, nil)

	require.Len(t, bundles, 1)
	assert.Equal(t, Bundle{ModelID: 0, RunID: bundles[0].RunID}, bundles[0])
}
