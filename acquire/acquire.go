// Package acquire runs the external validation tasks of every model version,
// concurrently or one after the other, and collects their results by model.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/tikz/iris/covariance"
	"github.com/tikz/iris/density"
	"github.com/tikz/iris/molprobity"
)

var (
	// ErrNoModels is returned when no model path is given.
	ErrNoModels = errors.New("no model given")
	// ErrPathCount is returned when an optional input is given for some models but not all.
	ErrPathCount = errors.New("optional inputs must be given for every model or none")
)

// Kind is the type of an acquisition task.
type Kind int

const (
	Geometry Kind = iota
	Covariance
	Reflections
)

// Kinds lists every task kind in dispatch order.
var Kinds = []Kind{Geometry, Covariance, Reflections}

func (k Kind) String() string {
	switch k {
	case Geometry:
		return "geometry"
	case Covariance:
		return "covariance"
	case Reflections:
		return "reflections"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Input holds the files of one model version.
type Input struct {
	ModelPath       string
	ReflectionsPath string
	SequencePath    string
	DistpredPath    string

	// SeqNums lists the residue numbers of the model by chain.
	SeqNums map[string][]int64
}

// applies reports whether a task of kind k has the inputs it needs.
func (in Input) applies(k Kind) bool {
	switch k {
	case Reflections:
		return in.ReflectionsPath != ""
	case Covariance:
		return in.SequencePath != "" && in.DistpredPath != ""
	}
	return true
}

// Validate checks that there is at least one model and that each optional
// path is given for all models or none.
func Validate(inputs []Input) error {
	if len(inputs) == 0 {
		return ErrNoModels
	}

	optional := []struct {
		name string
		path func(Input) string
	}{
		{"reflections", func(in Input) string { return in.ReflectionsPath }},
		{"sequence", func(in Input) string { return in.SequencePath }},
		{"distance prediction", func(in Input) string { return in.DistpredPath }},
	}
	for _, o := range optional {
		n := 0
		for _, in := range inputs {
			if o.path(in) != "" {
				n++
			}
		}
		if n != 0 && n != len(inputs) {
			return fmt.Errorf("%w: %s given for %d of %d models", ErrPathCount, o.name, n, len(inputs))
		}
	}

	for i, in := range inputs {
		if in.ModelPath == "" {
			return fmt.Errorf("model %d: %w", i, ErrNoModels)
		}
		if (in.SequencePath == "") != (in.DistpredPath == "") {
			return fmt.Errorf("model %d: sequence and distance prediction must be given together", i)
		}
	}
	return nil
}

// Aux identifies the dispatch a task runs for.
type Aux struct {
	RunID   string
	ModelID int
	Log     *slog.Logger
}

// Task acquires one kind of data for one model.
type Task func(ctx context.Context, in Input, aux Aux) (any, error)

// Bundle holds the acquisition results of one model. Failed or skipped tasks leave nil.
type Bundle struct {
	ModelID    int
	RunID      string
	Geometry   *molprobity.Result
	Covariance *covariance.Result
	Density    *density.Result
}

// Coordinator dispatches tasks over the models of a series.
type Coordinator struct {
	Concurrent bool
	MaxWorkers int           // <= 0 uses the number of CPUs
	Timeout    time.Duration // per task, 0 disables
	Log        *slog.Logger
}

type job struct {
	kind  Kind
	task  Task
	input Input
	aux   Aux
}

type result struct {
	job   job
	value any
	err   error
}

// Run dispatches every task that applies to every model and waits for all of
// them. Bundles are returned in model order. Errors, panics and timeouts are
// logged and leave the corresponding result nil.
func (c *Coordinator) Run(ctx context.Context, inputs []Input, tasks map[Kind]Task) []Bundle {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}
	runID := uuid.NewString()
	log = log.With("run_id", runID)

	bundles := make([]Bundle, len(inputs))
	var jobs []job
	for i, in := range inputs {
		bundles[i] = Bundle{ModelID: i, RunID: runID}
		for _, k := range Kinds {
			task, ok := tasks[k]
			if !ok || task == nil || !in.applies(k) {
				continue
			}
			jobs = append(jobs, job{
				kind:  k,
				task:  task,
				input: in,
				aux:   Aux{RunID: runID, ModelID: i, Log: log.With("model_id", i, "task", k.String())},
			})
		}
	}
	log.Info("acquisition started", "models", len(inputs), "tasks", len(jobs), "concurrent", c.Concurrent)

	if c.Concurrent {
		c.dispatch(ctx, jobs, bundles)
	} else {
		for _, j := range jobs {
			store(bundles, c.do(ctx, j))
		}
	}

	log.Info("acquisition finished", "tasks", len(jobs))
	return bundles
}

// dispatch runs jobs in at most MaxWorkers goroutines and stores every result.
func (c *Coordinator) dispatch(ctx context.Context, jobs []job, bundles []Bundle) {
	workers := c.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make(chan result, len(jobs))
	sem := make(chan struct{}, workers)
	for _, j := range jobs {
		sem <- struct{}{}
		go func(j job) {
			defer func() { <-sem }()
			results <- c.do(ctx, j)
		}(j)
	}
	for range jobs {
		store(bundles, <-results)
	}
}

// do runs one task, bounded by the coordinator timeout and the context.
func (c *Coordinator) do(ctx context.Context, j job) result {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	out := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				out <- result{job: j, err: fmt.Errorf("panic: %v", p)}
			}
		}()
		v, err := j.task(ctx, j.input, j.aux)
		out <- result{job: j, value: v, err: err}
	}()

	select {
	case r := <-out:
		return r
	case <-ctx.Done():
		return result{job: j, err: ctx.Err()}
	}
}

func store(bundles []Bundle, r result) {
	log := r.job.aux.Log
	if r.err != nil {
		if errors.Is(r.err, context.DeadlineExceeded) {
			log.Warn("acquisition task timed out", "error", r.err)
		} else {
			log.Warn("acquisition task failed", "error", r.err)
		}
		return
	}

	b := &bundles[r.job.aux.ModelID]
	ok := false
	switch r.job.kind {
	case Geometry:
		b.Geometry, ok = r.value.(*molprobity.Result)
		ok = ok && b.Geometry != nil
	case Covariance:
		b.Covariance, ok = r.value.(*covariance.Result)
		ok = ok && b.Covariance != nil
	case Reflections:
		b.Density, ok = r.value.(*density.Result)
		ok = ok && b.Density != nil
	}
	if !ok {
		log.Warn("acquisition task returned no result", "type", fmt.Sprintf("%T", r.value))
		return
	}
	log.Debug("acquisition task done")
}

// GeometryTask validates the model geometry with e.
func GeometryTask(e *molprobity.Engine) Task {
	return func(ctx context.Context, in Input, aux Aux) (any, error) {
		return e.Validate(ctx, in.ModelPath, in.SeqNums)
	}
}

// CovarianceTask scores the model against its distance prediction with e.
func CovarianceTask(e *covariance.Engine) Task {
	return func(ctx context.Context, in Input, aux Aux) (any, error) {
		return e.Validate(ctx, in.ModelPath, in.SequencePath, in.DistpredPath, in.SeqNums)
	}
}

// DensityTask scores the model fit to the map computed from its reflections with e.
func DensityTask(e *density.Engine) Task {
	return func(ctx context.Context, in Input, aux Aux) (any, error) {
		return e.Run(ctx, in.ModelPath, in.ReflectionsPath)
	}
}
