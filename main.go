// Command iris computes the per-residue validation metrics of one or two
// versions of an atomic model and writes the aligned report as JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tikz/iris/acquire"
	"github.com/tikz/iris/config"
	"github.com/tikz/iris/covariance"
	"github.com/tikz/iris/density"
	"github.com/tikz/iris/metrics"
	"github.com/tikz/iris/molprobity"
	"github.com/tikz/iris/pdb"
)

type version struct {
	model, reflections, sequence, distpred string
}

type options struct {
	latest, previous version

	configPath string
	cacheDir   string
	output     string

	molprobity, covariance, sync bool
	set                          map[string]bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("iris", flag.ContinueOnError)
	fs.StringVar(&o.latest.model, "latest", "", "latest model `path` (PDB)")
	fs.StringVar(&o.latest.reflections, "latest-reflections", "", "latest reflections `path` (MTZ)")
	fs.StringVar(&o.latest.sequence, "latest-sequence", "", "latest sequence `path` (FASTA)")
	fs.StringVar(&o.latest.distpred, "latest-distpred", "", "latest distance prediction `path`")
	fs.StringVar(&o.previous.model, "previous", "", "previous model `path` (PDB)")
	fs.StringVar(&o.previous.reflections, "previous-reflections", "", "previous reflections `path` (MTZ)")
	fs.StringVar(&o.previous.sequence, "previous-sequence", "", "previous sequence `path` (FASTA)")
	fs.StringVar(&o.previous.distpred, "previous-distpred", "", "previous distance prediction `path`")
	fs.BoolVar(&o.molprobity, "molprobity", true, "run the MolProbity geometry validation")
	fs.BoolVar(&o.covariance, "covariance", true, "run the covariance validation")
	fs.BoolVar(&o.sync, "sync", false, "run the validation tasks one after the other")
	fs.StringVar(&o.configPath, "config", "", "TOML or YAML config `file`")
	fs.StringVar(&o.cacheDir, "cache", "", "`dir` to cache validation results in")
	fs.StringVar(&o.output, "o", "", "report `path`, stdout when empty")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.latest.model == "" {
		return o, errors.New("-latest is required")
	}

	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// inputs returns the acquisition inputs in series order, previous first.
func (o options) inputs() []acquire.Input {
	var vs []version
	if o.previous.model != "" {
		vs = append(vs, o.previous)
	}
	vs = append(vs, o.latest)

	inputs := make([]acquire.Input, len(vs))
	for i, v := range vs {
		inputs[i] = acquire.Input{
			ModelPath:       v.model,
			ReflectionsPath: v.reflections,
			SequencePath:    v.sequence,
			DistpredPath:    v.distpred,
		}
	}
	return inputs
}

func loadConfig(o options) (config.Config, error) {
	cfg := config.Load()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(o.configPath); err != nil {
			return cfg, err
		}
	}

	if o.set["molprobity"] {
		cfg.RunMolProbity = o.molprobity
	}
	if o.set["covariance"] {
		cfg.RunCovariance = o.covariance
	}
	if o.set["sync"] {
		cfg.Concurrent = !o.sync
	}
	return cfg, cfg.Validate()
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	level, err := cfg.Level()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, o, cfg, log); err != nil {
		log.Error("validation failed", "error", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, cfg config.Config, log *slog.Logger) error {
	inputs := o.inputs()
	if err := acquire.Validate(inputs); err != nil {
		return err
	}

	structures := make([]*pdb.PDB, len(inputs))
	for i := range inputs {
		s, err := pdb.ReadFile(inputs[i].ModelPath)
		if err != nil {
			return fmt.Errorf("model %d: %w", i, err)
		}
		structures[i] = s
		inputs[i].SeqNums = s.SeqNums()
	}

	tasks := map[acquire.Kind]acquire.Task{
		acquire.Reflections: acquire.DensityTask(density.NewEngine(cfg.DensityCommand, log)),
	}
	if cfg.RunMolProbity {
		tasks[acquire.Geometry] = acquire.GeometryTask(molprobity.NewEngine(cfg.MolProbityDir, log))
	}
	if cfg.RunCovariance {
		tasks[acquire.Covariance] = acquire.CovarianceTask(covariance.NewEngine(cfg.CovarianceCommand, cfg.DistpredFormat, log))
	}
	if o.cacheDir != "" {
		for k, t := range tasks {
			tasks[k] = cached(o.cacheDir, k, taskSettings(k, cfg), t)
		}
	}

	c := &acquire.Coordinator{
		Concurrent: cfg.Concurrent,
		MaxWorkers: cfg.MaxWorkers,
		Timeout:    cfg.TaskTimeout,
		Log:        log,
	}
	bundles := c.Run(ctx, inputs, tasks)

	libs, err := metrics.DefaultLibraries()
	if err != nil {
		return err
	}

	models := make([]*metrics.Model, len(bundles))
	for i, b := range bundles {
		src := metrics.Sources{
			Geometry:         b.Geometry,
			Density:          b.Density,
			Covariance:       b.Covariance,
			HeaderResolution: cfg.HeaderResolution,
		}
		m, err := metrics.NewModel(b.ModelID, structures[i], src, libs)
		if err != nil {
			return fmt.Errorf("model %d: %w", i, err)
		}
		models[i] = m
	}

	data, err := metrics.NewSeries(models, log).Data()
	if err != nil {
		return err
	}

	if err := writeReport(o.output, data); err != nil {
		return err
	}
	log.Info("report written", "chains", len(data.Chains), "models", len(models))
	return nil
}
