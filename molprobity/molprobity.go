// Package molprobity runs the MolProbity geometry validation programs on a
// model and collects per-residue indicators, a model-wide summary and the
// itemized outliers.
package molprobity

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"

	"github.com/tikz/iris/metric"
)

// Programs run by the engine, in order.
const (
	Clashscore = "molprobity.clashscore"
	Ramalyze   = "molprobity.ramalyze"
	Rotalyze   = "molprobity.rotalyze"
	CBetaDev   = "molprobity.cbetadev"
	Omegalyze  = "molprobity.omegalyze"
	Molprobity = "molprobity.molprobity"
)

// Runner runs an external program and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs found in Dir, or in PATH when Dir is empty.
type ExecRunner struct {
	Dir string
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path := name
	if r.Dir != "" {
		path = filepath.Join(r.Dir, name)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return out, nil
}

// Indicators are the discrete geometry flags of a residue.
type Indicators struct {
	Clash        metric.Indicator `json:"clash"`
	CBeta        metric.Indicator `json:"c-beta"`
	Omega        metric.Indicator `json:"omega"`
	Ramachandran metric.Indicator `json:"ramachandran"`
	Rotamer      metric.Indicator `json:"rotamer"`
	Flip         metric.Indicator `json:"nqh_flip"`
}

// Summary holds the model-wide validation scores.
type Summary struct {
	Clashscore           metric.NullFloat64 `json:"clashscore"`
	RamachandranOutliers metric.NullFloat64 `json:"ramachandran_outliers"` // percent
	RamachandranFavoured metric.NullFloat64 `json:"ramachandran_favoured"` // percent
	RotamerOutliers      metric.NullFloat64 `json:"rotamer_outliers"`      // percent
	CBetaDeviations      int                `json:"cbeta_deviations"`
	RMSBonds             metric.NullFloat64 `json:"rms_bonds"`  // Angstroms
	RMSAngles            metric.NullFloat64 `json:"rms_angles"` // degrees
	Score                metric.NullFloat64 `json:"molprobity_score"`
}

// Outlier is one itemized residue outlier.
type Outlier struct {
	Chain  string  `json:"chain"`
	SeqNum int64   `json:"seqnum"`
	Code   string  `json:"code"`
	Score  float64 `json:"score"`
}

// Clash is a pair of overlapping atoms.
type Clash struct {
	Atoms   [2]string `json:"atoms"`
	Overlap float64   `json:"overlap"`
}

// Details lists the outliers found by each program.
type Details struct {
	Clashes      []Clash   `json:"clash"`
	CBeta        []Outlier `json:"c-beta"`
	NQHFlips     []Outlier `json:"nqh_flips"`
	Omega        []Outlier `json:"omega"`
	Ramachandran []Outlier `json:"ramachandran"`
	Rotamer      []Outlier `json:"rotamer"`
}

// Result is the geometry validation of one model.
type Result struct {
	Residues map[metric.Key]Indicators `json:"-"`
	Summary  Summary                   `json:"summary"`
	Details  Details                   `json:"details"`
}

// Residue returns the indicators of a residue, false when it was not validated.
func (r *Result) Residue(chain string, seqNum int64) (Indicators, bool) {
	ind, ok := r.Residues[metric.Key{Chain: chain, SeqNum: seqNum}]
	return ind, ok
}

// Engine validates models with the MolProbity programs.
type Engine struct {
	Runner Runner
	Log    *slog.Logger
}

// NewEngine returns an engine running the programs installed in dir.
func NewEngine(dir string, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{Runner: ExecRunner{Dir: dir}, Log: log}
}

// Validate runs every program on the model at modelPath. Indicators are
// collected for the residues listed in seqNums, by chain. Any program failing
// fails the whole validation.
func (e *Engine) Validate(ctx context.Context, modelPath string, seqNums map[string][]int64) (*Result, error) {
	log := e.Log
	if log == nil {
		log = slog.Default()
	}

	res := &Result{Residues: make(map[metric.Key]Indicators)}
	for chain, nums := range seqNums {
		for _, n := range nums {
			res.Residues[metric.Key{Chain: chain, SeqNum: n}] = Indicators{Clash: metric.Favoured}
		}
	}

	steps := []struct {
		program string
		parse   func([]byte, *Result) error
	}{
		{Clashscore, parseClashscore},
		{Ramalyze, parseRamalyze},
		{Rotalyze, parseRotalyze},
		{CBetaDev, parseCBetaDev},
		{Omegalyze, parseOmegalyze},
		{Molprobity, parseMolprobity},
	}
	for _, s := range steps {
		out, err := e.Runner.Run(ctx, s.program, modelPath)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", s.program, err)
		}
		if err := s.parse(out, res); err != nil {
			return nil, fmt.Errorf("parse %s output: %w", s.program, err)
		}
		log.Debug("molprobity program finished", "program", s.program, "model", modelPath)
	}

	res.Summary.Score = Score(res.Summary)
	return res, nil
}

// update applies fn to the indicators of a validated residue.
func (r *Result) update(k metric.Key, fn func(*Indicators)) {
	ind, ok := r.Residues[k]
	if !ok {
		return
	}
	fn(&ind)
	r.Residues[k] = ind
}

// Score combines the clashscore, rotamer outliers and Ramachandran favoured
// percentages into the MolProbity score, a resolution-like number.
func Score(s Summary) metric.NullFloat64 {
	if !s.Clashscore.Valid || !s.RotamerOutliers.Valid || !s.RamachandranFavoured.Valid {
		return metric.NullFloat64{}
	}
	return metric.Float(0.426*math.Log(1+s.Clashscore.Float64) +
		0.33*math.Log(1+math.Max(0, s.RotamerOutliers.Float64-1)) +
		0.25*math.Log(1+math.Max(0, 100-s.RamachandranFavoured.Float64-2)) +
		0.5)
}

// scoreIndicator buckets a Ramachandran or rotamer percentile score.
func scoreIndicator(score float64) metric.Indicator {
	switch {
	case score < 0.3:
		return metric.Outlier
	case score < 2.0:
		return metric.Allowed
	}
	return metric.Favoured
}
