// Package density scores how well residues fit the electron density computed
// from the experimental reflections.
package density

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tikz/iris/metric"
	"github.com/tikz/iris/pdb"
)

// AtomDensity is the map value sampled at one atom position.
type AtomDensity struct {
	Chain   string
	SeqNum  int64
	Name    string
	Density float64
}

// Map holds the density sampled at every atom of a model and the statistics
// of the whole map.
type Map struct {
	Resolution float64
	Mean       float64
	Std        float64
	Atoms      []AtomDensity
}

// Sampler computes a density map from a model and its reflections and samples it at the atoms.
type Sampler interface {
	Sample(ctx context.Context, modelPath string, reflectionsPath string) (*Map, error)
}

// ExecSampler runs an external program printing the sampled map.
type ExecSampler struct {
	Command string
}

func (s ExecSampler) Sample(ctx context.Context, modelPath string, reflectionsPath string) (*Map, error) {
	ext := strings.ToLower(filepath.Ext(reflectionsPath))
	if ext != ".mtz" {
		return nil, fmt.Errorf("reflections file has unsupported extension %q", ext)
	}

	cmd := exec.CommandContext(ctx, s.Command, modelPath, reflectionsPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", s.Command, err, out)
	}

	return ParseMap(bytes.NewReader(out))
}

// ParseMap reads the sampler output:
//
//	RESOLUTION 1.70
//	MEAN 0.000
//	STD 0.350
//	ATOM A 1 N 0.852
//
// A blank chain identifier is written as "_".
func ParseMap(r io.Reader) (*Map, error) {
	var m Map
	var seen int

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "RESOLUTION", "MEAN", "STD":
			if len(fields) != 2 {
				return nil, fmt.Errorf("invalid %s line", fields[0])
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fields[0], err)
			}
			switch fields[0] {
			case "RESOLUTION":
				m.Resolution = v
			case "MEAN":
				m.Mean = v
			case "STD":
				m.Std = v
			}
			seen++
		case "ATOM":
			if len(fields) != 5 {
				return nil, fmt.Errorf("invalid ATOM line %q", scanner.Text())
			}
			seqNum, err := strconv.ParseInt(fields[2], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("ATOM residue number: %w", err)
			}
			d, err := strconv.ParseFloat(fields[4], 64)
			if err != nil {
				return nil, fmt.Errorf("ATOM density: %w", err)
			}
			chain := fields[1]
			if chain == "_" {
				chain = ""
			}
			m.Atoms = append(m.Atoms, AtomDensity{Chain: chain, SeqNum: seqNum, Name: fields[3], Density: d})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if seen < 3 {
		return nil, errors.New("map statistics missing")
	}
	if m.Std <= 0 {
		return nil, errors.New("map standard deviation must be positive")
	}
	return &m, nil
}

// Fit holds the density fit scores of a residue. Lower is better.
type Fit struct {
	All       metric.NullFloat64
	MainChain metric.NullFloat64
	SideChain metric.NullFloat64
}

// Result is the density fit of one model.
type Result struct {
	Resolution float64
	Residues   map[metric.Key]Fit
}

// Residue returns the fit of a residue, false when it was not scored.
func (r *Result) Residue(chain string, seqNum int64) (Fit, bool) {
	f, ok := r.Residues[metric.Key{Chain: chain, SeqNum: seqNum}]
	return f, ok
}

type atomKey struct {
	chain  string
	seqNum int64
	name   string
}

// Score computes the fit of every residue of s. Each atom scores
// -ln Φ((ρ/Z - mean) / std), with Z its atomic number, and residues average
// their atoms. Main and side chain scores are only given for amino acids.
func Score(m *Map, s *pdb.PDB) *Result {
	densities := make(map[atomKey]float64, len(m.Atoms))
	for _, a := range m.Atoms {
		densities[atomKey{a.Chain, a.SeqNum, a.Name}] = a.Density
	}

	res := &Result{Resolution: m.Resolution, Residues: make(map[metric.Key]Fit)}
	for _, c := range s.Chains {
		for _, r := range c.Residues {
			var all, mc, sc []float64
			for _, a := range r.Atoms {
				rho, ok := densities[atomKey{c.ID, r.Number, a.Name}]
				if !ok {
					continue
				}
				z, ok := AtomicNumbers[strings.ToUpper(a.Element)]
				if !ok {
					continue
				}

				score := atomScore(rho/float64(z), m.Mean, m.Std)
				if math.IsNaN(score) {
					continue
				}
				all = append(all, score)
				if pdb.MainChainAtoms[a.Name] {
					mc = append(mc, score)
				} else {
					sc = append(sc, score)
				}
			}
			if len(all) == 0 {
				continue
			}

			fit := Fit{All: mean(all)}
			if r.IsAminoacid() {
				fit.MainChain = mean(mc)
				fit.SideChain = mean(sc)
			}
			res.Residues[metric.Key{Chain: c.ID, SeqNum: r.Number}] = fit
		}
	}
	return res
}

// atomScore clamps Φ away from zero so an atom far in the lower tail scores
// a large finite value instead of +Inf.
func atomScore(rho, mapMean, mapStd float64) float64 {
	p := distuv.UnitNormal.CDF((rho - mapMean) / mapStd)
	return -math.Log(math.Max(p, math.SmallestNonzeroFloat64))
}

func mean(xs []float64) metric.NullFloat64 {
	if len(xs) == 0 {
		return metric.NullFloat64{}
	}
	return metric.Float(stat.Mean(xs, nil))
}

// Engine samples and scores models.
type Engine struct {
	Sampler Sampler
	Log     *slog.Logger
}

// NewEngine returns an engine running command to sample maps.
func NewEngine(command string, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{Sampler: ExecSampler{Command: command}, Log: log}
}

// Run samples the map of the model at modelPath and scores its residues.
func (e *Engine) Run(ctx context.Context, modelPath string, reflectionsPath string) (*Result, error) {
	s, err := pdb.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	m, err := e.Sampler.Sample(ctx, modelPath, reflectionsPath)
	if err != nil {
		return nil, fmt.Errorf("sample map: %w", err)
	}

	res := Score(m, s)
	if e.Log != nil {
		e.Log.Debug("density scored", "model", modelPath, "resolution", res.Resolution, "residues", len(res.Residues))
	}
	return res, nil
}
