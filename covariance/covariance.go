// Package covariance validates a model against the residue contacts predicted
// from sequence covariation.
package covariance

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tikz/iris/metric"
	"github.com/tikz/iris/pdb"
)

// Runner runs an external program and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs from PATH.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return out, nil
}

// Signal is the covariance score of a residue and whether it was part of the
// alignment between the model and the predicted contact map.
type Signal struct {
	Score   metric.NullFloat64
	Aligned bool
}

// CMO returns the contact map overlap flag: 0 when aligned, 1 otherwise.
func (s Signal) CMO() int {
	if s.Aligned {
		return 0
	}
	return 1
}

// Result is the covariance validation of one model.
type Result struct {
	Residues map[metric.Key]Signal
}

// Residue returns the signal of a residue, false when it was not scored.
func (r *Result) Residue(chain string, seqNum int64) (Signal, bool) {
	s, ok := r.Residues[metric.Key{Chain: chain, SeqNum: seqNum}]
	return s, ok
}

// Engine runs the covariance validation program.
type Engine struct {
	Runner  Runner
	Command string
	Format  string // distance prediction file format
	Log     *slog.Logger
}

// NewEngine returns an engine running command for predictions in format.
func NewEngine(command string, format string, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{Runner: ExecRunner{}, Command: command, Format: format, Log: log}
}

// Validate scores the residues listed in seqNums, by chain, of the model at
// modelPath against the predicted distances for the sequence in sequencePath.
func (e *Engine) Validate(ctx context.Context, modelPath, sequencePath, distpredPath string, seqNums map[string][]int64) (*Result, error) {
	if _, err := ReadFASTA(sequencePath); err != nil {
		return nil, fmt.Errorf("sequence: %w", err)
	}

	out, err := e.Runner.Run(ctx, e.Command,
		"--model", modelPath,
		"--sequence", sequencePath,
		"--distpred", distpredPath,
		"--format", e.Format)
	if err != nil {
		return nil, fmt.Errorf("run covariance: %w", err)
	}

	scored, err := parseScores(out)
	if err != nil {
		return nil, fmt.Errorf("parse covariance output: %w", err)
	}

	res := &Result{Residues: make(map[metric.Key]Signal)}
	for chain, nums := range seqNums {
		for _, n := range nums {
			k := metric.Key{Chain: chain, SeqNum: n}
			// Residues missing from the output are outside the alignment.
			res.Residues[k] = scored[k]
		}
	}

	if e.Log != nil {
		e.Log.Debug("covariance scored", "model", modelPath, "residues", len(scored))
	}
	return res, nil
}

// parseScores reads "chain seqnum score aligned" rows. Scores may be "nan" or
// "None" when undefined.
func parseScores(out []byte) (map[metric.Key]Signal, error) {
	scores := make(map[metric.Key]Signal)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("invalid line %q", scanner.Text())
		}

		seqNum, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("residue number: %w", err)
		}
		aligned, err := strconv.ParseBool(fields[3])
		if err != nil {
			return nil, fmt.Errorf("alignment flag: %w", err)
		}

		var sig Signal
		sig.Aligned = aligned
		if v, err := strconv.ParseFloat(fields[2], 64); err == nil {
			sig.Score = metric.Float(v)
		}

		chain := fields[0]
		if chain == "_" {
			chain = ""
		}
		scores[metric.Key{Chain: chain, SeqNum: seqNum}] = sig
	}
	return scores, scanner.Err()
}

// ReadFASTA reads the first sequence of a FASTA file and checks it only
// contains standard amino acids.
func ReadFASTA(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ParseFASTA(string(raw))
}

// ParseFASTA returns the first sequence of a FASTA text.
func ParseFASTA(txt string) (string, error) {
	var sequence strings.Builder
	headers := 0
	for _, line := range strings.Split(txt, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			headers++
			if headers > 1 {
				break
			}
			continue
		}
		for _, c := range strings.ToUpper(line) {
			if c == '*' {
				continue
			}
			if !pdb.IsAminoacid(string(c)) {
				return "", fmt.Errorf("invalid residue %q in sequence", c)
			}
			sequence.WriteRune(c)
		}
	}

	if headers == 0 || sequence.Len() == 0 {
		return "", errors.New("no sequence found")
	}
	return sequence.String(), nil
}
