package metrics

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tikz/iris/align"
)

var (
	// ErrTooManyModels is returned when aligning more than two model versions.
	ErrTooManyModels = errors.New("only two model versions can be aligned")
	// ErrNoValidChains is returned when a model has no chain with amino acids.
	ErrNoValidChains = errors.New("model has no valid chains")
)

// Series is the ordered list of versions of a model, previous first.
// Once aligned, every chain in ChainSets is present in every model and its
// aligned sequences have the same length.
type Series struct {
	Models []*Model

	// ChainSets holds, by chain identifier, the chain of each model in model order.
	ChainSets map[string][]*Chain
	// Alignments holds, by chain identifier, the aligned one-letter sequence of each model.
	Alignments map[string][]string

	log     *slog.Logger
	aligned bool
}

// NewSeries returns an unaligned series. A nil log uses the default logger.
func NewSeries(models []*Model, log *slog.Logger) *Series {
	if log == nil {
		log = slog.Default()
	}
	return &Series{Models: models, log: log}
}

// Aligned reports whether Align has completed.
func (s *Series) Aligned() bool {
	return s.aligned
}

// ChainIDs returns the aligned chain identifiers, sorted.
func (s *Series) ChainIDs() []string {
	ids := make([]string, 0, len(s.ChainSets))
	for id := range s.ChainSets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Align removes chains without amino acids, drops the chains not present in
// every model and aligns the residue sequences of each remaining chain.
// It does nothing once the series is aligned.
func (s *Series) Align() error {
	if s.aligned {
		return nil
	}
	if len(s.Models) > 2 {
		return fmt.Errorf("%w: got %d", ErrTooManyModels, len(s.Models))
	}

	empty := make(map[string]bool)
	for _, m := range s.Models {
		for _, c := range m.Chains {
			if c.Length == 0 {
				empty[c.ID] = true
			}
		}
	}
	if len(empty) > 0 {
		ids := sortedKeys(empty)
		s.log.Warn("ignoring chains without amino acid residues", "chains", ids)
		for _, m := range s.Models {
			for _, id := range ids {
				m.RemoveChain(id)
			}
		}
	}
	for _, m := range s.Models {
		if len(m.Chains) == 0 {
			return fmt.Errorf("%w: model %d", ErrNoValidChains, m.ID)
		}
	}

	common := make(map[string]int)
	for _, m := range s.Models {
		for _, id := range m.ChainIDs() {
			common[id]++
		}
	}
	lost := make(map[string]bool)
	for id, n := range common {
		if n != len(s.Models) {
			lost[id] = true
			delete(common, id)
		}
	}
	if len(lost) > 0 {
		ids := sortedKeys(lost)
		s.log.Warn("chains not present in every model version are not aligned", "chains", ids)
		for _, m := range s.Models {
			for _, id := range ids {
				m.RemoveChain(id)
			}
		}
	}

	chainSets := make(map[string][]*Chain, len(common))
	alignments := make(map[string][]string, len(common))
	for id := range common {
		seqs := make([]string, len(s.Models))
		for i, m := range s.Models {
			c := m.Chain(id)
			chainSets[id] = append(chainSets[id], c)

			seq, err := align.OneLetter(c.Codes())
			if err != nil {
				return fmt.Errorf("chain %s of model %d: %w", id, m.ID, err)
			}
			seqs[i] = seq
		}

		aligned, err := align.Sequences(seqs)
		if err != nil {
			return fmt.Errorf("chain %s: %w", id, err)
		}
		alignments[id] = aligned
	}

	s.ChainSets = chainSets
	s.Alignments = alignments
	s.aligned = true
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
