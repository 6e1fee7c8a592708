// Package metrics builds the per-residue quality metrics of atomic models and
// aligns the residues of successive versions of a model.
package metrics

import (
	"errors"
	"fmt"

	"github.com/tikz/iris/covariance"
	"github.com/tikz/iris/density"
	"github.com/tikz/iris/library"
	"github.com/tikz/iris/metric"
	"github.com/tikz/iris/molprobity"
	"github.com/tikz/iris/pdb"
	"github.com/tikz/iris/percentile"
	"github.com/tikz/iris/rama"
	"github.com/tikz/iris/rotamer"
)

// Libraries are the reference data used to classify and rank residues.
type Libraries struct {
	Rotamers     *rotamer.Classifier
	Ramachandran *rama.Classifier
	Percentiles  *library.PercentileTable
}

// DefaultLibraries loads the embedded reference data.
func DefaultLibraries() (Libraries, error) {
	rot, err := rotamer.Default()
	if err != nil {
		return Libraries{}, fmt.Errorf("rotamer library: %w", err)
	}
	rm, err := rama.Default()
	if err != nil {
		return Libraries{}, fmt.Errorf("ramachandran library: %w", err)
	}
	table, err := library.Percentiles()
	if err != nil {
		return Libraries{}, fmt.Errorf("percentile table: %w", err)
	}
	return Libraries{Rotamers: rot, Ramachandran: rm, Percentiles: table}, nil
}

// Sources are the optional acquisition results of a model. Any may be nil.
type Sources struct {
	Geometry   *molprobity.Result
	Density    *density.Result
	Covariance *covariance.Result

	// HeaderResolution ranks percentiles with the resolution in the model
	// header when there is no density result.
	HeaderResolution bool
}

// Model is one version of a structural model: its chains of amino acids and
// the model-wide context used to build them.
type Model struct {
	ID         int
	Chains     []*Chain
	Resolution metric.NullFloat64
	Bin        string

	Geometry      *molprobity.Result
	HasDensity    bool
	HasCovariance bool

	bfactors bfactorLists
}

type builder struct {
	src  Sources
	libs Libraries
	norm *percentile.Normalizer
}

// NewModel builds the metrics of every residue of s and then drops the
// residues that are not amino acids. Chains left empty are kept.
func NewModel(id int, s *pdb.PDB, src Sources, libs Libraries) (*Model, error) {
	if s == nil {
		return nil, errors.New("nil structure")
	}
	if libs.Rotamers == nil || libs.Ramachandran == nil || libs.Percentiles == nil {
		return nil, errors.New("missing reference libraries")
	}

	m := &Model{
		ID:            id,
		Geometry:      src.Geometry,
		HasDensity:    src.Density != nil,
		HasCovariance: src.Covariance != nil,
	}
	switch {
	case src.Density != nil:
		m.Resolution = metric.Float(src.Density.Resolution)
	case src.HeaderResolution && s.Resolution > 0:
		m.Resolution = metric.Float(s.Resolution)
	}

	b := &builder{
		src:  src,
		libs: libs,
		norm: percentile.New(libs.Percentiles, m.Resolution),
	}
	m.Bin = b.norm.Bin()

	for _, c := range s.Chains {
		chain := b.newChain(c)
		m.bfactors.merge(&chain.bfactors)
		chain.RemoveNonAA()
		m.Chains = append(m.Chains, chain)
	}

	return m, nil
}

// Chain returns the chain with the given identifier, or nil.
func (m *Model) Chain(id string) *Chain {
	for _, c := range m.Chains {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// RemoveChain removes every chain with the given identifier. Returns false when there is none.
func (m *Model) RemoveChain(id string) bool {
	kept := m.Chains[:0]
	for _, c := range m.Chains {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	removed := len(kept) != len(m.Chains)
	for i := len(kept); i < len(m.Chains); i++ {
		m.Chains[i] = nil
	}
	m.Chains = kept
	return removed
}

// ChainIDs returns the chain identifiers in model order.
func (m *Model) ChainIDs() []string {
	ids := make([]string, len(m.Chains))
	for i, c := range m.Chains {
		ids[i] = c.ID
	}
	return ids
}

// BFactorSummary summarizes the B-factors of every residue read for the model.
func (m *Model) BFactorSummary() BFactorSummary {
	return m.bfactors.summary()
}

// RamachandranPoint is the backbone conformation of one residue.
type RamachandranPoint struct {
	Chain     string           `json:"chain"`
	SeqNum    int64            `json:"seqnum"`
	Code      string           `json:"code"`
	Category  string           `json:"category"`
	Phi       float64          `json:"phi"`
	Psi       float64          `json:"psi"`
	Indicator metric.Indicator `json:"indicator"`
}

// RamachandranPoints returns the residues with both backbone torsions defined.
func (m *Model) RamachandranPoints() []RamachandranPoint {
	var points []RamachandranPoint
	for _, c := range m.Chains {
		for _, r := range c.Residues {
			if !r.Phi.Valid || !r.Psi.Valid {
				continue
			}
			points = append(points, RamachandranPoint{
				Chain:     c.ID,
				SeqNum:    r.SeqNum,
				Code:      r.Code,
				Category:  r.RamaCategory,
				Phi:       r.Phi.Float64,
				Psi:       r.Psi.Float64,
				Indicator: r.Indicators.Ramachandran,
			})
		}
	}
	return points
}
