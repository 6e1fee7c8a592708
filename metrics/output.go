package metrics

import (
	"fmt"

	"github.com/tikz/iris/align"
	"github.com/tikz/iris/metric"
	"github.com/tikz/iris/molprobity"
)

// TupleSize is the number of continuous metrics in an entry tuple: the
// B-factor statistics and the density fit scores.
const TupleSize = int(metric.SideChainFit) + 1

// Entry is one model version at one aligned position. Gaps have Valid unset
// and every other field absent.
type Entry struct {
	Valid       bool                                   `json:"valid"`
	SeqNum      metric.NullInt                         `json:"seqnum"`
	Code        string                                 `json:"code,omitempty"`
	Discrete    [metric.DiscreteCount]metric.Indicator `json:"discrete"`
	Continuous  [TupleSize]metric.NullFloat64          `json:"continuous"`
	Percentiles [TupleSize]metric.NullInt              `json:"percentiles"`

	Covariance           metric.NullFloat64 `json:"covariance"`
	CovariancePercentile metric.NullInt     `json:"covariance_percentile"`
	CMO                  metric.NullInt     `json:"cmo"`
}

// Position is an aligned position with one entry per model version.
type Position struct {
	Index    int     `json:"index"`
	Versions []Entry `json:"versions"`
}

// AlignedChain is the positionally aligned table of a chain across model versions.
type AlignedChain struct {
	ChainID        string     `json:"chain_id"`
	NumVersions    int        `json:"num_versions"`
	AlignedLength  int        `json:"aligned_length"`
	HasMolProbity  bool       `json:"has_molprobity"`
	HasReflections bool       `json:"has_reflections"`
	HasCovariance  bool       `json:"has_covariance"`
	Positions      []Position `json:"positions"`
}

// ModelSummary holds the model-wide data of one version.
type ModelSummary struct {
	ID           int                 `json:"id"`
	Resolution   metric.NullFloat64  `json:"resolution"`
	Bin          string              `json:"resolution_bin"`
	BFactors     BFactorSummary      `json:"b_factors"`
	Geometry     *molprobity.Summary `json:"molprobity,omitempty"`
	Outliers     *molprobity.Details `json:"molprobity_details,omitempty"`
	Ramachandran []RamachandranPoint `json:"ramachandran"`
}

// SeriesData is everything a renderer needs from a series.
type SeriesData struct {
	Chains []AlignedChain `json:"chains"`
	Layout metric.Layout  `json:"layout"`
	Models []ModelSummary `json:"models"`
}

// Availability reports which acquisitions produced data for every model.
func (s *Series) Availability() metric.Availability {
	if len(s.Models) == 0 {
		return metric.Availability{}
	}
	a := metric.Availability{MolProbity: true, Reflections: true, Covariance: true}
	for _, m := range s.Models {
		a.MolProbity = a.MolProbity && m.Geometry != nil
		a.Reflections = a.Reflections && m.HasDensity
		a.Covariance = a.Covariance && m.HasCovariance
	}
	return a
}

// Data aligns the series if needed and returns the aligned chains sorted by
// identifier, the renderer layout and the model summaries.
func (s *Series) Data() (*SeriesData, error) {
	if err := s.Align(); err != nil {
		return nil, err
	}

	avail := s.Availability()
	data := &SeriesData{Layout: metric.NewLayout(avail)}

	for _, id := range s.ChainIDs() {
		ac, err := s.alignedChain(id, avail)
		if err != nil {
			return nil, err
		}
		data.Chains = append(data.Chains, ac)
	}

	for _, m := range s.Models {
		sum := ModelSummary{
			ID:           m.ID,
			Resolution:   m.Resolution,
			Bin:          m.Bin,
			BFactors:     m.BFactorSummary(),
			Ramachandran: m.RamachandranPoints(),
		}
		if m.Geometry != nil {
			sum.Geometry = &m.Geometry.Summary
			sum.Outliers = &m.Geometry.Details
		}
		data.Models = append(data.Models, sum)
	}

	return data, nil
}

// alignedChain walks the aligned sequences of a chain in lock-step. A gap
// yields an empty entry; any other letter takes the next residue of that
// model's chain, in order.
func (s *Series) alignedChain(id string, avail metric.Availability) (AlignedChain, error) {
	seqs := s.Alignments[id]
	chains := s.ChainSets[id]

	length := 0
	if len(seqs) > 0 {
		length = len(seqs[0])
	}
	ac := AlignedChain{
		ChainID:        id,
		NumVersions:    len(s.Models),
		AlignedLength:  length,
		HasMolProbity:  avail.MolProbity,
		HasReflections: avail.Reflections,
		HasCovariance:  avail.Covariance,
		Positions:      make([]Position, length),
	}
	for p := range ac.Positions {
		ac.Positions[p] = Position{Index: p, Versions: make([]Entry, len(seqs))}
	}

	for v, seq := range seqs {
		if len(seq) != length {
			return AlignedChain{}, fmt.Errorf("chain %s: aligned sequences differ in length", id)
		}
		next := 0
		for p := 0; p < length; p++ {
			if seq[p] == align.Gap {
				continue
			}
			if next >= len(chains[v].Residues) {
				return AlignedChain{}, fmt.Errorf("chain %s: alignment longer than model %d", id, s.Models[v].ID)
			}
			ac.Positions[p].Versions[v] = newEntry(chains[v].Residues[next])
			next++
		}
	}

	return ac, nil
}

func newEntry(r *Residue) Entry {
	e := Entry{
		Valid:  true,
		SeqNum: metric.Int(int(r.SeqNum)),
		Code:   r.Code,
		Discrete: [metric.DiscreteCount]metric.Indicator{
			metric.Rotamer:      r.Indicators.Rotamer,
			metric.Ramachandran: r.Indicators.Ramachandran,
			metric.Clash:        r.Indicators.Clash,
		},
		Covariance:           r.Values[metric.CovarianceScore].Round(3),
		CovariancePercentile: r.Percentiles[metric.CovarianceScore],
		CMO:                  r.CMO,
	}
	for i := 0; i < TupleSize; i++ {
		e.Continuous[i] = r.Values[i].Round(3)
		e.Percentiles[i] = r.Percentiles[i]
	}
	return e
}
