package metrics

import (
	"github.com/tikz/iris/metric"
	"github.com/tikz/iris/molprobity"
	"github.com/tikz/iris/pdb"
	"github.com/tikz/iris/rama"
)

// Residue is the metric bundle of one residue of a model. It is built once
// and only its ConsecutiveAA flag is set afterwards, by its chain.
type Residue struct {
	SeqNum    int64
	InsCode   string
	Code      string
	IsAA      bool
	IsWater   bool
	AtomCount int

	BackboneComplete  bool
	SidechainComplete bool

	Phi  metric.NullFloat64
	Psi  metric.NullFloat64
	Chis [4]metric.NullFloat64

	BFactors BFactors

	RamaCategory string
	RamaScore    metric.NullFloat64
	RotamerScore metric.NullFloat64

	Indicators molprobity.Indicators

	// CMO is 0 when the residue is part of the covariance alignment and 1 otherwise.
	CMO metric.NullInt

	Values      [metric.Count]metric.NullFloat64
	Percentiles [metric.Count]metric.NullInt

	// ConsecutiveAA is set when the residue and both neighbours are amino
	// acids with consecutive sequence numbers.
	ConsecutiveAA bool
}

// Key returns the residue key within chain.
func (r *Residue) Key(chain string) metric.Key {
	return metric.Key{Chain: chain, SeqNum: r.SeqNum}
}

// Value returns a continuous metric of the residue.
func (r *Residue) Value(id metric.ID) metric.NullFloat64 {
	if id < 0 || int(id) >= metric.Count {
		return metric.NullFloat64{}
	}
	return r.Values[id]
}

// Percentile returns the percentile rank of a continuous metric of the residue.
func (r *Residue) Percentile(id metric.ID) metric.NullInt {
	if id < 0 || int(id) >= metric.Count {
		return metric.NullInt{}
	}
	return r.Percentiles[id]
}

// newResidue builds the bundle of r given its neighbours in the chain, either of which may be nil.
func (b *builder) newResidue(chain string, r, prev, next *pdb.Residue) *Residue {
	res := &Residue{
		SeqNum:    r.Number,
		InsCode:   r.InsCode,
		Code:      r.Name3,
		IsAA:      r.IsAminoacid(),
		IsWater:   r.IsWater(),
		AtomCount: len(r.Atoms),
	}
	res.BackboneComplete = r.Atom("N") != nil && r.Atom("CA") != nil && r.Atom("C") != nil && r.Atom("O") != nil
	res.BFactors = residueBFactors(r, res.IsAA)

	res.Phi = phi(prev, r)
	res.Psi = psi(r, next)

	local := molprobity.Indicators{}
	if res.IsAA {
		var n int
		res.Chis, n = chis(r)
		res.SidechainComplete = true
		for _, c := range res.Chis[:n] {
			if !c.Valid {
				res.SidechainComplete = false
			}
		}

		nextCode := ""
		if next != nil {
			nextCode = next.Name3
		}
		res.RamaCategory = rama.Category(res.Code, nextCode)
		res.RamaScore = b.libs.Ramachandran.Score(res.RamaCategory, res.Phi, res.Psi)
		local.Ramachandran = rama.Classify(res.RamaScore)

		if res.SidechainComplete {
			res.RotamerScore = b.libs.Rotamers.Score(res.Code, res.Chis[:n])
			local.Rotamer = b.libs.Rotamers.Classify(res.Code, res.Chis[:n]).Indicator()
		}
	}

	res.Indicators = local
	if b.src.Geometry != nil {
		if ind, ok := b.src.Geometry.Residue(chain, res.SeqNum); ok {
			res.Indicators = ind
		}
	}

	res.Values[metric.AvgBFactor] = res.BFactors.Mean
	res.Values[metric.MaxBFactor] = res.BFactors.Max
	res.Values[metric.StdBFactor] = res.BFactors.Std

	if b.src.Density != nil {
		if fit, ok := b.src.Density.Residue(chain, res.SeqNum); ok {
			res.Values[metric.ResidueFit] = fit.All
			res.Values[metric.MainChainFit] = fit.MainChain
			res.Values[metric.SideChainFit] = fit.SideChain
		}
	}

	if b.src.Covariance != nil {
		if sig, ok := b.src.Covariance.Residue(chain, res.SeqNum); ok {
			res.Values[metric.CovarianceScore] = sig.Score
			res.CMO = metric.Int(sig.CMO())
		}
	}

	for i := range res.Values {
		res.Percentiles[i] = b.norm.Percentile(metric.ID(i), res.Values[i])
	}

	return res
}
