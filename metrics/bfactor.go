package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tikz/iris/metric"
	"github.com/tikz/iris/pdb"
)

// BFactors are the atomic displacement statistics of a residue.
type BFactors struct {
	Mean      metric.NullFloat64
	Max       metric.NullFloat64
	Std       metric.NullFloat64
	MainChain metric.NullFloat64 // mean over backbone atoms, amino acids only
	SideChain metric.NullFloat64 // mean over side-chain atoms, amino acids only
}

func residueBFactors(r *pdb.Residue, isAA bool) BFactors {
	var all, mc, sc []float64
	for _, a := range r.Atoms {
		all = append(all, a.BFactor)
		if pdb.MainChainAtoms[a.Name] {
			mc = append(mc, a.BFactor)
		} else {
			sc = append(sc, a.BFactor)
		}
	}
	if len(all) == 0 {
		return BFactors{}
	}

	mean, std := stat.PopMeanStdDev(all, nil)
	b := BFactors{
		Mean: metric.Float(mean),
		Max:  metric.Float(floats.Max(all)),
		Std:  metric.Float(std),
	}
	if isAA {
		if len(mc) > 0 {
			b.MainChain = metric.Float(stat.Mean(mc, nil))
		}
		if len(sc) > 0 {
			b.SideChain = metric.Float(stat.Mean(sc, nil))
		}
	}
	return b
}

// Stats summarizes a group of residue B-factors.
type Stats struct {
	Mean metric.NullFloat64 `json:"mean"`
	Std  metric.NullFloat64 `json:"std"`
	N    int                `json:"n"`
}

func newStats(xs []float64) Stats {
	if len(xs) == 0 {
		return Stats{}
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	return Stats{Mean: metric.Float(mean), Std: metric.Float(std), N: len(xs)}
}

// BFactorSummary groups the mean residue B-factors of a chain or model.
// Non amino acids other than waters are ligands when they have more than one
// atom and ions otherwise.
type BFactorSummary struct {
	All           Stats `json:"all"`
	AminoAcids    Stats `json:"amino_acids"`
	MainChain     Stats `json:"main_chain"`
	SideChain     Stats `json:"side_chain"`
	NonAminoAcids Stats `json:"non_amino_acids"`
	Waters        Stats `json:"waters"`
	Ligands       Stats `json:"ligands"`
	Ions          Stats `json:"ions"`
}

// bfactorLists collects the values behind a BFactorSummary.
type bfactorLists struct {
	all, aa, mc, sc, nonAA, water, ligand, ion []float64
}

func (l *bfactorLists) add(r *Residue) {
	if !r.BFactors.Mean.Valid {
		return
	}
	b := r.BFactors.Mean.Float64
	l.all = append(l.all, b)

	if r.IsAA {
		l.aa = append(l.aa, b)
		if r.BFactors.MainChain.Valid {
			l.mc = append(l.mc, r.BFactors.MainChain.Float64)
		}
		if r.BFactors.SideChain.Valid {
			l.sc = append(l.sc, r.BFactors.SideChain.Float64)
		}
		return
	}

	l.nonAA = append(l.nonAA, b)
	switch {
	case r.IsWater:
		l.water = append(l.water, b)
	case r.AtomCount > 1:
		l.ligand = append(l.ligand, b)
	default:
		l.ion = append(l.ion, b)
	}
}

func (l *bfactorLists) merge(o *bfactorLists) {
	l.all = append(l.all, o.all...)
	l.aa = append(l.aa, o.aa...)
	l.mc = append(l.mc, o.mc...)
	l.sc = append(l.sc, o.sc...)
	l.nonAA = append(l.nonAA, o.nonAA...)
	l.water = append(l.water, o.water...)
	l.ligand = append(l.ligand, o.ligand...)
	l.ion = append(l.ion, o.ion...)
}

func (l *bfactorLists) summary() BFactorSummary {
	return BFactorSummary{
		All:           newStats(l.all),
		AminoAcids:    newStats(l.aa),
		MainChain:     newStats(l.mc),
		SideChain:     newStats(l.sc),
		NonAminoAcids: newStats(l.nonAA),
		Waters:        newStats(l.water),
		Ligands:       newStats(l.ligand),
		Ions:          newStats(l.ion),
	}
}
