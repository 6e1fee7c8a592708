package metric

// Availability records which acquisitions produced data for a series.
type Availability struct {
	MolProbity  bool `json:"has_molprobity"`
	Reflections bool `json:"has_reflections"`
	Covariance  bool `json:"has_covariance"`
}

func (a Availability) has(s Source) bool {
	switch s {
	case MolProbity:
		return a.MolProbity
	case Reflections:
		return a.Reflections
	case Covariance:
		return a.Covariance
	}
	return true
}

// Ring is one concentric ring of the chain view, either a discrete or a continuous metric.
type Ring struct {
	Discrete   bool `json:"discrete"`
	MetricID   int  `json:"metric_id"`
	Percentile bool `json:"percentile"`
}

// Layout is the set of metrics shown by the renderer. It is computed once from
// the available data and is not modified afterwards.
type Layout struct {
	ChainRings   []Ring     `json:"chain_rings"`
	ResidueBoxes []Discrete `json:"residue_boxes"`
	ResidueBars  []ID       `json:"residue_bars"`
}

var (
	defaultChainRings = []Ring{
		{Discrete: true, MetricID: int(Rotamer)},
		{Discrete: true, MetricID: int(Ramachandran)},
		{Discrete: true, MetricID: int(Clash)},
		{MetricID: int(AvgBFactor), Percentile: true},
		{MetricID: int(MaxBFactor), Percentile: true},
		{MetricID: int(MainChainFit), Percentile: true},
		{MetricID: int(SideChainFit), Percentile: true},
		{MetricID: int(CovarianceScore), Percentile: true},
	}
	defaultResidueBoxes = []Discrete{Rotamer, Ramachandran, Clash}
	defaultResidueBars  = []ID{AvgBFactor, SideChainFit}
)

// NewLayout filters the default rings, boxes and bars down to the metrics whose source is available.
func NewLayout(a Availability) Layout {
	var l Layout
	for _, r := range defaultChainRings {
		var src Source
		if r.Discrete {
			src = discrete[r.MetricID].Source
		} else {
			src = continuous[r.MetricID].Source
		}
		if a.has(src) {
			l.ChainRings = append(l.ChainRings, r)
		}
	}
	for _, d := range defaultResidueBoxes {
		if a.has(discrete[d].Source) {
			l.ResidueBoxes = append(l.ResidueBoxes, d)
		}
	}
	for _, id := range defaultResidueBars {
		if a.has(continuous[id].Source) {
			l.ResidueBars = append(l.ResidueBars, id)
		}
	}
	return l
}
