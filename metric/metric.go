// Package metric defines the per-residue quality metrics shared by the
// classifiers, the percentile normalizer and the aligned output.
package metric

// ID identifies a continuous metric.
type ID int

const (
	AvgBFactor ID = iota
	MaxBFactor
	StdBFactor
	ResidueFit
	MainChainFit
	SideChainFit
	CovarianceScore

	// Count is the number of continuous metrics.
	Count = int(CovarianceScore) + 1
)

// Source is the acquisition a metric depends on.
type Source int

const (
	Model Source = iota
	MolProbity
	Reflections
	Covariance
)

// Definition describes a metric for the percentile tables and renderers.
type Definition struct {
	ID        ID     `json:"id"`
	LongName  string `json:"long_name"`
	ShortName string `json:"short_name"`
	Polarity  int    `json:"polarity"` // 1 when higher values are better, -1 otherwise
	Source    Source `json:"-"`
}

var continuous = [Count]Definition{
	{AvgBFactor, "Avg. B-factor", "Avg. B", -1, Model},
	{MaxBFactor, "Max. B-factor", "Max. B", -1, Model},
	{StdBFactor, "Std. B-factor", "Std. B", -1, Model},
	{ResidueFit, "Residue Fit", "Res. Fit", -1, Reflections},
	{MainChainFit, "Main Chain Fit", "M.C. Fit", -1, Reflections},
	{SideChainFit, "Side Chain Fit", "S.C. Fit", -1, Reflections},
	{CovarianceScore, "Covariance Score", "Cov.", 1, Covariance},
}

// Lookup returns the definition for id.
func Lookup(id ID) (Definition, bool) {
	if id < 0 || int(id) >= Count {
		return Definition{}, false
	}
	return continuous[id], true
}

// Definitions returns all continuous metric definitions ordered by ID.
func Definitions() []Definition {
	defs := make([]Definition, Count)
	copy(defs, continuous[:])
	return defs
}

// Discrete identifies a discrete indicator in the output triple.
type Discrete int

const (
	Rotamer Discrete = iota
	Ramachandran
	Clash

	DiscreteCount = int(Clash) + 1
)

// DiscreteDefinition describes a discrete indicator and its labels, worst first.
type DiscreteDefinition struct {
	ID       Discrete  `json:"id"`
	LongName string    `json:"long_name"`
	Labels   [3]string `json:"labels"`
	Source   Source    `json:"-"`
}

var discrete = [DiscreteCount]DiscreteDefinition{
	{Rotamer, "Rotamer Classification", [3]string{"Outlier", "Allowed", "Favoured"}, Model},
	{Ramachandran, "Ramachandran Classification", [3]string{"Outlier", "Allowed", "Favoured"}, Model},
	{Clash, "Clash Indicator", [3]string{"Multiple Clashes", "One Clash", "No Clashes"}, MolProbity},
}

// LookupDiscrete returns the definition for a discrete indicator.
func LookupDiscrete(id Discrete) (DiscreteDefinition, bool) {
	if id < 0 || int(id) >= DiscreteCount {
		return DiscreteDefinition{}, false
	}
	return discrete[id], true
}
