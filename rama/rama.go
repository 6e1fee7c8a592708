// Package rama classifies backbone conformations on Ramachandran probability grids.
package rama

import (
	"strings"

	"github.com/tikz/iris/library"
	"github.com/tikz/iris/metric"
)

// Probability thresholds for favoured and allowed backbone conformations.
const (
	FavouredThreshold = 0.02
	AllowedThreshold  = 0.002
)

// Category returns the Ramachandran category of a residue given the code of the
// residue that follows it, empty when there is none.
func Category(code string, next string) string {
	switch strings.ToUpper(code) {
	case "GLY":
		return library.Glycine
	case "PRO":
		return library.Proline
	}
	if strings.ToUpper(next) == "PRO" {
		return library.PreProline
	}
	return library.General
}

// Classifier scores phi/psi pairs against a Ramachandran library.
type Classifier struct {
	lib *library.RamachandranLibrary
}

// New returns a classifier over lib.
func New(lib *library.RamachandranLibrary) *Classifier {
	return &Classifier{lib: lib}
}

// Default returns a classifier over the embedded library.
func Default() (*Classifier, error) {
	lib, err := library.Ramachandran()
	if err != nil {
		return nil, err
	}
	return New(lib), nil
}

// Score returns the probability of the bin nearest to (phi, psi) in the
// category grid, absent when either angle is missing.
func (c *Classifier) Score(category string, phi, psi metric.NullFloat64) metric.NullFloat64 {
	if !phi.Valid || !psi.Valid {
		return metric.NullFloat64{}
	}
	g, ok := c.lib.Grids[category]
	if !ok {
		return metric.NullFloat64{}
	}
	p, ok := g.Probability(phi.Float64, psi.Float64)
	if !ok {
		return metric.NullFloat64{}
	}
	return metric.Float(p)
}

// Classify buckets a score into favoured, allowed or outlier.
func Classify(score metric.NullFloat64) metric.Indicator {
	switch {
	case !score.Valid:
		return metric.Unknown
	case score.Float64 >= FavouredThreshold:
		return metric.Favoured
	case score.Float64 >= AllowedThreshold:
		return metric.Allowed
	}
	return metric.Outlier
}
