// Package rotamer classifies side-chain conformations against the rotamer library.
package rotamer

import (
	"math"
	"strings"

	"github.com/tikz/iris/library"
	"github.com/tikz/iris/metric"
)

// Classification is the rotamer bucket of a residue.
type Classification int

const (
	Unclassified Classification = iota
	Outlier
	Allowed
	Favoured
)

func (c Classification) String() string {
	switch c {
	case Outlier:
		return "outlier"
	case Allowed:
		return "allowed"
	case Favoured:
		return "favoured"
	}
	return "unclassified"
}

// Indicator converts the classification to a discrete indicator.
func (c Classification) Indicator() metric.Indicator {
	switch c {
	case Outlier:
		return metric.Outlier
	case Allowed:
		return metric.Allowed
	case Favoured:
		return metric.Favoured
	}
	return metric.Unknown
}

// Classifier looks up chi angles in a rotamer library.
type Classifier struct {
	lib *library.RotamerLibrary
}

// New returns a classifier over lib.
func New(lib *library.RotamerLibrary) *Classifier {
	return &Classifier{lib: lib}
}

// Default returns a classifier over the embedded library.
func Default() (*Classifier, error) {
	lib, err := library.Rotamers()
	if err != nil {
		return nil, err
	}
	return New(lib), nil
}

// Dims returns the number of chi angles the library defines for code, or 0 for unknown codes.
func (c *Classifier) Dims(code string) int {
	g, ok := c.lib.Grids[strings.ToUpper(code)]
	if !ok {
		return 0
	}
	return g.Dims()
}

// Classify returns the classification of the bin nearest to chis.
// Unknown codes and missing chi angles are Unclassified.
func (c *Classifier) Classify(code string, chis []metric.NullFloat64) Classification {
	g, ok := c.lib.Grids[strings.ToUpper(code)]
	if !ok {
		return Unclassified
	}

	values, ok := defined(chis, g.Dims())
	if !ok {
		return Unclassified
	}

	v, ok := g.Lookup(values)
	if !ok {
		return Unclassified
	}

	switch v {
	case library.RotamerFavoured:
		return Favoured
	case library.RotamerAllowed:
		return Allowed
	default:
		return Outlier
	}
}

// Score returns the lowest root-mean-square z-score of chis against the
// canonical rotamers of code. Each rotamer is compared over the chi angles it
// defines only.
func (c *Classifier) Score(code string, chis []metric.NullFloat64) metric.NullFloat64 {
	code = strings.ToUpper(code)
	centroids, ok := c.lib.Centroids[code]
	if !ok || len(centroids) == 0 {
		return metric.NullFloat64{}
	}

	dims := c.Dims(code)
	for _, cen := range centroids {
		if len(cen.Means) > dims {
			dims = len(cen.Means)
		}
	}
	values, ok := defined(chis, dims)
	if !ok {
		return metric.NullFloat64{}
	}

	best := math.Inf(1)
	for _, cen := range centroids {
		var sum float64
		for i, mean := range cen.Means {
			z := circularDelta(values[i], mean) / cen.SDs[i]
			sum += z * z
		}
		rms := math.Sqrt(sum / float64(len(cen.Means)))
		if rms < best {
			best = rms
		}
	}

	return metric.Float(best)
}

// circularDelta returns the smallest absolute angular difference in degrees.
func circularDelta(a, b float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, math.Abs(d-360))
}

// defined returns the first n chi values, or false when any of them is missing.
func defined(chis []metric.NullFloat64, n int) ([]float64, bool) {
	if n == 0 || len(chis) < n {
		return nil, false
	}
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		if !chis[i].Valid {
			return nil, false
		}
		values[i] = chis[i].Float64
	}
	return values, true
}
