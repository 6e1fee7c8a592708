package library

import (
	"errors"
	"fmt"
	"math"
)

// Grid is a regular multi-dimensional binning of angles. Each dimension has
// its own bin center offset, bin width, wraparound range and bin count.
type Grid struct {
	Offsets []float64    `json:"offsets"`
	Ranges  [][2]float64 `json:"ranges"`
	Widths  []float64    `json:"widths"`
	Counts  []int        `json:"counts"`
}

// Dims returns the number of dimensions.
func (g *Grid) Dims() int {
	return len(g.Counts)
}

// Size returns the total number of bins.
func (g *Grid) Size() int {
	size := 1
	for _, c := range g.Counts {
		size *= c
	}
	return size
}

func (g *Grid) validate() error {
	n := len(g.Counts)
	if n == 0 {
		return errors.New("grid without dimensions")
	}
	if len(g.Offsets) != n || len(g.Ranges) != n || len(g.Widths) != n {
		return fmt.Errorf("grid dimension mismatch: %d offsets, %d ranges, %d widths, %d counts",
			len(g.Offsets), len(g.Ranges), len(g.Widths), n)
	}
	for d := 0; d < n; d++ {
		if g.Counts[d] <= 0 || g.Widths[d] <= 0 || g.Ranges[d][1] <= g.Ranges[d][0] {
			return fmt.Errorf("grid dimension %d is degenerate", d)
		}
	}
	return nil
}

// Snap returns the bin number along dimension d nearest to v.
// Values at or beyond either end of the range are shifted by one range width
// before snapping to the nearest bin center.
func (g *Grid) Snap(d int, v float64) int {
	lo, hi := g.Ranges[d][0], g.Ranges[d][1]
	width := hi - lo
	if v <= lo {
		v += width
	}
	if v >= hi {
		v -= width
	}

	n := g.Counts[d]
	m := int(math.RoundToEven((v - g.Offsets[d]) / g.Widths[d]))
	return ((m % n) + n) % n
}

// Center returns the bin center of bin m along dimension d.
func (g *Grid) Center(d int, m int) float64 {
	return g.Offsets[d] + float64(m)*g.Widths[d]
}

// Index returns the flat index of the bin nearest to values, encoding the
// per-dimension bins in mixed radix with the first dimension most significant.
// Only the first Dims() values are used; false is returned when fewer are given.
func (g *Grid) Index(values []float64) (int, bool) {
	if len(values) < g.Dims() {
		return 0, false
	}

	index := 0
	for d := 0; d < g.Dims(); d++ {
		if math.IsNaN(values[d]) {
			return 0, false
		}
		index = index*g.Counts[d] + g.Snap(d, values[d])
	}
	return index, true
}
