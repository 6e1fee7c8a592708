// Package percentile ranks metric values against structures of similar resolution.
package percentile

import (
	"github.com/tikz/iris/library"
	"github.com/tikz/iris/metric"
)

// Normalizer ranks values within one resolution bin.
type Normalizer struct {
	table *library.PercentileTable
	bin   string
}

// New returns a normalizer over table for the bin of resolution.
func New(table *library.PercentileTable, resolution metric.NullFloat64) *Normalizer {
	return &Normalizer{
		table: table,
		bin:   BinForResolution(table, resolution),
	}
}

// Default returns a normalizer over the embedded percentile table.
func Default(resolution metric.NullFloat64) (*Normalizer, error) {
	table, err := library.Percentiles()
	if err != nil {
		return nil, err
	}
	return New(table, resolution), nil
}

// Bin returns the resolution bin name.
func (n *Normalizer) Bin() string {
	return n.bin
}

// BinForResolution returns the first bin whose threshold exceeds r, the
// loosest bin when none does, and the all-resolutions bin when r is absent.
func BinForResolution(table *library.PercentileTable, r metric.NullFloat64) string {
	if !r.Valid {
		return library.AllResolutions
	}
	for _, b := range table.Bins {
		if r.Float64 < b.Threshold {
			return b.Name
		}
	}
	return table.Last
}

// Percentile returns the rank of value from 1 to 100, where 100 is always the
// best regardless of the metric polarity. Absent values and unknown metrics
// have no rank.
func (n *Normalizer) Percentile(id metric.ID, value metric.NullFloat64) metric.NullInt {
	if !value.Valid {
		return metric.NullInt{}
	}
	def, ok := metric.Lookup(id)
	if !ok {
		return metric.NullInt{}
	}
	thresholds, ok := n.table.Thresholds(def.LongName, n.bin)
	if !ok {
		return metric.NullInt{}
	}

	p := 100
	for i, th := range thresholds {
		if value.Float64 < th {
			p = i + 1
			break
		}
	}

	if def.Polarity == -1 {
		p = 101 - p
	}
	return metric.Int(p)
}
