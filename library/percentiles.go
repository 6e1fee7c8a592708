package library

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// AllResolutions is the bin used when no resolution is known.
const AllResolutions = "All"

// ResolutionBin is an upper resolution threshold and the name of the bin below it.
type ResolutionBin struct {
	Name      string
	Threshold float64
}

// PercentileTable holds, per metric long name and resolution bin, the value
// at each integer percentile from 1 to 100.
type PercentileTable struct {
	// Bins are ordered from the tightest resolution to the loosest.
	Bins []ResolutionBin
	// Last is the name of the bin beyond every threshold.
	Last string

	values map[string]map[string][]float64
}

// Thresholds returns the 100 percentile thresholds of a metric in a bin.
func (t *PercentileTable) Thresholds(metric string, bin string) ([]float64, bool) {
	bins, ok := t.values[metric]
	if !ok {
		return nil, false
	}
	th, ok := bins[bin]
	return th, ok
}

// Metrics returns the metric names present in the table, sorted.
func (t *PercentileTable) Metrics() []string {
	names := make([]string, 0, len(t.values))
	for name := range t.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadPercentiles decodes the percentile CSV table and the resolution bin CSV.
func LoadPercentiles(table io.Reader, bins io.Reader) (*PercentileTable, error) {
	t := &PercentileTable{values: make(map[string]map[string][]float64)}

	var err error
	t.Bins, t.Last, err = readResolutionBins(bins)
	if err != nil {
		return nil, fmt.Errorf("resolution bins: %w", err)
	}

	records, err := csv.NewReader(table).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("percentiles: %w", err)
	}
	if len(records) < 2 || len(records[0]) < 3 {
		return nil, errors.New("percentiles: empty table")
	}

	header := records[0]
	for n, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("percentiles: line %d: expected %d fields, got %d", n+2, len(header), len(rec))
		}
		bin := rec[0]
		p, err := strconv.Atoi(rec[1])
		if err != nil || p < 1 || p > 100 {
			return nil, fmt.Errorf("percentiles: line %d: invalid percentile %q", n+2, rec[1])
		}

		for i, name := range header[2:] {
			v, err := strconv.ParseFloat(rec[2+i], 64)
			if err != nil {
				return nil, fmt.Errorf("percentiles: line %d: %w", n+2, err)
			}
			if t.values[name] == nil {
				t.values[name] = make(map[string][]float64)
			}
			th := t.values[name][bin]
			if th == nil {
				th = make([]float64, 100)
				t.values[name][bin] = th
			}
			th[p-1] = v
		}
	}

	return t, nil
}

// readResolutionBins reads (percentile, resolution) rows into named bins:
// "<10" below the first threshold, "10-20" below the second, and so on.
func readResolutionBins(r io.Reader) ([]ResolutionBin, string, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, "", err
	}
	if len(records) < 2 {
		return nil, "", errors.New("no bins")
	}

	var bins []ResolutionBin
	prev := 0
	for n, rec := range records[1:] {
		if len(rec) != 2 {
			return nil, "", fmt.Errorf("line %d: expected 2 fields, got %d", n+2, len(rec))
		}
		p, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, "", fmt.Errorf("line %d: %w", n+2, err)
		}
		threshold, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, "", fmt.Errorf("line %d: %w", n+2, err)
		}
		if len(bins) > 0 && threshold <= bins[len(bins)-1].Threshold {
			return nil, "", fmt.Errorf("line %d: thresholds must increase", n+2)
		}

		name := fmt.Sprintf("%d-%d", prev, p)
		if prev == 0 {
			name = fmt.Sprintf("<%d", p)
		}
		bins = append(bins, ResolutionBin{Name: name, Threshold: threshold})
		prev = p
	}

	return bins, fmt.Sprintf(">%d", prev), nil
}
