// Package library loads the reference datasets used to classify residues and
// normalize metrics: the rotamer classification grids and centroids, the
// Ramachandran probability grids and the resolution-stratified percentile tables.
//
// The embedded datasets are decoded once per process and shared read-only.
package library

import (
	"embed"
	"fmt"
	"sync"
)

//go:embed data
var data embed.FS

const (
	rotamerLibraryPath   = "data/rotamer_library.json.gz"
	rotamerCentroidsPath = "data/rotamer_centroids.csv"
	ramachandranPath     = "data/ramachandran.json.gz"
	percentilesPath      = "data/percentiles.csv"
	resolutionBinsPath   = "data/resolution_bins.csv"
)

var (
	rotamersOnce sync.Once
	rotamers     *RotamerLibrary
	rotamersErr  error

	ramaOnce sync.Once
	rama     *RamachandranLibrary
	ramaErr  error

	percentilesOnce sync.Once
	percentiles     *PercentileTable
	percentilesErr  error
)

// Rotamers returns the embedded rotamer library.
func Rotamers() (*RotamerLibrary, error) {
	rotamersOnce.Do(func() {
		lib, err := data.Open(rotamerLibraryPath)
		if err != nil {
			rotamersErr = fmt.Errorf("open rotamer library: %w", err)
			return
		}
		defer lib.Close()

		cv, err := data.Open(rotamerCentroidsPath)
		if err != nil {
			rotamersErr = fmt.Errorf("open rotamer centroids: %w", err)
			return
		}
		defer cv.Close()

		rotamers, rotamersErr = LoadRotamers(lib, cv)
	})
	return rotamers, rotamersErr
}

// Ramachandran returns the embedded Ramachandran library.
func Ramachandran() (*RamachandranLibrary, error) {
	ramaOnce.Do(func() {
		f, err := data.Open(ramachandranPath)
		if err != nil {
			ramaErr = fmt.Errorf("open ramachandran library: %w", err)
			return
		}
		defer f.Close()

		rama, ramaErr = LoadRamachandran(f)
	})
	return rama, ramaErr
}

// Percentiles returns the embedded percentile table.
func Percentiles() (*PercentileTable, error) {
	percentilesOnce.Do(func() {
		p, err := data.Open(percentilesPath)
		if err != nil {
			percentilesErr = fmt.Errorf("open percentiles: %w", err)
			return
		}
		defer p.Close()

		bins, err := data.Open(resolutionBinsPath)
		if err != nil {
			percentilesErr = fmt.Errorf("open resolution bins: %w", err)
			return
		}
		defer bins.Close()

		percentiles, percentilesErr = LoadPercentiles(p, bins)
	})
	return percentiles, percentilesErr
}
