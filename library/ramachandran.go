package library

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
)

// Ramachandran categories.
const (
	General    = "general"
	Glycine    = "glycine"
	Proline    = "proline"
	PreProline = "prepro"
)

// RamachandranGrid is a phi/psi probability grid for one category.
type RamachandranGrid struct {
	Grid
	Values []float64 `json:"values"`
}

// Probability returns the normalized probability of the bin nearest to (phi, psi).
func (g *RamachandranGrid) Probability(phi, psi float64) (float64, bool) {
	i, ok := g.Index([]float64{phi, psi})
	if !ok || i >= len(g.Values) {
		return 0, false
	}
	return g.Values[i], true
}

// RamachandranLibrary holds the probability grids by category.
type RamachandranLibrary struct {
	Grids map[string]*RamachandranGrid
}

// LoadRamachandran decodes a gzipped JSON Ramachandran library.
func LoadRamachandran(r io.Reader) (*RamachandranLibrary, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("ramachandran library: %w", err)
	}
	defer zr.Close()

	grids := make(map[string]*RamachandranGrid)
	if err := json.NewDecoder(zr).Decode(&grids); err != nil {
		return nil, fmt.Errorf("ramachandran library: decode: %w", err)
	}

	for _, cat := range []string{General, Glycine, Proline, PreProline} {
		g, ok := grids[cat]
		if !ok {
			return nil, fmt.Errorf("ramachandran library: missing category %s", cat)
		}
		if err := g.validate(); err != nil {
			return nil, fmt.Errorf("ramachandran library: %s: %w", cat, err)
		}
		if g.Dims() != 2 || len(g.Values) != g.Size() {
			return nil, fmt.Errorf("ramachandran library: %s: %d values for %d bins", cat, len(g.Values), g.Size())
		}
	}

	return &RamachandranLibrary{Grids: grids}, nil
}
