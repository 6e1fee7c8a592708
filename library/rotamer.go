package library

import (
	"compress/gzip"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Rotamer classification values stored in the grid.
const (
	RotamerUnclassified uint8 = 0
	RotamerOutlier      uint8 = 1
	RotamerAllowed      uint8 = 2
	RotamerFavoured     uint8 = 3
)

// RotamerGrid is the classification grid of one residue type.
type RotamerGrid struct {
	Grid
	Values []uint8
}

// Lookup returns the classification value of the bin nearest to chis.
func (g *RotamerGrid) Lookup(chis []float64) (uint8, bool) {
	i, ok := g.Index(chis)
	if !ok || i >= len(g.Values) {
		return 0, false
	}
	return g.Values[i], true
}

// Centroid is a named canonical rotamer. Means and SDs hold one entry per
// chi angle the centroid defines.
type Centroid struct {
	Name  string
	Means []float64
	SDs   []float64
}

// RotamerLibrary holds the classification grids and centroids by three-letter code.
type RotamerLibrary struct {
	Grids     map[string]*RotamerGrid
	Centroids map[string][]Centroid
}

// Codes returns the residue codes with a classification grid, sorted.
func (l *RotamerLibrary) Codes() []string {
	codes := make([]string, 0, len(l.Grids))
	for code := range l.Grids {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

type packedGrid struct {
	Grid
	Packed string `json:"packed"`
}

// LoadRotamers decodes a gzipped JSON rotamer grid library and a CSV centroid table.
func LoadRotamers(library io.Reader, centroids io.Reader) (*RotamerLibrary, error) {
	zr, err := gzip.NewReader(library)
	if err != nil {
		return nil, fmt.Errorf("rotamer library: %w", err)
	}
	defer zr.Close()

	var packed map[string]packedGrid
	if err := json.NewDecoder(zr).Decode(&packed); err != nil {
		return nil, fmt.Errorf("rotamer library: decode: %w", err)
	}

	lib := &RotamerLibrary{
		Grids:     make(map[string]*RotamerGrid, len(packed)),
		Centroids: make(map[string][]Centroid),
	}
	for code, p := range packed {
		if err := p.Grid.validate(); err != nil {
			return nil, fmt.Errorf("rotamer library: %s: %w", code, err)
		}
		raw, err := base64.StdEncoding.DecodeString(p.Packed)
		if err != nil {
			return nil, fmt.Errorf("rotamer library: %s: %w", code, err)
		}
		values := unpack(raw)
		if len(values) < p.Size() {
			return nil, fmt.Errorf("rotamer library: %s: %d values for %d bins", code, len(values), p.Size())
		}
		lib.Grids[code] = &RotamerGrid{Grid: p.Grid, Values: values[:p.Size()]}
	}

	lib.Centroids, err = readCentroids(centroids)
	if err != nil {
		return nil, fmt.Errorf("rotamer centroids: %w", err)
	}

	return lib, nil
}

// unpack expands 2-bit values, four per byte, most significant bits first.
func unpack(raw []byte) []uint8 {
	values := make([]uint8, 0, len(raw)*4)
	for _, b := range raw {
		values = append(values, b>>6&3, b>>4&3, b>>2&3, b&3)
	}
	return values
}

func readCentroids(r io.Reader) (map[string][]Centroid, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, errors.New("no centroids")
	}

	centroids := make(map[string][]Centroid)
	for n, rec := range records[1:] {
		if len(rec) != 10 {
			return nil, fmt.Errorf("line %d: expected 10 fields, got %d", n+2, len(rec))
		}

		c := Centroid{Name: rec[1]}
		for i := 0; i < 4; i++ {
			mean, sd := strings.TrimSpace(rec[2+i]), strings.TrimSpace(rec[6+i])
			if mean == "None" || sd == "None" || mean == "" || sd == "" {
				break
			}
			m, err := strconv.ParseFloat(mean, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n+2, err)
			}
			s, err := strconv.ParseFloat(sd, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n+2, err)
			}
			c.Means = append(c.Means, m)
			c.SDs = append(c.SDs, s)
		}
		if len(c.Means) == 0 {
			return nil, fmt.Errorf("line %d: centroid %s defines no chi", n+2, c.Name)
		}

		code := strings.ToUpper(rec[0])
		centroids[code] = append(centroids[code], c)
	}
	return centroids, nil
}
