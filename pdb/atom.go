package pdb

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Atom represents a single atom in the structure.
// It contains all the columns from an ATOM or HETATM record in a PDB file.
type Atom struct {
	// PDB columns for the ATOM tag
	Number        int64
	Name          string
	AltLoc        string
	Residue       string
	Chain         string
	ResidueNumber int64
	InsCode       string
	X             float64
	Y             float64
	Z             float64
	Occupancy     float64
	BFactor       float64
	Element       string
	Charge        string

	Het bool // true for HETATM records
}

var atomRecords = regexp.MustCompile("(?m)^(ATOM  |HETATM|ENDMDL).*$")

// extractATMRecords extracts ATOM and HETATM records in file order,
// stopping at the end of the first model.
func (pdb *PDB) extractATMRecords() ([]*Atom, error) {
	var atoms []*Atom

	matches := atomRecords.FindAllString(string(pdb.RawPDB), -1)
	for _, match := range matches {
		if strings.HasPrefix(match, "ENDMDL") {
			break
		}
		if len(match) < 54 {
			continue
		}

		var atom Atom

		// https://www.wwpdb.org/documentation/file-format-content/format33/sect9.html#ATOM
		atom.Het = strings.HasPrefix(match, "HETATM")
		atom.Number, _ = strconv.ParseInt(column(match, 6, 11), 10, 64)
		atom.Name = column(match, 12, 16)
		atom.AltLoc = column(match, 16, 17)
		atom.Residue = column(match, 17, 20)
		atom.Chain = column(match, 21, 22)
		atom.ResidueNumber, _ = strconv.ParseInt(column(match, 22, 26), 10, 64)
		atom.InsCode = column(match, 26, 27)
		atom.X, _ = strconv.ParseFloat(column(match, 30, 38), 64)
		atom.Y, _ = strconv.ParseFloat(column(match, 38, 46), 64)
		atom.Z, _ = strconv.ParseFloat(column(match, 46, 54), 64)
		atom.Occupancy, _ = strconv.ParseFloat(column(match, 54, 60), 64)
		atom.BFactor, _ = strconv.ParseFloat(column(match, 60, 66), 64)
		atom.Element = column(match, 76, 78)
		atom.Charge = column(match, 78, 80)

		// Only the first alternate conformation is kept.
		if atom.AltLoc != "" && atom.AltLoc != "A" {
			continue
		}

		if atom.Element == "" {
			atom.Element = elementFromName(atom.Name)
		}

		atoms = append(atoms, &atom)
	}

	if len(atoms) == 0 {
		return atoms, errors.New("atoms not found")
	}

	return atoms, nil
}

// column returns the trimmed contents of a fixed-width column, tolerating short lines.
func column(line string, start int, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[start:end])
}

// elementFromName guesses the element symbol from the atom name when columns 77-78 are blank.
func elementFromName(name string) string {
	name = strings.TrimLeft(name, "0123456789")
	if name == "" {
		return ""
	}
	return name[:1]
}
