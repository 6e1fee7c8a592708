package pdb

import (
	"errors"
	"fmt"
	"strings"
)

var residueNames = [...][3]string{
	{"Alanine", "Ala", "A"},
	{"Arginine", "Arg", "R"},
	{"Asparagine", "Asn", "N"},
	{"Aspartic acid", "Asp", "D"},
	{"Cysteine", "Cys", "C"},
	{"Glutamic acid", "Glu", "E"},
	{"Glutamine", "Gln", "Q"},
	{"Glycine", "Gly", "G"},
	{"Histidine", "His", "H"},
	{"Isoleucine", "Ile", "I"},
	{"Leucine", "Leu", "L"},
	{"Lysine", "Lys", "K"},
	{"Methionine", "Met", "M"},
	{"Phenylalanine", "Phe", "F"},
	{"Proline", "Pro", "P"},
	{"Serine", "Ser", "S"},
	{"Threonine", "Thr", "T"},
	{"Tryptophan", "Trp", "W"},
	{"Tyrosine", "Tyr", "Y"},
	{"Valine", "Val", "V"},
}

// MainChainAtoms are the backbone atom names of an amino acid.
var MainChainAtoms = map[string]bool{"N": true, "CA": true, "C": true, "O": true, "OXT": true}

// Residue represents a single residue from the PDB structure.
type Residue struct {
	Chain   string  `json:"chain"`
	Number  int64   `json:"number"`
	InsCode string  `json:"insCode"`
	Name    string  `json:"-"`
	Name1   string  `json:"name1"`
	Name3   string  `json:"name3"`
	Atoms   []*Atom `json:"-"`
	Het     bool    `json:"het"`
}

// IsAminoacid returns true if the given letter is an aminoacid, false otherwise.
func IsAminoacid(letter string) bool {
	for _, res := range residueNames {
		if res[2] == letter {
			return true
		}
	}
	return false
}

// IsAminoacid reports whether r is one of the standard amino acids.
func (r *Residue) IsAminoacid() bool {
	return len(r.Name3) == 3 && IsAminoacid(r.Name1)
}

// AminoacidNames receives a name and returns a 3-sized array of all the possible representations as a string.
func AminoacidNames(input string) (string, string, string) {
	s := strings.ToLower(input)
	for _, res := range residueNames {
		for _, n := range res {
			if strings.ToLower(n) == s {
				return res[0], res[1], res[2]
			}
		}
	}

	return input, "Unk", "X"
}

// OneLetter maps a three-letter residue code to its one-letter code.
func OneLetter(code string) (string, error) {
	_, _, abbrv1 := AminoacidNames(code)
	if abbrv1 == "X" || len(code) != 3 {
		return "", fmt.Errorf("no one-letter code for residue %q", code)
	}
	return abbrv1, nil
}

// NewResidue constructs a new residue given a chain, position and residue code.
// The code keeps the casing found in the file; Name and Name1 are resolved for standard aminoacids.
func NewResidue(chain string, pos int64, input string) *Residue {
	name, _, abbrv1 := AminoacidNames(input)

	res := &Residue{
		Chain:  chain,
		Number: pos,
		Name:   name,
		Name1:  abbrv1,
		Name3:  strings.ToUpper(input),
	}

	return res
}

// Atom returns the atom with the given name, or nil when the residue lacks it.
func (r *Residue) Atom(name string) *Atom {
	for _, a := range r.Atoms {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// IsWater returns true for water molecules.
func (r *Residue) IsWater() bool {
	return r.Name3 == "HOH" || r.Name3 == "WAT" || r.Name3 == "DOD"
}

// ExtractResidues extracts data from the ATOM and HETATM records and groups them into ordered chains.
func (pdb *PDB) ExtractResidues() error {
	atoms, err := pdb.extractATMRecords()
	if err != nil {
		return fmt.Errorf("extract ATOM records: %w", err)
	}

	pdb.Atoms = nil
	pdb.HetAtoms = nil
	pdb.HetGroups = nil
	for _, atom := range atoms {
		if !atom.Het {
			pdb.Atoms = append(pdb.Atoms, atom)
			continue
		}

		pdb.HetAtoms = append(pdb.HetAtoms, atom)
		exists := false
		for _, het := range pdb.HetGroups {
			if het == atom.Residue {
				exists = true
				break
			}
		}
		if !exists {
			pdb.HetGroups = append(pdb.HetGroups, atom.Residue)
		}
	}

	return pdb.extractPDBChains(atoms)
}

// extractPDBChains groups atoms into residues and residues into chains, preserving file order.
func (pdb *PDB) extractPDBChains(atoms []*Atom) error {
	if len(atoms) == 0 {
		return errors.New("empty atoms list")
	}

	type residueKey struct {
		chain   string
		number  int64
		insCode string
	}

	chains := make(map[string]*Chain)
	residues := make(map[residueKey]*Residue)
	pdb.Chains = nil

	for _, atom := range atoms {
		chain, ok := chains[atom.Chain]
		if !ok {
			chain = &Chain{ID: atom.Chain}
			chains[atom.Chain] = chain
			pdb.Chains = append(pdb.Chains, chain)
		}

		key := residueKey{atom.Chain, atom.ResidueNumber, atom.InsCode}
		res, ok := residues[key]
		if !ok {
			res = NewResidue(atom.Chain, atom.ResidueNumber, atom.Residue)
			res.InsCode = atom.InsCode
			res.Het = atom.Het
			residues[key] = res
			chain.Residues = append(chain.Residues, res)
		}
		res.Atoms = append(res.Atoms, atom)
	}

	return nil
}
