package pdb

import (
	"errors"
	"fmt"
	"os"
)

// PDB represents a single parsed structural model.
type PDB struct {
	ID         string  `json:"id"`         // file name or entry ID
	Resolution float64 `json:"resolution"` // REMARK 2 resolution, 0 when not informed

	Atoms     []*Atom  `json:"-"`         // ATOM records in the structure
	HetAtoms  []*Atom  `json:"-"`         // HETATM records in the structure
	Chains    []*Chain `json:"chains"`    // chains in order of first appearance
	HetGroups []string `json:"hetGroups"` // HET groups in the structure

	RawPDB []byte `json:"-"` // PDB file raw data

	LocalPath string `json:"-"` // local path for the PDB file
}

// Chain is an ordered list of residues sharing a chain identifier.
type Chain struct {
	ID       string     `json:"id"`
	Residues []*Residue `json:"residues"`
}

// NewPDBFromRaw constructs a new instance from raw bytes.
func NewPDBFromRaw(raw []byte) (*PDB, error) {
	pdb := PDB{RawPDB: raw}

	err := pdb.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	return &pdb, nil
}

// ReadFile reads and parses a PDB file from disk.
func ReadFile(path string) (*PDB, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read PDB file: %w", err)
	}

	pdb, err := NewPDBFromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pdb.ID = path
	pdb.LocalPath = path

	return pdb, nil
}

// Parse parses the raw PDB text.
func (pdb *PDB) Parse() error {
	if len(pdb.RawPDB) == 0 {
		return errors.New("empty file")
	}

	err := pdb.ExtractResidues()
	if err != nil {
		return fmt.Errorf("extract residues: %w", err)
	}

	pdb.Resolution = extractResolution(pdb.RawPDB)
	return nil
}

// Chain returns the chain with the given identifier, or nil.
func (pdb *PDB) Chain(id string) *Chain {
	for _, c := range pdb.Chains {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// SeqNums returns the residue numbers of every chain, in chain order.
func (pdb *PDB) SeqNums() map[string][]int64 {
	nums := make(map[string][]int64, len(pdb.Chains))
	for _, c := range pdb.Chains {
		for _, r := range c.Residues {
			nums[c.ID] = append(nums[c.ID], r.Number)
		}
	}
	return nums
}

// TotalLength returns the sum of residues of all chains in the structure.
func (pdb *PDB) TotalLength() int {
	var n int
	for _, c := range pdb.Chains {
		n += len(c.Residues)
	}
	return n
}
