package pdb

import (
	"math"
)

// Distance returns the distance between a pair of atoms
func Distance(atom1 *Atom, atom2 *Atom) float64 {
	return math.Sqrt(math.Pow(atom1.X-atom2.X, 2) + math.Pow(atom1.Y-atom2.Y, 2) + math.Pow(atom1.Z-atom2.Z, 2))
}

// PeptideBonded returns true if the C atom of prev and the N atom of next are
// close enough to be covalently bonded.
func PeptideBonded(prev *Residue, next *Residue) bool {
	c, n := prev.Atom("C"), next.Atom("N")
	if c == nil || n == nil {
		return false
	}
	return Distance(c, n) <= 2.0
}
