package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tikz/iris/metric"
	"github.com/tikz/iris/pdb"
)

// chiAtoms lists, per residue code, the atom quadruples defining each chi angle.
var chiAtoms = map[string][][4]string{
	"SER": {{"N", "CA", "CB", "OG"}},
	"THR": {{"N", "CA", "CB", "OG1"}},
	"CYS": {{"N", "CA", "CB", "SG"}},
	"VAL": {{"N", "CA", "CB", "CG1"}},
	"PRO": {{"N", "CA", "CB", "CG"}},
	"ILE": {{"N", "CA", "CB", "CG1"}, {"CA", "CB", "CG1", "CD1"}},
	"LEU": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "CD1"}},
	"ASP": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "OD1"}},
	"ASN": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "OD1"}},
	"PHE": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "CD1"}},
	"TYR": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "CD1"}},
	"TRP": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "CD1"}},
	"HIS": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "ND1"}},
	"MET": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "SD"}, {"CB", "CG", "SD", "CE"}},
	"GLU": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "CD"}, {"CB", "CG", "CD", "OE1"}},
	"GLN": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "CD"}, {"CB", "CG", "CD", "OE1"}},
	"LYS": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "CD"}, {"CB", "CG", "CD", "CE"}, {"CG", "CD", "CE", "NZ"}},
	"ARG": {{"N", "CA", "CB", "CG"}, {"CA", "CB", "CG", "CD"}, {"CB", "CG", "CD", "NE"}, {"CG", "CD", "NE", "CZ"}},
}

func vec(a *pdb.Atom) r3.Vec {
	return r3.Vec{X: a.X, Y: a.Y, Z: a.Z}
}

// dihedral returns the torsion angle in degrees defined by four atoms, in (-180, 180].
func dihedral(a1, a2, a3, a4 *pdb.Atom) metric.NullFloat64 {
	if a1 == nil || a2 == nil || a3 == nil || a4 == nil {
		return metric.NullFloat64{}
	}
	p0, p1, p2, p3 := vec(a1), vec(a2), vec(a3), vec(a4)

	b0 := r3.Sub(p0, p1)
	b1 := r3.Unit(r3.Sub(p2, p1))
	b2 := r3.Sub(p3, p2)

	v := r3.Sub(b0, r3.Scale(r3.Dot(b0, b1), b1))
	w := r3.Sub(b2, r3.Scale(r3.Dot(b2, b1), b1))

	x := r3.Dot(v, w)
	y := r3.Dot(r3.Cross(b1, v), w)
	return metric.Float(math.Atan2(y, x) * 180 / math.Pi)
}

// phi is the C(i-1)-N-CA-C torsion, defined only across a peptide bond.
func phi(prev, r *pdb.Residue) metric.NullFloat64 {
	if prev == nil || !pdb.PeptideBonded(prev, r) {
		return metric.NullFloat64{}
	}
	return dihedral(prev.Atom("C"), r.Atom("N"), r.Atom("CA"), r.Atom("C"))
}

// psi is the N-CA-C-N(i+1) torsion, defined only across a peptide bond.
func psi(r, next *pdb.Residue) metric.NullFloat64 {
	if next == nil || !pdb.PeptideBonded(r, next) {
		return metric.NullFloat64{}
	}
	return dihedral(r.Atom("N"), r.Atom("CA"), r.Atom("C"), next.Atom("N"))
}

// chis returns the side-chain torsions of r and how many the residue type
// defines. Torsions with a missing atom are absent.
func chis(r *pdb.Residue) ([4]metric.NullFloat64, int) {
	var out [4]metric.NullFloat64
	quads := chiAtoms[r.Name3]
	for i, q := range quads {
		out[i] = dihedral(r.Atom(q[0]), r.Atom(q[1]), r.Atom(q[2]), r.Atom(q[3]))
	}
	return out, len(quads)
}
