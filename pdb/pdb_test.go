package pdb

import (
	"os"
	"testing"
)

func LoadTestFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return data, nil
}

func TestChains(t *testing.T) {
	raw, err := LoadTestFile("./testdata/previous.pdb")
	if err != nil {
		t.Fatalf("cannot open file: %s", err)
	}

	pdb, err := NewPDBFromRaw(raw)
	if err != nil {
		t.Fatal(err)
	}

	t.Logf("testing PDB chains")

	actual := pdb.TotalLength()
	expected := 11
	if actual != expected {
		t.Errorf("expected %d, got %d", expected, actual)
	}

	var ids []string
	for _, c := range pdb.Chains {
		ids = append(ids, c.ID)
	}
	if len(ids) != 3 || ids[0] != "A" || ids[1] != "B" || ids[2] != "C" {
		t.Errorf("expected chains [A B C] in file order, got %v", ids)
	}

	res := pdb.Chain("A").Residues[1]
	expect := "Lysine"
	if res.Name != expect {
		t.Errorf("expected %s in A-2, got %s", expect, res.Name)
	}

	res = pdb.Chain("A").Residues[5]
	if res.Name3 != "HOH" || !res.Het || !res.IsWater() {
		t.Errorf("expected water HETATM in A-201, got %s", res.Name3)
	}

	res = pdb.Chain("B").Residues[2]
	if res.Number != 12 || res.Name1 != "L" {
		t.Errorf("expected LEU B-12, got %s %d", res.Name3, res.Number)
	}

	if len(pdb.HetGroups) != 2 {
		t.Errorf("expected 2 het groups, got %v", pdb.HetGroups)
	}
}

func TestAtoms(t *testing.T) {
	raw, err := LoadTestFile("./testdata/previous.pdb")
	if err != nil {
		t.Fatalf("cannot open file: %s", err)
	}

	pdb, err := NewPDBFromRaw(raw)
	if err != nil {
		t.Fatal(err)
	}

	met := pdb.Chain("A").Residues[0]
	sd := met.Atom("SD")
	if sd == nil {
		t.Fatalf("expected SD atom in MET A-1")
	}
	if sd.Element != "S" {
		t.Errorf("expected element S, got %s", sd.Element)
	}
	if sd.BFactor != 21.0 {
		t.Errorf("expected B-factor 21.0, got %f", sd.BFactor)
	}
	if met.Atom("OXT") != nil {
		t.Errorf("expected no OXT atom")
	}

	lys := pdb.Chain("A").Residues[1]
	if !PeptideBonded(met, lys) {
		t.Errorf("expected MET A-1 and LYS A-2 to be peptide bonded")
	}
	if PeptideBonded(met, pdb.Chain("A").Residues[2]) {
		t.Errorf("expected MET A-1 and THR A-3 not to be bonded")
	}
}

func TestResolution(t *testing.T) {
	raw, err := LoadTestFile("./testdata/latest.pdb")
	if err != nil {
		t.Fatalf("cannot open file: %s", err)
	}

	pdb, err := NewPDBFromRaw(raw)
	if err != nil {
		t.Fatal(err)
	}

	if pdb.Resolution != 1.7 {
		t.Errorf("expected %f, got %f", 1.7, pdb.Resolution)
	}

	if r := extractResolution([]byte("REMARK   2 RESOLUTION. NOT APPLICABLE.")); r != 0 {
		t.Errorf("expected 0 for NMR header, got %f", r)
	}
}

func TestOneLetter(t *testing.T) {
	tests := []struct {
		code   string
		letter string
		ok     bool
	}{
		{"GLY", "G", true},
		{"TRP", "W", true},
		{"Asp", "D", true},
		{"HOH", "", false},
		{"A", "", false},
	}

	for _, tt := range tests {
		letter, err := OneLetter(tt.code)
		if (err == nil) != tt.ok {
			t.Errorf("%s: unexpected error state: %v", tt.code, err)
		}
		if letter != tt.letter {
			t.Errorf("%s: expected %q, got %q", tt.code, tt.letter, letter)
		}
	}
}

func TestResidueIsAminoacid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ALA", true},
		{"his", true},
		{"HOH", false},
		{"A", false},
		{"DA", false},
		{"ALAX", false},
	}

	for _, tt := range tests {
		if got := NewResidue("A", 1, tt.code).IsAminoacid(); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.code, tt.want, got)
		}
	}
}

func TestAltLocAndShortLines(t *testing.T) {
	raw := []byte("ATOM      1  CA AALA A   1       1.000   2.000   3.000  0.50 10.00\n" +
		"ATOM      2  CA BALA A   1       1.100   2.100   3.100  0.50 12.00\n" +
		"ENDMDL\n" +
		"ATOM      3  CA  GLY A   2       4.000   5.000   6.000  1.00 10.00\n")

	pdb, err := NewPDBFromRaw(raw)
	if err != nil {
		t.Fatal(err)
	}

	if len(pdb.Atoms) != 1 {
		t.Fatalf("expected 1 atom from the first model and altloc, got %d", len(pdb.Atoms))
	}
	if pdb.Atoms[0].Element != "C" {
		t.Errorf("expected element guessed from name, got %q", pdb.Atoms[0].Element)
	}
}

func TestEmpty(t *testing.T) {
	if _, err := NewPDBFromRaw(nil); err == nil {
		t.Errorf("expected error for empty input")
	}
	if _, err := NewPDBFromRaw([]byte("HEADER    NOTHING\n")); err == nil {
		t.Errorf("expected error for input without atoms")
	}
}
