package align

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedlemanWunsch(t *testing.T) {
	tests := []struct {
		a, b     string
		alignedA string
		alignedB string
	}{
		{"MKTVA", "MKTVQA", "MKTV-A", "MKTVQA"},
		{"MKTVQA", "MKTVA", "MKTVQA", "MKTV-A"},
		{"ACDE", "ACDE", "ACDE", "ACDE"},
		{"ACDE", "AGDE", "ACDE", "AGDE"},
		{"", "ACD", "---", "ACD"},
		{"ACD", "", "ACD", "---"},
		{"GAAAC", "GAC", "GAAAC", "G--AC"},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		a, b := NeedlemanWunsch(tt.a, tt.b)
		assert.Equal(t, tt.alignedA, a, "%s/%s", tt.a, tt.b)
		assert.Equal(t, tt.alignedB, b, "%s/%s", tt.a, tt.b)
	}
}

func TestNeedlemanWunschProperties(t *testing.T) {
	const letters = "ACDEFGHIKLMNPQRSTVWY"
	rng := rand.New(rand.NewSource(7))
	random := func() string {
		b := make([]byte, rng.Intn(40))
		for i := range b {
			b[i] = letters[rng.Intn(4)]
		}
		return string(b)
	}

	for n := 0; n < 200; n++ {
		s1, s2 := random(), random()
		a, b := NeedlemanWunsch(s1, s2)

		require.Equal(t, s1, Strip(a))
		require.Equal(t, s2, Strip(b))
		require.Equal(t, len(a), len(b))
		require.GreaterOrEqual(t, len(a), max(len(s1), len(s2)))
		for i := range a {
			require.False(t, a[i] == Gap && b[i] == Gap, "gap aligned to gap in %s/%s", a, b)
		}

		a2, b2 := NeedlemanWunsch(s1, s2)
		require.Equal(t, a, a2)
		require.Equal(t, b, b2)
	}
}

// alignmentScore scores an aligned pair column by column.
func alignmentScore(a, b string) int {
	total := 0
	for i := range a {
		switch {
		case a[i] == Gap || b[i] == Gap:
			total += GapPenalty
		case a[i] == b[i]:
			total += Match
		default:
			total += Mismatch
		}
	}
	return total
}

// bestScore enumerates every alignment of a and b.
func bestScore(a, b string) int {
	switch {
	case a == "":
		return len(b) * GapPenalty
	case b == "":
		return len(a) * GapPenalty
	}
	diag := bestScore(a[1:], b[1:]) + similarity(a[0], b[0])
	gapB := bestScore(a[1:], b) + GapPenalty
	gapA := bestScore(a, b[1:]) + GapPenalty
	return max(diag, max(gapA, gapB))
}

func TestNeedlemanWunschOptimal(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	random := func() string {
		b := make([]byte, rng.Intn(6))
		for i := range b {
			b[i] = "ACGT"[rng.Intn(4)]
		}
		return string(b)
	}

	for n := 0; n < 150; n++ {
		s1, s2 := random(), random()
		a, b := NeedlemanWunsch(s1, s2)
		require.Equal(t, bestScore(s1, s2), alignmentScore(a, b), "%s/%s aligned as %s/%s", s1, s2, a, b)
	}

	a, b := NeedlemanWunsch("GAAAC", "GAC")
	assert.Equal(t, 1, alignmentScore(a, b))
}

func TestOneLetter(t *testing.T) {
	seq, err := OneLetter([]string{"MET", "LYS", "THR", "VAL", "ALA"})
	require.NoError(t, err)
	assert.Equal(t, "MKTVA", seq)

	_, err = OneLetter([]string{"MET", "HOH"})
	assert.ErrorIs(t, err, ErrUnknownResidue)
	assert.ErrorContains(t, err, "position 1")
}

func TestSequences(t *testing.T) {
	out, err := Sequences([]string{"MKTVA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MKTVA"}, out)

	out, err = Sequences([]string{"MKTVA", "MKTVQA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MKTV-A", "MKTVQA"}, out)

	_, err = Sequences([]string{"A", "A", "A"})
	assert.ErrorIs(t, err, ErrTooManySequences)
}
