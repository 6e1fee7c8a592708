// Package align aligns residue sequences of successive model versions.
package align

import (
	"errors"
	"fmt"

	"github.com/tikz/iris/pdb"
)

// Gap marks a position with no residue in an aligned sequence.
const Gap = '-'

// Scoring of the global alignment.
const (
	Match      = 1
	Mismatch   = 0
	GapPenalty = -1
)

var (
	// ErrUnknownResidue is returned for residue codes without a one-letter code.
	ErrUnknownResidue = errors.New("unknown residue code")
	// ErrTooManySequences is returned when more than two sequences are aligned.
	ErrTooManySequences = errors.New("only two sequences can be aligned")
)

// OneLetter maps three-letter residue codes to a one-letter sequence.
func OneLetter(codes []string) (string, error) {
	seq := make([]byte, len(codes))
	for i, code := range codes {
		letter, err := pdb.OneLetter(code)
		if err != nil {
			return "", fmt.Errorf("%w: %q at position %d", ErrUnknownResidue, code, i)
		}
		seq[i] = letter[0]
	}
	return string(seq), nil
}

// Sequences aligns one or two sequences. A single sequence is returned as is.
func Sequences(seqs []string) ([]string, error) {
	switch len(seqs) {
	case 0:
		return nil, nil
	case 1:
		return []string{seqs[0]}, nil
	case 2:
		a, b := NeedlemanWunsch(seqs[0], seqs[1])
		return []string{a, b}, nil
	}
	return nil, fmt.Errorf("%w: got %d", ErrTooManySequences, len(seqs))
}

// NeedlemanWunsch returns the global alignment of a and b. Ties in the
// backtrace prefer a match or mismatch, then a gap in b, then a gap in a.
func NeedlemanWunsch(a, b string) (string, string) {
	n, m := len(a), len(b)

	score := make([][]int, n+1)
	for i := range score {
		score[i] = make([]int, m+1)
		score[i][0] = i * GapPenalty
	}
	for j := 0; j <= m; j++ {
		score[0][j] = j * GapPenalty
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			diag := score[i-1][j-1] + similarity(a[i-1], b[j-1])
			up := score[i-1][j] + GapPenalty
			left := score[i][j-1] + GapPenalty
			score[i][j] = max(diag, max(up, left))
		}
	}

	alignedA := make([]byte, 0, n+m)
	alignedB := make([]byte, 0, n+m)
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && score[i][j] == score[i-1][j-1]+similarity(a[i-1], b[j-1]):
			alignedA = append(alignedA, a[i-1])
			alignedB = append(alignedB, b[j-1])
			i--
			j--
		case i > 0 && score[i][j] == score[i-1][j]+GapPenalty:
			alignedA = append(alignedA, a[i-1])
			alignedB = append(alignedB, Gap)
			i--
		default:
			alignedA = append(alignedA, Gap)
			alignedB = append(alignedB, b[j-1])
			j--
		}
	}

	reverse(alignedA)
	reverse(alignedB)
	return string(alignedA), string(alignedB)
}

func similarity(x, y byte) int {
	if x == y {
		return Match
	}
	return Mismatch
}

func reverse(s []byte) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// Strip removes gaps from an aligned sequence.
func Strip(aligned string) string {
	out := make([]byte, 0, len(aligned))
	for i := 0; i < len(aligned); i++ {
		if aligned[i] != Gap {
			out = append(out, aligned[i])
		}
	}
	return string(out)
}
