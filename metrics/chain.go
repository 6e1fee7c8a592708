package metrics

import (
	"github.com/tikz/iris/pdb"
)

// Chain is the ordered list of residues of a chain in one model.
// Length always equals len(Residues).
type Chain struct {
	ID       string
	Residues []*Residue
	Length   int

	bfactors bfactorLists
}

func (b *builder) newChain(c *pdb.Chain) *Chain {
	chain := &Chain{ID: c.ID}
	for i, r := range c.Residues {
		var prev, next *pdb.Residue
		if i > 0 {
			prev = c.Residues[i-1]
		}
		if i < len(c.Residues)-1 {
			next = c.Residues[i+1]
		}
		res := b.newResidue(c.ID, r, prev, next)
		chain.Residues = append(chain.Residues, res)
		chain.bfactors.add(res)
	}
	chain.Length = len(chain.Residues)

	for i, r := range chain.Residues {
		if i == 0 || i == len(chain.Residues)-1 {
			continue
		}
		p, n := chain.Residues[i-1], chain.Residues[i+1]
		r.ConsecutiveAA = p.IsAA && r.IsAA && n.IsAA &&
			p.SeqNum+1 == r.SeqNum && r.SeqNum == n.SeqNum-1
	}

	return chain
}

// Residue returns the first residue with the given sequence number, or nil.
func (c *Chain) Residue(seqNum int64) *Residue {
	for _, r := range c.Residues {
		if r.SeqNum == seqNum {
			return r
		}
	}
	return nil
}

// RemoveResidue removes r from the chain. Returns false when r is not in the chain.
func (c *Chain) RemoveResidue(r *Residue) bool {
	for i, res := range c.Residues {
		if res == r {
			c.Residues = append(c.Residues[:i], c.Residues[i+1:]...)
			c.Length--
			return true
		}
	}
	return false
}

// RemoveNonAA removes every residue that is not an amino acid and returns how many were removed.
func (c *Chain) RemoveNonAA() int {
	kept := c.Residues[:0]
	for _, r := range c.Residues {
		if r.IsAA {
			kept = append(kept, r)
		}
	}
	removed := len(c.Residues) - len(kept)
	for i := len(kept); i < len(c.Residues); i++ {
		c.Residues[i] = nil
	}
	c.Residues = kept
	c.Length = len(kept)
	return removed
}

// Codes returns the three-letter codes of the residues in order.
func (c *Chain) Codes() []string {
	codes := make([]string, len(c.Residues))
	for i, r := range c.Residues {
		codes[i] = r.Code
	}
	return codes
}

// BFactorSummary summarizes the B-factors of every residue read for the
// chain, including the non amino acids removed afterwards.
func (c *Chain) BFactorSummary() BFactorSummary {
	return c.bfactors.summary()
}
