package metric

import "fmt"

// Key identifies a residue within a model by chain and sequence number.
type Key struct {
	Chain  string
	SeqNum int64
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.Chain, k.SeqNum)
}
