package poseidon

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestHashPair(t *testing.T) {
	c := qt.New(t)

	h1, err := HashPair(big.NewInt(1), big.NewInt(2))
	c.Assert(err, qt.IsNil)
	h2, err := HashPair(big.NewInt(1), big.NewInt(2))
	c.Assert(err, qt.IsNil)
	c.Assert(h1.Cmp(h2), qt.Equals, 0)

	// the pair hash is ordered
	h3, err := HashPair(big.NewInt(2), big.NewInt(1))
	c.Assert(err, qt.IsNil)
	c.Assert(h1.Cmp(h3), qt.Not(qt.Equals), 0)
}

func TestMultiPoseidon(t *testing.T) {
	c := qt.New(t)

	_, err := MultiPoseidon()
	c.Assert(err, qt.IsNotNil)

	inputs := make([]*big.Int, 20)
	for i := range inputs {
		inputs[i] = big.NewInt(int64(i))
	}
	h1, err := MultiPoseidon(inputs...)
	c.Assert(err, qt.IsNil)
	h2, err := MultiPoseidon(inputs...)
	c.Assert(err, qt.IsNil)
	c.Assert(h1.Cmp(h2), qt.Equals, 0)

	// chunking kicks in past 16 inputs, the result must still depend on
	// the tail
	inputs[19] = big.NewInt(99)
	h3, err := MultiPoseidon(inputs...)
	c.Assert(err, qt.IsNil)
	c.Assert(h1.Cmp(h3), qt.Not(qt.Equals), 0)

	tooMany := make([]*big.Int, 257)
	for i := range tooMany {
		tooMany[i] = big.NewInt(1)
	}
	_, err = MultiPoseidon(tooMany...)
	c.Assert(err, qt.IsNotNil)
}
