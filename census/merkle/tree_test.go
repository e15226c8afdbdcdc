package merkle

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/promisethread/zkvote/types"
	"github.com/promisethread/zkvote/util"
)

func randomLeaves(n int) []types.HexBytes {
	leaves := make([]types.HexBytes, n)
	for i := range leaves {
		// digests must be valid field element encodings, keep the top
		// byte clear
		leaves[i] = util.RandomBytes(types.DigestLen)
		leaves[i][types.DigestLen-1] = 0
	}
	return leaves
}

func TestTreeProofRoundTrip(t *testing.T) {
	c := qt.New(t)

	leaves := randomLeaves(5)
	tree, err := New(leaves, 4)
	c.Assert(err, qt.IsNil)
	c.Assert(tree.Depth(), qt.Equals, 4)
	c.Assert(tree.Size(), qt.Equals, 5)
	c.Assert(tree.Root(), qt.HasLen, types.DigestLen)

	// every leaf, including the padded positions, proves against the root
	for i := 0; i < 1<<4; i++ {
		proof, err := tree.GenProof(i)
		c.Assert(err, qt.IsNil)
		c.Assert(proof.Siblings, qt.HasLen, 4)
		leaf := PaddingDigest()
		if i < len(leaves) {
			leaf = leaves[i]
		}
		c.Assert(VerifyProof(tree.Root(), leaf, proof, 4), qt.IsTrue,
			qt.Commentf("leaf %d", i))
	}
}

func TestTreeDeterministicRoot(t *testing.T) {
	c := qt.New(t)

	leaves := randomLeaves(8)
	t1, err := New(leaves, 5)
	c.Assert(err, qt.IsNil)
	t2, err := New(leaves, 5)
	c.Assert(err, qt.IsNil)
	c.Assert(t1.Root().Equal(t2.Root()), qt.IsTrue)

	// a different leaf order gives a different root
	swapped := make([]types.HexBytes, len(leaves))
	copy(swapped, leaves)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	t3, err := New(swapped, 5)
	c.Assert(err, qt.IsNil)
	c.Assert(t1.Root().Equal(t3.Root()), qt.IsFalse)
}

func TestVerifyProofFailsClosed(t *testing.T) {
	c := qt.New(t)

	leaves := randomLeaves(4)
	tree, err := New(leaves, 3)
	c.Assert(err, qt.IsNil)
	proof, err := tree.GenProof(2)
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyProof(tree.Root(), leaves[2], proof, 3), qt.IsTrue)

	// tampered leaf
	bad := append(types.HexBytes{}, leaves[2]...)
	bad[0] ^= 0x01
	c.Assert(VerifyProof(tree.Root(), bad, proof, 3), qt.IsFalse)

	// tampered sibling
	tampered := &Proof{Siblings: append([]types.HexBytes{}, proof.Siblings...), Index: proof.Index}
	tampered.Siblings[1] = append(types.HexBytes{}, proof.Siblings[1]...)
	tampered.Siblings[1][0] ^= 0x01
	c.Assert(VerifyProof(tree.Root(), leaves[2], tampered, 3), qt.IsFalse)

	// flipped direction bit
	flipped := &Proof{Siblings: proof.Siblings, Index: proof.Index ^ 1}
	c.Assert(VerifyProof(tree.Root(), leaves[2], flipped, 3), qt.IsFalse)

	// wrong root
	c.Assert(VerifyProof(PaddingDigest(), leaves[2], proof, 3), qt.IsFalse)

	// depth mismatch between proof and verifier
	c.Assert(VerifyProof(tree.Root(), leaves[2], proof, 4), qt.IsFalse)
	c.Assert(VerifyProof(tree.Root(), leaves[2], proof, 0), qt.IsFalse)
	c.Assert(VerifyProof(tree.Root(), leaves[2], proof, MaxDepth+1), qt.IsFalse)

	// nil and malformed inputs
	c.Assert(VerifyProof(tree.Root(), leaves[2], nil, 3), qt.IsFalse)
	c.Assert(VerifyProof(nil, leaves[2], proof, 3), qt.IsFalse)
	c.Assert(VerifyProof(tree.Root(), nil, proof, 3), qt.IsFalse)
	short := &Proof{Siblings: proof.Siblings[:2], Index: proof.Index}
	c.Assert(VerifyProof(tree.Root(), leaves[2], short, 3), qt.IsFalse)
}

func TestTreeBounds(t *testing.T) {
	c := qt.New(t)

	leaves := randomLeaves(3)

	// too many leaves for the depth
	_, err := New(randomLeaves(5), 2)
	c.Assert(err, qt.ErrorIs, ErrTooManyLeaves)

	// capacity boundary is fine
	tree, err := New(randomLeaves(4), 2)
	c.Assert(err, qt.IsNil)
	c.Assert(tree.Size(), qt.Equals, 4)

	// depth limits
	_, err = New(leaves, 0)
	c.Assert(err, qt.ErrorIs, ErrInvalidDepth)
	_, err = New(leaves, MaxDepth+1)
	c.Assert(err, qt.ErrorIs, ErrInvalidDepth)

	// proof index out of range
	tree, err = New(leaves, 2)
	c.Assert(err, qt.IsNil)
	_, err = tree.GenProof(4)
	c.Assert(err, qt.ErrorIs, ErrIndexOutOfRange)
	_, err = tree.GenProof(-1)
	c.Assert(err, qt.ErrorIs, ErrIndexOutOfRange)
}
