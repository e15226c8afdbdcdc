// Package merkle implements the fixed-depth binary Poseidon tree the
// anonymity set is published as. The tree is dense: leaves are an ordered
// sequence of digests padded to 2^depth with a public padding digest, and the
// whole structure is an arena of node digests indexed by position, built once
// and never mutated.
package merkle

import (
	"crypto/subtle"
	"fmt"

	"github.com/promisethread/zkvote/crypto/commitments"
	"github.com/promisethread/zkvote/crypto/hash/poseidon"
	"github.com/promisethread/zkvote/types"
)

const (
	// MinDepth and MaxDepth bound the accepted tree depths. Depths above 32
	// would overflow the uint32 direction-bit encoding of proofs.
	MinDepth = 1
	MaxDepth = 32
)

var (
	// ErrTooManyLeaves is returned when the leaf sequence does not fit in a
	// tree of the requested depth.
	ErrTooManyLeaves = fmt.Errorf("too many leaves for tree depth")
	// ErrInvalidDepth is returned when the requested depth is out of range.
	ErrInvalidDepth = fmt.Errorf("invalid tree depth")
	// ErrIndexOutOfRange is returned by GenProof for a leaf index outside
	// the tree.
	ErrIndexOutOfRange = fmt.Errorf("leaf index out of range")
)

// PaddingDigest returns the public digest used to pad the leaf sequence to
// 2^depth. It is the zero field element, which can never be a Poseidon
// output of a real commitment.
func PaddingDigest() types.HexBytes {
	return make(types.HexBytes, types.DigestLen)
}

// Tree is an immutable fixed-depth binary Poseidon tree.
type Tree struct {
	depth int
	size  int // number of real (non-padding) leaves
	// nodes holds every digest of the tree, level by level: the 2^depth
	// leaves first, then each parent level, ending with the single root.
	nodes []types.HexBytes
}

// Proof is an inclusion path from a leaf to the root: one sibling digest per
// level plus the direction bits. Bit i of Index set means the node is the
// right child at level i, so the sibling folds in from the left.
type Proof struct {
	Siblings []types.HexBytes `json:"siblings"`
	Index    uint32           `json:"index"`
}

// New builds a tree of the given depth over the ordered leaf sequence. It
// fails if the sequence is longer than 2^depth. Building hashes the full
// padded arena, so the cost is 2^depth-1 Poseidon evaluations regardless of
// the number of real leaves.
func New(leaves []types.HexBytes, depth int) (*Tree, error) {
	if depth < MinDepth || depth > MaxDepth {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	width := 1 << depth
	if len(leaves) > width {
		return nil, fmt.Errorf("%w: %d leaves, depth %d", ErrTooManyLeaves, len(leaves), depth)
	}
	t := &Tree{
		depth: depth,
		size:  len(leaves),
		nodes: make([]types.HexBytes, 2*width-1),
	}
	padding := PaddingDigest()
	for i := 0; i < width; i++ {
		if i < len(leaves) {
			if len(leaves[i]) != types.DigestLen {
				return nil, fmt.Errorf("leaf %d: invalid digest length %d", i, len(leaves[i]))
			}
			t.nodes[i] = leaves[i]
		} else {
			t.nodes[i] = padding
		}
	}
	// hash each level into the next, child pairs at offset+2i and
	// offset+2i+1 producing the parent at nextOffset+i
	offset := 0
	for level := depth; level > 0; level-- {
		levelWidth := 1 << level
		nextOffset := offset + levelWidth
		for i := 0; i < levelWidth/2; i++ {
			h, err := poseidon.HashPair(
				commitments.DigestFromBytes(t.nodes[offset+2*i]),
				commitments.DigestFromBytes(t.nodes[offset+2*i+1]),
			)
			if err != nil {
				return nil, fmt.Errorf("hash level %d node %d: %w", level, i, err)
			}
			t.nodes[nextOffset+i] = commitments.DigestToBytes(h)
		}
		offset = nextOffset
	}
	return t, nil
}

// Root returns the root digest of the tree.
func (t *Tree) Root() types.HexBytes {
	return t.nodes[len(t.nodes)-1]
}

// Depth returns the depth the tree was built with.
func (t *Tree) Depth() int {
	return t.depth
}

// Size returns the number of real leaves, excluding padding.
func (t *Tree) Size() int {
	return t.size
}

// Leaves returns a copy of the real (non-padding) leaf sequence.
func (t *Tree) Leaves() []types.HexBytes {
	leaves := make([]types.HexBytes, t.size)
	copy(leaves, t.nodes[:t.size])
	return leaves
}

// GenProof produces the inclusion proof for the leaf at the given index.
// Padding positions are provable too; callers decide whether a padding leaf
// is meaningful.
func (t *Tree) GenProof(index int) (*Proof, error) {
	if index < 0 || index >= 1<<t.depth {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	proof := &Proof{
		Siblings: make([]types.HexBytes, t.depth),
		Index:    uint32(index),
	}
	offset := 0
	pos := index
	for level := 0; level < t.depth; level++ {
		proof.Siblings[level] = t.nodes[offset+(pos^1)]
		offset += 1 << (t.depth - level)
		pos >>= 1
	}
	return proof, nil
}

// VerifyProof recomputes the root by folding the leaf with each sibling
// according to the proof's direction bits and compares it against the
// expected root. It is the sole authority for Merkle membership: a proof is
// accepted only if its length matches the expected depth exactly and the
// full fold reproduces the root. The root comparison is constant time and
// happens after all levels are folded, so verification does not leak the
// position at which a bad proof diverges.
func VerifyProof(root, leaf types.HexBytes, proof *Proof, depth int) bool {
	if proof == nil || depth < MinDepth || depth > MaxDepth {
		return false
	}
	// depth mismatches fail closed, never truncate or pad
	if len(proof.Siblings) != depth {
		return false
	}
	if len(root) != types.DigestLen || len(leaf) != types.DigestLen {
		return false
	}
	cur := commitments.DigestFromBytes(leaf)
	for level := 0; level < depth; level++ {
		if len(proof.Siblings[level]) != types.DigestLen {
			return false
		}
		sibling := commitments.DigestFromBytes(proof.Siblings[level])
		var err error
		if proof.Index>>level&1 == 1 {
			cur, err = poseidon.HashPair(sibling, cur)
		} else {
			cur, err = poseidon.HashPair(cur, sibling)
		}
		if err != nil {
			return false
		}
	}
	computed := commitments.DigestToBytes(cur)
	return subtle.ConstantTimeCompare(computed, root) == 1
}
