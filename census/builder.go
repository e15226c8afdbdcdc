// Package census produces and publishes the anonymity set: the shuffled
// sequence of voter commitments, committed to by a fixed-depth Merkle root,
// that clients draw their own membership proofs from.
package census

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/promisethread/zkvote/census/merkle"
	"github.com/promisethread/zkvote/crypto/commitments"
	"github.com/promisethread/zkvote/types"
)

// RegistryEntry is a single voter of the registry snapshot. Entries exist
// only for the duration of a build: they are never persisted, logged or
// referenced by the published artifact.
type RegistryEntry struct {
	VoterID string `json:"voterId"`
	Secret  string `json:"secret"`
}

// PublishedSet is the public artifact of a build: the shuffled commitment
// leaves and the Merkle root over them. Nothing in it links a leaf position
// back to a registry entry.
type PublishedSet struct {
	Epoch   uuid.UUID        `json:"epoch"`
	Root    types.HexBytes   `json:"root"`
	Leaves  []types.HexBytes `json:"leaves"`
	Depth   int              `json:"depth"`
	Size    int              `json:"size"`
	BuiltAt time.Time        `json:"builtAt"`
}

// BuildSet turns a registry snapshot into a publishable anonymity set:
// it computes the commitment of every entry, applies a cryptographically
// random permutation and builds the Merkle tree over the shuffled sequence.
//
// The permutation lives only in this function's frame. It is not returned,
// not logged and not stored, so once BuildSet returns there is no artifact
// anywhere in the system mapping a leaf position to a registry entry.
func BuildSet(entries []RegistryEntry, depth int) (*PublishedSet, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("empty registry snapshot")
	}
	leaves := make([]types.HexBytes, len(entries))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i := range entries {
		g.Go(func() error {
			c, err := commitments.Commit(entries[i].Secret, entries[i].VoterID)
			if err != nil {
				return fmt.Errorf("commit entry %d: %w", i, err)
			}
			leaves[i] = commitments.DigestToBytes(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Fisher-Yates with crypto/rand. This is the step that breaks the
	// position-to-voter link; after it only the multiset of commitments
	// survives.
	for i := len(leaves) - 1; i > 0; i-- {
		jb, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, fmt.Errorf("shuffle: %w", err)
		}
		j := int(jb.Int64())
		leaves[i], leaves[j] = leaves[j], leaves[i]
	}

	tree, err := merkle.New(leaves, depth)
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	return &PublishedSet{
		Epoch:   uuid.New(),
		Root:    tree.Root(),
		Leaves:  leaves,
		Depth:   depth,
		Size:    len(leaves),
		BuiltAt: time.Now().UTC(),
	}, nil
}

// FindLeaf returns the index of the given commitment in the published leaf
// sequence, or -1 if it is not a member. Clients use this after recomputing
// their own commitment to locate their leaf and build a local Merkle proof.
func (p *PublishedSet) FindLeaf(commitment types.HexBytes) int {
	for i, leaf := range p.Leaves {
		if leaf.Equal(commitment) {
			return i
		}
	}
	return -1
}

// Tree rebuilds the Merkle tree over the published leaves. The root of the
// rebuilt tree always matches p.Root, since the leaf sequence is the only
// input of the build.
func (p *PublishedSet) Tree() (*merkle.Tree, error) {
	return merkle.New(p.Leaves, p.Depth)
}
