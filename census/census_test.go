package census

import (
	"fmt"
	"sort"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/promisethread/zkvote/census/merkle"
	"github.com/promisethread/zkvote/crypto/commitments"
	"github.com/promisethread/zkvote/types"
)

func testEntries(n int) []RegistryEntry {
	entries := make([]RegistryEntry, n)
	for i := range entries {
		entries[i] = RegistryEntry{
			VoterID: fmt.Sprintf("voter-%d", i),
			Secret:  fmt.Sprintf("secret-%d", i),
		}
	}
	return entries
}

func sortedHex(leaves []types.HexBytes) []string {
	out := make([]string, len(leaves))
	for i, l := range leaves {
		out[i] = l.Hex()
	}
	sort.Strings(out)
	return out
}

func TestBuildSetPreservesCommitments(t *testing.T) {
	c := qt.New(t)

	entries := testEntries(12)
	set, err := BuildSet(entries, 5)
	c.Assert(err, qt.IsNil)
	c.Assert(set.Size, qt.Equals, 12)
	c.Assert(set.Depth, qt.Equals, 5)
	c.Assert(set.Leaves, qt.HasLen, 12)
	c.Assert(set.Root, qt.HasLen, types.DigestLen)

	// the shuffle must preserve exactly the multiset of commitments
	expected := make([]types.HexBytes, len(entries))
	for i, e := range entries {
		v, err := commitments.Commit(e.Secret, e.VoterID)
		c.Assert(err, qt.IsNil)
		expected[i] = commitments.DigestToBytes(v)
	}
	c.Assert(sortedHex(set.Leaves), qt.DeepEquals, sortedHex(expected))

	// every commitment is findable
	for _, leaf := range expected {
		c.Assert(set.FindLeaf(leaf) >= 0, qt.IsTrue)
	}
	c.Assert(set.FindLeaf(make(types.HexBytes, types.DigestLen)), qt.Equals, -1)
}

func TestBuildSetBounds(t *testing.T) {
	c := qt.New(t)

	_, err := BuildSet(nil, 4)
	c.Assert(err, qt.IsNotNil)

	_, err = BuildSet(testEntries(5), 2)
	c.Assert(err, qt.ErrorIs, merkle.ErrTooManyLeaves)

	_, err = BuildSet([]RegistryEntry{{VoterID: "v", Secret: ""}}, 2)
	c.Assert(err, qt.IsNotNil)
}

func TestClientSideProof(t *testing.T) {
	c := qt.New(t)

	entries := testEntries(4)
	set, err := BuildSet(entries, 3)
	c.Assert(err, qt.IsNil)

	// a client recomputes its own commitment, locates its leaf and builds
	// the membership proof locally from the published leaves
	v, err := commitments.Commit(entries[2].Secret, entries[2].VoterID)
	c.Assert(err, qt.IsNil)
	leaf := commitments.DigestToBytes(v)
	idx := set.FindLeaf(leaf)
	c.Assert(idx >= 0, qt.IsTrue)

	tree, err := set.Tree()
	c.Assert(err, qt.IsNil)
	c.Assert(tree.Root().Equal(set.Root), qt.IsTrue)

	proof, err := tree.GenProof(idx)
	c.Assert(err, qt.IsNil)
	c.Assert(merkle.VerifyProof(set.Root, leaf, proof, set.Depth), qt.IsTrue)

	// the proof is bound to the position: another member's leaf does not
	// verify against it
	other, err := commitments.Commit(entries[3].Secret, entries[3].VoterID)
	c.Assert(err, qt.IsNil)
	c.Assert(merkle.VerifyProof(set.Root, commitments.DigestToBytes(other), proof, set.Depth), qt.IsFalse)
}

func TestStorePublishAndReload(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)

	store, err := NewStore(database)
	c.Assert(err, qt.IsNil)
	_, err = store.Current()
	c.Assert(err, qt.ErrorIs, ErrNoPublishedSet)
	c.Assert(store.Root(), qt.IsNil)

	set, err := store.BuildAndPublish(testEntries(6), 4)
	c.Assert(err, qt.IsNil)
	current, err := store.Current()
	c.Assert(err, qt.IsNil)
	c.Assert(current.Epoch, qt.Equals, set.Epoch)
	c.Assert(store.Root().Equal(set.Root), qt.IsTrue)

	// a rebuild replaces the current epoch
	next, err := store.BuildAndPublish(testEntries(7), 4)
	c.Assert(err, qt.IsNil)
	c.Assert(next.Epoch, qt.Not(qt.Equals), set.Epoch)
	c.Assert(store.Root().Equal(next.Root), qt.IsTrue)

	// a store reopened over the same database loads the last published set
	reopened, err := NewStore(database)
	c.Assert(err, qt.IsNil)
	reloaded, err := reopened.Current()
	c.Assert(err, qt.IsNil)
	c.Assert(reloaded.Epoch, qt.Equals, next.Epoch)
	c.Assert(reloaded.Root.Equal(next.Root), qt.IsTrue)
	c.Assert(reloaded.Leaves, qt.HasLen, 7)
}
