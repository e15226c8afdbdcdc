// Package commitments implements the keyed hashes that bind a voter to the
// anonymity set: the commitment that becomes a Merkle leaf and the nullifier
// that prevents double voting. Both are Poseidon hashes over the BN254 scalar
// field, with distinct domain tags so a commitment can never be replayed as a
// nullifier or vice versa.
package commitments

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/arbo"

	"github.com/promisethread/zkvote/crypto/hash/poseidon"
	"github.com/promisethread/zkvote/types"
	"github.com/promisethread/zkvote/util"
)

// Domain tags for the two hash roles. The tags are themselves field mappings
// of fixed strings, part of the external circuit contract: changing them
// invalidates every published anonymity set.
var (
	tagCommitment = ToFieldElement("zkvote/commitment/v1")
	tagNullifier  = ToFieldElement("zkvote/nullifier/v1")
)

// ToFieldElement maps an arbitrary string to a BN254 scalar field element by
// taking the first 31 bytes of its UTF-8 encoding as a big-endian integer.
// 31 bytes always fit in the ~254 bit field, so the mapping is injective for
// identifiers up to that length.
func ToFieldElement(s string) *big.Int {
	b := []byte(s)
	if len(b) > 31 {
		b = b[:31]
	}
	return util.BigToFF(new(big.Int).SetBytes(b))
}

// Commit computes the voter commitment Poseidon(tag, secret, voterID). The
// result is the leaf published in the anonymity set.
func Commit(secret, voterID string) (*big.Int, error) {
	if secret == "" || voterID == "" {
		return nil, fmt.Errorf("empty secret or voter id")
	}
	return poseidon.MultiPoseidon(tagCommitment, ToFieldElement(secret), ToFieldElement(voterID))
}

// Nullifier computes the one-time voting token Poseidon(tag, voterID, secret).
// It is deterministic per voter, so a second vote derives the same value and
// collides in the nullifier ledger.
func Nullifier(voterID, secret string) (*big.Int, error) {
	if secret == "" || voterID == "" {
		return nil, fmt.Errorf("empty secret or voter id")
	}
	return poseidon.MultiPoseidon(tagNullifier, ToFieldElement(voterID), ToFieldElement(secret))
}

// DigestToBytes encodes a field element as a fixed-length digest, using the
// little-endian convention of arbo (shared with the circuit tooling).
func DigestToBytes(v *big.Int) types.HexBytes {
	return types.HexBytes(arbo.BigIntToBytes(types.DigestLen, v))
}

// DigestFromBytes decodes a digest back into a field element.
func DigestFromBytes(b types.HexBytes) *big.Int {
	return arbo.BytesToBigInt(b)
}
