package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/promisethread/zkvote/types"
)

// Artifact encoding/decoding
func encodeArtifact(a any) ([]byte, error) {
	encOpts := cbor.CoreDetEncOptions()
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return em.Marshal(a)
}

func decodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}

// promiseKey returns the database key of a promise.
func promiseKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// nullifierKey returns the spent-nullifier key for a promise. Scoping the key
// by promise lets one voter vote on every promise while spending the same
// nullifier at most once per promise.
func nullifierKey(promiseID uint64, nullifier types.HexBytes) []byte {
	return append(promiseKey(promiseID), nullifier...)
}

// nullifierIndexKey is the reverse of nullifierKey, keyed by nullifier first
// so that all votes of a credential can be listed with a prefix scan.
func nullifierIndexKey(nullifier types.HexBytes, promiseID uint64) []byte {
	return append(append([]byte{}, nullifier...), promiseKey(promiseID)...)
}
