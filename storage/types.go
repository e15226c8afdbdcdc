package storage

import (
	"github.com/promisethread/zkvote/types"
)

// VoteRecord is what a spent nullifier maps to. It stores the choice so the
// aggregate can be audited against the ledger, but carries nothing that links
// back to a voter identity.
type VoteRecord struct {
	PromiseID uint64         `cbor:"1,keyasint"`
	Kind      types.VoteKind `cbor:"2,keyasint"`
	CastAt    int64          `cbor:"3,keyasint"`
}

// Credential is the anonymous session issued after a successful eligibility
// proof. The token is the only thing a client needs to present when voting;
// the nullifier it is bound to is what the double-vote guard keys on.
type Credential struct {
	Nullifier types.HexBytes `cbor:"1,keyasint"`
	Token     string         `cbor:"2,keyasint"`
	IssuedAt  int64          `cbor:"3,keyasint"`
}
