package api

import (
	"encoding/json"

	"github.com/promisethread/zkvote/types"
)

// Vote reasons returned by the vote endpoint when a ballot is not counted.
const (
	ReasonAlreadyVoted      = "already_voted"
	ReasonGracePeriodActive = "grace_period_active"
	ReasonNotAuthenticated  = "not_authenticated"
	ReasonVotingClosed      = "voting_closed"
)

// CensusResponse is the published anonymity set, with the leaves clients need
// to build their Merkle proofs locally.
type CensusResponse struct {
	Root    types.HexBytes   `json:"root"`
	Depth   int              `json:"depth"`
	Size    int              `json:"size"`
	BuiltAt int64            `json:"builtAt"`
	Leaves  []types.HexBytes `json:"leaves"`
}

// CensusRootResponse carries only the current root, for clients that just
// need to check freshness before proving.
type CensusRootResponse struct {
	Root types.HexBytes `json:"root"`
}

// PublicSignalsRequest is the statement a proof commits to.
type PublicSignalsRequest struct {
	Root       types.HexBytes `json:"root"`
	Nullifier  types.HexBytes `json:"nullifier"`
	Commitment types.HexBytes `json:"commitment"`
}

// VerifyProofRequest carries a Groth16 proof in its native JSON encoding plus
// the declared public signals.
type VerifyProofRequest struct {
	Proof         json.RawMessage      `json:"proof"`
	PublicSignals PublicSignalsRequest `json:"publicSignals"`
}

// VerifyProofResponse reports the verification result. On success it carries
// the anonymous credential token bound to the nullifier.
type VerifyProofResponse struct {
	Valid     bool           `json:"valid"`
	Nullifier types.HexBytes `json:"nullifier,omitempty"`
	Token     string         `json:"token,omitempty"`
}

// VoteRequest is an anonymous ballot: the credential (nullifier + token) and
// the choice. Nothing in it identifies the voter.
type VoteRequest struct {
	PromiseID uint64         `json:"promiseId"`
	Nullifier types.HexBytes `json:"nullifier"`
	Token     string         `json:"token"`
	Vote      types.VoteKind `json:"vote"`
}

// VoteResponse reports whether the ballot was counted. When it was not,
// Reason carries one of the Reason* constants.
type VoteResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// NewPromiseRequest creates a promise. GracePeriodEnd is a unix timestamp;
// votes are rejected until it passes.
type NewPromiseRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	GracePeriodEnd int64  `json:"gracePeriodEnd"`
}

// PromiseResponse is a promise with its aggregates and derived voting state.
type PromiseResponse struct {
	*types.Promise
	Status     types.PromiseStatus `json:"status"`
	VotingOpen bool                `json:"votingOpen"`
}

// PromiseVotesResponse is the aggregate view of a promise.
type PromiseVotesResponse struct {
	PromiseID     uint64  `json:"promiseId"`
	Kept          uint64  `json:"voteKept"`
	Broken        uint64  `json:"voteBroken"`
	Total         uint64  `json:"total"`
	KeptPercent   float64 `json:"keptPercent"`
	BrokenPercent float64 `json:"brokenPercent"`
	Finalized     bool    `json:"finalized"`
}

// CredentialVote is one spent vote of a credential.
type CredentialVote struct {
	PromiseID uint64         `json:"promiseId"`
	Vote      types.VoteKind `json:"vote"`
	CastAt    int64          `json:"castAt"`
}

// CredentialResponse reports the validity of a credential and the votes it
// has spent.
type CredentialResponse struct {
	Nullifier types.HexBytes   `json:"nullifier"`
	IssuedAt  int64            `json:"issuedAt"`
	Votes     []CredentialVote `json:"votes"`
}
