// Package types holds the shared wire and storage types of the anonymous
// voting core: digests, vote kinds and the promise (ballot item) aggregate.
package types

import (
	"fmt"
	"time"
)

const (
	// DigestLen is the byte length of every digest handled by the system
	// (commitments, nullifiers, Merkle roots and siblings).
	DigestLen = 32

	// DefaultTreeDepth is the depth of the anonymity set Merkle tree,
	// supporting up to 2^15 = 32768 registered voters.
	DefaultTreeDepth = 15
)

// VoteKind is the choice a voter casts on a promise.
type VoteKind string

const (
	// VoteKept means the voter considers the promise fulfilled.
	VoteKept VoteKind = "kept"
	// VoteBroken means the voter considers the promise broken.
	VoteBroken VoteKind = "broken"
)

// Valid reports whether the vote kind is one of the accepted values.
func (k VoteKind) Valid() bool {
	return k == VoteKept || k == VoteBroken
}

// PromiseStatus is the lifecycle state of a promise. The transitions are
// Created -> GracePeriod -> Open -> Finalized; the temporal states are
// derived from GracePeriodEnd, only Finalized is stored explicitly.
type PromiseStatus string

const (
	PromiseStatusCreated     PromiseStatus = "created"
	PromiseStatusGracePeriod PromiseStatus = "grace_period"
	PromiseStatusOpen        PromiseStatus = "open"
	PromiseStatusFinalized   PromiseStatus = "finalized"
)

// Promise is a ballot item: a public commitment made by a politician that
// registered voters anonymously judge as kept or broken.
type Promise struct {
	ID             uint64   `json:"id" cbor:"1,keyasint"`
	Title          string   `json:"title" cbor:"2,keyasint"`
	Description    string   `json:"description,omitempty" cbor:"3,keyasint,omitempty"`
	PromiseHash    HexBytes `json:"hash" cbor:"4,keyasint"`
	Kept           uint64   `json:"voteKept" cbor:"5,keyasint"`
	Broken         uint64   `json:"voteBroken" cbor:"6,keyasint"`
	GracePeriodEnd int64    `json:"gracePeriodEnd" cbor:"7,keyasint"`
	Finalized      bool     `json:"finalized" cbor:"8,keyasint"`
}

// Status returns the lifecycle state of the promise at the given time.
func (p *Promise) Status(now time.Time) PromiseStatus {
	switch {
	case p.Finalized:
		return PromiseStatusFinalized
	case now.Unix() < p.GracePeriodEnd:
		return PromiseStatusGracePeriod
	default:
		return PromiseStatusOpen
	}
}

// VotingOpen reports whether the promise accepts votes at the given time.
func (p *Promise) VotingOpen(now time.Time) bool {
	return p.Status(now) == PromiseStatusOpen
}

// String returns a short human-readable identifier for logs.
func (p *Promise) String() string {
	return fmt.Sprintf("promise %d (%s)", p.ID, p.Title)
}
