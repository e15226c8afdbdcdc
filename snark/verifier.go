package snark

import (
	"fmt"

	"github.com/vocdoni/circom2gnark/parser"

	"github.com/promisethread/zkvote/crypto/commitments"
	"github.com/promisethread/zkvote/log"
	"github.com/promisethread/zkvote/types"
)

// Typed rejection reasons of VerifyEligibility. All of them are expected
// request outcomes, reported as errors and never as panics.
var (
	// ErrStaleRoot means the declared root is not the currently published
	// one: the client built its proof against an anonymity set from a
	// previous epoch and must re-download the current set.
	ErrStaleRoot = fmt.Errorf("stale or unknown anonymity set root")
	// ErrInvalidProof means the cryptographic check failed. Retrying with
	// the same input cannot succeed.
	ErrInvalidProof = fmt.Errorf("invalid proof")
	// ErrMalformedSignals means the public signal encoding is wrong
	// (missing values or bad digest lengths).
	ErrMalformedSignals = fmt.Errorf("malformed public signals")
)

// RootSource provides the currently published anonymity set root.
type RootSource interface {
	Root() types.HexBytes
}

// VerifiedClaim is the outcome of a successful eligibility verification:
// the caller proved membership of the anonymity set under the current root
// and correct derivation of the nullifier. Holding a VerifiedClaim does not
// reserve the nullifier; reservation is a separate, explicitly sequenced
// step in the vote path.
type VerifiedClaim struct {
	Nullifier  types.HexBytes
	Commitment types.HexBytes
}

// Verifier checks eligibility proofs: the declared root against the current
// epoch and the proof itself through the backend. It is read-only and freely
// retryable, so it can run on any worker with no shared mutable state.
type Verifier struct {
	backend Backend
	roots   RootSource
}

// NewVerifier creates a Verifier over the given backend and root source.
func NewVerifier(backend Backend, roots RootSource) *Verifier {
	return &Verifier{backend: backend, roots: roots}
}

// Vector returns the public signals in the circuit's fixed export order:
// nullifier first, then the root, then the commitment, as decimal strings.
// The order is part of the external circuit's contract and must never be
// reordered here.
func (s *PublicSignals) Vector() []string {
	return []string{
		commitments.DigestFromBytes(s.Nullifier).String(),
		commitments.DigestFromBytes(s.Root).String(),
		commitments.DigestFromBytes(s.Commitment).String(),
	}
}

func (s *PublicSignals) validate() error {
	for name, d := range map[string]types.HexBytes{
		"root":       s.Root,
		"nullifier":  s.Nullifier,
		"commitment": s.Commitment,
	} {
		if len(d) != types.DigestLen {
			return fmt.Errorf("%w: %s has length %d, want %d",
				ErrMalformedSignals, name, len(d), types.DigestLen)
		}
	}
	return nil
}

// VerifyEligibility checks that the proof attests membership of the current
// anonymity set and correct nullifier derivation. On success it returns the
// claim carried by the public signals. It performs no writes: reserving the
// nullifier is the ledger's job, sequenced after this call.
func (v *Verifier) VerifyEligibility(proof *parser.CircomProof, signals *PublicSignals) (*VerifiedClaim, error) {
	if proof == nil || signals == nil {
		return nil, fmt.Errorf("%w: missing proof or signals", ErrMalformedSignals)
	}
	if err := signals.validate(); err != nil {
		return nil, err
	}
	current := v.roots.Root()
	if current == nil || !signals.Root.Equal(current) {
		return nil, fmt.Errorf("%w: declared %s", ErrStaleRoot, signals.Root.String())
	}
	ok, err := v.backend.Verify(proof, signals.Vector())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if !ok {
		return nil, ErrInvalidProof
	}
	log.Debugw("eligibility proof verified",
		"root", signals.Root.String(), "nullifier", signals.Nullifier.String())
	return &VerifiedClaim{
		Nullifier:  signals.Nullifier,
		Commitment: signals.Commitment,
	}, nil
}
