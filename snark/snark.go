// Package snark is the boundary to the external Groth16 proving system. The
// circuit, its constraint compiler and the proof generation are external (a
// snarkjs circom circuit on the client); this package only verifies proofs
// against the circuit's verifying key and checks the declared public signals
// against system state.
package snark

import (
	"fmt"
	"os"

	"github.com/vocdoni/circom2gnark/parser"

	"github.com/promisethread/zkvote/types"
)

// Backend abstracts the cryptographic proof check so the SNARK library is a
// pluggable dependency rather than a structural assumption. Implementations
// must be side-effect free and safe for concurrent use.
type Backend interface {
	// Verify checks the proof against the public signal vector. It returns
	// false (with a nil error) for a well-formed but invalid proof, and an
	// error for malformed input.
	Verify(proof *parser.CircomProof, publicSignals []string) (bool, error)
}

// Groth16Backend verifies snarkjs Groth16 proofs by converting them to gnark
// format through circom2gnark. It is the only place in the system where the
// SNARK library is invoked.
type Groth16Backend struct {
	vkey []byte
}

// NewGroth16Backend creates a backend from the circuit's verifying key JSON,
// as exported by snarkjs. The key is parsed once up front to reject a
// malformed key at construction instead of on the request path.
func NewGroth16Backend(vkeyJSON []byte) (*Groth16Backend, error) {
	if _, err := parser.UnmarshalCircomVerificationKeyJSON(vkeyJSON); err != nil {
		return nil, fmt.Errorf("parse verifying key: %w", err)
	}
	return &Groth16Backend{vkey: vkeyJSON}, nil
}

// LoadGroth16Backend reads the verifying key from a file.
func LoadGroth16Backend(path string) (*Groth16Backend, error) {
	vkeyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read verifying key %s: %w", path, err)
	}
	return NewGroth16Backend(vkeyJSON)
}

// Verify implements Backend.
func (b *Groth16Backend) Verify(proof *parser.CircomProof, publicSignals []string) (bool, error) {
	vkey, err := parser.UnmarshalCircomVerificationKeyJSON(b.vkey)
	if err != nil {
		return false, fmt.Errorf("parse verifying key: %w", err)
	}
	gnarkProof, err := parser.ConvertCircomToGnark(proof, vkey, publicSignals)
	if err != nil {
		return false, fmt.Errorf("convert proof: %w", err)
	}
	ok, err := parser.VerifyProof(gnarkProof)
	if err != nil {
		return false, fmt.Errorf("verify proof: %w", err)
	}
	return ok, nil
}

// UnmarshalProof decodes a snarkjs proof JSON into the parser's native
// format: the three curve point groups plus the protocol and curve tags.
func UnmarshalProof(proofJSON []byte) (*parser.CircomProof, error) {
	proof, err := parser.UnmarshalCircomProofJSON(proofJSON)
	if err != nil {
		return nil, fmt.Errorf("parse proof: %w", err)
	}
	return proof, nil
}

// PublicSignals are the values the eligibility circuit exposes: the Merkle
// root the membership path was checked against, the voter's nullifier and
// the commitment the path starts from.
type PublicSignals struct {
	Root       types.HexBytes `json:"root"`
	Nullifier  types.HexBytes `json:"nullifier"`
	Commitment types.HexBytes `json:"commitment"`
}
