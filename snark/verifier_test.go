package snark

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/circom2gnark/parser"

	"github.com/promisethread/zkvote/crypto/commitments"
	"github.com/promisethread/zkvote/types"
)

type fakeBackend struct {
	valid   bool
	err     error
	gotSigs []string
}

func (b *fakeBackend) Verify(_ *parser.CircomProof, publicSignals []string) (bool, error) {
	b.gotSigs = publicSignals
	return b.valid, b.err
}

type fixedRoot types.HexBytes

func (r fixedRoot) Root() types.HexBytes { return types.HexBytes(r) }

func digest(fill byte) types.HexBytes {
	d := make(types.HexBytes, types.DigestLen)
	for i := 0; i < types.DigestLen-1; i++ {
		d[i] = fill
	}
	return d
}

const testProofJSON = `{
	"pi_a": ["1", "2", "1"],
	"pi_b": [["1", "2"], ["3", "4"], ["1", "0"]],
	"pi_c": ["5", "6", "1"],
	"protocol": "groth16"
}`

func testProof(t *testing.T) *parser.CircomProof {
	t.Helper()
	proof, err := UnmarshalProof([]byte(testProofJSON))
	qt.Assert(t, err, qt.IsNil)
	return proof
}

func TestUnmarshalProof(t *testing.T) {
	c := qt.New(t)

	proof := testProof(t)
	c.Assert(proof.Protocol, qt.Equals, "groth16")
	c.Assert(proof.PiA, qt.HasLen, 3)
	c.Assert(proof.PiB, qt.HasLen, 3)

	_, err := UnmarshalProof([]byte("not json"))
	c.Assert(err, qt.IsNotNil)
}

func TestVerifyEligibility(t *testing.T) {
	c := qt.New(t)

	root := digest(0x01)
	backend := &fakeBackend{valid: true}
	v := NewVerifier(backend, fixedRoot(root))

	signals := &PublicSignals{
		Root:       root,
		Nullifier:  digest(0x02),
		Commitment: digest(0x03),
	}
	claim, err := v.VerifyEligibility(testProof(t), signals)
	c.Assert(err, qt.IsNil)
	c.Assert(claim.Nullifier.Equal(signals.Nullifier), qt.IsTrue)
	c.Assert(claim.Commitment.Equal(signals.Commitment), qt.IsTrue)

	// the backend must receive the signals in circuit export order:
	// nullifier, root, commitment, as decimal strings
	c.Assert(backend.gotSigs, qt.DeepEquals, []string{
		commitments.DigestFromBytes(signals.Nullifier).String(),
		commitments.DigestFromBytes(signals.Root).String(),
		commitments.DigestFromBytes(signals.Commitment).String(),
	})
}

func TestVerifyEligibilityStaleRoot(t *testing.T) {
	c := qt.New(t)

	v := NewVerifier(&fakeBackend{valid: true}, fixedRoot(digest(0x01)))
	signals := &PublicSignals{
		Root:       digest(0x09), // not the published one
		Nullifier:  digest(0x02),
		Commitment: digest(0x03),
	}
	_, err := v.VerifyEligibility(testProof(t), signals)
	c.Assert(err, qt.ErrorIs, ErrStaleRoot)

	// no published root at all
	v = NewVerifier(&fakeBackend{valid: true}, fixedRoot(nil))
	_, err = v.VerifyEligibility(testProof(t), signals)
	c.Assert(err, qt.ErrorIs, ErrStaleRoot)
}

func TestVerifyEligibilityInvalidProof(t *testing.T) {
	c := qt.New(t)

	root := digest(0x01)
	signals := &PublicSignals{
		Root:       root,
		Nullifier:  digest(0x02),
		Commitment: digest(0x03),
	}

	// a well-formed but invalid proof
	v := NewVerifier(&fakeBackend{valid: false}, fixedRoot(root))
	_, err := v.VerifyEligibility(testProof(t), signals)
	c.Assert(err, qt.ErrorIs, ErrInvalidProof)

	// a backend failure is also an invalid proof, never a success
	v = NewVerifier(&fakeBackend{err: fmt.Errorf("bad curve point")}, fixedRoot(root))
	_, err = v.VerifyEligibility(testProof(t), signals)
	c.Assert(err, qt.ErrorIs, ErrInvalidProof)
}

func TestVerifyEligibilityMalformedSignals(t *testing.T) {
	c := qt.New(t)

	root := digest(0x01)
	v := NewVerifier(&fakeBackend{valid: true}, fixedRoot(root))

	_, err := v.VerifyEligibility(nil, nil)
	c.Assert(err, qt.ErrorIs, ErrMalformedSignals)

	_, err = v.VerifyEligibility(testProof(t), &PublicSignals{
		Root:       root,
		Nullifier:  types.HexBytes{0x01, 0x02},
		Commitment: digest(0x03),
	})
	c.Assert(err, qt.ErrorIs, ErrMalformedSignals)

	_, err = v.VerifyEligibility(testProof(t), &PublicSignals{
		Root:       root,
		Nullifier:  digest(0x02),
		Commitment: nil,
	})
	c.Assert(err, qt.ErrorIs, ErrMalformedSignals)
}
