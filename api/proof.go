package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/promisethread/zkvote/snark"
)

// verifyProof checks an anonymous eligibility proof against the currently
// published anonymity set and, when it verifies, issues the credential bound
// to the proof's nullifier. Re-submitting a valid proof returns the same
// credential, so a client that lost the response can simply prove again.
// POST /proofs/verify
func (a *API) verifyProof(w http.ResponseWriter, r *http.Request) {
	req := &VerifyProofRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	proof, err := snark.UnmarshalProof(req.Proof)
	if err != nil {
		ErrMalformedProof.WithErr(err).Write(w)
		return
	}
	claim, err := a.verifier.VerifyEligibility(proof, &snark.PublicSignals{
		Root:       req.PublicSignals.Root,
		Nullifier:  req.PublicSignals.Nullifier,
		Commitment: req.PublicSignals.Commitment,
	})
	switch {
	case err == nil:
	case errors.Is(err, snark.ErrMalformedSignals):
		ErrMalformedProof.WithErr(err).Write(w)
		return
	case errors.Is(err, snark.ErrStaleRoot):
		ErrStaleCensusRoot.WithErr(err).Write(w)
		return
	case errors.Is(err, snark.ErrInvalidProof):
		ErrProofVerification.Write(w)
		return
	default:
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	cred, err := a.storage.RegisterCredential(claim.Nullifier, time.Now())
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &VerifyProofResponse{
		Valid:     true,
		Nullifier: cred.Nullifier,
		Token:     cred.Token,
	})
}
