package api

import (
	"errors"
	"net/http"

	"github.com/promisethread/zkvote/storage"
	"github.com/promisethread/zkvote/types"
)

// credential returns the credential bound to a nullifier and the votes it has
// spent. The lookup key is the nullifier itself, which never links back to a
// voter identity.
// GET /credentials/{nullifier}
func (a *API) credential(w http.ResponseWriter, r *http.Request) {
	nullifier, err := urlParamNullifier(r)
	if err != nil {
		ErrMalformedNullifier.WithErr(err).Write(w)
		return
	}
	if len(nullifier) != types.DigestLen {
		ErrMalformedNullifier.Withf("got %d bytes, want %d", len(nullifier), types.DigestLen).Write(w)
		return
	}
	cred, err := a.storage.Credential(nullifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrCredentialNotFound.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	records, err := a.storage.VotesByNullifier(nullifier)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	votes := make([]CredentialVote, 0, len(records))
	for _, rec := range records {
		votes = append(votes, CredentialVote{
			PromiseID: rec.PromiseID,
			Vote:      rec.Kind,
			CastAt:    rec.CastAt,
		})
	}
	httpWriteJSON(w, &CredentialResponse{
		Nullifier: cred.Nullifier,
		IssuedAt:  cred.IssuedAt,
		Votes:     votes,
	})
}
