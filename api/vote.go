package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/promisethread/zkvote/storage"
	"github.com/promisethread/zkvote/types"
)

// newVote casts an anonymous ballot. The voter authenticates with the
// credential issued at proof verification; the ballot carries only the
// nullifier, the token and the choice. The outcome is always reported as a
// VoteResponse so that a retry of an already counted ballot is a benign
// already_voted answer rather than a hard failure.
// POST /votes
func (a *API) newVote(w http.ResponseWriter, r *http.Request) {
	req := &VoteRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if len(req.Nullifier) != types.DigestLen {
		ErrMalformedNullifier.Withf("got %d bytes, want %d", len(req.Nullifier), types.DigestLen).Write(w)
		return
	}
	if !req.Vote.Valid() {
		ErrInvalidVoteKind.Withf("%q", req.Vote).Write(w)
		return
	}
	ok, err := a.storage.AuthenticateCredential(req.Nullifier, req.Token)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if !ok {
		httpWriteJSON(w, &VoteResponse{Reason: ReasonNotAuthenticated})
		return
	}
	switch err := a.storage.CastVote(req.PromiseID, req.Nullifier, req.Vote, time.Now()); {
	case err == nil:
		httpWriteJSON(w, &VoteResponse{Success: true})
	case errors.Is(err, storage.ErrNotFound):
		ErrPromiseNotFound.Write(w)
	case errors.Is(err, storage.ErrNullifierUsed):
		httpWriteJSON(w, &VoteResponse{Reason: ReasonAlreadyVoted})
	case errors.Is(err, storage.ErrGracePeriodActive):
		httpWriteJSON(w, &VoteResponse{Reason: ReasonGracePeriodActive})
	case errors.Is(err, storage.ErrVotingClosed):
		httpWriteJSON(w, &VoteResponse{Reason: ReasonVotingClosed})
	default:
		ErrGenericInternalServerError.WithErr(err).Write(w)
	}
}
