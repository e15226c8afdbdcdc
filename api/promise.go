package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/promisethread/zkvote/storage"
	"github.com/promisethread/zkvote/types"
)

// newPromise creates a promise with its grace period deadline.
// POST /promises
func (a *API) newPromise(w http.ResponseWriter, r *http.Request) {
	req := &NewPromiseRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.Title == "" {
		ErrInvalidPromiseTitle.With("empty title").Write(w)
		return
	}
	p, err := a.storage.NewPromise(req.Title, req.Description, time.Unix(req.GracePeriodEnd, 0))
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, promiseResponse(p, time.Now()))
}

// listPromises returns all promises with their aggregates.
// GET /promises
func (a *API) listPromises(w http.ResponseWriter, _ *http.Request) {
	promises, err := a.storage.ListPromises()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	now := time.Now()
	resp := make([]*PromiseResponse, 0, len(promises))
	for _, p := range promises {
		resp = append(resp, promiseResponse(p, now))
	}
	httpWriteJSON(w, resp)
}

// promise returns a single promise with its aggregates.
// GET /promises/{promiseId}
func (a *API) promise(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamPromiseID(r)
	if err != nil {
		ErrMalformedPromiseID.WithErr(err).Write(w)
		return
	}
	p, err := a.storage.Promise(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrPromiseNotFound.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, promiseResponse(p, time.Now()))
}

// promiseVotes returns the aggregate view of a promise.
// GET /promises/{promiseId}/votes
func (a *API) promiseVotes(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamPromiseID(r)
	if err != nil {
		ErrMalformedPromiseID.WithErr(err).Write(w)
		return
	}
	p, err := a.storage.Promise(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrPromiseNotFound.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	resp := &PromiseVotesResponse{
		PromiseID: p.ID,
		Kept:      p.Kept,
		Broken:    p.Broken,
		Total:     p.Kept + p.Broken,
		Finalized: p.Finalized,
	}
	if resp.Total > 0 {
		resp.KeptPercent = 100 * float64(p.Kept) / float64(resp.Total)
		resp.BrokenPercent = 100 * float64(p.Broken) / float64(resp.Total)
	}
	httpWriteJSON(w, resp)
}

// finalizePromise freezes the aggregates of a promise. Finalization is
// terminal, further votes are rejected with voting_closed.
// POST /promises/{promiseId}/finalize
func (a *API) finalizePromise(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamPromiseID(r)
	if err != nil {
		ErrMalformedPromiseID.WithErr(err).Write(w)
		return
	}
	p, err := a.storage.FinalizePromise(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrPromiseNotFound.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, promiseResponse(p, time.Now()))
}

func promiseResponse(p *types.Promise, now time.Time) *PromiseResponse {
	return &PromiseResponse{
		Promise:    p,
		Status:     p.Status(now),
		VotingOpen: p.VotingOpen(now),
	}
}
