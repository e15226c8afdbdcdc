package api

import (
	"errors"
	"net/http"

	"github.com/promisethread/zkvote/census"
)

// census returns the published anonymity set, including the commitment
// leaves so a client can locate its own leaf and build the Merkle proof
// locally without telling the server which leaf is theirs.
// GET /census
func (a *API) census(w http.ResponseWriter, _ *http.Request) {
	set, err := a.storage.Census().Current()
	if err != nil {
		if errors.Is(err, census.ErrNoPublishedSet) {
			ErrNoPublishedCensus.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &CensusResponse{
		Root:    set.Root,
		Depth:   set.Depth,
		Size:    set.Size,
		BuiltAt: set.BuiltAt.Unix(),
		Leaves:  set.Leaves,
	})
}

// censusRoot returns only the current anonymity set root.
// GET /census/root
func (a *API) censusRoot(w http.ResponseWriter, _ *http.Request) {
	set, err := a.storage.Census().Current()
	if err != nil {
		if errors.Is(err, census.ErrNoPublishedSet) {
			ErrNoPublishedCensus.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &CensusRootResponse{Root: set.Root})
}
