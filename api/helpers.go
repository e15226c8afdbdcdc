package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/promisethread/zkvote/log"
	"github.com/promisethread/zkvote/types"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// urlParamPromiseID parses the promise ID path parameter.
func urlParamPromiseID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, PromiseURLParam), 10, 64)
}

// urlParamNullifier parses the nullifier path parameter as a hex digest.
func urlParamNullifier(r *http.Request) (types.HexBytes, error) {
	return types.HexStringToHexBytes(chi.URLParam(r, NullifierURLParam))
}
