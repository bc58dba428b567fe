package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/invoice-cli/internal/invoice"
	"github.com/sells-group/invoice-cli/internal/store"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errBadRequest = eris.New("bad request")

// errorCodes maps engine and store sentinels to status and code.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{store.ErrNotFound, http.StatusNotFound, "not_found"},
	{invoice.ErrUnknownField, http.StatusBadRequest, "unknown_field"},
	{invoice.ErrUnknownOperation, http.StatusBadRequest, "unknown_operation"},
	{invoice.ErrNonFinite, http.StatusBadRequest, "non_finite"},
	{errBadRequest, http.StatusBadRequest, "bad_request"},
	{invoice.ErrReadOnlyField, http.StatusUnprocessableEntity, "read_only_field"},
	{invoice.ErrDerivedField, http.StatusUnprocessableEntity, "derived_field"},
	{invoice.ErrUnresolvedConflict, http.StatusUnprocessableEntity, "unresolved_conflict"},
	{invoice.ErrUnsupportedHold, http.StatusUnprocessableEntity, "unsupported_hold"},
}

// respondError writes err as JSON. Unknown errors are logged and reported
// as 500 without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorCodes {
		if eris.Is(err, e.err) {
			writeJSON(w, e.status, errorBody{Error: err.Error(), Code: e.code})
			return
		}
	}

	zap.L().Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
