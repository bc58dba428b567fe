package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/invoice-cli/internal/invoice"
	"github.com/sells-group/invoice-cli/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type editRequest struct {
	Edits       []invoice.Edit      `json:"edits"`
	Resolutions invoice.Resolutions `json:"resolutions,omitempty"`
}

type bulkRequest struct {
	IDs    []string          `json:"ids"`
	Field  string            `json:"field"`
	Op     invoice.Operation `json:"op"`
	Amount float64           `json:"amount"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"fields":     invoice.Default.Fields(),
		"operations": invoice.Operations,
	})
}

// handleConflict returns the hold options for a derived field, or
// {"conflict": null} for fields that can be edited directly.
func (s *Server) handleConflict(w http.ResponseWriter, r *http.Request) {
	name := invoice.FieldName(chi.URLParam(r, "field"))
	if invoice.Default.Lookup(name) == nil {
		respondError(w, r, eris.Wrapf(invoice.ErrUnknownField, "%q", name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflict": invoice.Default.DetectConflict(name)})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RecordFilter{Search: q.Get("search")}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, r, eris.Wrapf(errBadRequest, "invalid %s %q", key, raw))
			return
		}
		*dst = n
	}

	recs, err := s.ws.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs, "count": len(recs)})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	view, err := s.ws.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	view, err := s.ws.Edit(r.Context(), chi.URLParam(r, "id"), req.Edits, req.Resolutions)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleResetRecord(w http.ResponseWriter, r *http.Request) {
	view, err := s.ws.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, r, eris.Wrap(errBadRequest, "ids is required"))
		return
	}

	sum, err := s.ws.Bulk(r.Context(), req.IDs, req.Field, req.Op, req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return eris.Wrapf(errBadRequest, "invalid request body: %v", err)
	}
	return nil
}
