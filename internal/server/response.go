package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/me/gohm/pkg/model"
)

// Every endpoint answers with the model.Response envelope; the API is
// read-only, so the only shapes are a 200 (with optional pagination) and an
// error status carrying a model.APIError.

// respondOK writes data inside a 200 envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	writeEnvelope(w, http.StatusOK, model.Response{
		Status:    "ok",
		RequestID: reqID,
		Data:      data,
	})
}

// respondList writes data plus pagination inside a 200 envelope.
func respondList(w http.ResponseWriter, reqID string, data any, pg *model.Pagination) {
	writeEnvelope(w, http.StatusOK, model.Response{
		Status:     "ok",
		RequestID:  reqID,
		Data:       data,
		Pagination: pg,
	})
}

// respondError writes an error envelope with the given HTTP status.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.APIError) {
	writeEnvelope(w, status, model.Response{
		Status:    "error",
		RequestID: reqID,
		Error:     apiErr,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, resp model.Response) {
	resp.Timestamp = time.Now().UTC()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
