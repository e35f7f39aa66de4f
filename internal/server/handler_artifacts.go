package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/me/gohm/pkg/health"
	"github.com/me/gohm/pkg/model"
)

func validTableKind(table string) bool {
	for _, kind := range health.TableKinds() {
		if string(kind) == table {
			return true
		}
	}
	return false
}

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")
	table := chi.URLParam(r, "table")

	if s.store == nil {
		respondError(w, reqID, http.StatusNotFound,
			&model.APIError{Code: model.ErrNotFound, Message: "no archive store configured"})
		return
	}
	if _, ok := s.executor.ContextByName(name); !ok {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("policy", name))
		return
	}
	if !validTableKind(table) {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("table", table))
		return
	}

	opts := model.DefaultListOptions()
	if lim := r.URL.Query().Get("limit"); lim != "" {
		n, err := strconv.Atoi(lim)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("limit must be an integer"))
			return
		}
		opts.Limit = n
	}
	if off := r.URL.Query().Get("offset"); off != "" {
		n, err := strconv.Atoi(off)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("offset must be an integer"))
			return
		}
		opts.Offset = n
	}
	opts.Clamp()

	rows, total, err := s.store.ListArtifacts(r.Context(), name, table, opts)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}

	respondList(w, reqID, rows, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	})
}
