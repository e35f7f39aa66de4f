package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/gohm/pkg/health"
	"github.com/me/gohm/pkg/model"
)

// policyStatus builds the status DTO for one registered policy.
func (s *Server) policyStatus(p health.Policy) model.PolicyStatus {
	tables := make(map[string]int, 4)
	if c, ok := s.executor.Context(p); ok {
		for _, kind := range health.TableKinds() {
			tables[string(kind)] = c.TableLen(kind)
		}
	}
	return model.PolicyStatus{
		Name:   p.Name(),
		Delay:  p.Delay().String(),
		Tables: tables,
	}
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	policies := s.executor.Policies()
	out := make([]model.PolicyStatus, 0, len(policies))
	for _, p := range policies {
		out = append(out, s.policyStatus(p))
	}
	respondOK(w, reqID, out)
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	for _, p := range s.executor.Policies() {
		if p.Name() == name {
			respondOK(w, reqID, s.policyStatus(p))
			return
		}
	}
	respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("policy", name))
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")
	table := chi.URLParam(r, "table")

	execCtx, ok := s.executor.ContextByName(name)
	if !ok {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("policy", name))
		return
	}

	var entries any
	switch health.TableKind(table) {
	case health.KindMeasurement:
		entries = execCtx.Measurements()
	case health.KindSymptom:
		entries = execCtx.Symptoms()
	case health.KindDiagnosis:
		entries = execCtx.Diagnosis()
	case health.KindAction:
		entries = execCtx.Actions()
	default:
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("table", table))
		return
	}

	respondOK(w, reqID, model.TableSnapshot{
		Policy:  name,
		Kind:    table,
		Entries: entries,
	})
}
