package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "GoHM API",
		Version:     "v1",
		Description: "GoHM Health Manager — periodic policy execution with sense/detect/diagnose/resolve pipelines",
		Endpoints: []endpointInfo{
			{"/api/v1/policies", []string{"GET"}, "List registered policies with table sizes and next-due delays"},
			{"/api/v1/policies/{name}", []string{"GET"}, "Single policy status"},
			{"/api/v1/policies/{name}/{table}", []string{"GET"}, "In-memory table snapshot (measurements, symptoms, diagnosis, actions)"},
			{"/api/v1/policies/{name}/{table}/artifacts", []string{"GET"}, "Archived table rows from the store, paginated"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
