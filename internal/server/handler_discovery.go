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
		Name:        "OpenNeuroLens API",
		Version:     "v1",
		Description: "OpenNeuroLens demo dashboard: EEG upload, simulated processing and example datasets",
		Endpoints: []endpointInfo{
			{"/api/v1/login", []string{"POST"}, "Submit demo credentials"},
			{"/api/v1/logout", []string{"POST"}, "Reset the session to logged out"},
			{"/api/v1/datasets", []string{"GET"}, "List example dataset labels"},
			{"/api/v1/datasets/{label}", []string{"GET"}, "Images and workbook of an example dataset"},
			{"/api/v1/runs", []string{"POST"}, "Upload an EEG file (multipart field \"file\")"},
			{"/api/v1/runs/{id}", []string{"GET"}, "Run state and progress"},
			{"/api/v1/runs/{id}/results", []string{"GET"}, "Result images and summary workbook of a completed run"},
			{"/api/v1/sse/runs/{id}", []string{"GET"}, "Process a run, streaming progress as Server-Sent Events"},
			{"/api/v1/ws/runs/{id}", []string{"GET"}, "Process a run, streaming progress over WebSocket"},
			{"/api/v1/signals", []string{"GET"}, "List synthetic signal labels"},
			{"/api/v1/signals/{label}", []string{"GET"}, "Synthetic placeholder series"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
