package api

import (
	"net/http"
)

// HealthResponse is the body of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// InfoResponse describes the API for clients hitting the root info endpoint.
type InfoResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

// healthCheck handles GET /health
func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// apiInfo handles GET /api
func (a *API) apiInfo(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, InfoResponse{
		Name:        "Timeline API",
		Version:     a.config.API.Version,
		Description: "Voice-driven schedule recording API",
		Endpoints: map[string]string{
			"analyze":    "/api/v1/analyze",
			"transcribe": "/api/v1/transcribe",
			"health":     "/health",
		},
	}, http.StatusOK)
}
