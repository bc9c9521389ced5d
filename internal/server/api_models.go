package server

import (
	"github.com/raysh454/phishcatcher/internal/app"
	"github.com/raysh454/phishcatcher/internal/assessor"
	"github.com/raysh454/phishcatcher/internal/batch"
)

// ClassifyRequest carries a single URL. Defanged notation is accepted.
type ClassifyRequest struct {
	URL string `json:"url" example:"hxxp://paypal-login[.]example/verify"`
}

// BatchRequest carries many URLs to classify synchronously.
type BatchRequest struct {
	URLs    []string `json:"urls" example:"[\"http://192.168.1.1/login\",\"https://google.com/\"]"`
	Workers int      `json:"workers,omitempty" example:"4"`
}

// BatchResponse returns one entry per requested URL, in request order.
type BatchResponse struct {
	Items   []app.JobResult `json:"items"`
	Summary batch.Summary   `json:"summary"`
}

// TrustedResponse lists the trusted registered domains.
type TrustedResponse struct {
	Count   int      `json:"count" example:"16"`
	Domains []string `json:"domains"`
}

// HealthResponse reports readiness.
type HealthResponse struct {
	Status         string `json:"status" example:"ok"`
	TrustedDomains int    `json:"trusted_domains" example:"16"`
	ScoringVersion string `json:"scoring_version" example:"2024-06-rf"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error     string `json:"error" example:"invalid URL"`
	Kind      string `json:"kind,omitempty" example:"parse"`
	RequestID string `json:"request_id,omitempty"`
}

// ClassifyResponse is the verdict for one URL.
type ClassifyResponse = assessor.Result
