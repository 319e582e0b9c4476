package server

import (
	"github.com/raysh454/owaspscan/internal/model"
)

// AnalyzeRequest is the payload for POST /analyze and POST /analyze/sarif.
type AnalyzeRequest struct {
	Code     string `json:"code" example:"password = \"admin123\""`
	Language string `json:"language,omitempty" example:"Python"`

	// URI names the artifact in SARIF output.
	URI string `json:"uri,omitempty" example:"app/login.py"`
}

// AnalyzeResponse is an analysis result plus the history entry it was
// recorded under.
type AnalyzeResponse struct {
	model.AnalysisResult
	HistoryID string `json:"historyId" example:"0b6f2c1e-8d1a-4c57-9a8e-3f0c2b7d9e11"`
}

// CompareRequest selects the code to compare, either submitted directly
// or by history entry.
type CompareRequest struct {
	Code      string `json:"code,omitempty"`
	Language  string `json:"language,omitempty"`
	HistoryID string `json:"historyId,omitempty"`
	Context   *int   `json:"context,omitempty" example:"3"`
}

// LiveMessage is what a client sends over /ws/analyze.
type LiveMessage struct {
	Code string `json:"code"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"code must not be empty"`
}

// HealthResponse reports that the server is up.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Rules  int    `json:"rules" example:"42"`
}
