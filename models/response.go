package models

// ExtractResponse is the response for POST /extract and POST /manual.
type ExtractResponse struct {
	// Success indicates whether a usable note was produced.
	Success bool `json:"success"`

	// Data is the extracted note. Set only when Success is true.
	Data *Record `json:"data,omitempty"`

	// Error is a human-readable failure reason. Set only when Success is false.
	Error string `json:"error,omitempty"`

	// Code is the machine-readable error code paired with Error.
	Code string `json:"code,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing *TimingInfo `json:"timing,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// RenderMs covers navigation plus the settle delay.
	RenderMs int64 `json:"render_ms"`

	// EvaluationMs is the time spent running the field heuristics.
	EvaluationMs int64 `json:"evaluation_ms"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status                string `json:"status"`
	RenderEngineAvailable bool   `json:"renderEngineAvailable"`
	RenderMode            string `json:"renderMode"`
	ActivePages           int    `json:"activePages"`
	Uptime                string `json:"uptime"`
	Version               string `json:"version"`
}
