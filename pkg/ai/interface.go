package ai

import (
	"context"
)

// Classification is the Stage 1 relevance verdict for an email
type Classification struct {
	IsJobRelated bool    `json:"is_job_related"`
	Confidence   float64 `json:"confidence"`
}

// JobExtraction is the Stage 2 structured extraction result. Status is the
// model's free-text phrase; the pipeline maps it onto the status enum.
type JobExtraction struct {
	Company  string `json:"company"`
	Position string `json:"position"`
	Status   string `json:"status"`
}

// ClassifierService is the interface for the staged email classification.
// Implement this interface to add new AI providers (Gemini, Ollama, OpenAI, etc.)
type ClassifierService interface {
	// ClassifyRelevance decides whether an email is about the user's job search
	ClassifyRelevance(ctx context.Context, emailText string) (*Classification, error)
	// ExtractJobFields pulls {company, position, status} from a job-related email
	ExtractJobFields(ctx context.Context, emailText string) (*JobExtraction, error)
	// MatchJobs decides whether two extractions describe the same employer/position
	MatchJobs(ctx context.Context, a, b JobExtraction) (bool, error)
	// ModelID identifies the model+prompt version, persisted for idempotent retries
	ModelID() string
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
