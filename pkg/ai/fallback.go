package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService routes classification calls between providers:
// Gemini first (better structured output), Ollama when Gemini is
// unavailable or out of quota. A stage that fails on both providers
// surfaces a retryable error to the pipeline.
type FallbackService struct {
	gemini ClassifierService
	ollama *OllamaService
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(gemini ClassifierService, ollama *OllamaService) *FallbackService {
	return &FallbackService{
		gemini: gemini,
		ollama: ollama,
	}
}

func (f *FallbackService) ModelID() string {
	if f.gemini != nil {
		return f.gemini.ModelID()
	}
	if f.ollama != nil {
		return f.ollama.ModelID()
	}
	return "none"
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors
	if _, ok := err.(net.Error); ok {
		return true
	}

	// Check for common connection error messages
	errStr := err.Error()
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"EOF",
	}

	for _, indicator := range connectionIndicators {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(indicator)) {
			return true
		}
	}

	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"RESOURCE_EXHAUSTED",
	}

	for _, indicator := range quotaIndicators {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(indicator)) {
			return true
		}
	}

	return false
}

// ClassifyRelevance tries Gemini first, falls back to Ollama
func (f *FallbackService) ClassifyRelevance(ctx context.Context, emailText string) (*Classification, error) {
	if f.gemini != nil {
		result, err := f.gemini.ClassifyRelevance(ctx, emailText)
		if err == nil {
			return result, nil
		}

		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini relevance error: %v, falling back to Ollama", err)
		}
	}

	if f.ollama != nil {
		result, err := f.ollama.ClassifyRelevance(ctx, emailText)
		if err == nil {
			return result, nil
		}

		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed: %v, retrying Gemini", err)
			return f.gemini.ClassifyRelevance(ctx, emailText)
		}

		return nil, fmt.Errorf("ollama relevance classification failed: %w", err)
	}

	return nil, fmt.Errorf("no AI provider available for relevance classification")
}

// ExtractJobFields tries Gemini first, falls back to Ollama
func (f *FallbackService) ExtractJobFields(ctx context.Context, emailText string) (*JobExtraction, error) {
	if f.gemini != nil {
		result, err := f.gemini.ExtractJobFields(ctx, emailText)
		if err == nil {
			return result, nil
		}

		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini extraction error: %v, falling back to Ollama", err)
		}
	}

	if f.ollama != nil {
		result, err := f.ollama.ExtractJobFields(ctx, emailText)
		if err == nil {
			return result, nil
		}

		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed: %v, retrying Gemini", err)
			return f.gemini.ExtractJobFields(ctx, emailText)
		}

		return nil, fmt.Errorf("ollama extraction failed: %w", err)
	}

	return nil, fmt.Errorf("no AI provider available for extraction")
}

// MatchJobs tries Gemini first, falls back to Ollama
func (f *FallbackService) MatchJobs(ctx context.Context, a, b JobExtraction) (bool, error) {
	if f.gemini != nil {
		result, err := f.gemini.MatchJobs(ctx, a, b)
		if err == nil {
			return result, nil
		}

		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted for match: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini match error: %v, falling back to Ollama", err)
		}
	}

	if f.ollama != nil {
		result, err := f.ollama.MatchJobs(ctx, a, b)
		if err == nil {
			return result, nil
		}

		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed for match: %v, retrying Gemini", err)
			return f.gemini.MatchJobs(ctx, a, b)
		}

		return false, fmt.Errorf("ollama match failed: %w", err)
	}

	return false, fmt.Errorf("no AI provider available for job matching")
}
