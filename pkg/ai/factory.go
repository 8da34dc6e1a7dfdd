package ai

import (
	"fmt"
	"log"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "ollama" or "auto"

	// Gemini config
	GeminiApiKey string

	// Ollama config
	OllamaBaseURL string // e.g., "http://localhost:11434"
	OllamaModel   string // e.g., "llama3", "mistral"
}

// DynamicConfig supplies runtime-changeable Ollama settings. Getters are
// consulted on every request so settings updated through the API take
// effect without a restart.
type DynamicConfig struct {
	Provider       ProviderType
	GeminiApiKey   string
	GetOllamaURL   func() string
	GetOllamaModel func() string
}

// NewClassifierService creates a ClassifierService based on the config.
// This is the factory function - switch AI provider by changing config.Provider
func NewClassifierService(cfg Config) (ClassifierService, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiApiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		log.Printf("[AI] Using Gemini provider")
		return NewGeminiService(cfg.GeminiApiKey), nil

	case ProviderOllama:
		log.Printf("[AI] Using Ollama provider (%s)", cfg.OllamaModel)
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	case ProviderAuto, "":
		ollama := NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel)
		if cfg.GeminiApiKey == "" {
			log.Printf("[AI] No Gemini API key, using Ollama only")
			return ollama, nil
		}
		log.Printf("[AI] Using Gemini with Ollama fallback")
		return NewFallbackService(NewGeminiService(cfg.GeminiApiKey), ollama), nil

	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.Provider)
	}
}

// NewClassifierServiceWithDynamicConfig creates a ClassifierService whose
// Ollama base URL and model are read through getters on every call
func NewClassifierServiceWithDynamicConfig(cfg DynamicConfig) (ClassifierService, error) {
	ollama := NewOllamaServiceWithGetters(cfg.GetOllamaURL, cfg.GetOllamaModel)

	switch cfg.Provider {
	case ProviderOllama:
		log.Printf("[AI] Using Ollama provider with dynamic config")
		return ollama, nil

	case ProviderGemini:
		if cfg.GeminiApiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		log.Printf("[AI] Using Gemini provider")
		return NewGeminiService(cfg.GeminiApiKey), nil

	case ProviderAuto, "":
		if cfg.GeminiApiKey == "" {
			log.Printf("[AI] No Gemini API key, using Ollama only")
			return ollama, nil
		}
		log.Printf("[AI] Using Gemini with Ollama fallback (dynamic Ollama config)")
		return NewFallbackService(NewGeminiService(cfg.GeminiApiKey), ollama), nil

	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.Provider)
	}
}
