package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OllamaService implements ClassifierService using an Ollama local LLM
type OllamaService struct {
	getBaseURL func() string // Dynamic getter for BaseURL
	getModel   func() string // Dynamic getter for Model
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	// Use static values (for backward compatibility when no runtime config)
	return &OllamaService{
		getBaseURL: func() string { return baseURL },
		getModel:   func() string { return model },
	}
}

// NewOllamaServiceWithGetters creates a new Ollama service with dynamic getters
func NewOllamaServiceWithGetters(getBaseURL, getModel func() string) *OllamaService {
	return &OllamaService{
		getBaseURL: getBaseURL,
		getModel:   getModel,
	}
}

func (o *OllamaService) ModelID() string {
	return "ollama/" + o.getModel() + "/jobtrail-v1"
}

// ClassifyRelevance implements Stage 1 relevance classification
func (o *OllamaService) ClassifyRelevance(ctx context.Context, emailText string) (*Classification, error) {
	prompt := fmt.Sprintf(`You review a user's inbox for job-search activity.

Is the email below about THIS USER's job search (application confirmation,
interview, offer, or rejection)? Job listings, job-alert digests and
recruiting newsletters are NOT job-related.

ONLY return a JSON object, no other text:
{"is_job_related": true/false, "confidence": 0.0-1.0}

EMAIL:
%s

JSON OUTPUT:`, emailText)

	text, err := o.generate(ctx, prompt, 100)
	if err != nil {
		return nil, err
	}

	var result Classification
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse relevance JSON: %v", err)
	}
	return &result, nil
}

// ExtractJobFields implements Stage 2 structured extraction
func (o *OllamaService) ExtractJobFields(ctx context.Context, emailText string) (*JobExtraction, error) {
	prompt := fmt.Sprintf(`Extract job application details from the email below.

ONLY return a JSON object, no other text:
{"company": "...", "position": "...", "status": "..."}

Use "unknown" for company or position that cannot be determined. status is a
short phrase in the email's own words ("application received",
"interview scheduled", "offer extended", "not moving forward").

EMAIL:
%s

JSON OUTPUT:`, emailText)

	text, err := o.generate(ctx, prompt, 200)
	if err != nil {
		return nil, err
	}

	var result JobExtraction
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse extraction JSON: %v", err)
	}
	return &result, nil
}

// MatchJobs implements Stage 3 semantic same-job comparison
func (o *OllamaService) MatchJobs(ctx context.Context, a, b JobExtraction) (bool, error) {
	prompt := fmt.Sprintf(`Do these two records describe the SAME job application
(same employer and same or equivalent role)?

Record A: company=%q position=%q
Record B: company=%q position=%q

ONLY return a JSON object, no other text:
{"same_job": true/false}`,
		a.Company, a.Position, b.Company, b.Position)

	text, err := o.generate(ctx, prompt, 50)
	if err != nil {
		return false, err
	}

	var result struct {
		SameJob bool `json:"same_job"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &result); err != nil {
		return false, fmt.Errorf("failed to parse match JSON: %v", err)
	}
	return result.SameJob, nil
}

func (o *OllamaService) generate(ctx context.Context, prompt string, numPredict int) (string, error) {
	url := o.getBaseURL() + "/api/generate"

	payload := map[string]interface{}{
		"model":  o.getModel(),
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.1,
			"num_predict": numPredict,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return result.Response, nil
}

// extractJSONObject strips markdown fences and surrounding prose from a
// model response, keeping the outermost {...}
func extractJSONObject(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}
	return text
}
