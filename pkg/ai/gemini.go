package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const geminiModel = "gemini-2.5-flash"

// GeminiService implements ClassifierService using the Gemini REST API
type GeminiService struct {
	ApiKey string
}

func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{ApiKey: apiKey}
}

func (g *GeminiService) ModelID() string {
	return geminiModel + "/jobtrail-v1"
}

// ClassifyRelevance implements Stage 1: job-related or not
func (g *GeminiService) ClassifyRelevance(ctx context.Context, emailText string) (*Classification, error) {
	prompt := fmt.Sprintf(`You are an assistant that reviews a user's inbox for job-search activity.

Decide whether the email below is about THIS USER's job search: an application
confirmation, interview invitation or scheduling, an offer, or a rejection.
Job listings, job-alert digests, recruiting newsletters and generic marketing
are NOT job-related for this purpose.

Answer with a single JSON object and nothing else:
{"is_job_related": true/false, "confidence": 0.0-1.0}

EMAIL:
%s

JSON:`, emailText)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result Classification
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse relevance JSON: %w", err)
	}
	return &result, nil
}

// ExtractJobFields implements Stage 2: structured field extraction
func (g *GeminiService) ExtractJobFields(ctx context.Context, emailText string) (*JobExtraction, error) {
	prompt := fmt.Sprintf(`Extract job application details from the email below.

Return a single JSON object and nothing else:
{"company": "...", "position": "...", "status": "..."}

Rules:
- company: the employer name, or "unknown" if it cannot be determined
- position: the role title, or "unknown"
- status: a short phrase describing where the application stands, in the
  email's own words (e.g. "application received", "interview scheduled",
  "offer extended", "not moving forward")

EMAIL:
%s

JSON:`, emailText)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result JobExtraction
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse extraction JSON: %w", err)
	}
	return &result, nil
}

// MatchJobs implements Stage 3: semantic same-job comparison
func (g *GeminiService) MatchJobs(ctx context.Context, a, b JobExtraction) (bool, error) {
	prompt := fmt.Sprintf(`Do these two records describe the SAME job application
(same employer and same or equivalent role)? Minor spelling, punctuation or
abbreviation differences do not make them different.

Record A: company=%q position=%q status=%q
Record B: company=%q position=%q status=%q

Answer with a single JSON object and nothing else:
{"same_job": true/false}`,
		a.Company, a.Position, a.Status,
		b.Company, b.Position, b.Status)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return false, err
	}

	var result struct {
		SameJob bool `json:"same_job"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &result); err != nil {
		return false, fmt.Errorf("failed to parse match JSON: %w", err)
	}
	return result.SameJob, nil
}

func (g *GeminiService) generate(ctx context.Context, prompt string) (string, error) {
	url := "https://generativelanguage.googleapis.com/v1beta/models/" + geminiModel + ":generateContent?key=" + g.ApiKey

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature": 0.1,
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error: %s", string(respBody))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}

	// Walk candidates[0].content.parts[0].text
	if c, ok := result["candidates"].([]interface{}); ok && len(c) > 0 {
		if cand, ok := c[0].(map[string]interface{}); ok {
			if content, ok := cand["content"].(map[string]interface{}); ok {
				if parts, ok := content["parts"].([]interface{}); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]interface{}); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}
	return "", fmt.Errorf("no content returned")
}
