package usecase

import (
	"context"
	"strings"

	jobdomain "jobtrail-backend/internal/job/domain"
	"jobtrail-backend/pkg/ai"
)

// UnknownField is the sentinel the extractor returns for fields it cannot
// determine
const UnknownField = "unknown"

// Composite extraction confidence: a base value plus a bonus per populated
// field, capped below 1.0. The rule-based fallback extractor starts lower.
const (
	extractionBase         = 0.5
	extractionBaseFallback = 0.35
	companyWeight          = 0.15
	positionWeight         = 0.15
	statusWeight           = 0.1
	extractionCap          = 0.95
)

// MapStatus maps a free-text status phrase onto the status enum
func MapStatus(freeText string) jobdomain.Status {
	s := strings.ToLower(freeText)
	switch {
	case strings.Contains(s, "interview"):
		return jobdomain.StatusInterviewed
	case strings.Contains(s, "offer"):
		return jobdomain.StatusOffer
	case strings.Contains(s, "declined"),
		strings.Contains(s, "reject"),
		strings.Contains(s, "not moving forward"),
		strings.Contains(s, "not selected"),
		strings.Contains(s, "unfortunately"):
		return jobdomain.StatusDeclined
	default:
		return jobdomain.StatusApplied
	}
}

// CompositeConfidence scores an extraction by how much it actually found.
// Confidence is computed here, not inherited from the relevance stage.
func CompositeConfidence(base float64, e *ai.JobExtraction) float64 {
	score := base
	if fieldPresent(e.Company) {
		score += companyWeight
	}
	if fieldPresent(e.Position) {
		score += positionWeight
	}
	if strings.TrimSpace(e.Status) != "" {
		score += statusWeight
	}
	if score > extractionCap {
		score = extractionCap
	}
	return score
}

func fieldPresent(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, UnknownField)
}

// ExtractionResult is a scored extraction ready for the confidence policy
type ExtractionResult struct {
	Company    string
	Position   string
	StatusText string
	Status     jobdomain.Status
	Confidence float64
	ModelID    string
}

// ClassifierUsecase runs the staged classification. The model-based
// extractor is primary; a rule-based extractor is ranked below it and only
// consulted when the model is unavailable or comes back empty.
type ClassifierUsecase struct {
	svc      ai.ClassifierService
	fallback *ai.RegexExtractor
}

// NewClassifierUsecase creates a new classifier usecase
func NewClassifierUsecase(svc ai.ClassifierService) *ClassifierUsecase {
	return &ClassifierUsecase{
		svc:      svc,
		fallback: ai.NewRegexExtractor(),
	}
}

// ModelID identifies the active model+prompt version
func (c *ClassifierUsecase) ModelID() string {
	return c.svc.ModelID()
}

// ClassifyRelevance runs Stage 1: is this about the user's job search
func (c *ClassifierUsecase) ClassifyRelevance(ctx context.Context, text string) (*ai.Classification, error) {
	return c.svc.ClassifyRelevance(ctx, text)
}

// Extract runs Stage 2 with the model. Fields the model could not fill are
// topped up from the rule-based extractor. A model error is returned as-is
// so the caller can retry within its attempt budget.
func (c *ClassifierUsecase) Extract(ctx context.Context, text string) (*ExtractionResult, error) {
	extraction, err := c.svc.ExtractJobFields(ctx, text)
	if err != nil {
		return nil, err
	}

	if !fieldPresent(extraction.Company) || !fieldPresent(extraction.Position) {
		if rules, rerr := c.fallback.ExtractJobFields(ctx, text); rerr == nil {
			if !fieldPresent(extraction.Company) && fieldPresent(rules.Company) {
				extraction.Company = rules.Company
			}
			if !fieldPresent(extraction.Position) && fieldPresent(rules.Position) {
				extraction.Position = rules.Position
			}
			if strings.TrimSpace(extraction.Status) == "" {
				extraction.Status = rules.Status
			}
		}
	}

	return c.score(extraction, extractionBase, c.svc.ModelID()), nil
}

// ExtractFallback runs the rule-based extractor alone, at reduced base
// confidence. Used after the model's attempt budget is exhausted so a
// record can still reach review instead of dying silently.
func (c *ClassifierUsecase) ExtractFallback(ctx context.Context, text string) (*ExtractionResult, error) {
	extraction, err := c.fallback.ExtractJobFields(ctx, text)
	if err != nil {
		return nil, err
	}
	return c.score(extraction, extractionBaseFallback, c.fallback.ModelID()), nil
}

// MatchJobs runs Stage 3: do two extractions describe the same job
func (c *ClassifierUsecase) MatchJobs(ctx context.Context, a, b ai.JobExtraction) (bool, error) {
	return c.svc.MatchJobs(ctx, a, b)
}

func (c *ClassifierUsecase) score(e *ai.JobExtraction, base float64, modelID string) *ExtractionResult {
	company := strings.TrimSpace(e.Company)
	if company == "" {
		company = UnknownField
	}
	position := strings.TrimSpace(e.Position)
	if position == "" {
		position = UnknownField
	}

	return &ExtractionResult{
		Company:    company,
		Position:   position,
		StatusText: e.Status,
		Status:     MapStatus(e.Status),
		Confidence: CompositeConfidence(base, e),
		ModelID:    modelID,
	}
}
