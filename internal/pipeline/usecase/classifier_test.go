package usecase

import (
	"context"
	"errors"
	"testing"

	jobdomain "jobtrail-backend/internal/job/domain"
	"jobtrail-backend/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		text string
		want jobdomain.Status
	}{
		{"interview scheduled", jobdomain.StatusInterviewed},
		{"Final interview next week", jobdomain.StatusInterviewed},
		{"offer extended", jobdomain.StatusOffer},
		{"We have an offer for you", jobdomain.StatusOffer},
		{"application declined", jobdomain.StatusDeclined},
		{"rejected after review", jobdomain.StatusDeclined},
		{"not moving forward", jobdomain.StatusDeclined},
		{"unfortunately we went another way", jobdomain.StatusDeclined},
		{"application received", jobdomain.StatusApplied},
		{"", jobdomain.StatusApplied},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapStatus(tt.text), "MapStatus(%q)", tt.text)
	}
}

func TestCompositeConfidence(t *testing.T) {
	full := &ai.JobExtraction{Company: "Acme", Position: "Engineer", Status: "interview scheduled"}
	assert.InDelta(t, 0.9, CompositeConfidence(extractionBase, full), 0.001)

	noStatus := &ai.JobExtraction{Company: "Acme", Position: "Engineer"}
	assert.InDelta(t, 0.8, CompositeConfidence(extractionBase, noStatus), 0.001)

	companyOnly := &ai.JobExtraction{Company: "Acme", Position: "unknown"}
	assert.InDelta(t, 0.65, CompositeConfidence(extractionBase, companyOnly), 0.001)

	empty := &ai.JobExtraction{Company: "unknown", Position: "unknown"}
	assert.InDelta(t, 0.5, CompositeConfidence(extractionBase, empty), 0.001)

	// Capped below 1.0 regardless of base
	assert.LessOrEqual(t, CompositeConfidence(0.9, full), extractionCap)
}

// scriptedAI returns canned answers for the classifier stages
type scriptedAI struct {
	relevance  *ai.Classification
	extraction *ai.JobExtraction
	extractErr error
}

func (s *scriptedAI) ClassifyRelevance(ctx context.Context, text string) (*ai.Classification, error) {
	return s.relevance, nil
}

func (s *scriptedAI) ExtractJobFields(ctx context.Context, text string) (*ai.JobExtraction, error) {
	if s.extractErr != nil {
		return nil, s.extractErr
	}
	return s.extraction, nil
}

func (s *scriptedAI) MatchJobs(ctx context.Context, a, b ai.JobExtraction) (bool, error) {
	return false, nil
}

func (s *scriptedAI) ModelID() string { return "scripted/v1" }

func TestExtractTopsUpEmptyFieldsFromRules(t *testing.T) {
	c := NewClassifierUsecase(&scriptedAI{
		extraction: &ai.JobExtraction{Company: "unknown", Position: "unknown", Status: ""},
	})

	text := "Thank you for applying to Acme Corp. We received your application for the Backend Engineer position."
	result, err := c.Extract(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", result.Company)
	assert.Equal(t, "Backend Engineer", result.Position)
	assert.Equal(t, jobdomain.StatusApplied, result.Status)
}

func TestExtractPropagatesModelError(t *testing.T) {
	c := NewClassifierUsecase(&scriptedAI{extractErr: errors.New("model unavailable")})

	_, err := c.Extract(context.Background(), "some email")
	assert.Error(t, err)
}

func TestExtractFallbackUsesReducedBase(t *testing.T) {
	c := NewClassifierUsecase(&scriptedAI{})

	text := "Thank you for applying to Acme Corp. We received your application for the Backend Engineer position."
	result, err := c.ExtractFallback(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", result.Company)
	// base 0.35 + company 0.15 + position 0.15 + status 0.1
	assert.InDelta(t, 0.75, result.Confidence, 0.001)
	assert.Equal(t, "regex/jobtrail-v1", result.ModelID)
}
