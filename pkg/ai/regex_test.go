package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexExtractorExtractJobFields(t *testing.T) {
	r := NewRegexExtractor()

	tests := []struct {
		name         string
		email        string
		wantCompany  string
		wantPosition string
		wantStatus   string
	}{
		{
			name:         "application confirmation",
			email:        "Thank you for applying to Acme Corp. We received your application for the Backend Engineer position.",
			wantCompany:  "Acme Corp",
			wantPosition: "Backend Engineer",
			wantStatus:   "application received",
		},
		{
			name:         "interview invite",
			email:        "Hi, we would like to schedule an interview with Globex for the Data Scientist role next week.",
			wantCompany:  "Globex",
			wantPosition: "Data Scientist",
			wantStatus:   "interview scheduled",
		},
		{
			name:         "rejection",
			email:        "We regret to inform you that we are not moving forward with your application to Initech.",
			wantCompany:  "Initech",
			wantPosition: "unknown",
			wantStatus:   "not moving forward",
		},
		{
			name:         "nothing recognizable",
			email:        "Lunch on Friday?",
			wantCompany:  "unknown",
			wantPosition: "unknown",
			wantStatus:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ExtractJobFields(context.Background(), tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCompany, got.Company)
			assert.Equal(t, tt.wantPosition, got.Position)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestRegexExtractorMatchJobs(t *testing.T) {
	r := NewRegexExtractor()

	same, err := r.MatchJobs(context.Background(),
		JobExtraction{Company: "Acme Corp", Position: "Backend Engineer"},
		JobExtraction{Company: "acme corp", Position: "backend engineer"})
	require.NoError(t, err)
	assert.True(t, same)

	same, err = r.MatchJobs(context.Background(),
		JobExtraction{Company: "Acme Corp", Position: "Backend Engineer"},
		JobExtraction{Company: "Globex", Position: "Backend Engineer"})
	require.NoError(t, err)
	assert.False(t, same)
}

func TestIsQuotaError(t *testing.T) {
	assert.True(t, isQuotaError(errString("429 Too Many Requests")))
	assert.True(t, isQuotaError(errString("RESOURCE_EXHAUSTED: quota exceeded")))
	assert.False(t, isQuotaError(errString("500 internal error")))
	assert.False(t, isQuotaError(nil))
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, isConnectionError(errString("dial tcp 127.0.0.1:11434: connection refused")))
	assert.True(t, isConnectionError(errString("unexpected EOF")))
	assert.False(t, isConnectionError(errString("failed to parse extraction JSON")))
	assert.False(t, isConnectionError(nil))
}

type errString string

func (e errString) Error() string { return string(e) }
