package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDigest(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		from       string
		body       string
		wantDigest bool
	}{
		{
			name:       "application from pure digest domain is kept",
			subject:    "Your application to Acme Corp",
			from:       "jobalerts-noreply@linkedin.com",
			body:       "Thanks for applying.",
			wantDigest: false,
		},
		{
			name:       "plain alert from pure digest domain is rejected",
			subject:    "Software jobs in Berlin",
			from:       "jobalerts-noreply@linkedin.com",
			body:       "Here are today's listings.",
			wantDigest: true,
		},
		{
			name:       "mixed domain with digest subject is rejected",
			subject:    "5 new jobs for you",
			from:       "notifications@linkedin.com",
			body:       "Check out these roles.",
			wantDigest: true,
		},
		{
			name:       "mixed domain without digest markers passes through",
			subject:    "Re: Backend Engineer role",
			from:       "recruiter@linkedin.com",
			body:       "Hi, I came across your profile.",
			wantDigest: false,
		},
		{
			name:       "generic digest subject from unknown sender",
			subject:    "Weekly digest: top engineering roles",
			from:       "news@techjobs.example",
			body:       "This week's roundup.",
			wantDigest: true,
		},
		{
			name:       "counted jobs subject",
			subject:    "12 jobs matching your search",
			from:       "mail@jobsite.example",
			body:       "New matches.",
			wantDigest: true,
		},
		{
			name:       "body boilerplate heuristic",
			subject:    "Opportunities this week",
			from:       "hello@careersletter.example",
			body:       "Roles curated for you. Browse more jobs on our site or unsubscribe anytime.",
			wantDigest: true,
		},
		{
			name:       "single boilerplate phrase is not enough",
			subject:    "Quick question",
			from:       "jane@startup.example",
			body:       "You can unsubscribe from my updates, but I wanted to ask about your availability.",
			wantDigest: false,
		},
		{
			name:       "ats vendor sender is always kept",
			subject:    "Next steps",
			from:       "no-reply@greenhouse.io",
			body:       "Please pick an interview slot.",
			wantDigest: false,
		},
		{
			name:       "interview phrase overrides everything",
			subject:    "Interview confirmation",
			from:       "alert@indeed.com",
			body:       "Your interview is on Friday.",
			wantDigest: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyDigest(tt.subject, tt.from, tt.body)
			assert.Equal(t, tt.wantDigest, got.IsDigest, "reason: %s", got.Reason)
		})
	}
}

func TestClassifyDigestConfidence(t *testing.T) {
	// Allowlist hits are certain
	got := ClassifyDigest("Your application to Acme", "noreply@acme.example", "")
	assert.False(t, got.IsDigest)
	assert.Equal(t, 1.0, got.Confidence)

	// An unknown message carries zero confidence: the classifier must run
	got = ClassifyDigest("Hello", "friend@example.com", "How are you?")
	assert.False(t, got.IsDigest)
	assert.Equal(t, 0.0, got.Confidence)
}
