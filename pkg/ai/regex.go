package ai

import (
	"context"
	"regexp"
	"strings"
)

// RegexExtractor is a rule-based last-resort extraction strategy used when
// every LLM provider fails. It only implements ExtractJobFields; the other
// stages return a low-confidence "don't know" so callers route the message
// to review instead of discarding it.
type RegexExtractor struct{}

func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

func (r *RegexExtractor) ModelID() string {
	return "regex/jobtrail-v1"
}

var (
	// "your application to Acme", "applying to Acme", "position at Acme"
	companyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:application (?:to|at|with)|applying (?:to|at)|position (?:at|with)|role (?:at|with)|interview (?:at|with)|offer from|team at)\s+([A-Z][\w&.\- ]{1,40}?)(?:[.,!\n]|\s+(?:for|as|has|is|was|regarding)\b|$)`),
		regexp.MustCompile(`(?i)thank you for applying to\s+([A-Z][\w&.\- ]{1,40}?)(?:[.,!\n]|$)`),
	}

	// "for the Backend Engineer position", "role of Data Scientist"
	positionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:for the|for a|for our)\s+([\w/\- ]{2,50}?)\s+(?:position|role|opening|opportunity)`),
		regexp.MustCompile(`(?i)(?:position|role) of\s+([\w/\- ]{2,50}?)(?:[.,!\n]|\s+(?:at|with)\b|$)`),
		regexp.MustCompile(`(?i)(?:as an?)\s+([\w/\- ]{2,50}?)\s+(?:at|with)\b`),
	}

	statusKeywords = []struct {
		pattern *regexp.Regexp
		status  string
	}{
		{regexp.MustCompile(`(?i)\boffer\b`), "offer extended"},
		{regexp.MustCompile(`(?i)\b(?:not (?:been )?selected|not moving forward|regret to inform|unfortunately|declined|rejected)\b`), "not moving forward"},
		{regexp.MustCompile(`(?i)\binterview\b`), "interview scheduled"},
		{regexp.MustCompile(`(?i)\b(?:application (?:received|submitted)|thank you for applying|we(?:'ve| have) received)\b`), "application received"},
	}
)

// ClassifyRelevance cannot be decided by rules with any confidence
func (r *RegexExtractor) ClassifyRelevance(ctx context.Context, emailText string) (*Classification, error) {
	return &Classification{IsJobRelated: true, Confidence: 0.3}, nil
}

// ExtractJobFields pulls fields with patterns; anything it cannot find
// stays "unknown" so the confidence policy routes the record to review
func (r *RegexExtractor) ExtractJobFields(ctx context.Context, emailText string) (*JobExtraction, error) {
	result := &JobExtraction{Company: "unknown", Position: "unknown", Status: ""}

	for _, p := range companyPatterns {
		if m := p.FindStringSubmatch(emailText); m != nil {
			result.Company = strings.TrimSpace(m[1])
			break
		}
	}

	for _, p := range positionPatterns {
		if m := p.FindStringSubmatch(emailText); m != nil {
			result.Position = strings.TrimSpace(m[1])
			break
		}
	}

	for _, kw := range statusKeywords {
		if kw.pattern.MatchString(emailText) {
			result.Status = kw.status
			break
		}
	}

	return result, nil
}

// MatchJobs falls back to exact comparison only
func (r *RegexExtractor) MatchJobs(ctx context.Context, a, b JobExtraction) (bool, error) {
	return strings.EqualFold(strings.TrimSpace(a.Company), strings.TrimSpace(b.Company)) &&
		strings.EqualFold(strings.TrimSpace(a.Position), strings.TrimSpace(b.Position)), nil
}
