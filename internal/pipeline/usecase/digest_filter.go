package usecase

import "strings"

// DigestVerdict is the output of the digest pre-filter. A positive verdict
// only means "skip expensive classification", never a final job/not-job call.
type DigestVerdict struct {
	IsDigest   bool    `json:"is_digest"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Application-lifecycle phrases that mark a message as personally relevant
// regardless of sender. Checked first: bulk-mail domains also deliver
// genuine application confirmations.
var applicationPhrases = []string{
	"your application",
	"thank you for applying",
	"application received",
	"application has been received",
	"interview",
	"offer letter",
	"we regret to inform",
	"not moving forward",
	"next steps in the hiring process",
}

// Applicant-tracking-system vendors whose mail is always application traffic
var atsVendors = []string{
	"greenhouse",
	"lever.co",
	"workday",
	"ashbyhq",
	"smartrecruiters",
	"icims",
	"jobvite",
	"taleo",
	"bamboohr",
	"recruitee",
}

// Domains that only ever send alert/newsletter traffic
var pureDigestDomains = []string{
	"jobalerts-noreply@linkedin.com",
	"jobs-noreply@linkedin.com",
	"alert@indeed.com",
	"noreply@glassdoor.com",
	"jobs-listings@linkedin.com",
	"team@hired.com",
	"digest@angel.co",
	"notify@ziprecruiter.com",
}

// Domains that send both digests and real application mail. Content, not
// domain, is authoritative for these.
var mixedDomains = []string{
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"ziprecruiter.com",
	"monster.com",
	"wellfound.com",
}

// Subject fragments typical of bulk job listings and newsletters
var digestSubjectPatterns = []string{
	"new jobs",
	"job alert",
	"jobs for you",
	"recommended for you",
	"jobs you may be interested in",
	"profile views",
	"who's viewed your profile",
	"weekly digest",
	"daily digest",
	"newsletter",
	"trending jobs",
	"hiring now",
	"apply now to these",
}

// Boilerplate phrases counted in the body heuristic
var digestBodyPhrases = []string{
	"unsubscribe",
	"browse more jobs",
	"see all jobs",
	"view all jobs",
	"manage your alerts",
	"curated for you",
	"based on your profile",
	"update your preferences",
	"email frequency",
}

const (
	// Body heuristic inspects only the top of the message
	bodyScanLimit = 2000
	// Phrase hits required before the body heuristic rejects
	bodyPhraseThreshold = 2
)

// ClassifyDigest applies rule-based checks in fixed order, first match wins.
// It runs before any model call to cut classification cost and noise.
func ClassifyDigest(subject, fromAddress, body string) DigestVerdict {
	subjectLower := strings.ToLower(subject)
	fromLower := strings.ToLower(fromAddress)
	bodyLower := strings.ToLower(body)
	if len(bodyLower) > bodyScanLimit {
		bodyLower = bodyLower[:bodyScanLimit]
	}

	// 1. Always-job allowlist
	if hasApplicationSignal(subjectLower, fromLower, bodyLower) {
		return DigestVerdict{IsDigest: false, Reason: "application signal", Confidence: 1.0}
	}

	// 2. Sender-domain rules
	for _, d := range pureDigestDomains {
		if strings.Contains(fromLower, d) {
			return DigestVerdict{IsDigest: true, Reason: "pure digest sender: " + d, Confidence: 0.95}
		}
	}
	for _, d := range mixedDomains {
		if strings.Contains(fromLower, d) {
			if matchesDigestSubject(subjectLower) {
				return DigestVerdict{IsDigest: true, Reason: "digest subject from " + d, Confidence: 0.9}
			}
			// Known sender but no digest markers: let the classifier decide
			break
		}
	}

	// 3. Generic digest-subject patterns
	if matchesDigestSubject(subjectLower) {
		return DigestVerdict{IsDigest: true, Reason: "digest subject pattern", Confidence: 0.85}
	}

	// 4. Body boilerplate heuristic
	hits := 0
	for _, p := range digestBodyPhrases {
		if strings.Contains(bodyLower, p) {
			hits++
		}
	}
	if hits >= bodyPhraseThreshold {
		return DigestVerdict{IsDigest: true, Reason: "digest body boilerplate", Confidence: 0.8}
	}

	// 5. Unknown: proceed to full classification
	return DigestVerdict{IsDigest: false, Reason: "no digest markers", Confidence: 0}
}

func hasApplicationSignal(subjectLower, fromLower, bodyLower string) bool {
	for _, p := range applicationPhrases {
		if strings.Contains(subjectLower, p) || strings.Contains(bodyLower, p) {
			return true
		}
	}
	for _, v := range atsVendors {
		if strings.Contains(fromLower, v) || strings.Contains(subjectLower, v) {
			return true
		}
	}
	return false
}

func matchesDigestSubject(subjectLower string) bool {
	for _, p := range digestSubjectPatterns {
		if strings.Contains(subjectLower, p) {
			return true
		}
	}
	// "5 new jobs", "12 jobs in Berlin"
	if containsCountedJobs(subjectLower) {
		return true
	}
	return false
}

// containsCountedJobs detects "N new jobs" / "N jobs" subjects without a regex
func containsCountedJobs(s string) bool {
	fields := strings.Fields(s)
	for i, f := range fields {
		if !isDigits(f) {
			continue
		}
		if i+1 < len(fields) && strings.HasPrefix(fields[i+1], "job") {
			return true
		}
		if i+2 < len(fields) && fields[i+1] == "new" && strings.HasPrefix(fields[i+2], "job") {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
