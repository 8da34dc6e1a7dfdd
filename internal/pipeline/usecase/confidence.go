package usecase

// Decision is the confidence policy outcome for a classified message
type Decision string

const (
	DecisionDiscard        Decision = "discard"
	DecisionStoreForReview Decision = "store_for_review"
	DecisionStoreAsJob     Decision = "store_as_job"
)

// Central thresholds for the confidence policy. Tune here, not in the
// control flow.
const (
	// Negatives above this are dropped outright
	DiscardNegativeThreshold = 0.8
	// Positives at or above this are stored as jobs. Deliberately below the
	// generic review bar: a missed job costs the user far more than a
	// stored false positive they can reject later.
	StoreJobThreshold = 0.6
	// Below this everything goes to long-retention review
	LowConfidenceThreshold = 0.5
	// Below this, medium-retention review
	MediumConfidenceThreshold = 0.7

	RetentionDaysLow    = 30
	RetentionDaysMedium = 14
	RetentionDaysShort  = 7
)

// PolicyResult carries the decision plus review retention when applicable
type PolicyResult struct {
	Decision      Decision
	RetentionDays int
}

// DecideConfidence maps a classification verdict to an action. Pure
// function; evaluation order matters and is part of the contract:
// a confident positive is stored even when it sits below the generic
// "needs review" bar.
func DecideConfidence(confidence float64, isJobRelated bool) PolicyResult {
	if !isJobRelated && confidence > DiscardNegativeThreshold {
		return PolicyResult{Decision: DecisionDiscard}
	}
	if confidence < LowConfidenceThreshold {
		return PolicyResult{Decision: DecisionStoreForReview, RetentionDays: RetentionDaysLow}
	}
	if isJobRelated && confidence >= StoreJobThreshold {
		return PolicyResult{Decision: DecisionStoreAsJob}
	}
	if confidence < MediumConfidenceThreshold {
		return PolicyResult{Decision: DecisionStoreForReview, RetentionDays: RetentionDaysMedium}
	}
	return PolicyResult{Decision: DecisionStoreForReview, RetentionDays: RetentionDaysShort}
}
