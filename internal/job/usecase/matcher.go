package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	jobdomain "jobtrail-backend/internal/job/domain"
	jobrepository "jobtrail-backend/internal/job/repository"
	"jobtrail-backend/pkg/ai"
	"jobtrail-backend/pkg/fuzzy"
)

// Candidate records must have been first seen within this trailing window
const matchWindowDays = 30

// SemanticMatcher is the Stage 3 same-job check
type SemanticMatcher interface {
	MatchJobs(ctx context.Context, a, b ai.JobExtraction) (bool, error)
}

// JobIndexer pushes job records into a vector store for semantic search.
// Optional; a nil indexer disables indexing.
type JobIndexer interface {
	IndexJob(ctx context.Context, job *jobdomain.JobRecord) error
}

// PromoteInput is one classified extraction ready to become or extend a
// job record
type PromoteInput struct {
	AccountID   string
	ThreadID    string
	MessageID   string
	MessageDate time.Time
	Subject     string

	Company    string
	Position   string
	Status     jobdomain.Status
	Confidence float64
	ModelID    string
}

// MatcherUsecase decides whether an extraction continues an existing job
// record or starts a new one. It is the single writer of job status and
// email history.
type MatcherUsecase struct {
	jobRepo jobrepository.JobRepository
	matcher SemanticMatcher
	indexer JobIndexer
}

// NewMatcherUsecase creates a new matcher usecase
func NewMatcherUsecase(jobRepo jobrepository.JobRepository, matcher SemanticMatcher, indexer JobIndexer) *MatcherUsecase {
	return &MatcherUsecase{
		jobRepo: jobRepo,
		matcher: matcher,
		indexer: indexer,
	}
}

// Promote merges the extraction into a matching record or creates a new
// one. Returns the record and whether it was newly created. Safe to call
// again with the same message: the history entry and thread key are both
// idempotent.
func (u *MatcherUsecase) Promote(ctx context.Context, in PromoteInput) (*jobdomain.JobRecord, bool, error) {
	if in.AccountID == "" || in.MessageID == "" {
		return nil, false, fmt.Errorf("promote requires account and message IDs")
	}

	key := fuzzy.SimilarityKey(in.Company, in.Position)

	match, err := u.findMatch(ctx, in, key)
	if err != nil {
		return nil, false, err
	}
	if match != nil {
		if err := u.merge(match, in); err != nil {
			return nil, false, err
		}
		u.index(ctx, match)
		return match, false, nil
	}

	job := &jobdomain.JobRecord{
		AccountID:     in.AccountID,
		Company:       in.Company,
		Position:      in.Position,
		Status:        in.Status,
		SimilarityKey: key,
		ThreadKey:     threadKey(in),
		FirstSeenDate: in.MessageDate,
		EmailHistory: jobdomain.EmailHistory{{
			MessageID: in.MessageID,
			Date:      in.MessageDate,
			Subject:   in.Subject,
		}},
		Confidence:          in.Confidence,
		ClassificationModel: in.ModelID,
	}

	stored, created, err := u.jobRepo.CreateIfAbsent(job)
	if err != nil {
		return nil, false, err
	}
	if !created {
		// Lost the race or re-ran a promoted message: merge into the row
		// that owns this thread
		if err := u.merge(stored, in); err != nil {
			return nil, false, err
		}
	}
	u.index(ctx, stored)
	return stored, created, nil
}

// findMatch scans recent records for the account, loosest filter first,
// then Stage 3 semantic confirmation. Candidates are visited most recent
// first; the first confirmed match wins.
func (u *MatcherUsecase) findMatch(ctx context.Context, in PromoteInput, key string) (*jobdomain.JobRecord, error) {
	since := in.MessageDate.AddDate(0, 0, -matchWindowDays)
	recent, err := u.jobRepo.ListRecent(in.AccountID, since)
	if err != nil {
		return nil, err
	}

	newExtraction := ai.JobExtraction{Company: in.Company, Position: in.Position, Status: string(in.Status)}

	for i := range recent {
		cand := &recent[i]
		if !fuzzy.LooseMatch(in.Company, cand.Company) && !fuzzy.LooseMatch(in.Position, cand.Position) {
			continue
		}

		same, err := u.matcher.MatchJobs(ctx, newExtraction, ai.JobExtraction{
			Company:  cand.Company,
			Position: cand.Position,
			Status:   string(cand.Status),
		})
		if err != nil {
			// Semantic check unavailable: fall back to exact key equality
			log.Printf("[Matcher] Stage 3 failed (%v), using similarity key for %s", err, cand.ID)
			same = cand.SimilarityKey == key
		}
		if same {
			return cand, nil
		}
	}
	return nil, nil
}

// merge appends the email to the record's history and escalates status
// monotonically. A lower-priority status never overwrites a higher one.
func (u *MatcherUsecase) merge(job *jobdomain.JobRecord, in PromoteInput) error {
	changed := false

	if !job.EmailHistory.Contains(in.MessageID) {
		job.EmailHistory = append(job.EmailHistory, jobdomain.EmailHistoryEntry{
			MessageID: in.MessageID,
			Date:      in.MessageDate,
			Subject:   in.Subject,
		})
		changed = true
	}

	if in.Status.Outranks(job.Status) {
		log.Printf("[Matcher] Escalating %s: %s -> %s", job.ID, job.Status, in.Status)
		job.Status = in.Status
		job.Confidence = in.Confidence
		job.ClassificationModel = in.ModelID
		changed = true
	}

	if !changed {
		return nil
	}
	return u.jobRepo.Update(job)
}

func (u *MatcherUsecase) index(ctx context.Context, job *jobdomain.JobRecord) {
	if u.indexer == nil {
		return
	}
	if err := u.indexer.IndexJob(ctx, job); err != nil {
		log.Printf("[Matcher] Failed to index job %s: %v", job.ID, err)
	}
}

// threadKey builds the idempotent-create key. Messages without a thread ID
// fall back to the message ID so unrelated singletons cannot collide.
func threadKey(in PromoteInput) string {
	if in.ThreadID != "" {
		return in.AccountID + "_" + in.ThreadID
	}
	return in.AccountID + "_" + in.MessageID
}
