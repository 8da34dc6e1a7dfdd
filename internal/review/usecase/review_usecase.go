package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	jobdomain "jobtrail-backend/internal/job/domain"
	jobusecase "jobtrail-backend/internal/job/usecase"
	pipelinedomain "jobtrail-backend/internal/pipeline/domain"
	pipelinerepository "jobtrail-backend/internal/pipeline/repository"
	reviewdomain "jobtrail-backend/internal/review/domain"
	reviewrepository "jobtrail-backend/internal/review/repository"
)

// ReviewUsecase manages the human review queue: storing uncertain
// classifications, resolving them on confirm/reject, and purging expired
// entries
type ReviewUsecase struct {
	reviewRepo   reviewrepository.ReviewRepository
	pipelineRepo pipelinerepository.PipelineRepository
	matcher      *jobusecase.MatcherUsecase
}

// NewReviewUsecase creates a new review usecase
func NewReviewUsecase(
	reviewRepo reviewrepository.ReviewRepository,
	pipelineRepo pipelinerepository.PipelineRepository,
	matcher *jobusecase.MatcherUsecase,
) *ReviewUsecase {
	return &ReviewUsecase{
		reviewRepo:   reviewRepo,
		pipelineRepo: pipelineRepo,
		matcher:      matcher,
	}
}

// Store queues an item with an expiry derived from retentionDays.
// Re-storing the same message replaces the snapshot but the expiry is
// always recomputed from now, never extended past its retention class.
func (u *ReviewUsecase) Store(item *reviewdomain.ReviewItem, retentionDays int) error {
	if retentionDays <= 0 {
		return fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}
	item.RetentionDays = retentionDays
	item.ExpiresAt = time.Now().AddDate(0, 0, retentionDays)
	return u.reviewRepo.Upsert(item)
}

// List retrieves pending items for an account
func (u *ReviewUsecase) Get(id string) (*reviewdomain.ReviewItem, error) {
	return u.reviewRepo.GetByID(id)
}

func (u *ReviewUsecase) List(accountID string, limit, offset int) ([]reviewdomain.ReviewItem, error) {
	return u.reviewRepo.ListByAccount(accountID, limit, offset)
}

// Count returns the number of pending items for an account
func (u *ReviewUsecase) Count(accountID string) (int64, error) {
	return u.reviewRepo.CountByAccount(accountID)
}

// Confirm resolves an item by human decision. asJobRelated true promotes
// the snapshot through the matcher into a job record; false just drops the
// item. Either way the item leaves the queue.
func (u *ReviewUsecase) Confirm(ctx context.Context, id string, asJobRelated bool) (*jobdomain.JobRecord, error) {
	item, err := u.reviewRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("review item %s not found", id)
	}

	// Shield from a concurrent expiry sweep while we resolve
	if err := u.reviewRepo.MarkReviewed(id); err != nil {
		return nil, err
	}

	if !asJobRelated {
		if err := u.reviewRepo.Delete(id); err != nil {
			return nil, err
		}
		log.Printf("[Review] Rejected item %s (%s)", id, item.Subject)
		return nil, nil
	}

	status := jobdomain.Status(item.Status)
	if !status.Valid() {
		status = jobdomain.StatusApplied
	}

	job, created, err := u.matcher.Promote(ctx, jobusecase.PromoteInput{
		AccountID:   item.AccountID,
		ThreadID:    item.ThreadID,
		MessageID:   item.ProviderMessageID,
		MessageDate: item.SentAt,
		Subject:     item.Subject,
		Company:     item.Company,
		Position:    item.Position,
		Status:      status,
		Confidence:  item.Confidence,
		ModelID:     item.ModelID,
	})
	if err != nil {
		return nil, err
	}

	if err := u.reviewRepo.Delete(id); err != nil {
		return nil, err
	}

	u.markPromoted(item, job)
	log.Printf("[Review] Confirmed item %s -> job %s (created=%v)", id, job.ID, created)
	return job, nil
}

// markPromoted advances the pipeline record behind a confirmed item.
// Best effort; the job record is already safe.
func (u *ReviewUsecase) markPromoted(item *reviewdomain.ReviewItem, job *jobdomain.JobRecord) {
	record, err := u.pipelineRepo.GetByProviderID(item.AccountID, item.ProviderMessageID)
	if err != nil || record == nil {
		return
	}
	if record.Stage.CanAdvance(pipelinedomain.StagePromotedToJobs) {
		record.Stage = pipelinedomain.StagePromotedToJobs
	}
	record.JobRecordID = job.ID
	if err := u.pipelineRepo.Update(record); err != nil {
		log.Printf("[Review] Failed to advance pipeline record %s: %v", record.ID, err)
	}
}

// SweepExpired purges expired, never-reviewed items
func (u *ReviewUsecase) SweepExpired() (int64, error) {
	deleted, err := u.reviewRepo.DeleteExpired(time.Now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Printf("[Review] Swept %d expired review items", deleted)
	}
	return deleted, nil
}
