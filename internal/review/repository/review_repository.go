package repository

import (
	"time"

	reviewdomain "jobtrail-backend/internal/review/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewRepository defines the interface for review queue persistence
type ReviewRepository interface {
	// Upsert inserts or replaces the item keyed by (account, provider
	// message ID). A re-classified message overwrites its pending snapshot.
	Upsert(item *reviewdomain.ReviewItem) error
	// GetByID retrieves an item by ID
	GetByID(id string) (*reviewdomain.ReviewItem, error)
	// GetByProviderID retrieves an item by its provider message ID
	GetByProviderID(accountID, providerMessageID string) (*reviewdomain.ReviewItem, error)
	// ListByAccount retrieves pending items for an account, newest first
	ListByAccount(accountID string, limit, offset int) ([]reviewdomain.ReviewItem, error)
	// CountByAccount returns the number of pending items for an account
	CountByAccount(accountID string) (int64, error)
	// MarkReviewed flags an item as manually reviewed, shielding it from
	// the expiry sweep
	MarkReviewed(id string) error
	// Delete removes an item
	Delete(id string) error
	// DeleteExpired removes items past expiry that were never manually
	// reviewed, returning the number deleted
	DeleteExpired(now time.Time) (int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new instance of reviewRepository
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Upsert inserts or replaces the item for its message
func (r *reviewRepository) Upsert(item *reviewdomain.ReviewItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "provider_message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_job_related", "confidence", "company", "position", "status",
			"model_id", "retention_days", "expires_at", "updated_at",
		}),
	}).Create(item).Error
}

// GetByID retrieves an item by ID
func (r *reviewRepository) GetByID(id string) (*reviewdomain.ReviewItem, error) {
	var item reviewdomain.ReviewItem
	err := r.db.Where("id = ?", id).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByProviderID retrieves an item by its provider message ID
func (r *reviewRepository) GetByProviderID(accountID, providerMessageID string) (*reviewdomain.ReviewItem, error) {
	var item reviewdomain.ReviewItem
	err := r.db.Where("account_id = ? AND provider_message_id = ?", accountID, providerMessageID).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByAccount retrieves pending items for an account, newest first
func (r *reviewRepository) ListByAccount(accountID string, limit, offset int) ([]reviewdomain.ReviewItem, error) {
	var items []reviewdomain.ReviewItem
	q := r.db.Where("account_id = ?", accountID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CountByAccount returns the number of pending items for an account
func (r *reviewRepository) CountByAccount(accountID string) (int64, error) {
	var count int64
	err := r.db.Model(&reviewdomain.ReviewItem{}).Where("account_id = ?", accountID).Count(&count).Error
	return count, err
}

// MarkReviewed flags an item as manually reviewed
func (r *reviewRepository) MarkReviewed(id string) error {
	return r.db.Model(&reviewdomain.ReviewItem{}).Where("id = ?", id).
		Update("manually_reviewed", true).Error
}

// Delete removes an item
func (r *reviewRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&reviewdomain.ReviewItem{}).Error
}

// DeleteExpired removes expired, never-reviewed items
func (r *reviewRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at < ? AND manually_reviewed = ?", now, false).
		Delete(&reviewdomain.ReviewItem{})
	return result.RowsAffected, result.Error
}
