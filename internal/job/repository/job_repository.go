package repository

import (
	"time"

	jobdomain "jobtrail-backend/internal/job/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRepository defines the interface for job record persistence
type JobRepository interface {
	// CreateIfAbsent inserts the record unless one already exists for its
	// thread key. Returns the stored record and whether it was created.
	CreateIfAbsent(job *jobdomain.JobRecord) (*jobdomain.JobRecord, bool, error)
	// GetByID retrieves a record by ID
	GetByID(id string) (*jobdomain.JobRecord, error)
	// GetByThreadKey retrieves a record by its thread key
	GetByThreadKey(threadKey string) (*jobdomain.JobRecord, error)
	// ListRecent retrieves an account's records first seen since the cutoff,
	// most recent first. This bounds the matcher's candidate set.
	ListRecent(accountID string, since time.Time) ([]jobdomain.JobRecord, error)
	// ListByAccount retrieves records for an account, newest first, with an
	// optional status filter
	ListByAccount(accountID string, status jobdomain.Status, limit, offset int) ([]jobdomain.JobRecord, error)
	// Update persists changed fields of a record
	Update(job *jobdomain.JobRecord) error
	// Delete removes a record
	Delete(id string) error
}

type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new instance of jobRepository
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

// CreateIfAbsent inserts the record unless its thread key is already taken
func (r *jobRepository) CreateIfAbsent(job *jobdomain.JobRecord) (*jobdomain.JobRecord, bool, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.EmailHistory == nil {
		job.EmailHistory = jobdomain.EmailHistory{}
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "thread_key"}},
		DoNothing: true,
	}).Create(job)
	if result.Error != nil {
		return nil, false, result.Error
	}

	stored, err := r.GetByThreadKey(job.ThreadKey)
	if err != nil {
		return nil, false, err
	}
	return stored, result.RowsAffected > 0, nil
}

// GetByID retrieves a record by ID
func (r *jobRepository) GetByID(id string) (*jobdomain.JobRecord, error) {
	var job jobdomain.JobRecord
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// GetByThreadKey retrieves a record by its thread key
func (r *jobRepository) GetByThreadKey(threadKey string) (*jobdomain.JobRecord, error) {
	var job jobdomain.JobRecord
	err := r.db.Where("thread_key = ?", threadKey).First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// ListRecent retrieves an account's records first seen since the cutoff
func (r *jobRepository) ListRecent(accountID string, since time.Time) ([]jobdomain.JobRecord, error) {
	var jobs []jobdomain.JobRecord
	err := r.db.Where("account_id = ? AND first_seen_date >= ?", accountID, since).
		Order("first_seen_date DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListByAccount retrieves records for an account, newest first
func (r *jobRepository) ListByAccount(accountID string, status jobdomain.Status, limit, offset int) ([]jobdomain.JobRecord, error) {
	var jobs []jobdomain.JobRecord
	q := r.db.Where("account_id = ?", accountID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Order("first_seen_date DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// Update persists changed fields of a record
func (r *jobRepository) Update(job *jobdomain.JobRecord) error {
	return r.db.Save(job).Error
}

// Delete removes a record
func (r *jobRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&jobdomain.JobRecord{}).Error
}
