package repository

import (
	"time"

	pipelinedomain "jobtrail-backend/internal/pipeline/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncRunRepository defines the interface for the sync audit log
type SyncRunRepository interface {
	// Create appends a new run in the running state
	Create(run *pipelinedomain.SyncRun) error
	// Update persists the run's counters and final status
	Update(run *pipelinedomain.SyncRun) error
	// GetByID retrieves a run by ID
	GetByID(id string) (*pipelinedomain.SyncRun, error)
	// ListByAccount retrieves recent runs for an account, newest first.
	// Empty accountID lists runs across all accounts.
	ListByAccount(accountID string, limit int) ([]pipelinedomain.SyncRun, error)
}

type syncRunRepository struct {
	db *gorm.DB
}

// NewSyncRunRepository creates a new instance of syncRunRepository
func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

// Create appends a new run in the running state
func (r *syncRunRepository) Create(run *pipelinedomain.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Status == "" {
		run.Status = pipelinedomain.SyncStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	return r.db.Create(run).Error
}

// Update persists the run's counters and final status
func (r *syncRunRepository) Update(run *pipelinedomain.SyncRun) error {
	return r.db.Save(run).Error
}

// GetByID retrieves a run by ID
func (r *syncRunRepository) GetByID(id string) (*pipelinedomain.SyncRun, error) {
	var run pipelinedomain.SyncRun
	err := r.db.Where("id = ?", id).First(&run).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// ListByAccount retrieves recent runs, newest first
func (r *syncRunRepository) ListByAccount(accountID string, limit int) ([]pipelinedomain.SyncRun, error) {
	var runs []pipelinedomain.SyncRun
	q := r.db.Order("started_at DESC")
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
