package repository

import (
	pipelinedomain "jobtrail-backend/internal/pipeline/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PipelineRepository defines the interface for pipeline record persistence
type PipelineRepository interface {
	// GetOrCreate returns the tracking record for a message, creating it at
	// the given initial stage if none exists yet
	GetOrCreate(record *pipelinedomain.PipelineRecord) (*pipelinedomain.PipelineRecord, error)
	// GetByProviderID retrieves a record by its provider message ID
	GetByProviderID(accountID, providerMessageID string) (*pipelinedomain.PipelineRecord, error)
	// Update persists changed fields of a record
	Update(record *pipelinedomain.PipelineRecord) error
	// ListByStage retrieves records at a stage for an account, oldest first
	ListByStage(accountID string, stage pipelinedomain.Stage) ([]pipelinedomain.PipelineRecord, error)
	// ListNeedsAttention retrieves records flagged for manual inspection
	ListNeedsAttention(accountID string) ([]pipelinedomain.PipelineRecord, error)
	// ResetStage rolls records that have advanced past the target stage back
	// to it, clearing retry bookkeeping. Empty accountID means all accounts.
	ResetStage(accountID string, target pipelinedomain.Stage) (int64, error)
}

type pipelineRepository struct {
	db *gorm.DB
}

// NewPipelineRepository creates a new instance of pipelineRepository
func NewPipelineRepository(db *gorm.DB) PipelineRepository {
	return &pipelineRepository{db: db}
}

// GetOrCreate returns the tracking record for a message, creating it if missing
func (r *pipelineRepository) GetOrCreate(record *pipelinedomain.PipelineRecord) (*pipelinedomain.PipelineRecord, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Stage == "" {
		record.Stage = pipelinedomain.StageFetched
	}

	// Conflicting create keeps the existing row so a retried sync resumes
	// from the stage already reached
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "provider_message_id"}},
		DoNothing: true,
	}).Create(record).Error
	if err != nil {
		return nil, err
	}

	return r.GetByProviderID(record.AccountID, record.ProviderMessageID)
}

// GetByProviderID retrieves a record by its provider message ID
func (r *pipelineRepository) GetByProviderID(accountID, providerMessageID string) (*pipelinedomain.PipelineRecord, error) {
	var record pipelinedomain.PipelineRecord
	err := r.db.Where("account_id = ? AND provider_message_id = ?", accountID, providerMessageID).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Update persists changed fields of a record
func (r *pipelineRepository) Update(record *pipelinedomain.PipelineRecord) error {
	return r.db.Save(record).Error
}

// ListByStage retrieves records at a stage for an account, oldest first
func (r *pipelineRepository) ListByStage(accountID string, stage pipelinedomain.Stage) ([]pipelinedomain.PipelineRecord, error) {
	var records []pipelinedomain.PipelineRecord
	err := r.db.Where("account_id = ? AND stage = ?", accountID, stage).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListNeedsAttention retrieves records flagged for manual inspection
func (r *pipelineRepository) ListNeedsAttention(accountID string) ([]pipelinedomain.PipelineRecord, error) {
	var records []pipelinedomain.PipelineRecord
	q := r.db.Where("needs_attention = ?", true)
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	err := q.Order("updated_at DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ResetStage rolls records past the target stage back to it
func (r *pipelineRepository) ResetStage(accountID string, target pipelinedomain.Stage) (int64, error) {
	laterStages := stagesAfter(target)
	if len(laterStages) == 0 {
		return 0, nil
	}

	q := r.db.Model(&pipelinedomain.PipelineRecord{}).Where("stage IN ?", laterStages)
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}

	result := q.Updates(map[string]interface{}{
		"stage":               target,
		"extraction_attempts": 0,
		"needs_attention":     false,
		"last_error":          "",
	})
	return result.RowsAffected, result.Error
}

func stagesAfter(target pipelinedomain.Stage) []pipelinedomain.Stage {
	all := []pipelinedomain.Stage{
		pipelinedomain.StageFetched,
		pipelinedomain.StageDigestFiltered,
		pipelinedomain.StageMLClassified,
		pipelinedomain.StageExtractionPending,
		pipelinedomain.StageExtractionComplete,
		pipelinedomain.StagePromotedToJobs,
	}

	var later []pipelinedomain.Stage
	for _, s := range all {
		if s.Rank() > target.Rank() {
			later = append(later, s)
		}
	}
	return later
}
