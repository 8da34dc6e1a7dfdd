package domain

import "time"

// Stage is the persisted checkpoint for how far a message has progressed
// through the classification pipeline
type Stage string

const (
	StageFetched            Stage = "fetched"
	StageDigestFiltered     Stage = "digest_filtered"
	StageMLClassified       Stage = "ml_classified"
	StageExtractionPending  Stage = "extraction_pending"
	StageExtractionComplete Stage = "extraction_complete"
	StagePromotedToJobs     Stage = "promoted_to_jobs"
)

// stageRank orders the pipeline stages. Records advance forward only; the
// single exception is an explicit reset, which is a separate operation.
var stageRank = map[Stage]int{
	StageFetched:            0,
	StageDigestFiltered:     1,
	StageMLClassified:       2,
	StageExtractionPending:  3,
	StageExtractionComplete: 4,
	StagePromotedToJobs:     5,
}

// Rank returns the position of the stage in the pipeline order, or -1 for
// an unknown stage
func (s Stage) Rank() int {
	if r, ok := stageRank[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is a known pipeline stage
func (s Stage) Valid() bool {
	_, ok := stageRank[s]
	return ok
}

// CanAdvance reports whether a record at stage s may move to stage next
func (s Stage) CanAdvance(next Stage) bool {
	sr, nr := s.Rank(), next.Rank()
	return sr >= 0 && nr >= 0 && nr > sr
}

// PipelineRecord tracks the classification state of one RawMessage. It is
// the exclusive owner of that message's classification results; the raw
// message itself is never mutated.
type PipelineRecord struct {
	ID                string `json:"id" gorm:"primaryKey"`
	AccountID         string `json:"account_id" gorm:"index:idx_pipeline_account_msg,unique;not null"`
	ProviderMessageID string `json:"provider_message_id" gorm:"index:idx_pipeline_account_msg,unique;not null"`
	MessageID         string `json:"message_id" gorm:"index;not null"`
	ThreadID          string `json:"thread_id" gorm:"index"`
	Stage             Stage  `json:"stage" gorm:"index;not null"`

	// Digest filter result, nullable until the filter has run
	IsDigest     *bool  `json:"is_digest"`
	DigestReason string `json:"digest_reason"`

	// Classification results, nullable until computed
	IsJobRelated *bool    `json:"is_job_related"`
	Confidence   *float64 `json:"confidence"`
	Company      string   `json:"company"`
	Position     string   `json:"position"`
	Status       string   `json:"status"`

	ExtractionAttempts int    `json:"extraction_attempts"`
	ModelID            string `json:"model_id"`

	// Set when the record merges into or creates a JobRecord
	JobRecordID string `json:"job_record_id" gorm:"index"`

	// Dead-state flag: retries exhausted, waiting for manual inspection
	NeedsAttention bool   `json:"needs_attention" gorm:"index"`
	LastError      string `json:"last_error" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PipelineRecord) TableName() string {
	return "pipeline_records"
}

// SyncRun is one row of the append-only sync audit log
type SyncRun struct {
	ID                 string     `json:"id" gorm:"primaryKey"`
	AccountID          string     `json:"account_id" gorm:"index"`
	Status             string     `json:"status" gorm:"index"` // running, completed, cancelled, failed
	MessagesFetched    int        `json:"messages_fetched"`
	MessagesClassified int        `json:"messages_classified"`
	JobsFound          int        `json:"jobs_found"`
	ReviewQueued       int        `json:"review_queued"`
	Error              string     `json:"error" gorm:"type:text"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at"`
}

// TableName specifies the table name for GORM
func (SyncRun) TableName() string {
	return "sync_runs"
}

const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusCancelled = "cancelled"
	SyncStatusFailed    = "failed"
)

// Duration returns the elapsed time of a finished run, or time since start
// for a running one
func (s *SyncRun) Duration() time.Duration {
	if s.CompletedAt != nil {
		return s.CompletedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}
