package domain

import "time"

// ReviewItem holds a classification too uncertain to auto-store. It keeps
// a snapshot of the classification so a human can decide without
// re-running the pipeline. Expiry is fixed at creation and never extended.
type ReviewItem struct {
	ID                string `json:"id" gorm:"primaryKey"`
	AccountID         string `json:"account_id" gorm:"index:idx_review_account_msg,unique;not null"`
	ProviderMessageID string `json:"provider_message_id" gorm:"index:idx_review_account_msg,unique;not null"`
	MessageID         string `json:"message_id"`
	ThreadID          string `json:"thread_id"`

	// Message snapshot for display
	Subject string    `json:"subject"`
	Sender  string    `json:"sender"`
	SentAt  time.Time `json:"sent_at"`

	// Classification snapshot
	IsJobRelated bool    `json:"is_job_related"`
	Confidence   float64 `json:"confidence"`
	Company      string  `json:"company"`
	Position     string  `json:"position"`
	Status       string  `json:"status"`
	ModelID      string  `json:"model_id"`

	RetentionDays    int       `json:"retention_days"`
	ExpiresAt        time.Time `json:"expires_at" gorm:"index"`
	ManuallyReviewed bool      `json:"manually_reviewed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ReviewItem) TableName() string {
	return "review_items"
}

// Expired reports whether the item has passed its retention window
func (r *ReviewItem) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
