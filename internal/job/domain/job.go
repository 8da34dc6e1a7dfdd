package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the four-value job application state
type Status string

const (
	StatusApplied     Status = "Applied"
	StatusInterviewed Status = "Interviewed"
	StatusDeclined    Status = "Declined"
	StatusOffer       Status = "Offer"
)

// statusPriority fixes the escalation order. Offer outranks Declined;
// records never move back down the ladder.
var statusPriority = map[Status]int{
	StatusApplied:     1,
	StatusInterviewed: 2,
	StatusDeclined:    3,
	StatusOffer:       4,
}

// Priority returns the escalation rank of the status, 0 for unknown
func (s Status) Priority() int {
	return statusPriority[s]
}

// Valid reports whether s is one of the four known statuses
func (s Status) Valid() bool {
	_, ok := statusPriority[s]
	return ok
}

// Outranks reports whether s is strictly higher than other in the
// escalation order
func (s Status) Outranks(other Status) bool {
	return s.Priority() > other.Priority()
}

// EmailHistoryEntry records one email that contributed to a job record
type EmailHistoryEntry struct {
	MessageID string    `json:"message_id"`
	Date      time.Time `json:"date"`
	Subject   string    `json:"subject"`
}

// EmailHistory is the ordered list of contributing emails, stored as JSONB
type EmailHistory []EmailHistoryEntry

// Value implements driver.Valuer for GORM
func (h EmailHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for GORM
func (h *EmailHistory) Scan(value interface{}) error {
	if value == nil {
		*h = EmailHistory{}
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type for EmailHistory: %T", value)
	}
	return json.Unmarshal(b, h)
}

// Contains reports whether the history already has an entry for messageID
func (h EmailHistory) Contains(messageID string) bool {
	for _, e := range h {
		if e.MessageID == messageID {
			return true
		}
	}
	return false
}

// JobRecord is the deduplicated timeline of one employer/position
// relationship. Identity is logical: many emails and pipeline records can
// feed a single JobRecord, and all mutation goes through the matcher.
type JobRecord struct {
	ID        string `json:"id" gorm:"primaryKey"`
	AccountID string `json:"account_id" gorm:"index;not null"`
	Company   string `json:"company" gorm:"index"`
	Position  string `json:"position"`
	Status    Status `json:"status" gorm:"index"`

	// Coarse dedup key: normalize(company)+"_"+normalize(position)
	SimilarityKey string `json:"similarity_key" gorm:"index"`
	// Idempotent-create key for thread-scoped promotion: account + thread.
	// Unique so a retried sync cannot create two records for one thread.
	ThreadKey string `json:"thread_key" gorm:"uniqueIndex"`

	FirstSeenDate       time.Time    `json:"first_seen_date" gorm:"index"`
	EmailHistory        EmailHistory `json:"email_history" gorm:"type:jsonb"`
	Confidence          float64      `json:"confidence"`
	ClassificationModel string       `json:"classification_model"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (JobRecord) TableName() string {
	return "job_records"
}
