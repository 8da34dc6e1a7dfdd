package domain

import (
	"context"
	"time"
)

// RawMessage is an immutable copy of a fetched email. Classification results
// never live here; they belong to the pipeline record keyed by the same
// provider message ID.
type RawMessage struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	AccountID         string    `json:"account_id" gorm:"index:idx_account_provider_msg,unique;not null"`
	ProviderMessageID string    `json:"provider_message_id" gorm:"index:idx_account_provider_msg,unique;not null"`
	ThreadID          string    `json:"thread_id" gorm:"index"`
	Subject           string    `json:"subject"`
	Sender            string    `json:"sender"`
	Recipient         string    `json:"recipient"`
	Snippet           string    `json:"snippet" gorm:"type:text"`
	Body              string    `json:"body" gorm:"type:text"`
	SentAt            time.Time `json:"sent_at" gorm:"index"`
	FetchedAt         time.Time `json:"fetched_at"`
	CreatedAt         time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (RawMessage) TableName() string {
	return "raw_messages"
}

// FetchOptions controls a provider fetch window
type FetchOptions struct {
	Since       time.Time
	MaxMessages int
}

// Provider fetches messages from a mailbox. Implementations exist for
// Gmail (REST API) and generic IMAP; each instance is bound to one
// account's credentials at construction time.
type Provider interface {
	Fetch(ctx context.Context, opts FetchOptions) ([]RawMessage, error)
}
