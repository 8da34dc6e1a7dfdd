package repository

import (
	"time"

	maildomain "jobtrail-backend/internal/mail/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository defines the interface for raw message persistence
type MessageRepository interface {
	// Save stores a fetched message. Re-saving the same (account, provider
	// message ID) pair is a no-op and returns the stored copy.
	Save(msg *maildomain.RawMessage) (*maildomain.RawMessage, error)
	// GetByID retrieves a message by internal ID
	GetByID(id string) (*maildomain.RawMessage, error)
	// GetByProviderID retrieves a message by its provider message ID
	GetByProviderID(accountID, providerMessageID string) (*maildomain.RawMessage, error)
	// GetByThread retrieves all messages of a thread, oldest first
	GetByThread(accountID, threadID string) ([]maildomain.RawMessage, error)
	// ListByAccount retrieves messages for an account, newest first
	ListByAccount(accountID string, limit, offset int) ([]maildomain.RawMessage, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new instance of messageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Save stores a fetched message idempotently
func (r *messageRepository) Save(msg *maildomain.RawMessage) (*maildomain.RawMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.FetchedAt.IsZero() {
		msg.FetchedAt = time.Now()
	}

	// DoNothing on the (account_id, provider_message_id) unique index keeps
	// the original row when the same message arrives again
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "provider_message_id"}},
		DoNothing: true,
	}).Create(msg).Error
	if err != nil {
		return nil, err
	}

	return r.GetByProviderID(msg.AccountID, msg.ProviderMessageID)
}

// GetByID retrieves a message by internal ID
func (r *messageRepository) GetByID(id string) (*maildomain.RawMessage, error) {
	var msg maildomain.RawMessage
	err := r.db.Where("id = ?", id).First(&msg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// GetByProviderID retrieves a message by its provider message ID
func (r *messageRepository) GetByProviderID(accountID, providerMessageID string) (*maildomain.RawMessage, error) {
	var msg maildomain.RawMessage
	err := r.db.Where("account_id = ? AND provider_message_id = ?", accountID, providerMessageID).First(&msg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// GetByThread retrieves all messages of a thread, oldest first
func (r *messageRepository) GetByThread(accountID, threadID string) ([]maildomain.RawMessage, error) {
	var msgs []maildomain.RawMessage
	err := r.db.Where("account_id = ? AND thread_id = ?", accountID, threadID).
		Order("sent_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// ListByAccount retrieves messages for an account, newest first
func (r *messageRepository) ListByAccount(accountID string, limit, offset int) ([]maildomain.RawMessage, error) {
	var msgs []maildomain.RawMessage
	q := r.db.Where("account_id = ?", accountID).Order("sent_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
