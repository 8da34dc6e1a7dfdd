package repository

import (
	"errors"
	"time"

	accountdomain "jobtrail-backend/internal/account/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MailAccountRepository defines the interface for connected mailbox persistence
type MailAccountRepository interface {
	Create(account *accountdomain.MailAccount) error
	GetByID(id string) (*accountdomain.MailAccount, error)
	GetByUserAndEmail(userID, email string) (*accountdomain.MailAccount, error)
	ListByEmail(email string) ([]accountdomain.MailAccount, error)
	ListByUser(userID string) ([]accountdomain.MailAccount, error)
	ListActive() ([]accountdomain.MailAccount, error)
	Update(account *accountdomain.MailAccount) error
	UpdateTokens(id, accessToken, refreshToken string) error
	MarkSynced(id string, at time.Time) error
	Delete(id string) error
}

type mailAccountRepository struct {
	db *gorm.DB
}

func NewMailAccountRepository(db *gorm.DB) MailAccountRepository {
	return &mailAccountRepository{
		db: db,
	}
}

func (r *mailAccountRepository) Create(account *accountdomain.MailAccount) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()
	return r.db.Create(account).Error
}

func (r *mailAccountRepository) GetByID(id string) (*accountdomain.MailAccount, error) {
	var account accountdomain.MailAccount
	err := r.db.Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *mailAccountRepository) GetByUserAndEmail(userID, email string) (*accountdomain.MailAccount, error) {
	var account accountdomain.MailAccount
	err := r.db.Where("user_id = ? AND email = ?", userID, email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// ListByEmail returns every connected copy of a mailbox address. Two
// users can connect the same inbox; push notifications fan out to both.
func (r *mailAccountRepository) ListByEmail(email string) ([]accountdomain.MailAccount, error) {
	var accounts []accountdomain.MailAccount
	err := r.db.Where("email = ? AND active = ?", email, true).Find(&accounts).Error
	return accounts, err
}

func (r *mailAccountRepository) ListByUser(userID string) ([]accountdomain.MailAccount, error) {
	var accounts []accountdomain.MailAccount
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

func (r *mailAccountRepository) ListActive() ([]accountdomain.MailAccount, error) {
	var accounts []accountdomain.MailAccount
	err := r.db.Where("active = ?", true).Find(&accounts).Error
	return accounts, err
}

func (r *mailAccountRepository) Update(account *accountdomain.MailAccount) error {
	account.UpdatedAt = time.Now()
	return r.db.Save(account).Error
}

func (r *mailAccountRepository) UpdateTokens(id, accessToken, refreshToken string) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"updated_at":   time.Now(),
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return r.db.Model(&accountdomain.MailAccount{}).Where("id = ?", id).Updates(updates).Error
}

func (r *mailAccountRepository) MarkSynced(id string, at time.Time) error {
	return r.db.Model(&accountdomain.MailAccount{}).Where("id = ?", id).
		Updates(map[string]interface{}{"last_synced_at": at, "updated_at": time.Now()}).Error
}

func (r *mailAccountRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&accountdomain.MailAccount{}).Error
}
