package domain

import "time"

const (
	ProviderGmail = "gmail"
	ProviderIMAP  = "imap"
)

// MailAccount is a connected mailbox the sync pipeline reads from. A user
// can connect several. Gmail accounts carry OAuth tokens; IMAP accounts
// carry an encrypted password.
type MailAccount struct {
	ID       string `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"index:idx_user_mailbox,unique;not null"`
	Email    string `json:"email" gorm:"index:idx_user_mailbox,unique;not null"`
	Provider string `json:"provider"` // "gmail" or "imap"

	// Gmail OAuth tokens
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`

	// IMAP connection details; password is AES-GCM encrypted at rest
	IMAPHost     string `json:"imap_host,omitempty"`
	IMAPPort     int    `json:"imap_port,omitempty"`
	IMAPUsername string `json:"-"`
	IMAPPassword string `json:"-"`

	Active       bool       `json:"active"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (MailAccount) TableName() string {
	return "mail_accounts"
}
