package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	accountdomain "jobtrail-backend/internal/account/domain"
	accountdto "jobtrail-backend/internal/account/dto"
	"jobtrail-backend/internal/account/repository"
	maildomain "jobtrail-backend/internal/mail/domain"
	"jobtrail-backend/pkg/config"
	"jobtrail-backend/pkg/crypto"
	"jobtrail-backend/pkg/gmail"
	"jobtrail-backend/pkg/imap"

	"golang.org/x/oauth2"
)

// AccountUsecase manages connected mailboxes and builds the providers the
// sync pipeline reads them with
type AccountUsecase struct {
	accountRepo repository.MailAccountRepository
	gmailSvc    *gmail.Service
	config      *config.Config
}

func NewAccountUsecase(accountRepo repository.MailAccountRepository, gmailSvc *gmail.Service, cfg *config.Config) *AccountUsecase {
	return &AccountUsecase{
		accountRepo: accountRepo,
		gmailSvc:    gmailSvc,
		config:      cfg,
	}
}

// ConnectGmail exchanges the OAuth authorization code and stores the
// mailbox. Reconnecting an already-connected mailbox refreshes its tokens.
func (u *AccountUsecase) ConnectGmail(ctx context.Context, userID, code string) (*accountdomain.MailAccount, error) {
	token, err := u.gmailSvc.ExchangeCode(ctx, code, u.config.GoogleRedirectURL)
	if err != nil {
		return nil, err
	}

	provider := u.gmailSvc.ProviderFor(token.AccessToken, token.RefreshToken, nil)
	email, err := provider.Profile(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := u.accountRepo.GetByUserAndEmail(userID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			existing.RefreshToken = token.RefreshToken
		}
		existing.Active = true
		if err := u.accountRepo.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	account := &accountdomain.MailAccount{
		UserID:       userID,
		Email:        email,
		Provider:     accountdomain.ProviderGmail,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Active:       true,
	}
	if err := u.accountRepo.Create(account); err != nil {
		return nil, err
	}

	log.Printf("[Account] Connected Gmail mailbox %s for user %s", email, userID)
	return account, nil
}

// ConnectIMAP verifies the credentials against the server and stores the
// mailbox with the password encrypted
func (u *AccountUsecase) ConnectIMAP(ctx context.Context, userID string, req *accountdto.ConnectIMAPRequest) (*accountdomain.MailAccount, error) {
	if u.config.EncryptionKey == "" {
		return nil, errors.New("ENCRYPTION_KEY must be configured to connect IMAP accounts")
	}

	port := req.Port
	if port <= 0 {
		port = 993
	}

	probe := imap.NewProvider(req.Host, port, req.Username, req.Password)
	if err := probe.Verify(ctx); err != nil {
		return nil, fmt.Errorf("IMAP verification failed: %w", err)
	}

	encrypted, err := crypto.Encrypt(req.Password, u.config.EncryptionKey)
	if err != nil {
		return nil, err
	}

	existing, err := u.accountRepo.GetByUserAndEmail(userID, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.IMAPHost = req.Host
		existing.IMAPPort = port
		existing.IMAPUsername = req.Username
		existing.IMAPPassword = encrypted
		existing.Active = true
		if err := u.accountRepo.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	account := &accountdomain.MailAccount{
		UserID:       userID,
		Email:        req.Email,
		Provider:     accountdomain.ProviderIMAP,
		IMAPHost:     req.Host,
		IMAPPort:     port,
		IMAPUsername: req.Username,
		IMAPPassword: encrypted,
		Active:       true,
	}
	if err := u.accountRepo.Create(account); err != nil {
		return nil, err
	}

	log.Printf("[Account] Connected IMAP mailbox %s for user %s", req.Email, userID)
	return account, nil
}

func (u *AccountUsecase) List(userID string) ([]accountdomain.MailAccount, error) {
	return u.accountRepo.ListByUser(userID)
}

func (u *AccountUsecase) ListActive() ([]accountdomain.MailAccount, error) {
	return u.accountRepo.ListActive()
}

func (u *AccountUsecase) GetOwned(userID, accountID string) (*accountdomain.MailAccount, error) {
	account, err := u.accountRepo.GetByID(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.UserID != userID {
		return nil, nil
	}
	return account, nil
}

// Disconnect removes the mailbox. Gmail push notifications are stopped
// best effort first.
func (u *AccountUsecase) Disconnect(ctx context.Context, userID, accountID string) error {
	account, err := u.GetOwned(userID, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return errors.New("account not found")
	}

	if account.Provider == accountdomain.ProviderGmail {
		provider := u.gmailProviderFor(account)
		if err := provider.StopWatch(ctx); err != nil {
			log.Printf("[Account] Failed to stop watch for %s: %v", account.Email, err)
		}
	}

	return u.accountRepo.Delete(accountID)
}

func (u *AccountUsecase) MarkSynced(accountID string) {
	if err := u.accountRepo.MarkSynced(accountID, time.Now()); err != nil {
		log.Printf("[Account] Failed to record sync time for %s: %v", accountID, err)
	}
}

// ProviderFor builds the mailbox provider matching the account type
func (u *AccountUsecase) ProviderFor(account *accountdomain.MailAccount) (maildomain.Provider, error) {
	switch account.Provider {
	case accountdomain.ProviderGmail:
		return u.gmailProviderFor(account), nil
	case accountdomain.ProviderIMAP:
		password, err := crypto.Decrypt(account.IMAPPassword, u.config.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("unable to decrypt IMAP password: %w", err)
		}
		return imap.NewProvider(account.IMAPHost, account.IMAPPort, account.IMAPUsername, password), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", account.Provider)
	}
}

// WatchAll registers Gmail push notifications for every active Gmail
// mailbox. Called on startup when a Pub/Sub topic is configured.
func (u *AccountUsecase) WatchAll(ctx context.Context) {
	if u.config.GoogleProjectID == "" || u.config.GooglePubSubTopic == "" {
		return
	}
	topic := fmt.Sprintf("projects/%s/topics/%s", u.config.GoogleProjectID, u.config.GooglePubSubTopic)

	accounts, err := u.accountRepo.ListActive()
	if err != nil {
		log.Printf("[Account] Failed to list accounts for watch setup: %v", err)
		return
	}
	for i := range accounts {
		account := &accounts[i]
		if account.Provider != accountdomain.ProviderGmail {
			continue
		}
		provider := u.gmailProviderFor(account)
		if err := provider.Watch(ctx, topic); err != nil {
			log.Printf("[Account] Failed to watch %s: %v", account.Email, err)
		}
	}
}

func (u *AccountUsecase) gmailProviderFor(account *accountdomain.MailAccount) *gmail.Provider {
	accountID := account.ID
	return u.gmailSvc.ProviderFor(account.AccessToken, account.RefreshToken, func(token *oauth2.Token) error {
		return u.accountRepo.UpdateTokens(accountID, token.AccessToken, token.RefreshToken)
	})
}
