package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	accountrepo "jobtrail-backend/internal/account/repository"
	jobdomain "jobtrail-backend/internal/job/domain"
	pipelinedomain "jobtrail-backend/internal/pipeline/domain"
	pipelineusecase "jobtrail-backend/internal/pipeline/usecase"
	"jobtrail-backend/pkg/fcm"
	"jobtrail-backend/pkg/sse"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// GmailNotification is the Pub/Sub payload Gmail pushes on mailbox changes
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Service bridges external events to users: Gmail push notifications
// trigger incremental syncs, and pipeline events fan out over SSE and FCM.
type Service struct {
	pubsubClient *pubsub.Client
	sseManager   *sse.Manager
	accountRepo  accountrepo.MailAccountRepository
	fcmRepo      accountrepo.FCMTokenRepository
	fcmClient    *fcm.Client
	sync         *pipelineusecase.SyncUsecase
	topicName    string
	subName      string

	// Gmail redelivers notifications; track the last historyId per account
	mu            sync.Mutex
	lastHistoryID map[string]uint64
}

func NewService(projectID, topicName, credentialsFile string, sseManager *sse.Manager, accountRepo accountrepo.MailAccountRepository, fcmRepo accountrepo.FCMTokenRepository, fcmClient *fcm.Client, syncUsecase *pipelineusecase.SyncUsecase) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient:  client,
		sseManager:    sseManager,
		accountRepo:   accountRepo,
		fcmRepo:       fcmRepo,
		fcmClient:     fcmClient,
		sync:          syncUsecase,
		topicName:     topicName,
		subName:       topicName + "-sub", // Convention: topic-sub
		lastHistoryID: make(map[string]uint64),
	}, nil
}

// Start subscribes to the Gmail push topic and blocks receiving messages
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification GmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return
	}

	log.Printf("[PubSub] Mailbox change for %s (historyId: %d)", notification.EmailAddress, notification.HistoryID)

	accounts, err := s.accountRepo.ListByEmail(notification.EmailAddress)
	if err != nil {
		log.Printf("[PubSub] Error finding accounts for %s: %v", notification.EmailAddress, err)
		return
	}
	if len(accounts) == 0 {
		log.Printf("[PubSub] No connected account for %s", notification.EmailAddress)
		return
	}

	for _, account := range accounts {
		if s.seenHistoryID(account.ID, notification.HistoryID) {
			continue
		}

		s.sseManager.SendToAccount(account.ID, "mailbox_update", map[string]interface{}{
			"account_id": account.ID,
			"email":      notification.EmailAddress,
			"historyId":  notification.HistoryID,
			"timestamp":  time.Now(),
		})

		// A push means new mail; run an incremental sync for the account.
		// StartSync ignores the request if a sync is already running.
		if s.sync != nil {
			opts := pipelineusecase.SyncOptions{
				AccountIDs: []string{account.ID},
				DaysToSync: 1,
			}
			if err := s.sync.StartSync(opts); err != nil {
				log.Printf("[PubSub] Failed to start sync for account %s: %v", account.ID, err)
			}
		}
	}
}

func (s *Service) seenHistoryID(accountID string, historyID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastHistoryID[accountID]; ok && historyID <= last {
		return true
	}
	s.lastHistoryID[accountID] = historyID
	return false
}

// JobCreated pushes a notification when the pipeline promotes a new job
// record. Implements the pipeline's notifier boundary.
func (s *Service) JobCreated(accountID string, job *jobdomain.JobRecord) {
	s.sseManager.SendToAccount(accountID, "job_created", map[string]interface{}{
		"account_id": accountID,
		"job":        job,
	})

	if s.fcmClient == nil || s.fcmRepo == nil {
		return
	}

	go func() {
		account, err := s.accountRepo.GetByID(accountID)
		if err != nil || account == nil {
			log.Printf("[FCM] Cannot resolve account %s for job notification", accountID)
			return
		}

		tokens, err := s.fcmRepo.GetTokensByUserID(account.UserID)
		if err != nil {
			log.Printf("[FCM] Error getting tokens for user %s: %v", account.UserID, err)
			return
		}
		if len(tokens) == 0 {
			return
		}

		var tokenStrings []string
		for _, t := range tokens {
			tokenStrings = append(tokenStrings, t.Token)
		}

		title := "New application tracked"
		body := fmt.Sprintf("%s at %s", job.Position, job.Company)

		failedTokens, err := s.fcmClient.SendToDevices(context.Background(), tokenStrings, fcm.NotificationData{
			Title: title,
			Body:  body,
			Data: map[string]string{
				"type":         "job_created",
				"job_id":       job.ID,
				"account_id":   accountID,
				"click_action": fmt.Sprintf("/jobs/%s", job.ID),
			},
		})
		if err != nil {
			log.Printf("[FCM] Error sending job notification: %v", err)
			return
		}
		for _, token := range failedTokens {
			s.fcmRepo.DeleteToken(token)
		}
	}()
}

// SyncFinished announces the end of an account sync over SSE
func (s *Service) SyncFinished(accountID string, run *pipelinedomain.SyncRun) {
	s.sseManager.SendToAccount(accountID, "sync_complete", map[string]interface{}{
		"account_id":          accountID,
		"run_id":              run.ID,
		"status":              run.Status,
		"messages_fetched":    run.MessagesFetched,
		"messages_classified": run.MessagesClassified,
		"jobs_found":          run.JobsFound,
		"review_queued":       run.ReviewQueued,
		"duration_seconds":    run.Duration().Seconds(),
	})
}
