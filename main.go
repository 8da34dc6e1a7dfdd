package main

import (
	"context"
	"errors"
	"log"
	"strings"

	api "jobtrail-backend/cmd/api"
	accountdelivery "jobtrail-backend/internal/account/delivery"
	accountdomain "jobtrail-backend/internal/account/domain"
	accountrepo "jobtrail-backend/internal/account/repository"
	accountusecase "jobtrail-backend/internal/account/usecase"
	jobdelivery "jobtrail-backend/internal/job/delivery"
	jobdomain "jobtrail-backend/internal/job/domain"
	jobrepo "jobtrail-backend/internal/job/repository"
	jobusecase "jobtrail-backend/internal/job/usecase"
	maildomain "jobtrail-backend/internal/mail/domain"
	mailrepo "jobtrail-backend/internal/mail/repository"
	"jobtrail-backend/internal/notification"
	pipelinedelivery "jobtrail-backend/internal/pipeline/delivery"
	pipelinedomain "jobtrail-backend/internal/pipeline/domain"
	pipelinerepo "jobtrail-backend/internal/pipeline/repository"
	pipelineusecase "jobtrail-backend/internal/pipeline/usecase"
	reviewdelivery "jobtrail-backend/internal/review/delivery"
	reviewdomain "jobtrail-backend/internal/review/domain"
	reviewrepo "jobtrail-backend/internal/review/repository"
	reviewscheduler "jobtrail-backend/internal/review/scheduler"
	reviewusecase "jobtrail-backend/internal/review/usecase"
	"jobtrail-backend/pkg/ai"
	"jobtrail-backend/pkg/chroma"
	"jobtrail-backend/pkg/config"
	"jobtrail-backend/pkg/database"
	"jobtrail-backend/pkg/fcm"
	"jobtrail-backend/pkg/gmail"
	"jobtrail-backend/pkg/sse"
)

var errAccountGone = errors.New("account no longer exists")

// syncAccountSource feeds the pipeline the accounts eligible for syncing
type syncAccountSource struct {
	accounts *accountusecase.AccountUsecase
}

func (s *syncAccountSource) ListActive() ([]pipelineusecase.SyncAccount, error) {
	list, err := s.accounts.ListActive()
	if err != nil {
		return nil, err
	}
	out := make([]pipelineusecase.SyncAccount, 0, len(list))
	for _, a := range list {
		out = append(out, pipelineusecase.SyncAccount{ID: a.ID, Email: a.Email})
	}
	return out, nil
}

// pipelineNotifier records sync completion on the account and forwards
// pipeline events to the notification service once it exists
type pipelineNotifier struct {
	accounts *accountusecase.AccountUsecase
	delegate pipelineusecase.Notifier
}

func (n *pipelineNotifier) JobCreated(accountID string, job *jobdomain.JobRecord) {
	if n.delegate != nil {
		n.delegate.JobCreated(accountID, job)
	}
}

func (n *pipelineNotifier) SyncFinished(accountID string, run *pipelinedomain.SyncRun) {
	n.accounts.MarkSynced(accountID)
	if n.delegate != nil {
		n.delegate.SyncFinished(accountID, run)
	}
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&accountdomain.User{},
		&accountdomain.RefreshToken{},
		&accountdomain.FCMToken{},
		&accountdomain.MailAccount{},
		&maildomain.RawMessage{},
		&pipelinedomain.PipelineRecord{},
		&pipelinedomain.SyncRun{},
		&jobdomain.JobRecord{},
		&reviewdomain.ReviewItem{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := accountrepo.NewUserRepository(db)
	fcmTokenRepo := accountrepo.NewFCMTokenRepository(db)
	mailAccountRepo := accountrepo.NewMailAccountRepository(db)
	messageRepo := mailrepo.NewMessageRepository(db)
	pipelineRepo := pipelinerepo.NewPipelineRepository(db)
	runRepo := pipelinerepo.NewSyncRunRepository(db)
	jobRepo := jobrepo.NewJobRepository(db)
	reviewRepo := reviewrepo.NewReviewRepository(db)

	// Initialize SSE Manager
	sseManager := sse.NewManager()
	go sseManager.Run()

	// Gmail OAuth app credentials shared by all connected accounts
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)

	// Account and auth usecases
	accountUsecase := accountusecase.NewAccountUsecase(mailAccountRepo, gmailService, cfg)
	authUsecase := accountusecase.NewAuthUsecase(userRepo, cfg)

	// Initialize AI classifier with runtime-configurable Ollama settings
	api.InitRuntimeConfig(cfg.OllamaBaseURL, cfg.OllamaModel)
	aiService, err := ai.NewClassifierServiceWithDynamicConfig(ai.DynamicConfig{
		Provider:       ai.ProviderType(cfg.AIProvider),
		GeminiApiKey:   cfg.GeminiApiKey,
		GetOllamaURL:   api.GetRuntimeOllamaBaseURL,
		GetOllamaModel: api.GetRuntimeOllamaModel,
	})
	if err != nil {
		log.Fatal("Failed to initialize AI classifier:", err)
	}
	classifier := pipelineusecase.NewClassifierUsecase(aiService)

	// Vector store for semantic job search (optional)
	var jobIndexer jobusecase.JobIndexer
	var jobSearcher jobdelivery.SemanticSearcher
	if cfg.ChromaAPIKey != "" {
		chromaClient, err := chroma.NewChromaClient(cfg)
		if err != nil {
			log.Printf("[WARN] Failed to initialize Chroma client (semantic search disabled): %v", err)
		} else {
			jobIndexer = chromaClient
			jobSearcher = chromaClient
		}
	} else {
		log.Println("[WARN] CHROMA_API_KEY not set, semantic search disabled")
	}

	matcher := jobusecase.NewMatcherUsecase(jobRepo, classifier, jobIndexer)
	review := reviewusecase.NewReviewUsecase(reviewRepo, pipelineRepo, matcher)

	// The notification service needs the sync usecase and the sync usecase
	// needs a notifier, so the notifier delegate is attached after both exist
	notifier := &pipelineNotifier{accounts: accountUsecase}

	providerFor := func(acct pipelineusecase.SyncAccount) (maildomain.Provider, error) {
		account, err := mailAccountRepo.GetByID(acct.ID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, errAccountGone
		}
		return accountUsecase.ProviderFor(account)
	}

	syncUsecase := pipelineusecase.NewSyncUsecase(
		messageRepo,
		pipelineRepo,
		runRepo,
		classifier,
		matcher,
		review,
		&syncAccountSource{accounts: accountUsecase},
		providerFor,
		sseManager,
		notifier,
		cfg.ExtractionMaxRetries,
		cfg.SyncDaysDefault,
		cfg.SyncMaxMessages,
	)

	// Review queue expiry sweeper
	sweeper := reviewscheduler.NewExpirySweeper(review, cfg.ReviewSweepInterval)
	sweeper.Start()

	// Gmail push notifications via Pub/Sub (optional)
	if cfg.GoogleProjectID != "" {
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}
		if topicName == "" {
			topicName = "gmail-updates"
		}

		var fcmClient *fcm.Client
		if cfg.FirebaseCredentials != "" {
			fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
			if err != nil {
				log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
			}
		}

		notifService, err := notification.NewService(cfg.GoogleProjectID, topicName, cfg.GoogleCredentials, sseManager, mailAccountRepo, fcmTokenRepo, fcmClient, syncUsecase)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
		} else {
			notifier.delegate = notifService
			go notifService.Start(context.Background())
			go accountUsecase.WatchAll(context.Background())
		}
	} else {
		log.Println("[WARN] GOOGLE_PROJECT_ID not configured, Gmail push notifications disabled")
	}

	// HTTP layer
	authHandler := accountdelivery.NewAuthHandler(authUsecase, accountUsecase, fcmTokenRepo)
	syncHandler := pipelinedelivery.NewSyncHandler(syncUsecase, accountUsecase, pipelineRepo)
	jobHandler := jobdelivery.NewJobHandler(jobRepo, accountUsecase, jobSearcher)
	reviewHandler := reviewdelivery.NewReviewHandler(review, accountUsecase)

	server := api.NewServer(authUsecase, authHandler, syncHandler, jobHandler, reviewHandler, sseManager)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := server.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
