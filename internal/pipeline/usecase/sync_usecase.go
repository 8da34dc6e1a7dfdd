package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	jobdomain "jobtrail-backend/internal/job/domain"
	jobusecase "jobtrail-backend/internal/job/usecase"
	maildomain "jobtrail-backend/internal/mail/domain"
	mailrepository "jobtrail-backend/internal/mail/repository"
	pipelinedomain "jobtrail-backend/internal/pipeline/domain"
	pipelinerepository "jobtrail-backend/internal/pipeline/repository"
	reviewdomain "jobtrail-backend/internal/review/domain"
	reviewusecase "jobtrail-backend/internal/review/usecase"
	"jobtrail-backend/pkg/ai"
	"jobtrail-backend/pkg/sse"
)

// SyncOptions controls one sync invocation
type SyncOptions struct {
	AccountIDs  []string `json:"account_ids"`
	DaysToSync  int      `json:"days_to_sync"`
	MaxMessages int      `json:"max_messages"`
}

// SyncAccount is the slice of account state the pipeline needs
type SyncAccount struct {
	ID    string
	Email string
}

// AccountSource lists the accounts eligible for syncing
type AccountSource interface {
	ListActive() ([]SyncAccount, error)
}

// ProviderFactory builds a mailbox provider bound to one account's
// credentials
type ProviderFactory func(acct SyncAccount) (maildomain.Provider, error)

// Notifier receives push-worthy pipeline events. Optional.
type Notifier interface {
	JobCreated(accountID string, job *jobdomain.JobRecord)
	SyncFinished(accountID string, run *pipelinedomain.SyncRun)
}

// SyncUsecase drives the fetch/filter/classify/extract/promote pipeline.
// Accounts run in parallel; messages within an account run serially,
// oldest first, so a later email can escalate a status set by an earlier
// one instead of racing it.
type SyncUsecase struct {
	msgRepo      mailrepository.MessageRepository
	pipelineRepo pipelinerepository.PipelineRepository
	runRepo      pipelinerepository.SyncRunRepository
	classifier   *ClassifierUsecase
	matcher      *jobusecase.MatcherUsecase
	review       *reviewusecase.ReviewUsecase
	accounts     AccountSource
	providerFor  ProviderFactory
	sseManager   *sse.Manager
	notifier     Notifier

	maxAttempts int
	defaultDays int
	defaultMax  int

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// NewSyncUsecase creates a new sync usecase
func NewSyncUsecase(
	msgRepo mailrepository.MessageRepository,
	pipelineRepo pipelinerepository.PipelineRepository,
	runRepo pipelinerepository.SyncRunRepository,
	classifier *ClassifierUsecase,
	matcher *jobusecase.MatcherUsecase,
	review *reviewusecase.ReviewUsecase,
	accounts AccountSource,
	providerFor ProviderFactory,
	sseManager *sse.Manager,
	notifier Notifier,
	maxAttempts, defaultDays, defaultMax int,
) *SyncUsecase {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if defaultDays <= 0 {
		defaultDays = 30
	}
	if defaultMax <= 0 {
		defaultMax = 500
	}
	return &SyncUsecase{
		msgRepo:      msgRepo,
		pipelineRepo: pipelineRepo,
		runRepo:      runRepo,
		classifier:   classifier,
		matcher:      matcher,
		review:       review,
		accounts:     accounts,
		providerFor:  providerFor,
		sseManager:   sseManager,
		notifier:     notifier,
		maxAttempts:  maxAttempts,
		defaultDays:  defaultDays,
		defaultMax:   defaultMax,
		active:       make(map[string]context.CancelFunc),
	}
}

// StartSync launches background syncs for the selected accounts (all
// active accounts when none are named). Accounts already mid-sync are
// skipped. Returns a run-level error when no account is eligible.
func (u *SyncUsecase) StartSync(opts SyncOptions) error {
	accts, err := u.selectAccounts(opts)
	if err != nil {
		return err
	}
	if len(accts) == 0 {
		return fmt.Errorf("no accounts connected")
	}

	for _, acct := range accts {
		acct := acct

		u.mu.Lock()
		if _, running := u.active[acct.ID]; running {
			u.mu.Unlock()
			log.Printf("[Sync] Account %s already syncing, skipped", acct.ID)
			continue
		}
		ctx, cancel := context.WithCancel(context.Background())
		u.active[acct.ID] = cancel
		u.mu.Unlock()

		go func() {
			defer func() {
				u.mu.Lock()
				delete(u.active, acct.ID)
				u.mu.Unlock()
				cancel()
			}()
			if _, err := u.RunAccountSync(ctx, acct, opts); err != nil {
				log.Printf("[Sync] Account %s sync failed: %v", acct.ID, err)
			}
		}()
	}
	return nil
}

// CancelSync cancels the running sync for one account, or every running
// sync when accountID is empty. Cancellation is cooperative: the pipeline
// checks between messages and between accounts, so partially-processed
// messages stay resumable.
func (u *SyncUsecase) CancelSync(accountID string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if accountID != "" {
		if cancel, ok := u.active[accountID]; ok {
			cancel()
		}
		return
	}
	for _, cancel := range u.active {
		cancel()
	}
}

// Syncing reports whether an account has a sync in flight
func (u *SyncUsecase) Syncing(accountID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.active[accountID]
	return ok
}

// ListRuns exposes the sync audit log
func (u *SyncUsecase) ListRuns(accountID string, limit int) ([]pipelinedomain.SyncRun, error) {
	return u.runRepo.ListByAccount(accountID, limit)
}

// ResetStage rolls pipeline records back to an earlier stage to force
// reprocessing, without refetching from the provider
func (u *SyncUsecase) ResetStage(accountID string, stage pipelinedomain.Stage) (int64, error) {
	if !stage.Valid() {
		return 0, fmt.Errorf("unknown pipeline stage: %s", stage)
	}
	return u.pipelineRepo.ResetStage(accountID, stage)
}

func (u *SyncUsecase) selectAccounts(opts SyncOptions) ([]SyncAccount, error) {
	accts, err := u.accounts.ListActive()
	if err != nil {
		return nil, err
	}
	if len(opts.AccountIDs) == 0 {
		return accts, nil
	}

	wanted := make(map[string]bool, len(opts.AccountIDs))
	for _, id := range opts.AccountIDs {
		wanted[id] = true
	}
	var selected []SyncAccount
	for _, a := range accts {
		if wanted[a.ID] {
			selected = append(selected, a)
		}
	}
	return selected, nil
}

// RunAccountSync performs one synchronous sync pass for a single account
// and records it in the audit log
func (u *SyncUsecase) RunAccountSync(ctx context.Context, acct SyncAccount, opts SyncOptions) (*pipelinedomain.SyncRun, error) {
	run := &pipelinedomain.SyncRun{AccountID: acct.ID}
	if err := u.runRepo.Create(run); err != nil {
		return nil, err
	}

	err := u.syncAccount(ctx, acct, opts, run)

	now := time.Now()
	run.CompletedAt = &now
	switch {
	case err == nil:
		run.Status = pipelinedomain.SyncStatusCompleted
	case ctx.Err() != nil:
		run.Status = pipelinedomain.SyncStatusCancelled
	default:
		run.Status = pipelinedomain.SyncStatusFailed
		run.Error = err.Error()
	}
	if uerr := u.runRepo.Update(run); uerr != nil {
		log.Printf("[Sync] Failed to finalize run %s: %v", run.ID, uerr)
	}

	u.progress(acct.ID, "done", map[string]interface{}{
		"run_id":              run.ID,
		"status":              run.Status,
		"messages_fetched":    run.MessagesFetched,
		"messages_classified": run.MessagesClassified,
		"jobs_found":          run.JobsFound,
		"review_queued":       run.ReviewQueued,
		"duration_ms":         run.Duration().Milliseconds(),
	})
	if u.notifier != nil {
		u.notifier.SyncFinished(acct.ID, run)
	}
	return run, err
}

func (u *SyncUsecase) syncAccount(ctx context.Context, acct SyncAccount, opts SyncOptions, run *pipelinedomain.SyncRun) error {
	provider, err := u.providerFor(acct)
	if err != nil {
		return fmt.Errorf("no provider for account %s: %w", acct.ID, err)
	}

	days := opts.DaysToSync
	if days <= 0 {
		days = u.defaultDays
	}
	maxMessages := opts.MaxMessages
	if maxMessages <= 0 {
		maxMessages = u.defaultMax
	}

	u.progress(acct.ID, "fetching", map[string]interface{}{"days": days})

	fetched, err := provider.Fetch(ctx, maildomain.FetchOptions{
		Since:       time.Now().AddDate(0, 0, -days),
		MaxMessages: maxMessages,
	})
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	run.MessagesFetched = len(fetched)
	log.Printf("[Sync] Account %s: fetched %d messages", acct.ID, len(fetched))

	// Persist everything first so classification failures never lose mail
	var saved []maildomain.RawMessage
	for i := range fetched {
		msg := fetched[i]
		msg.AccountID = acct.ID
		stored, err := u.msgRepo.Save(&msg)
		if err != nil {
			return fmt.Errorf("save message %s: %w", msg.ProviderMessageID, err)
		}
		saved = append(saved, *stored)
	}

	threads := GroupThreads(saved)
	processed := 0

	for _, thread := range threads {
		for i := range thread.Messages {
			if err := ctx.Err(); err != nil {
				return err
			}

			msg := &thread.Messages[i]
			u.progress(acct.ID, "classifying", map[string]interface{}{
				"message_id": msg.ProviderMessageID,
				"subject":    msg.Subject,
				"processed":  processed,
				"total":      len(saved),
			})

			if err := u.processMessage(ctx, acct.ID, msg, run); err != nil {
				// Component-local failures are absorbed into progress; the
				// record keeps its stage and a later run retries
				log.Printf("[Sync] Message %s: %v", msg.ProviderMessageID, err)
			}
			processed++
		}
	}
	run.MessagesClassified = processed
	return nil
}

// processMessage advances one message through the pipeline from whatever
// stage it last reached. Every transition is persisted before the next
// stage runs so an interrupted run resumes exactly where it stopped.
func (u *SyncUsecase) processMessage(ctx context.Context, accountID string, msg *maildomain.RawMessage, run *pipelinedomain.SyncRun) error {
	record, err := u.pipelineRepo.GetOrCreate(&pipelinedomain.PipelineRecord{
		AccountID:         accountID,
		ProviderMessageID: msg.ProviderMessageID,
		MessageID:         msg.ID,
		ThreadID:          msg.ThreadID,
		Stage:             pipelinedomain.StageFetched,
	})
	if err != nil {
		return err
	}
	if record.NeedsAttention {
		return nil
	}

	if record.Stage == pipelinedomain.StageFetched {
		if err := u.runDigestFilter(record, msg); err != nil {
			return err
		}
	}

	if record.Stage == pipelinedomain.StageDigestFiltered {
		if record.IsDigest != nil && *record.IsDigest {
			return nil
		}
		if err := u.runRelevance(ctx, record, msg, run); err != nil {
			return err
		}
	}

	if record.Stage == pipelinedomain.StageMLClassified {
		// Positive relevance moves on to extraction; negatives were already
		// routed by the confidence policy
		if record.IsJobRelated == nil || !*record.IsJobRelated {
			return nil
		}
		record.Stage = pipelinedomain.StageExtractionPending
		if err := u.pipelineRepo.Update(record); err != nil {
			return err
		}
	}

	if record.Stage == pipelinedomain.StageExtractionPending {
		if err := u.runExtraction(ctx, record, msg); err != nil {
			return err
		}
	}

	if record.Stage == pipelinedomain.StageExtractionComplete {
		if err := u.runPromotion(ctx, record, msg, run); err != nil {
			return err
		}
	}

	return nil
}

func (u *SyncUsecase) runDigestFilter(record *pipelinedomain.PipelineRecord, msg *maildomain.RawMessage) error {
	verdict := ClassifyDigest(msg.Subject, msg.Sender, msg.Body)
	isDigest := verdict.IsDigest
	record.IsDigest = &isDigest
	record.DigestReason = verdict.Reason
	record.Stage = pipelinedomain.StageDigestFiltered
	return u.pipelineRepo.Update(record)
}

func (u *SyncUsecase) runRelevance(ctx context.Context, record *pipelinedomain.PipelineRecord, msg *maildomain.RawMessage, run *pipelinedomain.SyncRun) error {
	text := MessageText(msg)

	var result *ai.Classification
	if strings.TrimSpace(msg.Subject) == "" && strings.TrimSpace(msg.Body) == "" && strings.TrimSpace(msg.Snippet) == "" {
		// Unparseable content: low-confidence negative instead of a failure
		result = &ai.Classification{IsJobRelated: false, Confidence: 0.3}
	} else {
		var err error
		result, err = u.classifier.ClassifyRelevance(ctx, text)
		if err != nil {
			record.ExtractionAttempts++
			record.LastError = err.Error()
			if record.ExtractionAttempts >= u.maxAttempts {
				return u.recordFailure(record, fmt.Errorf("relevance retries exhausted: %w", err))
			}
			if uerr := u.pipelineRepo.Update(record); uerr != nil {
				return uerr
			}
			return fmt.Errorf("relevance attempt %d: %w", record.ExtractionAttempts, err)
		}
	}

	record.IsJobRelated = &result.IsJobRelated
	record.Confidence = &result.Confidence
	record.ModelID = u.classifier.ModelID()
	record.Stage = pipelinedomain.StageMLClassified
	record.ExtractionAttempts = 0
	record.LastError = ""
	if err := u.pipelineRepo.Update(record); err != nil {
		return err
	}

	// Negatives are routed immediately; positives continue to extraction
	if !result.IsJobRelated {
		policy := DecideConfidence(result.Confidence, false)
		if policy.Decision == DecisionStoreForReview {
			return u.queueReview(record, msg, policy.RetentionDays, run)
		}
	}
	return nil
}

func (u *SyncUsecase) runExtraction(ctx context.Context, record *pipelinedomain.PipelineRecord, msg *maildomain.RawMessage) error {
	text := MessageText(msg)

	extraction, err := u.classifier.Extract(ctx, text)
	if err != nil {
		record.ExtractionAttempts++
		if record.ExtractionAttempts < u.maxAttempts {
			record.LastError = err.Error()
			if uerr := u.pipelineRepo.Update(record); uerr != nil {
				return uerr
			}
			return fmt.Errorf("extraction attempt %d: %w", record.ExtractionAttempts, err)
		}

		// Budget exhausted: the ranked fallback extractor gets one shot
		// before the record is parked for manual attention
		extraction, err = u.classifier.ExtractFallback(ctx, text)
		if err != nil || (extraction.Company == UnknownField && extraction.Position == UnknownField) {
			return u.recordFailure(record, fmt.Errorf("extraction retries exhausted: %s", record.LastError))
		}
	}

	record.Company = extraction.Company
	record.Position = extraction.Position
	record.Status = string(extraction.Status)
	record.Confidence = &extraction.Confidence
	record.ModelID = extraction.ModelID
	record.Stage = pipelinedomain.StageExtractionComplete
	record.LastError = ""
	return u.pipelineRepo.Update(record)
}

func (u *SyncUsecase) runPromotion(ctx context.Context, record *pipelinedomain.PipelineRecord, msg *maildomain.RawMessage, run *pipelinedomain.SyncRun) error {
	confidence := 0.0
	if record.Confidence != nil {
		confidence = *record.Confidence
	}

	policy := DecideConfidence(confidence, true)
	switch policy.Decision {
	case DecisionStoreAsJob:
		u.progress(record.AccountID, "saving", map[string]interface{}{
			"message_id": record.ProviderMessageID,
			"company":    record.Company,
			"position":   record.Position,
		})

		job, created, err := u.matcher.Promote(ctx, jobusecase.PromoteInput{
			AccountID:   record.AccountID,
			ThreadID:    record.ThreadID,
			MessageID:   record.ProviderMessageID,
			MessageDate: msg.SentAt,
			Subject:     msg.Subject,
			Company:     record.Company,
			Position:    record.Position,
			Status:      jobdomain.Status(record.Status),
			Confidence:  confidence,
			ModelID:     record.ModelID,
		})
		if err != nil {
			return u.recordFailure(record, fmt.Errorf("promotion: %w", err))
		}

		record.JobRecordID = job.ID
		record.Stage = pipelinedomain.StagePromotedToJobs
		if err := u.pipelineRepo.Update(record); err != nil {
			return err
		}

		if created {
			run.JobsFound++
			if u.notifier != nil {
				u.notifier.JobCreated(record.AccountID, job)
			}
		}
		return nil

	case DecisionStoreForReview:
		return u.queueReview(record, msg, policy.RetentionDays, run)

	default:
		// A positive extraction is never discarded by policy; nothing to do
		return nil
	}
}

func (u *SyncUsecase) queueReview(record *pipelinedomain.PipelineRecord, msg *maildomain.RawMessage, retentionDays int, run *pipelinedomain.SyncRun) error {
	u.progress(record.AccountID, "review", map[string]interface{}{
		"message_id": record.ProviderMessageID,
		"subject":    msg.Subject,
	})

	isJobRelated := record.IsJobRelated != nil && *record.IsJobRelated
	confidence := 0.0
	if record.Confidence != nil {
		confidence = *record.Confidence
	}

	err := u.review.Store(&reviewdomain.ReviewItem{
		AccountID:         record.AccountID,
		ProviderMessageID: record.ProviderMessageID,
		MessageID:         msg.ID,
		ThreadID:          record.ThreadID,
		Subject:           msg.Subject,
		Sender:            msg.Sender,
		SentAt:            msg.SentAt,
		IsJobRelated:      isJobRelated,
		Confidence:        confidence,
		Company:           record.Company,
		Position:          record.Position,
		Status:            record.Status,
		ModelID:           record.ModelID,
	}, retentionDays)
	if err != nil {
		return err
	}
	run.ReviewQueued++
	return nil
}

// recordFailure parks a record in the needs-attention dead state so it is
// surfaced instead of silently dropped
func (u *SyncUsecase) recordFailure(record *pipelinedomain.PipelineRecord, cause error) error {
	record.NeedsAttention = true
	record.LastError = cause.Error()
	if err := u.pipelineRepo.Update(record); err != nil {
		return err
	}
	log.Printf("[Sync] Record %s needs attention: %v", record.ID, cause)
	return cause
}

func (u *SyncUsecase) progress(accountID, stage string, payload map[string]interface{}) {
	if u.sseManager == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["account_id"] = accountID
	payload["stage"] = stage
	u.sseManager.SendToAccount(accountID, "sync_progress", payload)
}
