package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	jobdomain "jobtrail-backend/internal/job/domain"
	jobusecase "jobtrail-backend/internal/job/usecase"
	maildomain "jobtrail-backend/internal/mail/domain"
	pipelinedomain "jobtrail-backend/internal/pipeline/domain"
	reviewdomain "jobtrail-backend/internal/review/domain"
	reviewusecase "jobtrail-backend/internal/review/usecase"
	"jobtrail-backend/pkg/ai"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory fakes ---

type fakeMsgRepo struct {
	mu   sync.Mutex
	msgs map[string]*maildomain.RawMessage // account|pmid
}

func newFakeMsgRepo() *fakeMsgRepo {
	return &fakeMsgRepo{msgs: make(map[string]*maildomain.RawMessage)}
}

func (f *fakeMsgRepo) Save(msg *maildomain.RawMessage) (*maildomain.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := msg.AccountID + "|" + msg.ProviderMessageID
	if existing, ok := f.msgs[key]; ok {
		cp := *existing
		return &cp, nil
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	cp := *msg
	f.msgs[key] = &cp
	out := cp
	return &out, nil
}

func (f *fakeMsgRepo) GetByID(id string) (*maildomain.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMsgRepo) GetByProviderID(accountID, pmid string) (*maildomain.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.msgs[accountID+"|"+pmid]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeMsgRepo) GetByThread(accountID, threadID string) ([]maildomain.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []maildomain.RawMessage
	for _, m := range f.msgs {
		if m.AccountID == accountID && m.ThreadID == threadID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

func (f *fakeMsgRepo) ListByAccount(accountID string, limit, offset int) ([]maildomain.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []maildomain.RawMessage
	for _, m := range f.msgs {
		if m.AccountID == accountID {
			out = append(out, *m)
		}
	}
	return out, nil
}

type fakePipelineRepo struct {
	mu      sync.Mutex
	records map[string]*pipelinedomain.PipelineRecord // account|pmid
}

func newFakePipelineRepo() *fakePipelineRepo {
	return &fakePipelineRepo{records: make(map[string]*pipelinedomain.PipelineRecord)}
}

func (f *fakePipelineRepo) GetOrCreate(record *pipelinedomain.PipelineRecord) (*pipelinedomain.PipelineRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := record.AccountID + "|" + record.ProviderMessageID
	if existing, ok := f.records[key]; ok {
		cp := *existing
		return &cp, nil
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Stage == "" {
		record.Stage = pipelinedomain.StageFetched
	}
	cp := *record
	f.records[key] = &cp
	out := cp
	return &out, nil
}

func (f *fakePipelineRepo) GetByProviderID(accountID, pmid string) (*pipelinedomain.PipelineRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[accountID+"|"+pmid]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePipelineRepo) Update(record *pipelinedomain.PipelineRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *record
	f.records[record.AccountID+"|"+record.ProviderMessageID] = &cp
	return nil
}

func (f *fakePipelineRepo) ListByStage(accountID string, stage pipelinedomain.Stage) ([]pipelinedomain.PipelineRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pipelinedomain.PipelineRecord
	for _, r := range f.records {
		if r.AccountID == accountID && r.Stage == stage {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakePipelineRepo) ListNeedsAttention(accountID string) ([]pipelinedomain.PipelineRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pipelinedomain.PipelineRecord
	for _, r := range f.records {
		if r.NeedsAttention && (accountID == "" || r.AccountID == accountID) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakePipelineRepo) ResetStage(accountID string, target pipelinedomain.Stage) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.records {
		if accountID != "" && r.AccountID != accountID {
			continue
		}
		if r.Stage.Rank() > target.Rank() {
			r.Stage = target
			r.ExtractionAttempts = 0
			r.NeedsAttention = false
			r.LastError = ""
			n++
		}
	}
	return n, nil
}

type fakeRunRepo struct {
	mu   sync.Mutex
	runs []*pipelinedomain.SyncRun
}

func (f *fakeRunRepo) Create(run *pipelinedomain.SyncRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Status == "" {
		run.Status = pipelinedomain.SyncStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	cp := *run
	f.runs = append(f.runs, &cp)
	return nil
}

func (f *fakeRunRepo) Update(run *pipelinedomain.SyncRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.runs {
		if r.ID == run.ID {
			cp := *run
			f.runs[i] = &cp
		}
	}
	return nil
}

func (f *fakeRunRepo) GetByID(id string) (*pipelinedomain.SyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.runs {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRunRepo) ListByAccount(accountID string, limit int) ([]pipelinedomain.SyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pipelinedomain.SyncRun
	for _, r := range f.runs {
		if accountID == "" || r.AccountID == accountID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*jobdomain.JobRecord // thread key
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*jobdomain.JobRecord)}
}

func (f *fakeJobRepo) CreateIfAbsent(job *jobdomain.JobRecord) (*jobdomain.JobRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.jobs[job.ThreadKey]; ok {
		cp := *existing
		return &cp, false, nil
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	cp := *job
	f.jobs[job.ThreadKey] = &cp
	out := cp
	return &out, true, nil
}

func (f *fakeJobRepo) GetByID(id string) (*jobdomain.JobRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			cp := *j
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeJobRepo) GetByThreadKey(threadKey string) (*jobdomain.JobRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j, ok := f.jobs[threadKey]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeJobRepo) ListRecent(accountID string, since time.Time) ([]jobdomain.JobRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []jobdomain.JobRecord
	for _, j := range f.jobs {
		if j.AccountID == accountID && !j.FirstSeenDate.Before(since) {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].FirstSeenDate.After(out[k].FirstSeenDate) })
	return out, nil
}

func (f *fakeJobRepo) ListByAccount(accountID string, status jobdomain.Status, limit, offset int) ([]jobdomain.JobRecord, error) {
	return f.ListRecent(accountID, time.Time{})
}

func (f *fakeJobRepo) Update(job *jobdomain.JobRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.jobs[job.ThreadKey] = &cp
	return nil
}

func (f *fakeJobRepo) Delete(id string) error { return nil }

func (f *fakeJobRepo) all() []jobdomain.JobRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []jobdomain.JobRecord
	for _, j := range f.jobs {
		out = append(out, *j)
	}
	return out
}

type fakeReviewRepo struct {
	mu    sync.Mutex
	items map[string]*reviewdomain.ReviewItem // account|pmid
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{items: make(map[string]*reviewdomain.ReviewItem)}
}

func (f *fakeReviewRepo) Upsert(item *reviewdomain.ReviewItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := item.AccountID + "|" + item.ProviderMessageID
	if existing, ok := f.items[key]; ok {
		item.ID = existing.ID
	} else if item.ID == "" {
		item.ID = uuid.New().String()
	}
	cp := *item
	f.items[key] = &cp
	return nil
}

func (f *fakeReviewRepo) GetByID(id string) (*reviewdomain.ReviewItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.ID == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeReviewRepo) GetByProviderID(accountID, pmid string) (*reviewdomain.ReviewItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if it, ok := f.items[accountID+"|"+pmid]; ok {
		cp := *it
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeReviewRepo) ListByAccount(accountID string, limit, offset int) ([]reviewdomain.ReviewItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []reviewdomain.ReviewItem
	for _, it := range f.items {
		if it.AccountID == accountID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) CountByAccount(accountID string) (int64, error) {
	items, _ := f.ListByAccount(accountID, 0, 0)
	return int64(len(items)), nil
}

func (f *fakeReviewRepo) MarkReviewed(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.ID == id {
			it.ManuallyReviewed = true
		}
	}
	return nil
}

func (f *fakeReviewRepo) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, it := range f.items {
		if it.ID == id {
			delete(f.items, k)
		}
	}
	return nil
}

func (f *fakeReviewRepo) DeleteExpired(now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, it := range f.items {
		if now.After(it.ExpiresAt) && !it.ManuallyReviewed {
			delete(f.items, k)
			n++
		}
	}
	return n, nil
}

// keywordAI classifies deterministically from message content
type keywordAI struct {
	relevance    float64
	notRelated   bool
	extractErr   error
	emptyExtract bool
}

func (k *keywordAI) ClassifyRelevance(ctx context.Context, text string) (*ai.Classification, error) {
	return &ai.Classification{IsJobRelated: !k.notRelated, Confidence: k.relevance}, nil
}

func (k *keywordAI) ExtractJobFields(ctx context.Context, text string) (*ai.JobExtraction, error) {
	if k.extractErr != nil {
		return nil, k.extractErr
	}
	if k.emptyExtract {
		return &ai.JobExtraction{Company: "unknown", Position: "unknown"}, nil
	}

	lower := strings.ToLower(text)
	status := "application received"
	switch {
	case strings.Contains(lower, "unfortunately"):
		status = "not moving forward"
	case strings.Contains(lower, "interview"):
		status = "interview scheduled"
	}
	return &ai.JobExtraction{Company: "Acme Corp", Position: "Backend Engineer", Status: status}, nil
}

func (k *keywordAI) MatchJobs(ctx context.Context, a, b ai.JobExtraction) (bool, error) {
	return strings.EqualFold(a.Company, b.Company), nil
}

func (k *keywordAI) ModelID() string { return "keyword/v1" }

type fakeProvider struct {
	msgs []maildomain.RawMessage
}

func (f *fakeProvider) Fetch(ctx context.Context, opts maildomain.FetchOptions) ([]maildomain.RawMessage, error) {
	return f.msgs, nil
}

type staticAccounts struct{ accts []SyncAccount }

func (s *staticAccounts) ListActive() ([]SyncAccount, error) { return s.accts, nil }

// --- test harness ---

type syncFixture struct {
	sync         *SyncUsecase
	msgRepo      *fakeMsgRepo
	pipelineRepo *fakePipelineRepo
	runRepo      *fakeRunRepo
	jobRepo      *fakeJobRepo
	reviewRepo   *fakeReviewRepo
	review       *reviewusecase.ReviewUsecase
}

func newSyncFixture(model ai.ClassifierService, msgs []maildomain.RawMessage, maxAttempts int) *syncFixture {
	msgRepo := newFakeMsgRepo()
	pipelineRepo := newFakePipelineRepo()
	runRepo := &fakeRunRepo{}
	jobRepo := newFakeJobRepo()
	reviewRepo := newFakeReviewRepo()

	classifier := NewClassifierUsecase(model)
	matcher := jobusecase.NewMatcherUsecase(jobRepo, classifier, nil)
	review := reviewusecase.NewReviewUsecase(reviewRepo, pipelineRepo, matcher)

	provider := &fakeProvider{msgs: msgs}
	accounts := &staticAccounts{accts: []SyncAccount{{ID: "acct1", Email: "user@example.com"}}}

	s := NewSyncUsecase(
		msgRepo, pipelineRepo, runRepo,
		classifier, matcher, review,
		accounts,
		func(acct SyncAccount) (maildomain.Provider, error) { return provider, nil },
		nil, nil,
		maxAttempts, 30, 500,
	)

	return &syncFixture{
		sync:         s,
		msgRepo:      msgRepo,
		pipelineRepo: pipelineRepo,
		runRepo:      runRepo,
		jobRepo:      jobRepo,
		reviewRepo:   reviewRepo,
		review:       review,
	}
}

func threadMessages() []maildomain.RawMessage {
	day1 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return []maildomain.RawMessage{
		{
			ProviderMessageID: "m1", ThreadID: "t1", SentAt: day1,
			Subject: "Thanks for applying",
			Sender:  "careers@acme.example",
			Body:    "We received your application to Acme Corp for the Backend Engineer position.",
		},
		{
			ProviderMessageID: "m2", ThreadID: "t1", SentAt: day1.AddDate(0, 0, 4),
			Subject: "Interview invitation",
			Sender:  "careers@acme.example",
			Body:    "We would like to schedule an interview with you next week.",
		},
		{
			ProviderMessageID: "m3", ThreadID: "t1", SentAt: day1.AddDate(0, 0, 19),
			Subject: "Update on your application",
			Sender:  "careers@acme.example",
			Body:    "Unfortunately we are not moving forward with your application.",
		},
	}
}

func TestSyncEndToEndThreadProgression(t *testing.T) {
	fx := newSyncFixture(&keywordAI{relevance: 0.9}, threadMessages(), 3)

	run, err := fx.sync.RunAccountSync(context.Background(), SyncAccount{ID: "acct1"}, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, pipelinedomain.SyncStatusCompleted, run.Status)
	assert.Equal(t, 3, run.MessagesFetched)
	assert.Equal(t, 3, run.MessagesClassified)
	assert.Equal(t, 1, run.JobsFound)

	jobs := fx.jobRepo.all()
	require.Len(t, jobs, 1)
	assert.Equal(t, jobdomain.StatusDeclined, jobs[0].Status)
	assert.Len(t, jobs[0].EmailHistory, 3)
	assert.Equal(t, "Acme Corp", jobs[0].Company)

	for _, pmid := range []string{"m1", "m2", "m3"} {
		record, err := fx.pipelineRepo.GetByProviderID("acct1", pmid)
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, pipelinedomain.StagePromotedToJobs, record.Stage)
		assert.Equal(t, jobs[0].ID, record.JobRecordID)
	}
}

func TestSyncRerunIsNoOp(t *testing.T) {
	fx := newSyncFixture(&keywordAI{relevance: 0.9}, threadMessages(), 3)

	_, err := fx.sync.RunAccountSync(context.Background(), SyncAccount{ID: "acct1"}, SyncOptions{})
	require.NoError(t, err)

	run2, err := fx.sync.RunAccountSync(context.Background(), SyncAccount{ID: "acct1"}, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, run2.JobsFound, "already promoted records are not re-promoted")

	jobs := fx.jobRepo.all()
	require.Len(t, jobs, 1)
	assert.Len(t, jobs[0].EmailHistory, 3, "no duplicate history entries")
	assert.Equal(t, jobdomain.StatusDeclined, jobs[0].Status)
}

func TestSyncHighConfidenceNegativeIsDiscarded(t *testing.T) {
	msgs := []maildomain.RawMessage{{
		ProviderMessageID: "m1", ThreadID: "t1", SentAt: time.Now(),
		Subject: "Team dinner",
		Sender:  "friend@example.com",
		Body:    "Are you coming on Friday?",
	}}
	fx := newSyncFixture(&keywordAI{relevance: 0.95, notRelated: true}, msgs, 3)

	run, err := fx.sync.RunAccountSync(context.Background(), SyncAccount{ID: "acct1"}, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, run.JobsFound)
	assert.Equal(t, 0, run.ReviewQueued)
	assert.Empty(t, fx.jobRepo.all())

	record, _ := fx.pipelineRepo.GetByProviderID("acct1", "m1")
	require.NotNil(t, record)
	assert.Equal(t, pipelinedomain.StageMLClassified, record.Stage)
	require.NotNil(t, record.IsJobRelated)
	assert.False(t, *record.IsJobRelated)
}

func TestSyncUncertainExtractionGoesToReview(t *testing.T) {
	msgs := []maildomain.RawMessage{{
		ProviderMessageID: "m1", ThreadID: "t1", SentAt: time.Now(),
		Subject: "Quick update",
		Sender:  "someone@example.com",
		Body:    "Checking in about the process.",
	}}
	fx := newSyncFixture(&keywordAI{relevance: 0.9, emptyExtract: true}, msgs, 3)

	run, err := fx.sync.RunAccountSync(context.Background(), SyncAccount{ID: "acct1"}, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, run.ReviewQueued)
	assert.Empty(t, fx.jobRepo.all())

	items, err := fx.reviewRepo.ListByAccount("acct1", 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 14, items[0].RetentionDays)
	assert.True(t, items[0].IsJobRelated)
}

func TestSyncDigestIsSkipped(t *testing.T) {
	msgs := []maildomain.RawMessage{{
		ProviderMessageID: "m1", ThreadID: "t1", SentAt: time.Now(),
		Subject: "25 new jobs for you",
		Sender:  "jobalerts-noreply@linkedin.com",
		Body:    "Browse more jobs. Unsubscribe anytime.",
	}}
	fx := newSyncFixture(&keywordAI{relevance: 0.9}, msgs, 3)

	_, err := fx.sync.RunAccountSync(context.Background(), SyncAccount{ID: "acct1"}, SyncOptions{})
	require.NoError(t, err)
	assert.Empty(t, fx.jobRepo.all())

	record, _ := fx.pipelineRepo.GetByProviderID("acct1", "m1")
	require.NotNil(t, record)
	assert.Equal(t, pipelinedomain.StageDigestFiltered, record.Stage)
	require.NotNil(t, record.IsDigest)
	assert.True(t, *record.IsDigest)
	assert.Nil(t, record.IsJobRelated, "digests never reach the classifier")
}

func TestSyncCancellation(t *testing.T) {
	fx := newSyncFixture(&keywordAI{relevance: 0.9}, threadMessages(), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := fx.sync.RunAccountSync(ctx, SyncAccount{ID: "acct1"}, SyncOptions{})
	assert.Error(t, err)
	assert.Equal(t, pipelinedomain.SyncStatusCancelled, run.Status)
	assert.Equal(t, 0, run.MessagesClassified)
	assert.Empty(t, fx.jobRepo.all())
}

func TestSyncExtractionRetriesRouteToDeadState(t *testing.T) {
	msgs := []maildomain.RawMessage{{
		ProviderMessageID: "m1", ThreadID: "t1", SentAt: time.Now(),
		Subject: "Regarding your application",
		Sender:  "careers@acme.example",
		Body:    "zzz",
	}}
	fx := newSyncFixture(&keywordAI{relevance: 0.9, extractErr: errors.New("model down")}, msgs, 2)

	// First run burns attempt 1; second exhausts the budget and the
	// rule-based fallback finds nothing either
	_, err := fx.sync.RunAccountSync(context.Background(), SyncAccount{ID: "acct1"}, SyncOptions{})
	require.NoError(t, err)
	record, _ := fx.pipelineRepo.GetByProviderID("acct1", "m1")
	require.NotNil(t, record)
	assert.False(t, record.NeedsAttention)
	assert.Equal(t, 1, record.ExtractionAttempts)

	_, err = fx.sync.RunAccountSync(context.Background(), SyncAccount{ID: "acct1"}, SyncOptions{})
	require.NoError(t, err)
	record, _ = fx.pipelineRepo.GetByProviderID("acct1", "m1")
	assert.True(t, record.NeedsAttention)
	assert.NotEmpty(t, record.LastError)

	flagged, err := fx.pipelineRepo.ListNeedsAttention("acct1")
	require.NoError(t, err)
	assert.Len(t, flagged, 1)
}

func TestSyncResetStageForcesReprocessing(t *testing.T) {
	fx := newSyncFixture(&keywordAI{relevance: 0.9}, threadMessages(), 3)

	_, err := fx.sync.RunAccountSync(context.Background(), SyncAccount{ID: "acct1"}, SyncOptions{})
	require.NoError(t, err)

	n, err := fx.sync.ResetStage("acct1", pipelinedomain.StageMLClassified)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	run, err := fx.sync.RunAccountSync(context.Background(), SyncAccount{ID: "acct1"}, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, run.JobsFound, "reprocessing merges into the existing record")

	jobs := fx.jobRepo.all()
	require.Len(t, jobs, 1)
	assert.Len(t, jobs[0].EmailHistory, 3)
}

func TestStartSyncRequiresAccounts(t *testing.T) {
	fx := newSyncFixture(&keywordAI{relevance: 0.9}, nil, 3)
	fx.sync.accounts = &staticAccounts{}

	err := fx.sync.StartSync(SyncOptions{})
	assert.Error(t, err)
}
