package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	jobdomain "jobtrail-backend/internal/job/domain"
	jobusecase "jobtrail-backend/internal/job/usecase"
	pipelinedomain "jobtrail-backend/internal/pipeline/domain"
	reviewdomain "jobtrail-backend/internal/review/domain"
	"jobtrail-backend/pkg/ai"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReviewRepo struct {
	mu    sync.Mutex
	items map[string]*reviewdomain.ReviewItem
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

// expire backdates an item so the sweep sees it as past retention
func (f *fakeReviewRepo) expire(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.ID == id {
			it.ExpiresAt = time.Now().Add(-time.Hour)
		}
	}
}

type fakePipelineRepo struct {
	mu      sync.Mutex
	records map[string]*pipelinedomain.PipelineRecord
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
	return nil, nil
}

func (f *fakePipelineRepo) ListNeedsAttention(accountID string) ([]pipelinedomain.PipelineRecord, error) {
	return nil, nil
}

func (f *fakePipelineRepo) ResetStage(accountID string, target pipelinedomain.Stage) (int64, error) {
	return 0, nil
}

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*jobdomain.JobRecord
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

func (f *fakeJobRepo) GetByID(id string) (*jobdomain.JobRecord, error) { return nil, nil }

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

func (f *fakeJobRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

type noMatch struct{}

func (noMatch) MatchJobs(ctx context.Context, a, b ai.JobExtraction) (bool, error) {
	return false, nil
}

func newFixture() (*ReviewUsecase, *fakeReviewRepo, *fakePipelineRepo, *fakeJobRepo) {
	reviewRepo := newFakeReviewRepo()
	pipelineRepo := newFakePipelineRepo()
	jobRepo := newFakeJobRepo()
	matcher := jobusecase.NewMatcherUsecase(jobRepo, noMatch{}, nil)
	return NewReviewUsecase(reviewRepo, pipelineRepo, matcher), reviewRepo, pipelineRepo, jobRepo
}

func sampleItem() *reviewdomain.ReviewItem {
	return &reviewdomain.ReviewItem{
		AccountID:         "acct1",
		ProviderMessageID: "m1",
		ThreadID:          "t1",
		Subject:           "Regarding your application",
		Sender:            "careers@acme.example",
		SentAt:            time.Now().AddDate(0, 0, -1),
		IsJobRelated:      true,
		Confidence:        0.55,
		Company:           "Acme Corp",
		Position:          "Backend Engineer",
		Status:            string(jobdomain.StatusApplied),
		ModelID:           "test/v1",
	}
}

func TestStoreSetsExpiry(t *testing.T) {
	u, repo, _, _ := newFixture()

	item := sampleItem()
	require.NoError(t, u.Store(item, 7))

	stored, err := repo.GetByProviderID("acct1", "m1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 7, stored.RetentionDays)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), stored.ExpiresAt, time.Minute)
}

func TestStoreRejectsNonPositiveRetention(t *testing.T) {
	u, _, _, _ := newFixture()
	assert.Error(t, u.Store(sampleItem(), 0))
}

func TestStoreReplacesExistingSnapshot(t *testing.T) {
	u, repo, _, _ := newFixture()

	first := sampleItem()
	require.NoError(t, u.Store(first, 7))

	second := sampleItem()
	second.Confidence = 0.45
	require.NoError(t, u.Store(second, 30))

	count, _ := repo.CountByAccount("acct1")
	assert.Equal(t, int64(1), count)

	stored, _ := repo.GetByProviderID("acct1", "m1")
	assert.Equal(t, 0.45, stored.Confidence)
	assert.Equal(t, 30, stored.RetentionDays)
}

func TestSweepDeletesExpiredUnconfirmed(t *testing.T) {
	u, repo, _, _ := newFixture()

	item := sampleItem()
	require.NoError(t, u.Store(item, 7))
	repo.expire(item.ID)

	deleted, err := u.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, _ := repo.CountByAccount("acct1")
	assert.Equal(t, int64(0), count)
}

func TestConfirmPreventsSweep(t *testing.T) {
	u, repo, _, jobRepo := newFixture()

	item := sampleItem()
	require.NoError(t, u.Store(item, 7))

	// Confirmed at T+3: the item resolves into a job record
	job, err := u.Confirm(context.Background(), item.ID, true)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "Acme Corp", job.Company)
	assert.Equal(t, jobdomain.StatusApplied, job.Status)
	assert.Equal(t, 1, jobRepo.count())

	// The later sweep finds nothing to delete and the job survives
	deleted, err := u.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
	assert.Equal(t, 1, jobRepo.count())

	count, _ := repo.CountByAccount("acct1")
	assert.Equal(t, int64(0), count)
}

func TestConfirmAdvancesPipelineRecord(t *testing.T) {
	u, _, pipelineRepo, _ := newFixture()

	_, err := pipelineRepo.GetOrCreate(&pipelinedomain.PipelineRecord{
		AccountID:         "acct1",
		ProviderMessageID: "m1",
		Stage:             pipelinedomain.StageExtractionComplete,
	})
	require.NoError(t, err)

	item := sampleItem()
	require.NoError(t, u.Store(item, 7))

	job, err := u.Confirm(context.Background(), item.ID, true)
	require.NoError(t, err)

	record, _ := pipelineRepo.GetByProviderID("acct1", "m1")
	require.NotNil(t, record)
	assert.Equal(t, pipelinedomain.StagePromotedToJobs, record.Stage)
	assert.Equal(t, job.ID, record.JobRecordID)
}

func TestRejectDeletesWithoutJob(t *testing.T) {
	u, repo, _, jobRepo := newFixture()

	item := sampleItem()
	require.NoError(t, u.Store(item, 7))

	job, err := u.Confirm(context.Background(), item.ID, false)
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.Equal(t, 0, jobRepo.count())

	count, _ := repo.CountByAccount("acct1")
	assert.Equal(t, int64(0), count)
}

func TestConfirmUnknownItem(t *testing.T) {
	u, _, _, _ := newFixture()
	_, err := u.Confirm(context.Background(), "missing", true)
	assert.Error(t, err)
}
