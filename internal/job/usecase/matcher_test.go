package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	jobdomain "jobtrail-backend/internal/job/domain"
	"jobtrail-backend/pkg/ai"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJobRepo is an in-memory JobRepository
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*jobdomain.JobRecord // by thread key
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
	sort.Slice(out, func(i, k int) bool {
		return out[i].FirstSeenDate.After(out[k].FirstSeenDate)
	})
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

func (f *fakeJobRepo) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, j := range f.jobs {
		if j.ID == id {
			delete(f.jobs, k)
		}
	}
	return nil
}

func (f *fakeJobRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

// fakeMatcher answers Stage 3 with a fixed verdict or error
type fakeMatcher struct {
	same bool
	err  error
}

func (f *fakeMatcher) MatchJobs(ctx context.Context, a, b ai.JobExtraction) (bool, error) {
	return f.same, f.err
}

func promoteInput(account, thread, msg string, date time.Time) PromoteInput {
	return PromoteInput{
		AccountID:   account,
		ThreadID:    thread,
		MessageID:   msg,
		MessageDate: date,
		Subject:     "Application update",
		Company:     "Acme Corp",
		Position:    "Backend Engineer",
		Status:      jobdomain.StatusApplied,
		Confidence:  0.8,
		ModelID:     "test-model",
	}
}

func TestPromoteCreatesNewRecord(t *testing.T) {
	repo := newFakeJobRepo()
	m := NewMatcherUsecase(repo, &fakeMatcher{same: false}, nil)

	job, created, err := m.Promote(context.Background(), promoteInput("acct1", "t1", "m1", time.Now()))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Acme Corp", job.Company)
	assert.Equal(t, jobdomain.StatusApplied, job.Status)
	assert.Len(t, job.EmailHistory, 1)
	assert.Equal(t, 1, repo.count())
}

func TestPromoteMergesNormalizedDuplicates(t *testing.T) {
	repo := newFakeJobRepo()
	m := NewMatcherUsecase(repo, &fakeMatcher{same: true}, nil)

	now := time.Now()
	first := promoteInput("acct1", "t1", "m1", now.AddDate(0, 0, -10))
	_, created, err := m.Promote(context.Background(), first)
	require.NoError(t, err)
	require.True(t, created)

	second := promoteInput("acct1", "t2", "m2", now)
	second.Company = "ACME CORP."
	second.Position = "backend engineer"
	job, created, err := m.Promote(context.Background(), second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, job.EmailHistory, 2)
	assert.Equal(t, 1, repo.count())
}

func TestPromoteEscalatesStatusMonotonically(t *testing.T) {
	repo := newFakeJobRepo()
	m := NewMatcherUsecase(repo, &fakeMatcher{same: true}, nil)

	now := time.Now()
	applied := promoteInput("acct1", "t1", "m1", now.AddDate(0, 0, -5))
	_, _, err := m.Promote(context.Background(), applied)
	require.NoError(t, err)

	offer := promoteInput("acct1", "t1", "m2", now.AddDate(0, 0, -2))
	offer.Status = jobdomain.StatusOffer
	job, _, err := m.Promote(context.Background(), offer)
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusOffer, job.Status)

	// A later "Applied" email never downgrades an Offer
	lateApplied := promoteInput("acct1", "t1", "m3", now)
	job, _, err = m.Promote(context.Background(), lateApplied)
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusOffer, job.Status)
	assert.Len(t, job.EmailHistory, 3)
}

func TestPromoteIdempotentOnSameMessage(t *testing.T) {
	repo := newFakeJobRepo()
	m := NewMatcherUsecase(repo, &fakeMatcher{same: true}, nil)

	in := promoteInput("acct1", "t1", "m1", time.Now())
	job1, _, err := m.Promote(context.Background(), in)
	require.NoError(t, err)

	job2, created, err := m.Promote(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, job1.ID, job2.ID)
	assert.Len(t, job2.EmailHistory, 1)
	assert.Equal(t, 1, repo.count())
}

func TestPromoteFallsBackToKeyEqualityOnStage3Failure(t *testing.T) {
	repo := newFakeJobRepo()
	m := NewMatcherUsecase(repo, &fakeMatcher{err: errors.New("model unavailable")}, nil)

	now := time.Now()
	_, _, err := m.Promote(context.Background(), promoteInput("acct1", "t1", "m1", now.AddDate(0, 0, -3)))
	require.NoError(t, err)

	// Same normalized key despite punctuation/case differences
	dup := promoteInput("acct1", "t2", "m2", now)
	dup.Company = "ACME CORP."
	dup.Position = "Backend Engineer"
	job, created, err := m.Promote(context.Background(), dup)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, job.EmailHistory, 2)

	// Different key: new record even though Stage 3 is down
	other := promoteInput("acct1", "t3", "m3", now)
	other.Company = "Globex"
	other.Position = "Data Scientist"
	_, created, err = m.Promote(context.Background(), other)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, repo.count())
}

func TestPromoteIgnoresRecordsOutsideWindow(t *testing.T) {
	repo := newFakeJobRepo()
	m := NewMatcherUsecase(repo, &fakeMatcher{same: true}, nil)

	now := time.Now()
	old := promoteInput("acct1", "t1", "m1", now.AddDate(0, 0, -45))
	_, _, err := m.Promote(context.Background(), old)
	require.NoError(t, err)

	// 45 days later the old record is outside the 30-day window
	fresh := promoteInput("acct1", "t2", "m2", now)
	_, created, err := m.Promote(context.Background(), fresh)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, repo.count())
}
