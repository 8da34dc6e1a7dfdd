package usecase

import (
	"testing"
	"time"

	maildomain "jobtrail-backend/internal/mail/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msgAt(id, thread string, sent time.Time) maildomain.RawMessage {
	return maildomain.RawMessage{
		ID:                id,
		ProviderMessageID: id,
		ThreadID:          thread,
		Subject:           "Subject " + id,
		SentAt:            sent,
	}
}

func TestGroupThreads(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	msgs := []maildomain.RawMessage{
		msgAt("m3", "t1", base.AddDate(0, 0, 19)),
		msgAt("m1", "t1", base),
		msgAt("m4", "t2", base.AddDate(0, 0, 2)),
		msgAt("m2", "t1", base.AddDate(0, 0, 4)),
	}

	threads := GroupThreads(msgs)
	require.Len(t, threads, 2)

	// Threads ordered by earliest message, messages oldest first
	assert.Equal(t, "t1", threads[0].ThreadID)
	assert.Equal(t, []string{"m1", "m2", "m3"}, messageIDs(threads[0]))
	assert.Equal(t, "t2", threads[1].ThreadID)
}

func TestGroupThreadsWithoutThreadID(t *testing.T) {
	base := time.Now()
	msgs := []maildomain.RawMessage{
		msgAt("m1", "", base),
		msgAt("m2", "", base.Add(time.Hour)),
	}

	threads := GroupThreads(msgs)
	assert.Len(t, threads, 2, "messages without a thread ID stay separate")
}

func TestThreadTextIsBounded(t *testing.T) {
	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'a'
	}

	thread := Thread{
		ThreadID: "t1",
		Messages: []maildomain.RawMessage{
			{Subject: "Hello", Sender: "a@example.com", Body: string(long)},
		},
	}

	text := ThreadText(thread)
	assert.LessOrEqual(t, len(text), threadTextLimit)
	assert.Contains(t, text, "Subject: Hello")
}

func TestMessageTextFallsBackToSnippet(t *testing.T) {
	m := msgAt("m1", "t1", time.Now())
	m.Snippet = "short preview"

	text := MessageText(&m)
	assert.Contains(t, text, "short preview")
}

func messageIDs(t Thread) []string {
	var ids []string
	for _, m := range t.Messages {
		ids = append(ids, m.ID)
	}
	return ids
}
