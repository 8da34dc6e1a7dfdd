package usecase

import (
	"sort"
	"strings"

	maildomain "jobtrail-backend/internal/mail/domain"
)

// Thread is a provider-assigned conversation: all messages sharing a
// thread ID within one account, oldest first
type Thread struct {
	ThreadID string
	Messages []maildomain.RawMessage
}

// Latest returns the newest message of the thread
func (t *Thread) Latest() *maildomain.RawMessage {
	if len(t.Messages) == 0 {
		return nil
	}
	return &t.Messages[len(t.Messages)-1]
}

// GroupThreads clusters messages into threads so one classification pass
// covers a whole exchange instead of double-counting replies. Messages
// without a thread ID form single-message threads keyed by their provider
// message ID. Threads are returned ordered by their earliest message so
// downstream status escalation sees conversations chronologically.
func GroupThreads(msgs []maildomain.RawMessage) []Thread {
	byThread := make(map[string][]maildomain.RawMessage)
	for _, m := range msgs {
		key := m.ThreadID
		if key == "" {
			key = m.ProviderMessageID
		}
		byThread[key] = append(byThread[key], m)
	}

	threads := make([]Thread, 0, len(byThread))
	for id, group := range byThread {
		sort.Slice(group, func(i, j int) bool {
			return group[i].SentAt.Before(group[j].SentAt)
		})
		threads = append(threads, Thread{ThreadID: id, Messages: group})
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].Messages[0].SentAt.Before(threads[j].Messages[0].SentAt)
	})
	return threads
}

// Classifier input is bounded so a long conversation cannot blow up a
// prompt
const threadTextLimit = 6000

// ThreadText flattens a thread into one classification input: the subject
// line plus each message body in order
func ThreadText(t Thread) string {
	var b strings.Builder
	if len(t.Messages) > 0 {
		b.WriteString("Subject: ")
		b.WriteString(t.Messages[0].Subject)
		b.WriteString("\nFrom: ")
		b.WriteString(t.Messages[0].Sender)
		b.WriteString("\n")
	}
	for _, m := range t.Messages {
		b.WriteString("\n---\n")
		body := m.Body
		if body == "" {
			body = m.Snippet
		}
		b.WriteString(body)
		if b.Len() > threadTextLimit {
			break
		}
	}

	text := b.String()
	if len(text) > threadTextLimit {
		text = text[:threadTextLimit]
	}
	return text
}

// MessageText flattens a single message for per-message classification
func MessageText(m *maildomain.RawMessage) string {
	body := m.Body
	if body == "" {
		body = m.Snippet
	}
	text := "Subject: " + m.Subject + "\nFrom: " + m.Sender + "\n\n" + body
	if len(text) > threadTextLimit {
		text = text[:threadTextLimit]
	}
	return text
}
