package imap

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	maildomain "jobtrail-backend/internal/mail/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// Provider fetches messages over IMAP for accounts that are not Gmail.
// Credentials are bound at construction; each Fetch dials a fresh session.
type Provider struct {
	host     string
	port     int
	username string
	password string
}

func NewProvider(host string, port int, username, password string) *Provider {
	if port <= 0 {
		port = 993
	}
	return &Provider{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

// Verify checks that the server accepts the credentials
func (p *Provider) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("unable to connect to %s: %v", addr, err)
	}
	defer c.Logout()

	if err := c.Login(p.username, p.password); err != nil {
		return fmt.Errorf("login failed for %s: %v", p.username, err)
	}
	return nil
}

// Fetch retrieves inbox messages received since opts.Since, oldest first
func (p *Provider) Fetch(ctx context.Context, opts maildomain.FetchOptions) ([]maildomain.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s: %v", addr, err)
	}
	defer c.Logout()
	c.Timeout = 60 * time.Second

	if err := c.Login(p.username, p.password); err != nil {
		return nil, fmt.Errorf("login failed for %s: %v", p.username, err)
	}

	if _, err := c.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("unable to select INBOX: %v", err)
	}

	criteria := imap.NewSearchCriteria()
	if !opts.Since.IsZero() {
		criteria.Since = opts.Since
	}
	seqNums, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search failed: %v", err)
	}
	if len(seqNums) == 0 {
		return nil, nil
	}

	// Search returns ascending sequence numbers; cap to the newest ones
	if opts.MaxMessages > 0 && len(seqNums) > opts.MaxMessages {
		seqNums = seqNums[len(seqNums)-opts.MaxMessages:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNums...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	var result []maildomain.RawMessage
	for msg := range messages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		converted := convertMessage(msg, section)
		if converted != nil {
			result = append(result, *converted)
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch failed: %v", err)
	}

	return result, nil
}

func convertMessage(msg *imap.Message, section *imap.BodySectionName) *maildomain.RawMessage {
	env := msg.Envelope
	if env == nil {
		return nil
	}

	raw := &maildomain.RawMessage{
		ProviderMessageID: strings.Trim(env.MessageId, "<>"),
		ThreadID:          threadID(env),
		Subject:           env.Subject,
		Sender:            formatAddresses(env.From),
		Recipient:         formatAddresses(env.To),
		SentAt:            env.Date,
	}
	if raw.ProviderMessageID == "" {
		raw.ProviderMessageID = fmt.Sprintf("uid-%d", msg.Uid)
	}

	if r := msg.GetBody(section); r != nil {
		raw.Body = extractPlainText(r)
	}
	if len(raw.Body) > 200 {
		raw.Snippet = raw.Body[:200]
	} else {
		raw.Snippet = raw.Body
	}
	return raw
}

// threadID approximates a conversation ID from reply headers: replies carry
// the root message ID in In-Reply-To, the root carries its own
func threadID(env *imap.Envelope) string {
	if env.InReplyTo != "" {
		return strings.Trim(env.InReplyTo, "<>")
	}
	return strings.Trim(env.MessageId, "<>")
}

func formatAddresses(addrs []*imap.Address) string {
	var parts []string
	for _, a := range addrs {
		if a == nil {
			continue
		}
		addr := a.Address()
		if a.PersonalName != "" {
			addr = fmt.Sprintf("%s <%s>", a.PersonalName, addr)
		}
		parts = append(parts, addr)
	}
	return strings.Join(parts, ", ")
}

// extractPlainText walks the MIME structure and returns the first
// text/plain part, falling back to any inline text
func extractPlainText(r io.Reader) string {
	mr, err := mail.CreateReader(r)
	if err != nil {
		log.Printf("[IMAP] Failed to parse message body: %v", err)
		return ""
	}

	var fallback string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("[IMAP] Failed to read part: %v", err)
			break
		}

		if h, ok := part.Header.(*mail.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			if contentType == "text/plain" {
				return string(body)
			}
			if fallback == "" {
				fallback = string(body)
			}
		}
	}
	return fallback
}
