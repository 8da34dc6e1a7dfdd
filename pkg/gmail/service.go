package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	maildomain "jobtrail-backend/internal/mail/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is a callback invoked when an OAuth token is refreshed so
// the caller can persist the new token
type TokenUpdateFunc func(token *oauth2.Token) error

// Service holds the OAuth application credentials shared by all accounts
type Service struct {
	clientID     string
	clientSecret string
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// ExchangeCode exchanges an OAuth authorization code for tokens
func (s *Service) ExchangeCode(ctx context.Context, code, redirectURL string) (*oauth2.Token, error) {
	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange authorization code: %v", err)
	}
	return token, nil
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

// getGmailService creates a Gmail API client with the user's tokens
func (s *Service) getGmailService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}
	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}
	return srv, nil
}

// Provider fetches one account's messages. It implements the mailbox
// provider boundary used by the sync pipeline.
type Provider struct {
	svc            *Service
	accessToken    string
	refreshToken   string
	onTokenRefresh TokenUpdateFunc
}

// ProviderFor binds the service to one account's tokens
func (s *Service) ProviderFor(accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) *Provider {
	return &Provider{
		svc:            s,
		accessToken:    accessToken,
		refreshToken:   refreshToken,
		onTokenRefresh: onTokenRefresh,
	}
}

// Profile returns the email address behind the bound tokens
func (p *Provider) Profile(ctx context.Context) (string, error) {
	srv, err := p.svc.getGmailService(ctx, p.accessToken, p.refreshToken, p.onTokenRefresh)
	if err != nil {
		return "", err
	}
	profile, err := srv.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to fetch profile: %v", err)
	}
	return profile.EmailAddress, nil
}

// Fetch retrieves inbox messages received since opts.Since, oldest first,
// bounded by opts.MaxMessages. Pagination uses the API's page token; full
// messages are fetched concurrently.
func (p *Provider) Fetch(ctx context.Context, opts maildomain.FetchOptions) ([]maildomain.RawMessage, error) {
	srv, err := p.svc.getGmailService(ctx, p.accessToken, p.refreshToken, p.onTokenRefresh)
	if err != nil {
		return nil, err
	}

	user := "me"
	q := "in:inbox"
	if !opts.Since.IsZero() {
		q += fmt.Sprintf(" after:%d", opts.Since.Unix())
	}

	maxMessages := opts.MaxMessages
	if maxMessages <= 0 {
		maxMessages = 500
	}

	// Collect message IDs first
	var ids []string
	pageToken := ""
	for len(ids) < maxMessages {
		remaining := int64(maxMessages - len(ids))
		if remaining > 500 {
			remaining = 500 // Gmail API maximum
		}

		listQuery := srv.Users.Messages.List(user).Q(q).MaxResults(remaining)
		if pageToken != "" {
			listQuery = listQuery.PageToken(pageToken)
		}

		resp, err := listQuery.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to list messages: %v", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	type fetchResult struct {
		msg *maildomain.RawMessage
		err error
	}

	resultChan := make(chan fetchResult, len(ids))
	semaphore := make(chan struct{}, 10) // Max 10 concurrent requests

	for _, id := range ids {
		go func(msgID string) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fullMsg, err := srv.Users.Messages.Get(user, msgID).Format("full").Context(ctx).Do()
			if err != nil {
				resultChan <- fetchResult{nil, err}
				return
			}
			resultChan <- fetchResult{convertMessage(fullMsg), nil}
		}(id)
	}

	var messages []maildomain.RawMessage
	for range ids {
		result := <-resultChan
		if result.err != nil {
			log.Printf("[Gmail] Skipping message: %v", result.err)
			continue
		}
		messages = append(messages, *result.msg)
	}

	// Parallel fetching scrambles the order; the pipeline needs oldest first
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].SentAt.Before(messages[j].SentAt)
	})
	return messages, nil
}

// Watch sets up push notifications for the account's inbox
func (p *Provider) Watch(ctx context.Context, topicName string) error {
	srv, err := p.svc.getGmailService(ctx, p.accessToken, p.refreshToken, p.onTokenRefresh)
	if err != nil {
		return err
	}

	// Stop any existing watch first: only one push client is allowed
	_ = srv.Users.Stop("me").Do()

	req := &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}
	resp, err := srv.Users.Watch("me", req).Do()
	if err != nil {
		return fmt.Errorf("unable to watch mailbox: %v", err)
	}
	log.Printf("[Gmail] Watch started, expiration: %d, historyId: %d", resp.Expiration, resp.HistoryId)
	return nil
}

// StopWatch stops push notifications for the account's inbox
func (p *Provider) StopWatch(ctx context.Context) error {
	srv, err := p.svc.getGmailService(ctx, p.accessToken, p.refreshToken, p.onTokenRefresh)
	if err != nil {
		return err
	}
	if err := srv.Users.Stop("me").Do(); err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %v", err)
	}
	return nil
}

// Helper functions

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

func convertMessage(msg *gmail.Message) *maildomain.RawMessage {
	body := getPlainBody(msg.Payload)

	return &maildomain.RawMessage{
		ProviderMessageID: msg.Id,
		ThreadID:          msg.ThreadId,
		Subject:           getHeader(msg.Payload.Headers, "Subject"),
		Sender:            getHeader(msg.Payload.Headers, "From"),
		Recipient:         getHeader(msg.Payload.Headers, "To"),
		Snippet:           msg.Snippet,
		Body:              body,
		SentAt:            time.Unix(msg.InternalDate/1000, 0),
	}
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

// getPlainBody extracts plaintext from a message, preferring text/plain
// parts and falling back to stripped HTML
func getPlainBody(payload *gmail.MessagePart) string {
	if payload.Body != nil && payload.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			if payload.MimeType == "text/html" {
				return stripHTML(string(data))
			}
			return string(data)
		}
	}

	var htmlBody, plainBody string
	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Body != nil && part.Body.Data != "" {
				data, err := base64.URLEncoding.DecodeString(part.Body.Data)
				if err == nil {
					switch part.MimeType {
					case "text/plain":
						plainBody = string(data)
					case "text/html":
						htmlBody = string(data)
					}
				}
			}
			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}
	findBody(payload.Parts)

	if plainBody != "" {
		return plainBody
	}
	return stripHTML(htmlBody)
}

func stripHTML(html string) string {
	text := htmlTagPattern.ReplaceAllString(html, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	return strings.Join(strings.Fields(text), " ")
}
