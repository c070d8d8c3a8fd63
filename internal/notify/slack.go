// Package notify posts new health entries to Slack.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/yourname/moodlog/internal"
)

const anonymousUser = "匿名ユーザー"

// UsernameResolver is the slice of the user store the notifier needs.
type UsernameResolver interface {
	GetUserByID(ctx context.Context, id string) (*internal.User, error)
}

type Notifier interface {
	NotifyEntry(entry internal.HealthEntry)
	Wait()
}

type SlackNotifier struct {
	token      string
	channel    string
	apiURL     string
	timeout    time.Duration
	HTTPClient *http.Client
	users      UsernameResolver
	logger     internal.Logger
	wg         sync.WaitGroup
}

func NewSlackNotifier(token, channel, apiURL string, timeout time.Duration, users UsernameResolver, logger internal.Logger) *SlackNotifier {
	return &SlackNotifier{
		token:      token,
		channel:    channel,
		apiURL:     apiURL,
		timeout:    timeout,
		HTTPClient: &http.Client{Timeout: timeout},
		users:      users,
		logger:     logger,
	}
}

// NotifyEntry posts in the background and returns immediately. Failures are
// logged and dropped.
func (n *SlackNotifier) NotifyEntry(entry internal.HealthEntry) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.post(ctx, Message(entry, n.username(ctx, entry.UserID))); err != nil {
			n.logger.Errorf("slack notification for entry %s failed: %v", entry.ID, err)
		}
	}()
}

// Wait blocks until every notification started so far has finished.
func (n *SlackNotifier) Wait() { n.wg.Wait() }

func (n *SlackNotifier) username(ctx context.Context, userID string) string {
	if n.users == nil {
		return anonymousUser
	}
	u, err := n.users.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, internal.ErrNotFound) {
			n.logger.Warnf("slack: username lookup for %s failed: %v", userID, err)
		}
		return anonymousUser
	}
	return u.Username
}

// Message renders the chat text for a new entry.
func Message(entry internal.HealthEntry, username string) string {
	rating := ""
	if entry.Rating != 0 {
		rating = fmt.Sprintf("%d/5", entry.Rating)
	}
	return fmt.Sprintf("%s *%sさんの体調報告* %s\n>%s", entry.Status.Emoji(), username, rating, entry.Comment)
}

type postMessageRequest struct {
	Channel     string `json:"channel"`
	Text        string `json:"text"`
	UnfurlLinks bool   `json:"unfurl_links"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (n *SlackNotifier) post(ctx context.Context, text string) error {
	body, err := json.Marshal(postMessageRequest{Channel: n.channel, Text: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	var out postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode slack response: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("slack error: %s", out.Error)
	}
	return nil
}

// Nop is used when no Slack token is configured.
type Nop struct{}

func (Nop) NotifyEntry(internal.HealthEntry) {}
func (Nop) Wait()                           {}

var (
	_ Notifier = (*SlackNotifier)(nil)
	_ Notifier = Nop{}
)
