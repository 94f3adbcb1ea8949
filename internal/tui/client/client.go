package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/wachats/internal/wa"
	"go.uber.org/zap"
)

// RequestIDHeader carries a per-request id so backend and client logs can be
// correlated.
const RequestIDHeader = "X-Request-Id"

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	HTTP    *http.Client
	Logger  *zap.Logger
}

// Client talks to the conversation/message HTTP backend.
type Client struct {
	base   *url.URL
	token  string
	http   *http.Client
	logger *zap.Logger
}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// ConversationQuery bounds a conversation listing. Zero times are omitted.
type ConversationQuery struct {
	AfterAt  time.Time
	BeforeAt time.Time
}

// MessageQuery bounds a message listing. Empty ids are omitted.
type MessageQuery struct {
	AfterID  string
	BeforeID string
}

// New creates a client for the backend rooted at opts.BaseURL.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", opts.BaseURL)
	}

	hc := opts.HTTP
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:   base,
		token:  opts.Token,
		http:   hc,
		logger: logger,
	}, nil
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// ListConversations fetches conversations ordered newest activity first.
func (c *Client) ListConversations(ctx context.Context, q ConversationQuery) ([]wa.Conversation, error) {
	params := url.Values{}
	if !q.AfterAt.IsZero() {
		params.Set("after_at", FormatTime(q.AfterAt))
	}
	if !q.BeforeAt.IsZero() {
		params.Set("before_at", FormatTime(q.BeforeAt))
	}

	var out []wa.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", params, nil, &out); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

// ListMessages fetches messages of a conversation, newest first.
func (c *Client) ListMessages(ctx context.Context, conversationID string, q MessageQuery) ([]wa.ChatMessage, error) {
	params := url.Values{}
	if q.AfterID != "" {
		params.Set("after_id", q.AfterID)
	}
	if q.BeforeID != "" {
		params.Set("before_id", q.BeforeID)
	}

	var out []wa.ChatMessage
	if err := c.do(ctx, http.MethodGet, messagesPath(conversationID), params, nil, &out); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

// SendMessage posts text to a conversation. The body is the JSON encoding of
// the text itself.
func (c *Client) SendMessage(ctx context.Context, conversationID, text string) (*wa.ChatMessage, error) {
	body, err := json.Marshal(text)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	var out wa.ChatMessage
	if err := c.do(ctx, http.MethodPost, messagesPath(conversationID), nil, body, &out); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &out, nil
}

// MediaURL returns the absolute URL of a media object.
func (c *Client) MediaURL(phoneNumberID, mediaID string) string {
	return c.base.JoinPath(mediaPath(phoneNumberID, mediaID)).String()
}

// FetchMedia streams a media object. The caller must close the reader.
func (c *Client) FetchMedia(ctx context.Context, phoneNumberID, mediaID string) (io.ReadCloser, string, error) {
	resp, err := c.send(ctx, http.MethodGet, mediaPath(phoneNumberID, mediaID), nil, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fetch media: %w", err)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	resp, err := c.send(ctx, method, path, params, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send issues the request and returns the response when it is 2xx. The
// body of any other response is drained into an HTTPError.
func (c *Client) send(ctx context.Context, method, path string, params url.Values, body []byte) (*http.Response, error) {
	u := c.base.JoinPath(path)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.New().String()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("http request",
		zap.String("method", method),
		zap.String("url", u.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", reqID),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	return resp, nil
}

// FormatTime renders a timestamp the way browsers' toISOString does:
// UTC with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func messagesPath(conversationID string) string {
	return "/conversations/" + url.PathEscape(conversationID) + "/messages"
}

func mediaPath(phoneNumberID, mediaID string) string {
	return "/phones/" + url.PathEscape(phoneNumberID) + "/medias/" + url.PathEscape(mediaID)
}
