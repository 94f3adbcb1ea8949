package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL, Token: "secret"})
	require.NoError(t, err)
	return c
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := New(Options{BaseURL: "http://example.com/api/"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/api", c.BaseURL())
}

func TestListConversationsUnbounded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/conversations", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		_, _ = io.WriteString(w, `[{"id":"c1","phone":"55","phone_number_id":"p1","last_chat_at":"2024-05-01T12:00:00.000Z"}]`)
	})

	convs, err := c.ListConversations(context.Background(), ConversationQuery{})
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "c1", convs[0].ID)
	assert.True(t, convs[0].LastChatAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
}

func TestListConversationsBounds(t *testing.T) {
	after := time.Date(2024, 5, 1, 9, 30, 15, 250_000_000, time.FixedZone("BRT", -3*3600))
	before := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-05-01T12:30:15.250Z", r.URL.Query().Get("after_at"))
		assert.Equal(t, "2024-04-01T00:00:00.000Z", r.URL.Query().Get("before_at"))
		_, _ = io.WriteString(w, `[]`)
	})

	convs, err := c.ListConversations(context.Background(), ConversationQuery{AfterAt: after, BeforeAt: before})
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestListMessagesCursor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/c 1/messages", r.URL.Path)
		assert.Equal(t, "m9", r.URL.Query().Get("after_id"))
		assert.False(t, r.URL.Query().Has("before_id"))
		_, _ = io.WriteString(w, `[{"id":"m11","created_at":"2024-05-01T12:00:00Z","status":"read","content":{"type":"text","text":{"body":"b"}}},
			{"id":"m10","created_at":"2024-05-01T11:00:00Z","status":"","content":{"type":"text","text":{"body":"a"}}}]`)
	})

	msgs, err := c.ListMessages(context.Background(), "c 1", MessageQuery{AfterID: "m9"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m11", msgs[0].ID)
	assert.Equal(t, "read", msgs[0].Status)
}

func TestSendMessagePostsJSONString(t *testing.T) {
	var posts int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		posts++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/conversations/C/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `"Hello"`, string(body))
		_, _ = io.WriteString(w, `{"id":"m1","created_at":"2024-05-01T12:00:00Z","status":"sent","content":{"type":"text","text":{"body":"Hello"}}}`)
	})

	m, err := c.SendMessage(context.Background(), "C", "Hello")
	require.NoError(t, err)
	assert.Equal(t, 1, posts)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "Hello", m.Content.Text.Body)
}

func TestSendMessageEscapesText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var text string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&text))
		assert.Equal(t, "say \"hi\"\nbye", text)
		_, _ = io.WriteString(w, `{"id":"m1","status":"sent","content":{"type":"text","text":{"body":""}}}`)
	})

	_, err := c.SendMessage(context.Background(), "C", "say \"hi\"\nbye")
	require.NoError(t, err)
}

func TestNon2xxBecomesHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conversation closed", http.StatusUnprocessableEntity)
	})

	_, err := c.SendMessage(context.Background(), "C", "x")
	require.Error(t, err)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.StatusCode)
	assert.Equal(t, "conversation closed", httpErr.Body)
}

func TestMalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})

	_, err := c.ListConversations(context.Background(), ConversationQuery{})
	assert.ErrorContains(t, err, "decode response")
}

func TestContextCancellationAbortsRequest(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.ListMessages(ctx, "C", MessageQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMediaURLAndFetch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/phones/p1/medias/m1", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})

	assert.Equal(t, c.BaseURL()+"/phones/p1/medias/m1", c.MediaURL("p1", "m1"))

	rc, ctype, err := c.FetchMedia(context.Background(), "p1", "m1")
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ctype)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}
