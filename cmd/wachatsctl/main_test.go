package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/matheus3301/wachats/internal/tui/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	paths   []string
	queries []url.Values
}

func (r *recorder) last() (string, url.Values) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.paths) == 0 {
		return "", nil
	}
	return r.paths[len(r.paths)-1], r.queries[len(r.queries)-1]
}

func newTestBackend(t *testing.T, h http.HandlerFunc) (*client.Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.paths = append(rec.paths, r.URL.Path)
		rec.queries = append(rec.queries, r.URL.Query())
		rec.mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	c, err := client.New(client.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return c, rec
}

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func TestParseArgsInterspersed(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	after := fs.String("after", "", "")
	out := fs.String("o", "", "")

	pos, err := parseArgs(fs, []string{"p1", "--after", "m9", "m1", "-o", "file.bin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "m1"}, pos)
	assert.Equal(t, "m9", *after)
	assert.Equal(t, "file.bin", *out)
}

func TestParseArgsDoubleDash(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String("o", "", "")

	pos, err := parseArgs(fs, []string{"a", "--", "-o", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "-o", "b"}, pos)
}

func TestMessagesFlagsAfterConversation(t *testing.T) {
	captureStdout(t)
	c, rec := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	require.NoError(t, cmdMessages(context.Background(), c, []string{"c1", "--after", "m9", "--before", "m20"}, false))

	path, q := rec.last()
	assert.Equal(t, "/conversations/c1/messages", path)
	assert.Equal(t, "m9", q.Get("after_id"))
	assert.Equal(t, "m20", q.Get("before_id"))
}

func TestMessagesFlagsBeforeConversation(t *testing.T) {
	captureStdout(t)
	c, rec := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	require.NoError(t, cmdMessages(context.Background(), c, []string{"--after", "m9", "c1"}, false))

	path, q := rec.last()
	assert.Equal(t, "/conversations/c1/messages", path)
	assert.Equal(t, "m9", q.Get("after_id"))
}

func TestMessagesRequiresConversation(t *testing.T) {
	c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.Error(t, cmdMessages(context.Background(), c, []string{"--after", "m9"}, false))
	assert.Error(t, cmdMessages(context.Background(), c, []string{"c1", "c2"}, false))
}

func TestMessagesPrintsOldestFirst(t *testing.T) {
	buf := captureStdout(t)
	c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"m2","created_at":"2024-05-01T12:01:00Z","status":"read","content":{"type":"text","text":{"body":"second"}}},
			{"id":"m1","created_at":"2024-05-01T12:00:00Z","status":"","content":{"type":"text","text":{"body":"first\nline"}}}]`)
	})

	require.NoError(t, cmdMessages(context.Background(), c, []string{"c1"}, false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first line")
	assert.Contains(t, lines[0], "received")
	assert.Contains(t, lines[1], "second")
}

func TestMediaWritesFile(t *testing.T) {
	buf := captureStdout(t)
	c, rec := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("PNGDATA"))
	})
	target := filepath.Join(t.TempDir(), "out.png")

	require.NoError(t, cmdMedia(context.Background(), c, []string{"p1", "m1", "-o", target}))

	path, _ := rec.last()
	assert.Equal(t, "/phones/p1/medias/m1", path)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))
	assert.Empty(t, buf.String(), "media bytes leaked to stdout")
}

func TestMediaToStdout(t *testing.T) {
	buf := captureStdout(t)
	c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("RAW"))
	})

	require.NoError(t, cmdMedia(context.Background(), c, []string{"p1", "m1"}))
	assert.Equal(t, "RAW", buf.String())
}

func TestSendPostsJoinedText(t *testing.T) {
	buf := captureStdout(t)
	bodies := make(chan string, 1)
	c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
		_, _ = io.WriteString(w, `{"id":"m1","status":"sent","content":{"type":"text","text":{"body":"hi there"}}}`)
	})

	require.NoError(t, cmdSend(context.Background(), c, []string{"C", "hi", "there"}, false))
	assert.Equal(t, `"hi there"`, <-bodies)
	assert.Contains(t, buf.String(), "Sent m1")

	assert.Error(t, cmdSend(context.Background(), c, []string{"C", "  "}, false))
}

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestConversationColumnsAlignWithColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	buf := captureStdout(t)
	c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"c1","name":"Ana","phone":"5511","last_chat_at":"2024-05-01T12:00:00Z"},
			{"id":"c2","name":"Bruno","phone":"5522","last_chat_at":"2024-05-01T11:00:00Z"}]`)
	})

	require.NoError(t, cmdConversations(context.Background(), c, nil, false))

	out := buf.String()
	assert.True(t, ansi.MatchString(out), "expected colour codes in output")
	lines := strings.Split(strings.TrimSpace(ansi.ReplaceAllString(out, "")), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, 24+1+28+1, strings.Index(line, "55"), "phone column misaligned in %q", line)
	}
}

func TestConversationsBounds(t *testing.T) {
	captureStdout(t)
	c, rec := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	require.NoError(t, cmdConversations(context.Background(), c, []string{"--after", "2024-05-01T12:00:00Z"}, false))
	_, q := rec.last()
	assert.Equal(t, "2024-05-01T12:00:00.000Z", q.Get("after_at"))

	assert.Error(t, cmdConversations(context.Background(), c, []string{"--before", "yesterday"}, false))
}
