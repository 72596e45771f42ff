package preview

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samsaffron/genweb/internal/document"
	"github.com/samsaffron/genweb/internal/highlight"
)

func newTestServer(t *testing.T, text string) (*document.Store, *httptest.Server) {
	t.Helper()
	store := document.NewStore(text)
	t.Cleanup(store.Close)
	ts := httptest.NewServer(NewServer(store).Handler())
	t.Cleanup(ts.Close)
	return store, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestShellPage(t *testing.T) {
	_, ts := newTestServer(t, "<p>hi</p>")

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<iframe id="frame" src="/document" sandbox=`)
	assert.Contains(t, body, `new EventSource("/events")`)

	resp, _ = get(t, ts.URL+"/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDocumentIsSandboxed(t *testing.T) {
	store, ts := newTestServer(t, "<h1>One</h1>")
	store.Set("<h1>Two</h1>")

	resp, body := get(t, ts.URL+"/document")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>Two</h1>", body)
	assert.Equal(t, DocumentCSP, resp.Header.Get("Content-Security-Policy"))
	assert.Equal(t, "1", resp.Header.Get("X-Document-Version"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, "")
	resp, err := http.Post(ts.URL+"/document", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, HEAD", resp.Header.Get("Allow"))
}

func TestSourcePage(t *testing.T) {
	_, ts := newTestServer(t, `<div class="x">a &amp; b</div>`)

	resp, body := get(t, ts.URL+"/source")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<pre class="chroma">`)
	assert.Contains(t, body, `<span class="nt">`)
	// The generated markup is escaped, never injected.
	assert.NotContains(t, body, `<div class="x">`)
	assert.Contains(t, highlight.StripHTML(body[strings.Index(body, "<pre"):]), `<div class="x">a &amp; b</div>`)
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventsStreamVersions(t *testing.T) {
	store, ts := newTestServer(t, "start")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	first := readEvent(t, r)
	assert.Equal(t, "document", first.name)
	var doc documentEvent
	require.NoError(t, json.Unmarshal([]byte(first.data), &doc))
	assert.Equal(t, documentEvent{Version: 0, Bytes: 5}, doc)

	store.Set("<p>streamed</p>")
	next := readEvent(t, r)
	require.NoError(t, json.Unmarshal([]byte(next.data), &doc))
	assert.Equal(t, uint64(1), doc.Version)
	assert.Equal(t, len("<p>streamed</p>"), doc.Bytes)
}

func TestStartStop(t *testing.T) {
	store := document.NewStore("<p>live</p>")
	defer store.Close()
	s := NewServer(store)
	assert.Empty(t, s.URL())

	require.NoError(t, s.Start("127.0.0.1:0"))
	require.Error(t, s.Start("127.0.0.1:0"))
	require.NotEmpty(t, s.Addr())

	_, body := get(t, s.URL()+"document")
	assert.Equal(t, "<p>live</p>", body)

	// An open event stream must not hold up shutdown.
	resp, err := http.Get(s.URL() + "events")
	require.NoError(t, err)
	defer resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
