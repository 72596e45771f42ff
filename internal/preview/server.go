// Package preview serves the current document to a browser, reloading a
// sandboxed frame whenever the document changes.
package preview

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/samsaffron/genweb/internal/document"
	"github.com/samsaffron/genweb/internal/highlight"
	"github.com/samsaffron/genweb/internal/log"
)

//go:embed shell.html
var shellPage []byte

// DocumentCSP sandboxes the generated page even when /document is opened
// directly rather than through the shell's iframe.
const DocumentCSP = "sandbox allow-scripts allow-forms allow-modals allow-popups"

const heartbeatInterval = 15 * time.Second

var sourcePage = template.Must(template.New("source").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>genweb source v{{.Version}}</title>
<style>
body { margin: 0; background: #272822; }
pre { margin: 0; padding: 1rem; font: 13px/1.45 ui-monospace, monospace; white-space: pre-wrap; }
{{.CSS}}
</style>
</head>
<body><pre class="chroma">{{.Markup}}</pre></body>
</html>
`))

// Server is the preview HTTP server.
type Server struct {
	store *document.Store
	hl    highlight.Highlighter
	log   logging.LeveledLogger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithHighlighter sets the HTML highlighter used by /source.
func WithHighlighter(hl highlight.Highlighter) Option {
	return func(s *Server) { s.hl = hl }
}

// NewServer creates a server for store. It does not listen until Start.
func NewServer(store *document.Store, opts ...Option) *Server {
	s := &Server{
		store: store,
		log:   log.For(log.ScopePreview),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hl == nil {
		s.hl = highlight.New("html", highlight.FormatHTML)
	}
	return s
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleShell)
	mux.HandleFunc("/document", s.handleDocument)
	mux.HandleFunc("/source", s.handleSource)
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}

// Start listens on addr and serves in the background. Use port 0 for any
// free port; Addr reports the bound address.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return errors.New("preview server already started")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("start preview server: %w", err)
	}
	// Event streams never go idle, so Stop cancels their contexts itself.
	base, cancel := context.WithCancel(context.Background())
	s.listener = ln
	s.cancel = cancel
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("preview server: %v", err)
		}
	}()
	s.log.Infof("preview listening on %s", ln.Addr())
	return nil
}

// Addr is the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL is the shell page address.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr + "/"
}

// Stop shuts the server down, ending open event streams.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, cancel := s.server, s.cancel
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	cancel()
	return srv.Shutdown(ctx)
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowGet(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(shellPage)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	doc := s.store.Get()
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Security-Policy", DocumentCSP)
	h.Set("Cache-Control", "no-store")
	h.Set("X-Document-Version", strconv.FormatUint(doc.Version, 10))
	_, _ = io.WriteString(w, doc.Text)
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	doc := s.store.Get()

	var css strings.Builder
	if c, ok := s.hl.(interface{ WriteCSS(io.Writer) error }); ok {
		if err := c.WriteCSS(&css); err != nil {
			s.log.Warnf("write highlight css: %v", err)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err := sourcePage.Execute(w, struct {
		Version uint64
		CSS     template.CSS
		Markup  template.HTML
	}{
		Version: doc.Version,
		CSS:     template.CSS(css.String()),
		Markup:  template.HTML(s.hl.Highlight(doc.Text)),
	})
	if err != nil {
		s.log.Warnf("render source page: %v", err)
	}
}

type documentEvent struct {
	Version uint64 `json:"version"`
	Bytes   int    `json:"bytes"`
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func writeSSEEvent(w io.Writer, event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	// Subscribe before reading the current document so no commit falls
	// between the two.
	updates := s.store.Watch(ctx)

	setSSEHeaders(w)
	last := s.store.Get()
	if err := writeSSEEvent(w, "document", documentEvent{Version: last.Version, Bytes: last.Len()}); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-updates:
			if !ok {
				return
			}
			doc := ev.Payload
			if doc.Version <= last.Version {
				continue
			}
			last = doc
			if err := writeSSEEvent(w, "document", documentEvent{Version: doc.Version, Bytes: doc.Len()}); err != nil {
				s.log.Debugf("event stream closed: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}
