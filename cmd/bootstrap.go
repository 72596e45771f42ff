package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samsaffron/genweb/internal/config"
	"github.com/samsaffron/genweb/internal/document"
	"github.com/samsaffron/genweb/internal/editor"
	"github.com/samsaffron/genweb/internal/generate"
	"github.com/samsaffron/genweb/internal/highlight"
	"github.com/samsaffron/genweb/internal/history"
	"github.com/samsaffron/genweb/internal/llm"
	"github.com/samsaffron/genweb/internal/log"
	"github.com/samsaffron/genweb/internal/stream"
)

// highlightTTL bounds how long intermediate highlighted documents stay cached.
const highlightTTL = 30 * time.Second

// loadConfig loads the config file. A missing file yields the defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// applyProviderOverrides applies the --provider and --model flags to cfg.
// --provider accepts "name" or "name:model"; --model wins over the model
// part of --provider.
func applyProviderOverrides(cfg *config.Config, providerFlag, modelFlag string) error {
	var provider, model string
	if providerFlag != "" {
		p, m, err := llm.ParseProviderModel(providerFlag)
		if err != nil {
			return err
		}
		provider, model = p, m
	}
	if modelFlag != "" {
		model = modelFlag
	}
	cfg.ApplyOverrides(provider, model)
	return nil
}

// engine is the document pipeline shared by the TUI and headless commands.
type engine struct {
	cfg        *config.Config
	store      *document.Store
	source     *generate.ProviderSource
	model      string
	controller *stream.Controller
	renderer   *editor.Renderer
	recorder   *history.Recorder
	history    history.Store
}

type engineOptions struct {
	initial  string
	renderer bool // build the editor renderer (TUI only)
}

// newEngine wires store, source, renderer, controller and history from cfg.
func newEngine(cfg *config.Config, opts engineOptions) *engine {
	e := &engine{cfg: cfg}
	e.store = document.NewStore(opts.initial)

	provider := llm.NewLazyProviderFromConfig(cfg)
	if s := cfg.ProviderSettings(cfg.Provider); s != nil {
		e.model = s.Model
	}
	e.source = generate.NewProviderSource(provider, generate.Options{
		Model:           e.model,
		Temperature:     cfg.Generation.Temperature,
		MaxOutputTokens: cfg.Generation.MaxOutputTokens,
	})

	var ctrlOpts []stream.Option
	if cfg.Generation.Placeholder != "" {
		ctrlOpts = append(ctrlOpts, stream.WithPlaceholder(cfg.Generation.Placeholder))
	}

	if opts.renderer {
		hl := highlight.NewCached(
			highlight.New("html", highlight.FormatANSI, highlight.WithStyle(cfg.Editor.Theme)),
			highlightTTL,
		)
		e.renderer = editor.NewRenderer(e.store, hl,
			editor.WithTabWidth(cfg.Editor.TabWidth),
			editor.WithFollowStream(cfg.Editor.FollowStream),
		)
		ctrlOpts = append(ctrlOpts, stream.WithObserver(e.renderer))
	}

	hs, err := openHistory(cfg)
	if err != nil {
		// History is best effort; generation works without it.
		log.For(log.ScopeHistory).Warnf("history disabled: %v", err)
		hs = history.NoopStore{}
	}
	e.history = hs
	e.recorder = history.NewRecorder(hs, cfg.Provider)
	ctrlOpts = append(ctrlOpts, stream.WithObserver(e.recorder))

	e.controller = stream.NewController(e.store, e.source, ctrlOpts...)
	return e
}

// openHistory opens the configured history store.
func openHistory(cfg *config.Config) (history.Store, error) {
	if !cfg.History.Enabled {
		return history.NoopStore{}, nil
	}
	return history.NewSQLiteStore(history.Config{Path: cfg.HistoryPath(), MaxCount: cfg.History.MaxCount})
}

// label formats "provider:model" for display.
func (e *engine) label() string {
	if e.model == "" {
		return e.cfg.Provider
	}
	return e.cfg.Provider + ":" + e.model
}

// Close stops the active session and releases everything the engine owns.
func (e *engine) Close() {
	e.controller.Cancel()
	if s := e.controller.Current(); s != nil {
		s.Wait()
	}
	e.recorder.Close()
	if err := e.history.Close(); err != nil {
		log.For(log.ScopeHistory).Warnf("close history: %v", err)
	}
	if e.renderer != nil {
		e.renderer.Close()
	}
	e.store.Close()
}

// readDocument returns the contents of path, or "" when path is empty.
func readDocument(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// writeDocument writes text to path, creating parent directories.
func writeDocument(path, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
