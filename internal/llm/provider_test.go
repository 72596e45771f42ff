package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/samsaffron/genweb/internal/config"
)

func TestParseProviderModel(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{name: "provider only", input: "gemini", wantProvider: "gemini"},
		{name: "provider with model", input: "openai:gpt-4o", wantProvider: "openai", wantModel: "gpt-4o"},
		{name: "mock", input: "mock", wantProvider: "mock"},
		{name: "empty", input: ":model", wantErr: true},
		{name: "invalid provider", input: "unknown:model", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider, model, err := ParseProviderModel(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if provider != tc.wantProvider {
				t.Fatalf("provider=%q, want %q", provider, tc.wantProvider)
			}
			if model != tc.wantModel {
				t.Fatalf("model=%q, want %q", model, tc.wantModel)
			}
		})
	}
}

func TestNewProvider_MissingAPIKey(t *testing.T) {
	cfg := &config.Config{Provider: "gemini"}
	_, err := NewProvider(cfg)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err=%v, want ErrMissingAPIKey", err)
	}
}

func TestNewProvider_Kinds(t *testing.T) {
	cfg := &config.Config{
		Provider:  "anthropic",
		Anthropic: config.ProviderConfig{APIKey: "k", Model: "claude-x"},
		OpenAI:    config.ProviderConfig{APIKey: "k"},
		Gemini:    config.ProviderConfig{APIKey: "k"},
	}
	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*RetryProvider); !ok {
		t.Fatalf("provider %T should be wrapped with retry", p)
	}
	if p.Name() != "Anthropic (claude-x)" {
		t.Fatalf("name=%q", p.Name())
	}

	cfg.Provider = "gemini"
	p, _ = NewProvider(cfg)
	if p.Name() != "Gemini (gemini-2.5-flash)" {
		t.Fatalf("name=%q", p.Name())
	}

	cfg.Provider = "mock"
	p, _ = NewProvider(cfg)
	if _, ok := p.(*MockProvider); !ok {
		t.Fatalf("mock provider is %T", p)
	}
}

func TestLazyProvider_DefersBuild(t *testing.T) {
	builds := 0
	lazy := NewLazyProvider("gemini", func() (Provider, error) {
		builds++
		if builds == 1 {
			return nil, ErrMissingAPIKey
		}
		return NewMockProvider("built", TextTurn("ok", 0, 0)), nil
	})
	if builds != 0 {
		t.Fatalf("build ran at construction")
	}
	if lazy.Name() != "gemini" {
		t.Fatalf("name before build=%q", lazy.Name())
	}

	if _, err := lazy.Stream(context.Background(), Request{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("first stream err=%v", err)
	}

	s, err := lazy.Stream(context.Background(), Request{})
	if err != nil {
		t.Fatalf("second stream: %v", err)
	}
	defer s.Close()
	if got := collectText(t, s); got != "ok" {
		t.Fatalf("text=%q", got)
	}
	if lazy.Name() != "built" {
		t.Fatalf("name after build=%q", lazy.Name())
	}

	lazy.Stream(context.Background(), Request{})
	if builds != 2 {
		t.Fatalf("builds=%d, want 2", builds)
	}
}

func TestDemoTitle(t *testing.T) {
	fresh := `A bakery page. Ensure you include <script src="https://cdn.tailwindcss.com"></script> in the head.`
	if got := demoTitle(fresh); got != "A bakery page" {
		t.Fatalf("fresh title=%q", got)
	}
	mod := "Existing Code:\n<p></p>\n\nUser Request:\nMake it blue\n\nReturn the fully updated HTML file based on the request."
	if got := demoTitle(mod); got != "Make it blue" {
		t.Fatalf("modification title=%q", got)
	}
}
