package cmd

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/samsaffron/genweb/internal/config"
)

func parseYAML(t *testing.T, s string) *yaml.Node {
	t.Helper()
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(s), &root); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return &root
}

func encodeYAML(t *testing.T, root *yaml.Node) string {
	t.Helper()
	out, err := yaml.Marshal(root)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(out)
}

func TestSetYAMLValuePreservesComments(t *testing.T) {
	root := parseYAML(t, "# main provider\nprovider: gemini\neditor:\n  theme: monokai # colours\n")

	if err := setYAMLValue(root, []string{"editor", "theme"}, "dracula"); err != nil {
		t.Fatalf("set: %v", err)
	}
	out := encodeYAML(t, root)
	if !strings.Contains(out, "# main provider") || !strings.Contains(out, "# colours") {
		t.Fatalf("comments lost:\n%s", out)
	}
	if got, err := getYAMLValue(root, []string{"editor", "theme"}); err != nil || got != "dracula" {
		t.Fatalf("theme = %q, %v", got, err)
	}
}

func TestSetYAMLValueCreatesPath(t *testing.T) {
	root := parseYAML(t, "provider: gemini\n")
	if err := setYAMLValue(root, []string{"history", "max_count"}, "10"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := getYAMLValue(root, []string{"history", "max_count"}); err != nil || got != "10" {
		t.Fatalf("max_count = %q, %v", got, err)
	}

	// A scalar in the way becomes a mapping.
	if err := setYAMLValue(root, []string{"provider", "name"}, "openai"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := getYAMLValue(root, []string{"provider", "name"}); got != "openai" {
		t.Fatalf("provider.name = %q", got)
	}
}

func TestGetYAMLValueErrors(t *testing.T) {
	root := parseYAML(t, "editor:\n  theme: monokai\n")
	if _, err := getYAMLValue(root, []string{"preview"}); err == nil {
		t.Fatal("expected missing key error")
	}
	if _, err := getYAMLValue(root, []string{"editor"}); err == nil {
		t.Fatal("expected non-scalar error")
	}
	if _, err := getYAMLValue(root, []string{"editor", "theme", "x"}); err == nil {
		t.Fatal("expected mapping error")
	}
}

func TestMaskedConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.APIKey = "AIzaSyExampleKey1234"
	cfg.OpenAI.APIKey = "short"

	masked := maskedConfig(cfg)
	if masked.Gemini.APIKey != "AIza…1234" {
		t.Fatalf("gemini key = %q", masked.Gemini.APIKey)
	}
	if masked.OpenAI.APIKey != "****" {
		t.Fatalf("openai key = %q", masked.OpenAI.APIKey)
	}
	if masked.Anthropic.APIKey != "" {
		t.Fatalf("anthropic key = %q", masked.Anthropic.APIKey)
	}
	if cfg.Gemini.APIKey != "AIzaSyExampleKey1234" {
		t.Fatal("masking modified the original config")
	}
}

func TestFilterPrefix(t *testing.T) {
	got := filterPrefix([]string{"editor.theme", "editor.tab_width", "provider"}, "editor.t")
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if got := configValueCompletions("provider"); len(got) == 0 {
		t.Fatal("no provider completions")
	}
}
