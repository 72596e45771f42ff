package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samsaffron/genweb/internal/config"
	"github.com/samsaffron/genweb/internal/llm"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage genweb configuration",
	Long: `View or edit your genweb configuration.

Examples:
  genweb config                          # show current config
  genweb config init                     # interactive setup
  genweb config set editor.theme dracula
  genweb config get provider`,
	RunE: configShow, // Default to show
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  configShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	RunE:  configPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	RunE:  configInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value while preserving comments.

Examples:
  genweb config set provider anthropic
  genweb config set anthropic.model claude-opus-4-1
  genweb config set editor.tab_width 2`,
	Args:              cobra.ExactArgs(2),
	RunE:              configSet,
	ValidArgsFunction: configSetCompletion,
}

var configGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Get a configuration value",
	Args:              cobra.ExactArgs(1),
	RunE:              configGet,
	ValidArgsFunction: configGetCompletion,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
}

func configShow(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if config.Exists() {
		fmt.Fprintf(out, "# %s\n\n", path)
	} else {
		fmt.Fprintf(out, "# No config file (using defaults)\n")
		fmt.Fprintf(out, "# Create one with: genweb config init\n\n")
	}

	data, err := yaml.Marshal(maskedConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// maskedConfig returns a copy of cfg with API keys reduced to a hint.
func maskedConfig(cfg *config.Config) config.Config {
	masked := *cfg
	for _, p := range []*config.ProviderConfig{&masked.Gemini, &masked.Anthropic, &masked.OpenAI} {
		p.APIKey = maskKey(p.APIKey)
	}
	return masked
}

func maskKey(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "…" + key[len(key)-4:]
	}
}

func configPath(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// providerEnvVars maps providers to the variable their key is read from.
var providerEnvVars = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

func configInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if config.Exists() {
		overwrite := false
		confirm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("A config file already exists. Overwrite it?").
				Value(&overwrite),
		))
		if err := confirm.Run(); err != nil {
			return err
		}
		if !overwrite {
			return nil
		}
	}

	provider := cfg.Provider
	theme := cfg.Editor.Theme
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which LLM provider do you want to use?").
				Options(
					huh.NewOption("Google Gemini", "gemini"),
					huh.NewOption("Anthropic (Claude)", "anthropic"),
					huh.NewOption("OpenAI", "openai"),
					huh.NewOption("Offline demo", "mock"),
				).
				Value(&provider),
			huh.NewSelect[string]().
				Title("Editor colour scheme").
				Options(huh.NewOptions(styles.Names()...)...).
				Height(8).
				Value(&theme),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Provider = provider
	cfg.Editor.Theme = theme

	if settings := cfg.ProviderSettings(provider); settings != nil {
		model := settings.Model
		modelForm := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Model").
				Placeholder(settings.Model).
				Value(&model),
		))
		if err := modelForm.Run(); err != nil {
			return err
		}
		if m := strings.TrimSpace(model); m != "" {
			settings.Model = m
		}
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	path, _ := config.GetConfigPath()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config saved to %s\n", path)
	if envVar, ok := providerEnvVars[provider]; ok && os.Getenv(envVar) == "" {
		fmt.Fprintf(out, "\n%s is not set. Export it before generating:\n  export %s=your-api-key\n", envVar, envVar)
	}
	return nil
}

func configSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	root := yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{{Kind: yaml.MappingNode}},
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to read config: %w", err)
	}

	if err := setYAMLValue(&root, strings.Split(key, "."), value); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	return nil
}

func configGet(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config file does not exist")
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	value, err := getYAMLValue(&root, strings.Split(args[0], "."))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

// documentMapping returns the top-level mapping of a yaml document.
func documentMapping(root *yaml.Node) (*yaml.Node, error) {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("invalid document structure")
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("root is not a mapping")
	}
	return root.Content[0], nil
}

// lookupKey returns the value node stored under key in mapping, or nil.
func lookupKey(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// setYAMLValue sets the scalar at path, creating intermediate mappings.
func setYAMLValue(root *yaml.Node, path []string, value string) error {
	current, err := documentMapping(root)
	if err != nil {
		return err
	}
	for i, part := range path {
		last := i == len(path)-1
		node := lookupKey(current, part)
		if node == nil {
			node = &yaml.Node{Kind: yaml.MappingNode}
			if last {
				node.Kind = yaml.ScalarNode
			}
			current.Content = append(current.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: part}, node)
		}
		if last {
			node.Kind = yaml.ScalarNode
			node.Tag = ""
			node.Content = nil
			node.Value = value
			return nil
		}
		if node.Kind != yaml.MappingNode {
			node.Kind = yaml.MappingNode
			node.Content = nil
			node.Value = ""
			node.Tag = ""
		}
		current = node
	}
	return nil
}

// getYAMLValue returns the scalar at path.
func getYAMLValue(root *yaml.Node, path []string) (string, error) {
	current, err := documentMapping(root)
	if err != nil {
		return "", err
	}
	for _, part := range path {
		if current.Kind != yaml.MappingNode {
			return "", fmt.Errorf("path not found: expected mapping")
		}
		next := lookupKey(current, part)
		if next == nil {
			return "", fmt.Errorf("key not found: %s", part)
		}
		current = next
	}
	if current.Kind == yaml.ScalarNode {
		return current.Value, nil
	}
	return "", fmt.Errorf("value is not a scalar")
}

var configKeys = []string{
	"provider",
	"output",
	"generation.temperature",
	"generation.max_output_tokens",
	"generation.placeholder",
	"generation.retries",
	"editor.theme",
	"editor.follow_stream",
	"editor.tab_width",
	"preview.addr",
	"history.enabled",
	"history.path",
	"history.max_count",
	"log.file",
	"log.level",
	"gemini.model",
	"anthropic.model",
	"openai.model",
}

func configSetCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return filterPrefix(configKeys, toComplete), cobra.ShellCompDirectiveNoFileComp
	case 1:
		return filterPrefix(configValueCompletions(args[0]), toComplete), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func configGetCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return filterPrefix(configKeys, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func configValueCompletions(key string) []string {
	switch key {
	case "provider":
		return llm.GetBuiltInProviderNames()
	case "editor.theme":
		return styles.Names()
	case "editor.follow_stream", "history.enabled":
		return []string{"true", "false"}
	case "log.level":
		return []string{"trace", "debug", "info", "warn", "error", "disabled"}
	}
	return nil
}

func filterPrefix(items []string, prefix string) []string {
	var out []string
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			out = append(out, item)
		}
	}
	return out
}
