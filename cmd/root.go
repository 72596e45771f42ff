package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samsaffron/genweb/internal/llm"
	"github.com/samsaffron/genweb/internal/log"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "genweb",
	Short: "Generate single-file websites with an LLM, streamed into a terminal editor",
	Long: `genweb turns a description into a complete HTML page and streams it into a
highlighted, line-numbered editor as it is written.

Examples:
  genweb                                   # open the editor on the welcome page
  genweb edit site.html --preview          # edit a file with a live browser preview
  genweb generate "a pricing table" -o pricing.html
  genweb generate "make it dark" --prior pricing.html -o pricing.html
  genweb --provider anthropic:claude-sonnet-4-5

  genweb config init                       # interactive setup
  genweb history                           # recent generations`,
	Version:           Version,
	Args:              cobra.MaximumNArgs(1),
	RunE:              runEdit,
	PersistentPreRunE: initLogging,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
}

var (
	providerFlag string
	modelFlag    string
	logFileFlag  string
	logLevelFlag string

	closeLog = func() {}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&providerFlag, "provider", "p", "", "Override provider, optionally with model (e.g., gemini:gemini-2.5-pro)")
	flags.StringVarP(&modelFlag, "model", "m", "", "Override the model of the active provider")
	flags.StringVar(&logFileFlag, "log-file", "", "Write logs to this file (default from config, off when empty)")
	flags.StringVar(&logLevelFlag, "log-level", "", "Log level: trace, debug, info, warn, error")
	if err := rootCmd.RegisterFlagCompletionFunc("provider", providerFlagCompletion); err != nil {
		panic("failed to register provider completion: " + err.Error())
	}
	addEditFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

// initLogging opens the log file before any command runs. The TUI owns the
// terminal, so logs only ever go to a file.
func initLogging(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Log.File
	if logFileFlag != "" {
		path = logFileFlag
	}
	level := cfg.Log.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	if path == "" {
		return nil
	}
	closer, err := log.Init(path, level)
	if err != nil {
		return err
	}
	closeLog = closer
	return nil
}

func providerFlagCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	completions := filterPrefix(llm.GetBuiltInProviderNames(), toComplete)
	// If completing provider name (no colon), don't add space so user can type ":"
	if !strings.Contains(toComplete, ":") {
		return completions, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
