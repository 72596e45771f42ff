package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/samsaffron/genweb/internal/document"
	"github.com/samsaffron/genweb/internal/presets"
	"github.com/samsaffron/genweb/internal/signal"
	"github.com/samsaffron/genweb/internal/stream"
	"github.com/samsaffron/genweb/internal/ui"
)

var (
	generatePrior  string
	generateOutput string
	generateQuiet  bool
	generatePreset string
)

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate a page without the editor",
	Long: `Stream a page from the configured provider and print it, or write it to a
file with -o. With --prior the prompt modifies an existing page.

Examples:
  genweb generate "A login page with glassmorphism effect" -o login.html
  genweb generate "make the button red" --prior login.html -o login.html
  genweb generate "a pricing table" > pricing.html
  genweb generate --preset portfolio -o me.html`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generatePrior, "prior", "", "Existing page to modify")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Write the page to this file instead of stdout")
	generateCmd.Flags().BoolVarP(&generateQuiet, "quiet", "q", false, "Suppress progress output")
	generateCmd.Flags().StringVar(&generatePreset, "preset", "", "Use a built-in prompt preset (see 'genweb presets')")
	if err := generateCmd.RegisterFlagCompletionFunc("preset", presetCompletion); err != nil {
		panic("failed to register preset completion: " + err.Error())
	}
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if generatePreset != "" {
		if prompt != "" {
			return fmt.Errorf("use either a prompt or --preset, not both")
		}
		p, ok := presets.Lookup(generatePreset)
		if !ok {
			return fmt.Errorf("no preset matches %q", generatePreset)
		}
		prompt = p.Prompt
	}
	if prompt == "" {
		return fmt.Errorf("prompt is empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyProviderOverrides(cfg, providerFlag, modelFlag); err != nil {
		return err
	}

	var prior *string
	initial := ""
	if generatePrior != "" {
		text, err := readDocument(generatePrior)
		if err != nil {
			return err
		}
		prior = &text
		initial = text
	}

	// Headless runs never show the placeholder.
	cfg.Generation.Placeholder = ""
	e := newEngine(cfg, engineOptions{initial: initial})
	defer e.Close()

	var (
		mu    sync.Mutex
		final stream.SessionInfo
	)
	e.controller.AddObserver(stream.ObserverFunc(func(info stream.SessionInfo) {
		mu.Lock()
		final = info
		mu.Unlock()
	}))

	stderr := cmd.ErrOrStderr()
	styles := ui.NewStyles(stderr, ui.ThemeFor(cfg.Editor.Theme))
	showProgress := !generateQuiet && isTerminal(stderr)
	if showProgress {
		unsubscribe := e.store.Subscribe(func(d document.Document) {
			fmt.Fprintf(stderr, "\r%s %d bytes", styles.Muted.Render("generating with "+e.label()), d.Len())
		})
		defer unsubscribe()
	}

	ctx, stop := signal.NotifyContext(cmd.Context())
	defer stop()

	session := e.controller.Start(context.Background(), prompt, prior)
	select {
	case <-session.Done():
	case <-ctx.Done():
		e.controller.Cancel()
		session.Wait()
	}
	if showProgress {
		fmt.Fprint(stderr, "\r"+ansi.EraseEntireLine)
	}

	mu.Lock()
	info := final
	mu.Unlock()

	switch info.Status {
	case stream.StatusFailed:
		msg := "generation failed"
		if ge := e.controller.Err(); ge != nil {
			msg = ge.UserMessage()
		}
		fmt.Fprintln(stderr, styles.FormatResult(false, msg))
		return fmt.Errorf("generate: %w", info.Err)
	case stream.StatusCanceled:
		fmt.Fprintln(stderr, styles.FormatResult(false, "canceled"))
		return fmt.Errorf("generate: canceled")
	}

	text := e.store.Get().Text
	if generateOutput == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), text)
		return err
	}
	if err := writeDocument(generateOutput, text); err != nil {
		return err
	}
	if !generateQuiet {
		stat := ui.ComputeDiffStat(initial, text)
		fmt.Fprintln(stderr, styles.FormatResult(true,
			fmt.Sprintf("wrote %s (%d bytes, %s, %s)", generateOutput, len(text), stat, info.Duration().Round(time.Millisecond))))
	}
	return nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
