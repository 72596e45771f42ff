package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/samsaffron/genweb/internal/log"
	"github.com/samsaffron/genweb/internal/presets"
	"github.com/samsaffron/genweb/internal/preview"
	"github.com/samsaffron/genweb/internal/tui/studio"
	"github.com/samsaffron/genweb/internal/ui"
)

var (
	editPreview     bool
	editPreviewAddr string
	editOutput      string
)

var editCmd = &cobra.Command{
	Use:   "edit [file]",
	Short: "Open the streaming editor",
	Long: `Open the terminal editor. With a file argument the file is loaded and
ctrl+s saves back to it; otherwise the welcome page is shown and ctrl+s
writes to the configured output path.

Examples:
  genweb edit
  genweb edit landing.html
  genweb edit landing.html --preview`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func init() {
	addEditFlags(editCmd)
	rootCmd.AddCommand(editCmd)
}

func addEditFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&editPreview, "preview", false, "Serve a live preview of the document in the browser")
	cmd.Flags().StringVar(&editPreviewAddr, "preview-addr", "", "Preview listen address (default from config)")
	cmd.Flags().StringVarP(&editOutput, "output", "o", "", "Path written by ctrl+s")
}

func runEdit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyProviderOverrides(cfg, providerFlag, modelFlag); err != nil {
		return err
	}

	initial := presets.Welcome()
	output := cfg.Output
	if len(args) == 1 {
		output = args[0]
		text, err := readDocument(args[0])
		switch {
		case err == nil:
			initial = text
		case errors.Is(err, os.ErrNotExist):
			// New file: start from the welcome page and save to it.
		default:
			return err
		}
	}
	if editOutput != "" {
		output = editOutput
	}

	e := newEngine(cfg, engineOptions{initial: initial, renderer: true})
	defer e.Close()

	var previewURL string
	if editPreview {
		addr := cfg.Preview.Addr
		if editPreviewAddr != "" {
			addr = editPreviewAddr
		}
		srv := preview.NewServer(e.store)
		if err := srv.Start(addr); err != nil {
			return fmt.Errorf("start preview: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Stop(ctx); err != nil {
				log.For(log.ScopePreview).Warnf("stop preview: %v", err)
			}
		}()
		previewURL = srv.URL()
	}

	model := studio.New(studio.Config{
		Store:      e.store,
		Controller: e.controller,
		Renderer:   e.renderer,
		Styles:     ui.NewStyles(os.Stdout, ui.ThemeFor(cfg.Editor.Theme)),
		Provider:   e.label(),
		OutputPath: output,
		PreviewURL: previewURL,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run editor: %w", err)
	}
	return nil
}

