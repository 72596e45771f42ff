package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samsaffron/genweb/internal/history"
	"github.com/samsaffron/genweb/internal/ui"
)

var (
	historyLimit  int
	historyStatus string
	historySearch string
	historyClear  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded generations",
	Long: `List recorded generation sessions, newest first.

Examples:
  genweb history
  genweb history --status failed
  genweb history --search pricing
  genweb history show 3f2a9c1b
  genweb history --clear`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded generation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyStatuses = []string{
	string(history.StatusRunning),
	string(history.StatusCompleted),
	string(history.StatusFailed),
	string(history.StatusSuperseded),
	string(history.StatusCanceled),
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "Only show entries with this status")
	historyCmd.Flags().StringVarP(&historySearch, "search", "s", "", "Only show prompts containing this text")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete all recorded entries")
	if err := historyCmd.RegisterFlagCompletionFunc("status", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return filterPrefix(historyStatuses, toComplete), cobra.ShellCompDirectiveNoFileComp
	}); err != nil {
		panic("failed to register status completion: " + err.Error())
	}
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistoryStore() (history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled (set history.enabled: true)")
	}
	return openHistory(cfg)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	if historyStatus != "" && !slices.Contains(historyStatuses, historyStatus) {
		return fmt.Errorf("invalid status %q: must be one of %v", historyStatus, historyStatuses)
	}

	store, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()
	if historyClear {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintln(out, "History cleared.")
		return nil
	}

	entries, err := store.List(ctx, history.ListOptions{
		Status: history.Status(historyStatus),
		Query:  historySearch,
		Limit:  historyLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No generations recorded.")
		return nil
	}
	writeHistoryTable(out, ui.NewStyles(out, nil), entries, time.Now())
	return nil
}

func writeHistoryTable(w io.Writer, styles *ui.Styles, entries []history.Entry, now time.Time) {
	fmt.Fprintln(w, styles.Bold.Render(fmt.Sprintf("%-8s  %-36s  %-10s  %-4s  %7s  %6s  %s",
		"ID", "PROMPT", "STATUS", "KIND", "BYTES", "TIME", "AGE")))
	for _, e := range entries {
		kind := "new"
		if e.Modification {
			kind = "edit"
		}
		dur := "-"
		if d := e.Duration(); d > 0 {
			dur = fmt.Sprintf("%.1fs", d.Seconds())
		}
		status := fmt.Sprintf("%-10s", e.Status)
		switch e.Status {
		case history.StatusFailed:
			status = styles.Error.Render(status)
		case history.StatusCompleted:
			status = styles.DiffAdd.Render(status)
		default:
			status = styles.Muted.Render(status)
		}
		fmt.Fprintf(w, "%-8s  %-36s  %s  %-4s  %7d  %6s  %s\n",
			shortID(e.ID), ui.Truncate(oneLine(e.Prompt), 36), status, kind, e.AfterBytes, dur, formatRelativeTime(e.StartedAt, now))
	}
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	e, err := findHistoryEntry(context.Background(), store, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:        %s\n", e.ID)
	fmt.Fprintf(out, "Prompt:    %s\n", e.Prompt)
	fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
	fmt.Fprintf(out, "Status:    %s\n", e.Status)
	kind := "new page"
	if e.Modification {
		kind = "modification"
	}
	fmt.Fprintf(out, "Kind:      %s\n", kind)
	fmt.Fprintf(out, "Started:   %s\n", e.StartedAt.Local().Format(time.DateTime))
	if !e.EndedAt.IsZero() {
		fmt.Fprintf(out, "Duration:  %s\n", e.Duration().Round(time.Millisecond))
	}
	fmt.Fprintf(out, "Fragments: %d\n", e.Fragments)
	fmt.Fprintf(out, "Bytes:     %d -> %d\n", e.BeforeBytes, e.AfterBytes)
	if e.InputTokens > 0 || e.OutputTokens > 0 {
		fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
	}
	if e.Error != "" {
		fmt.Fprintf(out, "Error:     %s\n", e.Error)
	}
	return nil
}

// findHistoryEntry resolves a full id or a unique id prefix.
func findHistoryEntry(ctx context.Context, store history.Store, id string) (*history.Entry, error) {
	e, err := store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if e != nil {
		return e, nil
	}

	entries, err := store.List(ctx, history.ListOptions{Limit: -1})
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	var match *history.Entry
	for i := range entries {
		if !strings.HasPrefix(entries[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("id prefix %q is ambiguous", id)
		}
		match = &entries[i]
	}
	if match == nil {
		return nil, fmt.Errorf("generation %q not found", id)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func formatRelativeTime(t, now time.Time) string {
	dur := now.Sub(t)
	switch {
	case dur < time.Minute:
		return "just now"
	case dur < time.Hour:
		return fmt.Sprintf("%dm ago", int(dur.Minutes()))
	case dur < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(dur.Hours()))
	case dur < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(dur.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
