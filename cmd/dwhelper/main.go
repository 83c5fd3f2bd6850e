package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/yourusername/dwhelper-go/internal/app"
	"github.com/yourusername/dwhelper-go/internal/domain"
	"github.com/yourusername/dwhelper-go/pkg/logger"
)

var (
	configPath string
	folder     string
	rootCmd    = &cobra.Command{
		Use:           "dwhelper",
		Short:         "dwhelper - save videos from social platforms to disk",
		Long:          `Resolves video page URLs from TikTok, Instagram and anything yt-dlp supports into local mp4 files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// errSomeFailed makes the process exit non-zero after the summary is printed
var errSomeFailed = errors.New("one or more URLs failed")

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./configs/config.yaml, $HOME/.dwhelper/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&folder, "folder", "o", "", "Destination folder (overrides download.destination_dir)")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

var getCmd = &cobra.Command{
	Use:   "get [url...]",
	Short: "Resolve and download URLs; reads URLs from stdin when none are given",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(configPath)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dest := rt.destination(folder)
		failed := 0

		if len(args) > 0 {
			for _, res := range rt.session.ProcessAll(ctx, args, dest) {
				if !printOutcome(cmd.OutOrStdout(), res) {
					failed++
				}
			}
		} else {
			failed = promptLoop(ctx, rt.session, cmd.InOrStdin(), cmd.OutOrStdout(), dest)
		}

		if failed > 0 {
			return errSomeFailed
		}
		return nil
	},
}

// promptLoop reads one URL per line until EOF, a quit word or an interrupt.
// An interrupt while waiting at the prompt ends the loop right away.
func promptLoop(ctx context.Context, session *app.Session, in io.Reader, out io.Writer, dest string) int {
	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	failed := 0
	for {
		if ctx.Err() != nil {
			fmt.Fprintln(out, "\nInterrupted.")
			return failed
		}
		fmt.Fprint(out, "URL (or q to quit): ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInterrupted.")
			return failed
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return failed
			}
			line = strings.TrimSpace(l)
		}

		switch strings.ToLower(line) {
		case "", "q", "quit", "exit":
			return failed
		}
		if !printOutcome(out, session.Process(ctx, line, dest)) {
			failed++
		}
	}
}

// readLines scans in on its own goroutine. The goroutine stays blocked in a
// pending read until in is closed or the process exits.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

// printOutcome prints the per-URL summary and reports success
func printOutcome(out io.Writer, res *domain.Resolution) bool {
	outcome := res.Outcome()
	fmt.Fprintln(out, strings.Repeat("─", 60))
	fmt.Fprintf(out, "URL:    %s\n", res.URL)
	if outcome.Success {
		fmt.Fprintln(out, "Result: SUCCESS")
		fmt.Fprintf(out, "Saved:  %s\n", outcome.Path)
		return true
	}
	fmt.Fprintf(out, "Result: FAILED (%s)\n", outcome.Kind)
	fmt.Fprintf(out, "Reason: %s\n", outcome.Reason)
	return false
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded resolutions",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		rt, err := newRuntime(configPath)
		if err != nil {
			return err
		}
		defer rt.Close()

		resolutions, err := rt.session.History(domain.ResolutionStatus(status))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tSTATUS\tRESULT\tCREATED")
		for _, r := range resolutions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(r.ID, 8),
				truncate(r.URL, 40),
				r.Status,
				truncate(r.Outcome().Result(), 50),
				r.CreatedAt.Format(time.DateTime))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show resolution statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(configPath)
		if err != nil {
			return err
		}
		defer rt.Close()

		stats, err := rt.session.Stats()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Resolution Statistics:")
		fmt.Fprintf(out, "  Total:      %d\n", stats.Total)
		fmt.Fprintf(out, "  Processing: %d\n", stats.Processing)
		fmt.Fprintf(out, "  Completed:  %d\n", stats.Completed)
		fmt.Fprintf(out, "  Failed:     %d\n", stats.Failed)
		for kind, count := range stats.ByKind {
			fmt.Fprintf(out, "    %-22s %d\n", kind+":", count)
		}
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "Show today's log entries (resolve, error, ytdlp)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		limit, _ := cmd.Flags().GetInt("limit")

		category, err := logger.ParseCategory(args[0])
		if err != nil {
			return err
		}
		config, err := app.LoadConfig(configPath)
		if err != nil {
			return err
		}

		reader := logger.NewLogReader(config.Download.LogsDir)
		var entries []logger.LogEntry
		if query != "" {
			entries, err = reader.SearchLogs(category, time.Now(), query, limit)
		} else {
			entries, err = reader.ReadTodayLogs(category, limit)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, e := range entries {
			if e.Level == "" {
				fmt.Fprintln(out, e.Message)
				continue
			}
			fmt.Fprintf(out, "%s %-5s %s", e.Timestamp, strings.ToUpper(e.Level), e.Message)
			for k, v := range e.Fields {
				fmt.Fprintf(out, " %s=%v", k, v)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to a YAML file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := app.LoadConfig(configPath)
		if err != nil {
			return err
		}
		path := "./configs/config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := app.SaveConfig(config, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringP("status", "s", "", "Filter by status (completed, failed, processing)")
	logsCmd.Flags().StringP("query", "q", "", "Only show entries containing this text")
	logsCmd.Flags().IntP("limit", "n", 100, "Maximum number of entries")
	configCmd.AddCommand(configInitCmd)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSomeFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
