package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/yourusername/dwhelper-go/internal/domain"
	"go.uber.org/zap"
)

// YTDLPCLI implements domain.ExtractorService by running the yt-dlp binary
type YTDLPCLI struct {
	binary  string
	logsDir string
	logger  *zap.Logger
}

// NewYTDLPCLI creates a new yt-dlp collaborator. Raw process output of full
// downloads goes to a per-day log file under logsDir.
func NewYTDLPCLI(config *domain.YTDLPConfig, logsDir string, logger *zap.Logger) *YTDLPCLI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPCLI{
		binary:  config.Binary,
		logsDir: logsDir,
		logger:  logger,
	}
}

// Available reports whether the binary can be found
func (c *YTDLPCLI) Available() bool {
	_, err := exec.LookPath(c.binary)
	return err == nil
}

// Probe runs yt-dlp in metadata-only mode
func (c *YTDLPCLI) Probe(ctx context.Context, rawURL string) (*domain.ProbeResult, error) {
	args := probeArgs(rawURL)
	c.logger.Debug("Probing", zap.String("cmd", ShellEscapeCommand(c.binary, args...)))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("yt-dlp failed: %w", err)
		}
		return nil, fmt.Errorf("yt-dlp failed: %w: %s", err, lastLine(msg))
	}

	return parseProbeOutput(stdout.Bytes())
}

// Fetch runs yt-dlp in full-download mode
func (c *YTDLPCLI) Fetch(ctx context.Context, rawURL string, opts domain.FetchOptions) error {
	args := fetchArgs(rawURL, opts)

	downloadLog, err := c.openLogFile()
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer downloadLog.Close()

	writeLogHeader(downloadLog, rawURL, ShellEscapeCommand(c.binary, args...))

	// Redirect both stdout and stderr to the same file (like cmd > file 2>&1)
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdout = downloadLog
	cmd.Stderr = downloadLog

	if err := cmd.Run(); err != nil {
		writeLogFooter(downloadLog, false, fmt.Sprintf("yt-dlp failed: %v", err))
		return fmt.Errorf("yt-dlp failed: %w", err)
	}

	writeLogFooter(downloadLog, true, fmt.Sprintf("Downloaded: %s", opts.OutputPath))
	return nil
}

// probeArgs builds the metadata-only invocation
func probeArgs(rawURL string) []string {
	return []string{
		"--dump-json",
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		"--quiet",
		rawURL,
	}
}

// fetchArgs builds the full-download invocation
func fetchArgs(rawURL string, opts domain.FetchOptions) []string {
	// Output path is an output template; literal percent signs must be doubled
	args := []string{
		"-o", strings.ReplaceAll(opts.OutputPath, "%", "%%"),
		"--merge-output-format", "mp4",
	}
	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if opts.Continue {
		args = append(args, "--continue")
	}
	if opts.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(opts.Retries))
	}
	if opts.FragmentRetries > 0 {
		args = append(args, "--fragment-retries", strconv.Itoa(opts.FragmentRetries))
	}
	if opts.NoPlaylist {
		args = append(args, "--no-playlist")
	}
	return append(args, rawURL)
}

// probeInfo is the subset of yt-dlp's info JSON we read
type probeInfo struct {
	Title     string   `json:"title"`
	Uploader  string   `json:"uploader"`
	Duration  *float64 `json:"duration"`
	Thumbnail string   `json:"thumbnail"`
	Extractor string   `json:"extractor"`
}

// parseProbeOutput reads the first JSON document of a --dump-json run
func parseProbeOutput(out []byte) (*domain.ProbeResult, error) {
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var info probeInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
		}
		result := &domain.ProbeResult{
			Title:     info.Title,
			Uploader:  info.Uploader,
			Duration:  mo.None[float64](),
			Thumbnail: info.Thumbnail,
			Extractor: info.Extractor,
		}
		if info.Duration != nil {
			result.Duration = mo.Some(*info.Duration)
		}
		if result.Extractor == "" {
			result.Extractor = "yt-dlp"
		}
		return result, nil
	}
	return nil, fmt.Errorf("yt-dlp produced no metadata")
}

// openLogFile opens the yt-dlp output log for today
func (c *YTDLPCLI) openLogFile() (*os.File, error) {
	if err := ensureDir(c.logsDir); err != nil {
		return nil, err
	}
	dateStr := time.Now().Format("20060102")
	path := filepath.Join(c.logsDir, "ytdlp-"+dateStr+".log")
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// writeLogHeader writes the download start marker
func writeLogHeader(file *os.File, rawURL, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(file, "\n=== [%s] Download: %s ===\n", timestamp, rawURL)
	fmt.Fprintf(file, "$ %s\n", cmdLine)
}

// writeLogFooter writes the download end marker
func writeLogFooter(file *os.File, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(file, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(file, "=== END ===\n\n")
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
