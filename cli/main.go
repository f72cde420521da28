package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"ytthumb/internal/auth"
	"ytthumb/internal/config"
	"ytthumb/internal/fetch"
	"ytthumb/internal/history"
	"ytthumb/internal/logging"
	"ytthumb/internal/metrics"
	"ytthumb/internal/pipeline"
	"ytthumb/internal/storage"
	"ytthumb/internal/youtube"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		return cmdRun(ctx, nil, stdin, stdout, stderr)
	}

	command, rest := args[0], args[1:]
	switch command {
	case "run":
		return cmdRun(ctx, rest, stdin, stdout, stderr)
	case "auth":
		return cmdAuth(ctx, rest, stdin, stdout, stderr)
	case "status":
		return cmdStatus(rest, stdout, stderr)
	case "history":
		return cmdHistory(ctx, rest, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		if strings.HasPrefix(command, "-") {
			return cmdRun(ctx, args, stdin, stdout, stderr)
		}
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", command)
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `ytthumb - set a video's thumbnail to its newest commenter's profile photo

Usage:
  ytthumb [run] [flags]        Check for a new commenter and update the thumbnail
  ytthumb auth [flags]         Run the authorization flow and cache a new token
  ytthumb status [flags]       Show the stored commenter and cached files
  ytthumb history [flags]      List recent runs (requires history_path)
  ytthumb help                 Show this help message

Common flags:
  -config <path>   Config file (default: ytthumb.yaml, ytthumb.json,
                   ~/.config/ytthumb/ytthumb.yaml)

Run flags:
  -dry-run         Report whether the commenter is new without writing anything
  -v               Debug logging

For help on specific command: ytthumb <command> -h
`)
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	return fs, configPath
}

// parseExit maps a flag parse error to an exit code; -h is not a usage error.
func parseExit(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 2
}

func loadConfig(path string, stderr io.Writer) (*config.Config, bool) {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return nil, false
	}
	return cfg, true
}

func newLogger(cfg *config.Config, verbose bool, stderr io.Writer) (zerolog.Logger, bool) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(stderr, level, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "Error configuring logging: %v\n", err)
		return zerolog.Nop(), false
	}
	return logger, true
}

func newAuthorizer(cfg *config.Config, stdin io.Reader, stderr io.Writer, logger zerolog.Logger) (*auth.Authorizer, error) {
	oauthCfg, err := auth.LoadOAuthConfig(auth.ClientOptions{
		SecretsPath:  cfg.ClientSecretsPath,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scope:        cfg.Scope,
	})
	if err != nil {
		return nil, err
	}
	prompter := &auth.TerminalPrompter{In: stdin, Out: stderr}
	return auth.New(oauthCfg, auth.NewTokenStore(cfg.TokenPath), prompter, logger), nil
}

func cmdRun(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs, configPath := newFlagSet("run", stderr)
	dryRun := fs.Bool("dry-run", false, "Report whether the commenter is new without writing anything")
	verbose := fs.Bool("v", false, "Debug logging")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ytthumb run [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}

	cfg, ok := loadConfig(*configPath, stderr)
	if !ok {
		return 1
	}
	logger, ok := newLogger(cfg, *verbose, stderr)
	if !ok {
		return 1
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	lock := storage.NewFileLock(cfg.LastSeenPath)
	if err := lock.Lock(ctx, cfg.LockTimeout); err != nil {
		logger.Error().Err(err).Str("lock", lock.Path()).Msg("another run holds the state lock")
		return 1
	}
	defer lock.Unlock()

	authorizer, err := newAuthorizer(cfg, stdin, stderr, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load oauth client")
		return 1
	}

	recorder := metrics.New()

	fetchCfg := fetch.DefaultConfig()
	fetchCfg.Timeout = cfg.HTTPTimeout
	fetchCfg.RPS = cfg.DownloadRPS
	fetchCfg.Retry.MaxRetries = cfg.MaxRetries
	fetchCfg.Retry.InitialBackoff = cfg.InitialBackoff
	fetchCfg.Retry.MaxBackoff = cfg.MaxBackoff
	fetchCfg.Retry.OnRetry = func(attempt int, err error) {
		recorder.IncDownloadRetry()
		logger.Warn().Err(err).Int("attempt", attempt).Msg("photo download failed, retrying")
	}
	downloader := fetch.New(fetchCfg, nil)
	defer downloader.Close()

	connect := func(ctx context.Context, client *http.Client) (pipeline.Platform, error) {
		var opts []option.ClientOption
		if cfg.APIEndpoint != "" {
			opts = append(opts, option.WithEndpoint(cfg.APIEndpoint))
		}
		yt, err := youtube.NewClient(ctx, client, opts...)
		if err != nil {
			return nil, err
		}
		return yt, nil
	}

	p := pipeline.New(pipeline.Options{
		VideoID:   cfg.VideoID,
		PhotoPath: cfg.PhotoPath,
		DryRun:    *dryRun,
	}, authorizer, connect, storage.NewLastSeenStore(cfg.LastSeenPath), downloader, logger)

	rep := p.Run(ctx)

	recorder.ObserveRun(string(rep.Status), string(rep.FailedStage), rep.StartedAt, rep.FinishedAt)
	if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Warn().Err(err).Str("path", cfg.MetricsFile).Msg("failed to write metrics")
	}
	recordHistory(cfg, rep, logger)

	fmt.Fprintln(stdout, summarize(rep))
	if rep.Status == pipeline.StatusFailed {
		return 1
	}
	return 0
}

// recordHistory appends rep to the history database when one is configured.
// It uses a fresh context so a run that hit its deadline is still recorded.
func recordHistory(cfg *config.Config, rep *pipeline.Report, logger zerolog.Logger) {
	if cfg.HistoryPath == "" {
		return
	}
	ctx := context.Background()
	store, err := history.Open(ctx, cfg.HistoryPath)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to open history")
		return
	}
	defer store.Close()
	if err := store.Record(ctx, rep); err != nil {
		logger.Warn().Err(err).Msg("failed to record run")
	}
}

func summarize(rep *pipeline.Report) string {
	switch rep.Status {
	case pipeline.StatusUploaded:
		return fmt.Sprintf("Uploaded profile photo of %s as thumbnail of %s", rep.Commenter, rep.VideoID)
	case pipeline.StatusNoComments:
		return fmt.Sprintf("No comments yet on %s", rep.VideoID)
	case pipeline.StatusNotNew:
		return fmt.Sprintf("No new comments (most recent commenter is still %s)", rep.Commenter)
	case pipeline.StatusNoPhoto:
		return fmt.Sprintf("New commenter %s has no profile photo; thumbnail unchanged", rep.Commenter)
	case pipeline.StatusDryRun:
		return fmt.Sprintf("New commenter %s (dry run, nothing written)", rep.Commenter)
	default:
		return fmt.Sprintf("Run failed at %s: %v", rep.FailedStage, rep.Err)
	}
}

func cmdAuth(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs, configPath := newFlagSet("auth", stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ytthumb auth [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}

	cfg, ok := loadConfig(*configPath, stderr)
	if !ok {
		return 1
	}
	logger, ok := newLogger(cfg, false, stderr)
	if !ok {
		return 1
	}

	authorizer, err := newAuthorizer(cfg, stdin, stderr, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := authorizer.Grant(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Token stored to %s\n", cfg.TokenPath)
	return 0
}

func cmdStatus(args []string, stdout, stderr io.Writer) int {
	fs, configPath := newFlagSet("status", stderr)
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	cfg, ok := loadConfig(*configPath, stderr)
	if !ok {
		return 1
	}

	last := "(none)"
	id, err := storage.NewLastSeenStore(cfg.LastSeenPath).Load()
	switch {
	case err == nil:
		last = id
	case !errors.Is(err, storage.ErrNotFound):
		last = fmt.Sprintf("(unreadable: %v)", err)
	}

	token := "missing"
	if tok, err := auth.NewTokenStore(cfg.TokenPath).Load(); err == nil {
		token = "present"
		if !tok.Expiry.IsZero() {
			token += ", expires " + tok.Expiry.Format("2006-01-02 15:04:05 MST")
		}
	}

	photo := "missing"
	if fi, err := os.Stat(cfg.PhotoPath); err == nil {
		photo = fmt.Sprintf("%d bytes, saved %s", fi.Size(), fi.ModTime().Format("2006-01-02 15:04:05 MST"))
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Video:\t%s\n", cfg.VideoID)
	fmt.Fprintf(w, "Last commenter:\t%s\t%s\n", last, cfg.LastSeenPath)
	fmt.Fprintf(w, "Token:\t%s\t%s\n", token, cfg.TokenPath)
	fmt.Fprintf(w, "Photo:\t%s\t%s\n", photo, cfg.PhotoPath)
	w.Flush()
	return 0
}

func cmdHistory(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, configPath := newFlagSet("history", stderr)
	limit := fs.Int("n", 20, "Number of runs to show")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	cfg, ok := loadConfig(*configPath, stderr)
	if !ok {
		return 1
	}
	if cfg.HistoryPath == "" {
		fmt.Fprintln(stderr, "Error: history_path is not configured")
		return 1
	}

	store, err := history.Open(ctx, cfg.HistoryPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening history: %v\n", err)
		return 1
	}
	defer store.Close()

	entries, err := store.Recent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading history: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No runs recorded.")
		return 0
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTATUS\tCOMMENTER\tPREVIOUS\tDETAIL")
	for _, e := range entries {
		detail := e.Error
		if e.FailedStage != "" {
			detail = e.FailedStage + ": " + detail
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.StartedAt.Format("2006-01-02 15:04:05"),
			e.Status,
			e.Commenter,
			e.Previous,
			truncate(detail, 60),
		)
	}
	w.Flush()
	return 0
}

// truncate shortens s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLen-3]) + "..."
}
