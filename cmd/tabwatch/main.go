// Package main provides tabwatch, which opens a page in a browser and exits
// once the user has closed that page's tab. A launcher runs it as a child
// process and resumes when it exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/tabwatch/pkg/config"
	"github.com/entrhq/tabwatch/pkg/launcher"
	"github.com/entrhq/tabwatch/pkg/logging"
	"github.com/entrhq/tabwatch/pkg/report"
	"github.com/entrhq/tabwatch/pkg/sessionstore"
	"github.com/entrhq/tabwatch/pkg/watcher"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	URL          string
	Browser      string
	SessionStore string

	ConfigFile  string
	Policy      string
	Verbosity   string
	Retries     int
	OutputDir   string
	LogFile     bool
	List        bool
	ShowVersion bool
}

func main() {
	cli, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "tabwatch: %v\n", err)
		os.Exit(1)
	}

	if cli.ShowVersion {
		fmt.Printf("tabwatch v%s\n", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cli, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// parseArgs parses flags and the positional arguments
func parseArgs(args []string, stderr io.Writer) (*CLIConfig, error) {
	cli := &CLIConfig{}

	fs := flag.NewFlagSet("tabwatch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML, default ~/.tabwatch/config.yaml)")
	fs.StringVar(&cli.Policy, "policy", "", "Wait policy while the tab is open: fixed or event")
	fs.StringVar(&cli.Verbosity, "verbosity", "", "Logging verbosity: quiet, normal, verbose or debug")
	fs.IntVar(&cli.Retries, "retries", -1, "Consecutive unreadable session-store polls tolerated before failing")
	fs.StringVar(&cli.OutputDir, "output", "", "Directory for run.json and summary.md")
	fs.BoolVar(&cli.LogFile, "log-file", false, "Mirror the log to ~/.tabwatch/logs")
	fs.BoolVar(&cli.List, "list", false, "Print the open tabs of a session store and exit")
	fs.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "tabwatch - wait for a browser tab to close\n\n")
		fmt.Fprintf(stderr, "Usage:\n")
		fmt.Fprintf(stderr, "  tabwatch [options] <url> <browser-executable> <session-store>\n")
		fmt.Fprintf(stderr, "  tabwatch -list <session-store>\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  tabwatch https://game.example/play /usr/bin/firefox \\\n")
		fmt.Fprintf(stderr, "    '~/.mozilla/firefox/*.default*/sessionstore-backups/recovery.jsonlz4'\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cli.ShowVersion {
		return cli, nil
	}

	if cli.Retries < -1 {
		fs.Usage()
		return nil, fmt.Errorf("-retries must be zero or more, got %d", cli.Retries)
	}

	rest := fs.Args()
	if cli.List {
		if len(rest) != 1 {
			fs.Usage()
			return nil, fmt.Errorf("expected exactly 1 argument (session store) with -list, got %d", len(rest))
		}
		cli.SessionStore = rest[0]
		return cli, nil
	}

	if len(rest) != 3 {
		fs.Usage()
		return nil, fmt.Errorf("expected exactly 3 arguments (url, browser, session store), got %d", len(rest))
	}
	cli.URL, cli.Browser, cli.SessionStore = rest[0], rest[1], rest[2]
	return cli, nil
}

// run executes one watch and returns the process exit code
func run(ctx context.Context, cli *CLIConfig, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(cli)
	if err != nil {
		fmt.Fprintf(stderr, "tabwatch: config: %v\n", err)
		return 1
	}

	level, _ := logging.ParseLevel(cfg.Logging.Verbosity)
	logger := logging.NewLogger("tabwatch", level, stdout)
	defer logger.Close()

	if cfg.Logging.File {
		if fileErr := logger.EnableFile(); fileErr != nil {
			logger.Warningf("file logging disabled: %v", fileErr)
		}
	}

	path, err := sessionstore.Resolve(cli.SessionStore)
	if err != nil {
		logger.Errorf("resolve: %v", err)
		return 1
	}

	if cli.List {
		if listErr := listTabs(path, cfg, stdout); listErr != nil {
			logger.Errorf("%s: %v", stage(listErr), listErr)
			return 1
		}
		return 0
	}

	if err := watch(ctx, cli, cfg, path, logger); err != nil {
		logger.Errorf("%s: %v", stage(err), err)
		return 1
	}
	return 0
}

func watch(ctx context.Context, cli *CLIConfig, cfg *config.Config, path string, logger *logging.Logger) (err error) {
	probe := &sessionstore.Probe{
		Path:    path,
		URL:     cli.URL,
		Decoder: sessionstore.Decoder{MaxSize: cfg.Decoder.MaxDecompressedSize},
		OnTab: func(tab sessionstore.Tab) {
			logger.Debugf("window %d tab %d: %s", tab.Window, tab.Tab, tab.URL)
		},
	}

	policy := buildPolicy(cfg, sessionstore.Dir(path), logger)
	if closer, ok := policy.(io.Closer); ok {
		defer closer.Close()
	}

	browser := &launcher.Launcher{
		Executable: cli.Browser,
		Args:       cfg.Browser.Args,
		Exited: func(exitErr error) {
			logger.Verbosef("browser process exited: %v", exitErr)
		},
	}

	sched := watcher.New(probe, policy, watcher.Options{
		Path:          path,
		InitialDelay:  cfg.Watch.InitialDelay,
		ClosedDelay:   cfg.Watch.ClosedDelay,
		MaxUnreadable: cfg.Watch.MaxUnreadable,
		Launch: func(ctx context.Context) error {
			logger.Infof("Opening %s", cli.URL)
			return browser.Launch(ctx, cli.URL)
		},
		OnTransition: func(from, to watcher.Phase, _ watcher.State) {
			logger.Phase(from.String(), to.String())
		},
		Logger: logger,
	})

	logger.Infof("Watching %s (%s policy)", path, policy.Name())
	logger.Verbosef("run %s", logger.RunID())
	if logPath := logger.LogPath(); logPath != "" {
		logger.Infof("Logging to %s", logPath)
	}

	start := time.Now()
	if cfg.Report.OutputDir != "" {
		defer func() {
			summary := buildSummary(cli, path, policy.Name(), sched.State(), start, err, logger.RunID())
			if writeErr := report.NewWriter(cfg.Report.OutputDir).WriteAll(summary); writeErr != nil {
				logger.Warningf("%v", writeErr)
			}
		}()
	}

	st, err := sched.Run(ctx)
	if err != nil {
		return err
	}

	logger.Successf("Tab closed after %d polls (%s)", st.Polls, time.Since(start).Round(time.Millisecond))
	return nil
}

// buildPolicy returns the configured wait policy, falling back to a fixed
// interval when the directory cannot be watched.
func buildPolicy(cfg *config.Config, dir string, logger *logging.Logger) watcher.WaitPolicy {
	if cfg.Watch.Policy == config.PolicyEvent {
		w, err := watcher.NewEventWaiter(dir, cfg.Watch.MaxInterval, cfg.Watch.Settle)
		if err == nil {
			return w
		}
		logger.Warningf("directory watch unavailable, polling every %s: %v", cfg.Watch.PollInterval, err)
	}
	return &watcher.FixedInterval{Interval: cfg.Watch.PollInterval}
}

func listTabs(path string, cfg *config.Config, w io.Writer) error {
	probe := &sessionstore.Probe{
		Path:    path,
		Decoder: sessionstore.Decoder{MaxSize: cfg.Decoder.MaxDecompressedSize},
	}

	doc, err := probe.Read()
	if err != nil {
		return err
	}

	tabs, err := sessionstore.Tabs(doc)
	if err != nil {
		return err
	}

	for _, tab := range tabs {
		fmt.Fprintf(w, "%d:%d\t%s\n", tab.Window, tab.Tab, tab.URL)
	}
	return nil
}

// loadConfig loads the configuration file and applies command-line overrides
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return nil, err
	}

	if cli.Policy != "" {
		cfg.Watch.Policy = config.Policy(cli.Policy)
	}
	if cli.Verbosity != "" {
		cfg.Logging.Verbosity = cli.Verbosity
	}
	if cli.Retries >= 0 {
		cfg.Watch.MaxUnreadable = cli.Retries
	}
	if cli.OutputDir != "" {
		cfg.Report.OutputDir = cli.OutputDir
	}
	if cli.LogFile {
		cfg.Logging.File = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// stage names the part of the pipeline an error came from.
func stage(err error) string {
	var (
		ioErr     *sessionstore.IOError
		decodeErr *sessionstore.DecodeError
		parseErr  *sessionstore.ParseError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "interrupted"
	case errors.As(err, &ioErr):
		return "read"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &parseErr):
		return "parse"
	default:
		return "watch"
	}
}

func buildSummary(cli *CLIConfig, path, policy string, st watcher.State, start time.Time, err error, runID string) *report.Summary {
	end := time.Now()
	summary := &report.Summary{
		RunID:        runID,
		URL:          cli.URL,
		SessionStore: path,
		Policy:       policy,
		Status:       report.StatusClosed,
		StartTime:    start,
		EndTime:      end,
		Duration:     end.Sub(start),
		Polls:        st.Polls,
		Changes:      st.Changes,
		Unreadable:   st.TotalUnreadable,
		FinalPhase:   st.Phase.String(),
	}

	if err != nil {
		summary.Status = report.StatusFailed
		if stage(err) == "interrupted" {
			summary.Status = report.StatusInterrupted
		}
		summary.Error = fmt.Sprintf("%s: %v", stage(err), err)
	}
	return summary
}
