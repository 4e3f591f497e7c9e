// Package main is the entry point for mdview, a terminal markdown
// previewer with synchronized scrolling.
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

	"github.com/dshills/mdview/internal/app"
	"github.com/dshills/mdview/internal/config"
	"github.com/dshills/mdview/internal/logging"
	"github.com/dshills/mdview/internal/renderer/backend"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	logLevel   string
	paginated  bool
	pageHeight int
	throttle   int
	filter     string
	watch      bool
	print      bool
	width      int
	path       string

	// set holds the flags given on the command line.
	set map[string]bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.New(configOptions(opts)...)
	defer cfg.Close()
	if err := cfg.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading settings: %v\n", err)
		return 1
	}

	settings := cfg.Settings()
	log, closeLog, err := openLog(settings.Logging, opts.print)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	appOpts := app.Options{Path: opts.path, Config: cfg, Logger: log, Watch: opts.watch}

	if opts.print {
		if err := app.Print(ctx, os.Stdout, appOpts, opts.width); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	term, err := backend.NewTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}

	application, err := app.New(term, appOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	if err := application.Run(ctx); err != nil && !errors.Is(err, app.ErrQuit) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// configOptions turns command line flags into config overrides. Only flags
// given explicitly override the settings file.
func configOptions(opts options) []config.Option {
	cfgOpts := []config.Option{config.WithWatcher(!opts.print)}
	if opts.configPath != "" {
		cfgOpts = append(cfgOpts, config.WithConfigFile(opts.configPath))
	}

	overrides := []struct {
		flag, path string
		value      any
	}{
		{"log-level", "logging.level", opts.logLevel},
		{"paginated", "preview.paginated", opts.paginated},
		{"page-height", "preview.pageHeight", int64(opts.pageHeight)},
		{"throttle", "preview.throttleMs", int64(opts.throttle)},
		{"filter", "preview.filter", opts.filter},
	}
	for _, o := range overrides {
		if opts.set[o.flag] {
			cfgOpts = append(cfgOpts, config.WithOverride(o.path, o.value))
		}
	}
	return cfgOpts
}

// openLog opens the configured log file. The interactive view owns the
// terminal, so without a file it logs nowhere; print mode logs to stderr.
func openLog(s config.LoggingSettings, toStderr bool) (*logging.Logger, func(), error) {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(s.Level)

	switch {
	case s.File != "":
		f, err := os.OpenFile(s.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cfg.Output = f
		log := logging.New(cfg)
		return log, func() {
			_ = log.Sync()
			_ = f.Close()
		}, nil
	case toStderr:
		cfg.Output = os.Stderr
	default:
		cfg.Output = io.Discard
	}
	log := logging.New(cfg)
	return log, func() { _ = log.Sync() }, nil
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to settings file")
	flag.StringVar(&opts.configPath, "c", "", "Path to settings file (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.paginated, "paginated", false, "Lay the preview out in pages")
	flag.IntVar(&opts.pageHeight, "page-height", 40, "Rows per page in paginated layout")
	flag.IntVar(&opts.throttle, "throttle", 30, "Scroll sync interval in milliseconds")
	flag.StringVar(&opts.filter, "filter", "", "Lua line filter script")
	flag.BoolVar(&opts.watch, "watch", true, "Reload the document when it changes")
	flag.BoolVar(&opts.print, "print", false, "Print the rendered preview to stdout and exit")
	flag.IntVar(&opts.width, "width", 80, "Output width for -print")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "mdview - markdown preview with synchronized scrolling\n\n")
		fmt.Fprintf(os.Stderr, "Usage: mdview [options] file.md\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  Tab          switch pane\n")
		fmt.Fprintf(os.Stderr, "  j/k, arrows  scroll\n")
		fmt.Fprintf(os.Stderr, "  space/b      page down/up\n")
		fmt.Fprintf(os.Stderr, "  g/G          top/bottom\n")
		fmt.Fprintf(os.Stderr, "  p            toggle paginated layout\n")
		fmt.Fprintf(os.Stderr, "  r            reload file\n")
		fmt.Fprintf(os.Stderr, "  q            quit\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("mdview %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.logLevel {
	case "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.path = flag.Arg(0)

	opts.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	return opts
}
