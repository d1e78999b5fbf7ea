package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/docfix/docfix/internal/config"
	"github.com/docfix/docfix/internal/emoji"
	"github.com/docfix/docfix/internal/fixers"
	"github.com/docfix/docfix/internal/pipeline"
	"github.com/docfix/docfix/internal/version"
)

var CLI struct {
	Config  string `arg:"" optional:"" help:"Configuration file path" default:"docfix.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	HTML    bool     `default:"true" negatable:"" help:"Process .html/.htm pages"`
	XML     bool     `default:"true" negatable:"" help:"Process .xml pages (plain-text passes only)"`
	Include []string `name:"ppinclude" help:"Only process pages matching these filters (glob or /regex/)"`
	Exclude []string `name:"ppexclude" help:"Skip pages matching these filters (glob or /regex/)"`
	Threads int      `short:"j" default:"0" help:"Worker count (0 = automatic)"`
	Werror  bool     `negatable:"" help:"Treat warnings as errors"`

	Version   kong.VersionFlag `help:"Print version and exit"`
	BugReport bool             `name:"bug-report" help:"Print environment details for a bug report and exit"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("docfix"),
		kong.Description("Post-processes generated HTML documentation."),
		kong.Vars{"version": version.String()},
	)

	if CLI.BugReport {
		fmt.Println(version.String())
		return
	}

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	// command-line flags override the file
	cfg.HTML = cfg.HTML && CLI.HTML
	cfg.XML = cfg.XML && CLI.XML
	cfg.Include = append(cfg.Include, CLI.Include...)
	cfg.Exclude = append(cfg.Exclude, CLI.Exclude...)
	if CLI.Threads > 0 {
		cfg.Threads = CLI.Threads
	}
	if CLI.Werror {
		cfg.WarningsAsErrors = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	table, err := emoji.Load()
	if err != nil {
		return err
	}
	cx, err := fixers.NewContext(cfg, logger, table)
	if err != nil {
		return err
	}
	runner, err := pipeline.NewRunner(cfg, cx, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := runner.Run(ctx)
	report.Log(logger)
	if err != nil {
		return err
	}
	if report.Failed(cfg.WarningsAsErrors) {
		return fmt.Errorf("%d pages failed, %d warnings", len(report.Failures), report.Warnings)
	}
	return nil
}
