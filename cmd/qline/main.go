package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/atinylittleshell/qline/internal/app"
	"github.com/atinylittleshell/qline/internal/backend"
	"github.com/atinylittleshell/qline/internal/config"
	"github.com/atinylittleshell/qline/internal/core"
	"github.com/atinylittleshell/qline/internal/history"
	"github.com/atinylittleshell/qline/internal/preferences"
	"github.com/atinylittleshell/qline/internal/suggest"
	"github.com/atinylittleshell/qline/internal/termfeatures"
	"github.com/atinylittleshell/qline/pkg/queryeditor"
)

var BUILD_VERSION = "dev"

// metadataTTL bounds how stale metric and label suggestions may get.
const metadataTTL = time.Minute

func main() {
	rootFlags := flag.NewFlagSet("qline", flag.ContinueOnError)
	cfg := config.Register(rootFlags)

	root := &ffcli.Command{
		Name:       "qline",
		ShortUsage: "qline [flags] [<subcommand>]",
		ShortHelp:  "Interactive PromQL editor with suggestions and history.",
		FlagSet:    rootFlags,
		Options:    config.Options(),
		Subcommands: []*ffcli.Command{
			newQueryCommand(cfg),
			newHistoryCommand(cfg),
			newVersionCommand(),
		},
		Exec: func(ctx context.Context, _ []string) error {
			if cfg.Version {
				fmt.Println(BUILD_VERSION)
				return nil
			}
			return runInteractive(ctx, cfg)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ParseAndRun(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCommand() *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "qline version",
		ShortHelp:  "Print the build version.",
		Exec: func(ctx context.Context, _ []string) error {
			fmt.Println(BUILD_VERSION)
			return nil
		},
	}
}

func newQueryCommand(cfg *config.Config) *ffcli.Command {
	return &ffcli.Command{
		Name:       "query",
		ShortUsage: "qline [flags] query <expr>",
		ShortHelp:  "Run one query and print the result.",
		Exec: func(ctx context.Context, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			expr := strings.TrimSpace(strings.Join(args, " "))
			if expr == "" {
				return fmt.Errorf("query requires an expression")
			}

			env, err := setup(cfg)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()

			result, stats, err := env.client.Query(ctx, expr)
			if historyErr := env.record(expr, result, err); historyErr != nil {
				env.logger.Warn("failed to record query history", zap.Error(historyErr))
			}
			if err != nil {
				return err
			}

			fmt.Println(app.FormatResult(result))
			fmt.Fprintln(os.Stderr, queryeditor.ComputeLabel("executed", stats))
			if warning := queryeditor.ComputeWarning(stats); warning != "" {
				fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
			}
			for _, warning := range result.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
			}
			return nil
		},
	}
}

func runInteractive(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return termfeatures.ErrNotATerminal
	}

	env, err := setup(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	prefs, err := preferences.Open(env.paths.PreferencesFile, env.logger)
	if err != nil {
		env.logger.Warn("failed to load preferences, using defaults", zap.Error(err))
		prefs, _ = preferences.Open("", env.logger)
	}
	defer func() {
		if err := prefs.Close(); err != nil {
			env.logger.Warn("failed to save preferences", zap.Error(err))
		}
	}()

	terminal := termfeatures.New()
	if err := terminal.SetWindowTitle("qline · " + cfg.Server); err == nil {
		defer func() { _ = terminal.ResetWindowTitle() }()
	}

	source := suggest.NewCachedSource(env.client, metadataTTL, env.logger)
	model := app.New(
		app.Options{
			Label:        cfg.Label,
			Server:       cfg.Server,
			Autocomplete: cfg.Autocomplete,
			Timeout:      cfg.Timeout,
			HistoryLimit: cfg.HistoryLimit,
		},
		env.client,
		source,
		env.historyManager,
		prefs,
		terminal,
		env.logger,
	)

	env.logger.Info("-------- new qline session --------", zap.String("server", cfg.Server), zap.Any("args", os.Args))
	return app.Run(ctx, model)
}

// environment is what every subcommand that talks to a server needs.
type environment struct {
	cfg            *config.Config
	paths          *core.Paths
	logger         *zap.Logger
	historyManager *history.HistoryManager
	client         *backend.Client
}

func setup(cfg *config.Config) (*environment, error) {
	paths, err := core.NewPaths(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	logger, err := initializeLogger(cfg, paths)
	if err != nil {
		return nil, err
	}

	historyManager, err := history.NewHistoryManager(paths.HistoryFile)
	if err != nil {
		logger.Warn("history is unavailable", zap.Error(err))
		historyManager = nil
	}

	client, err := backend.New(
		cfg.Server,
		backend.WithLogger(logger),
		backend.WithLookback(cfg.Lookback),
		backend.WithSyntaxCheck(cfg.SyntaxCheck),
	)
	if err != nil {
		return nil, err
	}

	return &environment{
		cfg:            cfg,
		paths:          paths,
		logger:         logger,
		historyManager: historyManager,
		client:         client,
	}, nil
}

func (e *environment) record(query string, result *backend.Result, queryErr error) error {
	if e.historyManager == nil {
		return nil
	}
	entry, err := e.historyManager.StartQuery(query, e.cfg.Server)
	if err != nil {
		return err
	}
	var elapsed time.Duration
	if result != nil {
		elapsed = result.Elapsed
	}
	_, err = e.historyManager.FinishQuery(entry, result.Len(), elapsed, queryErr)
	return err
}

func (e *environment) Close() {
	if e.historyManager != nil {
		if err := e.historyManager.Close(); err != nil {
			e.logger.Warn("failed to close history database", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}

func initializeLogger(cfg *config.Config, paths *core.Paths) (*zap.Logger, error) {
	logLevel := cfg.ZapLevel()
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	if cfg.CleanLog {
		_ = os.Remove(paths.LogFile)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		paths.LogFile,
	}
	return loggerConfig.Build()
}
