package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/soyj/pairbook/common/version"
	"github.com/soyj/pairbook/internal/pairbook/app"
	"github.com/soyj/pairbook/internal/pairbook/config"
)

var CLI struct {
	Version kong.VersionFlag `help:"Print version and exit."`
	Config  string           `help:"Config file path." type:"path" short:"c"`

	Addr        string `help:"HTTP listen address, overrides config." placeholder:":8080"`
	StoreDriver string `help:"Persistence backend (sqlite, file, postgres), overrides config." placeholder:"sqlite"`
	StorePath   string `help:"Database path, directory, or DSN, overrides config."`
	LogLevel    string `help:"Log level (debug, info, warn, error), overrides config."`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("pairbook"),
		kong.Description("Pair relationship tracker: anniversaries, todos, and character dialogue"),
		kong.UsageOnError(),
		kong.Vars{"version": version.Info()},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg)

	setupLogging(cfg.Log)
	slog.Info("pairbook starting", "version", version.Version, "commit", version.GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags layers command-line flags over the loaded configuration. Flags
// win over both the file and the environment.
func applyFlags(cfg *config.Config) {
	if CLI.Addr != "" {
		cfg.Server.Addr = CLI.Addr
	}
	if CLI.StoreDriver != "" {
		cfg.Store.Driver = CLI.StoreDriver
	}
	if CLI.StorePath != "" {
		cfg.Store.Path = CLI.StorePath
	}
	if CLI.LogLevel != "" {
		cfg.Log.Level = CLI.LogLevel
	}
}

func setupLogging(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
