// kestrel - a terminal chat interface for cloud LLM providers.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/config"
	"github.com/jeranaias/kestrel-tui/internal/provider"
	"github.com/jeranaias/kestrel-tui/internal/provider/anthropic"
	"github.com/jeranaias/kestrel-tui/internal/provider/openai"
	"github.com/jeranaias/kestrel-tui/internal/registry"
	"github.com/jeranaias/kestrel-tui/internal/router"
	"github.com/jeranaias/kestrel-tui/internal/storage"
	"github.com/jeranaias/kestrel-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		flagModel    = flag.String("model", "", "model id to start with")
		flagConfig   = flag.String("config", "", "path to the config file")
		flagValidate = flag.Bool("validate", false, "probe configured providers and exit")
		flagVersion  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *flagVersion {
		fmt.Printf("kestrel %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if *flagConfig != "" {
		os.Setenv("KESTREL_CONFIG", *flagConfig)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *flagModel != "" {
		cfg.DefaultModel = *flagModel
	}

	logger := buildLogger()
	defer logger.Sync()

	models := registry.NewRegistry()
	clients := buildClients(cfg, models, logger)
	rt := router.New(models, clients, logger)

	if *flagValidate {
		os.Exit(runValidate(rt))
	}

	if _, ok := models.Lookup(cfg.DefaultModel); !ok {
		fmt.Fprintf(os.Stderr, "Unknown model %q. Known models:\n", cfg.DefaultModel)
		for _, m := range models.All() {
			fmt.Fprintf(os.Stderr, "  %s\n", m.ID)
		}
		os.Exit(1)
	}

	if len(clients) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no providers configured. Set ANTHROPIC_API_KEY or OPENAI_API_KEY.")
	}

	convDir, err := config.ConversationsDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving conversations directory: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewStore(convDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing conversation storage: %v\n", err)
		os.Exit(1)
	}

	m := chat.New(chat.Deps{
		Config: cfg,
		Models: models,
		Router: rt,
		Store:  store,
		Logger: logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Watch the config file and push reloads into the running program.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	startConfigWatcher(watchCtx, p, logger)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running kestrel: %v\n", err)
		os.Exit(1)
	}
}

// buildClients constructs a provider client for each configured API key.
// Providers without a key are simply absent from the router. Each client
// gets the shared registry so it can refuse model ids it does not serve
// and size completions to the model's output cap.
func buildClients(cfg *config.Config, models *registry.Registry, logger *zap.Logger) []provider.Client {
	var clients []provider.Client

	if cfg.Providers.Anthropic.APIKey != "" {
		clients = append(clients, anthropic.New(anthropic.Config{
			APIKey:            cfg.Providers.Anthropic.APIKey,
			BaseURL:           cfg.Providers.Anthropic.BaseURL,
			RequestsPerMinute: cfg.Providers.Anthropic.RequestsPerMinute,
			Models:            models,
		}, logger))
	}
	if cfg.Providers.OpenAI.APIKey != "" {
		clients = append(clients, openai.New(openai.Config{
			APIKey:            cfg.Providers.OpenAI.APIKey,
			BaseURL:           cfg.Providers.OpenAI.BaseURL,
			RequestsPerMinute: cfg.Providers.OpenAI.RequestsPerMinute,
			Models:            models,
		}, logger))
	}
	return clients
}

// buildLogger writes structured logs to ~/.kestrel/kestrel.log. Logging to
// stderr would corrupt the alternate screen buffer, so file output only.
func buildLogger() *zap.Logger {
	dir, err := config.ConfigDir()
	if err != nil {
		return zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return zap.NewNop()
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.OutputPaths = []string{filepath.Join(dir, "kestrel.log")}
	zapCfg.ErrorOutputPaths = zapCfg.OutputPaths

	logger, err := zapCfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// runValidate probes every configured provider and prints the result.
// Returns a non-zero exit code when any probe fails.
func runValidate(rt *router.Router) int {
	providers := rt.AvailableProviders()
	if len(providers) == 0 {
		fmt.Fprintln(os.Stderr, "No providers configured. Set ANTHROPIC_API_KEY or OPENAI_API_KEY.")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	results := rt.ValidateAllClients(ctx)
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	exit := 0
	for _, name := range names {
		if results[name] {
			fmt.Printf("  ok    %s\n", name)
		} else {
			fmt.Printf("  FAIL  %s\n", name)
			exit = 1
		}
	}
	return exit
}

// startConfigWatcher begins watching the config file, delivering reloads
// to the program. Watch failures disable hot reload but never block startup.
func startConfigWatcher(ctx context.Context, p *tea.Program, logger *zap.Logger) {
	path, err := config.ConfigPath()
	if err != nil {
		logger.Warn("config watching disabled", zap.Error(err))
		return
	}

	w, err := config.NewWatcher(path, func(fresh *config.Config) {
		p.Send(chat.ConfigReloadedMsg{Config: fresh})
	}, logger)
	if err != nil {
		logger.Warn("config watching disabled", zap.Error(err))
		return
	}

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Warn("config watcher stopped", zap.Error(err))
		}
	}()
}
