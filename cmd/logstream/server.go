package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/logstream/internal/demo"
	"github.com/tinytelemetry/logstream/internal/httpserver"
	"github.com/tinytelemetry/logstream/internal/hub"
	"github.com/tinytelemetry/logstream/internal/ingest"
	"github.com/tinytelemetry/logstream/internal/model"
	"golang.org/x/sync/errgroup"
)

// runServer starts the event hub, the HTTP/WebSocket API and the ingest
// inputs, and blocks until a shutdown signal.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	eventHub := hub.New(hub.Config{
		HistorySize:  cfg.HistorySize,
		BackfillSize: cfg.BackfillSize,
		SendBuffer:   cfg.SendBuffer,
	})
	defer eventHub.Close()

	generator := demo.NewGenerator(uint64(time.Now().UnixNano()))
	var demoSource httpserver.DemoSource
	if cfg.DemoEnabled {
		demoSource = generator
	}

	apiServer := httpserver.NewServer(cfg.APIAddr, eventHub, demoSource)
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	defer apiServer.Stop()

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	plugins := buildInputPlugins(InputPluginConfig{
		TCPEnabled:      cfg.TCPEnabled,
		TCPAddr:         cfg.TCPAddr,
		TCPSourceName:   cfg.TCPSource,
		StdinEnabled:    cfg.StdinEnabled,
		StdinSourceName: cfg.StdinSource,
	})

	sources := make([]NamedLogSource, 0, len(plugins))
	for _, plugin := range plugins {
		if !plugin.Enabled() {
			continue
		}
		src, err := plugin.Build(ctx)
		if err != nil {
			log.Printf("Error initializing input plugin %q: %v", plugin.Name(), err)
			continue
		}
		sources = append(sources, src)
	}

	mux := NewSourceMultiplexer(ctx, sources, cfg.MuxBufferSize)
	mux.Start()

	processor, err := ingest.NewEnvelopeProcessor(cfg.Processor, eventHub, "")
	if err != nil {
		mux.Stop()
		return err
	}

	printStartupBanner(cfg, mux.SourceNames(), processor.Name(), apiServer.Addr())

	// Use errgroup for concurrent goroutine lifecycle management.
	g, gctx := errgroup.WithContext(ctx)

	// Ingestion loop
	if mux.HasSources() {
		g.Go(func() error {
			for env := range mux.Lines() {
				processor.ProcessEnvelope(env)
			}
			return nil
		})
	}

	if cfg.DemoEnabled && cfg.DemoInterval > 0 {
		g.Go(func() error {
			return generator.Run(gctx, cfg.DemoInterval, func(e model.LogEntry) {
				eventHub.Publish(e)
			})
		})
	}

	// Wait for context cancellation (from signal handler) in the errgroup
	g.Go(func() error {
		<-gctx.Done()
		mux.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	forwarded := mux.Forwarded()
	names := make([]string, 0, len(forwarded))
	for name := range forwarded {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Printf("server: %s forwarded %d lines", name, forwarded[name])
	}

	// If we reach here, graceful shutdown succeeded within the deadline.
	// The signal goroutine (if active) dies with the process.
	signal.Stop(sigCh)

	return nil
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "logstream")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "logstream.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig, inputs []string, processorName, apiAddr string) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╦  ╔═╗╔═╗╔═╗╔╦╗╦═╗╔═╗╔═╗╔╦╗
    ║  ║ ║║ ╦╚═╗ ║ ╠╦╝║╣ ╠═╣║║║
    ╩═╝╚═╝╚═╝╚═╝ ╩ ╩╚═╚═╝╩ ╩╩ ╩`)

	status := func(enabled bool, label, value string) string {
		if enabled {
			return fmt.Sprintf("    %s  %-14s %s", check, label, cyan.Render(value))
		}
		return fmt.Sprintf("    %s  %-14s %s", dot, label, dim.Render("disabled"))
	}

	has := func(name string) bool {
		for _, in := range inputs {
			if in == name {
				return true
			}
		}
		return false
	}

	separator := dim.Render("    ─────────────────────────────────")
	lines := []string{
		"",
		logo,
		"    " + dim.Render("v"+version),
		"",
		separator,
		"",
		bold.Render("    Gateway"),
		"",
		fmt.Sprintf("    %s  %-14s %s", check, "HTTP API", cyan.Render(apiAddr)),
		fmt.Sprintf("    %s  %-14s %s", check, "WebSocket", cyan.Render("ws://"+apiAddr+"/ws")),
		status(has("tcp"), "TCP Ingest", cfg.TCPAddr),
		status(has("stdin"), "Stdin Ingest", "pipe"),
		"",
		bold.Render("    Runtime"),
		"",
		fmt.Sprintf("    %s  %-14s %s", check, "Processor", dim.Render(processorName)),
		fmt.Sprintf("    %s  %-14s %s", check, "History", dim.Render(fmt.Sprintf("%d entries, backfill %d", cfg.HistorySize, cfg.BackfillSize))),
	}
	switch {
	case !cfg.DemoEnabled:
		lines = append(lines, status(false, "Demo", ""))
	case cfg.DemoInterval > 0:
		lines = append(lines, fmt.Sprintf("    %s  %-14s %s", check, "Demo", dim.Render("every "+cfg.DemoInterval.String())))
	default:
		lines = append(lines, fmt.Sprintf("    %s  %-14s %s", check, "Demo", dim.Render("on request")))
	}

	lines = append(lines, "", bold.Render("    Config"), "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  %-14s %s", check, "Config File", dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  %-14s %s", dot, "Config File", dim.Render("default (no file)")))
	}

	lines = append(lines,
		"",
		separator,
		"",
		"    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"),
		"",
	)

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
