package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tinytelemetry/logstream/internal/prefs"
	"github.com/tinytelemetry/logstream/internal/restclient"
	"github.com/tinytelemetry/logstream/internal/stream"
	"github.com/tinytelemetry/logstream/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var serverURL string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/logstream/config.yml)")
	flag.StringVar(&serverURL, "server", "", "override the logstream server URL")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Logstream TUI - Dashboard Client\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	if serverURL != "" {
		os.Setenv("LOGSTREAM_SERVER_URL", serverURL)
	}
	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig) error {
	closeLog := configureRuntimeLogger()
	defer closeLog()

	log.Printf("logstream-tui: server=%s ws=%s max-entries=%d", cfg.ServerURL, cfg.WSURL, cfg.MaxDisplayEntries)

	events := stream.NewManager(stream.Config{
		URL:       cfg.WSURL,
		Reconnect: cfg.Reconnect,
	})
	defer events.Close()

	opts := tui.Options{
		MaxEntries:    cfg.MaxDisplayEntries,
		BackfillLimit: cfg.BackfillLimit,
		StatsInterval: cfg.StatsInterval,
		WidgetName:    cfg.WidgetName,
		API:           restclient.New(cfg.ServerURL, nil),
		Stream:        events,
	}
	if cfg.PrefsPath != "" {
		opts.Prefs = prefs.Open(cfg.PrefsPath)
	}

	p := tea.NewProgram(tui.New(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// configureRuntimeLogger sends log output to a file so it never draws over
// the dashboard.
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

	f, err := os.OpenFile(filepath.Join(logDir, "logstream-tui.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}
