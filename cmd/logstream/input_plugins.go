package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tinytelemetry/logstream/internal/logsource"
	"github.com/tinytelemetry/logstream/internal/tcpserver"
)

// NamedLogSource aliases the shared source abstraction to keep app-layer APIs explicit.
type NamedLogSource = logsource.LogSource

// InputSourcePlugin is a small plugin primitive for wiring log inputs.
type InputSourcePlugin interface {
	Name() string
	Enabled() bool
	Build(ctx context.Context) (NamedLogSource, error)
}

// InputPluginConfig defines runtime input selection.
type InputPluginConfig struct {
	TCPEnabled      bool
	TCPAddr         string
	TCPSourceName   string
	StdinEnabled    bool
	StdinSourceName string
}

func buildInputPlugins(cfg InputPluginConfig) []InputSourcePlugin {
	return []InputSourcePlugin{
		tcpInputPlugin{addr: cfg.TCPAddr, source: cfg.TCPSourceName, enabled: cfg.TCPEnabled},
		stdinInputPlugin{enabled: cfg.StdinEnabled, source: cfg.StdinSourceName, stat: os.Stdin.Stat},
	}
}

type tcpInputPlugin struct {
	addr    string
	source  string
	enabled bool
}

func (p tcpInputPlugin) Name() string { return "tcp" }

func (p tcpInputPlugin) Enabled() bool { return p.enabled }

func (p tcpInputPlugin) Build(_ context.Context) (NamedLogSource, error) {
	server := tcpserver.NewServer(p.addr, tcpserver.ServerConfig{SourceName: p.source})
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("start tcp server: %w", err)
	}
	return logsource.NewTCPSource(server), nil
}

// stdinInputPlugin is active only when stdin is a pipe or file, so an
// interactive launch does not sit reading the terminal.
type stdinInputPlugin struct {
	enabled bool
	source  string
	stat    func() (os.FileInfo, error)
}

func (p stdinInputPlugin) Name() string { return "stdin" }

func (p stdinInputPlugin) Enabled() bool {
	if !p.enabled || p.stat == nil {
		return false
	}
	stat, err := p.stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func (p stdinInputPlugin) Build(ctx context.Context) (NamedLogSource, error) {
	return logsource.NewStdinSource(ctx, logsource.StdinConfig{SourceName: p.source}), nil
}
