package main

import (
	"time"

	"github.com/tinytelemetry/logstream/internal/hub"
	"github.com/tinytelemetry/logstream/internal/ingest"
	"github.com/tinytelemetry/logstream/internal/model"
)

const (
	defaultBindHost      = "127.0.0.1"
	defaultTCPPort       = 4000
	defaultTCPSource     = "tcp"
	defaultStdinSource   = "stdin"
	defaultAPIPort       = 3000
	defaultMuxBufferSize = DefaultMuxBuffer
	defaultProcessor     = ingest.ProcessorModeParse
	defaultHistorySize   = model.DefaultHistorySize
	defaultBackfillSize  = model.DefaultBackfillLimit
	defaultSendBuffer    = hub.DefaultSendBuffer
	defaultDemoInterval  = time.Duration(0) // 0 = no background demo stream
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Host          string        `mapstructure:"host"`
	Processor     string        `mapstructure:"processor"`
	TCPEnabled    bool          `mapstructure:"tcp-enabled"`
	TCPPort       int           `mapstructure:"tcp-port"`
	TCPAddr       string        `mapstructure:"tcp-addr"`
	TCPSource     string        `mapstructure:"tcp-source"`
	StdinEnabled  bool          `mapstructure:"stdin-enabled"`
	StdinSource   string        `mapstructure:"stdin-source"`
	MuxBufferSize int           `mapstructure:"mux-buffer-size"`
	APIPort       int           `mapstructure:"api-port"`
	APIAddr       string        `mapstructure:"api-addr"`
	HistorySize   int           `mapstructure:"history-size"`
	BackfillSize  int           `mapstructure:"backfill-size"`
	SendBuffer    int           `mapstructure:"send-buffer"`
	DemoEnabled   bool          `mapstructure:"demo-enabled"`
	DemoInterval  time.Duration `mapstructure:"demo-interval"`
	ConfigPath    string        `mapstructure:"-"` // not from config file
}
