package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tinytelemetry/logstream/internal/model"
)

const (
	defaultServerURL     = "http://127.0.0.1:3000"
	defaultMaxEntries    = model.DefaultMaxDisplayEntries
	defaultBackfillLimit = model.DefaultBackfillLimit
	defaultStatsInterval = model.DefaultStatsInterval
	defaultWidgetName    = model.DefaultWidgetName
)

// cliConfig holds only dashboard-relevant configuration.
type cliConfig struct {
	ServerURL          string        `mapstructure:"server-url"`
	WSURL              string        `mapstructure:"ws-url"`
	MaxDisplayEntries  int           `mapstructure:"max-display-entries"`
	BackfillLimit      int           `mapstructure:"backfill-limit"`
	StatsInterval      time.Duration `mapstructure:"stats-interval"`
	Reconnect          bool          `mapstructure:"reconnect"`
	PersistPreferences bool          `mapstructure:"persist-preferences"`
	PrefsPath          string        `mapstructure:"prefs-path"`
	WidgetName         string        `mapstructure:"widget-name"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("LOGSTREAM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("server-url", defaultServerURL)
	v.SetDefault("ws-url", "")
	v.SetDefault("max-display-entries", defaultMaxEntries)
	v.SetDefault("backfill-limit", defaultBackfillLimit)
	v.SetDefault("stats-interval", defaultStatsInterval)
	v.SetDefault("reconnect", true)
	v.SetDefault("persist-preferences", true)
	v.SetDefault("prefs-path", filepath.Join(home, ".config", "logstream", "prefs.yml"))
	v.SetDefault("widget-name", defaultWidgetName)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "logstream", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	if cfg.MaxDisplayEntries <= 0 {
		return cfg, fmt.Errorf("max-display-entries must be positive, got %d", cfg.MaxDisplayEntries)
	}
	if cfg.BackfillLimit <= 0 {
		return cfg, fmt.Errorf("backfill-limit must be positive, got %d", cfg.BackfillLimit)
	}
	if cfg.StatsInterval <= 0 {
		return cfg, fmt.Errorf("stats-interval must be positive, got %s", cfg.StatsInterval)
	}
	if cfg.WSURL == "" {
		ws, err := deriveWSURL(cfg.ServerURL)
		if err != nil {
			return cfg, err
		}
		cfg.WSURL = ws
	}
	if !cfg.PersistPreferences {
		cfg.PrefsPath = ""
	}

	return cfg, nil
}

// deriveWSURL maps the REST base URL onto the socket endpoint:
// http://host:3000 becomes ws://host:3000/ws.
func deriveWSURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server-url %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server-url %q: scheme must be http or https", serverURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server-url %q: missing host", serverURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
