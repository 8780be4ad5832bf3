package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the environment variable holding the config file path when no --config flag is given.
const FileEnv = "CATALOG_CONFIG_FILE"

// Duration is a time.Duration read from "10s"-style strings in both TOML and environment variables.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds every setting of the catalog service and CLI.
type Config struct {
	// ServerListenAddr specifies the network address that the HTTP server will listen on.
	ServerListenAddr string `toml:"server_listen_addr" env:"SERVER_LISTEN_ADDR"`
	// AddonHost is the public (external) base URL where the service is accessible.
	// Relative manifest URLs are resolved against it.
	AddonHost string `toml:"addon_host" env:"ADDON_HOST"`

	StoreDriver string `toml:"store_driver" env:"STORE_DRIVER"`
	StorePath   string `toml:"store_path" env:"STORE_PATH"`

	ManifestURL      string   `toml:"manifest_url" env:"MANIFEST_URL"`
	ManifestTimeout  Duration `toml:"manifest_timeout" env:"MANIFEST_TIMEOUT"`
	ManifestMaxBytes int64    `toml:"manifest_max_bytes" env:"MANIFEST_MAX_BYTES"`
	EnrichIMDB       bool     `toml:"enrich_imdb" env:"ENRICH_IMDB"`

	ServiceEnvironment   string `toml:"service_environment" env:"SERVICE_ENVIRONMENT"`
	OTelExporterEndpoint string `toml:"otel_exporter_endpoint" env:"OTEL_EXPORTER_ENDPOINT"`
	LokiHost             string `toml:"loki_host" env:"LOKI_HOST"`

	StatsWebsocketChannel string   `toml:"stats_websocket_channel" env:"STATS_WEBSOCKET_CHANNEL"`
	StatsPollInterval     Duration `toml:"stats_poll_interval" env:"STATS_POLL_INTERVAL"`

	ViewRateLimit float64 `toml:"view_rate_limit" env:"VIEW_RATE_LIMIT"`
	ViewRateBurst int     `toml:"view_rate_burst" env:"VIEW_RATE_BURST"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerListenAddr:      ":3593",
		AddonHost:             "http://127.0.0.1:3593",
		StoreDriver:           "badger",
		StorePath:             ".catalog",
		ManifestURL:           "/catalog.json",
		ManifestTimeout:       Duration(10 * time.Second),
		ManifestMaxBytes:      8 << 20,
		ServiceEnvironment:    "lcl",
		StatsWebsocketChannel: "catalog.stats",
		StatsPollInterval:     Duration(time.Minute),
		ViewRateLimit:         20,
		ViewRateBurst:         40,
	}
}

// Load builds the configuration from defaults, then the TOML file at path (or the one named by
// CATALOG_CONFIG_FILE when path is empty), then environment variables. A missing file is ignored.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(FileEnv)
	}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := toml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to env.Parse: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) normalize() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))

	u, err := url.Parse(strings.TrimSpace(c.AddonHost))
	if err != nil {
		return fmt.Errorf("failed to parse ADDON_HOST: %w", err)
	}
	c.AddonHost = fmt.Sprintf("%s://%s", u.Scheme, u.Host)

	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "badger", "sqlite":
	default:
		return fmt.Errorf("invalid store driver %q, want badger or sqlite", c.StoreDriver)
	}

	if _, err := c.ResolvedManifestURL(); err != nil {
		return err
	}

	if c.ManifestTimeout <= 0 {
		return errors.New("invalid manifest timeout, must be positive")
	}
	if c.ManifestMaxBytes <= 0 {
		return errors.New("invalid manifest max bytes, must be positive")
	}
	if c.StatsPollInterval <= 0 {
		return errors.New("invalid stats poll interval, must be positive")
	}
	if c.ViewRateLimit <= 0 || c.ViewRateBurst <= 0 {
		return errors.New("invalid view rate limit, must be positive")
	}

	return nil
}

// ResolvedManifestURL returns ManifestURL, resolved against AddonHost when relative.
// The result must be an absolute http(s) URL.
func (c *Config) ResolvedManifestURL() (string, error) {
	ref, err := url.Parse(strings.TrimSpace(c.ManifestURL))
	if err != nil {
		return "", fmt.Errorf("failed to parse MANIFEST_URL: %w", err)
	}
	if ref.String() == "" {
		return "", errors.New("invalid manifest url, empty")
	}

	if !ref.IsAbs() {
		base, err := url.Parse(c.AddonHost)
		if err != nil {
			return "", fmt.Errorf("failed to parse ADDON_HOST: %w", err)
		}
		ref = base.ResolveReference(ref)
	}

	if (ref.Scheme != "http" && ref.Scheme != "https") || ref.Host == "" {
		return "", fmt.Errorf("invalid manifest url %q, want an absolute http(s) url", ref.String())
	}

	return ref.String(), nil
}
