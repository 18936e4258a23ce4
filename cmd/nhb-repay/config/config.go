package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"nhbrepay/observability/logging"
	telemetry "nhbrepay/observability/otel"
	"nhbrepay/services/lending/engine/rpcclient"
)

const (
	envNodeURL       = "NHB_REPAY_NODE_URL"
	envBearerToken   = "NHB_REPAY_BEARER_TOKEN"
	envJWTSecret     = "NHB_REPAY_JWT_SECRET"
	envSharedSecret  = "NHB_REPAY_SHARED_SECRET"
	envAllowInsecure = "NHB_REPAY_ALLOW_INSECURE"
	envRatePerSecond = "NHB_REPAY_RATE_PER_SECOND"
	envRateBurst     = "NHB_REPAY_RATE_BURST"
	envKeystore      = "NHB_REPAY_KEYSTORE"
	envCachePath     = "NHB_REPAY_CACHE_PATH"
	envTokens        = "NHB_REPAY_TOKENS"
	envLogLevel      = "NHB_REPAY_LOG_LEVEL"
	envLogFile       = "NHB_REPAY_LOG_FILE"
	envMetricsListen = "NHB_REPAY_METRICS_LISTEN"
	envEnvironment   = "NHB_ENV"
	envOTLPEndpoint  = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOTLPHeaders   = "OTEL_EXPORTER_OTLP_HEADERS"
	envOTLPInsecure  = "OTEL_EXPORTER_OTLP_INSECURE"

	defaultService            = "nhb-repay"
	defaultNodeURL            = "https://127.0.0.1:8081"
	defaultSharedSecretHeader = "X-NHB-Shared-Secret"
	defaultTimeout            = 10 * time.Second
	defaultRatePerSecond      = 5
	defaultPassphraseEnv      = "NHB_REPAY_PASSPHRASE"
	defaultLogFile            = "nhb-repay.log"
)

// Config captures the runtime settings for nhb-repay.
type Config struct {
	Service   string          `yaml:"service"`
	Env       string          `yaml:"env"`
	Node      NodeConfig      `yaml:"node"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Cache     CacheConfig     `yaml:"cache"`
	Tokens    string          `yaml:"tokens"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// NodeConfig describes how to reach the node's lending RPC.
type NodeConfig struct {
	URL                string        `yaml:"url"`
	BearerToken        string        `yaml:"bearer_token"`
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTIssuer          string        `yaml:"jwt_issuer"`
	JWTAudience        string        `yaml:"jwt_audience"`
	JWTTTL             time.Duration `yaml:"jwt_ttl"`
	SharedSecretHeader string        `yaml:"shared_secret_header"`
	SharedSecret       string        `yaml:"shared_secret"`
	TLSClientCA        string        `yaml:"tls_client_ca"`
	AllowInsecure      bool          `yaml:"allow_insecure"`
	Timeout            time.Duration `yaml:"timeout"`
	RatePerSecond      float64       `yaml:"rate_per_second"`
	RateBurst          int           `yaml:"rate_burst"`
}

// WalletConfig locates the signing key.
type WalletConfig struct {
	Keystore      string `yaml:"keystore"`
	PassphraseEnv string `yaml:"passphrase_env"`
}

// CacheConfig controls the on-disk account snapshot. An empty path keeps the
// cache in memory.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig exposes the Prometheus registry. An empty listen address
// disables the endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// TelemetryConfig wires OTLP exporters.
type TelemetryConfig struct {
	Endpoint string            `yaml:"endpoint"`
	Insecure bool              `yaml:"insecure"`
	Headers  map[string]string `yaml:"headers"`
	Traces   bool              `yaml:"traces"`
	Metrics  bool              `yaml:"metrics"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Service: defaultService,
		Node: NodeConfig{
			URL:                defaultNodeURL,
			SharedSecretHeader: defaultSharedSecretHeader,
			Timeout:            defaultTimeout,
			RatePerSecond:      defaultRatePerSecond,
		},
		Wallet: WalletConfig{PassphraseEnv: defaultPassphraseEnv},
		Log:    LogConfig{Level: "info", File: defaultLogFile},
	}
}

// Load reads the YAML configuration at path, when given, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path = strings.TrimSpace(path); path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	cfg.Env = stringFromEnv(envEnvironment, cfg.Env)
	cfg.Node.URL = stringFromEnv(envNodeURL, cfg.Node.URL)
	cfg.Node.BearerToken = stringFromEnv(envBearerToken, cfg.Node.BearerToken)
	cfg.Node.JWTSecret = stringFromEnv(envJWTSecret, cfg.Node.JWTSecret)
	cfg.Node.SharedSecret = stringFromEnv(envSharedSecret, cfg.Node.SharedSecret)
	cfg.Node.AllowInsecure = boolFromEnv(envAllowInsecure, cfg.Node.AllowInsecure)
	cfg.Node.RatePerSecond = floatFromEnv(envRatePerSecond, cfg.Node.RatePerSecond)
	cfg.Node.RateBurst = intFromEnv(envRateBurst, cfg.Node.RateBurst)
	cfg.Wallet.Keystore = stringFromEnv(envKeystore, cfg.Wallet.Keystore)
	cfg.Cache.Path = stringFromEnv(envCachePath, cfg.Cache.Path)
	cfg.Tokens = stringFromEnv(envTokens, cfg.Tokens)
	cfg.Log.Level = stringFromEnv(envLogLevel, cfg.Log.Level)
	cfg.Log.File = stringFromEnv(envLogFile, cfg.Log.File)
	cfg.Metrics.Listen = stringFromEnv(envMetricsListen, cfg.Metrics.Listen)
	cfg.Telemetry.Endpoint = stringFromEnv(envOTLPEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.Insecure = boolFromEnv(envOTLPInsecure, cfg.Telemetry.Insecure)
	if headers := telemetry.ParseHeaders(os.Getenv(envOTLPHeaders)); len(headers) > 0 {
		cfg.Telemetry.Headers = headers
	}
	if cfg.Telemetry.Endpoint != "" && !cfg.Telemetry.Traces && !cfg.Telemetry.Metrics {
		cfg.Telemetry.Traces = true
		cfg.Telemetry.Metrics = true
	}
}

func (cfg *Config) normalize() {
	cfg.Service = strings.TrimSpace(cfg.Service)
	if cfg.Service == "" {
		cfg.Service = defaultService
	}
	cfg.Env = strings.TrimSpace(cfg.Env)
	cfg.Node.URL = strings.TrimSpace(cfg.Node.URL)
	cfg.Node.BearerToken = strings.TrimSpace(cfg.Node.BearerToken)
	cfg.Node.JWTSecret = strings.TrimSpace(cfg.Node.JWTSecret)
	cfg.Node.SharedSecretHeader = strings.TrimSpace(cfg.Node.SharedSecretHeader)
	cfg.Node.SharedSecret = strings.TrimSpace(cfg.Node.SharedSecret)
	cfg.Node.TLSClientCA = strings.TrimSpace(cfg.Node.TLSClientCA)
	if cfg.Node.Timeout == 0 {
		cfg.Node.Timeout = defaultTimeout
	}
	cfg.Wallet.Keystore = strings.TrimSpace(cfg.Wallet.Keystore)
	cfg.Wallet.PassphraseEnv = strings.TrimSpace(cfg.Wallet.PassphraseEnv)
	if cfg.Wallet.PassphraseEnv == "" {
		cfg.Wallet.PassphraseEnv = defaultPassphraseEnv
	}
	cfg.Cache.Path = strings.TrimSpace(cfg.Cache.Path)
	cfg.Tokens = strings.TrimSpace(cfg.Tokens)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.File = strings.TrimSpace(cfg.Log.File)
	cfg.Metrics.Listen = strings.TrimSpace(cfg.Metrics.Listen)
	cfg.Telemetry.Endpoint = strings.TrimSpace(cfg.Telemetry.Endpoint)
}

func (cfg Config) validate() error {
	parsed, err := url.Parse(cfg.Node.URL)
	if err != nil || cfg.Node.URL == "" {
		return fmt.Errorf("node.url must be a valid url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("node.url must use http or https")
	}
	if parsed.Scheme == "http" && !cfg.Node.AllowInsecure {
		return fmt.Errorf("node.url uses plain http; set node.allow_insecure to permit it")
	}
	if cfg.Node.BearerToken != "" && cfg.Node.JWTSecret != "" {
		return fmt.Errorf("node.bearer_token and node.jwt_secret are mutually exclusive")
	}
	if cfg.Node.SharedSecret != "" && cfg.Node.SharedSecretHeader == "" {
		return fmt.Errorf("node.shared_secret requires node.shared_secret_header")
	}
	if cfg.Node.Timeout < 0 || cfg.Node.JWTTTL < 0 {
		return fmt.Errorf("node durations must be non-negative")
	}
	if cfg.Node.RatePerSecond < 0 || cfg.Node.RateBurst < 0 {
		return fmt.Errorf("node rate limits must be non-negative")
	}
	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not supported", cfg.Log.Level)
	}
	return nil
}

// Sanitized returns a copy of the Config with secrets masked for logging.
func (cfg Config) Sanitized() Config {
	clone := cfg
	clone.Node.BearerToken = logging.MaskValue(clone.Node.BearerToken)
	clone.Node.JWTSecret = logging.MaskValue(clone.Node.JWTSecret)
	clone.Node.SharedSecret = logging.MaskValue(clone.Node.SharedSecret)
	clone.Telemetry.Headers = logging.MaskHeaders(clone.Telemetry.Headers)
	return clone
}

// RPC returns the JSON-RPC client settings.
func (cfg Config) RPC() rpcclient.Config {
	return rpcclient.Config{
		BaseURL:            cfg.Node.URL,
		BearerToken:        cfg.Node.BearerToken,
		JWTSecret:          cfg.Node.JWTSecret,
		JWTIssuer:          cfg.Node.JWTIssuer,
		JWTAudience:        cfg.Node.JWTAudience,
		JWTTTL:             cfg.Node.JWTTTL,
		SharedSecretHeader: cfg.Node.SharedSecretHeader,
		SharedSecretValue:  cfg.Node.SharedSecret,
		TLSClientCAFile:    cfg.Node.TLSClientCA,
		AllowInsecure:      cfg.Node.AllowInsecure,
		Timeout:            cfg.Node.Timeout,
		RatePerSecond:      cfg.Node.RatePerSecond,
		RateBurst:          cfg.Node.RateBurst,
	}
}

// OTel returns the telemetry settings.
func (cfg Config) OTel() telemetry.Config {
	return telemetry.Config{
		ServiceName: cfg.Service,
		Environment: cfg.Env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     cfg.Telemetry.Headers,
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	}
}

// LogFile returns the rotating file settings.
func (cfg Config) LogFile() logging.FileConfig {
	return logging.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}
}

func stringFromEnv(key, fallback string) string {
	trimmed := strings.TrimSpace(os.Getenv(key))
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

func boolFromEnv(key string, fallback bool) bool {
	trimmed := strings.TrimSpace(os.Getenv(key))
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func intFromEnv(key string, fallback int) int {
	trimmed := strings.TrimSpace(os.Getenv(key))
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func floatFromEnv(key string, fallback float64) float64 {
	trimmed := strings.TrimSpace(os.Getenv(key))
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
