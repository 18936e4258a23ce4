package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nhbrepay/observability/logging"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		envNodeURL, envBearerToken, envJWTSecret, envSharedSecret, envAllowInsecure,
		envRatePerSecond, envRateBurst, envKeystore, envCachePath, envTokens, envLogLevel, envLogFile, envMetricsListen,
		envEnvironment, envOTLPEndpoint, envOTLPHeaders, envOTLPInsecure,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, defaultService, cfg.Service)
	require.Equal(t, defaultNodeURL, cfg.Node.URL)
	require.Equal(t, defaultTimeout, cfg.Node.Timeout)
	require.Equal(t, defaultPassphraseEnv, cfg.Wallet.PassphraseEnv)
	require.False(t, cfg.OTel().Enabled())
}

func TestLoadConfigTrimsFields(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
env: " staging "
node:
  url: " http://127.0.0.1:8081 "
  allow_insecure: true
  jwt_secret: " s3cret "
  jwt_ttl: 2m
  rate_per_second: 3
  rate_burst: 6
wallet:
  keystore: " /tmp/key.json "
cache:
  path: " /tmp/cache "
log:
  level: " DEBUG "
metrics:
  listen: " 127.0.0.1:9464 "
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "staging", cfg.Env)
	require.Equal(t, "http://127.0.0.1:8081", cfg.Node.URL)
	require.Equal(t, "s3cret", cfg.Node.JWTSecret)
	require.Equal(t, 2*time.Minute, cfg.Node.JWTTTL)
	require.Equal(t, "/tmp/key.json", cfg.Wallet.Keystore)
	require.Equal(t, "/tmp/cache", cfg.Cache.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "127.0.0.1:9464", cfg.Metrics.Listen)

	rpc := cfg.RPC()
	require.Equal(t, cfg.Node.URL, rpc.BaseURL)
	require.Equal(t, 3.0, rpc.RatePerSecond)
	require.Equal(t, 6, rpc.RateBurst)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
node:
  url: "https://node"
  colour: blue
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadValidatesNode(t *testing.T) {
	cases := map[string]string{
		"plain http": `
node:
  url: "http://node:8081"
`,
		"bad scheme": `
node:
  url: "ftp://node"
`,
		"two bearer sources": `
node:
  url: "https://node"
  bearer_token: abc
  jwt_secret: def
`,
		"negative rate": `
node:
  url: "https://node"
  rate_per_second: -1
`,
		"unknown level": `
log:
  level: chatty
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(envNodeURL, "http://override:9000")
	t.Setenv(envAllowInsecure, "true")
	t.Setenv(envRatePerSecond, "0.5")
	t.Setenv(envRateBurst, "4")
	t.Setenv(envKeystore, "/keys/repay.json")
	t.Setenv(envOTLPEndpoint, "otel:4318")
	t.Setenv(envOTLPHeaders, "authorization=Bearer x")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://override:9000", cfg.Node.URL)
	require.True(t, cfg.Node.AllowInsecure)
	require.Equal(t, 0.5, cfg.Node.RatePerSecond)
	require.Equal(t, 4, cfg.Node.RateBurst)
	require.Equal(t, "/keys/repay.json", cfg.Wallet.Keystore)

	otel := cfg.OTel()
	require.True(t, otel.Enabled())
	require.Equal(t, "otel:4318", otel.Endpoint)
	require.Equal(t, "Bearer x", otel.Headers["authorization"])
}

func TestSanitizedMasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.Node.JWTSecret = "secret"
	cfg.Node.SharedSecret = "shared"
	cfg.Telemetry.Headers = map[string]string{"authorization": "Bearer x"}

	masked := cfg.Sanitized()
	require.Equal(t, logging.RedactedValue, masked.Node.JWTSecret)
	require.Equal(t, logging.RedactedValue, masked.Node.SharedSecret)
	require.Equal(t, "", masked.Node.BearerToken)
	require.Equal(t, logging.RedactedValue, masked.Telemetry.Headers["authorization"])
	require.Equal(t, "secret", cfg.Node.JWTSecret, "original must be untouched")
	require.Equal(t, "Bearer x", cfg.Telemetry.Headers["authorization"])
}
