package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads. Empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		KeyTransport, KeyHTTPAddr, KeyAPIKey, KeyDiscoveryInterval, KeyLogLevel,
		KeyLogFormat, KeyDebug, KeyMetricsEnabled, KeyMetricsAddr, KeyMaxBodyBytes, KeyConfigFile,
	} {
		t.Setenv(EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, "-", "_")), "")
	}
	t.Setenv("API_KEY", "")
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CALGATE_API_KEY", "secret")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 30*time.Second, cfg.DiscoveryInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_NilFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("CALGATE_API_KEY", "secret")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.HTTPAddr)
}

func TestLoad_APIKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "legacy")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.APIKey)

	t.Setenv("CALGATE_API_KEY", "preferred")
	cfg, err = Load(newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "preferred", cfg.APIKey)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	clearEnv(t)

	_, err := Load(newFlags(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api-key")
	assert.Contains(t, err.Error(), "CALGATE_API_KEY")

	// stdio does not authenticate.
	cfg, err := Load(newFlags(t, "--transport", "stdio"))
	require.NoError(t, err)
	assert.Equal(t, TransportStdio, cfg.Transport)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("CALGATE_API_KEY", "secret")

	dir := t.TempDir()
	path := filepath.Join(dir, "calgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"http-addr: \":4000\"\n"+
			"discovery-interval: 5s\n"+
			"log-format: json\n"+
			"max-body-bytes: 2048\n"), 0o600))

	t.Setenv("CALGATE_HTTP_ADDR", ":5000")
	t.Setenv("CALGATE_DISCOVERY_INTERVAL", "10s")

	cfg, err := Load(newFlags(t, "--config", path, "--discovery-interval", "1m"))
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr, "env beats file")
	assert.Equal(t, time.Minute, cfg.DiscoveryInterval, "flag beats env")
	assert.Equal(t, "json", cfg.LogFormat, "file beats default")
	assert.Equal(t, int64(2048), cfg.MaxBodyBytes)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("CALGATE_API_KEY", "secret")

	_, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr []string
	}{
		{
			name:    "unknown transport",
			args:    []string{"--transport", "grpc"},
			wantErr: []string{"transport must be one of [http stdio]", `"grpc"`},
		},
		{
			name:    "negative interval",
			args:    []string{"--discovery-interval", "-1s"},
			wantErr: []string{"discovery-interval must not be negative"},
		},
		{
			name:    "bad log format",
			args:    []string{"--log-format", "xml"},
			wantErr: []string{"log-format must be one of"},
		},
		{
			name:    "bad log level",
			env:     map[string]string{"CALGATE_LOG_LEVEL": "verbose"},
			wantErr: []string{"log-level must be one of"},
		},
		{
			name:    "metrics without address",
			args:    []string{"--metrics", "--metrics-addr", ""},
			wantErr: []string{"metrics-addr is required"},
		},
		{
			name:    "zero body limit",
			args:    []string{"--max-body-bytes", "0"},
			wantErr: []string{"max-body-bytes must be positive"},
		},
		{
			name:    "several problems",
			args:    []string{"--transport", "grpc", "--max-body-bytes", "0"},
			wantErr: []string{"transport", "max-body-bytes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CALGATE_API_KEY", "secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(newFlags(t, tt.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
			assert.NotContains(t, err.Error(), "MaxBodyBytes", "errors name config keys")
		})
	}
}

func TestLoad_RejectsAPIKeyFlag(t *testing.T) {
	clearEnv(t)

	fs := newFlags(t)
	fs.String(KeyAPIKey, "", "")

	_, err := Load(fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be a flag")
}

func TestConfig_Level(t *testing.T) {
	cfg := &Config{LogLevel: "warn"}
	assert.Equal(t, slog.LevelWarn, cfg.Level())

	cfg.Debug = true
	assert.Equal(t, slog.LevelDebug, cfg.Level())

	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "bogus"}).Level())
}

func TestConfig_LogValueRedactsKey(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg := &Config{Transport: TransportHTTP, APIKey: "super-secret-key", LogLevel: "info"}
	logger.Info("loaded", slog.Any("config", cfg))

	out := buf.String()
	assert.NotContains(t, out, "super-secret-key")
	assert.Contains(t, out, "config.api-key=\"[token:16 chars]\"")
	assert.Contains(t, out, "config.transport=http")
}
