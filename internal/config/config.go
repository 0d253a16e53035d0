package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/calgate/internal/logging"
	"github.com/teemow/calgate/internal/server"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CALGATE"

// Config keys. Flags use the same names.
const (
	KeyTransport         = "transport"
	KeyHTTPAddr          = "http-addr"
	KeyAPIKey            = "api-key"
	KeyDiscoveryInterval = "discovery-interval"
	KeyLogLevel          = "log-level"
	KeyLogFormat         = "log-format"
	KeyDebug             = "debug"
	KeyMetricsEnabled    = "metrics"
	KeyMetricsAddr       = "metrics-addr"
	KeyMaxBodyBytes      = "max-body-bytes"
	KeyConfigFile        = "config"
)

// Transports.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// apiKeyEnvVars are checked in order. API_KEY is kept for deployments
// that predate the prefixed name.
var apiKeyEnvVars = []string{EnvPrefix + "_API_KEY", "API_KEY"}

// Config holds the validated gateway settings.
type Config struct {
	Transport         string        `mapstructure:"transport" validate:"oneof=http stdio"`
	HTTPAddr          string        `mapstructure:"http-addr" validate:"required_if=Transport http"`
	APIKey            string        `mapstructure:"api-key" validate:"required_if=Transport http"`
	DiscoveryInterval time.Duration `mapstructure:"discovery-interval" validate:"gte=0"`
	LogLevel          string        `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	LogFormat         string        `mapstructure:"log-format" validate:"oneof=text json"`
	Debug             bool          `mapstructure:"debug"`
	MetricsEnabled    bool          `mapstructure:"metrics"`
	MetricsAddr       string        `mapstructure:"metrics-addr" validate:"required_if=MetricsEnabled true"`
	MaxBodyBytes      int64         `mapstructure:"max-body-bytes" validate:"gt=0"`
	ConfigFile        string        `mapstructure:"config"`
}

// RegisterFlags adds the serve flags to fs. Their defaults mirror the
// defaults applied by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyTransport, TransportHTTP, "Transport type: http or stdio")
	fs.String(KeyHTTPAddr, server.DefaultHTTPAddr, "HTTP listen address")
	fs.Duration(KeyDiscoveryInterval, server.DefaultDiscoveryInterval, "Interval between tool announcements on discovery streams (0 announces once)")
	fs.String(KeyLogLevel, "info", "Log level: debug, info, warn or error")
	fs.String(KeyLogFormat, logging.FormatText, "Log format: text or json")
	fs.Bool(KeyDebug, false, "Enable debug logging (overrides --log-level)")
	fs.Bool(KeyMetricsEnabled, false, "Serve Prometheus metrics on a dedicated listener")
	fs.String(KeyMetricsAddr, server.DefaultMetricsAddr, "Metrics listen address")
	fs.Int64(KeyMaxBodyBytes, server.DefaultMaxBodyBytes, "Maximum size of an execution request body in bytes")
	fs.String(KeyConfigFile, "", "Path to a config file (yaml, json or toml)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyTransport, TransportHTTP)
	v.SetDefault(KeyHTTPAddr, server.DefaultHTTPAddr)
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyDiscoveryInterval, server.DefaultDiscoveryInterval)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, logging.FormatText)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyMetricsEnabled, false)
	v.SetDefault(KeyMetricsAddr, server.DefaultMetricsAddr)
	v.SetDefault(KeyMaxBodyBytes, server.DefaultMaxBodyBytes)
	v.SetDefault(KeyConfigFile, "")
}

// Load resolves the configuration. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(append([]string{KeyAPIKey}, apiKeyEnvVars...)...); err != nil {
		return nil, fmt.Errorf("failed to bind API key environment: %w", err)
	}

	if flags != nil {
		if flags.Lookup(KeyAPIKey) != nil {
			return nil, fmt.Errorf("the API key must not be a flag; set %s", apiKeyEnvVars[0])
		}
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags and reports every violation by its
// config key.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config validation error: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fmt.Sprint(fe.Value()))
	case "required_if":
		if fe.Field() == KeyAPIKey {
			return fmt.Sprintf("%s is required for the http transport (set %s)", KeyAPIKey, apiKeyEnvVars[0])
		}
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must not be negative", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be positive", fe.Field())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

// Level returns the effective log level. --debug wins over --log-level.
func (c *Config) Level() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// LogValue implements slog.LogValuer with the API key masked.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String(KeyTransport, c.Transport),
		slog.String(KeyHTTPAddr, c.HTTPAddr),
		slog.String(KeyAPIKey, logging.SanitizeToken(c.APIKey)),
		slog.Duration(KeyDiscoveryInterval, c.DiscoveryInterval),
		slog.String(KeyLogLevel, c.Level().String()),
		slog.String(KeyLogFormat, c.LogFormat),
		slog.Bool(KeyMetricsEnabled, c.MetricsEnabled),
		slog.String(KeyMetricsAddr, c.MetricsAddr),
		slog.Int64(KeyMaxBodyBytes, c.MaxBodyBytes),
		slog.String(KeyConfigFile, c.ConfigFile),
	)
}
