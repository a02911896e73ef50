package observability

import (
	"strings"

	"github.com/limaskap/limaskap/internal/config"
	"github.com/spf13/viper"
)

// Config carries the logging and telemetry knobs shared by the observability
// providers.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

// LoadConfig layers observability overrides from the environment on top of
// the application config.
func LoadConfig(cfg config.Config) Config {
	return loadConfig(cfg, newEnv())
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	v.SetDefault("OTEL_SAMPLING_RATIO", 0.1)
	return v
}

func loadConfig(cfg config.Config, env *viper.Viper) Config {
	env.SetDefault("DEPLOYMENT_ENV", cfg.Environment)
	env.SetDefault("SERVICE_VERSION", cfg.AppVersion)
	env.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)

	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "limaskap"
	}

	ratio := env.GetFloat64("OTEL_SAMPLING_RATIO")
	if ratio < 0 || ratio > 1 {
		ratio = 0.1
	}

	return Config{
		ServiceName:          name,
		Environment:          trimmed(env, "DEPLOYMENT_ENV"),
		Version:              trimmed(env, "SERVICE_VERSION"),
		LogLevel:             strings.ToLower(trimmed(env, "LOG_LEVEL")),
		LogFormat:            strings.ToLower(trimmed(env, "LOG_FORMAT")),
		OtelEnabled:          env.GetBool("OTEL_ENABLED"),
		OtelExporterEndpoint: trimmed(env, "OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelExporterProtocol: strings.ToLower(trimmed(env, "OTEL_EXPORTER_OTLP_PROTOCOL")),
		OtelSamplingRatio:    ratio,
	}
}

func trimmed(env *viper.Viper, key string) string {
	return strings.TrimSpace(env.GetString(key))
}

// Debug reports whether verbose output (stack traces, gin debug mode) is on.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}
