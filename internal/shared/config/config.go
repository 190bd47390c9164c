package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port                   string
	Env                    string
	AnalyzerBaseURL        string
	AnalyzerTimeout        time.Duration
	AnalyzerConnectTimeout time.Duration
	MaxUploadBytes         int64
	CORSAllowOrigin        []string
	AnalyzeRatePerMinute   float64
	AnalyzeBurst           int
	LogLevel               string
	LogFormat              string
}

const (
	defaultAnalyzerBaseURL = "http://localhost:5000"
	defaultMaxUploadBytes  = 32 << 20
)

// Load reads configuration from the environment, an optional config.yaml and .env files.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// A missing config file is fine; everything has a default or an env override.
	_ = v.ReadInConfig()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "dev")
	v.SetDefault("analyzer_base_url", defaultAnalyzerBaseURL)
	v.SetDefault("analyzer_timeout", "0s")
	v.SetDefault("analyzer_connect_timeout", "10s")
	v.SetDefault("max_upload_bytes", defaultMaxUploadBytes)
	v.SetDefault("cors_allow_origins", "")
	v.SetDefault("analyze_rate_per_minute", 30)
	v.SetDefault("analyze_burst", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// FromViper builds a Config from an already-populated viper instance.
func FromViper(v *viper.Viper) Config {
	maxUpload := v.GetInt64("max_upload_bytes")
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	timeout := v.GetDuration("analyzer_timeout")
	if timeout < 0 {
		timeout = 0
	}
	connectTimeout := v.GetDuration("analyzer_connect_timeout")
	if connectTimeout < 0 {
		connectTimeout = 0
	}

	return Config{
		Port:                   strings.TrimSpace(v.GetString("port")),
		Env:                    normalizeEnv(v.GetString("env")),
		AnalyzerBaseURL:        normalizeBaseURL(v.GetString("analyzer_base_url")),
		AnalyzerTimeout:        timeout,
		AnalyzerConnectTimeout: connectTimeout,
		MaxUploadBytes:         maxUpload,
		CORSAllowOrigin:        splitAndTrim(v.GetString("cors_allow_origins")),
		AnalyzeRatePerMinute:   nonNegative(v.GetFloat64("analyze_rate_per_minute")),
		AnalyzeBurst:           max(v.GetInt("analyze_burst"), 0),
		LogLevel:               strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat:              strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
	}
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeBaseURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return defaultAnalyzerBaseURL
	}
	return trimmed
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
