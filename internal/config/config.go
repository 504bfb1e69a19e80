package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the ShopShot production backend.
type Config struct {
	Port      int
	Version   string
	Gemini    GeminiConfig
	Tokens    TokenConfig
	Telemetry TelemetryConfig
}

type GeminiConfig struct {
	APIKey        string
	AnalysisModel string
	ImageModel    string
	VideoModel    string
}

// TokenConfig seeds the in-memory ledger and plan on boot.
type TokenConfig struct {
	InitialBalance int
	Plan           string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envInt("SHOPSHOT_PORT", 8080),
		Version: envStr("SHOPSHOT_VERSION", "0.2.0"),
		Gemini: GeminiConfig{
			APIKey:        envStr("GEMINI_API_KEY", ""),
			AnalysisModel: envStr("GEMINI_ANALYSIS_MODEL", ""),
			ImageModel:    envStr("GEMINI_IMAGE_MODEL", ""),
			VideoModel:    envStr("GEMINI_VIDEO_MODEL", ""),
		},
		Tokens: TokenConfig{
			InitialBalance: envInt("SHOPSHOT_INITIAL_TOKENS", 10),
			Plan:           envStr("SHOPSHOT_PLAN", "free"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "shopshot-backend"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
