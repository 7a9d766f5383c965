package config

import (
	"testing"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.ListenPort != 8080 {
		t.Errorf("Expected ListenPort 8080, got %d", cfg.ListenPort)
	}
	if cfg.ListenAddr != "0.0.0.0" {
		t.Errorf("Expected ListenAddr '0.0.0.0', got %s", cfg.ListenAddr)
	}
	if cfg.LedgerRPCURL != "http://localhost:8545" {
		t.Errorf("Expected LedgerRPCURL 'http://localhost:8545', got %s", cfg.LedgerRPCURL)
	}
	if cfg.LedgerFeedbackMethod != "tipledger_submitFeedback" {
		t.Errorf("Expected LedgerFeedbackMethod 'tipledger_submitFeedback', got %s", cfg.LedgerFeedbackMethod)
	}
	if cfg.OpenWeatherBaseURL != "https://api.openweathermap.org" {
		t.Errorf("Expected OpenWeatherBaseURL 'https://api.openweathermap.org', got %s", cfg.OpenWeatherBaseURL)
	}
	if cfg.PositionStackBaseURL != "http://api.positionstack.com" {
		t.Errorf("Expected PositionStackBaseURL 'http://api.positionstack.com', got %s", cfg.PositionStackBaseURL)
	}
	if cfg.MediaGatewaySuffix != "ipfs.w3s.link" {
		t.Errorf("Expected MediaGatewaySuffix 'ipfs.w3s.link', got %s", cfg.MediaGatewaySuffix)
	}
	if cfg.GeoLiteAutoDownload {
		t.Errorf("Expected GeoLiteAutoDownload false by default")
	}
	if cfg.SessionIdleTTL != 1800 {
		t.Errorf("Expected SessionIdleTTL 1800, got %d", cfg.SessionIdleTTL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel 'info', got %s", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("Expected CORSAllowedOrigins ['http://localhost:3000'], got %v", cfg.CORSAllowedOrigins)
	}
}

func TestNewConfigWithEnvVars(t *testing.T) {
	t.Setenv("LISTEN_PORT", "9090")
	t.Setenv("LISTEN_ADDR", "127.0.0.1")
	t.Setenv("LEDGER_RPC_URL", "http://gateway:8545")
	t.Setenv("LEDGER_TIMEOUT_SECONDS", "15")
	t.Setenv("OPENWEATHER_API_KEY", "weather-key")
	t.Setenv("POSITIONSTACK_API_KEY", "ps-key")
	t.Setenv("GEOLITE_AUTO_DOWNLOAD", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://test.com, http://example.com")

	cfg := NewConfig()

	if cfg.ListenPort != 9090 {
		t.Errorf("Expected ListenPort 9090, got %d", cfg.ListenPort)
	}
	if cfg.ListenAddr != "127.0.0.1" {
		t.Errorf("Expected ListenAddr '127.0.0.1', got %s", cfg.ListenAddr)
	}
	if cfg.LedgerRPCURL != "http://gateway:8545" {
		t.Errorf("Expected LedgerRPCURL 'http://gateway:8545', got %s", cfg.LedgerRPCURL)
	}
	if cfg.LedgerTimeout != 15 {
		t.Errorf("Expected LedgerTimeout 15, got %d", cfg.LedgerTimeout)
	}
	if cfg.OpenWeatherAPIKey != "weather-key" {
		t.Errorf("Expected OpenWeatherAPIKey 'weather-key', got %s", cfg.OpenWeatherAPIKey)
	}
	if cfg.PositionStackAPIKey != "ps-key" {
		t.Errorf("Expected PositionStackAPIKey 'ps-key', got %s", cfg.PositionStackAPIKey)
	}
	if !cfg.GeoLiteAutoDownload {
		t.Errorf("Expected GeoLiteAutoDownload true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel 'debug', got %s", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "http://example.com" || cfg.CORSAllowedOrigins[1] != "http://test.com" {
		t.Errorf("Expected sorted CORSAllowedOrigins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestInvalidEnvIntFallsBackToDefault(t *testing.T) {
	t.Setenv("LISTEN_PORT", "not-a-number")

	cfg := NewConfig()
	if cfg.ListenPort != 8080 {
		t.Errorf("Expected ListenPort fallback 8080, got %d", cfg.ListenPort)
	}
}

func TestValidate(t *testing.T) {
	if err := NewConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.ListenPort = 0 }},
		{"port too high", func(c *Config) { c.ListenPort = 70000 }},
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }},
		{"no cors origins", func(c *Config) { c.CORSAllowedOrigins = nil }},
		{"empty ledger url", func(c *Config) { c.LedgerRPCURL = " " }},
		{"empty ledger method", func(c *Config) { c.LedgerFeedbackMethod = "" }},
		{"zero ledger timeout", func(c *Config) { c.LedgerTimeout = 0 }},
		{"empty weather url", func(c *Config) { c.OpenWeatherBaseURL = "" }},
		{"empty positionstack url", func(c *Config) { c.PositionStackBaseURL = "" }},
		{"zero geocode timeout", func(c *Config) { c.GeocodeTimeout = 0 }},
		{"empty media suffix", func(c *Config) { c.MediaGatewaySuffix = "" }},
		{"empty geolite path", func(c *Config) { c.GeoLiteDBPath = "" }},
		{"auto download without url", func(c *Config) {
			c.GeoLiteAutoDownload = true
			c.GeoLiteDownloadURL = ""
		}},
		{"zero session ttl", func(c *Config) { c.SessionIdleTTL = 0 }},
		{"zero ws buffer", func(c *Config) { c.WSClientBufferSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
