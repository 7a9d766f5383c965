package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

type Config struct {
	// Server Configuration
	ListenPort         int
	ListenAddr         string
	CORSAllowedOrigins []string

	// Ledger Configuration
	LedgerRPCURL         string
	LedgerFeedbackMethod string
	LedgerTimeout        int // seconds

	// Reverse Geocoding Configuration
	OpenWeatherBaseURL   string
	OpenWeatherAPIKey    string
	PositionStackBaseURL string
	PositionStackAPIKey  string
	GeocodeTimeout       int // seconds

	// Media Configuration
	MediaGatewaySuffix string

	// Default Map Center Configuration
	GeoLiteDBPath       string
	GeoLiteDownloadURL  string
	GeoLiteAutoDownload bool

	// Session Configuration
	SessionIdleTTL     int // seconds
	WSClientBufferSize int

	// Logging Configuration
	LogLevel string
}

// NewConfig creates a new config from environment variables or defaults
func NewConfig() *Config {
	corsOrigins := getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	cfg := &Config{
		ListenPort:           getEnvInt("LISTEN_PORT", 8080),
		ListenAddr:           getEnv("LISTEN_ADDR", "0.0.0.0"),
		CORSAllowedOrigins:   splitCSV(corsOrigins),
		LedgerRPCURL:         getEnv("LEDGER_RPC_URL", "http://localhost:8545"),
		LedgerFeedbackMethod: getEnv("LEDGER_FEEDBACK_METHOD", "tipledger_submitFeedback"),
		LedgerTimeout:        getEnvInt("LEDGER_TIMEOUT_SECONDS", 60),
		OpenWeatherBaseURL:   getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
		OpenWeatherAPIKey:    getEnv("OPENWEATHER_API_KEY", ""),
		PositionStackBaseURL: getEnv("POSITIONSTACK_BASE_URL", "http://api.positionstack.com"),
		PositionStackAPIKey:  getEnv("POSITIONSTACK_API_KEY", ""),
		GeocodeTimeout:       getEnvInt("GEOCODE_TIMEOUT_SECONDS", 10),
		MediaGatewaySuffix:   getEnv("MEDIA_GATEWAY_SUFFIX", "ipfs.w3s.link"),
		GeoLiteDBPath:        getEnv("GEOLITE_DB_PATH", "data/GeoLite2-City.mmdb"),
		GeoLiteDownloadURL:   getEnv("GEOLITE_DOWNLOAD_URL", "https://github.com/P3TERX/GeoLite.mmdb/raw/download/GeoLite2-City.mmdb"),
		GeoLiteAutoDownload:  getEnvBool("GEOLITE_AUTO_DOWNLOAD", false),
		SessionIdleTTL:       getEnvInt("SESSION_IDLE_TTL_SECONDS", 1800), // 30 minutes
		WSClientBufferSize:   getEnvInt("WS_CLIENT_BUFFER_SIZE", 64),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return defaultVal
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	sort.Strings(out)
	return out
}

// Validate checks the configuration for validity
func (c *Config) Validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("invalid listen port: %d", c.ListenPort)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if len(c.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("at least one CORS allowed origin must be specified")
	}
	if strings.TrimSpace(c.LedgerRPCURL) == "" {
		return fmt.Errorf("ledger RPC URL cannot be empty")
	}
	if strings.TrimSpace(c.LedgerFeedbackMethod) == "" {
		return fmt.Errorf("ledger feedback method cannot be empty")
	}
	if c.LedgerTimeout <= 0 {
		return fmt.Errorf("ledger timeout must be positive: %d", c.LedgerTimeout)
	}
	if strings.TrimSpace(c.OpenWeatherBaseURL) == "" {
		return fmt.Errorf("OpenWeather base URL cannot be empty")
	}
	if strings.TrimSpace(c.PositionStackBaseURL) == "" {
		return fmt.Errorf("positionstack base URL cannot be empty")
	}
	if c.GeocodeTimeout <= 0 {
		return fmt.Errorf("geocode timeout must be positive: %d", c.GeocodeTimeout)
	}
	if strings.TrimSpace(c.MediaGatewaySuffix) == "" {
		return fmt.Errorf("media gateway suffix cannot be empty")
	}
	if strings.TrimSpace(c.GeoLiteDBPath) == "" {
		return fmt.Errorf("GeoLite DB path cannot be empty")
	}
	if c.GeoLiteAutoDownload && strings.TrimSpace(c.GeoLiteDownloadURL) == "" {
		return fmt.Errorf("GeoLite download URL cannot be empty when auto-download is enabled")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("session idle TTL must be positive: %d", c.SessionIdleTTL)
	}
	if c.WSClientBufferSize <= 0 {
		return fmt.Errorf("websocket client buffer size must be positive: %d", c.WSClientBufferSize)
	}
	return nil
}
