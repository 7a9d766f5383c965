package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	DefaultOpenWeatherBaseURL   = "https://api.openweathermap.org"
	DefaultPositionStackBaseURL = "http://api.positionstack.com"
	defaultTimeout              = 10 * time.Second
	maxErrorBody                = 512
)

// ErrNoResult means the provider answered but had no place name for the coordinate.
var ErrNoResult = errors.New("no place found for coordinate")

// CityLookup resolves a coordinate to a city name
type CityLookup interface {
	LookupCity(ctx context.Context, lat, lng float64) (string, error)
}

// RegionLookup resolves a coordinate to a region (state) name
type RegionLookup interface {
	LookupRegion(ctx context.Context, lat, lng float64) (string, error)
}

// OpenWeatherClient reads the city name from the current-weather endpoint
type OpenWeatherClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Logger
}

// NewOpenWeatherClient creates a city lookup backed by OpenWeatherMap
func NewOpenWeatherClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *OpenWeatherClient {
	if logger == nil {
		logger = logrus.New()
	}
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenWeatherClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// LookupCity queries /data/2.5/weather and returns the "name" field
func (c *OpenWeatherClient) LookupCity(ctx context.Context, lat, lng float64) (string, error) {
	query := url.Values{}
	query.Set("lat", formatCoord(lat))
	query.Set("lon", formatCoord(lng))
	query.Set("units", "metric")
	query.Set("appid", c.apiKey)

	var result struct {
		Name string `json:"name"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/data/2.5/weather?"+query.Encode(), &result); err != nil {
		metrics.LookupTotal.WithLabelValues("openweather", "error").Inc()
		return "", fmt.Errorf("openweather lookup: %w", err)
	}

	city := strings.TrimSpace(result.Name)
	if city == "" {
		metrics.LookupTotal.WithLabelValues("openweather", "empty").Inc()
		return "", fmt.Errorf("openweather lookup: %w", ErrNoResult)
	}

	metrics.LookupTotal.WithLabelValues("openweather", "ok").Inc()
	c.logger.WithFields(logrus.Fields{
		"lat":  lat,
		"lng":  lng,
		"city": city,
	}).Debug("Resolved city name")
	return city, nil
}

// PositionStackClient reads the region from the reverse geocoding endpoint
type PositionStackClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Logger
}

// NewPositionStackClient creates a region lookup backed by positionstack
func NewPositionStackClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *PositionStackClient {
	if logger == nil {
		logger = logrus.New()
	}
	if baseURL == "" {
		baseURL = DefaultPositionStackBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &PositionStackClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// LookupRegion queries /v1/reverse and returns data[0].region
func (c *PositionStackClient) LookupRegion(ctx context.Context, lat, lng float64) (string, error) {
	query := url.Values{}
	query.Set("access_key", c.apiKey)
	query.Set("query", formatCoord(lat)+","+formatCoord(lng))

	var result struct {
		Data []struct {
			Region string `json:"region"`
		} `json:"data"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/v1/reverse?"+query.Encode(), &result); err != nil {
		metrics.LookupTotal.WithLabelValues("positionstack", "error").Inc()
		return "", fmt.Errorf("positionstack lookup: %w", err)
	}

	if len(result.Data) == 0 || strings.TrimSpace(result.Data[0].Region) == "" {
		metrics.LookupTotal.WithLabelValues("positionstack", "empty").Inc()
		return "", fmt.Errorf("positionstack lookup: %w", ErrNoResult)
	}

	region := strings.TrimSpace(result.Data[0].Region)
	metrics.LookupTotal.WithLabelValues("positionstack", "ok").Inc()
	c.logger.WithFields(logrus.Fields{
		"lat":    lat,
		"lng":    lng,
		"region": region,
	}).Debug("Resolved region name")
	return region, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to parse provider response: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
