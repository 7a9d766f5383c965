package geolocation

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/locator"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/metrics"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/models"
	"github.com/oschwald/geoip2-golang"
	"github.com/sirupsen/logrus"
)

const (
	defaultGeoLiteDBPath   = "data/GeoLite2-City.mmdb"
	defaultGeoLiteDownload = "https://github.com/P3TERX/GeoLite.mmdb/raw/download/GeoLite2-City.mmdb"
	defaultDownloadTimeout = 60 * time.Second
	cityZoom               = 12
)

type ResolverConfig struct {
	GeoLiteDBPath      string
	GeoLiteDownloadURL string
	AutoDownload       bool
	DownloadTimeout    time.Duration
}

// Center is the initial map position offered to a location picker
type Center struct {
	Coordinate models.Coordinate `json:"coordinate"`
	Zoom       int               `json:"zoom"`
	City       string            `json:"city,omitempty"`
	Source     string            `json:"source"` // "geolite" or "default"
}

// CenterResolver picks a map center from the visitor's IP using GeoLite.
// Without a database it always answers with the default location.
type CenterResolver struct {
	logger        *logrus.Logger
	db            *geoip2.Reader
	lookupGeoByIP func(net.IP) (*Center, error)
	fallback      Center
}

// DefaultCenter is the fallback used when the visitor cannot be located.
func DefaultCenter() Center {
	return Center{Coordinate: locator.DefaultLocation, Zoom: locator.DefaultZoom, Source: "default"}
}

// NewCenterResolver opens the GeoLite2 City database, downloading it first if
// configured to. A missing or unreadable database is logged and the resolver
// falls back to DefaultCenter for every request.
func NewCenterResolver(logger *logrus.Logger, cfg ResolverConfig) *CenterResolver {
	if logger == nil {
		logger = logrus.New()
	}
	r := &CenterResolver{logger: logger, fallback: DefaultCenter()}

	cfg = withDefaults(cfg)
	if err := ensureGeoLiteDatabase(cfg, logger); err != nil {
		logger.WithError(err).Warn("GeoLite DB unavailable; using default map center")
		return r
	}

	db, err := geoip2.Open(cfg.GeoLiteDBPath)
	if err != nil {
		logger.WithError(err).WithField("path", cfg.GeoLiteDBPath).Warn("Failed to open GeoLite DB; using default map center")
		return r
	}
	r.db = db
	r.lookupGeoByIP = r.lookupGeoLiteIP
	return r
}

func withDefaults(cfg ResolverConfig) ResolverConfig {
	if strings.TrimSpace(cfg.GeoLiteDBPath) == "" {
		cfg.GeoLiteDBPath = defaultGeoLiteDBPath
	}
	if strings.TrimSpace(cfg.GeoLiteDownloadURL) == "" {
		cfg.GeoLiteDownloadURL = defaultGeoLiteDownload
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = defaultDownloadTimeout
	}
	return cfg
}

func ensureGeoLiteDatabase(cfg ResolverConfig, logger *logrus.Logger) error {
	if _, err := os.Stat(cfg.GeoLiteDBPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access GeoLite DB path %s: %w", cfg.GeoLiteDBPath, err)
	}

	if !cfg.AutoDownload {
		return fmt.Errorf("GeoLite DB not found at %s and auto-download is disabled", cfg.GeoLiteDBPath)
	}

	logger.WithFields(logrus.Fields{
		"path": cfg.GeoLiteDBPath,
		"url":  cfg.GeoLiteDownloadURL,
	}).Info("GeoLite DB missing; downloading")

	if err := downloadFile(cfg.GeoLiteDownloadURL, cfg.GeoLiteDBPath, cfg.DownloadTimeout); err != nil {
		return fmt.Errorf("failed to download GeoLite DB: %w", err)
	}

	logger.WithField("path", cfg.GeoLiteDBPath).Info("GeoLite DB downloaded")
	return nil
}

func downloadFile(url, destination string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}

	tmpPath := destination + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, destination)
}

// Close releases the underlying GeoLite reader.
func (r *CenterResolver) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CenterFor returns the map center for a client IP. It never fails: private,
// unparsable or unknown addresses get the default center.
func (r *CenterResolver) CenterFor(clientIP string) Center {
	ip := net.ParseIP(strings.TrimSpace(clientIP))
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || r.lookupGeoByIP == nil {
		metrics.LookupTotal.WithLabelValues("geolite", "skipped").Inc()
		return r.fallback
	}

	center, err := r.lookupGeoByIP(ip)
	if err != nil || center == nil {
		metrics.LookupTotal.WithLabelValues("geolite", "miss").Inc()
		r.logger.WithError(err).WithField("ip", ip.String()).Debug("GeoLite lookup missed; using default map center")
		return r.fallback
	}
	metrics.LookupTotal.WithLabelValues("geolite", "ok").Inc()
	return *center
}

func (r *CenterResolver) lookupGeoLiteIP(ip net.IP) (*Center, error) {
	record, err := r.db.City(ip)
	if err != nil {
		return nil, fmt.Errorf("GeoLite lookup failed for %s: %w", ip, err)
	}

	lat := record.Location.Latitude
	lng := record.Location.Longitude
	if lat == 0 && lng == 0 {
		return nil, fmt.Errorf("GeoLite record has no coordinates for %s", ip)
	}

	return &Center{
		Coordinate: models.Coordinate{Latitude: lat, Longitude: lng},
		Zoom:       cityZoom,
		City:       strings.TrimSpace(record.City.Names["en"]),
		Source:     "geolite",
	}, nil
}
