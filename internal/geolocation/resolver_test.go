package geolocation

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/models"
	"github.com/sirupsen/logrus"
)

func newTestResolver(t *testing.T) *CenterResolver {
	t.Helper()
	return &CenterResolver{
		logger:   logrus.New(),
		fallback: DefaultCenter(),
	}
}

func TestCenterForUsesGeoLiteLookup(t *testing.T) {
	resolver := newTestResolver(t)

	lookupCalls := 0
	resolver.lookupGeoByIP = func(ip net.IP) (*Center, error) {
		lookupCalls++
		if ip.String() != "8.8.8.8" {
			t.Fatalf("unexpected ip lookup: %s", ip)
		}
		return &Center{
			Coordinate: models.Coordinate{Latitude: 37.3860, Longitude: -122.0840},
			Zoom:       cityZoom,
			City:       "Mountain View",
			Source:     "geolite",
		}, nil
	}

	center := resolver.CenterFor("8.8.8.8")
	if center.City != "Mountain View" || center.Source != "geolite" {
		t.Fatalf("expected GeoLite center, got %+v", center)
	}
	if center.Zoom != cityZoom {
		t.Fatalf("expected zoom %d, got %d", cityZoom, center.Zoom)
	}
	if lookupCalls != 1 {
		t.Fatalf("expected 1 lookup, got %d", lookupCalls)
	}
}

func TestCenterForSkipsPrivateAndInvalidAddresses(t *testing.T) {
	resolver := newTestResolver(t)
	resolver.lookupGeoByIP = func(ip net.IP) (*Center, error) {
		t.Fatalf("lookup should not run for %s", ip)
		return nil, nil
	}

	for _, ip := range []string{"", "not-an-ip", "127.0.0.1", "10.1.2.3", "192.168.0.5", "::1", "0.0.0.0"} {
		center := resolver.CenterFor(ip)
		if center != DefaultCenter() {
			t.Fatalf("expected default center for %q, got %+v", ip, center)
		}
	}
}

func TestCenterForFallsBackOnLookupError(t *testing.T) {
	resolver := newTestResolver(t)
	resolver.lookupGeoByIP = func(ip net.IP) (*Center, error) {
		return nil, errors.New("not found")
	}

	center := resolver.CenterFor("1.2.3.4")
	if center.Source != "default" {
		t.Fatalf("expected default center, got %+v", center)
	}
	if center.Coordinate.Latitude != 12.8996 || center.Coordinate.Longitude != 80.2209 {
		t.Fatalf("unexpected default coordinate %+v", center.Coordinate)
	}
}

func TestNewCenterResolverWithoutDatabase(t *testing.T) {
	resolver := NewCenterResolver(logrus.New(), ResolverConfig{
		GeoLiteDBPath: filepath.Join(t.TempDir(), "missing.mmdb"),
		AutoDownload:  false,
	})
	defer resolver.Close()

	if center := resolver.CenterFor("8.8.8.8"); center != DefaultCenter() {
		t.Fatalf("expected default center without database, got %+v", center)
	}
}

func TestEnsureGeoLiteDatabaseDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mmdb-bytes"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "nested", "GeoLite2-City.mmdb")
	err := ensureGeoLiteDatabase(ResolverConfig{
		GeoLiteDBPath:      path,
		GeoLiteDownloadURL: srv.URL,
		AutoDownload:       true,
		DownloadTimeout:    time.Second,
	}, logrus.New())
	if err != nil {
		t.Fatalf("ensureGeoLiteDatabase failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected downloaded file: %v", err)
	}
	if string(data) != "mmdb-bytes" {
		t.Fatalf("unexpected file content %q", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be removed")
	}
}

func TestEnsureGeoLiteDatabaseDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "GeoLite2-City.mmdb")
	err := ensureGeoLiteDatabase(ResolverConfig{
		GeoLiteDBPath:      path,
		GeoLiteDownloadURL: srv.URL,
		AutoDownload:       true,
		DownloadTimeout:    time.Second,
	}, logrus.New())
	if err == nil {
		t.Fatal("expected download failure")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("expected no database file after failed download")
	}
}
