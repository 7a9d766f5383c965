package tip

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/models"
)

const (
	DefaultMediaGateway = "ipfs.w3s.link"
	dateLayout          = "Mon Jan 02 2006"
)

// FormatDate renders epoch milliseconds as a UTC calendar date.
func FormatDate(ms uint64) string {
	return time.UnixMilli(int64(ms)).UTC().Format(dateLayout)
}

// DisplayDate decodes a wire timestamp and formats it with FormatDate.
func DisplayDate(ts models.HexNumber) (string, error) {
	ms, err := ts.Uint64()
	if err != nil {
		return "", fmt.Errorf("decode timestamp: %w", err)
	}
	return FormatDate(ms), nil
}

// MediaURL builds the content-addressed gateway URL for one attachment.
func MediaURL(gateway, ipfsHash, fileName string) string {
	if gateway == "" {
		gateway = DefaultMediaGateway
	}
	// Escape per segment so directory-style names keep their slashes.
	path := (&url.URL{Path: strings.TrimPrefix(fileName, "/")}).EscapedPath()
	return fmt.Sprintf("https://%s.%s/%s", ipfsHash, gateway, path)
}

// MediaURLs returns one URL per file name, in order.
func MediaURLs(gateway, ipfsHash string, fileNames []string) []string {
	urls := make([]string, 0, len(fileNames))
	for _, name := range fileNames {
		urls = append(urls, MediaURL(gateway, ipfsHash, name))
	}
	return urls
}
