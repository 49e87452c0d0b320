package manifest

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/asasingh14/novastream/internal/browser"
)

// hlsContentTypes are response types that denote an HLS playlist.
var hlsContentTypes = []string{
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
	"audio/mpegurl",
	"audio/x-mpegurl",
}

// Capturer records the network requests a page makes while it loads.
type Capturer interface {
	Capture(ctx context.Context, pageURL string, settle time.Duration) ([]browser.Request, error)
}

// Sniffer extracts manifest URLs from episode pages.
type Sniffer struct {
	capturer Capturer
	settle   time.Duration
}

// NewSniffer creates a Sniffer that observes each page for settle.
func NewSniffer(capturer Capturer, settle time.Duration) *Sniffer {
	return &Sniffer{capturer: capturer, settle: settle}
}

// FetchManifests returns the distinct manifest URLs requested by pageURL,
// sorted. An empty result with a nil error means the page loaded but never
// asked for a manifest.
func (s *Sniffer) FetchManifests(ctx context.Context, pageURL string) ([]string, error) {
	reqs, err := s.capturer.Capture(ctx, pageURL, s.settle)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, r := range reqs {
		if IsManifest(r.URL, r.ContentType) {
			seen[r.URL] = struct{}{}
		}
	}

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls, nil
}

// IsManifest reports whether a request looks like an HLS playlist: either
// the URL mentions m3u8 or the response content type is an HLS type.
func IsManifest(url, contentType string) bool {
	if strings.Contains(strings.ToLower(url), "m3u8") {
		return true
	}
	ct := strings.ToLower(contentType)
	for _, t := range hlsContentTypes {
		if strings.Contains(ct, t) {
			return true
		}
	}
	return false
}

// Select returns the lexicographically smallest candidate.
func Select(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c < best {
			best = c
		}
	}
	return best, true
}
