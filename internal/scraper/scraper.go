package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/asasingh14/novastream/internal/model"
)

var (
	episodeHref   = regexp.MustCompile(`(?i)(?:ep(?:isode)?[-_/]?)(\d+)`)
	episodeURLTag = regexp.MustCompile(`(?i)episode[-_](\d+)`)
)

// PageGetter fetches a page body over HTTP.
type PageGetter interface {
	GetString(ctx context.Context, url string) (string, error)
}

// Renderer returns the DOM of a page after scripts have run.
type Renderer interface {
	Render(ctx context.Context, pageURL string, settle time.Duration) (string, error)
}

// Scraper finds episode links on drama homepages.
type Scraper struct {
	pages    PageGetter
	renderer Renderer
	settle   time.Duration
	logger   *slog.Logger
}

// New creates a Scraper. renderer may be nil to disable the browser fallback.
func New(pages PageGetter, renderer Renderer, settle time.Duration, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scraper{
		pages:    pages,
		renderer: renderer,
		settle:   settle,
		logger:   logger,
	}
}

// FindEpisodeLinks returns the episodes linked from homepage.
func (s *Scraper) FindEpisodeLinks(ctx context.Context, homepage string) []model.Episode {
	var links []model.Episode

	html, err := s.pages.GetString(ctx, homepage)
	if err != nil {
		s.logger.Warn("static homepage fetch failed", "url", homepage, "error", err)
	} else {
		links, err = ParseEpisodeLinks(html, homepage)
		if err != nil {
			s.logger.Warn("static homepage parse failed", "url", homepage, "error", err)
		}
	}

	if len(links) == 0 && s.renderer != nil {
		links = s.renderedLinks(ctx, homepage)
	}

	return dedupe(links)
}

// renderedLinks runs the browser fallback. Any failure yields no links.
func (s *Scraper) renderedLinks(ctx context.Context, homepage string) []model.Episode {
	s.logger.Info("no static episode links, rendering homepage", "url", homepage)

	html, err := s.renderer.Render(ctx, homepage, s.settle)
	if err != nil {
		s.logger.Warn("homepage render failed", "url", homepage, "error", err)
		return nil
	}
	links, err := ParseEpisodeLinks(html, homepage)
	if err != nil {
		s.logger.Warn("rendered homepage parse failed", "url", homepage, "error", err)
		return nil
	}
	return links
}

// ParseEpisodeLinks extracts episode anchors from html in document order.
// Relative hrefs are resolved against base. Duplicates are kept; see
// FindEpisodeLinks for the de-duplicated form.
func ParseEpisodeLinks(html, base string) ([]model.Episode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var links []model.Episode
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		m := episodeHref.FindStringSubmatch(href)
		if m == nil {
			return
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		links = append(links, model.Episode{Number: num, URL: baseURL.ResolveReference(ref).String()})
	})
	return links, nil
}

// dedupe keeps the last URL seen per episode number and sorts ascending.
func dedupe(links []model.Episode) []model.Episode {
	byNumber := make(map[int]string, len(links))
	for _, l := range links {
		byNumber[l.Number] = l.URL
	}

	out := make([]model.Episode, 0, len(byNumber))
	for n, u := range byNumber {
		out = append(out, model.Episode{Number: n, URL: u})
	}
	model.SortEpisodes(out)
	return out
}

// EpisodeNumberInURL reports the episode number embedded in a URL such as
// ".../my-show-episode-5/".
func EpisodeNumberInURL(rawURL string) (int, bool) {
	m := episodeURLTag.FindStringSubmatch(rawURL)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SynthesizeURL builds the conventional episode URL for a homepage:
// "<homepage without trailing slash>-episode-<n>/".
func SynthesizeURL(homepage string, n int) string {
	return fmt.Sprintf("%s-episode-%d/", strings.TrimRight(homepage, "/"), n)
}

// SynthesizeEpisodes builds episodes for the given numbers with SynthesizeURL.
func SynthesizeEpisodes(homepage string, numbers []int) []model.Episode {
	eps := make([]model.Episode, 0, len(numbers))
	for _, n := range numbers {
		eps = append(eps, model.Episode{Number: n, URL: SynthesizeURL(homepage, n)})
	}
	return eps
}
