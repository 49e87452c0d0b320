// Package scraper discovers episode links on a drama homepage and reads
// metadata from episode pages.
//
// # Discovery
//
// FindEpisodeLinks fetches the homepage once over plain HTTP and collects
// every anchor whose href looks like an episode link ("ep3", "episode-12",
// "ep/7"). When the static page yields nothing it renders the page in a
// browser and tries again:
//
//	s := scraper.New(client, launcher, 5*time.Second, logger)
//	episodes := s.FindEpisodeLinks(ctx, "https://site.example/my-show/")
//
// The result is unique by episode number (the last link seen for a number
// wins) and sorted ascending. Failures never surface as errors; an empty
// slice means nothing was found.
//
// # Page metadata
//
// ParseTitle and ParsePosterURL read the <title> and og:image of a page.
package scraper
