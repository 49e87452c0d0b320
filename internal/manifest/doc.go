// Package manifest finds HLS manifest URLs behind an episode page and
// inspects them.
//
// A Sniffer loads the page through a Capturer (a real browser in production)
// and keeps the requests that look like HLS playlists:
//
//	sniffer := manifest.NewSniffer(launcher, 10*time.Second)
//	urls, err := sniffer.FetchManifests(ctx, episodeURL)
//	chosen, ok := manifest.Select(urls)
//
// Select picks the lexicographically smallest candidate, which keeps runs
// deterministic. Probe decodes a manifest with grafov/m3u8 so its variants can
// be reviewed by hand.
package manifest
