// Package http provides the HTTP client NovaStream uses for page fetches,
// webhook posts and release lookups.
//
// The Client in this package handles:
//   - A browser-like User-Agent header so episode pages render normally
//   - A bounded per-request timeout
//   - JSON request and response helpers
//
// # Basic Usage
//
//	client := http.NewClient(30*time.Second, "Mozilla/5.0 NovaStream")
//
//	// Fetch an episode page
//	html, err := client.GetString(ctx, "https://site.example/show-episode-3/")
//
//	// Post a webhook payload
//	err = client.PostJSON(ctx, webhookURL, map[string]string{"content": "done"})
package http
