// Package browser drives a headless Chrome through chromedp.
//
// A Launcher starts a fresh browser per call and always tears it down before
// returning. It offers two operations:
//
//	launcher := browser.NewLauncher(browser.Options{Headless: true})
//
//	// Render a JavaScript-heavy page and return its DOM
//	html, err := launcher.Render(ctx, homepageURL, 5*time.Second)
//
//	// Load a player page, try to start playback and record network traffic
//	reqs, err := launcher.Capture(ctx, episodeURL, 10*time.Second)
//	for _, r := range reqs {
//	    fmt.Println(r.URL, r.ContentType)
//	}
package browser
