// Package download provides the download orchestration logic for
// fetching drama episodes.
//
// # Manager
//
// The Manager coordinates a whole session:
//
//  1. Derive the drama folder and open <dir>/download.log
//  2. Resolve episodes: an episode URL, scraped links, a prompted count
//     or an explicit range selector
//  3. Download episodes concurrently with a Downloader per run
//  4. Write a poster and playlist (optional)
//  5. Log and notify "Session complete: X succeeded, Y failed."
//
// # Basic Usage
//
//	deps := download.NewDeps(settings, logger)
//	manager := download.NewManager(settings, deps, prompter, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	req := download.NewRequest(settings, "https://site.example/my-show/")
//	req.Episodes = "1-3,7"
//
//	summary, err := manager.Run(ctx, req)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Episodes
//
// Downloader.Download reads the page title, sniffs the HLS manifest, skips
// files that already exist and remuxes with ffmpeg. Ordinary transcoder
// failures are retried Request.Retries times with the backoff from
// settings.RetryCooldown and settings.RetryExponent. A killed transcoder is
// never retried and its partial file is removed.
//
// # Cancellation
//
// Manager.Cancel stops dispatching episodes and terminates every running
// ffmpeg process group through the run's CancelToken. With
// Request.CleanupOnCancel the drama directory is removed afterwards.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	    Episode int
//	}
//
// UIs that poll can use GetProgress instead.
package download
