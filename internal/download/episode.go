package download

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	ioutils "github.com/asasingh14/novastream/internal/io"
	"github.com/asasingh14/novastream/internal/manifest"
	"github.com/asasingh14/novastream/internal/model"
	"github.com/asasingh14/novastream/internal/notify"
	"github.com/asasingh14/novastream/internal/scraper"
	"github.com/asasingh14/novastream/internal/transcode"
)

const defaultTitleTimeout = 15 * time.Second

// ManifestFetcher returns the manifest URLs an episode page requests.
// manifest.Sniffer implements it.
type ManifestFetcher interface {
	FetchManifests(ctx context.Context, pageURL string) ([]string, error)
}

// PageFetcher fetches pages and binary assets over HTTP. http.Client
// implements it.
type PageFetcher interface {
	GetString(ctx context.Context, url string) (string, error)
	Get(ctx context.Context, url string) ([]byte, error)
}

// Downloader turns one Job into an episode file.
//
// Per-episode problems (no title, no manifest, transcoder failure) are
// reported through the Outcome and the progress callback. The only error
// Download returns is model.ErrInvalidJob.
type Downloader struct {
	pages        PageFetcher
	manifests    ManifestFetcher
	transcoder   transcode.Transcoder
	notifier     notify.Notifier
	logger       *slog.Logger
	onProgress   func(ProgressEvent)
	titleTimeout time.Duration
	retryDelay   func(tries int) time.Duration
}

// NewDownloader creates a Downloader from deps. Events are written to logger
// and forwarded to onProgress; both may be nil.
func NewDownloader(deps Deps, logger *slog.Logger, onProgress func(ProgressEvent)) *Downloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Downloader{
		pages:        deps.Pages,
		manifests:    deps.Manifests,
		transcoder:   deps.Transcoder,
		notifier:     notifier,
		logger:       logger,
		onProgress:   onProgress,
		titleTimeout: defaultTitleTimeout,
	}
}

// WithTitleTimeout bounds the episode page fetch used to read the title.
func (d *Downloader) WithTitleTimeout(timeout time.Duration) *Downloader {
	if timeout > 0 {
		d.titleTimeout = timeout
	}
	return d
}

// WithRetryDelay sets the pause before each retry. tries counts the retries
// already made. A nil function restarts immediately.
func (d *Downloader) WithRetryDelay(delay func(tries int) time.Duration) *Downloader {
	d.retryDelay = delay
	return d
}

// DownloadEpisode runs job and reports whether the episode file is present
// afterwards.
func (d *Downloader) DownloadEpisode(ctx context.Context, job model.Job, token *CancelToken) (bool, error) {
	outcome, err := d.Download(ctx, job, token)
	return outcome.Success, err
}

// Download runs job to completion:
//
//  1. read the episode title from the page, falling back to "Episode n"
//  2. sniff the manifest URLs and pick the lexicographically smallest
//  3. skip if the output file already exists
//  4. remux with the transcoder, retrying ordinary failures up to
//     job.Retries times
//
// A killed transcoder is never retried and its partial output is removed.
func (d *Downloader) Download(ctx context.Context, job model.Job, token *CancelToken) (model.Outcome, error) {
	out := model.Outcome{Episode: job.Episode}
	if err := job.Validate(); err != nil {
		return out, err
	}
	n := job.Episode

	title := d.fetchTitle(ctx, job)

	manifests, err := d.manifests.FetchManifests(ctx, job.URL)
	if err != nil {
		if d.stopped(ctx, token) {
			return d.cancelled(ctx, out, "")
		}
		return d.fail(ctx, out, fmt.Sprintf("[#%d] Manifest retrieval error: %v", n, err)), nil
	}

	manifestURL, ok := manifest.Select(manifests)
	if !ok {
		return d.fail(ctx, out, fmt.Sprintf("[#%d] No manifest found for %s", n, job.URL)), nil
	}
	if len(manifests) > 1 {
		d.report(ctx, n, LevelVerbose, fmt.Sprintf("[#%d] %d manifests found, using %s", n, len(manifests), manifestURL), false)
	}

	out.Path = filepath.Join(job.OutputDir, model.EpisodeFileName(model.DisplayName(job.DramaName), n, title))
	name := filepath.Base(out.Path)

	if ioutils.FileExists(out.Path) {
		out.Success = true
		out.Skipped = true
		out.Status = fmt.Sprintf("[#%d] Skipping download; file already exists: %s", n, name)
		d.report(ctx, n, LevelInfo, out.Status, true)
		return out, nil
	}

	if err := ioutils.EnsureDir(job.OutputDir); err != nil {
		return d.fail(ctx, out, fmt.Sprintf("[#%d] Cannot create output directory: %v", n, err)), nil
	}

	d.report(ctx, n, LevelInfo, fmt.Sprintf("[#%d] Downloading %s", n, name), false)
	if job.Throttle > 0 {
		d.logger.Debug("throttle requested but not applied", "episode", n, "kbps", job.Throttle)
	}

	var last transcode.Result
	for attempt := 0; attempt <= job.Retries; attempt++ {
		if attempt > 0 {
			d.report(ctx, n, LevelWarning, fmt.Sprintf("[#%d] retry %d/%d", n, attempt, job.Retries), false)
			d.waitForRetry(ctx, attempt-1)
		}
		if d.stopped(ctx, token) {
			return d.cancelled(ctx, out, out.Path)
		}

		out.Attempts++
		last = d.runAttempt(ctx, manifestURL, out.Path, token)

		switch {
		case last.ExitCode == 0:
			out.Success = true
			if attempt == 0 {
				out.Status = fmt.Sprintf("[#%d] Download complete: %s", n, name)
			} else {
				out.Status = fmt.Sprintf("[#%d] Download complete on retry %d: %s", n, attempt, name)
			}
			d.report(ctx, n, LevelSuccess, out.Status, true)
			return out, nil
		case last.Killed():
			return d.cancelled(ctx, out, out.Path)
		default:
			d.report(ctx, n, LevelWarning, fmt.Sprintf("[#%d] ffmpeg exited with code %d: %s", n, last.ExitCode, stderrSummary(last.Stderr)), false)
		}
	}

	d.removePartial(n, out.Path)
	msg := fmt.Sprintf("[#%d] Download failed after %d retries", n, job.Retries)
	if s := stderrSummary(last.Stderr); s != "" {
		msg += ": " + s
	}
	return d.fail(ctx, out, msg), nil
}

func (d *Downloader) fetchTitle(ctx context.Context, job model.Job) string {
	if d.pages == nil {
		return model.DefaultTitle(job.Episode)
	}

	ctx, cancel := context.WithTimeout(ctx, d.titleTimeout)
	defer cancel()

	html, err := d.pages.GetString(ctx, job.URL)
	if err != nil {
		d.logger.Debug("episode page fetch failed, using default title", "episode", job.Episode, "error", err)
		return model.DefaultTitle(job.Episode)
	}
	return model.ResolveTitle(scraper.ParseTitle(html), job.Episode)
}

// runAttempt runs one transcoder attempt with the process registered on token.
func (d *Downloader) runAttempt(ctx context.Context, manifestURL, outPath string, token *CancelToken) transcode.Result {
	proc, err := d.transcoder.Start(ctx, manifestURL, outPath)
	if err != nil {
		return transcode.Result{ExitCode: 1, Stderr: err.Error()}
	}

	token.Register(proc)
	defer token.Unregister(proc)

	return proc.Wait()
}

func (d *Downloader) waitForRetry(ctx context.Context, tries int) {
	if d.retryDelay == nil {
		return
	}
	delay := d.retryDelay(tries)
	if delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func (d *Downloader) stopped(ctx context.Context, token *CancelToken) bool {
	return ctx.Err() != nil || token.Cancelled()
}

func (d *Downloader) fail(ctx context.Context, out model.Outcome, msg string) model.Outcome {
	out.Success = false
	out.Status = msg
	d.report(ctx, out.Episode, LevelError, msg, true)
	return out
}

// cancelled removes any partial output and reports a killed download.
func (d *Downloader) cancelled(ctx context.Context, out model.Outcome, partial string) (model.Outcome, error) {
	if partial != "" {
		d.removePartial(out.Episode, partial)
	}
	out.Success = false
	out.Status = fmt.Sprintf("[#%d] Download canceled", out.Episode)
	d.report(ctx, out.Episode, LevelWarning, out.Status, true)
	return out, nil
}

func (d *Downloader) removePartial(n int, path string) {
	if err := ioutils.RemoveIfExists(path); err != nil {
		d.logger.Warn("could not remove partial file", "episode", n, "path", path, "error", err)
	}
}

// report logs msg, forwards it to the progress callback and, when send is
// set, to the notifier. Notifications outlive ctx so a cancelled run still
// reports what happened.
func (d *Downloader) report(ctx context.Context, episode int, level ProgressLevel, msg string, send bool) {
	d.logger.Log(ctx, level.slogLevel(), msg)
	if d.onProgress != nil {
		d.onProgress(ProgressEvent{Message: msg, Level: level, Episode: episode})
	}
	if send {
		notify.Send(context.WithoutCancel(ctx), d.logger, d.notifier, msg)
	}
}

// stderrSummary returns the last non-empty line of a transcoder's stderr.
func stderrSummary(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// JobFromArgs builds a Job from positional values, accepting exactly
//
//	(drama string, episode int, url string, outputDir string)
//	(drama string, episode int, url string, outputDir string, throttle int, retries int)
//
// Any other shape returns model.ErrInvalidJob before any I/O happens.
func JobFromArgs(args ...any) (model.Job, error) {
	if len(args) != 4 && len(args) != 6 {
		return model.Job{}, fmt.Errorf("%w: expected 4 or 6 values, got %d", model.ErrInvalidJob, len(args))
	}

	var job model.Job
	var ok bool
	if job.DramaName, ok = args[0].(string); !ok {
		return model.Job{}, argTypeError(0, "string", args[0])
	}
	if job.Episode, ok = args[1].(int); !ok {
		return model.Job{}, argTypeError(1, "int", args[1])
	}
	if job.URL, ok = args[2].(string); !ok {
		return model.Job{}, argTypeError(2, "string", args[2])
	}
	if job.OutputDir, ok = args[3].(string); !ok {
		return model.Job{}, argTypeError(3, "string", args[3])
	}
	if len(args) == 6 {
		if job.Throttle, ok = args[4].(int); !ok {
			return model.Job{}, argTypeError(4, "int", args[4])
		}
		if job.Retries, ok = args[5].(int); !ok {
			return model.Job{}, argTypeError(5, "int", args[5])
		}
	}

	if err := job.Validate(); err != nil {
		return model.Job{}, err
	}
	return job, nil
}

func argTypeError(i int, want string, got any) error {
	return fmt.Errorf("%w: value %d must be %s, got %T", model.ErrInvalidJob, i, want, got)
}
