package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/asasingh14/novastream/internal/browser"
	"github.com/asasingh14/novastream/internal/config"
	"github.com/asasingh14/novastream/internal/http"
	ioutils "github.com/asasingh14/novastream/internal/io"
	"github.com/asasingh14/novastream/internal/logging"
	"github.com/asasingh14/novastream/internal/manifest"
	"github.com/asasingh14/novastream/internal/model"
	"github.com/asasingh14/novastream/internal/notify"
	"github.com/asasingh14/novastream/internal/playlist"
	"github.com/asasingh14/novastream/internal/scraper"
	"github.com/asasingh14/novastream/internal/selector"
	"github.com/asasingh14/novastream/internal/transcode"
)

// Errors that abort a run before any episode is dispatched.
var (
	// ErrInvalidRequest means the Request itself is unusable.
	ErrInvalidRequest = errors.New("invalid download request")

	// ErrPromptDeclined means the user declined to enter an episode count.
	ErrPromptDeclined = errors.New("episode count prompt declined")

	// ErrNoEpisodes means no episode could be resolved for the URL.
	ErrNoEpisodes = errors.New("no episodes to download")

	// ErrNoSelection means episodes were found but neither a selector nor
	// download-all was given.
	ErrNoSelection = errors.New("episodes found but none selected")
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

func (l ProgressLevel) slogLevel() slog.Level {
	switch l {
	case LevelVerbose:
		return slog.LevelDebug
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
	// Episode is the episode number, or 0 for session-level events.
	Episode int
}

// LinkFinder discovers the episodes linked from a drama homepage.
// scraper.Scraper implements it.
type LinkFinder interface {
	FindEpisodeLinks(ctx context.Context, homepage string) []model.Episode
}

// Prompter asks the user for the total episode count when a homepage lists
// none. ok is false when the user declines.
type Prompter interface {
	PromptTotal(ctx context.Context) (total int, ok bool, err error)
}

// Deps are the external services a run talks to.
type Deps struct {
	Pages      PageFetcher
	Links      LinkFinder
	Manifests  ManifestFetcher
	Transcoder transcode.Transcoder
	Notifier   notify.Notifier
}

// NewDeps wires the production services: an HTTP client, a Chrome launcher
// shared by the scraper fallback and the manifest sniffer, ffmpeg and the
// configured notifier.
func NewDeps(settings *config.Settings, logger *slog.Logger) Deps {
	client := http.NewClient(settings.HTTPTimeout(), settings.UserAgent)
	launcher := browser.NewLauncher(browser.Options{
		ExecPath:  settings.ChromePath,
		Headless:  settings.Headless,
		NoSandbox: settings.NoSandbox,
		Timeout:   settings.BrowserTimeout(),
		UserAgent: settings.UserAgent,
	})

	return Deps{
		Pages:      client,
		Links:      scraper.New(client, launcher, settings.ScrapeSettle(), logger),
		Manifests:  manifest.NewSniffer(launcher, settings.ManifestSettle()),
		Transcoder: transcode.NewFFmpeg(settings.FFmpegPath),
		Notifier:   notify.New(settings),
	}
}

// Request describes one drama download.
type Request struct {
	URL        string
	Name       string
	BaseOutput string

	// DownloadAll takes every scraped episode, or prompts for a count when
	// the homepage lists none.
	DownloadAll bool

	// Episodes is a range selector such as "1,3-5".
	Episodes string

	Workers  int
	Throttle int
	Retries  int

	// CleanupOnCancel removes the drama directory when the run is cancelled.
	CleanupOnCancel bool
}

// NewRequest returns a Request for url using the settings defaults.
func NewRequest(settings *config.Settings, url string) Request {
	return Request{
		URL:        url,
		BaseOutput: settings.OutputDir,
		Workers:    settings.Workers,
		Throttle:   settings.Throttle,
		Retries:    settings.Retries,
	}
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	Dir       string
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Duration  time.Duration
	Cancelled bool
}

// Manager coordinates drama downloads.
type Manager struct {
	settings     *config.Settings
	deps         Deps
	prompter     Prompter
	playlist     *playlist.Creator
	imageService *ioutils.ImageService

	totalEpisodes int32
	completed     int32
	succeeded     int32
	failed        int32
	cancelled     atomic.Bool

	onProgress func(ProgressEvent)
	mu         sync.Mutex
	token      *CancelToken
	stop       context.CancelFunc
}

// NewManager creates a new download Manager. prompter may be nil, in which
// case the episode count prompt is always declined.
func NewManager(settings *config.Settings, deps Deps, prompter Prompter, onProgress func(ProgressEvent)) *Manager {
	if deps.Notifier == nil {
		deps.Notifier = notify.Noop{}
	}
	return &Manager{
		settings:     settings,
		deps:         deps,
		prompter:     prompter,
		playlist:     playlist.NewCreator(playlist.ParseFormat(settings.PlaylistFormat), settings.M3UExtended),
		imageService: ioutils.NewImageService(),
		onProgress:   onProgress,
		token:        NewCancelToken(),
	}
}

// Run downloads the episodes described by req.
//
// Per-episode failures are counted in the Summary. Run only returns an
// error when no episode set can be resolved, see ErrNoEpisodes,
// ErrNoSelection and ErrPromptDeclined. A cancelled run returns its partial
// Summary with Cancelled set.
func (m *Manager) Run(ctx context.Context, req Request) (*Summary, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("%w: empty url", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.BaseOutput) == "" {
		req.BaseOutput = m.settings.OutputDir
	}
	workers := max(req.Workers, 1)

	drama := model.NewDrama(req.Name, req.URL, req.BaseOutput)
	if err := ioutils.EnsureDir(drama.Dir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	session, err := logging.OpenSession(drama.Dir, logging.ParseLevel(m.settings.LogLevel))
	if err != nil {
		return nil, err
	}
	defer session.Close()
	logger := session.Logger

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	token := m.begin(stop)

	start := time.Now()
	logger.Info("Session start", "url", req.URL, "dir", drama.Dir, "workers", workers, "retries", req.Retries, "throttle", req.Throttle)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Saving to %s", drama.Dir), Level: LevelInfo})

	episodes, err := m.resolveEpisodes(ctx, req, logger)
	if m.stopped(ctx) {
		// Cancelled while scraping or prompting: nothing was dispatched.
		summary := &Summary{Dir: drama.Dir, Duration: time.Since(start), Cancelled: true}
		logger.Warn("Session canceled while resolving episodes")
		m.finishCancelled(session, req, drama.Dir)
		return summary, nil
	}
	if err != nil {
		if errors.Is(err, ErrPromptDeclined) {
			logger.Info("Download canceled by user")
		} else {
			logger.Error("Episode resolution failed", "error", err)
		}
		return nil, err
	}

	summary := &Summary{Dir: drama.Dir, Total: len(episodes)}
	atomic.StoreInt32(&m.totalEpisodes, int32(len(episodes)))
	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloading %d episodes with %d workers", len(episodes), workers), Level: LevelInfo})

	downloader := NewDownloader(m.deps, logger, m.onProgress).
		WithTitleTimeout(m.settings.HTTPTimeout()).
		WithRetryDelay(m.settings.RetryDelay)

	var skipped int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, ep := range episodes {
		if m.stopped(ctx) {
			break
		}
		job := model.Job{
			DramaName: drama.FolderName,
			Episode:   ep.Number,
			URL:       ep.URL,
			OutputDir: drama.Dir,
			Throttle:  req.Throttle,
			Retries:   req.Retries,
		}
		g.Go(func() error {
			if m.stopped(gctx) {
				return nil
			}
			outcome, err := downloader.Download(gctx, job, token)
			if err != nil {
				m.progress(ProgressEvent{Message: fmt.Sprintf("[#%d] %v", job.Episode, err), Level: LevelError, Episode: job.Episode})
				logger.Error("Invalid job", "episode", job.Episode, "error", err)
			}
			if outcome.Skipped {
				atomic.AddInt32(&skipped, 1)
			}
			m.record(outcome.Success)
			return nil
		})
	}
	_ = g.Wait()

	summary.Succeeded = int(atomic.LoadInt32(&m.succeeded))
	summary.Failed = int(atomic.LoadInt32(&m.failed))
	summary.Skipped = int(atomic.LoadInt32(&skipped))
	summary.Duration = time.Since(start)
	summary.Cancelled = m.stopped(ctx)

	if summary.Cancelled {
		logger.Warn("Session canceled", "succeeded", summary.Succeeded, "failed", summary.Failed)
		m.finishCancelled(session, req, drama.Dir)
		if req.CleanupOnCancel {
			return summary, nil
		}
	} else {
		m.createExtras(ctx, req.URL, drama, logger)
	}

	msg := fmt.Sprintf("Session complete: %d succeeded, %d failed.", summary.Succeeded, summary.Failed)
	logger.Info(msg, "dir", drama.Dir, "skipped", summary.Skipped, "duration", summary.Duration.Round(time.Second).String())

	level := LevelSuccess
	if summary.Failed > 0 || summary.Cancelled {
		level = LevelWarning
	}
	m.progress(ProgressEvent{Message: msg, Level: level})
	notify.Send(context.WithoutCancel(ctx), logger, m.deps.Notifier, fmt.Sprintf("%s Files saved in: %s", msg, drama.Dir))

	return summary, nil
}

// Cancel stops the current run: no further episodes are dispatched and every
// running transcoder group is terminated. Run returns once the workers drain.
func (m *Manager) Cancel() {
	m.cancelled.Store(true)

	m.mu.Lock()
	stop, token := m.stop, m.token
	m.mu.Unlock()

	if err := token.CancelAll(); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Cancellation failed: %v", err), Level: LevelWarning})
	}
	if stop != nil {
		stop()
	}
}

// finishCancelled reports a cancelled run and, when requested, removes the
// drama folder. The session log is closed before removal.
func (m *Manager) finishCancelled(session *logging.Session, req Request, dir string) {
	if !req.CleanupOnCancel {
		m.progress(ProgressEvent{Message: "Canceled", Level: LevelWarning})
		return
	}
	_ = session.Close()
	if err := os.RemoveAll(dir); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Cleanup error while canceling: %v", err), Level: LevelWarning})
		return
	}
	m.progress(ProgressEvent{Message: "Canceled (cleanup done)", Level: LevelWarning})
}

// GetProgress returns current episode counts.
func (m *Manager) GetProgress() (completed, succeeded, failed, total int32) {
	return atomic.LoadInt32(&m.completed), atomic.LoadInt32(&m.succeeded),
		atomic.LoadInt32(&m.failed), atomic.LoadInt32(&m.totalEpisodes)
}

// begin resets per-run state and installs a fresh cancellation token.
func (m *Manager) begin(stop context.CancelFunc) *CancelToken {
	atomic.StoreInt32(&m.totalEpisodes, 0)
	atomic.StoreInt32(&m.completed, 0)
	atomic.StoreInt32(&m.succeeded, 0)
	atomic.StoreInt32(&m.failed, 0)
	m.cancelled.Store(false)

	token := NewCancelToken()
	m.mu.Lock()
	m.token = token
	m.stop = stop
	m.mu.Unlock()
	return token
}

func (m *Manager) stopped(ctx context.Context) bool {
	return m.cancelled.Load() || ctx.Err() != nil
}

func (m *Manager) record(success bool) {
	atomic.AddInt32(&m.completed, 1)
	if success {
		atomic.AddInt32(&m.succeeded, 1)
	} else {
		atomic.AddInt32(&m.failed, 1)
	}
}

// resolveEpisodes picks the episode set, in priority order: an episode URL,
// scraped links, a prompted total, an explicit selector.
func (m *Manager) resolveEpisodes(ctx context.Context, req Request, logger *slog.Logger) ([]model.Episode, error) {
	if n, ok := scraper.EpisodeNumberInURL(req.URL); ok {
		logger.Info("URL names a single episode", "episode", n)
		return []model.Episode{{Number: n, URL: req.URL}}, nil
	}

	var found []model.Episode
	if m.deps.Links != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Looking for episodes on %s", req.URL), Level: LevelVerbose})
		found = m.deps.Links.FindEpisodeLinks(ctx, req.URL)
	}
	logger.Info("Scraped episode links", "count", len(found))

	expr := strings.TrimSpace(req.Episodes)
	var episodes []model.Episode

	switch {
	case len(found) > 0 && req.DownloadAll:
		episodes = found

	case len(found) > 0 && expr != "":
		want, err := selector.Set(expr)
		if err != nil {
			return nil, err
		}
		for _, ep := range found {
			if _, ok := want[ep.Number]; ok {
				episodes = append(episodes, ep)
			}
		}
		if len(episodes) == 0 {
			return nil, fmt.Errorf("%w: %q matches none of the %d episodes found", ErrNoEpisodes, expr, len(found))
		}

	case len(found) > 0:
		return nil, fmt.Errorf("%w: %d episodes found, choose some or download all", ErrNoSelection, len(found))

	case req.DownloadAll:
		total, err := m.promptTotal(ctx)
		if err != nil {
			return nil, err
		}
		numbers := make([]int, total)
		for i := range numbers {
			numbers[i] = i + 1
		}
		episodes = scraper.SynthesizeEpisodes(req.URL, numbers)

	case expr != "":
		numbers, err := selector.Expand(expr)
		if err != nil {
			return nil, err
		}
		episodes = scraper.SynthesizeEpisodes(req.URL, numbers)

	default:
		return nil, fmt.Errorf("%w: no episode links found on %s and no episode list given", ErrNoEpisodes, req.URL)
	}

	model.SortEpisodes(episodes)
	return episodes, nil
}

func (m *Manager) promptTotal(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.prompter == nil {
		return 0, ErrPromptDeclined
	}
	total, ok, err := m.prompter.PromptTotal(ctx)
	if err != nil {
		return 0, fmt.Errorf("prompt for episode count: %w", err)
	}
	if !ok || total < 1 {
		return 0, ErrPromptDeclined
	}
	return total, nil
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
