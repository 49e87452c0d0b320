package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// playScript starts the first <video> on the page. Autoplay rejections are
// swallowed in the page so Evaluate never sees them.
const playScript = `(() => {
	const v = document.querySelector('video');
	if (!v) { return false; }
	v.muted = true;
	const p = v.play();
	if (p && p.catch) { p.catch(() => {}); }
	return true;
})()`

// Options configures the Chrome instance.
type Options struct {
	// ExecPath overrides Chrome discovery. Empty uses chromedp's lookup.
	ExecPath string

	// Headless runs without a window.
	Headless bool

	// NoSandbox disables the Chrome sandbox, needed in most containers.
	NoSandbox bool

	// Timeout bounds an entire Render or Capture call. Zero means no bound
	// beyond the caller's context.
	Timeout time.Duration

	// UserAgent overrides the browser user agent when set.
	UserAgent string
}

// Request is one network request observed while a page was loaded.
type Request struct {
	URL         string
	ContentType string
}

// Launcher starts short-lived Chrome sessions.
type Launcher struct {
	opts Options
}

// NewLauncher creates a Launcher.
func NewLauncher(opts Options) *Launcher {
	return &Launcher{opts: opts}
}

func (l *Launcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if l.opts.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if l.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.opts.ExecPath))
	}
	if l.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.opts.UserAgent))
	}
	return opts
}

// session allocates a browser and a tab. The returned cancel closes both.
func (l *Launcher) session(ctx context.Context) (context.Context, context.CancelFunc) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, l.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	cancelTimeout := context.CancelFunc(func() {})
	if l.opts.Timeout > 0 {
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, l.opts.Timeout)
	}

	return tabCtx, func() {
		cancelTimeout()
		cancelTab()
		cancelAlloc()
	}
}

// Render loads pageURL, waits settle for scripts to populate the DOM and
// returns the document's outer HTML.
func (l *Launcher) Render(ctx context.Context, pageURL string, settle time.Duration) (string, error) {
	tabCtx, cancel := l.session(ctx)
	defer cancel()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return html, nil
}

// Capture loads pageURL with network tracking enabled, tries to start the
// first video, waits settle and returns every request seen. Response content
// types are attached where a response arrived.
func (l *Launcher) Capture(ctx context.Context, pageURL string, settle time.Duration) ([]Request, error) {
	tabCtx, cancel := l.session(ctx)
	defer cancel()

	rec := newRecorder()
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			if e.Request != nil {
				rec.request(string(e.RequestID), e.Request.URL)
			}
		case *network.EventResponseReceived:
			if e.Response != nil {
				rec.response(string(e.RequestID), e.Response.URL, responseContentType(e.Response))
			}
		}
	})

	if err := chromedp.Run(tabCtx, network.Enable(), chromedp.Navigate(pageURL)); err != nil {
		return nil, fmt.Errorf("load %s: %w", pageURL, err)
	}

	// Playback is best effort; many players start on their own.
	var started bool
	_ = chromedp.Run(tabCtx, chromedp.Evaluate(playScript, &started))

	if err := chromedp.Run(tabCtx, chromedp.Sleep(settle)); err != nil {
		return nil, fmt.Errorf("observe %s: %w", pageURL, err)
	}

	return rec.requests(), nil
}

func responseContentType(resp *network.Response) string {
	if ct := headerValue(resp.Headers, "content-type"); ct != "" {
		return ct
	}
	return resp.MimeType
}

// headerValue looks up a header case-insensitively.
func headerValue(headers network.Headers, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return fmt.Sprint(v)
		}
	}
	return ""
}

// recorder collects requests from listener callbacks, which run on
// chromedp's event goroutine. Redirects reuse a request id; every hop is
// kept and the response is attached to the latest one.
type recorder struct {
	mu    sync.Mutex
	order []*Request
	byID  map[string]*Request
}

func newRecorder() *recorder {
	return &recorder{byID: make(map[string]*Request)}
}

func (r *recorder) request(id, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(id, url)
}

func (r *recorder) response(id, url, contentType string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byID[id]
	if !ok {
		req = r.add(id, url)
	}
	req.ContentType = contentType
}

func (r *recorder) add(id, url string) *Request {
	req := &Request{URL: url}
	r.byID[id] = req
	r.order = append(r.order, req)
	return req
}

func (r *recorder) requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Request, 0, len(r.order))
	for _, req := range r.order {
		out = append(out, *req)
	}
	return out
}
