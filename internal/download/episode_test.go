package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/asasingh14/novastream/internal/model"
	"github.com/asasingh14/novastream/internal/transcode"
)

type fakePages struct {
	html   map[string]string
	assets map[string][]byte
}

func (f *fakePages) GetString(ctx context.Context, url string) (string, error) {
	if html, ok := f.html[url]; ok {
		return html, nil
	}
	return "", errors.New("not found")
}

func (f *fakePages) Get(ctx context.Context, url string) ([]byte, error) {
	if data, ok := f.assets[url]; ok {
		return data, nil
	}
	return nil, errors.New("not found")
}

type fakeManifests struct {
	byURL map[string][]string
	err   error
}

func (f *fakeManifests) FetchManifests(ctx context.Context, pageURL string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byURL[pageURL], nil
}

// allManifests answers every page with the same manifest list.
type allManifests []string

func (a allManifests) FetchManifests(ctx context.Context, pageURL string) ([]string, error) {
	return a, nil
}

type fakeProcess struct {
	result transcode.Result
}

func (p *fakeProcess) Wait() transcode.Result { return p.result }
func (p *fakeProcess) Terminate() error       { return nil }

// blockingProcess runs until terminated and then reports a kill.
type blockingProcess struct {
	once sync.Once
	done chan struct{}
}

func (p *blockingProcess) Wait() transcode.Result {
	<-p.done
	return transcode.Result{ExitCode: -1}
}

func (p *blockingProcess) Terminate() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

// fakeTranscoder writes a partial output file on every start and exits with
// the next code from codes (the last code repeats).
type fakeTranscoder struct {
	mu      sync.Mutex
	codes   []int
	block   bool
	started chan struct{}
	inputs  []string
	outputs []string
}

func (f *fakeTranscoder) Start(ctx context.Context, manifestURL, outPath string) (transcode.Process, error) {
	f.mu.Lock()
	i := len(f.inputs)
	f.inputs = append(f.inputs, manifestURL)
	f.outputs = append(f.outputs, outPath)
	code := 0
	if len(f.codes) > 0 {
		code = f.codes[min(i, len(f.codes)-1)]
	}
	f.mu.Unlock()

	if err := os.WriteFile(outPath, []byte("partial"), 0644); err != nil {
		return nil, err
	}

	if f.block {
		p := &blockingProcess{done: make(chan struct{})}
		if f.started != nil {
			select {
			case f.started <- struct{}{}:
			default:
			}
		}
		return p, nil
	}
	return &fakeProcess{result: transcode.Result{ExitCode: code, Stderr: "ffmpeg: boom\n"}}, nil
}

func (f *fakeTranscoder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(ctx context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return n.err
}

type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) add(e ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) count(substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

func (l *eventLog) contains(substr string) bool {
	return l.count(substr) > 0
}

func testJob(dir string, episode, retries int) model.Job {
	return model.Job{
		DramaName: "Show",
		Episode:   episode,
		URL:       "http://x",
		OutputDir: dir,
		Retries:   retries,
	}
}

func newTestDownloader(deps Deps) (*Downloader, *eventLog) {
	events := &eventLog{}
	return NewDownloader(deps, nil, events.add), events
}

func TestDownload_NoManifest(t *testing.T) {
	tr := &fakeTranscoder{}
	d, events := newTestDownloader(Deps{Manifests: allManifests(nil), Transcoder: tr})

	ok, err := d.DownloadEpisode(context.Background(), testJob(t.TempDir(), 1, 0), nil)
	if err != nil {
		t.Fatalf("DownloadEpisode() error = %v", err)
	}
	if ok {
		t.Error("DownloadEpisode() = true, want false without a manifest")
	}
	if !events.contains("[#1] No manifest found for http://x") {
		t.Errorf("events = %+v, want no-manifest message", events.events)
	}
	if tr.calls() != 0 {
		t.Errorf("transcoder started %d times, want 0", tr.calls())
	}
}

func TestDownload_ManifestError(t *testing.T) {
	tr := &fakeTranscoder{}
	d, events := newTestDownloader(Deps{Manifests: &fakeManifests{err: errors.New("oops")}, Transcoder: tr})

	ok, err := d.DownloadEpisode(context.Background(), testJob(t.TempDir(), 6, 0), nil)
	if err != nil || ok {
		t.Fatalf("DownloadEpisode() = %v, %v; want false, nil", ok, err)
	}
	if !events.contains("[#6] Manifest retrieval error: oops") {
		t.Errorf("events = %+v", events.events)
	}
}

func TestDownload_SkipsExistingFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "Show - Episode 01 - Episode 1.mp4")
	if err := os.WriteFile(existing, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tr := &fakeTranscoder{}
	d, events := newTestDownloader(Deps{Manifests: allManifests{"http://x/media.m3u8"}, Transcoder: tr})

	outcome, err := d.Download(context.Background(), testJob(dir, 1, 0), nil)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if !outcome.Success || !outcome.Skipped {
		t.Errorf("outcome = %+v, want skipped success", outcome)
	}
	if tr.calls() != 0 {
		t.Errorf("transcoder started %d times, want 0", tr.calls())
	}
	if !events.contains("Skipping download") {
		t.Errorf("events = %+v, want skip message", events.events)
	}
}

func TestDownload_Success(t *testing.T) {
	dir := t.TempDir()
	tr := &fakeTranscoder{codes: []int{0}}
	d, events := newTestDownloader(Deps{Manifests: allManifests{"http://x/media.m3u8"}, Transcoder: tr})

	outcome, err := d.Download(context.Background(), testJob(dir, 2, 0), nil)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if !outcome.Success || outcome.Attempts != 1 {
		t.Errorf("outcome = %+v, want success in one attempt", outcome)
	}
	if !events.contains("[#2] Download complete") {
		t.Errorf("events = %+v", events.events)
	}
	if _, err := os.Stat(outcome.Path); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestDownload_RetryThenSuccess(t *testing.T) {
	tr := &fakeTranscoder{codes: []int{1, 0}}
	d, events := newTestDownloader(Deps{Manifests: allManifests{"http://x/media.m3u8"}, Transcoder: tr})

	ok, err := d.DownloadEpisode(context.Background(), testJob(t.TempDir(), 3, 1), nil)
	if err != nil || !ok {
		t.Fatalf("DownloadEpisode() = %v, %v; want true, nil", ok, err)
	}
	if got := events.count("] retry "); got != 1 {
		t.Errorf("retry messages = %d, want 1", got)
	}
	if !events.contains("[#3] retry 1/1") {
		t.Error("missing retry 1/1 message")
	}
	if !events.contains("Download complete on retry 1") {
		t.Error("missing complete-on-retry message")
	}
	if tr.calls() != 2 {
		t.Errorf("transcoder started %d times, want 2", tr.calls())
	}
}

func TestDownload_RetriesExhausted(t *testing.T) {
	tr := &fakeTranscoder{codes: []int{1}}
	d, events := newTestDownloader(Deps{Manifests: allManifests{"http://x/media.m3u8"}, Transcoder: tr})

	outcome, err := d.Download(context.Background(), testJob(t.TempDir(), 4, 2), nil)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if outcome.Success {
		t.Error("Download() succeeded, want failure")
	}
	if outcome.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", outcome.Attempts)
	}
	for _, want := range []string{"retry 1/2", "retry 2/2", "Download failed after 2 retries: ffmpeg: boom"} {
		if !events.contains(want) {
			t.Errorf("missing %q in events", want)
		}
	}
	if got := events.count("] retry "); got != 2 {
		t.Errorf("retry messages = %d, want 2", got)
	}
	if _, err := os.Stat(outcome.Path); !os.IsNotExist(err) {
		t.Errorf("partial file should be removed, stat error = %v", err)
	}
}

func TestDownload_KilledIsNotRetried(t *testing.T) {
	tr := &fakeTranscoder{codes: []int{-1}}
	d, events := newTestDownloader(Deps{Manifests: allManifests{"http://x/media.m3u8"}, Transcoder: tr})

	outcome, err := d.Download(context.Background(), testJob(t.TempDir(), 5, 3), nil)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if outcome.Success {
		t.Error("killed download should fail")
	}
	if tr.calls() != 1 {
		t.Errorf("transcoder started %d times, want 1", tr.calls())
	}
	if events.contains("] retry ") {
		t.Error("killed download must not be retried")
	}
	if _, err := os.Stat(outcome.Path); !os.IsNotExist(err) {
		t.Errorf("partial file should be removed, stat error = %v", err)
	}
}

func TestDownload_CancelledTokenStopsBeforeStart(t *testing.T) {
	tr := &fakeTranscoder{}
	d, _ := newTestDownloader(Deps{Manifests: allManifests{"http://x/media.m3u8"}, Transcoder: tr})

	token := NewCancelToken()
	_ = token.CancelAll()

	ok, err := d.DownloadEpisode(context.Background(), testJob(t.TempDir(), 1, 2), token)
	if err != nil || ok {
		t.Fatalf("DownloadEpisode() = %v, %v; want false, nil", ok, err)
	}
	if tr.calls() != 0 {
		t.Errorf("transcoder started %d times after cancel, want 0", tr.calls())
	}
}

func TestDownload_TitleFromPage(t *testing.T) {
	dir := t.TempDir()
	pages := &fakePages{html: map[string]string{
		"http://x": "<html><head><title>My Title![]</title></head></html>",
	}}
	tr := &fakeTranscoder{}
	d, events := newTestDownloader(Deps{Pages: pages, Manifests: allManifests{"http://x/media.m3u8"}, Transcoder: tr})

	job := testJob(dir, 5, 0)
	job.DramaName = "Hey_You"

	outcome, err := d.Download(context.Background(), job, nil)
	if err != nil || !outcome.Success {
		t.Fatalf("Download() = %+v, %v", outcome, err)
	}
	want := filepath.Join(dir, "Hey You - Episode 05 - My Title.mp4")
	if outcome.Path != want {
		t.Errorf("Path = %q, want %q", outcome.Path, want)
	}
	if !events.contains("Hey You - Episode 05 - My Title.mp4") {
		t.Error("events should name the output file")
	}
}

func TestDownload_PicksSmallestManifest(t *testing.T) {
	tr := &fakeTranscoder{}
	manifests := allManifests{"http://cdn/b/index.m3u8", "http://cdn/a/index.m3u8", "http://cdn/c/index.m3u8"}
	d, _ := newTestDownloader(Deps{Manifests: manifests, Transcoder: tr})

	if _, err := d.Download(context.Background(), testJob(t.TempDir(), 1, 0), nil); err != nil {
		t.Fatal(err)
	}
	if len(tr.inputs) != 1 || tr.inputs[0] != "http://cdn/a/index.m3u8" {
		t.Errorf("transcoder inputs = %v, want the smallest manifest", tr.inputs)
	}
}

func TestDownload_InvalidJob(t *testing.T) {
	tr := &fakeTranscoder{}
	mf := &fakeManifests{}
	d, _ := newTestDownloader(Deps{Manifests: mf, Transcoder: tr})

	job := testJob(t.TempDir(), 0, 0)
	if _, err := d.Download(context.Background(), job, nil); !errors.Is(err, model.ErrInvalidJob) {
		t.Errorf("Download() error = %v, want ErrInvalidJob", err)
	}
	if tr.calls() != 0 {
		t.Error("invalid job must not reach the transcoder")
	}
}

func TestDownload_NotifierFailureDoesNotChangeOutcome(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("webhook down")}
	tr := &fakeTranscoder{}
	d, _ := newTestDownloader(Deps{Manifests: allManifests{"http://x/media.m3u8"}, Transcoder: tr, Notifier: notifier})

	ok, err := d.DownloadEpisode(context.Background(), testJob(t.TempDir(), 1, 0), nil)
	if err != nil || !ok {
		t.Fatalf("DownloadEpisode() = %v, %v; want true, nil", ok, err)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "Download complete") {
		t.Errorf("notifier messages = %v", notifier.messages)
	}
}

func TestJobFromArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []any
		wantErr bool
		want    model.Job
	}{
		{
			name: "four values",
			args: []any{"Show", 1, "http://x", "/out"},
			want: model.Job{DramaName: "Show", Episode: 1, URL: "http://x", OutputDir: "/out"},
		},
		{
			name: "six values",
			args: []any{"Show", 3, "http://x", "/out", 500, 2},
			want: model.Job{DramaName: "Show", Episode: 3, URL: "http://x", OutputDir: "/out", Throttle: 500, Retries: 2},
		},
		{name: "two values", args: []any{"bad", "args"}, wantErr: true},
		{name: "five values", args: []any{"Show", 1, "http://x", "/out", 0}, wantErr: true},
		{name: "wrong type", args: []any{"Show", "1", "http://x", "/out"}, wantErr: true},
		{name: "invalid number", args: []any{"Show", -1, "http://x", "/out"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JobFromArgs(tt.args...)
			if tt.wantErr {
				if !errors.Is(err, model.ErrInvalidJob) {
					t.Errorf("JobFromArgs() error = %v, want ErrInvalidJob", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("JobFromArgs() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("JobFromArgs() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStderrSummary(t *testing.T) {
	if got := stderrSummary("line one\nlast line\n\n"); got != "last line" {
		t.Errorf("stderrSummary() = %q", got)
	}
	if got := stderrSummary(""); got != "" {
		t.Errorf("stderrSummary(\"\") = %q", got)
	}
}
