package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/asasingh14/novastream/internal/config"
	"github.com/asasingh14/novastream/internal/download"
	"github.com/asasingh14/novastream/internal/logging"
	"github.com/asasingh14/novastream/internal/queue"
	"github.com/asasingh14/novastream/internal/update"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	queuePath  string
}

func setupCLITestEnv(t *testing.T, extra string) *cliTestEnv {
	t.Helper()
	t.Setenv(config.EnvWebhookURL, "")
	t.Setenv(config.EnvOutputDir, "")

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		queuePath:  filepath.Join(base, "queue.json"),
	}
	content := fmt.Sprintf("output_dir = '%s'\nqueue_file = '%s'\n%s",
		filepath.Join(base, "out"), env.queuePath, extra)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out, err := env.run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, update.Version) {
		t.Errorf("output %q missing version", out)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	env := setupCLITestEnv(t, "workers = 0\n")
	if _, err := env.run(t, "queue", "list"); err == nil {
		t.Fatal("expected a validation error for workers = 0")
	}
}

func TestQueueCommands(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, err := env.run(t, "queue", "list")
	if err != nil || !strings.Contains(out, "Queue is empty") {
		t.Fatalf("empty list = %q, %v", out, err)
	}

	if _, err := env.run(t, "queue", "add", "https://site.example/first/", "--name", "First", "--all"); err != nil {
		t.Fatalf("queue add: %v", err)
	}
	if _, err := env.run(t, "queue", "add", "https://site.example/second/", "--episodes", "1-3", "--workers", "2"); err != nil {
		t.Fatalf("queue add: %v", err)
	}

	out, err = env.run(t, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	for _, want := range []string{"First", "https://site.example/second/", "all", "1-3", "pending"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	out, err = env.run(t, "queue", "move", "1", "1")
	if err != nil || !strings.Contains(out, "First is now #2") {
		t.Fatalf("move = %q, %v", out, err)
	}

	store, err := queue.Open(env.queuePath)
	if err != nil {
		t.Fatal(err)
	}
	entries := store.List()
	if len(entries) != 2 || entries[0].URL != "https://site.example/second/" {
		t.Fatalf("entries after move = %+v", entries)
	}
	if entries[0].Workers != 2 || entries[0].EpisodeList != "1-3" {
		t.Errorf("second entry fields = %+v", entries[0])
	}

	if _, err := env.run(t, "queue", "remove", entries[1].ID[:8]); err != nil {
		t.Fatalf("remove by prefix: %v", err)
	}
	if _, err := env.run(t, "queue", "remove", "9"); !errors.Is(err, queue.ErrNotFound) {
		t.Errorf("remove unknown = %v, want ErrNotFound", err)
	}

	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 1 {
		t.Errorf("queue length = %d, want 1", store.Len())
	}
}

func TestNotifyTest_Disabled(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out, err := env.run(t, "notify-test")
	if err != nil {
		t.Fatalf("notify-test: %v", err)
	}
	if !strings.Contains(out, "disabled") {
		t.Errorf("output = %q", out)
	}
}

func TestNotifyTest_Sends(t *testing.T) {
	var body string
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(nethttp.StatusNoContent)
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, fmt.Sprintf("webhook_url = '%s'\n", srv.URL))
	out, err := env.run(t, "notify-test")
	if err != nil {
		t.Fatalf("notify-test: %v", err)
	}
	if !strings.Contains(out, "Test notification sent") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(body, "NovaStream test notification") {
		t.Errorf("webhook body = %q", body)
	}
}

func TestScheduleValidation(t *testing.T) {
	env := setupCLITestEnv(t, "")
	tests := [][]string{
		{"schedule"},
		{"schedule", "--cron", "@daily", "--delay", "1m"},
		{"schedule", "--cron", "bogus"},
		{"schedule", "--at", "25:00"},
	}
	for _, args := range tests {
		if _, err := env.run(t, args...); err == nil {
			t.Errorf("%v should fail", args)
		}
	}
}

func TestBatchMissingFile(t *testing.T) {
	env := setupCLITestEnv(t, "")
	if _, err := env.run(t, "batch", filepath.Join(env.baseDir, "missing.csv")); err == nil {
		t.Error("batch with a missing file should fail")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in       string
		hour     int
		minute   int
		hasError bool
	}{
		{"02:30", 2, 30, false},
		{"23:59", 23, 59, false},
		{" 7:05 ", 7, 5, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noon", 0, 0, true},
		{"12", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := parseClock(tt.in)
			if (err != nil) != tt.hasError {
				t.Fatalf("parseClock(%q) error = %v", tt.in, err)
			}
			if !tt.hasError && (h != tt.hour || m != tt.minute) {
				t.Errorf("parseClock(%q) = %d:%d", tt.in, h, m)
			}
		})
	}
}

func TestRequestFlags(t *testing.T) {
	settings := config.DefaultSettings()
	settings.OutputDir = "/default"

	defaults := requestFlags{retries: -1, throttle: -1}
	req := defaults.request(settings, "https://x.example/show/")
	if req.BaseOutput != "/default" || req.Workers != settings.Workers || req.Retries != settings.Retries {
		t.Errorf("defaults not applied: %+v", req)
	}

	custom := requestFlags{output: "/custom", workers: 8, retries: 0, throttle: 500, all: true, cleanup: true}
	req = custom.request(settings, "https://x.example/show/")
	if req.BaseOutput != "/custom" || req.Workers != 8 || req.Retries != 0 || req.Throttle != 500 {
		t.Errorf("flags not applied: %+v", req)
	}
	if !req.DownloadAll || !req.CleanupOnCancel {
		t.Errorf("booleans not applied: %+v", req)
	}
}

func TestPrompter(t *testing.T) {
	total, ok, err := newPrompter(5).PromptTotal(context.Background())
	if err != nil || !ok || total != 5 {
		t.Errorf("fixed prompter = %d, %v, %v", total, ok, err)
	}

	file, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	_, ok, err = prompter{stdin: file}.PromptTotal(context.Background())
	if err != nil || ok {
		t.Errorf("non-terminal prompter should decline, got ok=%v err=%v", ok, err)
	}
}

func TestDescribeRunError(t *testing.T) {
	err := describeRunError(fmt.Errorf("wrapped: %w", download.ErrNoSelection))
	if !errors.Is(err, download.ErrNoSelection) || !strings.Contains(err.Error(), "--all") {
		t.Errorf("describeRunError = %v", err)
	}
}

func TestReportSummary(t *testing.T) {
	var out bytes.Buffer
	dir := t.TempDir()

	if err := reportSummary(&out, &download.Summary{Dir: dir, Total: 2, Succeeded: 2}); err != nil {
		t.Fatalf("reportSummary() error = %v", err)
	}
	if !strings.Contains(out.String(), "Done! Files saved in: "+dir) {
		t.Errorf("output = %q", out.String())
	}

	if err := reportSummary(&out, &download.Summary{Dir: dir, Total: 2, Failed: 1}); !errors.Is(err, errEpisodesFailed) {
		t.Errorf("failed run error = %v", err)
	}
	if err := reportSummary(&out, &download.Summary{Dir: dir, Cancelled: true}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled run error = %v", err)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Name", "Count"}, [][]string{{"a", "1"}, {"b"}}, []columnAlignment{alignLeft, alignRight})
	for _, want := range []string{"Name", "Count", "a", "b"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("no headers should render nothing")
	}
}

func TestRunQueue_LogsStatusFailures(t *testing.T) {
	settings := config.DefaultSettings()
	settings.OutputDir = t.TempDir()

	store, err := queue.Open(filepath.Join(t.TempDir(), "queue.json"))
	if err != nil {
		t.Fatal(err)
	}

	var out, logs bytes.Buffer
	sess := &session{
		settings: settings,
		manager:  download.NewManager(settings, download.Deps{}, nil, nil),
		reporter: newReporter(&out, false),
		logger:   logging.NewConsole(&logs, "info"),
	}

	// The entry is not in the store, so both status writes fail.
	entries := []queue.Entry{{ID: "gone", URL: "https://site.example/show/"}}
	if err := runQueue(context.Background(), &out, sess, store, entries); !errors.Is(err, errEpisodesFailed) {
		t.Fatalf("runQueue() error = %v, want errEpisodesFailed", err)
	}
	if got := strings.Count(logs.String(), "Queue status not saved"); got != 2 {
		t.Errorf("status warnings = %d, want 2:\n%s", got, logs.String())
	}
}
