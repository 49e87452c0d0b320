package browser

import (
	"testing"

	"github.com/chromedp/cdproto/network"
)

func TestRecorder_MergesResponses(t *testing.T) {
	rec := newRecorder()
	rec.request("1", "https://cdn.example/master.m3u8")
	rec.request("2", "https://cdn.example/player.js")
	rec.response("2", "https://cdn.example/player.js", "application/javascript")
	rec.response("3", "https://cdn.example/stream", "application/vnd.apple.mpegurl")

	got := rec.requests()
	if len(got) != 3 {
		t.Fatalf("requests() len = %d, want 3", len(got))
	}
	if got[0].URL != "https://cdn.example/master.m3u8" || got[0].ContentType != "" {
		t.Errorf("requests()[0] = %+v", got[0])
	}
	if got[1].ContentType != "application/javascript" {
		t.Errorf("requests()[1] = %+v", got[1])
	}
	if got[2].URL != "https://cdn.example/stream" || got[2].ContentType != "application/vnd.apple.mpegurl" {
		t.Errorf("requests()[2] = %+v", got[2])
	}
}

func TestRecorder_RedirectKeepsEveryHop(t *testing.T) {
	rec := newRecorder()
	rec.request("1", "https://a.example/index.m3u8")
	rec.request("1", "https://cdn.example/signed?token=abc")
	rec.response("1", "https://cdn.example/signed?token=abc", "application/octet-stream")

	got := rec.requests()
	if len(got) != 2 {
		t.Fatalf("requests() len = %d, want 2: %+v", len(got), got)
	}
	if got[0].URL != "https://a.example/index.m3u8" || got[0].ContentType != "" {
		t.Errorf("requests()[0] = %+v", got[0])
	}
	if got[1].URL != "https://cdn.example/signed?token=abc" || got[1].ContentType != "application/octet-stream" {
		t.Errorf("requests()[1] = %+v", got[1])
	}
}

func TestHeaderValue(t *testing.T) {
	headers := network.Headers{"Content-Type": "application/x-mpegURL"}

	if got := headerValue(headers, "content-type"); got != "application/x-mpegURL" {
		t.Errorf("headerValue() = %q", got)
	}
	if got := headerValue(headers, "x-missing"); got != "" {
		t.Errorf("headerValue() = %q, want empty", got)
	}
}

func TestResponseContentType_FallsBackToMimeType(t *testing.T) {
	resp := &network.Response{MimeType: "application/vnd.apple.mpegurl"}
	if got := responseContentType(resp); got != "application/vnd.apple.mpegurl" {
		t.Errorf("responseContentType() = %q", got)
	}
}

func TestAllocatorOptions(t *testing.T) {
	base := len(NewLauncher(Options{Headless: true}).allocatorOptions())
	full := len(NewLauncher(Options{Headless: true, NoSandbox: true, ExecPath: "/usr/bin/chromium", UserAgent: "UA"}).allocatorOptions())

	if full != base+3 {
		t.Errorf("allocatorOptions() len = %d, want %d", full, base+3)
	}
}
