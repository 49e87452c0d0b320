package batch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/asasingh14/novastream/internal/config"
	"github.com/asasingh14/novastream/internal/download"
)

func TestParse(t *testing.T) {
	input := `URL,name,base_output,download_all,episode_list,workers
https://site.example/show-a/,Show A,/tmp/out,yes,,2
https://site.example/show-b/,,,false,1-3,
,missing url,,,,
https://site.example/show-c/,C,,1,,`

	rows, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	a := rows[0]
	if a.URL != "https://site.example/show-a/" || a.Name != "Show A" || a.BaseOutput != "/tmp/out" {
		t.Errorf("row a = %+v", a)
	}
	if !a.DownloadAll || a.Workers != 2 || a.Line != 2 {
		t.Errorf("row a = %+v", a)
	}

	b := rows[1]
	if b.DownloadAll || b.Episodes != "1-3" || b.Workers != DefaultWorkers {
		t.Errorf("row b = %+v", b)
	}

	if !rows[2].DownloadAll {
		t.Error(`download_all "1" should be true`)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no url column", "name,workers\nShow,2\n"},
		{"bad workers", "url,workers\nhttps://x.example/a/,zero\n"},
		{"zero workers", "url,workers\nhttps://x.example/a/,0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}

func TestRow_Request(t *testing.T) {
	settings := config.DefaultSettings()
	settings.OutputDir = "/default"
	settings.Retries = 5

	req := Row{URL: "https://x.example/a/", Episodes: "2"}.Request(settings)
	if req.BaseOutput != "/default" || req.Workers != settings.Workers || req.Retries != 5 {
		t.Errorf("defaults not applied: %+v", req)
	}

	req = Row{URL: "https://x.example/a/", BaseOutput: "/custom", Workers: 8}.Request(settings)
	if req.BaseOutput != "/custom" || req.Workers != 8 {
		t.Errorf("row values not applied: %+v", req)
	}
}

type fakeRunner struct {
	urls   []string
	fail   map[string]bool
	cancel string
}

func (r *fakeRunner) Run(ctx context.Context, req download.Request) (*download.Summary, error) {
	r.urls = append(r.urls, req.URL)
	if r.fail[req.URL] {
		return nil, download.ErrNoEpisodes
	}
	if req.URL == r.cancel {
		return &download.Summary{Cancelled: true}, nil
	}
	return &download.Summary{Total: 1, Succeeded: 1}, nil
}

func TestRun_Sequential(t *testing.T) {
	rows := []Row{{URL: "a"}, {URL: "b"}, {URL: "c"}}
	runner := &fakeRunner{fail: map[string]bool{"b": true}}

	results := Run(context.Background(), runner, config.DefaultSettings(), rows, nil)

	if strings.Join(runner.urls, ",") != "a,b,c" {
		t.Errorf("run order = %v", runner.urls)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if !errors.Is(results[1].Err, download.ErrNoEpisodes) {
		t.Errorf("results[1].Err = %v", results[1].Err)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	rows := []Row{{URL: "a"}, {URL: "b"}, {URL: "c"}}
	runner := &fakeRunner{cancel: "b"}

	results := Run(context.Background(), runner, config.DefaultSettings(), rows, nil)
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner = &fakeRunner{}
	if results := Run(ctx, runner, config.DefaultSettings(), rows, nil); len(results) != 0 {
		t.Errorf("cancelled context ran %d rows", len(results))
	}
}
