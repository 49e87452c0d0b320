package scraper

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/asasingh14/novastream/internal/model"
)

type fakePages struct {
	html string
	err  error
}

func (f fakePages) GetString(ctx context.Context, url string) (string, error) {
	return f.html, f.err
}

type fakeRenderer struct {
	html   string
	err    error
	calls  int
	settle time.Duration
}

func (f *fakeRenderer) Render(ctx context.Context, pageURL string, settle time.Duration) (string, error) {
	f.calls++
	f.settle = settle
	return f.html, f.err
}

func TestParseEpisodeLinks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []model.Episode
	}{
		{
			name: "episode prefix with dash",
			html: `<a href="/show-episode-2/">2</a>`,
			want: []model.Episode{{Number: 2, URL: "https://site.example/show-episode-2/"}},
		},
		{
			name: "ep prefix with slash",
			html: `<a href="ep/7">7</a>`,
			want: []model.Episode{{Number: 7, URL: "https://site.example/my-show/ep/7"}},
		},
		{
			name: "case insensitive and absolute",
			html: `<a href="https://cdn.example/EP12">12</a>`,
			want: []model.Episode{{Number: 12, URL: "https://cdn.example/EP12"}},
		},
		{
			name: "non matching anchors ignored",
			html: `<a href="/about">About</a><a>no href</a><a href="/watch/episode_3">3</a>`,
			want: []model.Episode{{Number: 3, URL: "https://site.example/watch/episode_3"}},
		},
		{
			name: "nothing",
			html: `<html><body><p>hello</p></body></html>`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEpisodeLinks(tt.html, "https://site.example/my-show/")
			if err != nil {
				t.Fatalf("ParseEpisodeLinks() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseEpisodeLinks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindEpisodeLinks_DedupesLastWins(t *testing.T) {
	html := `<html><body>
		<a href="/show-episode-3/">3</a>
		<a href="/show-episode-1/">1</a>
		<a href="/mirror/show-episode-3/">3 again</a>
	</body></html>`

	renderer := &fakeRenderer{}
	s := New(fakePages{html: html}, renderer, time.Second, nil)
	got := s.FindEpisodeLinks(context.Background(), "https://site.example/show/")

	want := []model.Episode{
		{Number: 1, URL: "https://site.example/show-episode-1/"},
		{Number: 3, URL: "https://site.example/mirror/show-episode-3/"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindEpisodeLinks() = %v, want %v", got, want)
	}
	if renderer.calls != 0 {
		t.Errorf("renderer called %d times, want 0 when static links exist", renderer.calls)
	}
}

func TestFindEpisodeLinks_FallsBackToRenderer(t *testing.T) {
	renderer := &fakeRenderer{html: `<a href="/show-episode-4/">4</a>`}
	s := New(fakePages{html: `<div id="app"></div>`}, renderer, 5*time.Second, nil)

	got := s.FindEpisodeLinks(context.Background(), "https://site.example/show/")

	want := []model.Episode{{Number: 4, URL: "https://site.example/show-episode-4/"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindEpisodeLinks() = %v, want %v", got, want)
	}
	if renderer.calls != 1 || renderer.settle != 5*time.Second {
		t.Errorf("renderer calls=%d settle=%v", renderer.calls, renderer.settle)
	}
}

func TestFindEpisodeLinks_StaticErrorStillFallsBack(t *testing.T) {
	renderer := &fakeRenderer{html: `<a href="ep1">1</a>`}
	s := New(fakePages{err: errors.New("403")}, renderer, time.Second, nil)

	got := s.FindEpisodeLinks(context.Background(), "https://site.example/show/")
	if len(got) != 1 || got[0].Number != 1 {
		t.Errorf("FindEpisodeLinks() = %v", got)
	}
}

func TestFindEpisodeLinks_FallbackErrorIsSwallowed(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("chrome crashed")}
	s := New(fakePages{err: errors.New("timeout")}, renderer, time.Second, nil)

	got := s.FindEpisodeLinks(context.Background(), "https://site.example/show/")
	if len(got) != 0 {
		t.Errorf("FindEpisodeLinks() = %v, want empty", got)
	}
}

func TestFindEpisodeLinks_NoRenderer(t *testing.T) {
	s := New(fakePages{html: ""}, nil, time.Second, nil)
	if got := s.FindEpisodeLinks(context.Background(), "https://site.example/show/"); len(got) != 0 {
		t.Errorf("FindEpisodeLinks() = %v, want empty", got)
	}
}

func TestEpisodeNumberInURL(t *testing.T) {
	tests := []struct {
		url    string
		want   int
		wantOK bool
	}{
		{"https://site.example/show-episode-5/", 5, true},
		{"https://site.example/show/Episode_12", 12, true},
		{"https://site.example/show/", 0, false},
		{"https://site.example/show/ep-5", 0, false},
	}

	for _, tt := range tests {
		got, ok := EpisodeNumberInURL(tt.url)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("EpisodeNumberInURL(%q) = %d, %v, want %d, %v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSynthesizeEpisodes(t *testing.T) {
	got := SynthesizeEpisodes("https://site.example/show/", []int{1, 3})
	want := []model.Episode{
		{Number: 1, URL: "https://site.example/show-episode-1/"},
		{Number: 3, URL: "https://site.example/show-episode-3/"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SynthesizeEpisodes() = %v, want %v", got, want)
	}
}

func TestParseTitle(t *testing.T) {
	if got := ParseTitle(`<html><head><title>  Show Ep 1 | Site </title></head></html>`); got != "Show Ep 1 | Site" {
		t.Errorf("ParseTitle() = %q", got)
	}
	if got := ParseTitle(`<html><body></body></html>`); got != "" {
		t.Errorf("ParseTitle() = %q, want empty", got)
	}
}

func TestParsePosterURL(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"og image relative", `<meta property="og:image" content="/img/poster.webp">`, "https://site.example/img/poster.webp"},
		{"twitter fallback", `<meta name="twitter:image" content="https://cdn.example/p.jpg">`, "https://cdn.example/p.jpg"},
		{"none", `<title>x</title>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePosterURL(tt.html, "https://site.example/show/"); got != tt.want {
				t.Errorf("ParsePosterURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
