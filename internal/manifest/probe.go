package manifest

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/grafov/m3u8"
)

// Fetcher downloads raw bytes. *http.Client from internal/http satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Variant is one rendition listed in a master playlist.
type Variant struct {
	URI        string
	Bandwidth  uint32
	Resolution string
	Codecs     string
}

// Info summarizes a manifest.
type Info struct {
	URL      string
	Master   bool
	Variants []Variant

	Segments       int
	TargetDuration time.Duration
	Duration       time.Duration
	Ended          bool
}

// Probe downloads and decodes manifestURL. Master playlists report their
// variants sorted by descending bandwidth; media playlists report segment
// count and total duration.
func Probe(ctx context.Context, fetcher Fetcher, manifestURL string) (*Info, error) {
	body, err := fetcher.Get(ctx, manifestURL)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	info, err := Decode(body)
	if err != nil {
		return nil, err
	}
	info.URL = manifestURL
	return info, nil
}

// Decode parses playlist bytes.
func Decode(data []byte) (*Info, error) {
	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(data), true)
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	info := &Info{}
	switch listType {
	case m3u8.MASTER:
		master, ok := playlist.(*m3u8.MasterPlaylist)
		if !ok {
			return nil, fmt.Errorf("decode manifest: unexpected master type %T", playlist)
		}
		info.Master = true
		for _, v := range master.Variants {
			if v == nil {
				continue
			}
			info.Variants = append(info.Variants, Variant{
				URI:        v.URI,
				Bandwidth:  v.Bandwidth,
				Resolution: v.Resolution,
				Codecs:     v.Codecs,
			})
		}
		sort.SliceStable(info.Variants, func(i, j int) bool {
			return info.Variants[i].Bandwidth > info.Variants[j].Bandwidth
		})
	case m3u8.MEDIA:
		media, ok := playlist.(*m3u8.MediaPlaylist)
		if !ok {
			return nil, fmt.Errorf("decode manifest: unexpected media type %T", playlist)
		}
		var total float64
		for _, seg := range media.Segments {
			if seg == nil {
				continue
			}
			info.Segments++
			total += seg.Duration
		}
		info.TargetDuration = floatSeconds(media.TargetDuration)
		info.Duration = floatSeconds(total)
		info.Ended = media.Closed
	default:
		return nil, fmt.Errorf("decode manifest: unknown playlist type")
	}
	return info, nil
}

func floatSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
