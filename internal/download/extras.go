package download

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	ioutils "github.com/asasingh14/novastream/internal/io"
	"github.com/asasingh14/novastream/internal/model"
	"github.com/asasingh14/novastream/internal/playlist"
	"github.com/asasingh14/novastream/internal/scraper"
)

// PosterFileName is the poster image written next to the episodes.
const PosterFileName = "poster.jpg"

// createExtras writes the optional poster and playlist. Failures here are
// warnings; the episodes are already on disk.
func (m *Manager) createExtras(ctx context.Context, homepage string, drama *model.Drama, logger *slog.Logger) {
	if m.settings.SavePoster {
		if err := m.savePoster(ctx, homepage, drama); err != nil {
			logger.Warn("Poster not saved", "error", err)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error saving poster: %v", err), Level: LevelWarning})
		}
	}

	if m.settings.CreatePlaylist {
		path, err := m.writePlaylist(drama)
		switch {
		case err != nil:
			logger.Warn("Playlist not written", "error", err)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating playlist: %v", err), Level: LevelWarning})
		case path != "":
			logger.Info("Playlist written", "path", path)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Created playlist for %s", drama.DisplayName), Level: LevelSuccess})
		}
	}
}

// savePoster fetches the homepage share image, fits it within
// PosterMaxSize and stores it as JPEG. An existing poster is kept.
func (m *Manager) savePoster(ctx context.Context, homepage string, drama *model.Drama) error {
	path := filepath.Join(drama.Dir, PosterFileName)
	if ioutils.FileExists(path) || m.deps.Pages == nil {
		return nil
	}

	html, err := m.deps.Pages.GetString(ctx, homepage)
	if err != nil {
		return err
	}
	posterURL := scraper.ParsePosterURL(html, homepage)
	if posterURL == "" {
		m.progress(ProgressEvent{Message: "No poster image declared on the homepage", Level: LevelVerbose})
		return nil
	}

	data, err := m.deps.Pages.Get(ctx, posterURL)
	if err != nil {
		return err
	}
	poster, err := m.imageService.Poster(ctx, data, m.settings.PosterMaxSize)
	if err != nil {
		return err
	}
	if err := ioutils.WriteFileAtomic(path, poster, 0644); err != nil {
		return err
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Saved poster for %s", drama.DisplayName), Level: LevelVerbose})
	return nil
}

// writePlaylist lists the episode files in the drama directory. It returns
// an empty path when there is nothing to list.
func (m *Manager) writePlaylist(drama *model.Drama) (string, error) {
	entries, err := playlist.Scan(drama.Dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}

	path := filepath.Join(drama.Dir, m.playlist.FileName())
	content := m.playlist.Create(drama.DisplayName, entries)
	if err := ioutils.WriteFileAtomic(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}
