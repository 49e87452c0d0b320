package model

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	nonAlphanumRuns = regexp.MustCompile(`[^0-9A-Za-z]+`)
	invalidFileChar = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots    = regexp.MustCompile(`\.+$`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// Drama identifies one series being downloaded and where its files live.
//
// FolderName is the filesystem-safe name used for the series directory,
// DisplayName is the human-readable form used inside episode file names.
//
// Example:
//
//	d := NewDrama("My Show", "https://site.example/my-show/", "/videos")
//	// d.FolderName  = "My_Show"
//	// d.DisplayName = "My Show"
//	// d.Dir         = "/videos/My_Show"
type Drama struct {
	// FolderName is the directory name under the base output directory.
	FolderName string

	// DisplayName is FolderName with underscores turned back into spaces.
	DisplayName string

	// Dir is the absolute or base-relative directory for this drama.
	Dir string
}

// NewDrama derives the drama naming from the user-supplied name, falling back
// to the last path segment of the homepage URL when no name is given.
func NewDrama(nameInput, homepageURL, baseOutput string) *Drama {
	folder := FolderName(nameInput, homepageURL)
	return &Drama{
		FolderName:  folder,
		DisplayName: DisplayName(folder),
		Dir:         filepath.Join(baseOutput, folder),
	}
}

// FolderName computes the series directory name.
//
// A non-empty name has its spaces replaced with underscores and any
// characters invalid in file names replaced as well. Without a name the last
// path segment of the URL is used, with every run of non-alphanumeric
// characters collapsed to a single underscore.
func FolderName(nameInput, homepageURL string) string {
	if name := strings.TrimSpace(nameInput); name != "" {
		return sanitizeFileName(strings.ReplaceAll(name, " ", "_"))
	}

	folder := nonAlphanumRuns.ReplaceAllString(lastPathSegment(homepageURL), "_")
	if folder == "" {
		return "drama"
	}
	return folder
}

// DisplayName converts a folder name to its display form.
func DisplayName(folderName string) string {
	return strings.ReplaceAll(folderName, "_", " ")
}

// EpisodePath returns the output file path for an episode of this drama.
func (d *Drama) EpisodePath(number int, title string) string {
	return filepath.Join(d.Dir, EpisodeFileName(d.DisplayName, number, title))
}

// EpisodeFileName formats "<display> - Episode <NN> - <title>.mp4".
func EpisodeFileName(displayName string, number int, title string) string {
	return sanitizeFileName(fmt.Sprintf("%s - Episode %02d - %s.mp4", displayName, number, title))
}

func lastPathSegment(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	rawURL = strings.TrimRight(rawURL, "/")
	if i := strings.LastIndex(rawURL, "/"); i >= 0 {
		return rawURL[i+1:]
	}
	return rawURL
}

// sanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Trailing dots are removed (Windows limitation)
//   - Multiple whitespace is collapsed to single space
//   - Trailing whitespace is removed
func sanitizeFileName(name string) string {
	name = invalidFileChar.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = whitespaceRuns.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}
