package playlist

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	ioutils "github.com/asasingh14/novastream/internal/io"
)

var episodeFile = regexp.MustCompile(`^(.*) - Episode (\d+) - (.*)\.mp4$`)

// Format represents supported playlist file formats.
//
// Each format has different features and compatibility:
//   - M3U: Simple text format, widely supported
//   - PLS: INI-style format, used by Winamp and VLC
//   - WPL: XML format, Windows Media Player
//   - ZPL: XML format, Zune/Groove Music
type Format int

const (
	// FormatM3U creates .m3u files (most compatible).
	// Can be extended with EXTINF lines carrying the episode title.
	FormatM3U Format = iota

	// FormatPLS creates .pls files.
	FormatPLS

	// FormatWPL creates .wpl files (Windows Media Player).
	FormatWPL

	// FormatZPL creates .zpl files (Zune/Groove Music).
	FormatZPL
)

// ParseFormat maps a config value to a Format. Unknown values mean M3U.
func ParseFormat(name string) Format {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pls":
		return FormatPLS
	case "wpl":
		return FormatWPL
	case "zpl":
		return FormatZPL
	default:
		return FormatM3U
	}
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatPLS:
		return ".pls"
	case FormatWPL:
		return ".wpl"
	case FormatZPL:
		return ".zpl"
	default:
		return ".m3u"
	}
}

// Entry is one episode file in a playlist.
type Entry struct {
	Number int
	Title  string
	// Path is the file name relative to the playlist.
	Path string
}

// Creator generates playlist files for a drama directory.
//
// Example:
//
//	creator := NewCreator(FormatM3U, true)
//	entries, _ := Scan(drama.Dir)
//	content := creator.Create(drama.DisplayName, entries)
//	os.WriteFile(filepath.Join(drama.Dir, "playlist"+FormatM3U.Extension()), []byte(content), 0644)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:-1,Episode 1 - Pilot
//	// My Show - Episode 01 - Pilot.mp4
type Creator struct {
	format   Format
	extended bool // For M3U: include EXTINF lines
}

// NewCreator creates a new Creator.
//
// Parameters:
//   - format: The playlist format to generate
//   - extended: For M3U format, whether to include #EXTINF lines
//     (ignored for other formats)
func NewCreator(format Format, extended bool) *Creator {
	return &Creator{
		format:   format,
		extended: extended,
	}
}

// FileName returns the playlist file name for this creator's format.
func (c *Creator) FileName() string {
	return "playlist" + c.format.Extension()
}

// Scan lists the episode files in dir, ordered by episode number. Files that
// do not follow the "<drama> - Episode NN - <title>.mp4" naming are ignored.
func Scan(dir string) ([]Entry, error) {
	files, err := ioutils.ListFiles(dir, ".mp4")
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, f := range files {
		name := filepath.Base(f)
		m := episodeFile.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Number: n, Title: m[3], Path: name})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Number < entries[j].Number
	})
	return entries, nil
}

// Create generates playlist content. Entry paths are written as given,
// assuming the playlist lives next to the episode files.
func (c *Creator) Create(title string, entries []Entry) string {
	switch c.format {
	case FormatPLS:
		return c.createPLS(entries)
	case FormatWPL:
		return c.createWPL(title, entries)
	case FormatZPL:
		return c.createZPL(title, entries)
	default:
		return c.createM3U(entries)
	}
}

// createM3U generates an M3U playlist.
//
// Extended M3U format (when extended=true):
//
//	#EXTM3U
//	#EXTINF:-1,Episode 1 - Pilot
//	My Show - Episode 01 - Pilot.mp4
func (c *Creator) createM3U(entries []Entry) string {
	var sb strings.Builder

	if c.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, e := range entries {
		if c.extended {
			fmt.Fprintf(&sb, "#EXTINF:-1,%s\n", entryTitle(e))
		}
		sb.WriteString(e.Path + "\n")
	}

	return sb.String()
}

// createPLS generates a PLS playlist.
//
//	[playlist]
//	File1=My Show - Episode 01 - Pilot.mp4
//	Title1=Episode 1 - Pilot
//	Length1=-1
//	NumberOfEntries=1
//	Version=2
func (c *Creator) createPLS(entries []Entry) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, e := range entries {
		idx := i + 1
		fmt.Fprintf(&sb, "File%d=%s\n", idx, e.Path)
		fmt.Fprintf(&sb, "Title%d=%s\n", idx, entryTitle(e))
		fmt.Fprintf(&sb, "Length%d=-1\n", idx)
	}

	fmt.Fprintf(&sb, "NumberOfEntries=%d\n", len(entries))
	sb.WriteString("Version=2\n")

	return sb.String()
}

func (c *Creator) createWPL(title string, entries []Entry) string {
	var sb strings.Builder

	sb.WriteString("<?wpl version=\"1.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", escapeXML(title))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, e := range entries {
		fmt.Fprintf(&sb, "      <media src=\"%s\"/>\n", escapeXML(e.Path))
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

// createZPL is WPL with item count metadata and per-entry titles.
func (c *Creator) createZPL(title string, entries []Entry) string {
	var sb strings.Builder

	sb.WriteString("<?zpl version=\"2.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", escapeXML(title))
	sb.WriteString("    <meta name=\"Generator\" content=\"NovaStream\"/>\n")
	fmt.Fprintf(&sb, "    <meta name=\"ItemCount\" content=\"%d\"/>\n", len(entries))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, e := range entries {
		fmt.Fprintf(&sb, "      <media src=\"%s\" albumTitle=\"%s\" trackTitle=\"%s\"/>\n",
			escapeXML(e.Path), escapeXML(title), escapeXML(entryTitle(e)))
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

func entryTitle(e Entry) string {
	if e.Title == "" {
		return fmt.Sprintf("Episode %d", e.Number)
	}
	return fmt.Sprintf("Episode %d - %s", e.Number, e.Title)
}

// escapeXML escapes special XML characters in a string.
func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}
