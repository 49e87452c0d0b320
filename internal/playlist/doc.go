// Package playlist writes playlists over the episode files of a drama
// directory.
//
// Generate a playlist after a session:
//
//	entries, err := playlist.Scan(drama.Dir)
//	creator := playlist.NewCreator(playlist.FormatM3U, true) // extended M3U
//	content := creator.Create(drama.DisplayName, entries)
//	os.WriteFile(filepath.Join(drama.Dir, creator.FileName()), []byte(content), 0644)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package playlist
