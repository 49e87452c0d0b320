// Package logging builds the slog loggers NovaStream writes to.
//
// Every drama directory gets a download.log opened in append mode, so a
// resumed session adds to the history of earlier ones. Lines look like:
//
//	2025-03-01 21:04:11,532 [INFO] [#3] Download complete path=/videos/show/...
//
// Usage:
//
//	session, err := logging.OpenSession(drama.Dir, slog.LevelInfo)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//	session.Logger.Info("Session start", "drama", drama.FolderName)
//
// Fanout combines the session log with a console logger.
package logging
