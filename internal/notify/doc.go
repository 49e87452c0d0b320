// Package notify forwards download events to a chat webhook.
//
// New returns a Discord-style webhook notifier when a URL is configured and
// a no-op otherwise. Messages are prefixed with the host name so several
// machines can share a channel:
//
//	n := notify.New(settings)
//	notify.Send(ctx, logger, n, "[#3] Download complete")
//	// POST {"content": "[media-box] [#3] Download complete"}
//
// Send never fails the caller; delivery errors are only logged.
package notify
