// Package queue persists the list of pending drama downloads.
//
// The queue is a JSON array in the config directory (queue_file in
// config.toml). Each entry carries the same fields as a download form: url,
// name, output directory, download-all flag, episode list, workers, throttle
// and retries.
//
//	store, err := queue.Open(settings.QueueFile)
//	entry, err := store.Add(queue.Entry{URL: "https://site.example/my-show/", DownloadAll: true})
//	_, err = store.Move(entry.ID, -1)
//
//	for _, e := range store.List() {
//	    summary, err := manager.Run(ctx, e.Request(settings))
//	}
package queue
