// Package ioutils groups the small file system helpers shared by the
// downloader, the queue store and the poster writer.
//
// # Files
//
//	ioutils.EnsureDir("/videos/My_Show")
//	if ioutils.FileExists(out) { /* skip */ }
//	ioutils.RemoveIfExists(partial)
//	ioutils.WriteFileAtomic(queuePath, data, 0644)
//
// # Posters
//
//	svc := ioutils.NewImageService()
//	jpegBytes, err := svc.Poster(ctx, downloaded, 1000)
package ioutils
