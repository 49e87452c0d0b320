// Package model defines the core data structures used throughout NovaStream.
//
// # Drama
//
// Drama holds the naming of one series and the directory its episodes are
// written to:
//
//	d := model.NewDrama("", "https://site.example/my-show/", "/videos")
//	fmt.Println(d.Dir)                          // /videos/my_show
//	fmt.Println(d.EpisodePath(3, "The Return")) // /videos/my_show/my show - Episode 03 - The Return.mp4
//
// # Episode, Job and Outcome
//
// Episode is a resolved (number, URL) pair. Job is the unit of work handed to
// the episode downloader and Outcome is what comes back:
//
//	job := model.Job{DramaName: d.FolderName, Episode: 3, URL: epURL, OutputDir: d.Dir, Retries: 2}
//	if err := job.Validate(); err != nil {
//	    // errors.Is(err, model.ErrInvalidJob)
//	}
//
// # Titles
//
// SanitizeTitle folds accents and strips everything except ASCII letters,
// digits and spaces. ResolveTitle falls back to "Episode <n>".
package model
