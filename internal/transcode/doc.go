// Package transcode runs ffmpeg to remux an HLS stream into an MP4 file.
//
// Each run starts ffmpeg in its own process group so that cancelling a
// download stops ffmpeg and anything it spawned:
//
//	ff := transcode.NewFFmpeg("ffmpeg")
//	proc, err := ff.Start(ctx, manifestURL, "/videos/show/Show - Episode 01 - Pilot.mp4")
//	if err != nil {
//	    return err
//	}
//	res := proc.Wait()
//	switch {
//	case res.ExitCode == 0: // done
//	case res.Killed():      // terminated through Terminate or ctx
//	default:                // ffmpeg failed, res.Stderr has the tail of its log
//	}
package transcode
