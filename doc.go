// Package ytthumb keeps a video's thumbnail set to the profile photo of its
// most recent commenter.
//
// # Overview
//
// Each run authorizes against the YouTube Data API, asks for the newest
// top-level comment on the configured video, and compares its author with the
// identity stored by the previous run. When the author is new the identity is
// stored, the author's high resolution channel photo is downloaded, and the
// photo is uploaded as the video thumbnail. Runs are meant to be triggered by
// cron or a systemd timer:
//
//	*/10 * * * * cd /var/lib/ytthumb && ytthumb run
//
// # Configuration
//
// Settings are loaded from, in order of priority:
//
//  1. Environment variables (YTTHUMB_*)
//  2. Config file (ytthumb.yaml, ytthumb.json or ~/.config/ytthumb/ytthumb.yaml)
//  3. Default values
//
// The only required setting is video_id, plus an OAuth client either as a
// client secrets file or as client_id and client_secret.
//
// # Error Handling
//
// A failed run carries a *StageError naming the stage and kind of failure:
//
//	var se *ytthumb.StageError
//	if errors.As(rep.Err, &se) && se.Kind == pipeline.KindAuth {
//		fmt.Println("run `ytthumb auth` to grant access again")
//	}
//
// Causes can be matched with the sentinels re-exported here:
//
//	if errors.Is(rep.Err, ytthumb.ErrQuotaExceeded) {
//		fmt.Println("daily quota used up")
//	}
//
// # Packages
//
//   - internal/pipeline: the ordered stages and the run report
//   - internal/auth: OAuth token cache and consent flow
//   - internal/youtube: Data API lookups and thumbnail upload
//   - internal/fetch: rate limited photo download with retry
//   - internal/storage: last seen commenter, atomic writes, run lock
//   - internal/history: SQLite log of past runs
//   - internal/metrics: Prometheus textfile metrics
package ytthumb
