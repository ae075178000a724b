// Package media wraps ffmpeg and ffprobe for clip segmentation and frame
// extraction. Subprocess invocations are bounded by a semaphore so a large
// fan-out of clips cannot exhaust the host's CPU.
package media

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sync/semaphore"
)

// Processor runs media subprocesses with a bounded concurrency budget.
// A Processor should be created using NewProcessor.
type Processor struct {
	ffmpegPath  string
	ffprobePath string
	sem         *semaphore.Weighted
}

// NewProcessorParams defines the configuration parameters for creating a
// new Processor.
//
// FfmpegPath and FfprobePath override the binaries resolved from PATH.
// MaxConcurrent bounds the number of simultaneous subprocesses.
type NewProcessorParams struct {
	FfmpegPath    string
	FfprobePath   string
	MaxConcurrent int64
}

// NewProcessor creates and returns a new Processor configured with the
// provided parameters.
//
// Example:
//
//	proc := media.NewProcessor(media.NewProcessorParams{
//		MaxConcurrent: 4,
//	})
func NewProcessor(params NewProcessorParams) *Processor {
	ffmpeg := params.FfmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	ffprobe := params.FfprobePath
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	maxConcurrent := params.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	return &Processor{
		ffmpegPath:  ffmpeg,
		ffprobePath: ffprobe,
		sem:         semaphore.NewWeighted(maxConcurrent),
	}
}

// ClipID derives the deterministic clip identifier for a clip index within
// a source video.
func ClipID(videoID string, index int) string {
	return fmt.Sprintf("%s_clip_%04d", videoID, index)
}

// ClipPath resolves the shared-storage location of a clip's media file.
// Every worker resolves the same path for the same clip.
func ClipPath(sharedDir, videoID, clipID string) string {
	return filepath.Join(sharedDir, videoID, "clips", clipID+".mp4")
}

// ClipObjectKey is the object-storage key for a clip's media file.
func ClipObjectKey(videoID, clipID string) string {
	return fmt.Sprintf("videos/%s/clips/%s.mp4", videoID, clipID)
}

// clipSpan computes the start/end seconds of the clip at index for a video
// of the given total duration split into fixed-length segments. The last
// clip is capped at the total duration.
func clipSpan(index int, clipDuration, totalDuration float64) (start, end float64) {
	start = float64(index) * clipDuration
	end = start + clipDuration
	if end > totalDuration {
		end = totalDuration
	}
	return start, end
}

// frameTimestamps returns count evenly spaced timestamps strictly inside
// (0, duration): the interval is duration/(count+1) and the first frame
// sits one interval in, so frames never sample the very first or last
// instant of the clip.
func frameTimestamps(duration float64, count int) []float64 {
	if count <= 0 || duration <= 0 {
		return nil
	}
	interval := duration / float64(count+1)
	out := make([]float64, count)
	for i := range out {
		out[i] = interval * float64(i+1)
	}
	return out
}
