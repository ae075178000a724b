package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"videorag/pkg/ai"
	"videorag/pkg/common"
)

// ProbeDuration returns the duration of a media file in seconds.
func (p *Processor) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer p.sem.Release(1)

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned non-numeric duration for %s: %w", path, err)
	}
	return duration, nil
}

// SegmentVideo splits the source video into fixed-duration clips under
// destDir using stream copy, and returns the clips in playback order with
// their start/end times. A video shorter than the clip duration yields a
// single clip.
func (p *Processor) SegmentVideo(
	ctx context.Context,
	videoPath string,
	videoID string,
	destDir string,
	clipDurationSec float64,
) ([]common.VideoClip, error) {
	totalDuration, err := p.ProbeDuration(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create clip directory: %w", err)
	}

	pattern := filepath.Join(destDir, videoID+"_clip_%04d.mp4")

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-y",
		"-i", videoPath,
		"-c", "copy",
		"-map", "0",
		"-segment_time", strconv.FormatFloat(clipDurationSec, 'f', -1, 64),
		"-f", "segment",
		"-reset_timestamps", "1",
		pattern,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err = cmd.Run()
	p.sem.Release(1)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg segmentation failed: %w (%s)", err, truncateStderr(stderr.String()))
	}

	paths, err := filepath.Glob(filepath.Join(destDir, videoID+"_clip_*.mp4"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("segmentation produced no clips for %s", videoPath)
	}
	sort.Strings(paths)

	clips := make([]common.VideoClip, 0, len(paths))
	for i, path := range paths {
		start, end := clipSpan(i, clipDurationSec, totalDuration)
		clips = append(clips, common.VideoClip{
			ID:            ClipID(videoID, i),
			SourceVideoID: videoID,
			Path:          path,
			StartTime:     start,
			EndTime:       end,
		})
	}
	return clips, nil
}

// ExtractFrames samples count evenly spaced frames from the clip into
// destDir as JPEG files and returns their paths in temporal order. Callers
// own cleanup of the returned files.
func (p *Processor) ExtractFrames(
	ctx context.Context,
	clipPath string,
	count int,
	destDir string,
) ([]string, error) {
	duration, err := p.ProbeDuration(ctx, clipPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}

	timestamps := frameTimestamps(duration, count)
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("clip %s too short to sample %d frames", clipPath, count)
	}

	base := strings.TrimSuffix(filepath.Base(clipPath), filepath.Ext(clipPath))
	paths := make([]string, 0, len(timestamps))
	for i, ts := range timestamps {
		framePath := filepath.Join(destDir, fmt.Sprintf("%s_frame_%02d.jpg", base, i))

		if err := p.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		cmd := exec.CommandContext(ctx, p.ffmpegPath,
			"-y",
			"-ss", strconv.FormatFloat(ts, 'f', 3, 64),
			"-i", clipPath,
			"-vframes", "1",
			"-q:v", "2",
			framePath,
		)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		err := cmd.Run()
		p.sem.Release(1)
		if err != nil {
			return nil, fmt.Errorf("frame extraction failed at %.3fs: %w (%s)", ts, err, truncateStderr(stderr.String()))
		}
		paths = append(paths, framePath)
	}
	return paths, nil
}

// ExtractAudio transcodes the clip's audio track to mp3 and returns the
// encoded bytes, keeping transcription payloads small.
func (p *Processor) ExtractAudio(ctx context.Context, clipPath string) ([]byte, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-i", clipPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-f", "mp3",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("audio extraction failed for %s: %w (%s)", clipPath, err, truncateStderr(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// EncodeFrames reads extracted JPEG frames and wraps them as base64 data
// for the vision model.
func EncodeFrames(paths []string) ([]ai.FrameImage, error) {
	frames := make([]ai.FrameImage, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read frame %s: %w", path, err)
		}
		frames = append(frames, ai.FrameImage{
			FileType: "data:image/jpeg;base64,",
			Base64:   base64.StdEncoding.EncodeToString(raw),
		})
	}
	return frames, nil
}

// RemoveFiles deletes extracted frame files, ignoring files already gone.
func RemoveFiles(paths []string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}

func truncateStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 400 {
		return s[len(s)-400:]
	}
	return s
}
