package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"videorag/pkg/ai"
	"videorag/pkg/common"
	"videorag/pkg/logger"
	"videorag/pkg/media"

	"golang.org/x/sync/errgroup"
)

// transcribeClips runs audio transcription for every clip with bounded
// parallelism. A clip whose audio extraction or transcription fails yields
// a degraded empty result instead of failing the video.
func (p *Pipeline) transcribeClips(ctx context.Context, clips []common.VideoClip) (map[string]common.ClipText, error) {
	results := make(map[string]common.ClipText, len(clips))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.parallelClips)

	for _, clip := range clips {
		group.Go(func() error {
			text := common.ClipText{ClipID: clip.ID}

			audio, err := p.media.ExtractAudio(groupCtx, clip.Path)
			if err == nil {
				text.Text, err = p.aiClient.GenerateAudioTranscription(groupCtx, audio, p.language)
			}
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				logger.Warn("Transcription degraded", "clip", clip.ID, "error", err)
				text = common.ClipText{ClipID: clip.ID, Degraded: true}
			}

			mu.Lock()
			results[clip.ID] = text
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// captionClips samples frames from every clip and asks the vision model for
// a caption, with the clip's transcript as context. Failures degrade to an
// empty caption. Extracted frames are removed whether captioning succeeds
// or not.
func (p *Pipeline) captionClips(
	ctx context.Context,
	clips []common.VideoClip,
	transcripts map[string]common.ClipText,
) (map[string]common.ClipText, error) {
	results := make(map[string]common.ClipText, len(clips))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.parallelClips)

	for _, clip := range clips {
		group.Go(func() error {
			text := common.ClipText{ClipID: clip.ID}

			caption, err := p.captionClip(groupCtx, clip, transcripts[clip.ID].Text)
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				logger.Warn("Captioning degraded", "clip", clip.ID, "error", err)
				text.Degraded = true
			} else {
				text.Text = caption
			}

			mu.Lock()
			results[clip.ID] = text
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) captionClip(ctx context.Context, clip common.VideoClip, transcript string) (string, error) {
	frameDir := filepath.Join(filepath.Dir(clip.Path), "frames")
	framePaths, err := p.media.ExtractFrames(ctx, clip.Path, p.framesPerClip, frameDir)
	if err != nil {
		return "", err
	}
	defer media.RemoveFiles(framePaths)

	frames, err := media.EncodeFrames(framePaths)
	if err != nil {
		return "", err
	}

	return p.aiClient.GenerateImageDescription(ctx,
		fmt.Sprintf(ai.CaptionPrompt, transcript),
		frames,
	)
}
