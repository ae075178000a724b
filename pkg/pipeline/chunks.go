package pipeline

import (
	"fmt"
	"strings"

	"videorag/pkg/common"
)

// chunkSeparator joins the per-clip blocks of one chunk.
const chunkSeparator = "\n---\n"

// BuildChunks groups consecutive clips into text chunks of clipsPerChunk
// clips each. Every clip contributes one block carrying its id, caption and
// transcript; clips whose caption or transcript is missing contribute an
// empty field rather than being skipped, so chunk boundaries stay aligned
// with playback order.
func BuildChunks(
	videoID string,
	clips []common.VideoClip,
	captions map[string]string,
	transcripts map[string]string,
	clipsPerChunk int,
) []common.TextChunk {
	if clipsPerChunk <= 0 {
		clipsPerChunk = 1
	}

	var chunks []common.TextChunk
	for start := 0; start < len(clips); start += clipsPerChunk {
		end := start + clipsPerChunk
		if end > len(clips) {
			end = len(clips)
		}
		group := clips[start:end]

		blocks := make([]string, 0, len(group))
		clipIDs := make([]string, 0, len(group))
		for _, clip := range group {
			blocks = append(blocks, fmt.Sprintf(
				"CLIP_ID: %s\nVISUALS: %s\nAUDIO: %s\n",
				clip.ID, captions[clip.ID], transcripts[clip.ID],
			))
			clipIDs = append(clipIDs, clip.ID)
		}

		chunks = append(chunks, common.TextChunk{
			ID:            fmt.Sprintf("%s_chunk_%d", videoID, len(chunks)),
			SourceVideoID: videoID,
			Content:       strings.Join(blocks, chunkSeparator),
			SourceClipIDs: clipIDs,
		})
	}
	return chunks
}
