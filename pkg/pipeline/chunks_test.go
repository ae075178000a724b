package pipeline

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"videorag/pkg/common"
)

func makeClips(videoID string, n int) []common.VideoClip {
	clips := make([]common.VideoClip, n)
	for i := range clips {
		clips[i] = common.VideoClip{
			ID:            fmt.Sprintf("%s_clip_%04d", videoID, i),
			SourceVideoID: videoID,
		}
	}
	return clips
}

func TestBuildChunksGrouping(t *testing.T) {
	tests := []struct {
		name          string
		clipCount     int
		clipsPerChunk int
		wantChunks    int
		wantLastSize  int
	}{
		{name: "exact multiple", clipCount: 10, clipsPerChunk: 5, wantChunks: 2, wantLastSize: 5},
		{name: "remainder chunk", clipCount: 7, clipsPerChunk: 5, wantChunks: 2, wantLastSize: 2},
		{name: "fewer clips than group", clipCount: 3, clipsPerChunk: 5, wantChunks: 1, wantLastSize: 3},
		{name: "single clip groups", clipCount: 3, clipsPerChunk: 1, wantChunks: 3, wantLastSize: 1},
		{name: "no clips", clipCount: 0, clipsPerChunk: 5, wantChunks: 0, wantLastSize: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clips := makeClips("vid", tt.clipCount)
			chunks := BuildChunks("vid", clips, nil, nil, tt.clipsPerChunk)

			if len(chunks) != tt.wantChunks {
				t.Fatalf("got %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			if tt.wantChunks == 0 {
				return
			}
			last := chunks[len(chunks)-1]
			if len(last.SourceClipIDs) != tt.wantLastSize {
				t.Errorf("last chunk has %d clips, want %d", len(last.SourceClipIDs), tt.wantLastSize)
			}

			// Every clip appears exactly once, in playback order.
			var all []string
			for _, chunk := range chunks {
				all = append(all, chunk.SourceClipIDs...)
			}
			var want []string
			for _, clip := range clips {
				want = append(want, clip.ID)
			}
			if !reflect.DeepEqual(all, want) {
				t.Errorf("clip coverage = %v, want %v", all, want)
			}
		})
	}
}

func TestBuildChunksContent(t *testing.T) {
	clips := makeClips("vid", 2)
	captions := map[string]string{
		clips[0].ID: "a person speaking",
	}
	transcripts := map[string]string{
		clips[0].ID: "hello world",
		clips[1].ID: "goodbye",
	}

	chunks := BuildChunks("vid", clips, captions, transcripts, 5)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	chunk := chunks[0]

	if chunk.ID != "vid_chunk_0" {
		t.Errorf("chunk id = %q, want vid_chunk_0", chunk.ID)
	}
	if chunk.SourceVideoID != "vid" {
		t.Errorf("source video = %q, want vid", chunk.SourceVideoID)
	}

	blocks := strings.Split(chunk.Content, chunkSeparator)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if !strings.Contains(blocks[0], "CLIP_ID: vid_clip_0000") ||
		!strings.Contains(blocks[0], "VISUALS: a person speaking") ||
		!strings.Contains(blocks[0], "AUDIO: hello world") {
		t.Errorf("first block malformed:\n%s", blocks[0])
	}
	// The second clip has no caption; the field is present but empty.
	if !strings.Contains(blocks[1], "VISUALS: \n") {
		t.Errorf("missing caption should yield an empty field:\n%s", blocks[1])
	}
	if !strings.Contains(blocks[1], "AUDIO: goodbye") {
		t.Errorf("second block malformed:\n%s", blocks[1])
	}
}
