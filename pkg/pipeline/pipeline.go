// Package pipeline orchestrates the indexing of one source video: clip
// segmentation, transcription and captioning, chunk assembly,
// knowledge-graph construction, embedding and artifact persistence.
// Progress is
// published after each stage so API consumers can follow a running job.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"videorag/internal/storage"
	"videorag/pkg/ai"
	"videorag/pkg/common"
	"videorag/pkg/graph"
	"videorag/pkg/logger"
	"videorag/pkg/media"
	"videorag/pkg/store"
)

// Stage progress checkpoints, published in order as a video moves through
// the pipeline.
const (
	progressSegmenting  = 5
	progressSegmented   = 15
	progressTranscribed = 30
	progressCaptioned   = 50
	progressGraphBuilt  = 75
	progressPersisted   = 90
)

// Pipeline runs the full indexing sequence for source videos.
// A Pipeline should be created using NewPipeline.
type Pipeline struct {
	aiClient      ai.VideoAIClient
	media         *media.Processor
	graphClient   *graph.GraphClient
	vectorStore   store.VectorStore
	chunkStore    store.ChunkStore
	metadataStore store.MetadataStore
	objectStore   *storage.S3Client

	sharedDir       string
	clipDurationSec float64
	clipsPerChunk   int
	framesPerClip   int
	parallelClips   int
	language        string
}

// NewPipelineParams defines the configuration parameters for creating a new
// Pipeline.
type NewPipelineParams struct {
	AIClient      ai.VideoAIClient
	Media         *media.Processor
	GraphClient   *graph.GraphClient
	VectorStore   store.VectorStore
	ChunkStore    store.ChunkStore
	MetadataStore store.MetadataStore
	// ObjectStore receives clip media files after indexing. Nil disables
	// uploads, leaving clips on the shared filesystem only.
	ObjectStore *storage.S3Client

	// SharedDir is the root of the shared clip filesystem.
	SharedDir string
	// ClipDurationSec is the fixed clip length. Defaults to 30.
	ClipDurationSec float64
	// ClipsPerChunk is the number of consecutive clips per text chunk.
	// Defaults to 5.
	ClipsPerChunk int
	// FramesPerClip is the number of frames sampled per clip for
	// captioning. Defaults to 5.
	FramesPerClip int
	// ParallelClips bounds concurrent per-clip AI work. Defaults to 4.
	ParallelClips int
	// Language hints the transcription model. Empty lets it detect.
	Language string
}

// NewPipeline creates and returns a new Pipeline configured with the
// provided parameters.
//
// Example:
//
//	pipe := pipeline.NewPipeline(pipeline.NewPipelineParams{
//		AIClient:      aiClient,
//		Media:         proc,
//		GraphClient:   graphClient,
//		VectorStore:   vectorStore,
//		ChunkStore:    chunkStore,
//		MetadataStore: metadataStore,
//		SharedDir:     "/shared",
//	})
func NewPipeline(params NewPipelineParams) *Pipeline {
	if params.ClipDurationSec <= 0 {
		params.ClipDurationSec = 30
	}
	if params.ClipsPerChunk <= 0 {
		params.ClipsPerChunk = 5
	}
	if params.FramesPerClip <= 0 {
		params.FramesPerClip = 5
	}
	if params.ParallelClips <= 0 {
		params.ParallelClips = 4
	}
	return &Pipeline{
		aiClient:        params.AIClient,
		media:           params.Media,
		graphClient:     params.GraphClient,
		vectorStore:     params.VectorStore,
		chunkStore:      params.ChunkStore,
		metadataStore:   params.MetadataStore,
		objectStore:     params.ObjectStore,
		sharedDir:       params.SharedDir,
		clipDurationSec: params.ClipDurationSec,
		clipsPerChunk:   params.ClipsPerChunk,
		framesPerClip:   params.FramesPerClip,
		parallelClips:   params.ParallelClips,
		language:        params.Language,
	}
}

// RunForVideo indexes one source video end to end. Stage completion is
// published under jobID; an empty jobID runs silently. Any stage error
// marks the job failed with progress -1 and is returned to the caller.
func (p *Pipeline) RunForVideo(ctx context.Context, jobID, videoID, videoPath string) error {
	reporter := newStatusReporter(p.chunkStore, jobID)

	err := p.runStages(ctx, reporter, videoID, videoPath)
	if err != nil {
		reporter.failed(ctx, err)
		return err
	}

	reporter.completed(ctx)
	return nil
}

func (p *Pipeline) runStages(ctx context.Context, reporter *statusReporter, videoID, videoPath string) error {
	logger.Info("Indexing video", "video", videoID, "path", videoPath)
	reporter.progress(ctx, progressSegmenting)

	clipDir := filepath.Join(p.sharedDir, videoID, "clips")
	clips, err := p.media.SegmentVideo(ctx, videoPath, videoID, clipDir, p.clipDurationSec)
	if err != nil {
		return fmt.Errorf("segmentation failed: %w", err)
	}
	logger.Info("Segmented video", "video", videoID, "clips", len(clips))
	reporter.progress(ctx, progressSegmented)

	transcripts, err := p.transcribeClips(ctx, clips)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}
	reporter.progress(ctx, progressTranscribed)

	captions, err := p.captionClips(ctx, clips, transcripts)
	if err != nil {
		return fmt.Errorf("captioning failed: %w", err)
	}
	reporter.progress(ctx, progressCaptioned)

	chunks := BuildChunks(videoID, clips, textByClip(captions), textByClip(transcripts), p.clipsPerChunk)

	failedChunks, err := p.graphClient.BuildFromChunks(ctx, chunks)
	if err != nil {
		return fmt.Errorf("graph construction failed: %w", err)
	}
	if failedChunks > 0 {
		logger.Warn("Some chunks were skipped during graph construction",
			"video", videoID, "failed", failedChunks, "total", len(chunks))
	}
	reporter.progress(ctx, progressGraphBuilt)

	if err := p.persist(ctx, clips, chunks, captions, transcripts); err != nil {
		return fmt.Errorf("persistence failed: %w", err)
	}
	reporter.progress(ctx, progressPersisted)

	if err := p.uploadClips(ctx, clips); err != nil {
		return fmt.Errorf("clip upload failed: %w", err)
	}

	logger.Info("Indexed video", "video", videoID, "clips", len(clips), "chunks", len(chunks))
	return nil
}

// persist writes everything the query side reads: raw chunk text, chunk and
// clip embeddings, and clip metadata.
func (p *Pipeline) persist(
	ctx context.Context,
	clips []common.VideoClip,
	chunks []common.TextChunk,
	captions map[string]common.ClipText,
	transcripts map[string]common.ClipText,
) error {
	for _, chunk := range chunks {
		if err := p.chunkStore.SetChunk(ctx, chunk.ID, chunk.Content); err != nil {
			return err
		}
	}

	chunkInputs := make([][]byte, len(chunks))
	chunkIDs := make([]string, len(chunks))
	chunkPayloads := make([]map[string]string, len(chunks))
	for i, chunk := range chunks {
		chunkInputs[i] = []byte(chunk.Content)
		chunkIDs[i] = chunk.ID
		chunkPayloads[i] = map[string]string{"source_video_id": chunk.SourceVideoID}
	}
	chunkVectors, err := p.aiClient.GenerateEmbeddings(ctx, chunkInputs)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if err := p.vectorStore.Add(ctx, store.CollectionChunks, chunkIDs, chunkVectors, chunkPayloads); err != nil {
		return err
	}

	clipInputs := make([][]byte, len(clips))
	clipIDs := make([]string, len(clips))
	clipPayloads := make([]map[string]string, len(clips))
	metadata := make([]common.ClipMetadata, len(clips))
	for i, clip := range clips {
		caption := captions[clip.ID].Text
		transcript := transcripts[clip.ID].Text
		clipInputs[i] = []byte(caption + "\n" + transcript)
		clipIDs[i] = clip.ID
		clipPayloads[i] = map[string]string{
			"source_video_id": clip.SourceVideoID,
			"start_time":      fmt.Sprintf("%g", clip.StartTime),
			"end_time":        fmt.Sprintf("%g", clip.EndTime),
		}
		metadata[i] = common.ClipMetadata{
			ClipID:        clip.ID,
			SourceVideoID: clip.SourceVideoID,
			ClipPath:      clip.Path,
			StartTime:     clip.StartTime,
			EndTime:       clip.EndTime,
			Caption:       caption,
			Transcript:    transcript,
		}
	}
	clipVectors, err := p.aiClient.GenerateEmbeddings(ctx, clipInputs)
	if err != nil {
		return fmt.Errorf("failed to embed clips: %w", err)
	}
	if err := p.vectorStore.Add(ctx, store.CollectionClips, clipIDs, clipVectors, clipPayloads); err != nil {
		return err
	}

	return p.metadataStore.UpsertClips(ctx, metadata)
}

// uploadClips pushes clip media to object storage so query-time
// re-examination works from any host.
func (p *Pipeline) uploadClips(ctx context.Context, clips []common.VideoClip) error {
	if p.objectStore == nil {
		return nil
	}
	for _, clip := range clips {
		key := media.ClipObjectKey(clip.SourceVideoID, clip.ID)
		if err := p.objectStore.PutFile(ctx, key, clip.Path); err != nil {
			return err
		}
	}
	return nil
}

func textByClip(texts map[string]common.ClipText) map[string]string {
	out := make(map[string]string, len(texts))
	for id, t := range texts {
		out[id] = t.Text
	}
	return out
}
