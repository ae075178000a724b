package common

import "time"

// VideoClip is a fixed-duration segment of a source video. Clips are the
// atomic unit of transcription and captioning: they are created once by
// segmentation and referenced, never copied, by every downstream stage.
type VideoClip struct {
	ID            string  `json:"clip_id"`
	SourceVideoID string  `json:"source_video_id"`
	Path          string  `json:"clip_path"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
}

// ClipText is the per-clip output of a transcription or captioning task.
// Text is always a string, empty when the task produced nothing. Degraded
// marks results where the collaborator failed and the empty text is a
// substitution rather than a genuine silence.
type ClipText struct {
	ClipID   string `json:"clip_id"`
	Text     string `json:"text"`
	Degraded bool   `json:"degraded,omitempty"`
}

// TextChunk groups the structured text of several consecutive clips into
// one unit of knowledge-graph extraction.
type TextChunk struct {
	ID            string   `json:"chunk_id"`
	SourceVideoID string   `json:"source_video_id"`
	Content       string   `json:"content"`
	SourceClipIDs []string `json:"source_clip_ids"`
}

// Entity is a node in the knowledge graph. The ID is the normalized,
// globally unique key; entities persist across videos, so an entity created
// while indexing one video may be updated while indexing another. The
// description is mutable and its embedding is recomputed whenever the
// description changes.
type Entity struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Embedding   []float32 `json:"-"`
}

// Relationship is a directed edge between two graph nodes. Type
// distinguishes semantic entity-entity edges from SOURCED_FROM provenance
// edges that link an entity to the chunk which justified it.
type Relationship struct {
	SourceID    string `json:"source_id"`
	TargetID    string `json:"target_id"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// RelTypeSourcedFrom is the provenance edge type between an entity and the
// chunk it was extracted from.
const RelTypeSourcedFrom = "SOURCED_FROM"

// Retrieval channel identifiers carried on retrieved sources.
const (
	SourceTypeTextual = "textual_graph"
	SourceTypeVisual  = "visual_embedding"
)

// RetrievedSource identifies a clip proposed by one of the retrieval
// channels, with the score and channel that produced it.
type RetrievedSource struct {
	ClipID        string  `json:"clip_id"`
	SourceVideoID string  `json:"source_video_id"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	Score         float64 `json:"score"`
	SourceType    string  `json:"source_type"`
}

// CandidateClip is a query-scoped candidate: a retrieved source hydrated
// with the clip's stored caption and transcript. Candidates are built fresh
// per query and never persisted.
type CandidateClip struct {
	Source     RetrievedSource `json:"source"`
	Caption    string          `json:"caption"`
	Transcript string          `json:"transcript"`
}

// Job status values. A job moves pending -> processing -> completed or
// pending -> processing -> error; both completed and error are terminal.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusError      = "error"
)

// JobStatus is the externally observable record of an indexing job,
// persisted as JSON in the key-value store with a bounded TTL. Progress is
// in [0,100] while the job is live and -1 on error.
type JobStatus struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}

// ClipMetadata is the per-clip record kept in the metadata store, used to
// hydrate retrieval candidates and to aggregate the video library view.
type ClipMetadata struct {
	ClipID        string    `json:"clip_id"`
	SourceVideoID string    `json:"source_video_id"`
	ClipPath      string    `json:"clip_path"`
	StartTime     float64   `json:"start_time"`
	EndTime       float64   `json:"end_time"`
	Caption       string    `json:"caption"`
	Transcript    string    `json:"transcript"`
	CreatedAt     time.Time `json:"created_at"`
}

// VideoSummary is one aggregated row per source video, produced by the
// metadata store for the library view.
type VideoSummary struct {
	SourceVideoID   string    `json:"id"`
	ClipCount       int       `json:"clip_count"`
	DurationSeconds float64   `json:"duration_seconds"`
	IndexedAt       time.Time `json:"indexed_at"`
}
