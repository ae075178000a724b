// Package query implements the retrieval side of the video knowledge base:
// dual-channel retrieval over the knowledge graph and clip embeddings,
// score fusion, relevance filtering, query-focused clip enrichment and
// answer generation.
package query

import (
	"videorag/internal/storage"
	"videorag/internal/util"
	"videorag/pkg/ai"
	"videorag/pkg/common"
	"videorag/pkg/media"
	"videorag/pkg/store"
)

// FallbackAnswer is returned when retrieval yields no relevant clips.
const FallbackAnswer = "I'm sorry, I couldn't find any relevant information in the video library to answer your question."

// Source is one clip cited by an answer. Content carries the clip's
// enriched description when re-captioning succeeded, or the stored caption
// otherwise, prefixed with the matching tag.
type Source struct {
	ClipID        string  `json:"clip_id"`
	SourceVideoID string  `json:"video_id"`
	Timestamp     string  `json:"timestamp"`
	Score         float64 `json:"score"`
	SourceType    string  `json:"source_type"`
	Content       string  `json:"content"`
}

// Response is the complete answer to one query, echoing the query itself.
type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Engine answers questions against the indexed video library.
// An Engine should be created using NewEngine.
type Engine struct {
	aiClient      ai.VideoAIClient
	graphStore    store.GraphStore
	vectorStore   store.VectorStore
	metadataStore store.MetadataStore
	media         *media.Processor
	objectStore   *storage.S3Client

	sharedDir        string
	topKEntities     int
	topKClips        int
	neighborhoodHops int
	parallelClips    int
	framesPerClip    int
	contextTokens    int
}

// NewEngineParams defines the configuration parameters for creating a new
// Engine.
type NewEngineParams struct {
	AIClient      ai.VideoAIClient
	GraphStore    store.GraphStore
	VectorStore   store.VectorStore
	MetadataStore store.MetadataStore
	Media         *media.Processor
	// ObjectStore serves clip media when it is not on the local shared
	// filesystem. Nil restricts enrichment to local clips.
	ObjectStore *storage.S3Client

	// SharedDir is the root of the shared clip filesystem.
	SharedDir string
	// TopKEntities bounds the entity vector search. Defaults to 10.
	TopKEntities int
	// TopKClips bounds the clip vector search. Defaults to 10.
	TopKClips int
	// NeighborhoodHops bounds graph expansion from seed entities.
	// Defaults to 2.
	NeighborhoodHops int
	// ParallelClips bounds concurrent per-clip AI work. Defaults to 4.
	ParallelClips int
	// FramesPerClip is the number of frames sampled for re-captioning.
	// Defaults to 5.
	FramesPerClip int
	// ContextTokens bounds the evidence handed to answer generation.
	// Defaults to 24000.
	ContextTokens int
}

// NewEngine creates and returns a new Engine configured with the provided
// parameters.
func NewEngine(params NewEngineParams) *Engine {
	if params.TopKEntities <= 0 {
		params.TopKEntities = 10
	}
	if params.TopKClips <= 0 {
		params.TopKClips = 10
	}
	if params.NeighborhoodHops <= 0 {
		params.NeighborhoodHops = 2
	}
	if params.ParallelClips <= 0 {
		params.ParallelClips = 4
	}
	if params.FramesPerClip <= 0 {
		params.FramesPerClip = 5
	}
	if params.ContextTokens <= 0 {
		params.ContextTokens = 24000
	}
	return &Engine{
		aiClient:         params.AIClient,
		graphStore:       params.GraphStore,
		vectorStore:      params.VectorStore,
		metadataStore:    params.MetadataStore,
		media:            params.Media,
		objectStore:      params.ObjectStore,
		sharedDir:        params.SharedDir,
		topKEntities:     params.TopKEntities,
		topKClips:        params.TopKClips,
		neighborhoodHops: params.NeighborhoodHops,
		parallelClips:    params.ParallelClips,
		framesPerClip:    params.FramesPerClip,
		contextTokens:    params.ContextTokens,
	}
}

// sourceFromCandidate converts a candidate and its enrichment result into
// a citable source entry.
func sourceFromCandidate(c common.CandidateClip, ec enrichedClip) Source {
	return Source{
		ClipID:        c.Source.ClipID,
		SourceVideoID: c.Source.SourceVideoID,
		Timestamp:     util.FormatTimeRange(c.Source.StartTime, c.Source.EndTime),
		Score:         c.Source.Score,
		SourceType:    c.Source.SourceType,
		Content:       descriptionTag(ec) + " " + ec.description,
	}
}
