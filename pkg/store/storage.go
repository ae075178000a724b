package store

import (
	"context"
	"errors"
	"time"

	"videorag/pkg/common"
)

// ErrNotFound is returned by lookups whose key does not exist in the
// backing store.
var ErrNotFound = errors.New("store: not found")

// GraphSession scopes a chunk's graph mutations to one logical session so
// registration, entity upserts and relationship writes for a chunk share a
// transaction. Sessions are not shared across chunks.
type GraphSession interface {
	// RegisterChunk creates the chunk node if it does not exist.
	RegisterChunk(ctx context.Context, chunk common.TextChunk) error
	// UpsertEntity creates or updates an entity by its id. If the entity
	// already existed with a different description, the prior description
	// is returned with changed=true; the caller decides how to reconcile.
	UpsertEntity(ctx context.Context, entity common.Entity) (prior string, changed bool, err error)
	// UpdateEntityDescription overwrites an entity's description and its
	// embedding.
	UpdateEntityDescription(ctx context.Context, entityID, description string, embedding []float32) error
	// UpsertRelationship idempotently adds a directed edge; no duplicate
	// edge of the same type is created between the same pair.
	UpsertRelationship(ctx context.Context, rel common.Relationship) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// GraphStore is the knowledge-graph collaborator. Entities persist across
// videos; the same store instance serves every indexing run and query.
type GraphStore interface {
	// Setup ensures the backing schema exists.
	Setup(ctx context.Context) error
	// Begin opens a session for one chunk's merge sequence.
	Begin(ctx context.Context) (GraphSession, error)

	// SearchEntities returns the ids of the top-k entities by vector
	// similarity over description embeddings.
	SearchEntities(ctx context.Context, embedding []float32, k int) ([]string, error)
	// Neighborhood expands up to the given number of hops from the seed
	// entities and returns the node ids and undirected edges of the
	// subgraph, excluding provenance edges.
	Neighborhood(ctx context.Context, seedIDs []string, hops int) (nodeIDs []string, edges [][2]string, err error)
	// ChunkIDsForEntities returns the chunk ids connected to any of the
	// given entities by a provenance edge.
	ChunkIDsForEntities(ctx context.Context, entityIDs []string) ([]string, error)
	// ChunkSourceClips resolves chunk ids to their contributing clip ids.
	ChunkSourceClips(ctx context.Context, chunkIDs []string) (map[string][]string, error)

	Close()
}

// VectorStore provides per-collection vector persistence and search.
type VectorStore interface {
	EnsureCollections(ctx context.Context) error
	Add(ctx context.Context, collection string, ids []string, vectors [][]float32, payloads []map[string]string) error
	Search(ctx context.Context, collection string, vector []float32, k int) ([]ScoredPoint, error)
	Close() error
}

// ScoredPoint is one ranked vector-search hit.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]string
}

// Vector store collection names.
const (
	CollectionChunks = "video_chunks"
	CollectionClips  = "video_clips"
)

// ChunkStore is the key-value collaborator holding raw chunk text and
// job-status records, both with bounded expiry.
type ChunkStore interface {
	SetChunk(ctx context.Context, chunkID, content string) error
	GetChunk(ctx context.Context, chunkID string) (string, error)

	SetJobStatus(ctx context.Context, status common.JobStatus, ttl time.Duration) error
	GetJobStatus(ctx context.Context, jobID string) (common.JobStatus, error)

	Close() error
}

// MetadataStore keeps per-clip metadata and serves the aggregated library
// view.
type MetadataStore interface {
	Setup(ctx context.Context) error
	UpsertClips(ctx context.Context, clips []common.ClipMetadata) error
	GetClips(ctx context.Context, clipIDs []string) (map[string]common.ClipMetadata, error)
	// VideoSummaries aggregates one row per source video: clip count, max
	// end time and earliest creation time, newest first, optionally
	// filtered by a search term on the video id.
	VideoSummaries(ctx context.Context, search string) ([]common.VideoSummary, error)
	Close() error
}
