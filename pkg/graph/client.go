// Package graph builds the cross-video knowledge graph: it extracts
// entities and relationships from text chunks, merges them into the graph
// store and records provenance edges back to the originating chunks.
package graph

import (
	"videorag/internal/util"
	"videorag/pkg/ai"
	"videorag/pkg/store"
)

// DefaultEntityTypes are the allowed entity labels when the caller does not
// configure its own set.
var DefaultEntityTypes = []string{
	"PERSON",
	"ORGANIZATION",
	"LOCATION",
	"OBJECT",
	"EVENT",
	"CONCEPT",
}

// GraphClient extracts knowledge from text chunks and maintains the graph
// store. A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	aiClient       ai.VideoAIClient
	graphStore     store.GraphStore
	parallelChunks int
	retry          util.RetryPolicy
	entityTypes    []string
}

// NewGraphClientParams defines the configuration parameters for creating a
// new GraphClient.
type NewGraphClientParams struct {
	AIClient   ai.VideoAIClient
	GraphStore store.GraphStore

	// ParallelChunks bounds how many chunks are processed concurrently.
	// Defaults to 4.
	ParallelChunks int
	// Retry governs per-chunk extraction retries. Zero value uses
	// util.DefaultRetryPolicy.
	Retry util.RetryPolicy
	// EntityTypes restricts extraction to the given labels. Defaults to
	// DefaultEntityTypes.
	EntityTypes []string
}

// NewGraphClient creates and returns a new GraphClient.
//
// Example:
//
//	gc := graph.NewGraphClient(graph.NewGraphClientParams{
//		AIClient:   aiClient,
//		GraphStore: graphStore,
//	})
func NewGraphClient(params NewGraphClientParams) *GraphClient {
	if params.ParallelChunks <= 0 {
		params.ParallelChunks = 4
	}
	if params.Retry.MaxAttempts <= 0 {
		params.Retry = util.DefaultRetryPolicy()
	}
	if len(params.EntityTypes) == 0 {
		params.EntityTypes = DefaultEntityTypes
	}
	return &GraphClient{
		aiClient:       params.AIClient,
		graphStore:     params.GraphStore,
		parallelChunks: params.ParallelChunks,
		retry:          params.Retry,
		entityTypes:    params.EntityTypes,
	}
}
