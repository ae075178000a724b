// Package pgx implements store.GraphStore on PostgreSQL with pgvector.
// Entities carry their description embedding in-row so similarity search
// and graph traversal run against the same tables.
package pgx

import (
	"context"
	"fmt"

	"videorag/pkg/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GraphStorage is the PostgreSQL-backed knowledge graph store.
// A GraphStorage should be created using NewGraphStorage.
type GraphStorage struct {
	pool         *pgxpool.Pool
	embeddingDim int
}

// NewGraphStorageParams defines the configuration parameters for creating
// a new GraphStorage.
//
// Pool is the pgx connection pool, with pgvector types registered.
// EmbeddingDim is the dimensionality of entity description embeddings.
type NewGraphStorageParams struct {
	Pool         *pgxpool.Pool
	EmbeddingDim int
}

// NewGraphStorage creates and returns a new GraphStorage configured with
// the provided parameters.
//
// Example:
//
//	pool, _ := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
//	gs := pgx.NewGraphStorage(pgx.NewGraphStorageParams{
//		Pool:         pool,
//		EmbeddingDim: 1536,
//	})
func NewGraphStorage(params NewGraphStorageParams) *GraphStorage {
	dim := params.EmbeddingDim
	if dim <= 0 {
		dim = 1536
	}
	return &GraphStorage{
		pool:         params.Pool,
		embeddingDim: dim,
	}
}

// Setup ensures the extension and graph tables exist.
func (g *GraphStorage) Setup(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS graph_entities (
			id          TEXT PRIMARY KEY,
			label       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			embedding   vector(%d)
		)`, g.embeddingDim),
		`CREATE TABLE IF NOT EXISTS graph_chunks (
			id              TEXT PRIMARY KEY,
			source_video_id TEXT NOT NULL,
			source_clip_ids TEXT[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS graph_relationships (
			source_id   TEXT NOT NULL,
			target_id   TEXT NOT NULL,
			rel_type    TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (source_id, target_id, rel_type)
		)`,
		`CREATE INDEX IF NOT EXISTS graph_relationships_target_idx
			ON graph_relationships (target_id)`,
	}

	for _, stmt := range statements {
		if _, err := g.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("graph schema setup failed: %w", err)
		}
	}
	return nil
}

// Begin opens a transaction-scoped session for one chunk's merge sequence.
func (g *GraphStorage) Begin(ctx context.Context) (store.GraphSession, error) {
	tx, err := g.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin graph session: %w", err)
	}
	return &graphSession{tx: tx}, nil
}

// Close releases the underlying connection pool.
func (g *GraphStorage) Close() {
	g.pool.Close()
}
