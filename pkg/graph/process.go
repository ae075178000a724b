package graph

import (
	"context"
	"fmt"
	"sync"

	"videorag/pkg/common"
	"videorag/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// BuildFromChunks runs extraction and merging for every chunk with a
// bounded level of parallelism. A failing chunk is retried under the
// client's policy and then skipped; the rest of the video's chunks still
// land in the graph. The number of chunks that could not be processed is
// returned alongside any context-level error.
func (g *GraphClient) BuildFromChunks(ctx context.Context, chunks []common.TextChunk) (failed int, err error) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.parallelChunks)

	var mu sync.Mutex

	for _, chunk := range chunks {
		group.Go(func() error {
			err := g.retry.Do(groupCtx, func(ctx context.Context) error {
				return g.processChunk(ctx, chunk)
			})
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				logger.Error("Giving up on chunk", "chunk", chunk.ID, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return failed, err
	}
	return failed, nil
}

// processChunk extracts knowledge from one chunk and commits it in a single
// session: the chunk node, its entities with merge handling, the semantic
// edges and a provenance edge per entity.
func (g *GraphClient) processChunk(ctx context.Context, chunk common.TextChunk) error {
	entities, relationships, err := g.extractFromChunk(ctx, chunk)
	if err != nil {
		return err
	}

	session, err := g.graphStore.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to open graph session: %w", err)
	}
	defer session.Rollback(ctx)

	if err := session.RegisterChunk(ctx, chunk); err != nil {
		return err
	}

	for _, entity := range entities {
		if err := g.mergeEntity(ctx, session, entity); err != nil {
			return err
		}
		err := session.UpsertRelationship(ctx, common.Relationship{
			SourceID: entity.ID,
			TargetID: chunk.ID,
			Type:     common.RelTypeSourcedFrom,
		})
		if err != nil {
			return err
		}
	}

	for _, rel := range relationships {
		if err := session.UpsertRelationship(ctx, rel); err != nil {
			return err
		}
	}

	return session.Commit(ctx)
}
