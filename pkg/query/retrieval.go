package query

import (
	"context"
	"fmt"
	"sync"

	"videorag/pkg/ai"
	"videorag/pkg/common"
	"videorag/pkg/logger"
	"videorag/pkg/store"

	"golang.org/x/sync/errgroup"
)

// textualChannelScore is the score assigned to clips reached through the
// knowledge graph. Graph membership is a binary judgment, so every textual
// hit outranks any similarity score from the visual channel.
const textualChannelScore = 1.0

// Retrieve runs both retrieval channels, fuses their proposals, hydrates
// them with stored clip metadata and filters them for relevance. An empty
// result means the library holds nothing relevant to the query.
func (e *Engine) Retrieve(ctx context.Context, query string) ([]common.CandidateClip, error) {
	var textual, visual []common.RetrievedSource

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		sources, err := e.textualChannel(groupCtx, query)
		if err != nil {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			// A broken graph path degrades to an empty textual result;
			// the visual channel keeps the query serviceable.
			logger.Warn("Textual retrieval channel degraded", "error", err)
			return nil
		}
		textual = sources
		return nil
	})
	group.Go(func() error {
		sources, err := e.visualChannel(groupCtx, query)
		if err != nil {
			return err
		}
		visual = sources
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	fused := fuseSources(textual, visual)
	if len(fused) == 0 {
		return nil, nil
	}

	candidates, err := e.hydrate(ctx, fused)
	if err != nil {
		return nil, err
	}

	return e.filterRelevant(ctx, query, candidates)
}

// textualChannel walks the knowledge graph: the query is reformulated into
// a declarative statement, matched against entity embeddings, expanded into
// a neighborhood, widened to seed-bearing communities and finally resolved
// through chunk provenance to clip ids.
func (e *Engine) textualChannel(ctx context.Context, query string) ([]common.RetrievedSource, error) {
	statement, err := e.aiClient.GenerateCompletion(ctx, fmt.Sprintf(ai.ReformulatePrompt, query))
	if err != nil {
		return nil, fmt.Errorf("query reformulation failed: %w", err)
	}

	embedding, err := e.aiClient.GenerateEmbedding(ctx, []byte(statement))
	if err != nil {
		return nil, fmt.Errorf("failed to embed reformulated query: %w", err)
	}

	seeds, err := e.graphStore.SearchEntities(ctx, embedding, e.topKEntities)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	nodeIDs, edges, err := e.graphStore.Neighborhood(ctx, seeds, e.neighborhoodHops)
	if err != nil {
		return nil, err
	}

	relevant := seedCommunities(communities(nodeIDs, edges), seeds)

	chunkIDs, err := e.graphStore.ChunkIDsForEntities(ctx, relevant)
	if err != nil {
		return nil, err
	}

	clipsByChunk, err := e.graphStore.ChunkSourceClips(ctx, chunkIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var sources []common.RetrievedSource
	for _, clipIDs := range clipsByChunk {
		for _, clipID := range clipIDs {
			if seen[clipID] {
				continue
			}
			seen[clipID] = true
			sources = append(sources, common.RetrievedSource{
				ClipID:     clipID,
				Score:      textualChannelScore,
				SourceType: common.SourceTypeTextual,
			})
		}
	}
	return sources, nil
}

// visualChannel matches a scene description derived from the query against
// clip embeddings.
func (e *Engine) visualChannel(ctx context.Context, query string) ([]common.RetrievedSource, error) {
	scene, err := e.aiClient.GenerateCompletion(ctx, fmt.Sprintf(ai.SceneDescriptionPrompt, query))
	if err != nil {
		return nil, fmt.Errorf("scene description failed: %w", err)
	}

	embedding, err := e.aiClient.GenerateEmbedding(ctx, []byte(scene))
	if err != nil {
		return nil, fmt.Errorf("failed to embed scene description: %w", err)
	}

	hits, err := e.vectorStore.Search(ctx, store.CollectionClips, embedding, e.topKClips)
	if err != nil {
		return nil, err
	}

	sources := make([]common.RetrievedSource, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, common.RetrievedSource{
			ClipID:     hit.ID,
			Score:      hit.Score,
			SourceType: common.SourceTypeVisual,
		})
	}
	return sources, nil
}

// fuseSources merges channel proposals keyed by clip id. A clip proposed by
// both channels keeps its maximum score and the source type of the channel
// that proposed it first.
func fuseSources(channels ...[]common.RetrievedSource) []common.RetrievedSource {
	index := make(map[string]int)
	var fused []common.RetrievedSource

	for _, channel := range channels {
		for _, source := range channel {
			at, ok := index[source.ClipID]
			if !ok {
				index[source.ClipID] = len(fused)
				fused = append(fused, source)
				continue
			}
			if source.Score > fused[at].Score {
				fused[at].Score = source.Score
			}
		}
	}
	return fused
}

// hydrate joins fused sources with stored clip metadata. Sources whose clip
// is unknown to the metadata store are dropped.
func (e *Engine) hydrate(ctx context.Context, sources []common.RetrievedSource) ([]common.CandidateClip, error) {
	clipIDs := make([]string, len(sources))
	for i, s := range sources {
		clipIDs[i] = s.ClipID
	}

	metadata, err := e.metadataStore.GetClips(ctx, clipIDs)
	if err != nil {
		return nil, err
	}

	candidates := make([]common.CandidateClip, 0, len(sources))
	for _, source := range sources {
		meta, ok := metadata[source.ClipID]
		if !ok {
			logger.Warn("Dropping retrieved clip with no metadata", "clip", source.ClipID)
			continue
		}
		source.SourceVideoID = meta.SourceVideoID
		source.StartTime = meta.StartTime
		source.EndTime = meta.EndTime
		candidates = append(candidates, common.CandidateClip{
			Source:     source,
			Caption:    meta.Caption,
			Transcript: meta.Transcript,
		})
	}
	return candidates, nil
}

type relevanceVerdict struct {
	IsRelevant bool `json:"is_relevant" jsonschema:"description=Whether the clip is essential to answer the question"`
}

// filterRelevant asks the model for a strict boolean judgment per candidate
// and keeps only confirmed ones. The filter fails closed: a judgment error
// drops the candidate rather than letting unvetted footage into the answer.
func (e *Engine) filterRelevant(ctx context.Context, query string, candidates []common.CandidateClip) ([]common.CandidateClip, error) {
	keep := make([]bool, len(candidates))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.parallelClips)

	for i, candidate := range candidates {
		group.Go(func() error {
			var verdict relevanceVerdict
			err := e.aiClient.GenerateCompletionWithFormat(
				groupCtx,
				"clip_relevance",
				"Whether a video clip is essential for answering a question",
				fmt.Sprintf(ai.RelevancePrompt, query, candidate.Caption, candidate.Transcript),
				&verdict,
			)
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				logger.Warn("Relevance judgment failed, dropping clip",
					"clip", candidate.Source.ClipID, "error", err)
				return nil
			}
			mu.Lock()
			keep[i] = verdict.IsRelevant
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := make([]common.CandidateClip, 0, len(candidates))
	for i, candidate := range candidates {
		if keep[i] {
			out = append(out, candidate)
		}
	}
	return out, nil
}
