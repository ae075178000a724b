package graph

import (
	"context"
	"fmt"

	"videorag/pkg/ai"
	"videorag/pkg/common"
	"videorag/pkg/store"
)

// mergeEntity writes an entity into the session. When the entity already
// exists with a different description, the prior and new descriptions are
// synthesized into one and the result, with a fresh embedding, replaces the
// naive write.
func (g *GraphClient) mergeEntity(ctx context.Context, session store.GraphSession, entity common.Entity) error {
	embedding, err := g.aiClient.GenerateEmbedding(ctx, []byte(entity.Description))
	if err != nil {
		return fmt.Errorf("failed to embed entity %s: %w", entity.ID, err)
	}
	entity.Embedding = embedding

	prior, changed, err := session.UpsertEntity(ctx, entity)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	merged, err := g.aiClient.GenerateCompletion(ctx,
		fmt.Sprintf(ai.SynthesizeDescriptionPrompt, entity.ID, prior, entity.Description),
	)
	if err != nil {
		return fmt.Errorf("failed to synthesize description for %s: %w", entity.ID, err)
	}

	mergedEmbedding, err := g.aiClient.GenerateEmbedding(ctx, []byte(merged))
	if err != nil {
		return fmt.Errorf("failed to embed merged description for %s: %w", entity.ID, err)
	}

	return session.UpdateEntityDescription(ctx, entity.ID, merged, mergedEmbedding)
}
