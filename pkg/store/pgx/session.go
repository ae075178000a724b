package pgx

import (
	"context"
	"fmt"

	"videorag/pkg/common"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

type graphSession struct {
	tx pgx.Tx
}

func (s *graphSession) RegisterChunk(ctx context.Context, chunk common.TextChunk) error {
	_, err := s.tx.Exec(ctx,
		`INSERT INTO graph_chunks (id, source_video_id, source_clip_ids)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		chunk.ID, chunk.SourceVideoID, chunk.SourceClipIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to register chunk %s: %w", chunk.ID, err)
	}
	return nil
}

func (s *graphSession) UpsertEntity(ctx context.Context, entity common.Entity) (string, bool, error) {
	// Insert first so concurrent sessions racing on a new entity cannot both
	// pass an existence check and collide on the primary key.
	tag, err := s.tx.Exec(ctx,
		`INSERT INTO graph_entities (id, label, description, embedding)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		entity.ID, entity.Label, entity.Description, pgvector.NewVector(entity.Embedding),
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to insert entity %s: %w", entity.ID, err)
	}
	if tag.RowsAffected() == 1 {
		return "", false, nil
	}

	var prior string
	err = s.tx.QueryRow(ctx,
		`SELECT description FROM graph_entities WHERE id = $1 FOR UPDATE`,
		entity.ID,
	).Scan(&prior)
	if err != nil {
		return "", false, fmt.Errorf("failed to look up entity %s: %w", entity.ID, err)
	}

	if prior == entity.Description {
		return "", false, nil
	}

	// Naive merge: the new description wins until the caller writes back a
	// synthesized one.
	_, err = s.tx.Exec(ctx,
		`UPDATE graph_entities SET label = $2, description = $3, embedding = $4 WHERE id = $1`,
		entity.ID, entity.Label, entity.Description, pgvector.NewVector(entity.Embedding),
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to update entity %s: %w", entity.ID, err)
	}
	return prior, true, nil
}

func (s *graphSession) UpdateEntityDescription(ctx context.Context, entityID, description string, embedding []float32) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE graph_entities SET description = $2, embedding = $3 WHERE id = $1`,
		entityID, description, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to update description for %s: %w", entityID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entity %s does not exist", entityID)
	}
	return nil
}

func (s *graphSession) UpsertRelationship(ctx context.Context, rel common.Relationship) error {
	_, err := s.tx.Exec(ctx,
		`INSERT INTO graph_relationships (source_id, target_id, rel_type, description)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (source_id, target_id, rel_type) DO UPDATE
		 SET description = EXCLUDED.description`,
		rel.SourceID, rel.TargetID, rel.Type, rel.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert relationship %s->%s: %w", rel.SourceID, rel.TargetID, err)
	}
	return nil
}

func (s *graphSession) Commit(ctx context.Context) error {
	return s.tx.Commit(ctx)
}

func (s *graphSession) Rollback(ctx context.Context) error {
	return s.tx.Rollback(ctx)
}
