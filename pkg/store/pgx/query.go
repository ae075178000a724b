package pgx

import (
	"context"
	"fmt"

	"videorag/pkg/common"

	"github.com/pgvector/pgvector-go"
)

// SearchEntities returns the ids of the k entities whose description
// embeddings are nearest to the query embedding by cosine distance.
func (g *GraphStorage) SearchEntities(ctx context.Context, embedding []float32, k int) ([]string, error) {
	rows, err := g.pool.Query(ctx,
		`SELECT id FROM graph_entities
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, fmt.Errorf("entity search failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Neighborhood expands hop by hop from the seeds over semantic edges and
// returns the visited node ids plus the undirected edges among them.
// Provenance edges are excluded so chunk nodes never enter the subgraph.
func (g *GraphStorage) Neighborhood(ctx context.Context, seedIDs []string, hops int) ([]string, [][2]string, error) {
	if len(seedIDs) == 0 {
		return nil, nil, nil
	}

	visited := make(map[string]bool, len(seedIDs))
	for _, id := range seedIDs {
		visited[id] = true
	}
	edgeSet := make(map[[2]string]bool)

	frontier := append([]string(nil), seedIDs...)
	for hop := 0; hop < hops && len(frontier) > 0; hop++ {
		rows, err := g.pool.Query(ctx,
			`SELECT source_id, target_id FROM graph_relationships
			 WHERE rel_type <> $2
			   AND (source_id = ANY($1) OR target_id = ANY($1))`,
			frontier, common.RelTypeSourcedFrom,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("neighborhood expansion failed: %w", err)
		}

		var next []string
		for rows.Next() {
			var src, tgt string
			if err := rows.Scan(&src, &tgt); err != nil {
				rows.Close()
				return nil, nil, err
			}
			edgeSet[[2]string{src, tgt}] = true
			for _, id := range []string{src, tgt} {
				if !visited[id] {
					visited[id] = true
					next = append(next, id)
				}
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, nil, err
		}
		rows.Close()
		frontier = next
	}

	nodeIDs := make([]string, 0, len(visited))
	for id := range visited {
		nodeIDs = append(nodeIDs, id)
	}
	edges := make([][2]string, 0, len(edgeSet))
	for e := range edgeSet {
		edges = append(edges, e)
	}
	return nodeIDs, edges, nil
}

// ChunkIDsForEntities returns the distinct chunk ids reachable from any of
// the given entities through a provenance edge.
func (g *GraphStorage) ChunkIDsForEntities(ctx context.Context, entityIDs []string) ([]string, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	rows, err := g.pool.Query(ctx,
		`SELECT DISTINCT target_id FROM graph_relationships
		 WHERE rel_type = $2 AND source_id = ANY($1)`,
		entityIDs, common.RelTypeSourcedFrom,
	)
	if err != nil {
		return nil, fmt.Errorf("chunk lookup failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ChunkSourceClips resolves chunk ids to the ordered clip ids each chunk
// was assembled from.
func (g *GraphStorage) ChunkSourceClips(ctx context.Context, chunkIDs []string) (map[string][]string, error) {
	if len(chunkIDs) == 0 {
		return map[string][]string{}, nil
	}

	rows, err := g.pool.Query(ctx,
		`SELECT id, source_clip_ids FROM graph_chunks WHERE id = ANY($1)`,
		chunkIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("chunk clip lookup failed: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string, len(chunkIDs))
	for rows.Next() {
		var id string
		var clipIDs []string
		if err := rows.Scan(&id, &clipIDs); err != nil {
			return nil, err
		}
		out[id] = clipIDs
	}
	return out, rows.Err()
}
