package graph

import (
	"context"
	"fmt"
	"strings"

	"videorag/pkg/ai"
	"videorag/pkg/common"
)

type extractEntity struct {
	Name        string `json:"name" jsonschema:"description=Concise uppercase noun phrase naming the entity"`
	Type        string `json:"type" jsonschema:"description=One of the allowed entity types"`
	Description string `json:"description" jsonschema:"description=Self-contained description of the entity"`
}

type extractRelationship struct {
	Source      string `json:"source" jsonschema:"description=Name of the source entity"`
	Target      string `json:"target" jsonschema:"description=Name of the target entity"`
	Type        string `json:"type" jsonschema:"description=Short uppercase verb phrase naming the relationship"`
	Description string `json:"description" jsonschema:"description=Why the two entities are related"`
}

type extractResponse struct {
	Entities      []extractEntity       `json:"entities"`
	Relationships []extractRelationship `json:"relationships"`
}

// normalizeEntityID maps an extracted entity name to its stable graph id.
// Entities with the same normalized name merge across chunks and videos.
func normalizeEntityID(name string) string {
	id := strings.ToUpper(strings.TrimSpace(name))
	id = strings.Join(strings.Fields(id), " ")
	return id
}

// extractFromChunk asks the model for entities and relationships in one
// chunk and normalizes the response into graph types. Relationships whose
// endpoints were not extracted as entities are dropped.
func (g *GraphClient) extractFromChunk(ctx context.Context, chunk common.TextChunk) ([]common.Entity, []common.Relationship, error) {
	var resp extractResponse
	err := g.aiClient.GenerateCompletionWithFormat(
		ctx,
		"knowledge_extraction",
		"Entities and relationships found in a video text chunk",
		chunk.Content,
		&resp,
		ai.WithSystemPrompts(fmt.Sprintf(ai.ExtractPrompt, strings.Join(g.entityTypes, ", "))),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("extraction failed for chunk %s: %w", chunk.ID, err)
	}

	allowed := make(map[string]bool, len(g.entityTypes))
	for _, t := range g.entityTypes {
		allowed[strings.ToUpper(t)] = true
	}

	seen := make(map[string]bool)
	var entities []common.Entity
	for _, e := range resp.Entities {
		id := normalizeEntityID(e.Name)
		if id == "" || seen[id] {
			continue
		}
		label := strings.ToUpper(strings.TrimSpace(e.Type))
		if !allowed[label] {
			label = "CONCEPT"
		}
		seen[id] = true
		entities = append(entities, common.Entity{
			ID:          id,
			Label:       label,
			Description: strings.TrimSpace(e.Description),
		})
	}

	var relationships []common.Relationship
	for _, r := range resp.Relationships {
		src := normalizeEntityID(r.Source)
		tgt := normalizeEntityID(r.Target)
		if !seen[src] || !seen[tgt] || src == tgt {
			continue
		}
		relType := strings.ToUpper(strings.TrimSpace(r.Type))
		relType = strings.Join(strings.Fields(relType), "_")
		if relType == "" {
			relType = "RELATED_TO"
		}
		relationships = append(relationships, common.Relationship{
			SourceID:    src,
			TargetID:    tgt,
			Type:        relType,
			Description: strings.TrimSpace(r.Description),
		})
	}

	return entities, relationships, nil
}
