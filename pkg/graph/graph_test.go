package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"videorag/internal/util"
	"videorag/pkg/ai"
	"videorag/pkg/common"
	"videorag/pkg/store"
)

type fakeAI struct {
	extraction  extractResponse
	extractErr  error
	completions []string
	embedCalls  int
}

func (f *fakeAI) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.completions = append(f.completions, prompt)
	return "synthesized description", nil
}

func (f *fakeAI) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	if f.extractErr != nil {
		return f.extractErr
	}
	raw, err := json.Marshal(f.extraction)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeAI) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	f.embedCalls++
	return []float32{0.1, 0.2}, nil
}

func (f *fakeAI) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *fakeAI) GenerateImageDescription(ctx context.Context, prompt string, frames []ai.FrameImage) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeAI) GenerateAudioTranscription(ctx context.Context, audio []byte, language string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeAI) ResetMetrics()               {}
func (f *fakeAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type fakeSession struct {
	existing      map[string]string
	chunks        []common.TextChunk
	relationships []common.Relationship
	updated       map[string]string
	committed     bool
	rolledBack    bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		existing: map[string]string{},
		updated:  map[string]string{},
	}
}

func (s *fakeSession) RegisterChunk(ctx context.Context, chunk common.TextChunk) error {
	s.chunks = append(s.chunks, chunk)
	return nil
}

func (s *fakeSession) UpsertEntity(ctx context.Context, entity common.Entity) (string, bool, error) {
	prior, ok := s.existing[entity.ID]
	s.existing[entity.ID] = entity.Description
	if !ok || prior == entity.Description {
		return "", false, nil
	}
	return prior, true, nil
}

func (s *fakeSession) UpdateEntityDescription(ctx context.Context, entityID, description string, embedding []float32) error {
	s.updated[entityID] = description
	s.existing[entityID] = description
	return nil
}

func (s *fakeSession) UpsertRelationship(ctx context.Context, rel common.Relationship) error {
	s.relationships = append(s.relationships, rel)
	return nil
}

func (s *fakeSession) Commit(ctx context.Context) error {
	s.committed = true
	return nil
}

func (s *fakeSession) Rollback(ctx context.Context) error {
	if !s.committed {
		s.rolledBack = true
	}
	return nil
}

type fakeGraphStore struct {
	sessions []*fakeSession
}

func (f *fakeGraphStore) Setup(ctx context.Context) error { return nil }

func (f *fakeGraphStore) Begin(ctx context.Context) (store.GraphSession, error) {
	s := newFakeSession()
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeGraphStore) SearchEntities(ctx context.Context, embedding []float32, k int) ([]string, error) {
	return nil, nil
}

func (f *fakeGraphStore) Neighborhood(ctx context.Context, seedIDs []string, hops int) ([]string, [][2]string, error) {
	return nil, nil, nil
}

func (f *fakeGraphStore) ChunkIDsForEntities(ctx context.Context, entityIDs []string) ([]string, error) {
	return nil, nil
}

func (f *fakeGraphStore) ChunkSourceClips(ctx context.Context, chunkIDs []string) (map[string][]string, error) {
	return nil, nil
}

func (f *fakeGraphStore) Close() {}

func TestNormalizeEntityID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercase", in: "marie curie", want: "MARIE CURIE"},
		{name: "surrounding whitespace", in: "  Paris ", want: "PARIS"},
		{name: "internal whitespace collapsed", in: "THE   EIFFEL \t TOWER", want: "THE EIFFEL TOWER"},
		{name: "empty", in: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeEntityID(tt.in); got != tt.want {
				t.Errorf("normalizeEntityID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractRelationshipTypes(t *testing.T) {
	aiClient := &fakeAI{
		extraction: extractResponse{
			Entities: []extractEntity{
				{Name: "Marie Curie", Type: "PERSON", Description: "A physicist"},
				{Name: "Sorbonne", Type: "ORGANIZATION", Description: "A university"},
				{Name: "Paris", Type: "LOCATION", Description: "A city"},
			},
			Relationships: []extractRelationship{
				{Source: "Marie Curie", Target: "Sorbonne", Type: "taught at", Description: "Held a chair"},
				{Source: "Marie Curie", Target: "Paris", Description: "Lived in"},
			},
		},
	}
	gc := NewGraphClient(NewGraphClientParams{AIClient: aiClient, GraphStore: &fakeGraphStore{}})

	_, rels, err := gc.extractFromChunk(context.Background(), common.TextChunk{ID: "c0", Content: "text"})
	if err != nil {
		t.Fatalf("extractFromChunk failed: %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("got %d relationships, want 2", len(rels))
	}

	byTarget := make(map[string]common.Relationship, len(rels))
	for _, rel := range rels {
		byTarget[rel.TargetID] = rel
	}
	if got := byTarget["SORBONNE"].Type; got != "TAUGHT_AT" {
		t.Errorf("typed edge = %q, want the normalized extracted type", got)
	}
	if got := byTarget["PARIS"].Type; got != "RELATED_TO" {
		t.Errorf("untyped edge = %q, want the RELATED_TO fallback", got)
	}
}

func TestProcessChunkNewEntities(t *testing.T) {
	aiClient := &fakeAI{
		extraction: extractResponse{
			Entities: []extractEntity{
				{Name: "Marie Curie", Type: "PERSON", Description: "A physicist"},
				{Name: "Paris", Type: "LOCATION", Description: "A city"},
			},
			Relationships: []extractRelationship{
				{Source: "Marie Curie", Target: "Paris", Description: "Lived in"},
				{Source: "Marie Curie", Target: "Radium", Description: "Endpoint never extracted"},
			},
		},
	}
	graphStore := &fakeGraphStore{}
	gc := NewGraphClient(NewGraphClientParams{AIClient: aiClient, GraphStore: graphStore})

	chunk := common.TextChunk{ID: "vid_chunk_0", SourceVideoID: "vid", Content: "text"}
	if err := gc.processChunk(context.Background(), chunk); err != nil {
		t.Fatalf("processChunk failed: %v", err)
	}

	if len(graphStore.sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(graphStore.sessions))
	}
	session := graphStore.sessions[0]

	if !session.committed {
		t.Error("session was not committed")
	}
	if len(session.chunks) != 1 || session.chunks[0].ID != "vid_chunk_0" {
		t.Errorf("chunk not registered: %+v", session.chunks)
	}
	if len(aiClient.completions) != 0 {
		t.Errorf("no synthesis expected for new entities, got %d completions", len(aiClient.completions))
	}

	var provenance, semantic int
	for _, rel := range session.relationships {
		switch rel.Type {
		case common.RelTypeSourcedFrom:
			provenance++
			if rel.TargetID != "vid_chunk_0" {
				t.Errorf("provenance edge targets %s, want the chunk", rel.TargetID)
			}
		default:
			semantic++
		}
	}
	if provenance != 2 {
		t.Errorf("expected 2 provenance edges, got %d", provenance)
	}
	if semantic != 1 {
		t.Errorf("expected 1 semantic edge (dangling one dropped), got %d", semantic)
	}
}

func TestProcessChunkMergesConflictingDescription(t *testing.T) {
	aiClient := &fakeAI{
		extraction: extractResponse{
			Entities: []extractEntity{
				{Name: "Marie Curie", Type: "PERSON", Description: "A chemist"},
			},
		},
	}
	graphStore := &fakeGraphStore{}
	gc := NewGraphClient(NewGraphClientParams{AIClient: aiClient, GraphStore: graphStore})

	// Pre-seed the entity with a different description through a first chunk.
	seed := &fakeAI{
		extraction: extractResponse{
			Entities: []extractEntity{
				{Name: "Marie Curie", Type: "PERSON", Description: "A physicist"},
			},
		},
	}
	seeder := NewGraphClient(NewGraphClientParams{AIClient: seed, GraphStore: graphStore})
	if err := seeder.processChunk(context.Background(), common.TextChunk{ID: "c0"}); err != nil {
		t.Fatalf("seeding chunk failed: %v", err)
	}

	// The second chunk hits the same entity id. The fake store is shared
	// state only within a session, so replay both writes into one session.
	session := newFakeSession()
	session.existing["MARIE CURIE"] = "A physicist"
	if err := gc.mergeEntity(context.Background(), session, common.Entity{
		ID:          "MARIE CURIE",
		Label:       "PERSON",
		Description: "A chemist",
	}); err != nil {
		t.Fatalf("mergeEntity failed: %v", err)
	}

	if len(aiClient.completions) != 1 {
		t.Fatalf("expected 1 synthesis completion, got %d", len(aiClient.completions))
	}
	if got := session.updated["MARIE CURIE"]; got != "synthesized description" {
		t.Errorf("merged description = %q, want the synthesized one", got)
	}
	// Embedding of the incoming description plus re-embedding of the merge.
	if aiClient.embedCalls != 2 {
		t.Errorf("expected 2 embedding calls, got %d", aiClient.embedCalls)
	}
}

func TestMergeEntityIdenticalDescriptionSkipsSynthesis(t *testing.T) {
	aiClient := &fakeAI{}
	gc := NewGraphClient(NewGraphClientParams{AIClient: aiClient, GraphStore: &fakeGraphStore{}})

	session := newFakeSession()
	session.existing["PARIS"] = "A city"
	err := gc.mergeEntity(context.Background(), session, common.Entity{
		ID:          "PARIS",
		Label:       "LOCATION",
		Description: "A city",
	})
	if err != nil {
		t.Fatalf("mergeEntity failed: %v", err)
	}
	if len(aiClient.completions) != 0 {
		t.Errorf("identical description must not trigger synthesis, got %d completions", len(aiClient.completions))
	}
	if len(session.updated) != 0 {
		t.Errorf("no description update expected, got %v", session.updated)
	}
}

func TestBuildFromChunksIsolatesFailures(t *testing.T) {
	aiClient := &fakeAI{extractErr: fmt.Errorf("model unavailable")}
	graphStore := &fakeGraphStore{}
	gc := NewGraphClient(NewGraphClientParams{
		AIClient:   aiClient,
		GraphStore: graphStore,
		Retry:      util.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond},
	})

	chunks := []common.TextChunk{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	failed, err := gc.BuildFromChunks(context.Background(), chunks)
	if err != nil {
		t.Fatalf("BuildFromChunks returned error: %v", err)
	}
	if failed != len(chunks) {
		t.Errorf("failed = %d, want %d", failed, len(chunks))
	}
}
