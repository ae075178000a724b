package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"videorag/pkg/ai"
	"videorag/pkg/common"
	"videorag/pkg/store"
)

type fakeAI struct {
	completion     string
	relevance      map[string]bool
	relevanceErrOn string
}

func (f *fakeAI) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return f.completion, nil
}

func (f *fakeAI) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	if f.relevanceErrOn != "" && strings.Contains(prompt, f.relevanceErrOn) {
		return errors.New("judgment unavailable")
	}
	verdict, ok := out.(*relevanceVerdict)
	if !ok {
		return errors.New("unexpected output type")
	}
	for marker, relevant := range f.relevance {
		if strings.Contains(prompt, marker) {
			verdict.IsRelevant = relevant
			return nil
		}
	}
	return nil
}

func (f *fakeAI) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return []float32{0.1}, nil
}

func (f *fakeAI) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0.1}
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

type failingGraphStore struct{}

func (failingGraphStore) Setup(ctx context.Context) error { return nil }

func (failingGraphStore) Begin(ctx context.Context) (store.GraphSession, error) {
	return nil, errors.New("graph down")
}

func (failingGraphStore) SearchEntities(ctx context.Context, embedding []float32, k int) ([]string, error) {
	return nil, errors.New("graph down")
}

func (failingGraphStore) Neighborhood(ctx context.Context, seedIDs []string, hops int) ([]string, [][2]string, error) {
	return nil, nil, errors.New("graph down")
}

func (failingGraphStore) ChunkIDsForEntities(ctx context.Context, entityIDs []string) ([]string, error) {
	return nil, errors.New("graph down")
}

func (failingGraphStore) ChunkSourceClips(ctx context.Context, chunkIDs []string) (map[string][]string, error) {
	return nil, errors.New("graph down")
}

func (failingGraphStore) Close() {}

type stubVectorStore struct {
	hits []store.ScoredPoint
}

func (s *stubVectorStore) EnsureCollections(ctx context.Context) error { return nil }

func (s *stubVectorStore) Add(ctx context.Context, collection string, ids []string, vectors [][]float32, payloads []map[string]string) error {
	return nil
}

func (s *stubVectorStore) Search(ctx context.Context, collection string, vector []float32, k int) ([]store.ScoredPoint, error) {
	return s.hits, nil
}

func (s *stubVectorStore) Close() error { return nil }

type stubMetadataStore struct {
	clips map[string]common.ClipMetadata
}

func (s *stubMetadataStore) Setup(ctx context.Context) error { return nil }

func (s *stubMetadataStore) UpsertClips(ctx context.Context, clips []common.ClipMetadata) error {
	return nil
}

func (s *stubMetadataStore) GetClips(ctx context.Context, clipIDs []string) (map[string]common.ClipMetadata, error) {
	out := make(map[string]common.ClipMetadata)
	for _, id := range clipIDs {
		if meta, ok := s.clips[id]; ok {
			out[id] = meta
		}
	}
	return out, nil
}

func (s *stubMetadataStore) VideoSummaries(ctx context.Context, search string) ([]common.VideoSummary, error) {
	return nil, nil
}

func (s *stubMetadataStore) Close() error { return nil }

func TestFuseSources(t *testing.T) {
	textual := []common.RetrievedSource{
		{ClipID: "c1", Score: 1.0, SourceType: common.SourceTypeTextual},
		{ClipID: "c2", Score: 1.0, SourceType: common.SourceTypeTextual},
	}
	visual := []common.RetrievedSource{
		{ClipID: "c2", Score: 0.6, SourceType: common.SourceTypeVisual},
		{ClipID: "c3", Score: 0.8, SourceType: common.SourceTypeVisual},
	}

	fused := fuseSources(textual, visual)
	byID := make(map[string]common.RetrievedSource, len(fused))
	for _, s := range fused {
		byID[s.ClipID] = s
	}

	if len(fused) != 3 {
		t.Fatalf("got %d fused sources, want 3", len(fused))
	}
	if s := byID["c1"]; s.Score != 1.0 || s.SourceType != common.SourceTypeTextual {
		t.Errorf("c1 = %+v", s)
	}
	// Proposed by both channels: max score wins, first source type sticks.
	if s := byID["c2"]; s.Score != 1.0 || s.SourceType != common.SourceTypeTextual {
		t.Errorf("c2 = %+v, want score 1.0 and textual source type", s)
	}
	// Visual-only proposals keep the similarity score.
	if s := byID["c3"]; s.Score != 0.8 || s.SourceType != common.SourceTypeVisual {
		t.Errorf("c3 = %+v, want score 0.8 and visual source type", s)
	}
}

func TestFuseSourcesHigherVisualScoreWins(t *testing.T) {
	textual := []common.RetrievedSource{
		{ClipID: "c1", Score: 0.5, SourceType: common.SourceTypeTextual},
	}
	visual := []common.RetrievedSource{
		{ClipID: "c1", Score: 0.9, SourceType: common.SourceTypeVisual},
	}

	fused := fuseSources(textual, visual)
	if len(fused) != 1 {
		t.Fatalf("got %d fused sources, want 1", len(fused))
	}
	if fused[0].Score != 0.9 {
		t.Errorf("score = %v, want the maximum 0.9", fused[0].Score)
	}
	if fused[0].SourceType != common.SourceTypeTextual {
		t.Errorf("source type = %q, want the first-seen textual", fused[0].SourceType)
	}
}

func TestRetrieveSurvivesGraphStoreFailure(t *testing.T) {
	engine := NewEngine(NewEngineParams{
		AIClient: &fakeAI{
			completion: "a robot demo on stage",
			relevance:  map[string]bool{"caption-c1": true},
		},
		GraphStore:  failingGraphStore{},
		VectorStore: &stubVectorStore{hits: []store.ScoredPoint{{ID: "c1", Score: 0.8}}},
		MetadataStore: &stubMetadataStore{clips: map[string]common.ClipMetadata{
			"c1": {ClipID: "c1", SourceVideoID: "vid", StartTime: 0, EndTime: 30, Caption: "caption-c1"},
		}},
	})

	candidates, err := engine.Retrieve(context.Background(), "what happened?")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want the visual hit to survive", len(candidates))
	}
	got := candidates[0].Source
	if got.ClipID != "c1" || got.Score != 0.8 || got.SourceType != common.SourceTypeVisual {
		t.Errorf("candidate source = %+v", got)
	}
}

func TestFilterRelevantFailsClosed(t *testing.T) {
	candidates := []common.CandidateClip{
		{Source: common.RetrievedSource{ClipID: "keep"}, Caption: "caption-keep"},
		{Source: common.RetrievedSource{ClipID: "drop"}, Caption: "caption-drop"},
		{Source: common.RetrievedSource{ClipID: "broken"}, Caption: "caption-broken"},
	}

	engine := NewEngine(NewEngineParams{
		AIClient: &fakeAI{
			relevance: map[string]bool{
				"caption-keep": true,
				"caption-drop": false,
			},
			relevanceErrOn: "caption-broken",
		},
	})

	out, err := engine.filterRelevant(context.Background(), "what happened?", candidates)
	if err != nil {
		t.Fatalf("filterRelevant failed: %v", err)
	}
	if len(out) != 1 || out[0].Source.ClipID != "keep" {
		t.Errorf("kept = %v, want only the confirmed clip", out)
	}
}
