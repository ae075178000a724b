package query

import (
	"context"
	"strings"
	"testing"

	"videorag/pkg/common"
)

func TestAnswerNoCandidatesFallsBack(t *testing.T) {
	engine := NewEngine(NewEngineParams{AIClient: &fakeAI{completion: "should not be used"}})

	resp, err := engine.Answer(context.Background(), "what happened?", nil)
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if resp.Answer != FallbackAnswer {
		t.Errorf("answer = %q, want the fallback", resp.Answer)
	}
	if resp.Query != "what happened?" {
		t.Errorf("query = %q, want it echoed", resp.Query)
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("sources = %v, want empty non-nil slice", resp.Sources)
	}
}

func TestAnswerSourcesCarryDescriptions(t *testing.T) {
	engine := NewEngine(NewEngineParams{AIClient: &fakeAI{completion: "the demo shows a robot"}})

	candidates := []common.CandidateClip{
		{
			Source: common.RetrievedSource{
				ClipID:        "vid_clip_0000",
				SourceVideoID: "vid",
				StartTime:     0,
				EndTime:       30,
				Score:         0.8,
				SourceType:    common.SourceTypeVisual,
			},
			Caption:    "a robot on a table",
			Transcript: "this is our new robot",
		},
	}

	resp, err := engine.Answer(context.Background(), "what is the demo about?", candidates)
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if resp.Query != "what is the demo about?" {
		t.Errorf("query = %q, want it echoed", resp.Query)
	}
	if resp.Answer != "the demo shows a robot" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(resp.Sources))
	}

	// No clip media is reachable, so enrichment falls back to the stored
	// caption and the source content says so.
	src := resp.Sources[0]
	if !strings.HasPrefix(src.Content, tagInitial) {
		t.Errorf("content = %q, want the initial-description tag", src.Content)
	}
	if !strings.Contains(src.Content, "a robot on a table") {
		t.Errorf("content = %q, want the stored caption", src.Content)
	}
	if src.Timestamp != "00:00 - 00:30" {
		t.Errorf("timestamp = %q", src.Timestamp)
	}
}

func TestDescriptionTag(t *testing.T) {
	tests := []struct {
		name string
		ec   enrichedClip
		want string
	}{
		{name: "re-captioned", ec: enrichedClip{focused: true}, want: tagQueryFocused},
		{name: "stored fallback", ec: enrichedClip{focused: false}, want: tagInitial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := descriptionTag(tt.ec); got != tt.want {
				t.Errorf("descriptionTag() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateToTokensShortTextUnchanged(t *testing.T) {
	text := "a short piece of evidence"
	if got := truncateToTokens(text, 1000); got != text {
		t.Errorf("short text was modified: %q", got)
	}
	if got := truncateToTokens(text, 0); got != text {
		t.Errorf("zero budget should disable truncation, got %q", got)
	}
}
