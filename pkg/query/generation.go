package query

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"videorag/internal/util"
	"videorag/pkg/ai"
	"videorag/pkg/common"
	"videorag/pkg/logger"
	"videorag/pkg/media"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/errgroup"
)

// Description tags distinguishing fresh query-focused captions from the
// stored indexing-time ones in the answer context.
const (
	tagQueryFocused = "(Query-Focused Description)"
	tagInitial      = "(Initial Description)"
)

// enrichedClip is one candidate's contribution to the answer context.
// focused marks descriptions produced by query-focused re-captioning as
// opposed to the stored indexing-time caption.
type enrichedClip struct {
	clipID      string
	timestamp   string
	description string
	focused     bool
}

type extractedKeywords struct {
	Keywords []string `json:"keywords" jsonschema:"description=Keywords the vision model should focus on"`
}

// Answer builds the final response for a query from its filtered
// candidates: every candidate is re-examined with query-focused captioning,
// the evidence is assembled under a token budget and handed to the model.
func (e *Engine) Answer(ctx context.Context, query string, candidates []common.CandidateClip) (Response, error) {
	if len(candidates) == 0 {
		return Response{Query: query, Answer: FallbackAnswer, Sources: []Source{}}, nil
	}

	enriched := e.enrich(ctx, query, candidates)

	var focused, stored strings.Builder
	for i, candidate := range candidates {
		fmt.Fprintf(&focused, "[%s | %s] %s %s\n",
			enriched[i].clipID, enriched[i].timestamp, descriptionTag(enriched[i]), enriched[i].description)
		fmt.Fprintf(&stored, "[%s | %s]\nCaption: %s\nTranscript: %s\n\n",
			candidate.Source.ClipID, enriched[i].timestamp, candidate.Caption, candidate.Transcript)
	}

	prompt := fmt.Sprintf(ai.AnswerPrompt,
		truncateToTokens(focused.String(), e.contextTokens/2),
		truncateToTokens(stored.String(), e.contextTokens/2),
		query,
	)

	answer, err := e.aiClient.GenerateCompletion(ctx, prompt)
	if err != nil {
		return Response{}, fmt.Errorf("answer generation failed: %w", err)
	}

	sources := make([]Source, 0, len(candidates))
	for i, candidate := range candidates {
		sources = append(sources, sourceFromCandidate(candidate, enriched[i]))
	}
	return Response{Query: query, Answer: answer, Sources: sources}, nil
}

func descriptionTag(ec enrichedClip) string {
	if ec.focused {
		return tagQueryFocused
	}
	return tagInitial
}

// enrich re-captions every candidate's footage with the query's keywords in
// focus. Any failure along the way (missing media, frame extraction,
// vision model) falls back to the stored indexing-time caption; enrichment
// never loses a candidate.
func (e *Engine) enrich(ctx context.Context, query string, candidates []common.CandidateClip) []enrichedClip {
	keywords := e.extractKeywords(ctx, query)

	enriched := make([]enrichedClip, len(candidates))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.parallelClips)

	for i, candidate := range candidates {
		group.Go(func() error {
			ec := enrichedClip{
				clipID:      candidate.Source.ClipID,
				timestamp:   util.FormatTimeRange(candidate.Source.StartTime, candidate.Source.EndTime),
				description: candidate.Caption,
			}

			description, err := e.recaption(groupCtx, candidate, keywords)
			if err != nil {
				if groupCtx.Err() == nil {
					logger.Warn("Re-captioning fell back to the stored caption",
						"clip", candidate.Source.ClipID, "error", err)
				}
			} else {
				ec.description = description
				ec.focused = true
			}

			mu.Lock()
			enriched[i] = ec
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	return enriched
}

func (e *Engine) extractKeywords(ctx context.Context, query string) string {
	var out extractedKeywords
	err := e.aiClient.GenerateCompletionWithFormat(
		ctx,
		"focus_keywords",
		"Keywords a vision model should focus on",
		fmt.Sprintf(ai.KeywordsPrompt, query),
		&out,
	)
	if err != nil || len(out.Keywords) == 0 {
		return query
	}
	return strings.Join(out.Keywords, ", ")
}

// recaption samples frames from the candidate's clip and describes them
// with the query's keywords in focus.
func (e *Engine) recaption(ctx context.Context, candidate common.CandidateClip, keywords string) (string, error) {
	clipPath, err := e.resolveClipPath(ctx, candidate.Source)
	if err != nil {
		return "", err
	}

	frameDir := filepath.Join(filepath.Dir(clipPath), "query_frames")
	framePaths, err := e.media.ExtractFrames(ctx, clipPath, e.framesPerClip, frameDir)
	if err != nil {
		return "", err
	}
	defer media.RemoveFiles(framePaths)

	frames, err := media.EncodeFrames(framePaths)
	if err != nil {
		return "", err
	}

	return e.aiClient.GenerateImageDescription(ctx,
		fmt.Sprintf(ai.RecaptionPrompt, keywords, candidate.Transcript),
		frames,
	)
}

// resolveClipPath prefers the shared filesystem and falls back to pulling
// the clip from object storage.
func (e *Engine) resolveClipPath(ctx context.Context, source common.RetrievedSource) (string, error) {
	path := media.ClipPath(e.sharedDir, source.SourceVideoID, source.ClipID)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if e.objectStore == nil {
		return "", fmt.Errorf("clip %s is not on the shared filesystem", source.ClipID)
	}

	key := media.ClipObjectKey(source.SourceVideoID, source.ClipID)
	if err := e.objectStore.DownloadToFile(ctx, key, path); err != nil {
		return "", err
	}
	return path, nil
}

// truncateToTokens trims text to at most maxTokens tokens, keeping the
// head. Token counting falls back to a character heuristic if the encoding
// is unavailable.
func truncateToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		if len(text) > maxTokens*4 {
			return text[:maxTokens*4]
		}
		return text
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}
