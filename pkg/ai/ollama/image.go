package ollama

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"videorag/pkg/ai"

	"github.com/ollama/ollama/api"
)

// GenerateImageDescription sends a vision chat request with the provided
// frames and returns the model's textual description.
func (c *VideoOllamaClient) GenerateImageDescription(
	ctx context.Context,
	prompt string,
	frames []ai.FrameImage,
) (string, error) {
	if len(frames) == 0 {
		return "", errors.New("no frames provided")
	}

	images := make([]api.ImageData, 0, len(frames))
	for _, frame := range frames {
		raw, err := base64.StdEncoding.DecodeString(frame.Base64)
		if err != nil {
			return "", err
		}
		images = append(images, raw)
	}

	stream := false
	req := &api.ChatRequest{
		Model: c.visionModel,
		Messages: []api.Message{
			{Role: "system", Content: prompt},
			{
				Role:    "user",
				Content: "",
				Images:  images,
			},
		},
		Stream: &stream,
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(rCtx, req, func(cr api.ChatResponse) error {
		final = cr
		return nil
	}); err != nil {
		return "", err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.TotalDuration.Milliseconds(),
	})

	return final.Message.Content, nil
}
