package openai

import (
	"context"
	"fmt"
	"time"

	"videorag/pkg/ai"

	"github.com/openai/openai-go/v3"
)

// GenerateImageDescription sends a vision request with one or more
// base64-encoded frames and returns the model's textual description based
// on the provided prompt. Frames are attached in order, so evenly spaced
// samples read as a storyboard of the clip.
func (c *VideoOpenAIClient) GenerateImageDescription(
	ctx context.Context,
	prompt string,
	frames []ai.FrameImage,
) (string, error) {
	client := c.ImageClient
	if client == nil {
		return "", fmt.Errorf("image client not configured")
	}
	if len(frames) == 0 {
		return "", fmt.Errorf("no frames provided")
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(frames))
	for _, frame := range frames {
		url := fmt.Sprintf("%s%s", frame.FileType, frame.Base64)
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: url,
		}))
	}

	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.visionModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
			openai.UserMessage(parts),
		},
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	if err := c.imageLock.Acquire(rCtx, 1); err != nil {
		return "", err
	}
	defer c.imageLock.Release(1)

	start := time.Now()
	response, err := client.Chat.Completions.New(rCtx, body)
	if err != nil {
		return "", err
	}
	duration := time.Since(start).Milliseconds()

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response from model")
	}
	return response.Choices[0].Message.Content, nil
}
