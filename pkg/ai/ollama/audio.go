package ollama

import (
	"context"
	"errors"
)

// GenerateAudioTranscription is not supported by the Ollama backend.
// Deployments that index audio must pair this adapter with a
// transcription-capable endpoint via the openai adapter.
func (c *VideoOllamaClient) GenerateAudioTranscription(
	ctx context.Context,
	audio []byte,
	language string,
) (string, error) {
	return "", errors.New("audio transcription is not supported by the ollama adapter")
}
