package openai

import (
	"sync"

	"videorag/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

const defaultTimeoutMin = 10

// VideoOpenAIClient implements ai.VideoAIClient against OpenAI-compatible
// endpoints. It manages separate clients for chat, embeddings, vision and
// audio so each concern can point at its own deployment, and bounds the
// in-flight requests per concern with a semaphore.
//
// A VideoOpenAIClient should be created using NewVideoOpenAIClient.
type VideoOpenAIClient struct {
	embeddingModel string
	chatModel      string
	visionModel    string
	audioModel     string

	chatURL    string
	timeoutMin int

	chatLock      *semaphore.Weighted
	embeddingLock *semaphore.Weighted
	imageLock     *semaphore.Weighted
	audioLock     *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
	ImageClient     *openai.Client
	AudioClient     *openai.Client
}

// NewVideoOpenAIClientParams defines the configuration parameters for
// creating a new VideoOpenAIClient.
//
// EmbeddingModel specifies the model used for text embeddings.
// ChatModel specifies the model used for completions and structured output.
// VisionModel specifies the model used for frame description.
// AudioModel specifies the model used for audio transcription.
// The URL/Key pairs configure the endpoint per concern; empty URLs fall
// back to the default OpenAI endpoint.
// MaxConcurrentRequests bounds the in-flight requests per concern.
type NewVideoOpenAIClientParams struct {
	EmbeddingModel string
	ChatModel      string
	VisionModel    string
	AudioModel     string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string
	VisionURL    string
	VisionKey    string
	AudioURL     string
	AudioKey     string

	MaxConcurrentRequests int64
	TimeoutMin            int
}

// NewVideoOpenAIClient creates and returns a new VideoOpenAIClient
// configured with the provided parameters.
//
// Example:
//
//	params := openai.NewVideoOpenAIClientParams{
//		EmbeddingModel: "text-embedding-3-small",
//		ChatModel:      "gpt-4o-mini",
//		VisionModel:    "gpt-4o-mini",
//		AudioModel:     "whisper-1",
//		ChatKey:        os.Getenv("OPENAI_API_KEY"),
//		EmbeddingKey:   os.Getenv("OPENAI_API_KEY"),
//	}
//	client := openai.NewVideoOpenAIClient(params)
func NewVideoOpenAIClient(
	params NewVideoOpenAIClientParams,
) *VideoOpenAIClient {
	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 15
	}
	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = defaultTimeoutMin
	}

	return &VideoOpenAIClient{
		embeddingModel: params.EmbeddingModel,
		chatModel:      params.ChatModel,
		visionModel:    params.VisionModel,
		audioModel:     params.AudioModel,

		chatURL:    params.ChatURL,
		timeoutMin: timeoutMin,

		chatLock:      semaphore.NewWeighted(maxConcurrent),
		embeddingLock: semaphore.NewWeighted(maxConcurrent),
		imageLock:     semaphore.NewWeighted(maxConcurrent),
		audioLock:     semaphore.NewWeighted(maxConcurrent),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
		ImageClient:     newOpenaiClient(params.VisionURL, params.VisionKey),
		AudioClient:     newOpenaiClient(params.AudioURL, params.AudioKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
