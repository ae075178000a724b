package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"videorag/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

const defaultTimeoutMin = 10

// VideoOllamaClient implements the ai.VideoAIClient interface using Ollama
// as the backend. It supports text generation, embeddings and frame
// description via locally-hosted models. Audio transcription is not
// available on this backend.
type VideoOllamaClient struct {
	embeddingModel string
	chatModel      string
	visionModel    string

	timeoutMin int
	reqLock    *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewVideoOllamaClientParams contains configuration options for creating a
// new VideoOllamaClient.
type NewVideoOllamaClientParams struct {
	EmbeddingModel string
	ChatModel      string
	VisionModel    string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
	TimeoutMin            int
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewVideoOllamaClient creates a new Ollama-based AI client with the
// specified configuration. It connects to the Ollama server at the given
// BaseURL (or the default if empty) and uses the configured models for the
// different AI operations.
func NewVideoOllamaClient(
	params NewVideoOllamaClientParams,
) (*VideoOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 15
	}
	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = defaultTimeoutMin
	}

	return &VideoOllamaClient{
		embeddingModel: params.EmbeddingModel,
		chatModel:      params.ChatModel,
		visionModel:    params.VisionModel,

		timeoutMin: timeoutMin,
		reqLock:    semaphore.NewWeighted(maxConcurrent),

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}
