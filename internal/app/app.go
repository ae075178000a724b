// Package app wires the process-level collaborators from the environment.
// The API server, the indexing worker and the CLI all assemble the same
// resource set; only what each entry point does with it differs.
package app

import (
	"context"
	"fmt"

	"videorag/internal/storage"
	"videorag/internal/util"
	"videorag/pkg/ai"
	"videorag/pkg/ai/ollama"
	"videorag/pkg/ai/openai"
	"videorag/pkg/graph"
	"videorag/pkg/media"
	"videorag/pkg/pipeline"
	"videorag/pkg/query"
	"videorag/pkg/store"
	gormstore "videorag/pkg/store/gormdb"
	pgxstore "videorag/pkg/store/pgx"
	qdrantstore "videorag/pkg/store/qdrant"
	redisstore "videorag/pkg/store/redis"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// Resources holds every long-lived collaborator of a process.
// Resources should be created using Load and released with Close.
type Resources struct {
	AI            ai.VideoAIClient
	Media         *media.Processor
	GraphStore    store.GraphStore
	VectorStore   store.VectorStore
	ChunkStore    store.ChunkStore
	MetadataStore store.MetadataStore
	ObjectStore   *storage.S3Client

	Pipeline *pipeline.Pipeline
	Engine   *query.Engine

	SharedDir string
}

// Load builds all collaborators from the environment and runs store setup.
func Load(ctx context.Context) (*Resources, error) {
	aiClient, err := NewAIClientFromEnv()
	if err != nil {
		return nil, err
	}

	embeddingDim := int(util.GetEnvNumeric("AI_EMBED_DIM", 1536))
	sharedDir := util.GetEnvString("SHARED_DIR", "/shared")

	proc := media.NewProcessor(media.NewProcessorParams{
		FfmpegPath:    util.GetEnvString("FFMPEG_PATH", ""),
		FfprobePath:   util.GetEnvString("FFPROBE_PATH", ""),
		MaxConcurrent: int64(util.GetEnvNumeric("MEDIA_MAX_CONCURRENT", 4)),
	})

	poolConfig, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	graphStore := pgxstore.NewGraphStorage(pgxstore.NewGraphStorageParams{
		Pool:         pool,
		EmbeddingDim: embeddingDim,
	})
	if err := graphStore.Setup(ctx); err != nil {
		graphStore.Close()
		return nil, err
	}

	vectorStore, err := qdrantstore.NewVectorStorage(qdrantstore.NewVectorStorageParams{
		Host:      util.GetEnvString("QDRANT_HOST", "localhost"),
		Port:      int(util.GetEnvNumeric("QDRANT_PORT", 6334)),
		APIKey:    util.GetEnv("QDRANT_API_KEY"),
		UseTLS:    util.GetEnvBool("QDRANT_TLS", false),
		Dimension: embeddingDim,
	})
	if err != nil {
		graphStore.Close()
		return nil, err
	}
	if err := vectorStore.EnsureCollections(ctx); err != nil {
		graphStore.Close()
		vectorStore.Close()
		return nil, err
	}

	chunkStore := redisstore.NewChunkStorage(redisstore.NewChunkStorageParams{
		Addr:     util.GetEnvString("REDIS_ADDR", "localhost:6379"),
		Password: util.GetEnv("REDIS_PASSWORD"),
		DB:       int(util.GetEnvNumeric("REDIS_DB", 0)),
	})
	if err := chunkStore.Ping(ctx); err != nil {
		graphStore.Close()
		vectorStore.Close()
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}

	metadataDSN := util.GetEnvString("METADATA_DATABASE_URL", util.GetEnv("DATABASE_URL"))
	metadataStore, err := gormstore.NewMetadataStorage(gormstore.NewMetadataStorageParams{
		DSN: metadataDSN,
	})
	if err != nil {
		graphStore.Close()
		vectorStore.Close()
		chunkStore.Close()
		return nil, err
	}
	if err := metadataStore.Setup(ctx); err != nil {
		graphStore.Close()
		vectorStore.Close()
		chunkStore.Close()
		metadataStore.Close()
		return nil, err
	}

	var objectStore *storage.S3Client
	if util.GetEnvBool("S3_ENABLED", false) {
		objectStore, err = storage.NewS3Client(ctx)
		if err != nil {
			graphStore.Close()
			vectorStore.Close()
			chunkStore.Close()
			metadataStore.Close()
			return nil, err
		}
	}

	graphClient := graph.NewGraphClient(graph.NewGraphClientParams{
		AIClient:       aiClient,
		GraphStore:     graphStore,
		ParallelChunks: int(util.GetEnvNumeric("GRAPH_PARALLEL_CHUNKS", 4)),
	})

	pipe := pipeline.NewPipeline(pipeline.NewPipelineParams{
		AIClient:        aiClient,
		Media:           proc,
		GraphClient:     graphClient,
		VectorStore:     vectorStore,
		ChunkStore:      chunkStore,
		MetadataStore:   metadataStore,
		ObjectStore:     objectStore,
		SharedDir:       sharedDir,
		ClipDurationSec: util.GetEnvNumeric("CLIP_DURATION_SEC", 30),
		ClipsPerChunk:   int(util.GetEnvNumeric("CLIPS_PER_CHUNK", 5)),
		FramesPerClip:   int(util.GetEnvNumeric("FRAMES_PER_CLIP", 5)),
		ParallelClips:   int(util.GetEnvNumeric("PARALLEL_CLIPS", 4)),
		Language:        util.GetEnv("TRANSCRIPTION_LANGUAGE"),
	})

	engine := query.NewEngine(query.NewEngineParams{
		AIClient:      aiClient,
		GraphStore:    graphStore,
		VectorStore:   vectorStore,
		MetadataStore: metadataStore,
		Media:         proc,
		ObjectStore:   objectStore,
		SharedDir:     sharedDir,
		TopKEntities:  int(util.GetEnvNumeric("QUERY_TOP_K_ENTITIES", 10)),
		TopKClips:     int(util.GetEnvNumeric("QUERY_TOP_K_CLIPS", 10)),
		ParallelClips: int(util.GetEnvNumeric("PARALLEL_CLIPS", 4)),
		FramesPerClip: int(util.GetEnvNumeric("FRAMES_PER_CLIP", 5)),
		ContextTokens: int(util.GetEnvNumeric("QUERY_CONTEXT_TOKENS", 24000)),
	})

	return &Resources{
		AI:            aiClient,
		Media:         proc,
		GraphStore:    graphStore,
		VectorStore:   vectorStore,
		ChunkStore:    chunkStore,
		MetadataStore: metadataStore,
		ObjectStore:   objectStore,
		Pipeline:      pipe,
		Engine:        engine,
		SharedDir:     sharedDir,
	}, nil
}

// Close releases every held connection.
func (r *Resources) Close() {
	r.GraphStore.Close()
	r.VectorStore.Close()
	r.ChunkStore.Close()
	r.MetadataStore.Close()
}

// NewAIClientFromEnv builds the AI client selected by AI_ADAPTER, which is
// either "openai" (default) or "ollama".
func NewAIClientFromEnv() (ai.VideoAIClient, error) {
	switch adapter := util.GetEnvString("AI_ADAPTER", "openai"); adapter {
	case "openai":
		key := util.GetEnv("OPENAI_API_KEY")
		return openai.NewVideoOpenAIClient(openai.NewVideoOpenAIClientParams{
			EmbeddingModel: util.GetEnvString("AI_EMBEDDING_MODEL", "text-embedding-3-small"),
			ChatModel:      util.GetEnvString("AI_CHAT_MODEL", "gpt-4o-mini"),
			VisionModel:    util.GetEnvString("AI_VISION_MODEL", "gpt-4o-mini"),
			AudioModel:     util.GetEnvString("AI_AUDIO_MODEL", "whisper-1"),

			EmbeddingURL: util.GetEnv("AI_EMBEDDING_URL"),
			EmbeddingKey: util.GetEnvString("AI_EMBEDDING_KEY", key),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnvString("AI_CHAT_KEY", key),
			VisionURL:    util.GetEnv("AI_VISION_URL"),
			VisionKey:    util.GetEnvString("AI_VISION_KEY", key),
			AudioURL:     util.GetEnv("AI_AUDIO_URL"),
			AudioKey:     util.GetEnvString("AI_AUDIO_KEY", key),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_MAX_CONCURRENT", 15)),
			TimeoutMin:            int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 10)),
		}), nil
	case "ollama":
		return ollama.NewVideoOllamaClient(ollama.NewVideoOllamaClientParams{
			EmbeddingModel: util.GetEnvString("AI_EMBEDDING_MODEL", "mxbai-embed-large"),
			ChatModel:      util.GetEnvString("AI_CHAT_MODEL", "llama3.1"),
			VisionModel:    util.GetEnvString("AI_VISION_MODEL", "llava"),

			BaseURL: util.GetEnv("OLLAMA_BASE_URL"),
			ApiKey:  util.GetEnv("OLLAMA_API_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_MAX_CONCURRENT", 4)),
			TimeoutMin:            int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 10)),
		})
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", adapter)
	}
}
