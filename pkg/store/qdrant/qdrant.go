// Package qdrant implements store.VectorStore on a Qdrant instance over
// gRPC. Chunk and clip embeddings live in separate named collections.
package qdrant

import (
	"context"
	"crypto/tls"
	"fmt"

	"videorag/pkg/store"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// VectorStorage talks to Qdrant's points and collections services.
// A VectorStorage should be created using NewVectorStorage.
type VectorStorage struct {
	conn          *grpc.ClientConn
	pointsClient  pb.PointsClient
	collectClient pb.CollectionsClient
	dimension     int
}

// NewVectorStorageParams defines the configuration parameters for creating
// a new VectorStorage. An APIKey implies TLS; local instances connect
// insecurely.
type NewVectorStorageParams struct {
	Host      string
	Port      int
	APIKey    string
	UseTLS    bool
	Dimension int
}

func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// NewVectorStorage creates and returns a new VectorStorage connected to
// the configured Qdrant instance.
//
// Example:
//
//	vs, err := qdrant.NewVectorStorage(qdrant.NewVectorStorageParams{
//		Host:      "localhost",
//		Port:      6334,
//		Dimension: 1536,
//	})
func NewVectorStorage(params NewVectorStorageParams) (*VectorStorage, error) {
	addr := fmt.Sprintf("%s:%d", params.Host, params.Port)

	dim := params.Dimension
	if dim <= 0 {
		dim = 1536
	}

	var opts []grpc.DialOption
	useTLS := params.UseTLS || params.APIKey != ""
	if useTLS {
		creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS13})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		if params.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(params.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &VectorStorage{
		conn:          conn,
		pointsClient:  pb.NewPointsClient(conn),
		collectClient: pb.NewCollectionsClient(conn),
		dimension:     dim,
	}, nil
}

// Close closes the gRPC connection.
func (v *VectorStorage) Close() error {
	return v.conn.Close()
}

// EnsureCollections creates the chunk and clip collections if they do not
// exist, and validates the vector size of existing ones.
func (v *VectorStorage) EnsureCollections(ctx context.Context) error {
	for _, name := range []string{store.CollectionChunks, store.CollectionClips} {
		if err := v.ensureCollection(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (v *VectorStorage) ensureCollection(ctx context.Context, name string) error {
	info, err := v.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: name,
	})
	if err == nil {
		if size, ok := collectionVectorSize(info.GetResult()); ok {
			if size != uint64(v.dimension) {
				return fmt.Errorf("collection %s has vector size %d, expected %d", name, size, v.dimension)
			}
		}
		return nil
	}

	_, err = v.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(v.dimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return nil
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	if info == nil {
		return 0, false
	}
	config := info.GetConfig()
	if config == nil {
		return 0, false
	}
	params := config.GetParams()
	if params == nil {
		return 0, false
	}
	vectors := params.GetVectorsConfig()
	if vectors == nil {
		return 0, false
	}
	if single := vectors.GetParams(); single != nil {
		if size := single.GetSize(); size > 0 {
			return size, true
		}
	}
	return 0, false
}

// pointUUID maps an application id (clip or chunk id) to a stable Qdrant
// point id. The original id is carried in the payload.
func pointUUID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

// Add upserts vectors with their payloads into a collection. The
// application id is stored under the "id" payload key.
func (v *VectorStorage) Add(ctx context.Context, collection string, ids []string, vectors [][]float32, payloads []map[string]string) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids/vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, 0, len(ids))
	for i, id := range ids {
		payload := map[string]*pb.Value{
			"id": {Kind: &pb.Value_StringValue{StringValue: id}},
		}
		if i < len(payloads) {
			for k, val := range payloads[i] {
				payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: val}}
			}
		}
		points = append(points, &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: pointUUID(id)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vectors[i]},
				},
			},
			Payload: payload,
		})
	}

	_, err := v.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points into %s: %w", collection, err)
	}
	return nil
}

// Search performs a vector similarity search and returns ranked hits with
// their payloads. The application id is restored from the payload.
func (v *VectorStorage) Search(ctx context.Context, collection string, vector []float32, k int) ([]store.ScoredPoint, error) {
	resp, err := v.pointsClient.Search(ctx, &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search in %s failed: %w", collection, err)
	}

	results := make([]store.ScoredPoint, 0, len(resp.Result))
	for _, scored := range resp.Result {
		payload := make(map[string]string, len(scored.Payload))
		for key, val := range scored.Payload {
			payload[key] = val.GetStringValue()
		}
		id := payload["id"]
		if id == "" {
			id = scored.Id.GetUuid()
		}
		results = append(results, store.ScoredPoint{
			ID:      id,
			Score:   float64(scored.Score),
			Payload: payload,
		})
	}
	return results, nil
}
