// Package storage provides the object-storage client for clip media
// artifacts. Clips are written once at indexing time and fetched on demand
// when a query needs to re-examine footage on a host that does not share
// the indexing worker's filesystem.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"videorag/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client wraps the AWS S3 API for clip uploads and downloads.
// An S3Client should be created using NewS3Client.
type S3Client struct {
	client *s3.Client
	bucket string
}

// NewS3Client creates and returns a new S3Client from the environment:
// AWS_REGION, AWS_ENDPOINT, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
// S3_BUCKET. A custom endpoint switches to path-style addressing for
// MinIO-compatible stores.
func NewS3Client(ctx context.Context) (*S3Client, error) {
	region := util.GetEnvString("AWS_REGION", "us-east-1")
	endpoint := util.GetEnvString("AWS_ENDPOINT", "")
	accessKey := util.GetEnvString("AWS_ACCESS_KEY_ID", "")
	secretKey := util.GetEnvString("AWS_SECRET_ACCESS_KEY", "")
	bucket := util.GetEnvString("S3_BUCKET", "videorag")

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{client: client, bucket: bucket}, nil
}

// PutFile uploads a local file under the given object key.
func (s *S3Client) PutFile(ctx context.Context, key, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// GetFile returns the object's contents.
func (s *S3Client) GetFile(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// DownloadToFile streams the object to a local path, creating parent
// directories as needed.
func (s *S3Client) DownloadToFile(ctx context.Context, key, path string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(file, out.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
