// Package gormdb implements store.MetadataStore on PostgreSQL via GORM.
// Clip metadata hydrates retrieval candidates and feeds the aggregated
// library view.
package gormdb

import (
	"context"
	"fmt"
	"time"

	"videorag/pkg/common"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ClipRecord is the GORM model for per-clip metadata.
type ClipRecord struct {
	ClipID        string    `gorm:"primaryKey;column:clip_id"`
	SourceVideoID string    `gorm:"column:source_video_id;index"`
	ClipPath      string    `gorm:"column:clip_path"`
	StartTime     float64   `gorm:"column:start_time"`
	EndTime       float64   `gorm:"column:end_time"`
	Caption       string    `gorm:"column:caption"`
	Transcript    string    `gorm:"column:transcript"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName sets the table for ClipRecord.
func (ClipRecord) TableName() string {
	return "clip_metadata"
}

// MetadataStorage is the GORM-backed clip metadata store.
// A MetadataStorage should be created using NewMetadataStorage.
type MetadataStorage struct {
	db *gorm.DB
}

// NewMetadataStorageParams defines the configuration parameters for
// creating a new MetadataStorage.
type NewMetadataStorageParams struct {
	DSN string
}

// NewMetadataStorage creates and returns a new MetadataStorage connected
// to the configured PostgreSQL database.
//
// Example:
//
//	ms, err := gormdb.NewMetadataStorage(gormdb.NewMetadataStorageParams{
//		DSN: os.Getenv("METADATA_DATABASE_URL"),
//	})
func NewMetadataStorage(params NewMetadataStorageParams) (*MetadataStorage, error) {
	db, err := gorm.Open(postgres.Open(params.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect metadata database: %w", err)
	}
	return &MetadataStorage{db: db}, nil
}

// Setup migrates the clip metadata schema.
func (m *MetadataStorage) Setup(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&ClipRecord{}); err != nil {
		return fmt.Errorf("metadata schema migration failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (m *MetadataStorage) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertClips writes clip metadata, replacing existing records by clip id.
func (m *MetadataStorage) UpsertClips(ctx context.Context, clips []common.ClipMetadata) error {
	if len(clips) == 0 {
		return nil
	}

	records := make([]ClipRecord, 0, len(clips))
	for _, clip := range clips {
		records = append(records, ClipRecord{
			ClipID:        clip.ClipID,
			SourceVideoID: clip.SourceVideoID,
			ClipPath:      clip.ClipPath,
			StartTime:     clip.StartTime,
			EndTime:       clip.EndTime,
			Caption:       clip.Caption,
			Transcript:    clip.Transcript,
		})
	}

	err := m.db.WithContext(ctx).
		Save(&records).Error
	if err != nil {
		return fmt.Errorf("failed to upsert clip metadata: %w", err)
	}
	return nil
}

// GetClips returns the metadata for the given clip ids, keyed by clip id.
// Missing clips are simply absent from the result.
func (m *MetadataStorage) GetClips(ctx context.Context, clipIDs []string) (map[string]common.ClipMetadata, error) {
	if len(clipIDs) == 0 {
		return map[string]common.ClipMetadata{}, nil
	}

	var records []ClipRecord
	err := m.db.WithContext(ctx).
		Where("clip_id IN ?", clipIDs).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clip metadata: %w", err)
	}

	out := make(map[string]common.ClipMetadata, len(records))
	for _, r := range records {
		out[r.ClipID] = common.ClipMetadata{
			ClipID:        r.ClipID,
			SourceVideoID: r.SourceVideoID,
			ClipPath:      r.ClipPath,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			Caption:       r.Caption,
			Transcript:    r.Transcript,
			CreatedAt:     r.CreatedAt,
		}
	}
	return out, nil
}

// VideoSummaries aggregates one row per source video in the database
// rather than in memory, newest first. The optional search term filters on
// the video id.
func (m *MetadataStorage) VideoSummaries(ctx context.Context, search string) ([]common.VideoSummary, error) {
	type row struct {
		SourceVideoID string
		ClipCount     int
		MaxEndTime    float64
		IndexedAt     time.Time
	}

	query := m.db.WithContext(ctx).
		Model(&ClipRecord{}).
		Select("source_video_id, COUNT(*) AS clip_count, MAX(end_time) AS max_end_time, MIN(created_at) AS indexed_at").
		Group("source_video_id").
		Order("indexed_at DESC")

	if search != "" {
		query = query.Where("source_video_id ILIKE ?", "%"+search+"%")
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("video summary aggregation failed: %w", err)
	}

	out := make([]common.VideoSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, common.VideoSummary{
			SourceVideoID:   r.SourceVideoID,
			ClipCount:       r.ClipCount,
			DurationSeconds: r.MaxEndTime,
			IndexedAt:       r.IndexedAt,
		})
	}
	return out, nil
}
