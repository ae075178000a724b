package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"videorag/pkg/common"
	"videorag/pkg/store"
)

type recordingChunkStore struct {
	statuses []common.JobStatus
	ttls     []time.Duration
}

func (r *recordingChunkStore) SetChunk(ctx context.Context, chunkID, content string) error {
	return nil
}

func (r *recordingChunkStore) GetChunk(ctx context.Context, chunkID string) (string, error) {
	return "", store.ErrNotFound
}

func (r *recordingChunkStore) SetJobStatus(ctx context.Context, status common.JobStatus, ttl time.Duration) error {
	r.statuses = append(r.statuses, status)
	r.ttls = append(r.ttls, ttl)
	return nil
}

func (r *recordingChunkStore) GetJobStatus(ctx context.Context, jobID string) (common.JobStatus, error) {
	if len(r.statuses) == 0 {
		return common.JobStatus{}, store.ErrNotFound
	}
	return r.statuses[len(r.statuses)-1], nil
}

func (r *recordingChunkStore) Close() error { return nil }

func TestStatusReporterProgression(t *testing.T) {
	cs := &recordingChunkStore{}
	reporter := newStatusReporter(cs, "job-1")
	ctx := context.Background()

	for _, p := range []float64{progressSegmenting, progressSegmented, progressTranscribed, progressCaptioned, progressGraphBuilt, progressPersisted} {
		reporter.progress(ctx, p)
	}
	reporter.completed(ctx)

	if len(cs.statuses) != 7 {
		t.Fatalf("got %d status writes, want 7", len(cs.statuses))
	}

	prev := -1.0
	for i, status := range cs.statuses[:6] {
		if status.Status != common.JobStatusProcessing {
			t.Errorf("write %d status = %q, want processing", i, status.Status)
		}
		if status.Progress <= prev {
			t.Errorf("progress not monotonic: %v", cs.statuses)
		}
		prev = status.Progress
	}

	final := cs.statuses[6]
	if final.Status != common.JobStatusCompleted || final.Progress != 100 {
		t.Errorf("final status = %+v, want completed at 100", final)
	}
	for i, ttl := range cs.ttls {
		if ttl != statusTTL {
			t.Errorf("write %d ttl = %v, want %v", i, ttl, statusTTL)
		}
	}
}

func TestStatusReporterFailure(t *testing.T) {
	cs := &recordingChunkStore{}
	reporter := newStatusReporter(cs, "job-2")
	ctx := context.Background()

	reporter.progress(ctx, progressSegmenting)
	reporter.failed(ctx, errors.New("segmentation failed: no such file"))

	final := cs.statuses[len(cs.statuses)-1]
	if final.Status != common.JobStatusError {
		t.Errorf("status = %q, want error", final.Status)
	}
	if final.Progress != -1 {
		t.Errorf("progress = %v, want -1", final.Progress)
	}
	if final.Error != "segmentation failed: no such file" {
		t.Errorf("error message = %q", final.Error)
	}
}

func TestStatusReporterDisabledWithoutJobID(t *testing.T) {
	cs := &recordingChunkStore{}
	reporter := newStatusReporter(cs, "")
	ctx := context.Background()

	reporter.progress(ctx, progressSegmenting)
	reporter.completed(ctx)
	reporter.failed(ctx, errors.New("boom"))

	if len(cs.statuses) != 0 {
		t.Errorf("expected no status writes, got %d", len(cs.statuses))
	}
}
