package pipeline

import (
	"context"
	"time"

	"videorag/pkg/common"
	"videorag/pkg/logger"
	"videorag/pkg/store"
)

// statusTTL bounds how long a job-status record stays observable after its
// last update.
const statusTTL = time.Hour

// statusReporter publishes job progress to the chunk store. An empty job id
// disables reporting, which is how direct CLI runs opt out.
type statusReporter struct {
	chunkStore store.ChunkStore
	jobID      string
}

func newStatusReporter(chunkStore store.ChunkStore, jobID string) *statusReporter {
	return &statusReporter{chunkStore: chunkStore, jobID: jobID}
}

func (r *statusReporter) report(ctx context.Context, status string, progress float64, errMsg string) {
	if r.jobID == "" || r.chunkStore == nil {
		return
	}
	err := r.chunkStore.SetJobStatus(ctx, common.JobStatus{
		ID:       r.jobID,
		Status:   status,
		Progress: progress,
		Error:    errMsg,
	}, statusTTL)
	if err != nil {
		// Status is best effort; the job itself must not fail over it.
		logger.Warn("Failed to publish job status", "job", r.jobID, "error", err)
	}
}

func (r *statusReporter) progress(ctx context.Context, progress float64) {
	r.report(ctx, common.JobStatusProcessing, progress, "")
}

func (r *statusReporter) completed(ctx context.Context) {
	r.report(ctx, common.JobStatusCompleted, 100, "")
}

func (r *statusReporter) failed(ctx context.Context, jobErr error) {
	r.report(ctx, common.JobStatusError, -1, jobErr.Error())
}
