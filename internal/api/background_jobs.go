package api

import (
	"context"
	"strings"
	"time"

	"voice-agent/internal/document"
	"voice-agent/internal/storage"
)

// ImportJob is a queued job description whose text still has to be extracted.
type ImportJob struct {
	JobID     int64
	Stored    *document.Stored
	Timestamp time.Time
}

// StartBackgroundWorkers starts the job description import workers. They stop
// once Close closes the queue.
func (a *API) StartBackgroundWorkers() {
	for i := 0; i < a.opts.ImportWorkers; i++ {
		a.workers.Add(1)
		go a.importWorker(i)
	}
	a.log.Info("background workers started", "component", "import", "workers", a.opts.ImportWorkers)
}

// importWorker fills description, and requirements when the job has none, from
// uploaded documents.
func (a *API) importWorker(n int) {
	defer a.workers.Done()
	log := a.log.With("component", "import", "worker", n)

	for job := range a.importQueue {
		ctx := context.Background()
		log.Info("processing job description", "job_id", job.JobID, "file", job.Stored.Filename)

		status := "completed"
		if err := a.processImport(ctx, job); err != nil {
			status = "failed"
			log.Error("job description import failed", "job_id", job.JobID, "error", err)
		} else {
			log.Info("job description imported", "job_id", job.JobID, "took", time.Since(job.Timestamp))
		}
		a.opts.Metrics.RecordJobImport(ctx, status)
	}
}

func (a *API) processImport(ctx context.Context, job ImportJob) error {
	text, err := a.parser.ExtractText(job.Stored)
	if err != nil {
		return err
	}

	current, err := a.db.GetJob(ctx, job.JobID)
	if err != nil {
		return err
	}

	patch := storage.JobPatch{Description: &text}
	if strings.TrimSpace(current.Requirements) == "" {
		if found := document.ExtractRequirements(text); len(found) > 0 {
			requirements := strings.Join(found, ", ")
			patch.Requirements = &requirements
		}
	}
	_, err = a.db.UpdateJob(ctx, job.JobID, patch)
	return err
}

// queueImportJob adds an uploaded document to the import queue. It reports
// false when the queue is full.
func (a *API) queueImportJob(jobID int64, stored *document.Stored) bool {
	job := ImportJob{
		JobID:     jobID,
		Stored:    stored,
		Timestamp: time.Now(),
	}

	// Non-blocking send
	select {
	case a.importQueue <- job:
		a.log.Info("queued job description import", "component", "import", "job_id", jobID)
		return true
	default:
		a.log.Warn("import queue full, dropping job description", "component", "import", "job_id", jobID)
		a.opts.Metrics.RecordJobImport(context.Background(), "dropped")
		return false
	}
}
