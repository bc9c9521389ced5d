package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/phishcatcher/internal/assessor"
	"github.com/raysh454/phishcatcher/internal/batch"
	"github.com/raysh454/phishcatcher/internal/logging"
	"github.com/raysh454/phishcatcher/internal/metrics"
)

// ErrTooManyJobs is returned when the job table is full of running jobs.
var ErrTooManyJobs = errors.New("too many jobs in progress")

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress
	Processed int        `json:"processed,omitempty"`
	Total     int        `json:"total,omitempty"`
	Item      *JobResult `json:"item,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// JobResult is one URL's outcome inside a job.
type JobResult struct {
	Index     int              `json:"index"`
	URL       string           `json:"url"`
	Result    *assessor.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorKind string           `json:"error_kind,omitempty"`
}

func newJobResult(it batch.Item) JobResult {
	r := JobResult{Index: it.Index, URL: it.URL, Result: it.Result}
	if it.Err != nil {
		r.Error = it.Err.Error()
		r.ErrorKind = it.ErrorKind()
	}
	return r
}

// Job is an asynchronous batch classification. Results live only in memory
// and are dropped RetentionTime after the job ends.
type Job struct {
	ID        string        `json:"id"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Events    chan JobEvent `json:"-"`

	Summary *batch.Summary `json:"summary,omitempty"`
	Results []JobResult    `json:"results,omitempty"`
}

// Orchestrator runs batch jobs in the background and tracks their state.
type Orchestrator struct {
	cfg      *Config
	assessor batch.Classifier
	metrics  *metrics.Recorder
	logger   logging.Logger

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
	wg         sync.WaitGroup
}

// NewOrchestrator ties together config, the assessor and the logger.
func NewOrchestrator(cfg *Config, a batch.Classifier, rec *metrics.Recorder, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Orchestrator{
		cfg:        cfg,
		assessor:   a,
		metrics:    rec,
		logger:     logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
	}
}

func (o *Orchestrator) emitJobEvent(job *Job, ev JobEvent) {
	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) updateJob(jobID string, fn func(j *Job)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		fn(j)
	}
}

// evictLocked drops finished jobs past retention, then the oldest finished
// jobs while the table is full. It reports whether a slot is free.
func (o *Orchestrator) evictLocked(now time.Time) bool {
	var finished []*Job
	for id, j := range o.jobs {
		if j.EndedAt.IsZero() {
			continue
		}
		if now.Sub(j.EndedAt) > o.cfg.Jobs.RetentionTime {
			delete(o.jobs, id)
			continue
		}
		finished = append(finished, j)
	}
	sort.Slice(finished, func(a, b int) bool { return finished[a].EndedAt.Before(finished[b].EndedAt) })
	for len(o.jobs) >= o.cfg.Jobs.MaxJobs && len(finished) > 0 {
		delete(o.jobs, finished[0].ID)
		finished = finished[1:]
	}
	return len(o.jobs) < o.cfg.Jobs.MaxJobs
}

// StartBatchJob classifies urls in the background. Progress is published
// on job.Events, which is closed when the job ends. The job is not bound
// to ctx's lifetime beyond its values; cancel it with CancelJob.
func (o *Orchestrator) StartBatchJob(ctx context.Context, urls []string, workers int) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.New().String(),
		Status:    JobPending,
		Total:     len(urls),
		StartedAt: now,
		Events:    make(chan JobEvent, 16+len(urls)),
	}

	o.jobsMu.Lock()
	if !o.evictLocked(now) {
		o.jobsMu.Unlock()
		return nil, ErrTooManyJobs
	}
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.jobs[job.ID] = job
	o.jobCancels[job.ID] = cancel
	o.jobsMu.Unlock()

	o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobPending, Total: job.Total})
	o.metrics.Batch(len(urls))
	o.logger.Info("batch job started", logging.Field{Key: "job_id", Value: job.ID}, logging.Field{Key: "urls", Value: len(urls)})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			o.jobsMu.Lock()
			job.EndedAt = time.Now().UTC()
			delete(o.jobCancels, job.ID)
			o.jobsMu.Unlock()
			cancel()

			// Close events channel so websocket loop can terminate cleanly
			close(job.Events)
		}()

		o.updateJob(job.ID, func(j *Job) { j.Status = JobRunning })
		o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobRunning, Total: job.Total})

		items, err := batch.Stream(jobCtx, o.assessor, urls, workers, func(it batch.Item) {
			res := newJobResult(it)
			var processed int
			o.updateJob(job.ID, func(j *Job) {
				j.Processed++
				processed = j.Processed
			})
			o.emitJobEvent(job, JobEvent{
				JobID:     job.ID,
				Type:      JobEventProgress,
				Processed: processed,
				Total:     job.Total,
				Item:      &res,
			})
		})

		results := make([]JobResult, len(items))
		for i, it := range items {
			results[i] = newJobResult(it)
		}
		summary := batch.Summarize(items)

		status := JobDone
		msg := ""
		switch {
		case jobCtx.Err() != nil && assessor.Kind(err) == assessor.KindCanceled:
			status, msg = JobCanceled, jobCtx.Err().Error()
		case err != nil:
			status, msg = JobFailed, err.Error()
		}

		o.updateJob(job.ID, func(j *Job) {
			j.Status = status
			j.Error = msg
			j.Results = results
			j.Summary = &summary
		})

		evType := JobEventResult
		if status != JobDone {
			evType = JobEventStatus
			o.logger.Warn("batch job ended early", logging.Field{Key: "job_id", Value: job.ID}, logging.Field{Key: "status", Value: status}, logging.Field{Key: "error", Value: msg})
		} else {
			o.logger.Info("batch job done", logging.Field{Key: "job_id", Value: job.ID}, logging.Field{Key: "urls", Value: summary.Total})
		}
		o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: evType, Status: status, Error: msg, Processed: len(items), Total: job.Total})
	}()

	return job, nil
}

func (o *Orchestrator) CancelJob(jobID string) bool {
	o.jobsMu.Lock()
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// GetJob returns a snapshot of the job, or nil when it is unknown or expired.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil
	}
	cp := *j
	cp.Results = append([]JobResult(nil), j.Results...)
	return &cp
}

// ListJobs returns job snapshots without per-URL results, newest first.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		cp := *j
		cp.Results = nil
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].StartedAt.After(out[b].StartedAt) })
	return out
}

// Shutdown cancels every running job and waits for them to stop or for
// ctx to end.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.jobsMu.Lock()
	for _, cancel := range o.jobCancels {
		cancel()
	}
	o.jobsMu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
