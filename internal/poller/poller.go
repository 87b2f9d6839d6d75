// Package poller checks the state of a submitted task, waiting a
// bounded number of fixed-length intervals for it to reach a terminal
// state, and derives job-level run/success flags.
package poller

import (
	"context"
	"strings"
	"time"

	"amsgate/internal/media"
	"amsgate/internal/pkg/errors"
	"amsgate/internal/pkg/logger"
)

// Request identifies the task to check.
type Request struct {
	JobID        string
	TaskID       string
	ExtendedInfo bool
}

// ExtendedInfo carries account-wide capacity and queue statistics.
type ExtendedInfo struct {
	MediaUnitNumber     int
	MediaUnitSize       string
	OtherJobsProcessing int
	OtherJobsScheduled  int
	OtherJobsQueued     int
	RESTAPIEndpoint     string
}

// Result is the outcome of one status check. IsRunning and
// IsSuccessful reflect the JOB state even though polling follows the
// task state; a finished task inside a still-running job reports
// IsRunning=true.
type Result struct {
	TaskState       media.JobState
	ErrorText       string
	StartTime       string
	EndTime         string
	RunningDuration string
	IsRunning       bool
	IsSuccessful    bool
	Extended        *ExtendedInfo
}

// Poller polls tasks with a fixed attempt count and interval.
type Poller struct {
	svc      media.Service
	attempts int
	interval time.Duration
	log      *logger.Logger
}

// New creates a Poller. attempts and interval fall back to the 3x5s
// contract when unset.
func New(svc media.Service, attempts int, interval time.Duration, log *logger.Logger) *Poller {
	if attempts <= 0 {
		attempts = 3
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Poller{
		svc:      svc,
		attempts: attempts,
		interval: interval,
		log:      log.WithComponent("poller"),
	}
}

// Check resolves the job and task, polls until the task is terminal or
// the attempts are spent, and builds the result. A task still
// non-terminal after the last attempt is reported as-is, not as an
// error.
func (p *Poller) Check(ctx context.Context, req Request) (*Result, error) {
	log := p.log.FromContext(ctx).WithJobID(req.JobID).WithTaskID(req.TaskID)

	if req.JobID == "" || req.TaskID == "" {
		return nil, errors.Validation("Please pass the job and task ID in the input object (jobId, taskId)")
	}

	job, err := p.svc.GetJob(ctx, req.JobID)
	if err != nil {
		if media.IsNotFound(err) {
			return nil, errors.WrapWithCode(err, errors.CodeNotFound, "task.status", "Job not found")
		}
		return nil, errors.Wrap(err, "task.status", "job lookup failed")
	}

	task := job.Task(req.TaskID)
	if task == nil {
		return nil, errors.New(errors.CodeNotFound, "Task not found").WithField("id", req.TaskID)
	}

	for attempt := 1; attempt <= p.attempts; attempt++ {
		log.Debug("task state observed", "state", task.State.String(), "attempt", attempt)

		if task.State.Terminal() {
			break
		}

		if err := p.wait(ctx); err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeTimeout, "task.status", "poll canceled")
		}

		job, err = p.svc.GetJob(ctx, req.JobID)
		if err != nil {
			if media.IsNotFound(err) {
				return nil, errors.WrapWithCode(err, errors.CodeNotFound, "task.status", "Job not found")
			}
			return nil, errors.Wrap(err, "task.status", "job refresh failed")
		}
		task = job.Task(req.TaskID)
		if task == nil {
			return nil, errors.New(errors.CodeNotFound, "Task not found").WithField("id", req.TaskID)
		}
	}

	res := &Result{
		TaskState:    task.State,
		ErrorText:    jobErrorText(job),
		IsRunning:    !job.State.Terminal(),
		IsSuccessful: job.State == media.StateFinished,
	}
	if task.StartTime != nil {
		res.StartTime = task.StartTime.UTC().Format(time.RFC3339Nano)
	}
	if task.EndTime != nil {
		res.EndTime = task.EndTime.UTC().Format(time.RFC3339Nano)
	}
	if task.RunningDuration != 0 {
		res.RunningDuration = task.RunningDuration.String()
	}

	if req.ExtendedInfo && task.State.Terminal() {
		ext, err := p.extendedInfo(ctx)
		if err != nil {
			return nil, err
		}
		res.Extended = ext
	}

	return res, nil
}

// wait blocks for one poll interval or until the context is done.
func (p *Poller) wait(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// jobErrorText concatenates every task's name and error messages when
// the job itself ended in Error or Canceled.
func jobErrorText(job *media.Job) string {
	if job.State != media.StateError && job.State != media.StateCanceled {
		return ""
	}

	var sb strings.Builder
	for _, task := range job.Tasks {
		for _, detail := range task.ErrorDetails {
			sb.WriteString(task.Name)
			sb.WriteString(" : ")
			sb.WriteString(detail.Message)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (p *Poller) extendedInfo(ctx context.Context) (*ExtendedInfo, error) {
	ru, err := p.svc.EncodingReservedUnit(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "task.status", "reserved unit lookup failed")
	}

	processing, err := p.svc.CountJobsInState(ctx, media.StateProcessing)
	if err != nil {
		return nil, errors.Wrap(err, "task.status", "job count failed")
	}
	scheduled, err := p.svc.CountJobsInState(ctx, media.StateScheduled)
	if err != nil {
		return nil, errors.Wrap(err, "task.status", "job count failed")
	}
	queued, err := p.svc.CountJobsInState(ctx, media.StateQueued)
	if err != nil {
		return nil, errors.Wrap(err, "task.status", "job count failed")
	}

	return &ExtendedInfo{
		MediaUnitNumber:     ru.CurrentUnits,
		MediaUnitSize:       ru.Type.DisplayName(),
		OtherJobsProcessing: processing,
		OtherJobsScheduled:  scheduled,
		OtherJobsQueued:     queued,
		RESTAPIEndpoint:     p.svc.Endpoint(),
	}, nil
}
