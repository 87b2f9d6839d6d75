// Package mediatest provides an in-memory media.Service used by tests.
// Jobs, tasks and output assets are minted locally with service-style
// identifiers so responses look like the real thing.
package mediatest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"amsgate/internal/media"
)

// DefaultProcessors are the processor names the gateway resolves.
var DefaultProcessors = []string{
	"Media Encoder Standard",
	"Media Encoder Premium Workflow",
	"Azure Media Indexer",
	"Azure Media Indexer 2 Preview",
	"Azure Media OCR",
	"Azure Media Face Detector",
	"Azure Media Redactor",
	"Azure Media Motion Detector",
	"Azure Media Video Thumbnails",
	"Azure Media Hyperlapse",
}

// Service is an in-memory media.Service.
type Service struct {
	mu sync.Mutex

	endpoint   string
	assets     map[string]media.Asset
	processors map[string]media.Processor
	jobs       map[string]*media.Job

	// taskStates holds scripted per-fetch task states, consumed one
	// entry per GetJob call. Keyed by jobID+"/"+taskID.
	taskStates map[string][]media.JobState

	reservedUnit media.ReservedUnit

	// SubmitErr, when set, fails the next SubmitJob.
	SubmitErr error

	// LastSpec is the spec of the most recent SubmitJob call.
	LastSpec *media.JobSpec

	// Calls counts every Service method invocation.
	Calls int
}

// New returns a Service seeded with the default processors.
func New() *Service {
	s := &Service{
		endpoint:   "https://testams.restv2.test.media.azure.net/api/",
		assets:     make(map[string]media.Asset),
		processors: make(map[string]media.Processor),
		jobs:       make(map[string]*media.Job),
		taskStates: make(map[string][]media.JobState),
		reservedUnit: media.ReservedUnit{
			CurrentUnits: 1,
			Type:         media.ReservedUnitBasic,
		},
	}
	for _, name := range DefaultProcessors {
		s.processors[name] = media.Processor{
			ID:      "nb:mpid:UUID:" + uuid.NewString(),
			Name:    name,
			Version: "1.1",
		}
	}
	return s
}

// AddAsset registers an asset and returns its generated ID.
func (s *Service) AddAsset(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "nb:cid:UUID:" + uuid.NewString()
	s.assets[id] = media.Asset{ID: id, Name: name}
	return id
}

// AddJob registers an existing job, e.g. to seed queue statistics.
func (s *Service) AddJob(job *media.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == "" {
		job.ID = "nb:jid:UUID:" + uuid.NewString()
	}
	s.jobs[job.ID] = job
}

// SetJobState updates a stored job's state.
func (s *Service) SetJobState(jobID string, state media.JobState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[jobID]; ok {
		j.State = state
	}
}

// SetTaskState updates a stored task's state.
func (s *Service) SetTaskState(jobID, taskID string, state media.JobState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return
	}
	if t := j.Task(taskID); t != nil {
		t.State = state
	}
}

// SetTaskErrorDetails attaches error details to a stored task.
func (s *Service) SetTaskErrorDetails(jobID, taskID string, details ...media.ErrorDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return
	}
	if t := j.Task(taskID); t != nil {
		t.ErrorDetails = details
	}
}

// ScriptTaskStates queues task states applied one per GetJob call,
// simulating a task that progresses between poll attempts.
func (s *Service) ScriptTaskStates(jobID, taskID string, states ...media.JobState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStates[jobID+"/"+taskID] = states
}

// SetReservedUnit configures the account capacity reservation.
func (s *Service) SetReservedUnit(units int, typ media.ReservedUnitType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservedUnit = media.ReservedUnit{CurrentUnits: units, Type: typ}
}

func (s *Service) GetAsset(ctx context.Context, assetID string) (*media.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	a, ok := s.assets[assetID]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", assetID, media.ErrNotFound)
	}
	return &a, nil
}

func (s *Service) GetLatestProcessor(ctx context.Context, name string) (*media.Processor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	p, ok := s.processors[name]
	if !ok {
		return nil, fmt.Errorf("media processor %s: %w", name, media.ErrNotFound)
	}
	return &p, nil
}

func (s *Service) SubmitJob(ctx context.Context, spec media.JobSpec) (*media.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	if s.SubmitErr != nil {
		err := s.SubmitErr
		s.SubmitErr = nil
		return nil, err
	}

	specCopy := spec
	s.LastSpec = &specCopy

	job := &media.Job{
		ID:       "nb:jid:UUID:" + uuid.NewString(),
		Name:     spec.Name,
		Priority: spec.Priority,
		State:    media.StateQueued,
		Tasks:    make([]media.Task, 0, len(spec.Tasks)),
	}

	for _, ts := range spec.Tasks {
		outputID := "nb:cid:UUID:" + uuid.NewString()
		s.assets[outputID] = media.Asset{ID: outputID, Name: ts.OutputAssetName}

		inputs := make([]string, 0, len(ts.Inputs))
		for _, in := range ts.Inputs {
			if in.FromTask() {
				if in.TaskIndex < 0 || in.TaskIndex >= len(job.Tasks) {
					return nil, fmt.Errorf("task %q chains from invalid task index %d", ts.Name, in.TaskIndex)
				}
				inputs = append(inputs, job.Tasks[in.TaskIndex].OutputAssetIDs[0])
				continue
			}
			inputs = append(inputs, in.AssetID)
		}

		job.Tasks = append(job.Tasks, media.Task{
			ID:             "nb:tid:UUID:" + uuid.NewString(),
			Name:           ts.Name,
			State:          media.StateQueued,
			InputAssetIDs:  inputs,
			OutputAssetIDs: []string{outputID},
		})
	}

	s.jobs[job.ID] = job
	return snapshotJob(job), nil
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*media.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, media.ErrNotFound)
	}

	// Apply one scripted state per fetch.
	for key, states := range s.taskStates {
		if len(states) == 0 {
			continue
		}
		jid, tid := splitKey(key)
		if jid != jobID {
			continue
		}
		if t := job.Task(tid); t != nil {
			t.State = states[0]
			s.taskStates[key] = states[1:]
		}
	}

	return snapshotJob(job), nil
}

func (s *Service) CountJobsInState(ctx context.Context, state media.JobState) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	n := 0
	for _, j := range s.jobs {
		if j.State == state {
			n++
		}
	}
	return n, nil
}

func (s *Service) EncodingReservedUnit(ctx context.Context) (*media.ReservedUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	ru := s.reservedUnit
	return &ru, nil
}

func (s *Service) Endpoint() string {
	return s.endpoint
}

func splitKey(key string) (jobID, taskID string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}

func snapshotJob(job *media.Job) *media.Job {
	cp := *job
	cp.Tasks = make([]media.Task, len(job.Tasks))
	copy(cp.Tasks, job.Tasks)
	return &cp
}
