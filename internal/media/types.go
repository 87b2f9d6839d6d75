// Package media defines the domain types of the external media service
// and the Service port the gateway calls through.
package media

import "time"

// JobState is the lifecycle state shared by jobs and tasks.
// The numeric values are the service's own and appear on the wire.
type JobState int

const (
	StateQueued JobState = iota
	StateScheduled
	StateProcessing
	StateFinished
	StateError
	StateCanceled
)

// Terminal reports whether no further state transitions can occur.
func (s JobState) Terminal() bool {
	return s == StateFinished || s == StateError || s == StateCanceled
}

func (s JobState) String() string {
	switch s {
	case StateQueued:
		return "Queued"
	case StateScheduled:
		return "Scheduled"
	case StateProcessing:
		return "Processing"
	case StateFinished:
		return "Finished"
	case StateError:
		return "Error"
	case StateCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Asset is an opaque media container owned by the external service.
type Asset struct {
	ID   string
	Name string
}

// Processor is a named media processor resolved to a concrete version.
type Processor struct {
	ID      string
	Name    string
	Version string
}

// TaskInput is one input of a task: either an existing asset or the
// output of an earlier task in the same job (intra-job chaining).
type TaskInput struct {
	AssetID   string
	TaskIndex int
}

// InputAsset references an existing asset.
func InputAsset(assetID string) TaskInput {
	return TaskInput{AssetID: assetID, TaskIndex: -1}
}

// InputTaskOutput references the output asset of the task at the given
// position in the job's task list.
func InputTaskOutput(taskIndex int) TaskInput {
	return TaskInput{TaskIndex: taskIndex}
}

// FromTask reports whether the input chains from another task.
func (in TaskInput) FromTask() bool {
	return in.AssetID == ""
}

// TaskSpec describes one task to create at job submission. The service
// creates exactly one output asset per task, named OutputAssetName.
// Inputs keep their order; the service binds them positionally.
type TaskSpec struct {
	Name            string
	ProcessorID     string
	Configuration   string
	Inputs          []TaskInput
	OutputAssetName string
}

// JobSpec is a job assembled locally and submitted atomically.
type JobSpec struct {
	Name     string
	Priority int
	Tasks    []TaskSpec
}

// ErrorDetail is one error reported by the service for a task.
type ErrorDetail struct {
	Code    string
	Message string
}

// Task is a submitted task as reported by the service.
type Task struct {
	ID              string
	Name            string
	State           JobState
	InputAssetIDs   []string
	OutputAssetIDs  []string
	StartTime       *time.Time
	EndTime         *time.Time
	RunningDuration time.Duration
	ErrorDetails    []ErrorDetail
}

// Job is a submitted job as reported by the service. Tasks keep the
// order in which they were appended at assembly time.
type Job struct {
	ID       string
	Name     string
	Priority int
	State    JobState
	Tasks    []Task
}

// Task returns the task with the given ID, or nil.
func (j *Job) Task(taskID string) *Task {
	for i := range j.Tasks {
		if j.Tasks[i].ID == taskID {
			return &j.Tasks[i]
		}
	}
	return nil
}

// ReservedUnitType is the account's provisioned encoding tier.
type ReservedUnitType int

const (
	ReservedUnitBasic ReservedUnitType = iota
	ReservedUnitStandard
	ReservedUnitPremium
)

// DisplayName maps the tier to its public code. Unknown tiers fall
// back to the Basic code.
func (t ReservedUnitType) DisplayName() string {
	switch t {
	case ReservedUnitStandard:
		return "S2"
	case ReservedUnitPremium:
		return "S3"
	default:
		return "S1"
	}
}

// ReservedUnitTypeFromDisplayName is the inverse of DisplayName.
// Unknown codes resolve to Basic.
func ReservedUnitTypeFromDisplayName(name string) ReservedUnitType {
	switch name {
	case "S2":
		return ReservedUnitStandard
	case "S3":
		return ReservedUnitPremium
	default:
		return ReservedUnitBasic
	}
}

// ReservedUnit is the account's current encoding capacity reservation.
type ReservedUnit struct {
	CurrentUnits int
	Type         ReservedUnitType
}
