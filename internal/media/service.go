package media

import (
	"context"
	"errors"
)

// ErrNotFound is wrapped by implementations when a referenced entity
// does not exist. Callers translate it to a 404.
var ErrNotFound = errors.New("media: not found")

// IsNotFound reports whether err signals a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Service is the port to the external media-processing service.
// Implementations: amsrest (Azure Media Services v2 REST),
// mediatest (in-memory double), processorcache (caching decorator).
type Service interface {
	// GetAsset resolves an asset by ID. Missing assets wrap ErrNotFound.
	GetAsset(ctx context.Context, assetID string) (*Asset, error)

	// GetLatestProcessor resolves the newest version of a named processor.
	GetLatestProcessor(ctx context.Context, name string) (*Processor, error)

	// SubmitJob creates the job, its tasks and their output assets in a
	// single submission and returns the job as created.
	SubmitJob(ctx context.Context, spec JobSpec) (*Job, error)

	// GetJob fetches the current view of a job, tasks included.
	// Missing jobs wrap ErrNotFound.
	GetJob(ctx context.Context, jobID string) (*Job, error)

	// CountJobsInState counts the account's jobs in the given state.
	CountJobsInState(ctx context.Context, state JobState) (int, error)

	// EncodingReservedUnit reports the account's encoding reservation.
	EncodingReservedUnit(ctx context.Context) (*ReservedUnit, error)

	// Endpoint returns the configured service endpoint.
	Endpoint() string
}
