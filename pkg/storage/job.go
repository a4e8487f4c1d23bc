package storage

import (
	"context"

	"github.com/riverqueue/river"
)

// JobStorage queues background jobs in the same database as the domain data.
type JobStorage interface {
	// AddJob queues a job and reports whether it was inserted. It returns false
	// when a unique job with the same arguments is already waiting. Inside a
	// transaction the job becomes visible only on commit.
	AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}
