// Package storage declares the persistence contracts of the crawler: tracked
// domains, discovered paths and the crawl job queue. pkg/storage/postgres provides
// the implementation used in production.
//
//go:generate mockgen -package mockstorage -source=interface.go -destination=mock/mockstorage.go *
package storage

import (
	"context"

	"github.com/riverqueue/river"
)

// AllStorage groups every capability a storage handle offers, inside or outside a
// transaction.
type AllStorage interface {
	DomainStorage
	PathStorage
	JobStorage
}

// TxStorage is a handle bound to an open transaction. It must not be used after
// Commit or Rollback.
type TxStorage interface {
	AllStorage

	Commit() error
	Rollback() error
}

// Storage is the root handle. It owns the connection pool and can open
// transactions.
type Storage interface {
	AllStorage

	// Close releases the connection pool.
	Close() error

	// Begin opens a transaction.
	Begin(ctx context.Context) (TxStorage, error)
	// WithTx runs cb inside a transaction, committing when cb returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, cb func(storage AllStorage) error) error
}

// JobStorage enqueues background jobs. When the handle is transactional the job
// becomes visible only once the transaction commits.
type JobStorage interface {
	// AddJob inserts a job and reports whether it was added. It returns false
	// when the job was skipped as a duplicate of a job that is still queued.
	AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}
