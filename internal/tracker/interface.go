// Package tracker owns the lifecycle of tracked domains: accepting new domains,
// requesting re-crawls and listing what has been discovered so far. Crawls
// themselves run asynchronously as queued jobs.
package tracker

import (
	"context"

	"sitepaths/pkg/domain"
	"sitepaths/pkg/storage"
)

//go:generate mockgen -package mocktracker -source=interface.go -destination=mock/mocktracker.go *
type Tracker interface {
	// Submit starts tracking the domain named by raw and queues its first crawl.
	Submit(ctx context.Context, raw string) (*domain.Domain, error)
	// Refresh queues another crawl of an already tracked domain.
	Refresh(ctx context.Context, name string) (*domain.Domain, error)
	// Domains lists tracked domains, newest first.
	Domains(ctx context.Context, page, limit uint) (storage.DomainPage, error)
	// Paths lists the paths discovered on a tracked domain.
	Paths(ctx context.Context, name string, page, limit uint) (storage.PathPage, error)
}
