package crawler

import (
	"context"

	"sitepaths/pkg/domain"
)

//go:generate mockgen -package mockcrawler -source=interface.go -destination=mock/mockcrawler.go *

// Store is the part of the storage layer a crawl writes to.
type Store interface {
	// DomainByName returns nil when the domain is not tracked.
	DomainByName(ctx context.Context, name string) (*domain.Domain, error)
	// CreatePath records path unless it is already recorded.
	CreatePath(ctx context.Context, domainID domain.DomainID, path string) (bool, error)
}

// Runner runs a complete crawl of a tracked domain.
type Runner interface {
	Run(ctx context.Context, name string) error
}
