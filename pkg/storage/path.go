package storage

import (
	"context"

	"sitepaths/pkg/domain"
)

// PathPage is one page of a domain's paths.
type PathPage struct {
	Paths   []domain.Path
	HasNext bool
}

// PathStorage persists discovered paths.
type PathStorage interface {
	// CreatePath records path for the domain unless it is already recorded and
	// reports whether a new row was created. Concurrent calls for the same pair
	// never produce duplicates.
	CreatePath(ctx context.Context, domainID domain.DomainID, path string) (bool, error)
	// Paths lists a domain's paths in lexical order. page starts at 1.
	Paths(ctx context.Context, domainID domain.DomainID, page, limit uint) (PathPage, error)
}
