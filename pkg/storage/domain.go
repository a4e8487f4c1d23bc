package storage

import (
	"context"

	"sitepaths/pkg/domain"
)

// DomainPage is one page of tracked domains.
type DomainPage struct {
	Domains []domain.Domain
	// HasNext reports whether another page follows.
	HasNext bool
}

// DomainStorage persists tracked domains.
type DomainStorage interface {
	// CreateDomain inserts a domain with both timestamps set to now. It returns
	// nil without an error when a domain with the same name already exists.
	CreateDomain(ctx context.Context, name string) (*domain.Domain, error)
	// DomainByName returns nil when the domain is not tracked.
	DomainByName(ctx context.Context, name string) (*domain.Domain, error)
	// TouchDomain sets last_crawled_at to now and returns the updated row, or nil
	// when the domain is not tracked.
	TouchDomain(ctx context.Context, name string) (*domain.Domain, error)
	// Domains lists domains, newest first. page starts at 1.
	Domains(ctx context.Context, page, limit uint) (DomainPage, error)
}
