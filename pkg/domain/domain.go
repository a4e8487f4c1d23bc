package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainID uniquely identifies a tracked domain.
type DomainID uuid.UUID

// String returns the canonical UUID form.
func (id DomainID) String() string { return uuid.UUID(id).String() }

// Domain is an internet host the system has been asked to discover paths for.
type Domain struct {
	// ID is the unique identifier of the domain.
	ID DomainID `json:"id"`
	// Name is the normalized hostname, e.g. "example.com". It is unique.
	Name string `json:"name"`
	// CreatedAt is when the domain was first submitted.
	CreatedAt time.Time `json:"createdAt"`
	// LastCrawledAt is when a crawl was last requested for the domain.
	LastCrawledAt time.Time `json:"lastCrawledAt"`
}

// Path is a URL path discovered on a domain. A (DomainID, Path) pair is recorded
// at most once.
type Path struct {
	ID       int64    `json:"-"`
	DomainID DomainID `json:"domainId"`
	// Path always begins with "/".
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}
