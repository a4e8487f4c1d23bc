package postgres

import (
	"time"

	"sitepaths/pkg/domain"

	"github.com/google/uuid"
)

type PgDomain struct {
	ID            uuid.UUID `db:"id"              goqu:"skipinsert"`
	Name          string    `db:"name"`
	CreatedAt     time.Time `db:"created_at"      goqu:"skipinsert"`
	LastCrawledAt time.Time `db:"last_crawled_at" goqu:"skipinsert"`
}

func (p *PgDomain) ToDomain() *domain.Domain {
	return &domain.Domain{
		ID:            domain.DomainID(p.ID),
		Name:          p.Name,
		CreatedAt:     p.CreatedAt,
		LastCrawledAt: p.LastCrawledAt,
	}
}

type PgPath struct {
	ID        int64     `db:"id"         goqu:"skipinsert"`
	DomainID  uuid.UUID `db:"domain_id"`
	Path      string    `db:"path"`
	CreatedAt time.Time `db:"created_at" goqu:"skipinsert"`
}

func (p *PgPath) ToDomain() domain.Path {
	return domain.Path{
		ID:        p.ID,
		DomainID:  domain.DomainID(p.DomainID),
		Path:      p.Path,
		CreatedAt: p.CreatedAt,
	}
}

// offset converts a 1-based page number into a row offset.
func offset(page, limit uint) uint {
	if page <= 1 {
		return 0
	}

	return (page - 1) * limit
}
