package postgres

import (
	"context"
	"fmt"

	"sitepaths/pkg/domain"
	"sitepaths/pkg/storage"

	"github.com/doug-martin/goqu/v9"
)

const domainsTable = "domains"

// CreateDomain relies on the unique name constraint, so two concurrent
// submissions of the same name create a single row.
func (p *PgSQL) CreateDomain(ctx context.Context, name string) (*domain.Domain, error) {
	var row PgDomain
	found, err := p.Builder.Insert(domainsTable).
		Rows(PgDomain{Name: name}).
		OnConflict(goqu.DoNothing()).
		Returning(&PgDomain{}).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not create domain in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

func (p *PgSQL) DomainByName(ctx context.Context, name string) (*domain.Domain, error) {
	var row PgDomain
	found, err := p.Builder.From(domainsTable).
		Where(goqu.I("name").Eq(name)).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch domain by name: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

func (p *PgSQL) TouchDomain(ctx context.Context, name string) (*domain.Domain, error) {
	var row PgDomain
	found, err := p.Builder.Update(domainsTable).
		Set(goqu.Record{"last_crawled_at": goqu.L("CURRENT_TIMESTAMP")}).
		Where(goqu.I("name").Eq(name)).
		Returning(&PgDomain{}).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not touch domain in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// Domains returns domains ordered by created_at DESC, id DESC.
func (p *PgSQL) Domains(ctx context.Context, page, limit uint) (storage.DomainPage, error) {
	// one extra row tells whether there is a next page
	var rows []PgDomain
	if err := p.Builder.From(domainsTable).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Offset(offset(page, limit)).
		Limit(limit + 1).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return storage.DomainPage{}, fmt.Errorf("could not fetch domains from pg: %w", err)
	}

	result := storage.DomainPage{}
	if uint(len(rows)) > limit {
		rows = rows[:limit]
		result.HasNext = true
	}
	result.Domains = make([]domain.Domain, 0, len(rows))
	for i := range rows {
		result.Domains = append(result.Domains, *rows[i].ToDomain())
	}

	return result, nil
}
