package postgres

import (
	"context"
	"errors"
	"fmt"

	"sitepaths/pkg/domain"
	"sitepaths/pkg/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const pathsTable = "paths"

// CreatePath inserts with ON CONFLICT DO NOTHING on (domain_id, md5(path)); the
// affected row count tells whether the path is new. Paths the database refuses
// as data come back as storage.ErrRejectedValue.
func (p *PgSQL) CreatePath(ctx context.Context, domainID domain.DomainID, path string) (bool, error) {
	res, err := p.Builder.Insert(pathsTable).
		Rows(PgPath{DomainID: uuid.UUID(domainID), Path: path}).
		OnConflict(goqu.DoNothing()).
		Executor().ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("could not create path in pg: %w", rejectedValue(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not read affected rows: %w", err)
	}

	return affected > 0, nil
}

// Paths orders by byte value of the path, independent of the database locale.
func (p *PgSQL) Paths(ctx context.Context, domainID domain.DomainID, page, limit uint) (storage.PathPage, error) {
	var rows []PgPath
	if err := p.Builder.From(pathsTable).
		Where(goqu.I("domain_id").Eq(uuid.UUID(domainID))).
		Order(goqu.L(`path COLLATE "C"`).Asc()).
		Offset(offset(page, limit)).
		Limit(limit + 1).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return storage.PathPage{}, fmt.Errorf("could not fetch paths from pg: %w", err)
	}

	result := storage.PathPage{}
	if uint(len(rows)) > limit {
		rows = rows[:limit]
		result.HasNext = true
	}
	result.Paths = make([]domain.Path, 0, len(rows))
	for i := range rows {
		result.Paths = append(result.Paths, rows[i].ToDomain())
	}

	return result, nil
}

// rejectedValue classifies data exceptions (class 22) and program limit errors
// (class 54) as rejections of the written value. Anything else is returned as is.
func rejectedValue(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgerrcode.IsDataException(pgErr.Code) || pgerrcode.IsProgramLimitExceeded(pgErr.Code) {
		return storage.RejectValue(err)
	}

	return err
}
