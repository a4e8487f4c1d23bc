package tracker

import (
	"context"
	"fmt"

	"sitepaths/internal/config"
	"sitepaths/pkg/domain"
	"sitepaths/pkg/logger"
	"sitepaths/pkg/serrors"
	"sitepaths/pkg/storage"

	"go.uber.org/zap"
)

// MaxPageSize caps the limit accepted by the listing operations.
const MaxPageSize = 100

type Options struct {
	// MaxAttempts is how many times a crawl job is tried before it is discarded.
	MaxAttempts int
}

func NewOptions(cfg *config.Config) Options {
	return Options{MaxAttempts: cfg.Worker.MaxAttempts}
}

type tracker struct {
	options Options
	storage storage.Storage
}

func New(storage storage.Storage, options Options) Tracker {
	return &tracker{
		options: options,
		storage: storage,
	}
}

// Submit creates the domain and its crawl job in one transaction, so a domain is
// never tracked without a crawl having been queued for it.
func (t *tracker) Submit(ctx context.Context, raw string) (*domain.Domain, error) {
	name, err := NormalizeDomain(raw)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid domain")
	}

	var created *domain.Domain
	if err := t.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		created, err = tx.CreateDomain(ctx, name)
		if err != nil {
			return fmt.Errorf("could not create domain: %w", err)
		}
		if created == nil {
			return serrors.With(serrors.ErrAlreadyExists, "domain already searched for previously")
		}

		return t.enqueue(ctx, tx, name)
	}); err != nil {
		return nil, fmt.Errorf("could not submit domain %s: %w", name, err)
	}

	logger.Info(ctx, "domain submitted", zap.String("domain", name))

	return created, nil
}

// Refresh and Paths accept a name in any form Submit accepts.
func (t *tracker) Refresh(ctx context.Context, raw string) (*domain.Domain, error) {
	name, err := lookupName(raw)
	if err != nil {
		return nil, err
	}

	var touched *domain.Domain
	if err := t.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		var err error
		touched, err = tx.TouchDomain(ctx, name)
		if err != nil {
			return fmt.Errorf("could not touch domain: %w", err)
		}
		if touched == nil {
			return serrors.With(serrors.ErrNotFound, "domain not found")
		}

		return t.enqueue(ctx, tx, name)
	}); err != nil {
		return nil, fmt.Errorf("could not refresh domain %s: %w", name, err)
	}

	logger.Info(ctx, "domain refresh requested", zap.String("domain", name))

	return touched, nil
}

func (t *tracker) enqueue(ctx context.Context, tx storage.AllStorage, name string) error {
	added, err := tx.AddJob(ctx, JobArgs{Domain: name, maxAttempts: t.options.MaxAttempts}, nil)
	if err != nil {
		return fmt.Errorf("could not add crawl job: %w", err)
	}
	if !added {
		// an unfinished crawl for the domain is already queued and will pick up
		// the same state
		logger.Debug(ctx, "crawl already queued", zap.String("domain", name))
	}

	return nil
}

func (t *tracker) Domains(ctx context.Context, page, limit uint) (storage.DomainPage, error) {
	page, limit, err := checkPage(page, limit)
	if err != nil {
		return storage.DomainPage{}, err
	}

	res, err := t.storage.Domains(ctx, page, limit)
	if err != nil {
		return storage.DomainPage{}, fmt.Errorf("could not list domains: %w", err)
	}

	return res, nil
}

func (t *tracker) Paths(ctx context.Context, raw string, page, limit uint) (storage.PathPage, error) {
	page, limit, err := checkPage(page, limit)
	if err != nil {
		return storage.PathPage{}, err
	}
	name, err := lookupName(raw)
	if err != nil {
		return storage.PathPage{}, err
	}

	d, err := t.storage.DomainByName(ctx, name)
	if err != nil {
		return storage.PathPage{}, fmt.Errorf("could not get domain: %w", err)
	}
	if d == nil {
		return storage.PathPage{}, serrors.With(serrors.ErrNotFound, "domain not found")
	}

	res, err := t.storage.Paths(ctx, d.ID, page, limit)
	if err != nil {
		return storage.PathPage{}, fmt.Errorf("could not list paths: %w", err)
	}

	return res, nil
}

// lookupName normalizes the name of a domain to look up. A name that cannot be
// normalized cannot be tracked either.
func lookupName(raw string) (string, error) {
	name, err := NormalizeDomain(raw)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrNotFound, err, "domain not found")
	}

	return name, nil
}

func checkPage(page, limit uint) (uint, uint, error) {
	if limit == 0 || limit > MaxPageSize {
		return 0, 0, serrors.With(serrors.ErrBadRequest, "limit must be between 1 and %d", MaxPageSize)
	}
	if page == 0 {
		page = 1
	}

	return page, limit, nil
}
