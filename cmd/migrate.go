package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	root "sitepaths"
	"sitepaths/pkg/logger"

	"github.com/pressly/goose/v3"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Brings the domain, path and job queue tables to the latest schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			strg, closeStrg, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStrg()

			db, ok := strg.DB.(*sql.DB)
			if !ok {
				return errors.New("migrations need a non-transactional database handle")
			}

			if err := migrateSchema(ctx, db); err != nil {
				return err
			}
			applied, err := migrateJobQueue(ctx, db)
			if err != nil {
				return err
			}
			logger.Info(ctx, "database schema is up to date", zap.Int("jobQueueMigrationsApplied", applied))

			return nil
		},
	}
}

// migrateSchema applies the embedded goose migrations for domains and paths.
func migrateSchema(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(root.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("could not select goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("could not migrate domain tables: %w", err)
	}

	return nil
}

// migrateJobQueue applies every pending River migration and returns how many
// ran.
func migrateJobQueue(ctx context.Context, db *sql.DB) (int, error) {
	migrator, err := rivermigrate.New(riverdatabasesql.New(db), nil)
	if err != nil {
		return 0, fmt.Errorf("could not create job queue migrator: %w", err)
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return 0, fmt.Errorf("could not migrate job queue tables: %w", err)
	}
	for _, v := range res.Versions {
		logger.Debug(ctx, "job queue migration applied", zap.Int("version", v.Version),
			zap.Duration("took", v.Duration))
	}

	return len(res.Versions), nil
}
