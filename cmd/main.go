// Command sitepaths tracks internet domains and records the URL paths found on
// them. serve runs the API and the crawl workers, crawl runs one crawl in the
// foreground, migrate prepares the database and jwt issues API tokens.
package main

import (
	"context"
	"fmt"
	"os"

	"sitepaths/internal/config"
	"sitepaths/pkg/logger"
	"sitepaths/pkg/storage/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every subcommand shares once the root command has loaded the
// configuration.
type app struct {
	configPath string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "sitepaths",
		Short:             "Discovers and tracks the URL paths of internet domains",
		SilenceUsage:      true,
		PersistentPreRunE: a.loadConfig,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config.yml", "path of the YAML config file")

	root.AddCommand(
		a.migrateCommand(),
		a.serveCommand(),
		a.crawlCommand(),
		a.jwtCommand(),
	)

	return root
}

func (a *app) loadConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("could not load config from %s: %w", a.configPath, err)
	}
	logger.Setup(cfg.Environment)
	a.cfg = cfg

	return nil
}

// openStore connects to postgres. The returned func closes the pool.
func (a *app) openStore(ctx context.Context) (*postgres.PgSQL, func(), error) {
	db := a.cfg.Database
	pg, err := postgres.New(ctx, postgres.Options{
		Username:           db.Username,
		Password:           db.Password,
		Host:               db.Host,
		Port:               db.Port,
		Database:           db.DatabaseName,
		SslMode:            db.SslMode,
		ConnMaxLifetime:    db.ConnMaxLifetime,
		ConnMaxIdleTime:    db.ConnMaxIdleTime,
		MaxOpenConnections: db.MaxOpenConnections,
		MaxIdleConnections: db.MaxIdleConnections,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to postgres at %s:%d: %w", db.Host, db.Port, err)
	}

	return pg, func() {
		if err := pg.Close(); err != nil {
			logger.Warn(ctx, "postgres pool did not close cleanly", zap.Error(err))
		}
	}, nil
}

func main() {
	err := newRootCommand().Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
