package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"sitepaths/internal/crawler"
	"sitepaths/internal/tracker"

	"github.com/spf13/cobra"
)

// crawlCommand runs one crawl in the foreground, tracking the domain first when
// needed. Nothing is queued.
func (a *app) crawlCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <domain>",
		Short: "Crawls a domain once and records the discovered paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			name, err := tracker.NormalizeDomain(args[0])
			if err != nil {
				return fmt.Errorf("invalid domain %q: %w", args[0], err)
			}

			strg, closeStrg, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStrg()

			d, err := strg.CreateDomain(ctx, name)
			if err != nil {
				return fmt.Errorf("could not track domain: %w", err)
			}
			if d == nil {
				if _, err = strg.TouchDomain(ctx, name); err != nil {
					return fmt.Errorf("could not touch domain: %w", err)
				}
			}

			crwl, err := crawler.New(strg, crawler.NewOptions(a.cfg))
			if err != nil {
				return fmt.Errorf("could not create crawler: %w", err)
			}

			return crwl.Run(ctx, name)
		},
	}
}
