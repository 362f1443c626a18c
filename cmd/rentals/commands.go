package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/rentals/internal/config"
	"github.com/gosuda/rentals/internal/domain"
	"github.com/gosuda/rentals/internal/record"
	"github.com/gosuda/rentals/internal/store"
	"github.com/gosuda/rentals/internal/store/flatfile"
	"github.com/gosuda/rentals/internal/store/postgres"
	redisstore "github.com/gosuda/rentals/internal/store/redis"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "rentals",
		Short:         "Maintain the rental record files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the record files")

	root.AddCommand(
		checkCmd(cfg),
		migrateCmd(cfg),
		removeCmd(cfg),
		mirrorCmd(cfg),
		watchCmd(cfg),
	)

	return root
}

// openCoordinator builds a coordinator for cfg, attaching the Redis save
// notifier when one is configured. The returned func releases it.
func openCoordinator(cmd *cobra.Command, cfg *config.Config) (*flatfile.Coordinator, func(), error) {
	opts := []flatfile.Option{}
	if cfg.WriteLegacyProperties {
		opts = append(opts, flatfile.WithPropertyLayout(record.LayoutLegacy))
	}

	closeFn := func() {}
	if cfg.Redis.Enabled() {
		pub, err := redisstore.New(cmd.Context(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, flatfile.WithNotifier(pub))
		closeFn = func() {
			if err := pub.Close(); err != nil {
				log.Warn().Err(err).Msg("rentals: closing redis")
			}
		}
	}

	return flatfile.New(cfg.DataDir, opts...), closeFn, nil
}

func printReport(w io.Writer, rep *flatfile.Report) {
	for _, k := range domain.Kinds() {
		fmt.Fprintf(w, "%-18s loaded %d of %d\n", flatfile.FileName(k), rep.Loaded[k], rep.Read[k])
	}
	for _, warning := range rep.Warnings {
		fmt.Fprintf(w, "warning: %v\n", warning)
	}
	fmt.Fprintln(w, rep.Summary())
}

func checkCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load every file and report skipped or unresolved records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			follow, _ := cmd.Flags().GetBool("follow")

			c, done, err := openCoordinator(cmd, cfg)
			if err != nil {
				return err
			}
			defer done()

			if follow {
				return c.Watch(cmd.Context(), flatfile.DefaultDebounce, func(_ *store.Snapshot, rep *flatfile.Report) {
					printReport(cmd.OutOrStdout(), rep)
				})
			}

			_, rep, err := c.LoadAll(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}

	cmd.Flags().Bool("follow", false, "Keep running and re-check whenever a file changes")

	return cmd
}

func migrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite every file in the canonical format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, done, err := openCoordinator(cmd, cfg)
			if err != nil {
				return err
			}
			defer done()

			snap, rep, err := c.LoadAll(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)

			if err := c.SaveAll(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rewrote %s\n", c.Dir())
			return nil
		},
	}
}

func removeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <kind> <id>",
		Short: "Remove one record and save",
		Long: "Remove one record by kind (tenant, host, property, agreement, payment) and ID.\n" +
			"Records that referenced it are dropped with a warning on the next load.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}

			c, done, err := openCoordinator(cmd, cfg)
			if err != nil {
				return err
			}
			defer done()

			snap, _, err := c.LoadAll(cmd.Context())
			if err != nil {
				return err
			}
			if err := snap.Remove(kind, args[1]); err != nil {
				return err
			}
			if err := c.SaveAll(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s %s\n", kind, args[1])
			return nil
		},
	}
}

func mirrorCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "mirror",
		Short: "Copy the loaded records into PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cfg.Database.Enabled() {
				return errors.New("mirror: RENTALS_DB_DSN is required")
			}
			if cfg.Database.MaxConns > math.MaxInt32 {
				return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
			}

			c, done, err := openCoordinator(cmd, cfg)
			if err != nil {
				return err
			}
			defer done()

			snap, rep, err := c.LoadAll(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)

			m, err := postgres.New(cmd.Context(), cfg.Database.DSN, int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
			if err != nil {
				return err
			}
			defer m.Close()

			counts, err := m.Sync(cmd.Context(), c.Dir(), snap)
			if err != nil {
				return err
			}
			for _, k := range domain.Kinds() {
				fmt.Fprintf(cmd.OutOrStdout(), "mirrored %d %s rows\n", counts[k], k)
			}
			return nil
		},
	}
}

func watchCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print save events published by other processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cfg.Redis.Enabled() {
				return errors.New("watch: RENTALS_REDIS_ADDR is required")
			}

			pub, err := redisstore.New(cmd.Context(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				return err
			}
			defer pub.Close()

			out := cmd.OutOrStdout()
			last, err := pub.LastSave(cmd.Context())
			switch {
			case errors.Is(err, domain.ErrNotFound):
				fmt.Fprintln(out, "no save recorded yet")
			case err != nil:
				return err
			default:
				printEvent(out, *last)
			}

			events, cleanup, err := pub.Subscribe(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			for ev := range events {
				printEvent(out, ev)
			}
			return nil
		},
	}
}

func printEvent(w io.Writer, ev redisstore.SaveEvent) {
	fmt.Fprintf(w, "%s saved %s (%d tenants, %d hosts, %d properties, %d agreements, %d payments, %d orphans)\n",
		ev.SavedAt.Format(time.RFC3339), ev.DataDir,
		ev.Counts[domain.KindTenant], ev.Counts[domain.KindHost], ev.Counts[domain.KindProperty],
		ev.Counts[domain.KindAgreement], ev.Counts[domain.KindPayment], ev.Orphans)
}
