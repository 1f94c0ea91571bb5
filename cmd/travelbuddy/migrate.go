package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/c0ncepT23/Travelbuddy-sub005/migrations"
)

func newMigrateCommand(c *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), c, "up", cmd.OutOrStdout())
		},
	}
	for _, action := range []struct{ use, short string }{
		{"up", "Apply all pending migrations"},
		{"down", "Roll back the most recent migration"},
		{"status", "Show applied and pending migrations"},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   action.use,
			Short: action.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context(), c, action.use, cmd.OutOrStdout())
			},
		})
	}
	return cmd
}

func runMigrate(ctx context.Context, c *commandContext, action string, out io.Writer) error {
	db, err := openSQLDB(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := migrations.NewProvider(c.cfg.StoreDriver, db)
	if err != nil {
		return err
	}

	switch action {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		if len(results) == 0 {
			fmt.Fprintln(out, "schema is up to date")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(out, "applied %s (%s)\n", r.Source.Path, r.Duration.Round(time.Millisecond))
		}
	case "down":
		r, err := provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		if r == nil || r.Source == nil {
			fmt.Fprintln(out, "nothing to roll back")
			return nil
		}
		fmt.Fprintf(out, "rolled back %s\n", r.Source.Path)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}
		fmt.Fprintln(out, renderStatus(statuses))
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}
	return nil
}

func renderStatus(statuses []*goose.MigrationStatus) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		applied := ""
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			strconv.FormatInt(s.Source.Version, 10),
			s.Source.Path,
			string(s.State),
			applied,
		})
	}
	return renderTable([]string{"Version", "Migration", "State", "Applied At"}, rows, []columnAlignment{alignRight})
}
