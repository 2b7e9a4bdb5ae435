package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

// MigrateCmd returns the migrate command.
func MigrateCmd(d Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
		Long: `Run the embedded goose migrations against DATABASE_URL.

Examples:
  costctl migrate up
  costctl migrate status`,
	}

	cmd.AddCommand(migrateUpCmd(d))
	cmd.AddCommand(migrateDownCmd(d))
	cmd.AddCommand(migrateStatusCmd(d))

	return cmd
}

func migrateUpCmd(d Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeFn, err := d.OpenMigrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			results, err := m.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No pending migrations")
				return nil
			}
			for _, r := range results {
				printResult(out, r)
			}
			d.Log.Info("migrations applied", "count", len(results))
			return nil
		},
	}
}

func migrateDownCmd(d Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeFn, err := d.OpenMigrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			r, err := m.Down(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			printResult(cmd.OutOrStdout(), r)
			return nil
		},
	}
}

func migrateStatusCmd(d Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeFn, err := d.OpenMigrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := m.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate status: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, s := range statuses {
				state := color.New(color.FgYellow).Sprint("pending")
				applied := ""
				if s.State == goose.StateApplied {
					state = color.New(color.FgGreen).Sprint("applied")
					applied = s.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(out, "%05d  %s  %s  %s\n", s.Source.Version, state, s.Source.Path, applied)
			}
			return nil
		},
	}
}

func printResult(out io.Writer, r *goose.MigrationResult) {
	if r == nil || r.Source == nil {
		return
	}
	fmt.Fprintf(out, "%s %s %05d %s (%s)\n",
		color.New(color.FgGreen).Sprint("✓"), r.Direction, r.Source.Version, r.Source.Path, r.Duration.Round(time.Millisecond))
}
