// Package cli implements the costctl admin commands.
package cli

import (
	"context"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/service"
)

// PlantService is the slice of service.PlantService the commands use.
type PlantService interface {
	Create(ctx context.Context, name, code string) (domain.Plant, error)
	FindByCode(ctx context.Context, code string) (*domain.Plant, error)
	FindAllWithOperations(ctx context.Context) ([]domain.Plant, error)
}

// OperationService is the slice of service.OperationService the commands use.
type OperationService interface {
	Upsert(ctx context.Context, in domain.NewOperation) (domain.Operation, error)
}

// MatrixService is the slice of service.MatrixService the commands use.
type MatrixService interface {
	ForPlantCode(ctx context.Context, code string) (service.PlantMatrix, error)
}

// Migrator is satisfied by *goose.Provider.
type Migrator interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
	Down(ctx context.Context) (*goose.MigrationResult, error)
	Status(ctx context.Context) ([]*goose.MigrationStatus, error)
}

// Services is what the data commands run against.
type Services struct {
	Plants         PlantService
	Operations     OperationService
	Matrices       MatrixService
	SeedThresholds []float64
}

// Deps opens the resources a command needs. The openers run inside RunE so
// `--help` and flag errors never touch the database. Each returns a close
// func the command defers.
type Deps struct {
	Log          *slog.Logger
	OpenServices func(ctx context.Context) (Services, func(), error)
	OpenMigrator func(ctx context.Context) (Migrator, func(), error)
}

// NewRootCmd assembles the costctl command tree.
func NewRootCmd(d Deps) *cobra.Command {
	if d.Log == nil {
		d.Log = slog.Default()
	}

	root := &cobra.Command{
		Use:   "costctl",
		Short: "Admin tool for plant indirect costs",
		Long: `costctl manages the indirect cost database: schema migrations,
sample data, and printing or exporting a plant's cost matrix.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(MigrateCmd(d))
	root.AddCommand(SeedCmd(d))
	root.AddCommand(PlantsCmd(d))
	root.AddCommand(MatrixCmd(d))
	root.AddCommand(ExportCmd(d))

	return root
}

// withServices opens Services for the duration of fn.
func withServices(ctx context.Context, d Deps, fn func(Services) error) error {
	svc, closeFn, err := d.OpenServices(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(svc)
}
