package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/plantops/indirect-costs/internal/domain"
)

const (
	seedPlantName = "Planta Lima"
	seedPlantCode = "LIM"
)

var seedOperations = []string{"Impresión", "Laminado", "Embolsado"}

// SeedCmd returns the seed command.
func SeedCmd(d Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample plant and its operations",
		Long: `Create plant LIM (Planta Lima) with three operations, each holding one
zero-cost tier per SEED_THRESHOLDS value. Re-running resets those
operations' tiers to zero and leaves everything else alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withServices(ctx, d, func(svc Services) error {
				plant, err := svc.Plants.FindByCode(ctx, seedPlantCode)
				if err != nil {
					return fmt.Errorf("failed to look up plant: %w", err)
				}
				if plant == nil {
					created, err := svc.Plants.Create(ctx, seedPlantName, seedPlantCode)
					if err != nil {
						return fmt.Errorf("failed to create plant: %w", err)
					}
					plant = &created
				}

				costs := make([]domain.CostInput, len(svc.SeedThresholds))
				for i, t := range svc.SeedThresholds {
					costs[i] = domain.CostInput{VolumeThresholdKg: t}
				}

				for _, name := range seedOperations {
					if _, err := svc.Operations.Upsert(ctx, domain.NewOperation{
						PlantID: plant.ID,
						Name:    name,
						Costs:   costs,
					}); err != nil {
						return fmt.Errorf("failed to seed operation %q: %w", name, err)
					}
				}

				d.Log.Info("seed complete", "plant", plant.Code, "operations", len(seedOperations), "tiers", len(costs))
				fmt.Fprintf(cmd.OutOrStdout(), "%s Seeded plant %s (%s) with %d operation(s)\n",
					color.New(color.FgGreen).Sprint("✓"), plant.Code, plant.Name, len(seedOperations))
				return nil
			})
		},
	}
}
