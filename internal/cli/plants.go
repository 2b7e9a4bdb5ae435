package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// PlantsCmd returns the plants command.
func PlantsCmd(d Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "plants",
		Short: "List plants and how many operations each has",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withServices(ctx, d, func(svc Services) error {
				plants, err := svc.Plants.FindAllWithOperations(ctx)
				if err != nil {
					return fmt.Errorf("failed to list plants: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(plants) == 0 {
					fmt.Fprintln(out, "No plants found")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CODE\tNAME\tOPERATIONS")
				for _, p := range plants {
					fmt.Fprintf(w, "%s\t%s\t%d\n", p.Code, p.Name, len(p.Operations))
				}
				return w.Flush()
			})
		},
	}
}
