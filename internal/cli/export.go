package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/plantops/indirect-costs/internal/export"
)

// ExportCmd returns the export command.
func ExportCmd(d Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a plant's cost matrix to a CSV, XLSX or PDF file",
		Long: `Export the matrix of one plant. Without --out the file is named
matrix-<code>.<format> in the current directory; --out - writes to stdout.

Examples:
  costctl export --plant LIM --format xlsx
  costctl export --plant LIM --format csv --out - > lim.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, _ := cmd.Flags().GetString("plant")
			formatFlag, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")

			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return withServices(ctx, d, func(svc Services) error {
				pm, err := svc.Matrices.ForPlantCode(ctx, code)
				if err != nil {
					return fmt.Errorf("failed to build matrix for %s: %w", code, err)
				}

				var buf bytes.Buffer
				if err := export.Write(&buf, format, pm.Plant, pm.Matrix); err != nil {
					return fmt.Errorf("failed to render %s: %w", format, err)
				}

				if outPath == "-" {
					_, err := buf.WriteTo(cmd.OutOrStdout())
					return err
				}
				if outPath == "" {
					outPath = format.Filename(pm.Plant)
				}
				if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outPath, err)
				}

				d.Log.Info("matrix exported", "plant", pm.Plant.Code, "format", string(format), "path", outPath, "bytes", buf.Len())
				fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", color.New(color.FgGreen).Sprint("✓"), outPath)
				return nil
			})
		},
	}
	cmd.Flags().String("plant", "", "plant code (required)")
	cmd.Flags().String("format", "csv", "csv, xlsx or pdf")
	cmd.Flags().String("out", "", "output path, - for stdout")
	_ = cmd.MarkFlagRequired("plant")

	return cmd
}
