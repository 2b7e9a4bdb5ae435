package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/plantops/indirect-costs/internal/matrix"
	"github.com/plantops/indirect-costs/internal/service"
)

// MatrixCmd returns the matrix command.
func MatrixCmd(d Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Print a plant's cost matrix",
		Long: `Print one row per operation and one column per volume threshold.
Cells without a configured tier show "-".

Examples:
  costctl matrix --plant LIM`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, _ := cmd.Flags().GetString("plant")
			ctx := cmd.Context()
			return withServices(ctx, d, func(svc Services) error {
				pm, err := svc.Matrices.ForPlantCode(ctx, code)
				if err != nil {
					return fmt.Errorf("failed to build matrix for %s: %w", code, err)
				}
				renderMatrix(cmd.OutOrStdout(), pm)
				return nil
			})
		},
	}
	cmd.Flags().String("plant", "", "plant code (required)")
	_ = cmd.MarkFlagRequired("plant")

	return cmd
}

// renderMatrix writes pm as an aligned table. Padding is applied before
// coloring so escape codes do not skew the columns.
func renderMatrix(out io.Writer, pm service.PlantMatrix) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	fmt.Fprintf(out, "%s (%s)\n\n", bold.Sprint(pm.Plant.Name), pm.Plant.Code)
	if len(pm.Matrix.Rows) == 0 {
		fmt.Fprintln(out, "No operations")
		return
	}

	header := make([]string, 0, len(pm.Matrix.Thresholds)+1)
	header = append(header, "Operation")
	for _, t := range pm.Matrix.Thresholds {
		header = append(header, matrix.FormatVolume(t))
	}
	rows := make([][]string, len(pm.Matrix.Rows))
	for i, r := range pm.Matrix.Rows {
		row := make([]string, 0, len(r.Cells)+1)
		row = append(row, r.OperationName)
		for _, c := range r.Cells {
			row = append(row, matrix.FormatCell(c))
		}
		rows[i] = row
	}

	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for j, s := range row {
			widths[j] = max(widths[j], utf8.RuneCountInString(s))
		}
	}

	line := make([]string, len(header))
	for j, s := range header {
		line[j] = bold.Sprint(pad(s, widths[j], j > 0))
	}
	fmt.Fprintln(out, strings.Join(line, "  "))

	for i, row := range rows {
		for j, s := range row {
			cell := pad(s, widths[j], j > 0)
			if j > 0 && !pm.Matrix.Rows[i].Cells[j-1].Exists {
				cell = faint.Sprint(cell)
			}
			line[j] = cell
		}
		fmt.Fprintln(out, strings.Join(line, "  "))
	}
}

// pad fills s with spaces to width runes, on the left when right is set.
func pad(s string, width int, right bool) string {
	fill := strings.Repeat(" ", max(0, width-utf8.RuneCountInString(s)))
	if right {
		return fill + s
	}
	return s + fill
}
