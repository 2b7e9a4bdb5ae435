// Package matrix builds the dense operation × volume-threshold grid used to
// view and bulk-edit cost tiers. Everything here is pure: no I/O, no state.
package matrix

import (
	"sort"

	"github.com/google/uuid"

	"github.com/plantops/indirect-costs/internal/domain"
)

// Cell is one (operation, threshold) entry.
// Exists is false when the operation has no tier at that threshold; CostPerKg
// is then 0 and must not be read as "priced at zero".
type Cell struct {
	CostPerKg float64
	Exists    bool
}

// Row holds the cells of one operation, aligned with Matrix.Thresholds.
type Row struct {
	OperationID   uuid.UUID
	OperationName string
	Cells         []Cell
}

// Matrix is a rectangular view: len(Rows[i].Cells) == len(Thresholds) for
// every row, regardless of how sparse the stored tiers are.
type Matrix struct {
	Thresholds []float64
	Rows       []Row
}

// Thresholds returns the sorted union of defaults and every threshold found
// in the tiers of ops. Duplicates collapse to one column.
func Thresholds(ops []domain.Operation, defaults []float64) []float64 {
	seen := make(map[float64]struct{}, len(defaults))
	for _, t := range defaults {
		seen[t] = struct{}{}
	}
	for _, op := range ops {
		for _, c := range op.Costs {
			seen[c.VolumeThresholdKg] = struct{}{}
		}
	}

	out := make([]float64, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Float64s(out)
	return out
}

// Build computes the threshold axis and fills one row per operation, in the
// order ops is given.
func Build(ops []domain.Operation, defaults []float64) Matrix {
	axis := Thresholds(ops, defaults)

	rows := make([]Row, len(ops))
	for i, op := range ops {
		byThreshold := make(map[float64]float64, len(op.Costs))
		for _, c := range op.Costs {
			byThreshold[c.VolumeThresholdKg] = c.CostPerKg
		}

		cells := make([]Cell, len(axis))
		for j, t := range axis {
			if cost, ok := byThreshold[t]; ok {
				cells[j] = Cell{CostPerKg: cost, Exists: true}
			}
		}
		rows[i] = Row{OperationID: op.ID, OperationName: op.Name, Cells: cells}
	}

	return Matrix{Thresholds: axis, Rows: rows}
}

// Cell looks up the cell for an operation at a threshold. ok is false when
// the operation is not in the matrix or the threshold is not on the axis.
func (m Matrix) Cell(operationID uuid.UUID, threshold float64) (Cell, bool) {
	j := sort.SearchFloat64s(m.Thresholds, threshold)
	if j == len(m.Thresholds) || m.Thresholds[j] != threshold {
		return Cell{}, false
	}
	for _, r := range m.Rows {
		if r.OperationID == operationID {
			return r.Cells[j], true
		}
	}
	return Cell{}, false
}

// Edits converts every row back into a full-replacement tier list, keeping
// only cells that exist. The result feeds OperationService.ApplyMatrix.
func (m Matrix) Edits() []domain.MatrixEdit {
	edits := make([]domain.MatrixEdit, len(m.Rows))
	for i, r := range m.Rows {
		costs := []domain.CostInput{}
		for j, c := range r.Cells {
			if c.Exists {
				costs = append(costs, domain.CostInput{VolumeThresholdKg: m.Thresholds[j], CostPerKg: c.CostPerKg})
			}
		}
		edits[i] = domain.MatrixEdit{OperationID: r.OperationID, Costs: costs}
	}
	return edits
}

// TotalCost sums costPerKg × volumeKg over every operation that has a tier
// exactly at volumeKg. Operations without such a tier contribute nothing.
func TotalCost(ops []domain.Operation, volumeKg float64) float64 {
	var total float64
	for _, op := range ops {
		for _, c := range op.Costs {
			if c.VolumeThresholdKg == volumeKg {
				total += c.CostPerKg * volumeKg
				break
			}
		}
	}
	return total
}
