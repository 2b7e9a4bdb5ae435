package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/matrix"
)

// Plant is the JSON shape of a plant. Operations is present only on reads
// that eager-load them.
type Plant struct {
	ID         uuid.UUID    `json:"id"`
	Name       string       `json:"name"`
	Code       string       `json:"code"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	Operations *[]Operation `json:"operations,omitempty"`
}

// Operation is the JSON shape of an operation with its tiers.
type Operation struct {
	ID        uuid.UUID      `json:"id"`
	PlantID   uuid.UUID      `json:"plantId"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Costs     []IndirectCost `json:"costs"`
	Plant     *Plant         `json:"plant,omitempty"`
}

// IndirectCost is the JSON shape of one tier.
type IndirectCost struct {
	ID                uuid.UUID `json:"id"`
	OperationID       uuid.UUID `json:"operationId"`
	VolumeThresholdKg float64   `json:"volumeThresholdKg"`
	CostPerKg         float64   `json:"costPerKg"`
}

// CostInput is the tier shape accepted by every write.
type CostInput struct {
	VolumeThresholdKg float64 `json:"volumeThresholdKg"`
	CostPerKg         float64 `json:"costPerKg"`
}

// DeleteResponse answers DELETE requests.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// HealthResponse answers GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// MatrixResponse is the dense matrix of one plant.
type MatrixResponse struct {
	Plant      Plant       `json:"plant"`
	Thresholds []float64   `json:"thresholds"`
	Labels     []string    `json:"labels"`
	Rows       []MatrixRow `json:"rows"`
}

// MatrixRow is one operation's cells, aligned with MatrixResponse.Thresholds.
type MatrixRow struct {
	OperationID   uuid.UUID    `json:"operationId"`
	OperationName string       `json:"operationName"`
	Cells         []MatrixCell `json:"cells"`
}

// MatrixCell is one matrix entry. Exists is false when no tier is set.
type MatrixCell struct {
	CostPerKg float64 `json:"costPerKg"`
	Exists    bool    `json:"exists"`
}

// TotalCostResponse answers GET /plants/{plantID}/total-cost.
type TotalCostResponse struct {
	PlantID   uuid.UUID `json:"plantId"`
	VolumeKg  float64   `json:"volumeKg"`
	TotalCost float64   `json:"totalCost"`
}

// ---- requests --------------------------------------------------------------

type createPlantRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type updatePlantRequest struct {
	Name *string `json:"name"`
	Code *string `json:"code"`
}

type createOperationRequest struct {
	PlantID uuid.UUID   `json:"plantId"`
	Name    string      `json:"name"`
	Costs   []CostInput `json:"costs"`
}

type updateOperationRequest struct {
	Name  *string      `json:"name"`
	Costs *[]CostInput `json:"costs"`
}

type costsRequest struct {
	Costs *[]CostInput `json:"costs"`
}

type matrixEditRequest struct {
	OperationID uuid.UUID   `json:"operationId"`
	Costs       []CostInput `json:"costs"`
}

type saveMatrixRequest struct {
	Edits []matrixEditRequest `json:"edits"`
}

// ---- mapping ---------------------------------------------------------------

func plantToResponse(p domain.Plant) Plant {
	out := Plant{
		ID:        p.ID,
		Name:      p.Name,
		Code:      p.Code,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Operations != nil {
		ops := operationsToResponse(p.Operations)
		out.Operations = &ops
	}
	return out
}

func plantsToResponse(plants []domain.Plant) []Plant {
	out := make([]Plant, len(plants))
	for i, p := range plants {
		out[i] = plantToResponse(p)
	}
	return out
}

func operationToResponse(op domain.Operation) Operation {
	out := Operation{
		ID:        op.ID,
		PlantID:   op.PlantID,
		Name:      op.Name,
		CreatedAt: op.CreatedAt,
		UpdatedAt: op.UpdatedAt,
		Costs:     costsToResponse(op.Costs),
	}
	if op.Plant != nil {
		p := plantToResponse(*op.Plant)
		p.Operations = nil
		out.Plant = &p
	}
	return out
}

func operationsToResponse(ops []domain.Operation) []Operation {
	out := make([]Operation, len(ops))
	for i, op := range ops {
		out[i] = operationToResponse(op)
	}
	return out
}

func costsToResponse(costs []domain.IndirectCost) []IndirectCost {
	out := make([]IndirectCost, len(costs))
	for i, c := range costs {
		out[i] = IndirectCost{
			ID:                c.ID,
			OperationID:       c.OperationID,
			VolumeThresholdKg: c.VolumeThresholdKg,
			CostPerKg:         c.CostPerKg,
		}
	}
	return out
}

// costInputsToDomain converts request tiers. A nil slice stays nil.
func costInputsToDomain(in []CostInput) []domain.CostInput {
	if in == nil {
		return nil
	}
	out := make([]domain.CostInput, len(in))
	for i, c := range in {
		out[i] = domain.CostInput{VolumeThresholdKg: c.VolumeThresholdKg, CostPerKg: c.CostPerKg}
	}
	return out
}

func matrixToResponse(p domain.Plant, m matrix.Matrix) MatrixResponse {
	plant := plantToResponse(p)
	plant.Operations = nil

	out := MatrixResponse{
		Plant:      plant,
		Thresholds: m.Thresholds,
		Labels:     make([]string, len(m.Thresholds)),
		Rows:       make([]MatrixRow, len(m.Rows)),
	}
	for i, t := range m.Thresholds {
		out.Labels[i] = matrix.FormatVolume(t)
	}
	for i, r := range m.Rows {
		cells := make([]MatrixCell, len(r.Cells))
		for j, c := range r.Cells {
			cells[j] = MatrixCell{CostPerKg: c.CostPerKg, Exists: c.Exists}
		}
		out.Rows[i] = MatrixRow{OperationID: r.OperationID, OperationName: r.OperationName, Cells: cells}
	}
	return out
}
