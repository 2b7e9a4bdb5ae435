package domain

import (
	"time"

	"github.com/google/uuid"
)

// Operation is a named process within a plant (printing, laminating, ...)
// carrying a volume-tiered cost schedule.
// Costs is ordered by VolumeThresholdKg ascending.
// Plant is populated by reads that join the parent plant.
type Operation struct {
	ID        uuid.UUID
	PlantID   uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Costs     []IndirectCost
	Plant     *Plant
}

// IndirectCost is one tier: once volume reaches VolumeThresholdKg the cost
// per kilogram becomes CostPerKg.
type IndirectCost struct {
	ID                uuid.UUID
	OperationID       uuid.UUID
	VolumeThresholdKg float64
	CostPerKg         float64
}

// CostInput is the tier shape accepted by every write.
type CostInput struct {
	VolumeThresholdKg float64
	CostPerKg         float64
}

// NewOperation carries the fields needed to create an operation.
type NewOperation struct {
	PlantID uuid.UUID
	Name    string
	Costs   []CostInput
}

// OperationUpdate carries the optional fields of an operation patch.
// A non-nil Costs replaces the whole tier set, even when it points at an
// empty slice.
type OperationUpdate struct {
	Name  *string
	Costs *[]CostInput
}

// OperationFilter selects operations by any subset of its fields.
// An empty filter matches every operation.
type OperationFilter struct {
	ID      *uuid.UUID
	PlantID *uuid.UUID
	Name    *string
}

// MatrixEdit is the complete desired tier set for one operation, as saved
// from the bulk matrix view.
type MatrixEdit struct {
	OperationID uuid.UUID
	Costs       []CostInput
}

// CostInputs converts stored tiers back into write inputs.
func CostInputs(costs []IndirectCost) []CostInput {
	out := make([]CostInput, len(costs))
	for i, c := range costs {
		out[i] = CostInput{VolumeThresholdKg: c.VolumeThresholdKg, CostPerKg: c.CostPerKg}
	}
	return out
}
