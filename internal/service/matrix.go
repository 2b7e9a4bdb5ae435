package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/matrix"
	"github.com/plantops/indirect-costs/internal/repo"
)

// MatrixService assembles the threshold matrix of a plant for viewing and
// export, and prices a volume against it.
type MatrixService struct {
	plants     repo.PlantRepo
	operations repo.OperationRepo
	defaults   []float64
}

// NewMatrixService constructs a MatrixService. defaults are the thresholds
// every matrix shows even when no operation has a tier there.
func NewMatrixService(plants repo.PlantRepo, operations repo.OperationRepo, defaults []float64) *MatrixService {
	return &MatrixService{plants: plants, operations: operations, defaults: defaults}
}

// PlantMatrix is a plant together with its matrix.
type PlantMatrix struct {
	Plant  domain.Plant
	Matrix matrix.Matrix
}

// ForPlant builds the matrix of one plant. Returns domain.ErrNotFound if the
// plant does not exist.
func (s *MatrixService) ForPlant(ctx context.Context, plantID uuid.UUID) (PlantMatrix, error) {
	p, err := s.plants.GetByID(ctx, plantID)
	if err != nil {
		return PlantMatrix{}, fmt.Errorf("service.MatrixService.ForPlant: %w", err)
	}
	return s.build(ctx, "service.MatrixService.ForPlant", p)
}

// ForPlantCode is ForPlant keyed by plant code, as the CLI addresses plants.
func (s *MatrixService) ForPlantCode(ctx context.Context, code string) (PlantMatrix, error) {
	p, err := s.plants.GetByCode(ctx, normalizePlantCode(code))
	if err != nil {
		return PlantMatrix{}, fmt.Errorf("service.MatrixService.ForPlantCode: %w", err)
	}
	return s.build(ctx, "service.MatrixService.ForPlantCode", p)
}

// TotalCost returns the summed price of running volumeKg through every
// operation of the plant, using each operation's tier at exactly volumeKg.
func (s *MatrixService) TotalCost(ctx context.Context, plantID uuid.UUID, volumeKg float64) (float64, error) {
	if volumeKg <= 0 {
		return 0, fmt.Errorf("%w: volumeKg must be greater than 0", domain.ErrValidation)
	}
	if _, err := s.plants.GetByID(ctx, plantID); err != nil {
		return 0, fmt.Errorf("service.MatrixService.TotalCost: %w", err)
	}
	ops, err := s.operations.ListByPlant(ctx, plantID)
	if err != nil {
		return 0, fmt.Errorf("service.MatrixService.TotalCost: %w", err)
	}
	return matrix.TotalCost(ops, volumeKg), nil
}

// Defaults returns a copy of the configured default thresholds.
func (s *MatrixService) Defaults() []float64 {
	return append([]float64(nil), s.defaults...)
}

func (s *MatrixService) build(ctx context.Context, op string, p domain.Plant) (PlantMatrix, error) {
	ops, err := s.operations.ListByPlant(ctx, p.ID)
	if err != nil {
		return PlantMatrix{}, fmt.Errorf("%s: %w", op, err)
	}
	p.Operations = ops
	return PlantMatrix{Plant: p, Matrix: matrix.Build(ops, s.defaults)}, nil
}
