// Package service contains the business logic for the indirect cost service.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/repo"
)

// PlantService implements business logic for Plant operations.
// It holds the operations repo as well because the "with operations" reads
// eager-load every operation of a plant.
type PlantService struct {
	plants     repo.PlantRepo
	operations repo.OperationRepo
}

// NewPlantService constructs a PlantService backed by the provided repos.
func NewPlantService(plants repo.PlantRepo, operations repo.OperationRepo) *PlantService {
	return &PlantService{plants: plants, operations: operations}
}

// Create validates and persists a new plant. The code is trimmed and
// upper-cased first. Returns domain.ErrDuplicateKey when the code or name is
// already taken.
func (s *PlantService) Create(ctx context.Context, name, code string) (domain.Plant, error) {
	name, err := validateName("name", name, maxPlantNameLength)
	if err != nil {
		return domain.Plant{}, err
	}
	code, err = validatePlantCode(code)
	if err != nil {
		return domain.Plant{}, err
	}

	result, err := s.plants.Create(ctx, name, code)
	if err != nil {
		return domain.Plant{}, fmt.Errorf("service.PlantService.Create: %w", err)
	}
	return result, nil
}

// FindAll returns every plant ordered by name.
// Always returns a non-nil slice so callers can safely range over it.
func (s *PlantService) FindAll(ctx context.Context) ([]domain.Plant, error) {
	plants, err := s.plants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.PlantService.FindAll: %w", err)
	}
	if plants == nil {
		return []domain.Plant{}, nil
	}
	return plants, nil
}

// FindOne returns the plant with the given ID, or nil if there is none.
func (s *PlantService) FindOne(ctx context.Context, id uuid.UUID) (*domain.Plant, error) {
	p, err := s.plants.GetByID(ctx, id)
	if err != nil {
		return absent[domain.Plant]("service.PlantService.FindOne", err)
	}
	return &p, nil
}

// FindByCode returns the plant with the given code, or nil if there is none.
// The code is normalized the same way Create normalizes it.
func (s *PlantService) FindByCode(ctx context.Context, code string) (*domain.Plant, error) {
	p, err := s.plants.GetByCode(ctx, normalizePlantCode(code))
	if err != nil {
		return absent[domain.Plant]("service.PlantService.FindByCode", err)
	}
	return &p, nil
}

// FindAllWithOperations returns every plant with its operations and their
// tiers. Plants are ordered by name, operations by name within each plant.
func (s *PlantService) FindAllWithOperations(ctx context.Context) ([]domain.Plant, error) {
	plants, err := s.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.PlantService.FindAllWithOperations: %w", err)
	}
	ops, err := s.operations.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.PlantService.FindAllWithOperations: %w", err)
	}

	byPlant := make(map[uuid.UUID][]domain.Operation, len(plants))
	for _, op := range ops {
		byPlant[op.PlantID] = append(byPlant[op.PlantID], op)
	}
	for i := range plants {
		plants[i].Operations = byPlant[plants[i].ID]
		if plants[i].Operations == nil {
			plants[i].Operations = []domain.Operation{}
		}
	}
	return plants, nil
}

// FindOneWithOperations returns one plant with its operations and tiers,
// or nil if the plant does not exist.
func (s *PlantService) FindOneWithOperations(ctx context.Context, id uuid.UUID) (*domain.Plant, error) {
	p, err := s.FindOne(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	ops, err := s.operations.ListByPlant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.PlantService.FindOneWithOperations: %w", err)
	}
	if ops == nil {
		ops = []domain.Operation{}
	}
	p.Operations = ops
	return p, nil
}

// Update validates the supplied fields and applies them.
// Returns domain.ErrNotFound if the plant does not exist.
func (s *PlantService) Update(ctx context.Context, id uuid.UUID, patch domain.PlantUpdate) (domain.Plant, error) {
	if patch.Name != nil {
		name, err := validateName("name", *patch.Name, maxPlantNameLength)
		if err != nil {
			return domain.Plant{}, err
		}
		patch.Name = &name
	}
	if patch.Code != nil {
		code, err := validatePlantCode(*patch.Code)
		if err != nil {
			return domain.Plant{}, err
		}
		patch.Code = &code
	}

	result, err := s.plants.Update(ctx, id, patch)
	if err != nil {
		return domain.Plant{}, fmt.Errorf("service.PlantService.Update: %w", err)
	}
	return result, nil
}

// Remove deletes a plant and, through the storage cascade, its operations
// and their tiers. Returns the deleted plant, or domain.ErrNotFound.
func (s *PlantService) Remove(ctx context.Context, id uuid.UUID) (domain.Plant, error) {
	result, err := s.plants.Delete(ctx, id)
	if err != nil {
		return domain.Plant{}, fmt.Errorf("service.PlantService.Remove: %w", err)
	}
	return result, nil
}

// Exists reports whether any plant matches the filter.
func (s *PlantService) Exists(ctx context.Context, f domain.PlantFilter) (bool, error) {
	if f.Code != nil {
		code := normalizePlantCode(*f.Code)
		f.Code = &code
	}
	ok, err := s.plants.Exists(ctx, f)
	if err != nil {
		return false, fmt.Errorf("service.PlantService.Exists: %w", err)
	}
	return ok, nil
}

// Count returns the number of plants.
func (s *PlantService) Count(ctx context.Context) (int64, error) {
	n, err := s.plants.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("service.PlantService.Count: %w", err)
	}
	return n, nil
}

// absent turns domain.ErrNotFound into a nil result for point lookups, where
// a missing record is an answer rather than a failure.
func absent[T any](op string, err error) (*T, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}
