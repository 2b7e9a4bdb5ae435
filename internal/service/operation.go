package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/repo"
)

// OperationService implements business logic for Operations and their cost
// tiers. Writes that touch more than one row run through tx so a failure
// part-way leaves the previous state intact.
type OperationService struct {
	repos repo.Repos
	tx    repo.Transactor
}

// NewOperationService constructs an OperationService. repos serves plain
// reads; tx opens a unit of work for multi-row writes. A *repo.Store
// provides both: NewOperationService(store.Repos, store).
func NewOperationService(repos repo.Repos, tx repo.Transactor) *OperationService {
	return &OperationService{repos: repos, tx: tx}
}

// Create inserts an operation and its initial tiers atomically and returns
// it with tiers and parent plant loaded.
// Returns domain.ErrDuplicateKey when the plant already has an operation with
// that name and domain.ErrForeignKeyViolation when the plant does not exist.
func (s *OperationService) Create(ctx context.Context, in domain.NewOperation) (domain.Operation, error) {
	name, err := validateName("name", in.Name, maxOperationNameLength)
	if err != nil {
		return domain.Operation{}, err
	}
	if err := validateCosts(in.Costs); err != nil {
		return domain.Operation{}, err
	}

	var result domain.Operation
	err = s.tx.WithTx(ctx, func(r repo.Repos) error {
		op, err := r.Operations.Create(ctx, in.PlantID, name)
		if err != nil {
			return err
		}
		if _, err := r.Costs.Insert(ctx, op.ID, in.Costs); err != nil {
			return err
		}
		result, err = r.Operations.GetByID(ctx, op.ID)
		return err
	})
	if err != nil {
		return domain.Operation{}, fmt.Errorf("service.OperationService.Create: %w", err)
	}
	return result, nil
}

// FindByPlant returns the operations of a plant with their tiers, by name.
// Always returns a non-nil slice.
func (s *OperationService) FindByPlant(ctx context.Context, plantID uuid.UUID) ([]domain.Operation, error) {
	ops, err := s.repos.Operations.ListByPlant(ctx, plantID)
	if err != nil {
		return nil, fmt.Errorf("service.OperationService.FindByPlant: %w", err)
	}
	if ops == nil {
		return []domain.Operation{}, nil
	}
	return ops, nil
}

// FindOne returns the operation with the given ID, or nil if there is none.
func (s *OperationService) FindOne(ctx context.Context, id uuid.UUID) (*domain.Operation, error) {
	op, err := s.repos.Operations.GetByID(ctx, id)
	if err != nil {
		return absent[domain.Operation]("service.OperationService.FindOne", err)
	}
	return &op, nil
}

// FindByPlantAndName returns the operation identified by its natural key, or
// nil if there is none.
func (s *OperationService) FindByPlantAndName(ctx context.Context, plantID uuid.UUID, name string) (*domain.Operation, error) {
	op, err := s.repos.Operations.GetByPlantAndName(ctx, plantID, name)
	if err != nil {
		return absent[domain.Operation]("service.OperationService.FindByPlantAndName", err)
	}
	return &op, nil
}

// FindAll returns every operation with tiers and plant, ordered by plant
// name and then operation name.
func (s *OperationService) FindAll(ctx context.Context) ([]domain.Operation, error) {
	ops, err := s.repos.Operations.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.OperationService.FindAll: %w", err)
	}
	if ops == nil {
		return []domain.Operation{}, nil
	}
	return ops, nil
}

// Update patches an operation. A non-nil upd.Costs replaces the whole tier
// set: existing tiers are deleted and the new list inserted, never merged.
// The rename and the replacement commit together or not at all.
// Returns domain.ErrNotFound if the operation does not exist.
func (s *OperationService) Update(ctx context.Context, id uuid.UUID, upd domain.OperationUpdate) (domain.Operation, error) {
	if upd.Name != nil {
		name, err := validateName("name", *upd.Name, maxOperationNameLength)
		if err != nil {
			return domain.Operation{}, err
		}
		upd.Name = &name
	}
	if upd.Costs != nil {
		if err := validateCosts(*upd.Costs); err != nil {
			return domain.Operation{}, err
		}
	}

	var result domain.Operation
	err := s.tx.WithTx(ctx, func(r repo.Repos) error {
		if err := updateInTx(ctx, r, id, upd); err != nil {
			return err
		}
		var err error
		result, err = r.Operations.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return domain.Operation{}, fmt.Errorf("service.OperationService.Update: %w", err)
	}
	return result, nil
}

// Upsert makes sure the plant has an operation with this name carrying
// exactly these tiers. An existing operation keeps its name and gets its
// tiers replaced; otherwise a new one is created. Repeating the call with the
// same arguments converges on the same state.
//
// Two concurrent first calls may both miss the lookup; the loser fails with
// domain.ErrDuplicateKey and can be retried.
func (s *OperationService) Upsert(ctx context.Context, in domain.NewOperation) (domain.Operation, error) {
	name, err := validateName("name", in.Name, maxOperationNameLength)
	if err != nil {
		return domain.Operation{}, err
	}

	existing, err := s.repos.Operations.GetByPlantAndName(ctx, in.PlantID, name)
	switch {
	case err == nil:
		costs := in.Costs
		if costs == nil {
			costs = []domain.CostInput{}
		}
		return s.Update(ctx, existing.ID, domain.OperationUpdate{Costs: &costs})
	case errors.Is(err, domain.ErrNotFound):
		in.Name = name
		return s.Create(ctx, in)
	default:
		return domain.Operation{}, fmt.Errorf("service.OperationService.Upsert: %w", err)
	}
}

// Remove deletes an operation; its tiers go with it through the storage
// cascade. Returns the deleted operation or domain.ErrNotFound.
func (s *OperationService) Remove(ctx context.Context, id uuid.UUID) (domain.Operation, error) {
	result, err := s.repos.Operations.Delete(ctx, id)
	if err != nil {
		return domain.Operation{}, fmt.Errorf("service.OperationService.Remove: %w", err)
	}
	return result, nil
}

// AddIndirectCosts appends tiers without touching the existing ones.
// The batch is a single insert, so it lands entirely or not at all.
// A threshold already stored for the operation fails with
// domain.ErrDuplicateKey; an unknown operation with
// domain.ErrForeignKeyViolation.
func (s *OperationService) AddIndirectCosts(ctx context.Context, operationID uuid.UUID, costs []domain.CostInput) ([]domain.IndirectCost, error) {
	if err := validateCosts(costs); err != nil {
		return nil, err
	}
	result, err := s.repos.Costs.Insert(ctx, operationID, costs)
	if err != nil {
		return nil, fmt.Errorf("service.OperationService.AddIndirectCosts: %w", err)
	}
	return result, nil
}

// ApplyMatrix saves the bulk matrix view of a plant. Each edit fully
// replaces the tiers of one operation; all edits commit together.
// Editing an operation of a different plant, or the same operation twice,
// is a validation error. Returns the plant's operations after the change.
func (s *OperationService) ApplyMatrix(ctx context.Context, plantID uuid.UUID, edits []domain.MatrixEdit) ([]domain.Operation, error) {
	seen := make(map[uuid.UUID]struct{}, len(edits))
	for _, e := range edits {
		if _, dup := seen[e.OperationID]; dup {
			return nil, fmt.Errorf("%w: operation %s edited more than once", domain.ErrValidation, e.OperationID)
		}
		seen[e.OperationID] = struct{}{}
		if err := validateCosts(e.Costs); err != nil {
			return nil, err
		}
	}

	var result []domain.Operation
	err := s.tx.WithTx(ctx, func(r repo.Repos) error {
		for _, e := range edits {
			op, err := r.Operations.GetByID(ctx, e.OperationID)
			if err != nil {
				return err
			}
			if op.PlantID != plantID {
				return fmt.Errorf("%w: operation %s does not belong to plant %s", domain.ErrValidation, e.OperationID, plantID)
			}
			costs := e.Costs
			if err := updateInTx(ctx, r, e.OperationID, domain.OperationUpdate{Costs: &costs}); err != nil {
				return err
			}
		}
		var err error
		result, err = r.Operations.ListByPlant(ctx, plantID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.OperationService.ApplyMatrix: %w", err)
	}
	return result, nil
}

// Exists reports whether any operation matches the filter.
func (s *OperationService) Exists(ctx context.Context, f domain.OperationFilter) (bool, error) {
	ok, err := s.repos.Operations.Exists(ctx, f)
	if err != nil {
		return false, fmt.Errorf("service.OperationService.Exists: %w", err)
	}
	return ok, nil
}

// CountByPlant returns the number of operations of a plant.
func (s *OperationService) CountByPlant(ctx context.Context, plantID uuid.UUID) (int64, error) {
	n, err := s.repos.Operations.CountByPlant(ctx, plantID)
	if err != nil {
		return 0, fmt.Errorf("service.OperationService.CountByPlant: %w", err)
	}
	return n, nil
}

// Count returns the number of operations across all plants.
func (s *OperationService) Count(ctx context.Context) (int64, error) {
	n, err := s.repos.Operations.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("service.OperationService.Count: %w", err)
	}
	return n, nil
}

// updateInTx applies upd using repos bound to an open transaction.
// The row update runs first so an unknown id fails before any tier is
// deleted.
func updateInTx(ctx context.Context, r repo.Repos, id uuid.UUID, upd domain.OperationUpdate) error {
	if _, err := r.Operations.Update(ctx, id, upd.Name); err != nil {
		return err
	}
	if upd.Costs == nil {
		return nil
	}
	if _, err := r.Costs.DeleteByOperation(ctx, id); err != nil {
		return err
	}
	_, err := r.Costs.Insert(ctx, id, *upd.Costs)
	return err
}
