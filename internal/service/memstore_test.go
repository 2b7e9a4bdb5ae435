package service_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/repo"
)

// memStore is an in-memory stand-in for repo.Store. It enforces the same
// unique, foreign key and cascade rules as the schema and reports violations
// as *domain.StoreError, so service tests can exercise the real flows
// without a database. WithTx snapshots the state and restores it when fn
// fails.
type memStore struct {
	plants map[uuid.UUID]domain.Plant
	ops    map[uuid.UUID]domain.Operation
	costs  map[uuid.UUID]domain.IndirectCost

	// insertFault, when set, is consulted before every tier insert. A non-nil
	// return aborts the insert with nothing written.
	insertFault func(operationID uuid.UUID) error
}

func newMemStore() *memStore {
	return &memStore{
		plants: map[uuid.UUID]domain.Plant{},
		ops:    map[uuid.UUID]domain.Operation{},
		costs:  map[uuid.UUID]domain.IndirectCost{},
	}
}

func (s *memStore) repos() repo.Repos {
	return repo.Repos{
		Plants:     memPlants{s},
		Operations: memOperations{s},
		Costs:      memCosts{s},
	}
}

func (s *memStore) WithTx(_ context.Context, fn func(repo.Repos) error) error {
	plants, ops, costs := clone(s.plants), clone(s.ops), clone(s.costs)
	if err := fn(s.repos()); err != nil {
		s.plants, s.ops, s.costs = plants, ops, costs
		return fmt.Errorf("memStore.WithTx: %w", err)
	}
	return nil
}

var _ repo.Transactor = (*memStore)(nil)

func clone[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) costsOf(operationID uuid.UUID) []domain.IndirectCost {
	out := []domain.IndirectCost{}
	for _, c := range s.costs {
		if c.OperationID == operationID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VolumeThresholdKg < out[j].VolumeThresholdKg })
	return out
}

func (s *memStore) hydrate(op domain.Operation) domain.Operation {
	op.Costs = s.costsOf(op.ID)
	p := s.plants[op.PlantID]
	op.Plant = &p
	return op
}

// ---- plants ----------------------------------------------------------------

type memPlants struct{ s *memStore }

var _ repo.PlantRepo = memPlants{}

func (r memPlants) Create(_ context.Context, name, code string) (domain.Plant, error) {
	for _, p := range r.s.plants {
		if p.Code == code {
			return domain.Plant{}, &domain.StoreError{Kind: domain.ErrDuplicateKey, Key: domain.KeyPlantCode}
		}
		if p.Name == name {
			return domain.Plant{}, &domain.StoreError{Kind: domain.ErrDuplicateKey, Key: domain.KeyName}
		}
	}
	now := time.Now().UTC()
	p := domain.Plant{ID: uuid.New(), Name: name, Code: code, CreatedAt: now, UpdatedAt: now}
	r.s.plants[p.ID] = p
	return p, nil
}

func (r memPlants) GetByID(_ context.Context, id uuid.UUID) (domain.Plant, error) {
	p, ok := r.s.plants[id]
	if !ok {
		return domain.Plant{}, domain.ErrNotFound
	}
	return p, nil
}

func (r memPlants) GetByCode(_ context.Context, code string) (domain.Plant, error) {
	for _, p := range r.s.plants {
		if p.Code == code {
			return p, nil
		}
	}
	return domain.Plant{}, domain.ErrNotFound
}

func (r memPlants) List(_ context.Context) ([]domain.Plant, error) {
	var out []domain.Plant
	for _, p := range r.s.plants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memPlants) Update(_ context.Context, id uuid.UUID, patch domain.PlantUpdate) (domain.Plant, error) {
	p, ok := r.s.plants[id]
	if !ok {
		return domain.Plant{}, domain.ErrNotFound
	}
	for _, other := range r.s.plants {
		if other.ID == id {
			continue
		}
		if patch.Code != nil && other.Code == *patch.Code {
			return domain.Plant{}, &domain.StoreError{Kind: domain.ErrDuplicateKey, Key: domain.KeyPlantCode}
		}
		if patch.Name != nil && other.Name == *patch.Name {
			return domain.Plant{}, &domain.StoreError{Kind: domain.ErrDuplicateKey, Key: domain.KeyName}
		}
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Code != nil {
		p.Code = *patch.Code
	}
	p.UpdatedAt = time.Now().UTC()
	r.s.plants[id] = p
	return p, nil
}

func (r memPlants) Delete(_ context.Context, id uuid.UUID) (domain.Plant, error) {
	p, ok := r.s.plants[id]
	if !ok {
		return domain.Plant{}, domain.ErrNotFound
	}
	for _, op := range r.s.ops {
		if op.PlantID == id {
			memOperations{r.s}.drop(op.ID)
		}
	}
	delete(r.s.plants, id)
	return p, nil
}

func (r memPlants) DeleteAll(ctx context.Context) (int64, error) {
	n := int64(len(r.s.plants))
	for id := range r.s.plants {
		if _, err := r.Delete(ctx, id); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (r memPlants) Exists(_ context.Context, f domain.PlantFilter) (bool, error) {
	for _, p := range r.s.plants {
		if (f.ID == nil || p.ID == *f.ID) &&
			(f.Name == nil || p.Name == *f.Name) &&
			(f.Code == nil || p.Code == *f.Code) {
			return true, nil
		}
	}
	return false, nil
}

func (r memPlants) Count(_ context.Context) (int64, error) {
	return int64(len(r.s.plants)), nil
}

// ---- operations ------------------------------------------------------------

type memOperations struct{ s *memStore }

var _ repo.OperationRepo = memOperations{}

func (r memOperations) Create(_ context.Context, plantID uuid.UUID, name string) (domain.Operation, error) {
	if _, ok := r.s.plants[plantID]; !ok {
		return domain.Operation{}, &domain.StoreError{Kind: domain.ErrForeignKeyViolation, Key: domain.RelationPlant}
	}
	for _, op := range r.s.ops {
		if op.PlantID == plantID && op.Name == name {
			return domain.Operation{}, &domain.StoreError{Kind: domain.ErrDuplicateKey, Key: domain.KeyPlantOperationName}
		}
	}
	now := time.Now().UTC()
	op := domain.Operation{ID: uuid.New(), PlantID: plantID, Name: name, CreatedAt: now, UpdatedAt: now}
	r.s.ops[op.ID] = op
	return r.s.hydrate(op), nil
}

func (r memOperations) GetByID(_ context.Context, id uuid.UUID) (domain.Operation, error) {
	op, ok := r.s.ops[id]
	if !ok {
		return domain.Operation{}, domain.ErrNotFound
	}
	return r.s.hydrate(op), nil
}

func (r memOperations) GetByPlantAndName(_ context.Context, plantID uuid.UUID, name string) (domain.Operation, error) {
	for _, op := range r.s.ops {
		if op.PlantID == plantID && op.Name == name {
			return r.s.hydrate(op), nil
		}
	}
	return domain.Operation{}, domain.ErrNotFound
}

func (r memOperations) ListByPlant(ctx context.Context, plantID uuid.UUID) ([]domain.Operation, error) {
	all, _ := r.ListAll(ctx)
	out := []domain.Operation{}
	for _, op := range all {
		if op.PlantID == plantID {
			out = append(out, op)
		}
	}
	return out, nil
}

func (r memOperations) ListAll(_ context.Context) ([]domain.Operation, error) {
	out := []domain.Operation{}
	for _, op := range r.s.ops {
		out = append(out, r.s.hydrate(op))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Plant.Name != out[j].Plant.Name {
			return out[i].Plant.Name < out[j].Plant.Name
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r memOperations) Update(_ context.Context, id uuid.UUID, name *string) (domain.Operation, error) {
	op, ok := r.s.ops[id]
	if !ok {
		return domain.Operation{}, domain.ErrNotFound
	}
	if name != nil {
		for _, other := range r.s.ops {
			if other.ID != id && other.PlantID == op.PlantID && other.Name == *name {
				return domain.Operation{}, &domain.StoreError{Kind: domain.ErrDuplicateKey, Key: domain.KeyPlantOperationName}
			}
		}
		op.Name = *name
	}
	op.UpdatedAt = time.Now().UTC()
	r.s.ops[id] = op
	return r.s.hydrate(op), nil
}

func (r memOperations) Delete(_ context.Context, id uuid.UUID) (domain.Operation, error) {
	op, ok := r.s.ops[id]
	if !ok {
		return domain.Operation{}, domain.ErrNotFound
	}
	out := r.s.hydrate(op)
	r.drop(id)
	return out, nil
}

func (r memOperations) drop(id uuid.UUID) {
	for cid, c := range r.s.costs {
		if c.OperationID == id {
			delete(r.s.costs, cid)
		}
	}
	delete(r.s.ops, id)
}

func (r memOperations) Exists(_ context.Context, f domain.OperationFilter) (bool, error) {
	for _, op := range r.s.ops {
		if (f.ID == nil || op.ID == *f.ID) &&
			(f.PlantID == nil || op.PlantID == *f.PlantID) &&
			(f.Name == nil || op.Name == *f.Name) {
			return true, nil
		}
	}
	return false, nil
}

func (r memOperations) CountByPlant(_ context.Context, plantID uuid.UUID) (int64, error) {
	var n int64
	for _, op := range r.s.ops {
		if op.PlantID == plantID {
			n++
		}
	}
	return n, nil
}

func (r memOperations) Count(_ context.Context) (int64, error) {
	return int64(len(r.s.ops)), nil
}

// ---- costs -----------------------------------------------------------------

type memCosts struct{ s *memStore }

var _ repo.CostRepo = memCosts{}

func (r memCosts) Insert(_ context.Context, operationID uuid.UUID, costs []domain.CostInput) ([]domain.IndirectCost, error) {
	if len(costs) == 0 {
		return []domain.IndirectCost{}, nil
	}
	if r.s.insertFault != nil {
		if err := r.s.insertFault(operationID); err != nil {
			return nil, err
		}
	}
	if _, ok := r.s.ops[operationID]; !ok {
		return nil, &domain.StoreError{Kind: domain.ErrForeignKeyViolation, Key: domain.RelationOperation}
	}
	taken := map[float64]bool{}
	for _, c := range r.s.costsOf(operationID) {
		taken[c.VolumeThresholdKg] = true
	}
	for _, c := range costs {
		if taken[c.VolumeThresholdKg] {
			return nil, &domain.StoreError{Kind: domain.ErrDuplicateKey, Key: domain.KeyOperationThreshold}
		}
		taken[c.VolumeThresholdKg] = true
	}

	out := make([]domain.IndirectCost, 0, len(costs))
	for _, c := range costs {
		ic := domain.IndirectCost{
			ID:                uuid.New(),
			OperationID:       operationID,
			VolumeThresholdKg: c.VolumeThresholdKg,
			CostPerKg:         c.CostPerKg,
		}
		r.s.costs[ic.ID] = ic
		out = append(out, ic)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VolumeThresholdKg < out[j].VolumeThresholdKg })
	return out, nil
}

func (r memCosts) DeleteByOperation(_ context.Context, operationID uuid.UUID) (int64, error) {
	var n int64
	for id, c := range r.s.costs {
		if c.OperationID == operationID {
			delete(r.s.costs, id)
			n++
		}
	}
	return n, nil
}

func (r memCosts) ListByOperation(_ context.Context, operationID uuid.UUID) ([]domain.IndirectCost, error) {
	return r.s.costsOf(operationID), nil
}
