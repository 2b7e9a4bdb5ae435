package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/pgerr"
)

// OperationRepo defines the persistence operations for Operations.
// Every read returns operations with their cost tiers and parent plant loaded.
type OperationRepo interface {
	// Create inserts the operation row only; tiers are written through CostRepo.
	// The returned operation has no Costs and no Plant.
	Create(ctx context.Context, plantID uuid.UUID, name string) (domain.Operation, error)

	// GetByID retrieves a single operation by primary key.
	// Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Operation, error)

	// GetByPlantAndName retrieves the operation identified by its natural key.
	// Returns domain.ErrNotFound if it does not exist.
	GetByPlantAndName(ctx context.Context, plantID uuid.UUID, name string) (domain.Operation, error)

	// ListByPlant returns the operations of a plant ordered by name.
	ListByPlant(ctx context.Context, plantID uuid.UUID) ([]domain.Operation, error)

	// ListAll returns every operation ordered by plant name, then operation name.
	ListAll(ctx context.Context) ([]domain.Operation, error)

	// Update renames the operation when name is non-nil and always bumps
	// updated_at. Returns domain.ErrNotFound if it does not exist.
	Update(ctx context.Context, id uuid.UUID, name *string) (domain.Operation, error)

	// Delete removes an operation and returns the deleted row (without tiers).
	// Tiers are removed by ON DELETE CASCADE.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) (domain.Operation, error)

	// Exists reports whether any operation matches every non-nil field of f.
	Exists(ctx context.Context, f domain.OperationFilter) (bool, error)

	// CountByPlant returns the number of operations owned by a plant.
	CountByPlant(ctx context.Context, plantID uuid.UUID) (int64, error)

	// Count returns the number of operations across all plants.
	Count(ctx context.Context) (int64, error)
}

// pgOperationRepo is the Postgres implementation of OperationRepo.
type pgOperationRepo struct {
	db db
}

// NewOperationRepo constructs an OperationRepo backed by the provided db connection.
func NewOperationRepo(db db) OperationRepo {
	return &pgOperationRepo{db: db}
}

const operationColumns = `id, plant_id, name, created_at, updated_at`

// selectOperations joins the parent plant so one scan fills Operation.Plant.
const selectOperations = `
	SELECT o.id, o.plant_id, o.name, o.created_at, o.updated_at,
	       p.id, p.name, p.code, p.created_at, p.updated_at
	FROM operations o
	JOIN plants p ON p.id = o.plant_id`

func (r *pgOperationRepo) Create(ctx context.Context, plantID uuid.UUID, name string) (domain.Operation, error) {
	const q = `
		INSERT INTO operations (plant_id, name)
		VALUES (@plant_id, @name)
		RETURNING ` + operationColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"plant_id": plantID, "name": name})
	result, err := scanOperation(row)
	if err != nil {
		return domain.Operation{}, fmt.Errorf("repo.OperationRepo.Create: %w", pgerr.Translate(err))
	}
	return result, nil
}

func (r *pgOperationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Operation, error) {
	ops, err := r.query(ctx, selectOperations+` WHERE o.id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return domain.Operation{}, fmt.Errorf("repo.OperationRepo.GetByID: %w", err)
	}
	if len(ops) == 0 {
		return domain.Operation{}, fmt.Errorf("repo.OperationRepo.GetByID: %w", domain.ErrNotFound)
	}
	return ops[0], nil
}

func (r *pgOperationRepo) GetByPlantAndName(ctx context.Context, plantID uuid.UUID, name string) (domain.Operation, error) {
	const where = ` WHERE o.plant_id = @plant_id AND o.name = @name`

	ops, err := r.query(ctx, selectOperations+where, pgx.NamedArgs{"plant_id": plantID, "name": name})
	if err != nil {
		return domain.Operation{}, fmt.Errorf("repo.OperationRepo.GetByPlantAndName: %w", err)
	}
	if len(ops) == 0 {
		return domain.Operation{}, fmt.Errorf("repo.OperationRepo.GetByPlantAndName: %w", domain.ErrNotFound)
	}
	return ops[0], nil
}

func (r *pgOperationRepo) ListByPlant(ctx context.Context, plantID uuid.UUID) ([]domain.Operation, error) {
	const tail = ` WHERE o.plant_id = @plant_id ORDER BY o.name`

	ops, err := r.query(ctx, selectOperations+tail, pgx.NamedArgs{"plant_id": plantID})
	if err != nil {
		return nil, fmt.Errorf("repo.OperationRepo.ListByPlant: %w", err)
	}
	return ops, nil
}

func (r *pgOperationRepo) ListAll(ctx context.Context) ([]domain.Operation, error) {
	ops, err := r.query(ctx, selectOperations+` ORDER BY p.name, o.name`, pgx.NamedArgs{})
	if err != nil {
		return nil, fmt.Errorf("repo.OperationRepo.ListAll: %w", err)
	}
	return ops, nil
}

func (r *pgOperationRepo) Update(ctx context.Context, id uuid.UUID, name *string) (domain.Operation, error) {
	const q = `
		UPDATE operations
		SET name       = COALESCE(@name, name),
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + operationColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "name": name})
	result, err := scanOperation(row)
	if err != nil {
		return domain.Operation{}, fmt.Errorf("repo.OperationRepo.Update: %w", pgerr.Translate(err))
	}
	return result, nil
}

func (r *pgOperationRepo) Delete(ctx context.Context, id uuid.UUID) (domain.Operation, error) {
	const q = `DELETE FROM operations WHERE id = @id RETURNING ` + operationColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanOperation(row)
	if err != nil {
		return domain.Operation{}, fmt.Errorf("repo.OperationRepo.Delete: %w", pgerr.Translate(err))
	}
	return result, nil
}

func (r *pgOperationRepo) Exists(ctx context.Context, f domain.OperationFilter) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM operations
			WHERE (@id::uuid       IS NULL OR id       = @id::uuid)
			  AND (@plant_id::uuid IS NULL OR plant_id = @plant_id::uuid)
			  AND (@name::text     IS NULL OR name     = @name::text)
		)`

	args := pgx.NamedArgs{"id": f.ID, "plant_id": f.PlantID, "name": f.Name}

	var exists bool
	if err := r.db.QueryRow(ctx, q, args).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.OperationRepo.Exists: %w", pgerr.Translate(err))
	}
	return exists, nil
}

func (r *pgOperationRepo) CountByPlant(ctx context.Context, plantID uuid.UUID) (int64, error) {
	const q = `SELECT count(*) FROM operations WHERE plant_id = @plant_id`

	var n int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"plant_id": plantID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.OperationRepo.CountByPlant: %w", pgerr.Translate(err))
	}
	return n, nil
}

func (r *pgOperationRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM operations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.OperationRepo.Count: %w", pgerr.Translate(err))
	}
	return n, nil
}

// query runs a selectOperations statement, then loads the tiers of every
// returned operation with one extra round trip.
func (r *pgOperationRepo) query(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Operation, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, pgerr.Translate(err)
	}
	defer rows.Close()

	ops := []domain.Operation{}
	for rows.Next() {
		op, err := scanOperationWithPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", pgerr.Translate(err))
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", pgerr.Translate(err))
	}
	// A transaction connection cannot run the tier query while rows is open.
	rows.Close()

	if err := attachCosts(ctx, r.db, ops); err != nil {
		return nil, err
	}
	return ops, nil
}

// scanOperation maps a bare operations row into a domain.Operation.
func scanOperation(s scanner) (domain.Operation, error) {
	var (
		op      domain.Operation
		id      pgtype.UUID
		plantID pgtype.UUID
	)
	if err := s.Scan(&id, &plantID, &op.Name, &op.CreatedAt, &op.UpdatedAt); err != nil {
		return domain.Operation{}, err
	}
	op.ID = uuid.UUID(id.Bytes)
	op.PlantID = uuid.UUID(plantID.Bytes)
	op.Costs = []domain.IndirectCost{}
	return op, nil
}

// scanOperationWithPlant maps a selectOperations row, filling Operation.Plant.
func scanOperationWithPlant(s scanner) (domain.Operation, error) {
	var (
		op      domain.Operation
		plant   domain.Plant
		id      pgtype.UUID
		plantID pgtype.UUID
		pid     pgtype.UUID
	)
	err := s.Scan(
		&id, &plantID, &op.Name, &op.CreatedAt, &op.UpdatedAt,
		&pid, &plant.Name, &plant.Code, &plant.CreatedAt, &plant.UpdatedAt,
	)
	if err != nil {
		return domain.Operation{}, err
	}
	op.ID = uuid.UUID(id.Bytes)
	op.PlantID = uuid.UUID(plantID.Bytes)
	plant.ID = uuid.UUID(pid.Bytes)
	op.Plant = &plant
	op.Costs = []domain.IndirectCost{}
	return op, nil
}
