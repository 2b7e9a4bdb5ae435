package repo

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/pgerr"
)

// CostRepo defines the persistence operations for IndirectCost tiers.
// Tiers are always read through OperationRepo; this repo only writes them
// and lists them for a single operation.
type CostRepo interface {
	// Insert adds one row per input for the given operation and returns the
	// stored tiers ordered by threshold. An empty input is a no-op.
	// A threshold already present on the operation fails with
	// domain.ErrDuplicateKey; an unknown operation with
	// domain.ErrForeignKeyViolation.
	Insert(ctx context.Context, operationID uuid.UUID, costs []domain.CostInput) ([]domain.IndirectCost, error)

	// DeleteByOperation removes every tier of an operation and returns how
	// many rows were removed.
	DeleteByOperation(ctx context.Context, operationID uuid.UUID) (int64, error)

	// ListByOperation returns the tiers of one operation ordered by threshold.
	ListByOperation(ctx context.Context, operationID uuid.UUID) ([]domain.IndirectCost, error)
}

// pgCostRepo is the Postgres implementation of CostRepo.
type pgCostRepo struct {
	db db
}

// NewCostRepo constructs a CostRepo backed by the provided db connection.
func NewCostRepo(db db) CostRepo {
	return &pgCostRepo{db: db}
}

const costColumns = `id, operation_id, volume_threshold_kg, cost_per_kg`

// Insert writes all tiers in a single statement by unnesting two parallel
// arrays, so a failing row aborts the whole batch.
func (r *pgCostRepo) Insert(ctx context.Context, operationID uuid.UUID, costs []domain.CostInput) ([]domain.IndirectCost, error) {
	if len(costs) == 0 {
		return []domain.IndirectCost{}, nil
	}

	const q = `
		INSERT INTO indirect_costs (operation_id, volume_threshold_kg, cost_per_kg)
		SELECT @operation_id, u.threshold, u.cost
		FROM unnest(@thresholds::float8[], @costs::float8[]) AS u(threshold, cost)
		RETURNING ` + costColumns

	thresholds := make([]float64, len(costs))
	perKg := make([]float64, len(costs))
	for i, c := range costs {
		thresholds[i] = c.VolumeThresholdKg
		perKg[i] = c.CostPerKg
	}

	args := pgx.NamedArgs{
		"operation_id": operationID,
		"thresholds":   thresholds,
		"costs":        perKg,
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.CostRepo.Insert: %w", pgerr.Translate(err))
	}
	defer rows.Close()

	out := make([]domain.IndirectCost, 0, len(costs))
	for rows.Next() {
		c, err := scanCost(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.CostRepo.Insert: scan: %w", pgerr.Translate(err))
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.CostRepo.Insert: rows: %w", pgerr.Translate(err))
	}

	sortCosts(out)
	return out, nil
}

func (r *pgCostRepo) DeleteByOperation(ctx context.Context, operationID uuid.UUID) (int64, error) {
	const q = `DELETE FROM indirect_costs WHERE operation_id = @operation_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"operation_id": operationID})
	if err != nil {
		return 0, fmt.Errorf("repo.CostRepo.DeleteByOperation: %w", pgerr.Translate(err))
	}
	return tag.RowsAffected(), nil
}

func (r *pgCostRepo) ListByOperation(ctx context.Context, operationID uuid.UUID) ([]domain.IndirectCost, error) {
	const q = `
		SELECT ` + costColumns + `
		FROM indirect_costs
		WHERE operation_id = @operation_id
		ORDER BY volume_threshold_kg`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"operation_id": operationID})
	if err != nil {
		return nil, fmt.Errorf("repo.CostRepo.ListByOperation: %w", pgerr.Translate(err))
	}
	defer rows.Close()

	costs := []domain.IndirectCost{}
	for rows.Next() {
		c, err := scanCost(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.CostRepo.ListByOperation: scan: %w", pgerr.Translate(err))
		}
		costs = append(costs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.CostRepo.ListByOperation: rows: %w", pgerr.Translate(err))
	}
	return costs, nil
}

// attachCosts loads the tiers of every operation in ops with one query and
// stores them in place, ordered by threshold.
func attachCosts(ctx context.Context, db db, ops []domain.Operation) error {
	if len(ops) == 0 {
		return nil
	}

	ids := make([]string, len(ops))
	index := make(map[uuid.UUID]int, len(ops))
	for i, op := range ops {
		ids[i] = op.ID.String()
		index[op.ID] = i
	}

	const q = `
		SELECT ` + costColumns + `
		FROM indirect_costs
		WHERE operation_id = ANY(@ids::uuid[])
		ORDER BY operation_id, volume_threshold_kg`

	rows, err := db.Query(ctx, q, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return fmt.Errorf("attach costs: %w", pgerr.Translate(err))
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCost(rows)
		if err != nil {
			return fmt.Errorf("attach costs: scan: %w", pgerr.Translate(err))
		}
		if i, ok := index[c.OperationID]; ok {
			ops[i].Costs = append(ops[i].Costs, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("attach costs: rows: %w", pgerr.Translate(err))
	}
	return nil
}

func sortCosts(costs []domain.IndirectCost) {
	sort.Slice(costs, func(i, j int) bool {
		return costs[i].VolumeThresholdKg < costs[j].VolumeThresholdKg
	})
}

// scanCost maps a single indirect_costs row into a domain.IndirectCost.
func scanCost(s scanner) (domain.IndirectCost, error) {
	var (
		c           domain.IndirectCost
		id          pgtype.UUID
		operationID pgtype.UUID
	)
	if err := s.Scan(&id, &operationID, &c.VolumeThresholdKg, &c.CostPerKg); err != nil {
		return domain.IndirectCost{}, err
	}
	c.ID = uuid.UUID(id.Bytes)
	c.OperationID = uuid.UUID(operationID.Bytes)
	return c, nil
}
