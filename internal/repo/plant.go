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

// PlantRepo defines the persistence operations for Plants.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a fake.
type PlantRepo interface {
	// Create inserts a new plant and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, name, code string) (domain.Plant, error)

	// GetByID retrieves a single plant by its UUID primary key.
	// Returns domain.ErrNotFound if no plant with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Plant, error)

	// GetByCode retrieves a single plant by its unique code.
	// Returns domain.ErrNotFound if no plant has that code.
	GetByCode(ctx context.Context, code string) (domain.Plant, error)

	// List returns all plants ordered by name ascending.
	List(ctx context.Context) ([]domain.Plant, error)

	// Update applies the non-nil fields of patch and returns the updated
	// record. Returns domain.ErrNotFound if no plant with that ID exists.
	Update(ctx context.Context, id uuid.UUID, patch domain.PlantUpdate) (domain.Plant, error)

	// Delete removes a plant by ID and returns the deleted row. Operations and
	// their indirect costs are removed by the ON DELETE CASCADE foreign keys.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) (domain.Plant, error)

	// DeleteAll removes every plant (and by cascade every operation and cost)
	// and returns the number of plants removed.
	DeleteAll(ctx context.Context) (int64, error)

	// Exists reports whether any plant matches every non-nil field of f.
	Exists(ctx context.Context, f domain.PlantFilter) (bool, error)

	// Count returns the number of plants.
	Count(ctx context.Context) (int64, error)
}

// pgPlantRepo is the Postgres implementation of PlantRepo.
type pgPlantRepo struct {
	db db
}

// NewPlantRepo constructs a PlantRepo backed by the provided db connection.
func NewPlantRepo(db db) PlantRepo {
	return &pgPlantRepo{db: db}
}

const plantColumns = `id, name, code, created_at, updated_at`

func (r *pgPlantRepo) Create(ctx context.Context, name, code string) (domain.Plant, error) {
	const q = `
		INSERT INTO plants (name, code)
		VALUES (@name, @code)
		RETURNING ` + plantColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name, "code": code})
	result, err := scanPlant(row)
	if err != nil {
		return domain.Plant{}, fmt.Errorf("repo.PlantRepo.Create: %w", pgerr.Translate(err))
	}
	return result, nil
}

func (r *pgPlantRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Plant, error) {
	const q = `SELECT ` + plantColumns + ` FROM plants WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanPlant(row)
	if err != nil {
		return domain.Plant{}, fmt.Errorf("repo.PlantRepo.GetByID: %w", pgerr.Translate(err))
	}
	return result, nil
}

func (r *pgPlantRepo) GetByCode(ctx context.Context, code string) (domain.Plant, error) {
	const q = `SELECT ` + plantColumns + ` FROM plants WHERE code = @code`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"code": code})
	result, err := scanPlant(row)
	if err != nil {
		return domain.Plant{}, fmt.Errorf("repo.PlantRepo.GetByCode: %w", pgerr.Translate(err))
	}
	return result, nil
}

func (r *pgPlantRepo) List(ctx context.Context) ([]domain.Plant, error) {
	const q = `SELECT ` + plantColumns + ` FROM plants ORDER BY name`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.PlantRepo.List: %w", pgerr.Translate(err))
	}
	defer rows.Close()

	plants := []domain.Plant{}
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.PlantRepo.List: scan: %w", pgerr.Translate(err))
		}
		plants = append(plants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PlantRepo.List: rows: %w", pgerr.Translate(err))
	}
	return plants, nil
}

// Update uses COALESCE so a NULL argument keeps the stored value.
func (r *pgPlantRepo) Update(ctx context.Context, id uuid.UUID, patch domain.PlantUpdate) (domain.Plant, error) {
	const q = `
		UPDATE plants
		SET name       = COALESCE(@name, name),
		    code       = COALESCE(@code, code),
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + plantColumns

	args := pgx.NamedArgs{
		"id":   id,
		"name": patch.Name, // nil becomes NULL
		"code": patch.Code,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanPlant(row)
	if err != nil {
		return domain.Plant{}, fmt.Errorf("repo.PlantRepo.Update: %w", pgerr.Translate(err))
	}
	return result, nil
}

func (r *pgPlantRepo) Delete(ctx context.Context, id uuid.UUID) (domain.Plant, error) {
	const q = `DELETE FROM plants WHERE id = @id RETURNING ` + plantColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanPlant(row)
	if err != nil {
		return domain.Plant{}, fmt.Errorf("repo.PlantRepo.Delete: %w", pgerr.Translate(err))
	}
	return result, nil
}

func (r *pgPlantRepo) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM plants`)
	if err != nil {
		return 0, fmt.Errorf("repo.PlantRepo.DeleteAll: %w", pgerr.Translate(err))
	}
	return tag.RowsAffected(), nil
}

func (r *pgPlantRepo) Exists(ctx context.Context, f domain.PlantFilter) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM plants
			WHERE (@id::uuid   IS NULL OR id   = @id::uuid)
			  AND (@name::text IS NULL OR name = @name::text)
			  AND (@code::text IS NULL OR code = @code::text)
		)`

	args := pgx.NamedArgs{"id": f.ID, "name": f.Name, "code": f.Code}

	var exists bool
	if err := r.db.QueryRow(ctx, q, args).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.PlantRepo.Exists: %w", pgerr.Translate(err))
	}
	return exists, nil
}

func (r *pgPlantRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM plants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.PlantRepo.Count: %w", pgerr.Translate(err))
	}
	return n, nil
}

// scanPlant maps a single database row into a domain.Plant.
// pgx.ErrNoRows is left for pgerr.Translate to turn into domain.ErrNotFound.
func scanPlant(s scanner) (domain.Plant, error) {
	var (
		p  domain.Plant
		id pgtype.UUID
	)
	if err := s.Scan(&id, &p.Name, &p.Code, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Plant{}, err
	}
	p.ID = uuid.UUID(id.Bytes)
	return p, nil
}
