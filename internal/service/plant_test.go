package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/service"
)

// ---- helpers ---------------------------------------------------------------

func newPlantService(s *memStore) *service.PlantService {
	r := s.repos()
	return service.NewPlantService(r.Plants, r.Operations)
}

func ptr[T any](v T) *T { return &v }

// failingPlants overrides List so the error path can be observed.
type failingPlants struct {
	memPlants
	err error
}

func (f failingPlants) List(context.Context) ([]domain.Plant, error) { return nil, f.err }

// ---- Create tests ----------------------------------------------------------

func TestPlantService_Create_NormalizesCode(t *testing.T) {
	svc := newPlantService(newMemStore())

	got, err := svc.Create(context.Background(), "  Planta Lima ", " lim ")

	require.NoError(t, err)
	assert.Equal(t, "Planta Lima", got.Name)
	assert.Equal(t, "LIM", got.Code)
	assert.NotEqual(t, uuid.Nil, got.ID)
}

func TestPlantService_Create_Invalid(t *testing.T) {
	tests := []struct {
		name, plantName, code string
	}{
		{"blank name", "   ", "LIM"},
		{"blank code", "Planta Lima", ""},
		{"code with punctuation", "Planta Lima", "LI-M"},
		{"code too long", "Planta Lima", "ABCDEFGHIJK"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newPlantService(newMemStore())

			_, err := svc.Create(context.Background(), tc.plantName, tc.code)

			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestPlantService_Create_DuplicateCode(t *testing.T) {
	svc := newPlantService(newMemStore())
	ctx := context.Background()
	_, err := svc.Create(ctx, "Planta Lima", "LIM")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "Planta Callao", "lim")

	require.ErrorIs(t, err, domain.ErrDuplicateKey)
	var se *domain.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.KeyPlantCode, se.Key)
}

// ---- read tests ------------------------------------------------------------

func TestPlantService_FindOne_AbsentIsNil(t *testing.T) {
	svc := newPlantService(newMemStore())

	got, err := svc.FindOne(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPlantService_FindByCode_Normalizes(t *testing.T) {
	svc := newPlantService(newMemStore())
	ctx := context.Background()
	created, err := svc.Create(ctx, "Planta Lima", "LIM")
	require.NoError(t, err)

	got, err := svc.FindByCode(ctx, " lim")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
}

func TestPlantService_FindAll_EmptyIsNonNil(t *testing.T) {
	svc := newPlantService(newMemStore())

	got, err := svc.FindAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPlantService_FindAll_WrapsRepoError(t *testing.T) {
	s := newMemStore()
	boom := errors.New("connection reset")
	svc := service.NewPlantService(failingPlants{memPlants: memPlants{s}, err: boom}, memOperations{s})

	_, err := svc.FindAll(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "service.PlantService.FindAll")
}

func TestPlantService_FindAllWithOperations(t *testing.T) {
	s := newMemStore()
	plants := newPlantService(s)
	ops := newOperationService(s)
	ctx := context.Background()

	lima, err := plants.Create(ctx, "Planta Lima", "LIM")
	require.NoError(t, err)
	callao, err := plants.Create(ctx, "Planta Callao", "CAL")
	require.NoError(t, err)
	_, err = ops.Create(ctx, domain.NewOperation{PlantID: lima.ID, Name: "Laminado"})
	require.NoError(t, err)
	_, err = ops.Create(ctx, domain.NewOperation{PlantID: lima.ID, Name: "Impresión"})
	require.NoError(t, err)

	got, err := plants.FindAllWithOperations(ctx)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, callao.ID, got[0].ID)
	assert.NotNil(t, got[0].Operations)
	assert.Empty(t, got[0].Operations)
	require.Len(t, got[1].Operations, 2)
	assert.Equal(t, "Impresión", got[1].Operations[0].Name)
	assert.Equal(t, "Laminado", got[1].Operations[1].Name)
}

func TestPlantService_FindOneWithOperations_Absent(t *testing.T) {
	svc := newPlantService(newMemStore())

	got, err := svc.FindOneWithOperations(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Nil(t, got)
}

// ---- Update / Remove tests -------------------------------------------------

func TestPlantService_Update_Partial(t *testing.T) {
	svc := newPlantService(newMemStore())
	ctx := context.Background()
	p, err := svc.Create(ctx, "Planta Lima", "LIM")
	require.NoError(t, err)

	got, err := svc.Update(ctx, p.ID, domain.PlantUpdate{Code: ptr("lm2")})

	require.NoError(t, err)
	assert.Equal(t, "Planta Lima", got.Name)
	assert.Equal(t, "LM2", got.Code)
}

func TestPlantService_Update_InvalidName(t *testing.T) {
	svc := newPlantService(newMemStore())

	_, err := svc.Update(context.Background(), uuid.New(), domain.PlantUpdate{Name: ptr(" ")})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPlantService_Update_NotFound(t *testing.T) {
	svc := newPlantService(newMemStore())

	_, err := svc.Update(context.Background(), uuid.New(), domain.PlantUpdate{Name: ptr("Planta Sur")})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlantService_Remove_Cascades(t *testing.T) {
	s := newMemStore()
	plants := newPlantService(s)
	ops := newOperationService(s)
	ctx := context.Background()
	p, err := plants.Create(ctx, "Planta Lima", "LIM")
	require.NoError(t, err)
	op, err := ops.Create(ctx, domain.NewOperation{
		PlantID: p.ID,
		Name:    "Impresión",
		Costs:   []domain.CostInput{{VolumeThresholdKg: 300, CostPerKg: 0.02}},
	})
	require.NoError(t, err)

	removed, err := plants.Remove(ctx, p.ID)

	require.NoError(t, err)
	assert.Equal(t, p.ID, removed.ID)
	gone, err := ops.FindOne(ctx, op.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.Empty(t, s.costs)
}

func TestPlantService_Remove_NotFound(t *testing.T) {
	svc := newPlantService(newMemStore())

	_, err := svc.Remove(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlantService_ExistsAndCount(t *testing.T) {
	svc := newPlantService(newMemStore())
	ctx := context.Background()
	_, err := svc.Create(ctx, "Planta Lima", "LIM")
	require.NoError(t, err)

	ok, err := svc.Exists(ctx, domain.PlantFilter{Code: ptr("lim")})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(ctx, domain.PlantFilter{Name: ptr("Planta Sur")})
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
