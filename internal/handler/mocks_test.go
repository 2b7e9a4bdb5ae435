package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/handler"
	"github.com/plantops/indirect-costs/internal/service"
)

// mockPlantServicer is a test double for handler.PlantServicer.
// Set only the method fields your test needs.
type mockPlantServicer struct {
	create                func(ctx context.Context, name, code string) (domain.Plant, error)
	findAll               func(ctx context.Context) ([]domain.Plant, error)
	findOne               func(ctx context.Context, id uuid.UUID) (*domain.Plant, error)
	findAllWithOperations func(ctx context.Context) ([]domain.Plant, error)
	findOneWithOperations func(ctx context.Context, id uuid.UUID) (*domain.Plant, error)
	update                func(ctx context.Context, id uuid.UUID, patch domain.PlantUpdate) (domain.Plant, error)
	remove                func(ctx context.Context, id uuid.UUID) (domain.Plant, error)
}

func (m *mockPlantServicer) Create(ctx context.Context, name, code string) (domain.Plant, error) {
	return m.create(ctx, name, code)
}
func (m *mockPlantServicer) FindAll(ctx context.Context) ([]domain.Plant, error) {
	return m.findAll(ctx)
}
func (m *mockPlantServicer) FindOne(ctx context.Context, id uuid.UUID) (*domain.Plant, error) {
	return m.findOne(ctx, id)
}
func (m *mockPlantServicer) FindAllWithOperations(ctx context.Context) ([]domain.Plant, error) {
	return m.findAllWithOperations(ctx)
}
func (m *mockPlantServicer) FindOneWithOperations(ctx context.Context, id uuid.UUID) (*domain.Plant, error) {
	return m.findOneWithOperations(ctx, id)
}
func (m *mockPlantServicer) Update(ctx context.Context, id uuid.UUID, patch domain.PlantUpdate) (domain.Plant, error) {
	return m.update(ctx, id, patch)
}
func (m *mockPlantServicer) Remove(ctx context.Context, id uuid.UUID) (domain.Plant, error) {
	return m.remove(ctx, id)
}

// compile-time check: mockPlantServicer must satisfy handler.PlantServicer.
var _ handler.PlantServicer = (*mockPlantServicer)(nil)

// mockOperationServicer is a test double for handler.OperationServicer.
type mockOperationServicer struct {
	create           func(ctx context.Context, in domain.NewOperation) (domain.Operation, error)
	upsert           func(ctx context.Context, in domain.NewOperation) (domain.Operation, error)
	findAll          func(ctx context.Context) ([]domain.Operation, error)
	findByPlant      func(ctx context.Context, plantID uuid.UUID) ([]domain.Operation, error)
	findOne          func(ctx context.Context, id uuid.UUID) (*domain.Operation, error)
	update           func(ctx context.Context, id uuid.UUID, upd domain.OperationUpdate) (domain.Operation, error)
	remove           func(ctx context.Context, id uuid.UUID) (domain.Operation, error)
	addIndirectCosts func(ctx context.Context, operationID uuid.UUID, costs []domain.CostInput) ([]domain.IndirectCost, error)
	applyMatrix      func(ctx context.Context, plantID uuid.UUID, edits []domain.MatrixEdit) ([]domain.Operation, error)
}

func (m *mockOperationServicer) Create(ctx context.Context, in domain.NewOperation) (domain.Operation, error) {
	return m.create(ctx, in)
}
func (m *mockOperationServicer) Upsert(ctx context.Context, in domain.NewOperation) (domain.Operation, error) {
	return m.upsert(ctx, in)
}
func (m *mockOperationServicer) FindAll(ctx context.Context) ([]domain.Operation, error) {
	return m.findAll(ctx)
}
func (m *mockOperationServicer) FindByPlant(ctx context.Context, plantID uuid.UUID) ([]domain.Operation, error) {
	return m.findByPlant(ctx, plantID)
}
func (m *mockOperationServicer) FindOne(ctx context.Context, id uuid.UUID) (*domain.Operation, error) {
	return m.findOne(ctx, id)
}
func (m *mockOperationServicer) Update(ctx context.Context, id uuid.UUID, upd domain.OperationUpdate) (domain.Operation, error) {
	return m.update(ctx, id, upd)
}
func (m *mockOperationServicer) Remove(ctx context.Context, id uuid.UUID) (domain.Operation, error) {
	return m.remove(ctx, id)
}
func (m *mockOperationServicer) AddIndirectCosts(ctx context.Context, operationID uuid.UUID, costs []domain.CostInput) ([]domain.IndirectCost, error) {
	return m.addIndirectCosts(ctx, operationID, costs)
}
func (m *mockOperationServicer) ApplyMatrix(ctx context.Context, plantID uuid.UUID, edits []domain.MatrixEdit) ([]domain.Operation, error) {
	return m.applyMatrix(ctx, plantID, edits)
}

var _ handler.OperationServicer = (*mockOperationServicer)(nil)

// mockMatrixServicer is a test double for handler.MatrixServicer.
type mockMatrixServicer struct {
	forPlant  func(ctx context.Context, plantID uuid.UUID) (service.PlantMatrix, error)
	totalCost func(ctx context.Context, plantID uuid.UUID, volumeKg float64) (float64, error)
}

func (m *mockMatrixServicer) ForPlant(ctx context.Context, plantID uuid.UUID) (service.PlantMatrix, error) {
	return m.forPlant(ctx, plantID)
}
func (m *mockMatrixServicer) TotalCost(ctx context.Context, plantID uuid.UUID, volumeKg float64) (float64, error) {
	return m.totalCost(ctx, plantID, volumeKg)
}

var _ handler.MatrixServicer = (*mockMatrixServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks onto a chi router.
// This mirrors how main.go wires it in production, minus the middleware.
func newHTTPHandler(plants handler.PlantServicer, ops handler.OperationServicer, matrices handler.MatrixServicer) http.Handler {
	r := chi.NewRouter()
	handler.NewServer(plants, ops, matrices, nil).Routes(r)
	return r
}

func plantFixture() domain.Plant {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.Plant{ID: uuid.New(), Name: "Planta Lima", Code: "LIM", CreatedAt: now, UpdatedAt: now}
}

func operationFixture(plant domain.Plant) domain.Operation {
	id := uuid.New()
	return domain.Operation{
		ID:        id,
		PlantID:   plant.ID,
		Name:      "Impresión",
		CreatedAt: plant.CreatedAt,
		UpdatedAt: plant.UpdatedAt,
		Costs: []domain.IndirectCost{
			{ID: uuid.New(), OperationID: id, VolumeThresholdKg: 300, CostPerKg: 0.05},
			{ID: uuid.New(), OperationID: id, VolumeThresholdKg: 1000, CostPerKg: 0.02},
		},
		Plant: &plant,
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, body *bytes.Buffer) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error
}
