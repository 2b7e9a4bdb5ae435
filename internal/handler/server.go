// Package handler implements the HTTP handlers for the indirect cost API.
// All handlers are methods on Server. Methods are split into resource files
// (health.go, plant.go, operation.go, matrix.go) but share the same Server
// struct so they can access its dependencies. Routes registers them on a
// chi router.
package handler

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/service"
)

// PlantServicer defines the business operations the plant handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type PlantServicer interface {
	Create(ctx context.Context, name, code string) (domain.Plant, error)
	FindAll(ctx context.Context) ([]domain.Plant, error)
	FindOne(ctx context.Context, id uuid.UUID) (*domain.Plant, error)
	FindAllWithOperations(ctx context.Context) ([]domain.Plant, error)
	FindOneWithOperations(ctx context.Context, id uuid.UUID) (*domain.Plant, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.PlantUpdate) (domain.Plant, error)
	Remove(ctx context.Context, id uuid.UUID) (domain.Plant, error)
}

// OperationServicer defines the business operations the operation handlers
// depend on.
type OperationServicer interface {
	Create(ctx context.Context, in domain.NewOperation) (domain.Operation, error)
	Upsert(ctx context.Context, in domain.NewOperation) (domain.Operation, error)
	FindAll(ctx context.Context) ([]domain.Operation, error)
	FindByPlant(ctx context.Context, plantID uuid.UUID) ([]domain.Operation, error)
	FindOne(ctx context.Context, id uuid.UUID) (*domain.Operation, error)
	Update(ctx context.Context, id uuid.UUID, upd domain.OperationUpdate) (domain.Operation, error)
	Remove(ctx context.Context, id uuid.UUID) (domain.Operation, error)
	AddIndirectCosts(ctx context.Context, operationID uuid.UUID, costs []domain.CostInput) ([]domain.IndirectCost, error)
	ApplyMatrix(ctx context.Context, plantID uuid.UUID, edits []domain.MatrixEdit) ([]domain.Operation, error)
}

// MatrixServicer defines the matrix reads the matrix handlers depend on.
type MatrixServicer interface {
	ForPlant(ctx context.Context, plantID uuid.UUID) (service.PlantMatrix, error)
	TotalCost(ctx context.Context, plantID uuid.UUID, volumeKg float64) (float64, error)
}

// Server holds the dependencies of every handler.
type Server struct {
	plants     PlantServicer
	operations OperationServicer
	matrices   MatrixServicer
	log        *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default().
func NewServer(plants PlantServicer, operations OperationServicer, matrices MatrixServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{plants: plants, operations: operations, matrices: matrices, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}

// Routes registers every endpoint on r. Middleware is the caller's concern.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/plants", func(r chi.Router) {
		r.Get("/", s.ListPlants)
		r.Post("/", s.CreatePlant)
		r.Get("/with-operations", s.ListPlantsWithOperations)
		r.Route("/{plantID}", func(r chi.Router) {
			r.Get("/", s.GetPlant)
			r.Patch("/", s.UpdatePlant)
			r.Delete("/", s.DeletePlant)
			r.Get("/operations", s.ListPlantOperations)
			r.Get("/matrix", s.GetMatrix)
			r.Put("/matrix", s.SaveMatrix)
			r.Get("/total-cost", s.GetTotalCost)
		})
	})

	r.Route("/operations", func(r chi.Router) {
		r.Get("/", s.ListOperations)
		r.Post("/", s.CreateOperation)
		r.Put("/", s.UpsertOperation)
		r.Route("/{operationID}", func(r chi.Router) {
			r.Get("/", s.GetOperation)
			r.Patch("/", s.UpdateOperation)
			r.Delete("/", s.DeleteOperation)
			r.Put("/costs", s.ReplaceOperationCosts)
			r.Post("/costs", s.AddOperationCosts)
		})
	})
}
