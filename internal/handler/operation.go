package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/plantops/indirect-costs/internal/domain"
)

const operationNotFound = "operation not found"

// ListOperations handles GET /operations.
func (s *Server) ListOperations(w http.ResponseWriter, r *http.Request) {
	ops, err := s.operations.FindAll(r.Context())
	if err != nil {
		s.writeError(w, r, err, operationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, operationsToResponse(ops))
}

// GetOperation handles GET /operations/{operationID}.
func (s *Server) GetOperation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "operationID")
	if err != nil {
		rejectPath(w, err)
		return
	}
	op, err := s.operations.FindOne(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, operationNotFound)
		return
	}
	if op == nil {
		notFound(w, operationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, operationToResponse(*op))
}

// CreateOperation handles POST /operations.
func (s *Server) CreateOperation(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeNewOperation(w, r)
	if !ok {
		return
	}
	created, err := s.operations.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, operationNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, operationToResponse(created))
}

// UpsertOperation handles PUT /operations: the operation named by
// (plantId, name) ends up with exactly the submitted tiers, created if need be.
func (s *Server) UpsertOperation(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeNewOperation(w, r)
	if !ok {
		return
	}
	op, err := s.operations.Upsert(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, operationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, operationToResponse(op))
}

// UpdateOperation handles PATCH /operations/{operationID}. A "costs" field,
// even an empty list, replaces every tier.
func (s *Server) UpdateOperation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "operationID")
	if err != nil {
		rejectPath(w, err)
		return
	}
	var req updateOperationRequest
	if err := decodeJSON(r, &req); err != nil {
		rejectBody(w, err)
		return
	}

	upd := domain.OperationUpdate{Name: req.Name}
	if req.Costs != nil {
		costs := costInputsToDomain(*req.Costs)
		if costs == nil {
			costs = []domain.CostInput{}
		}
		upd.Costs = &costs
	}
	s.respondUpdated(w, r, id, upd)
}

// ReplaceOperationCosts handles PUT /operations/{operationID}/costs.
func (s *Server) ReplaceOperationCosts(w http.ResponseWriter, r *http.Request) {
	id, costs, ok := decodeCosts(w, r)
	if !ok {
		return
	}
	s.respondUpdated(w, r, id, domain.OperationUpdate{Costs: &costs})
}

// AddOperationCosts handles POST /operations/{operationID}/costs. Existing
// tiers are kept; the response lists only the tiers just added.
func (s *Server) AddOperationCosts(w http.ResponseWriter, r *http.Request) {
	id, costs, ok := decodeCosts(w, r)
	if !ok {
		return
	}
	added, err := s.operations.AddIndirectCosts(r.Context(), id, costs)
	if err != nil {
		s.writeError(w, r, err, operationNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, costsToResponse(added))
}

// DeleteOperation handles DELETE /operations/{operationID}.
func (s *Server) DeleteOperation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "operationID")
	if err != nil {
		rejectPath(w, err)
		return
	}
	if _, err := s.operations.Remove(r.Context(), id); err != nil {
		s.writeError(w, r, err, operationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: true})
}

func (s *Server) respondUpdated(w http.ResponseWriter, r *http.Request, id uuid.UUID, upd domain.OperationUpdate) {
	updated, err := s.operations.Update(r.Context(), id, upd)
	if err != nil {
		s.writeError(w, r, err, operationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, operationToResponse(updated))
}

// decodeNewOperation reads the body shared by POST and PUT /operations.
// It writes the error response itself and reports whether to continue.
func decodeNewOperation(w http.ResponseWriter, r *http.Request) (domain.NewOperation, bool) {
	var req createOperationRequest
	if err := decodeJSON(r, &req); err != nil {
		rejectBody(w, err)
		return domain.NewOperation{}, false
	}
	if req.PlantID == uuid.Nil {
		badRequest(w, "plantId is required")
		return domain.NewOperation{}, false
	}
	return domain.NewOperation{
		PlantID: req.PlantID,
		Name:    req.Name,
		Costs:   costInputsToDomain(req.Costs),
	}, true
}

// decodeCosts reads the operation id and the required "costs" list.
func decodeCosts(w http.ResponseWriter, r *http.Request) (uuid.UUID, []domain.CostInput, bool) {
	id, err := pathUUID(r, "operationID")
	if err != nil {
		rejectPath(w, err)
		return uuid.Nil, nil, false
	}
	var req costsRequest
	if err := decodeJSON(r, &req); err != nil {
		rejectBody(w, err)
		return uuid.Nil, nil, false
	}
	if req.Costs == nil {
		badRequest(w, "costs is required")
		return uuid.Nil, nil, false
	}
	costs := costInputsToDomain(*req.Costs)
	if costs == nil {
		costs = []domain.CostInput{}
	}
	return id, costs, true
}
