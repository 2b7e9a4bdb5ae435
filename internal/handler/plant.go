package handler

import (
	"net/http"

	"github.com/plantops/indirect-costs/internal/domain"
)

const plantNotFound = "plant not found"

// ListPlants handles GET /plants.
func (s *Server) ListPlants(w http.ResponseWriter, r *http.Request) {
	plants, err := s.plants.FindAll(r.Context())
	if err != nil {
		s.writeError(w, r, err, plantNotFound)
		return
	}
	writeJSON(w, http.StatusOK, plantsToResponse(plants))
}

// ListPlantsWithOperations handles GET /plants/with-operations.
func (s *Server) ListPlantsWithOperations(w http.ResponseWriter, r *http.Request) {
	plants, err := s.plants.FindAllWithOperations(r.Context())
	if err != nil {
		s.writeError(w, r, err, plantNotFound)
		return
	}
	writeJSON(w, http.StatusOK, plantsToResponse(plants))
}

// GetPlant handles GET /plants/{plantID}.
// ?include=operations eager-loads the plant's operations and their tiers.
func (s *Server) GetPlant(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "plantID")
	if err != nil {
		rejectPath(w, err)
		return
	}
	include, err := queryString(r, "include")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var p *domain.Plant
	switch {
	case include == nil || *include == "":
		p, err = s.plants.FindOne(r.Context(), id)
	case *include == "operations":
		p, err = s.plants.FindOneWithOperations(r.Context(), id)
	default:
		badRequest(w, "include must be \"operations\"")
		return
	}
	if err != nil {
		s.writeError(w, r, err, plantNotFound)
		return
	}
	if p == nil {
		notFound(w, plantNotFound)
		return
	}
	writeJSON(w, http.StatusOK, plantToResponse(*p))
}

// CreatePlant handles POST /plants.
func (s *Server) CreatePlant(w http.ResponseWriter, r *http.Request) {
	var req createPlantRequest
	if err := decodeJSON(r, &req); err != nil {
		rejectBody(w, err)
		return
	}

	created, err := s.plants.Create(r.Context(), req.Name, req.Code)
	if err != nil {
		s.writeError(w, r, err, plantNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, plantToResponse(created))
}

// UpdatePlant handles PATCH /plants/{plantID}. Absent fields are left as is.
func (s *Server) UpdatePlant(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "plantID")
	if err != nil {
		rejectPath(w, err)
		return
	}
	var req updatePlantRequest
	if err := decodeJSON(r, &req); err != nil {
		rejectBody(w, err)
		return
	}

	updated, err := s.plants.Update(r.Context(), id, domain.PlantUpdate{Name: req.Name, Code: req.Code})
	if err != nil {
		s.writeError(w, r, err, plantNotFound)
		return
	}
	writeJSON(w, http.StatusOK, plantToResponse(updated))
}

// DeletePlant handles DELETE /plants/{plantID}. Operations and their tiers
// are removed with the plant.
func (s *Server) DeletePlant(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "plantID")
	if err != nil {
		rejectPath(w, err)
		return
	}
	if _, err := s.plants.Remove(r.Context(), id); err != nil {
		s.writeError(w, r, err, plantNotFound)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: true})
}

// ListPlantOperations handles GET /plants/{plantID}/operations.
// An unknown plant yields an empty list, not a 404.
func (s *Server) ListPlantOperations(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "plantID")
	if err != nil {
		rejectPath(w, err)
		return
	}
	ops, err := s.operations.FindByPlant(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, plantNotFound)
		return
	}
	writeJSON(w, http.StatusOK, operationsToResponse(ops))
}
