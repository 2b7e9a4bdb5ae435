package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/export"
)

// GetMatrix handles GET /plants/{plantID}/matrix.
// Without ?format the matrix is returned as JSON; ?format=csv|xlsx|pdf
// downloads it as a file.
func (s *Server) GetMatrix(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "plantID")
	if err != nil {
		rejectPath(w, err)
		return
	}
	formatParam, err := queryString(r, "format")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var format export.Format
	if formatParam != nil && *formatParam != "" && *formatParam != "json" {
		if format, err = export.ParseFormat(*formatParam); err != nil {
			badRequest(w, unwrapMessage(err))
			return
		}
	}

	pm, err := s.matrices.ForPlant(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, plantNotFound)
		return
	}
	if format == "" {
		writeJSON(w, http.StatusOK, matrixToResponse(pm.Plant, pm.Matrix))
		return
	}

	// Rendered in memory so a failure can still produce an error body.
	var buf bytes.Buffer
	if err := export.Write(&buf, format, pm.Plant, pm.Matrix); err != nil {
		s.writeError(w, r, err, plantNotFound)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(pm.Plant)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // client went away; nothing to do.
	buf.WriteTo(w)
}

// SaveMatrix handles PUT /plants/{plantID}/matrix: every edit replaces the
// tiers of one operation and all edits commit together.
func (s *Server) SaveMatrix(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "plantID")
	if err != nil {
		rejectPath(w, err)
		return
	}
	var req saveMatrixRequest
	if err := decodeJSON(r, &req); err != nil {
		rejectBody(w, err)
		return
	}

	edits := make([]domain.MatrixEdit, len(req.Edits))
	for i, e := range req.Edits {
		edits[i] = domain.MatrixEdit{OperationID: e.OperationID, Costs: costInputsToDomain(e.Costs)}
	}

	ops, err := s.operations.ApplyMatrix(r.Context(), id, edits)
	if err != nil {
		s.writeError(w, r, err, operationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, operationsToResponse(ops))
}

// GetTotalCost handles GET /plants/{plantID}/total-cost?volumeKg=.
func (s *Server) GetTotalCost(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "plantID")
	if err != nil {
		rejectPath(w, err)
		return
	}
	volume, err := queryFloat(r, "volumeKg")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	total, err := s.matrices.TotalCost(r.Context(), id, volume)
	if err != nil {
		s.writeError(w, r, err, plantNotFound)
		return
	}
	writeJSON(w, http.StatusOK, TotalCostResponse{PlantID: id, VolumeKg: volume, TotalCost: total})
}
