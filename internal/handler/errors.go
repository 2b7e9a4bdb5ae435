package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/plantops/indirect-costs/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine code, a human-readable message and,
// for store conflicts, the key or relation involved.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Key     string `json:"key,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // the status line is already out; nothing useful to do.
	json.NewEncoder(w).Encode(v)
}

// notFound writes a 404. The caller supplies the message (e.g. "plant not
// found") because the handler is the layer that knows what was looked up.
func notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}})
}

// badRequest writes a 422 for input rejected before reaching the service
// layer (malformed body, bad query parameter).
func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}})
}

// writeError maps a service error onto a status code and error body.
// notFoundMessage is used for domain.ErrNotFound. Anything unclassified is
// logged and answered with an opaque 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, notFoundMessage string) {
	var key string
	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) {
		key = storeErr.Key
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{
			Code: "validation_error", Message: unwrapMessage(err),
		}})
	case errors.Is(err, domain.ErrNotFound):
		notFound(w, notFoundMessage)
	case errors.Is(err, domain.ErrDuplicateKey):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: ErrorDetail{
			Code: "duplicate_key", Message: duplicateMessage(key), Key: key,
		}})
	case errors.Is(err, domain.ErrForeignKeyViolation):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{
			Code: "foreign_key_violation", Message: foreignKeyMessage(key), Key: key,
		}})
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
			Code: "internal_error", Message: "internal server error",
		}})
	}
}

// unwrapMessage extracts the human-readable part from a wrapped validation
// error, e.g. "service.X.Create: validation error: name is required" →
// "name is required".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

func duplicateMessage(key string) string {
	switch key {
	case domain.KeyPlantOperationName:
		return "an operation with that name already exists in the selected plant"
	case domain.KeyPlantCode:
		return "a plant with that code already exists"
	case domain.KeyOperationThreshold:
		return "the operation already has a cost at that volume threshold"
	case domain.KeyName:
		return "an item with that name already exists"
	case domain.KeyEmail:
		return "a user with that email already exists"
	default:
		return "an item with those values already exists"
	}
}

func foreignKeyMessage(relation string) string {
	switch relation {
	case domain.RelationPlant:
		return "the selected plant does not exist"
	case domain.RelationOperation:
		return "the selected operation does not exist"
	default:
		return "a related item does not exist"
	}
}
