package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. empty name, negative cost, duplicated threshold).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrDuplicateKey is returned when a write collides with a natural key:
// plant code, plant name, or the (plant, operation name) pair.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrForeignKeyViolation is returned when a write references a plant or
// operation that does not exist.
var ErrForeignKeyViolation = errors.New("foreign key violation")

// ErrInternal covers storage faults caused by malformed queries or a missing
// schema. Its message never carries storage details.
var ErrInternal = errors.New("internal error")

// ErrUnexpected covers storage faults with no more specific classification.
var ErrUnexpected = errors.New("unexpected error")

// Keys identifying which natural key or relation a StoreError refers to.
const (
	KeyPlantOperationName = "plant_operation_name"
	KeyPlantCode          = "plant_code"
	KeyOperationThreshold = "operation_threshold"
	KeyName               = "name"
	KeyEmail              = "email"

	RelationPlant     = "plant"
	RelationOperation = "operation"
)

// StoreError is a storage fault reclassified into the domain taxonomy.
// Kind is one of the sentinels above; Key names the constraint or relation
// involved and is empty when it could not be determined.
type StoreError struct {
	Kind error
	Key  string
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Key
}

// Unwrap lets callers match on the sentinel with errors.Is.
func (e *StoreError) Unwrap() error { return e.Kind }
