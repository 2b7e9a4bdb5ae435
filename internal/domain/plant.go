// Package domain contains the core data types for the indirect cost service.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plant is a site that owns a set of operations.
// Code is always upper-case; both Code and Name are unique.
// Operations is only populated by the "with operations" reads.
type Plant struct {
	ID         uuid.UUID
	Name       string
	Code       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Operations []Operation
}

// PlantUpdate carries the optional fields of a plant patch.
// A nil field is left unchanged.
type PlantUpdate struct {
	Name *string
	Code *string
}

// PlantFilter selects plants by any subset of its fields.
// An empty filter matches every plant.
type PlantFilter struct {
	ID   *uuid.UUID
	Name *string
	Code *string
}
