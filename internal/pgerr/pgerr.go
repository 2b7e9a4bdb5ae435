// Package pgerr reclassifies raw Postgres faults into the domain error
// taxonomy. It is the only place that inspects SQLSTATE codes; repos call
// Translate on every failure path and services only ever see domain errors.
package pgerr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/plantops/indirect-costs/internal/domain"
)

// SQLSTATE codes the translator recognises.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeUndefinedTable      = "42P01"
	codeUndefinedColumn     = "42703"
	codeSyntaxError         = "42601"
	codeDatatypeMismatch    = "42804"
	classDataException      = "22"
)

// Translate maps err to a *domain.StoreError when it is a storage fault.
// Errors that are not storage faults, and errors that already carry a domain
// classification, are returned unchanged so unrelated failures are never
// misclassified. A nil err returns nil.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) || errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == codeUniqueViolation:
		return &domain.StoreError{Kind: domain.ErrDuplicateKey, Key: uniqueKey(pgErr)}
	case pgErr.Code == codeForeignKeyViolation:
		return &domain.StoreError{Kind: domain.ErrForeignKeyViolation, Key: relation(pgErr)}
	case isInternal(pgErr.Code):
		return &domain.StoreError{Kind: domain.ErrInternal}
	default:
		return &domain.StoreError{Kind: domain.ErrUnexpected}
	}
}

// uniqueKey picks the most specific key name for a unique violation.
// The composite (plant_id, name) constraint must be checked before the bare
// "name" match since its name contains both.
func uniqueKey(e *pgconn.PgError) string {
	target := strings.ToLower(e.ConstraintName)
	if target == "" {
		target = strings.ToLower(e.Detail)
	}
	switch {
	case target == "":
		return ""
	case strings.Contains(target, "plant_id_name"):
		return domain.KeyPlantOperationName
	case strings.Contains(target, "code"):
		return domain.KeyPlantCode
	case strings.Contains(target, "volume_threshold"):
		return domain.KeyOperationThreshold
	case strings.Contains(target, "name"):
		return domain.KeyName
	case strings.Contains(target, "email"):
		return domain.KeyEmail
	default:
		return ""
	}
}

// relation names the dangling side of a foreign key violation.
func relation(e *pgconn.PgError) string {
	field := strings.ToLower(e.ColumnName)
	if field == "" {
		field = strings.ToLower(e.ConstraintName)
	}
	switch {
	case strings.Contains(field, "plant"):
		return domain.RelationPlant
	case strings.Contains(field, "operation"):
		return domain.RelationOperation
	default:
		return ""
	}
}

func isInternal(code string) bool {
	switch code {
	case codeNotNullViolation, codeCheckViolation, codeUndefinedTable,
		codeUndefinedColumn, codeSyntaxError, codeDatatypeMismatch:
		return true
	}
	return strings.HasPrefix(code, classDataException)
}
