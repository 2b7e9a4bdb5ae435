package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/plantops/indirect-costs/internal/domain"
)

const (
	maxPlantNameLength     = 100
	maxOperationNameLength = 100
)

// plantCodePattern is checked after normalizePlantCode.
var plantCodePattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// normalizePlantCode trims and upper-cases a plant code.
func normalizePlantCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// validateName trims name and rejects empty or over-long values.
// field is used in the error message ("name is required").
func validateName(field, name string, maxLen int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
	}
	if utf8.RuneCountInString(name) > maxLen {
		return "", fmt.Errorf("%w: %s must be at most %d characters", domain.ErrValidation, field, maxLen)
	}
	return name, nil
}

// validatePlantCode normalizes code and checks it against plantCodePattern.
func validatePlantCode(code string) (string, error) {
	code = normalizePlantCode(code)
	if !plantCodePattern.MatchString(code) {
		return "", fmt.Errorf("%w: code must be 1 to 10 letters or digits", domain.ErrValidation)
	}
	return code, nil
}

// validateCosts enforces the tier invariants on one submission:
//   - thresholds are finite and greater than zero,
//   - costs are finite and not negative,
//   - no threshold appears twice.
//
// Collisions with tiers already stored are left to the database constraint.
func validateCosts(costs []domain.CostInput) error {
	seen := make(map[float64]struct{}, len(costs))
	for _, c := range costs {
		if math.IsNaN(c.VolumeThresholdKg) || math.IsInf(c.VolumeThresholdKg, 0) || c.VolumeThresholdKg <= 0 {
			return fmt.Errorf("%w: volume threshold must be greater than 0, got %v", domain.ErrValidation, c.VolumeThresholdKg)
		}
		if math.IsNaN(c.CostPerKg) || math.IsInf(c.CostPerKg, 0) || c.CostPerKg < 0 {
			return fmt.Errorf("%w: cost per kg must not be negative, got %v", domain.ErrValidation, c.CostPerKg)
		}
		if _, dup := seen[c.VolumeThresholdKg]; dup {
			return fmt.Errorf("%w: volume threshold %v appears more than once", domain.ErrValidation, c.VolumeThresholdKg)
		}
		seen[c.VolumeThresholdKg] = struct{}{}
	}
	return nil
}
