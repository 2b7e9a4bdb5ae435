package matrix

import (
	"math"
	"strconv"
)

// kgPerTonne is the point at which volumes switch from kg to tonnes.
const kgPerTonne = 1000

// FormatVolume renders a threshold as a column heading: "300kg", "1T", "3.5T".
func FormatVolume(kg float64) string {
	if kg >= kgPerTonne {
		t := kg / kgPerTonne
		if t == math.Trunc(t) {
			return strconv.FormatFloat(t, 'f', 0, 64) + "T"
		}
		return strconv.FormatFloat(t, 'f', 1, 64) + "T"
	}
	return strconv.FormatFloat(kg, 'f', 0, 64) + "kg"
}

// FormatCostPerKg renders a cost with three decimals.
func FormatCostPerKg(cost float64) string {
	return strconv.FormatFloat(cost, 'f', 3, 64)
}

// FormatCell renders a cell for display, "-" when no tier is configured.
func FormatCell(c Cell) string {
	if !c.Exists {
		return "-"
	}
	return FormatCostPerKg(c.CostPerKg)
}
