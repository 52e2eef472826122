// Package metrics holds the pure calculations derived from planning quantities.
package metrics

import "math"

const (
	secondsPerHour = 3600
	shiftHours     = 8

	// floorGuard absorbs binary artefacts such as 0.29*100 = 28.999999999999996.
	floorGuard = 1e-9
)

// PlanningFields estimates the hours and operators needed to produce quantity
// units at cycleTimeSeconds per unit. Both values are truncated to two decimals
// so an estimate never exceeds the real capacity.
func PlanningFields(quantity int, cycleTimeSeconds float64) (plannedHours, operatorCount float64) {
	if quantity <= 0 || cycleTimeSeconds <= 0 {
		return 0, 0
	}

	plannedHours = truncate2(float64(quantity) * cycleTimeSeconds / secondsPerHour)
	operatorCount = truncate2(plannedHours / shiftHours)
	return plannedHours, operatorCount
}

// ProductionFields compares declared output against the effective demand.
// A negative delta is a shortfall. The percentage is rounded to two decimals.
func ProductionFields(quantitySource, declaredProduction int) (delta int, productionPercent float64) {
	delta = declaredProduction - quantitySource
	if quantitySource > 0 {
		productionPercent = Round2(float64(declaredProduction) / float64(quantitySource) * 100)
	}
	return delta, productionPercent
}

// Percent returns part/whole*100 rounded to two decimals, 0 when whole is 0.
func Percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return Round2(part / whole * 100)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncate2(v float64) float64 {
	return math.Floor(v*100+floorGuard) / 100
}
