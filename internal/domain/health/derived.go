package health

import (
	"fmt"
	"math"
)

// BMI computes weight / (height/100)^2 rounded to 2 decimals.
func BMI(heightCm, weightKg float64) (float64, error) {
	if heightCm <= 0 {
		return 0, fmt.Errorf("%w: height must be greater than 0, got %v", ErrInvalidMeasurement, heightCm)
	}
	m := heightCm / 100
	return round(weightKg/(m*m), 2), nil
}

// PercentChange returns (current-previous)/previous*100 rounded to 1 decimal.
// A zero previous value has no defined change and yields ErrDivisionByZero.
func PercentChange(current, previous float64) (float64, error) {
	if previous == 0 {
		return 0, ErrDivisionByZero
	}
	return round((current-previous)/previous*100, 1), nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
