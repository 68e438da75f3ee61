package risk

import "strings"

// VehicleProfile holds the raw driver and vehicle attributes
type VehicleProfile struct {
	Age             float64
	AnnualKm        float64
	CarAge          float64
	ExperienceYears float64
	Accidents       int
	VehicleType     string
}

const (
	// MileageSaturationKm is the distance at which mileage risk reaches 1
	MileageSaturationKm = 50000.0

	// VehicleAgeSaturation is the vehicle age in years at which risk reaches 1
	VehicleAgeSaturation = 20.0

	// ExperienceSaturation is the experience in years at which risk reaches 0
	ExperienceSaturation = 20.0
)

// classMultipliers are keyed by lower-case vehicle class
var classMultipliers = map[string]float64{
	"sedan":  1.00,
	"suv":    1.05,
	"sports": 1.15,
	"truck":  1.08,
}

// MaxAccidents is the count at which the accident factor saturates
const MaxAccidents = 4

// accidentCurve is indexed by accident count; counts past the end saturate
var accidentCurve = []float64{0, 0.3, 0.55, 0.75, 0.9}

// DriverAge buckets the driver's age. Young and elderly drivers carry more risk.
func DriverAge(age float64) float64 {
	age = nonNegative(age)
	switch {
	case age < 25:
		return 0.8
	case age < 30:
		return 0.5
	case age < 60:
		return 0.2
	case age < 70:
		return 0.4
	default:
		return 0.6
	}
}

// Mileage is linear in distance driven per year up to MileageSaturationKm
func Mileage(km float64) float64 {
	return Clamp(nonNegative(km) / MileageSaturationKm)
}

// VehicleAge increases linearly with vehicle age
func VehicleAge(years float64) float64 {
	return Clamp(nonNegative(years) / VehicleAgeSaturation)
}

// Experience decreases linearly with years of driving experience
func Experience(years float64) float64 {
	return Clamp(1 - nonNegative(years)/ExperienceSaturation)
}

// Accidents increases with accident count and saturates at four or more
func Accidents(n int) float64 {
	if n <= 0 {
		return 0
	}
	if n >= len(accidentCurve) {
		return accidentCurve[len(accidentCurve)-1]
	}
	return accidentCurve[n]
}

// VehicleClass returns the multiplier for a vehicle class.
// Unknown or empty classes are neutral (1.0).
func VehicleClass(name string) float64 {
	if m, ok := classMultipliers[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m
	}
	return 1.0
}

// VehicleClasses returns a copy of the class multiplier table
func VehicleClasses() map[string]float64 {
	out := make(map[string]float64, len(classMultipliers))
	for k, v := range classMultipliers {
		out[k] = v
	}
	return out
}
