package risk

import "strings"

// PropertyFeatures represents the structural characteristics of a home
type PropertyFeatures struct {
	PropertyAge          float64
	ConstructionMaterial string
	RenovationYear       *int // nil if never renovated
	HasSecuritySystem    bool
	NumFloors            int
}

// Structural adjustments applied on top of the age score
const (
	MaterialAdjustment   = 0.1
	RenovationAdjustment = 0.1
	SecurityAdjustment   = 0.1
	PerFloorAdjustment   = 0.02
	RenovationMinimumAge = 20.0
)

// Bounds applied to integer property attributes read from raw records
const (
	MaxFloors         = 200
	MaxRenovationYear = 9999
)

var resistantMaterials = map[string]bool{
	"brick":    true,
	"concrete": true,
}

// PropertyAge scores building age: newer homes are lower risk
func PropertyAge(age float64) float64 {
	age = nonNegative(age)
	switch {
	case age < 10:
		return 0.2
	case age < 30:
		return 0.5
	default:
		return 0.8
	}
}

// Material lowers risk for brick and concrete and raises it otherwise
func Material(material string) float64 {
	if resistantMaterials[strings.ToLower(strings.TrimSpace(material))] {
		return -MaterialAdjustment
	}
	return MaterialAdjustment
}

// Renovation lowers risk for an older home that has been renovated
func Renovation(renovationYear *int, age float64) float64 {
	if renovationYear != nil && age > RenovationMinimumAge {
		return -RenovationAdjustment
	}
	return 0
}

// Security lowers risk when a security system is installed
func Security(installed bool) float64 {
	if installed {
		return -SecurityAdjustment
	}
	return 0
}

// Floors adds a small penalty per floor above the first
func Floors(n int) float64 {
	if n < 1 {
		n = 1
	}
	return PerFloorAdjustment * float64(n-1)
}
