// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions.
package types

// Domain identifies an insurance line
type Domain string

const (
	DomainVehicle Domain = "vehicle"
	DomainHome    Domain = "home"
	DomainHealth  Domain = "health"
)

// String returns the string representation of the domain
func (d Domain) String() string {
	return string(d)
}

// IsValid checks if the domain is a known insurance line
func (d Domain) IsValid() bool {
	switch d {
	case DomainVehicle, DomainHome, DomainHealth:
		return true
	default:
		return false
	}
}

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// Well-known environmental dimensions
const (
	EnvFloodZoneLevel = "flood_zone_level"
	EnvWildfireRisk   = "wildfire_risk"
	EnvCrimeRateIndex = "crime_rate_index"
)

// EnvironmentalContext maps named continuous risk dimensions to values in [0,1].
// Undefined keys read as 0.
type EnvironmentalContext map[string]float64

// Value returns the named dimension, or 0 when undefined
func (e EnvironmentalContext) Value(key string) float64 {
	if e == nil {
		return 0
	}
	return e[key]
}
