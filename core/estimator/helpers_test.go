package estimator

import "premium-estimator/core/risk"

func riskFeatures(age float64, material string, renovated *int, security bool, floors int) risk.PropertyFeatures {
	return risk.PropertyFeatures{
		PropertyAge:          age,
		ConstructionMaterial: material,
		RenovationYear:       renovated,
		HasSecuritySystem:    security,
		NumFloors:            floors,
	}
}
