package risk

// Flood scores flood zone level
func Flood(level float64) float64 { return Clamp(level) }

// Wildfire scores wildfire exposure
func Wildfire(level float64) float64 { return Clamp(level) }

// Crime scores the local crime rate index
func Crime(index float64) float64 { return Clamp(index) }
