package pricing

// LaborRate holds the hourly rates for one skill level. Cost is uniform
// across business and after-hours work; only the price differs.
type LaborRate struct {
	Cost               float64 `json:"cost"`
	PriceBusinessHours float64 `json:"priceBusinessHours"`
	PriceAfterHours    float64 `json:"priceAfterHours"`
}

// LaborRates maps skill level (1-3) to its rate row. The table is injected
// into every pricer so tenants can override it without touching the math.
type LaborRates map[int]LaborRate

// DefaultLaborRates returns the standard rate card.
func DefaultLaborRates() LaborRates {
	return LaborRates{
		1: {Cost: 22, PriceBusinessHours: 155, PriceAfterHours: 155},
		2: {Cost: 37, PriceBusinessHours: 185, PriceAfterHours: 275},
		3: {Cost: 46, PriceBusinessHours: 275, PriceAfterHours: 375},
	}
}

// CostRate returns the hourly cost for a skill level, 0 when unknown.
func (r LaborRates) CostRate(skillLevel int) float64 {
	return r[skillLevel].Cost
}

// PriceRate returns the hourly price for a skill level, selected by factor2.
// Anything other than the after-hours factor falls back to business hours.
func (r LaborRates) PriceRate(skillLevel int, factor2 string) float64 {
	rate := r[skillLevel]
	if factor2 == FactorAfterHours {
		return rate.PriceAfterHours
	}
	return rate.PriceBusinessHours
}
