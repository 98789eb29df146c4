package pricing

// DiscountType selects how the discounted total is derived from the
// current monthly total.
type DiscountType string

const (
	DiscountNone           DiscountType = "none"
	DiscountPercentage     DiscountType = "percentage"
	DiscountRawDollar      DiscountType = "raw_dollar"
	DiscountMarginOverride DiscountType = "margin_override"
	DiscountPerUser        DiscountType = "per_user"
	DiscountOverride       DiscountType = "override"
)

// ValidDiscountType reports whether t is one of the known discount types.
func ValidDiscountType(t DiscountType) bool {
	switch t {
	case DiscountNone, DiscountPercentage, DiscountRawDollar, DiscountMarginOverride, DiscountPerUser, DiscountOverride:
		return true
	}
	return false
}

// ComponentTotals are the monthly figures a discount is spread across.
type ComponentTotals struct {
	ToolsSoftware        float64 `json:"toolsSoftware"`
	SupportLabor         float64 `json:"supportLabor"`
	OtherLabor           float64 `json:"otherLabor"`
	DeferredSetupMonthly float64 `json:"deferredSetupMonthly"`
}

// DiscountResult is the allocator output: the new effective monthly total
// and the reallocated components. DiscountAmount is sign-aware; a negative
// amount is a price increase.
type DiscountResult struct {
	Type           DiscountType    `json:"discountType"`
	Value          float64         `json:"discountValue"`
	OriginalTotal  float64         `json:"originalTotal"`
	NewTotal       float64         `json:"newTotal"`
	DiscountAmount float64         `json:"discountAmount"`
	Components     ComponentTotals `json:"components"`
}

// ApplyDiscount computes the discounted monthly total and redistributes the
// delta across components. All types except per_user scale every component
// by its share of the original total, which conserves the component sum.
// The per_user type rescales only support labor and deferred setup toward
// a target of value per full user; tools and other labor pass through.
//
// A zero original total short-circuits: every component is returned
// unchanged and no division happens.
func ApplyDiscount(totals Totals, fullUsers int, discountType DiscountType, value float64) DiscountResult {
	components := ComponentTotals{
		ToolsSoftware:        totals.ToolsSoftware,
		SupportLabor:         totals.SupportLabor,
		OtherLabor:           totals.OtherLabor,
		DeferredSetupMonthly: totals.DeferredSetupMonthly,
	}

	result := DiscountResult{
		Type:          discountType,
		Value:         value,
		OriginalTotal: totals.MonthlyTotal,
		NewTotal:      totals.MonthlyTotal,
		Components:    components,
	}

	if totals.MonthlyTotal == 0 {
		return result
	}

	if discountType == DiscountPerUser {
		return applyPerUserDiscount(result, fullUsers)
	}

	newTotal := discountedTotal(totals.MonthlyTotal, discountType, value)
	discountAmount := totals.MonthlyTotal - newTotal

	result.NewTotal = newTotal
	result.DiscountAmount = discountAmount
	result.Components = ComponentTotals{
		ToolsSoftware:        reallocate(components.ToolsSoftware, discountAmount, totals.MonthlyTotal),
		SupportLabor:         reallocate(components.SupportLabor, discountAmount, totals.MonthlyTotal),
		OtherLabor:           reallocate(components.OtherLabor, discountAmount, totals.MonthlyTotal),
		DeferredSetupMonthly: reallocate(components.DeferredSetupMonthly, discountAmount, totals.MonthlyTotal),
	}
	return result
}

// discountedTotal returns the target monthly total for the proportional
// discount types.
func discountedTotal(originalTotal float64, discountType DiscountType, value float64) float64 {
	switch discountType {
	case DiscountPercentage:
		return originalTotal * (1 - value/100)
	case DiscountRawDollar:
		return originalTotal - value
	case DiscountMarginOverride:
		estimatedCost := originalTotal * estimatedCostRatio
		denominator := 1 - value/100
		if denominator == 0 {
			return originalTotal
		}
		return estimatedCost / denominator
	case DiscountOverride:
		return value
	default:
		return originalTotal
	}
}

// reallocate absorbs a share of the discount proportional to the
// component's weight in the original total.
func reallocate(component, discountAmount, originalTotal float64) float64 {
	if originalTotal == 0 {
		return component
	}
	return component - discountAmount*(component/originalTotal)
}

// applyPerUserDiscount rescales support labor and deferred setup so their
// sum hits value x fullUsers. The resulting effective total also carries
// the untouched tools and other-labor components, so it is not simply
// value x fullUsers.
func applyPerUserDiscount(result DiscountResult, fullUsers int) DiscountResult {
	components := result.Components
	base := components.SupportLabor + components.DeferredSetupMonthly
	if base == 0 {
		result.NewTotal = components.ToolsSoftware + components.OtherLabor
		return result
	}

	originalEffective := result.OriginalTotal + components.DeferredSetupMonthly

	ratio := result.Value * float64(fullUsers) / base
	components.SupportLabor *= ratio
	components.DeferredSetupMonthly *= ratio

	result.Components = components
	result.NewTotal = components.ToolsSoftware + components.OtherLabor + components.SupportLabor + components.DeferredSetupMonthly
	result.DiscountAmount = originalEffective - result.NewTotal
	return result
}

// WithDiscount returns a copy of the calculation with a discount recorded:
// discountedTotal set and the contract total rebased on the discounted
// monthly figure. The undiscounted component totals are kept, so applying
// a second discount replaces the first instead of stacking on it; the
// reallocated component breakdown is available through ApplyDiscount.
func WithDiscount(calc QuoteCalculation, fullUsers int, discountType DiscountType, value float64) QuoteCalculation {
	result := ApplyDiscount(calc.Totals, fullUsers, discountType, value)

	totals := calc.Totals
	totals.DiscountType = discountType
	totals.DiscountValue = value
	discounted := result.NewTotal
	totals.DiscountedTotal = &discounted
	totals.ContractTotal = discounted * float64(calc.Customer.ContractMonths)

	calc.Totals = totals
	return calc
}
