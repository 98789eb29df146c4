package pricing

import "strings"

// CustomToolPrefix marks tools added ad hoc by the user. Custom tools are
// always manually quantified and can be deleted from a quote.
const CustomToolPrefix = "custom-"

// IsCustomTool reports whether a tool id belongs to a user-created tool.
func IsCustomTool(id string) bool {
	return strings.HasPrefix(id, CustomToolPrefix)
}

// QuantityRule derives a tool quantity from named customer count fields.
type QuantityRule struct {
	CountFields []CountField `json:"countFields"`
}

// QuantityTable maps tool ids to quantity derivation rules. Ids listed in
// Optional keep their manually entered quantity even when a rule exists.
type QuantityTable struct {
	Rules    map[string]QuantityRule `json:"rules"`
	Optional map[string]bool         `json:"optional"`
}

// Quantity resolves the automatic quantity for a tool id. The second return
// is false for optional, custom, and unmapped ids, whose quantities stay
// manual.
func (t QuantityTable) Quantity(toolID string, customer CustomerInfo) (int, bool) {
	if IsCustomTool(toolID) || t.Optional[toolID] {
		return 0, false
	}
	rule, ok := t.Rules[toolID]
	if !ok {
		return 0, false
	}
	return customer.CountSum(rule.CountFields), true
}

// ApplyAutoQuantities returns a copy of tools with derived quantities filled
// in where a rule applies. Manual quantities pass through untouched.
func ApplyAutoQuantities(tools []VariableCostTool, customer CustomerInfo, table QuantityTable) []VariableCostTool {
	out := make([]VariableCostTool, len(tools))
	for i, tool := range tools {
		if qty, ok := table.Quantity(tool.ID, customer); ok {
			tool.NodesUnitsSupported = qty
		}
		out[i] = tool
	}
	return out
}

// DefaultQuantityTable returns the standard tool-id to count-field mapping.
// The numeric ids come from the PSA template catalog.
func DefaultQuantityTable() QuantityTable {
	return QuantityTable{
		Rules: map[string]QuantityRule{
			"3433": {CountFields: []CountField{FieldWorkstations}},                   // endpoint protection
			"3434": {CountFields: []CountField{FieldServers}},                        // server monitoring
			"3435": {CountFields: []CountField{FieldWorkstations, FieldServers}},     // RMM agent
			"3440": {CountFields: []CountField{FieldFirewalls}},                      // firewall subscription
			"3441": {CountFields: []CountField{FieldManagedMobileDevices}},           // MDM licensing
			"3516": {CountFields: []CountField{FieldFullUsers, FieldEmailOnlyUsers}}, // email security
			"3517": {CountFields: []CountField{FieldFullUsers}},                      // productivity licensing
			"3518": {CountFields: []CountField{FieldFullUsers}},                      // mailbox backup
		},
		Optional: map[string]bool{
			"3519": true, // security awareness training
			"3520": true, // password manager
			"3442": true, // co-managed tooling
		},
	}
}

// PriceTool fills in the extended cost, extended price, and margin of a tool.
// A zero quantity forces both extended values to 0 even when a flat
// per-customer cost is set. When both cost fields are present the per-unit
// cost takes precedence.
func PriceTool(tool VariableCostTool) VariableCostTool {
	qty := float64(tool.NodesUnitsSupported)
	if qty == 0 {
		tool.ExtendedCost = 0
		tool.ExtendedPrice = 0
		tool.Margin = 0
		return tool
	}

	switch {
	case tool.CostPerNodeUnit != nil:
		tool.ExtendedCost = qty * *tool.CostPerNodeUnit
	case tool.CostPerCustomer != nil:
		tool.ExtendedCost = *tool.CostPerCustomer
	default:
		tool.ExtendedCost = 0
	}

	tool.ExtendedPrice = qty * tool.PricePerNodeUnit
	tool.Margin = marginPercent(tool.ExtendedCost, tool.ExtendedPrice)
	return tool
}

// marginPercent is (price-cost)/price*100 with a zero-price guard.
func marginPercent(cost, price float64) float64 {
	if price == 0 {
		return 0
	}
	return (price - cost) / price * 100
}
