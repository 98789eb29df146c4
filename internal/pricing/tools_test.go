package pricing

import "testing"

func floatPtr(v float64) *float64 { return &v }

func TestPriceTool_PerUnitCostAndPrice(t *testing.T) {
	tool := PriceTool(VariableCostTool{
		ID:                  "3433",
		IsActive:            true,
		NodesUnitsSupported: 10,
		CostPerNodeUnit:     floatPtr(2.5),
		PricePerNodeUnit:    6,
	})

	nearlyEqual(t, "extendedCost", tool.ExtendedCost, 25)
	nearlyEqual(t, "extendedPrice", tool.ExtendedPrice, 60)
	nearlyEqual(t, "margin", tool.Margin, (60.0-25.0)/60.0*100)
}

func TestPriceTool_FlatCostWhenNoPerUnitCost(t *testing.T) {
	tool := PriceTool(VariableCostTool{
		ID:                  "3519",
		NodesUnitsSupported: 4,
		CostPerCustomer:     floatPtr(120),
		PricePerNodeUnit:    50,
	})

	nearlyEqual(t, "extendedCost", tool.ExtendedCost, 120)
	nearlyEqual(t, "extendedPrice", tool.ExtendedPrice, 200)
}

func TestPriceTool_PerUnitCostWinsOverFlatCost(t *testing.T) {
	tool := PriceTool(VariableCostTool{
		ID:                  "3433",
		NodesUnitsSupported: 3,
		CostPerNodeUnit:     floatPtr(10),
		CostPerCustomer:     floatPtr(999),
		PricePerNodeUnit:    20,
	})

	nearlyEqual(t, "extendedCost", tool.ExtendedCost, 30)
}

func TestPriceTool_ZeroQuantityForcesZeroEvenWithFlatCost(t *testing.T) {
	tool := PriceTool(VariableCostTool{
		ID:                  "3520",
		NodesUnitsSupported: 0,
		CostPerCustomer:     floatPtr(500),
		PricePerNodeUnit:    25,
	})

	nearlyEqual(t, "extendedCost", tool.ExtendedCost, 0)
	nearlyEqual(t, "extendedPrice", tool.ExtendedPrice, 0)
	nearlyEqual(t, "margin", tool.Margin, 0)
}

func TestPriceTool_NegativeMarginWhenCostExceedsPrice(t *testing.T) {
	tool := PriceTool(VariableCostTool{
		ID:                  "3434",
		NodesUnitsSupported: 2,
		CostPerNodeUnit:     floatPtr(15),
		PricePerNodeUnit:    10,
	})

	nearlyEqual(t, "extendedCost", tool.ExtendedCost, 30)
	nearlyEqual(t, "extendedPrice", tool.ExtendedPrice, 20)
	nearlyEqual(t, "margin", tool.Margin, (20.0-30.0)/20.0*100)
}

func TestPriceTool_ZeroPriceHasZeroMargin(t *testing.T) {
	tool := PriceTool(VariableCostTool{
		ID:                  "3435",
		NodesUnitsSupported: 5,
		CostPerNodeUnit:     floatPtr(3),
		PricePerNodeUnit:    0,
	})

	nearlyEqual(t, "extendedPrice", tool.ExtendedPrice, 0)
	nearlyEqual(t, "margin", tool.Margin, 0)
}

func TestApplyAutoQuantities_DerivesMappedIds(t *testing.T) {
	customer := CustomerInfo{
		Users:          Users{Full: 10, EmailOnly: 5},
		Infrastructure: Infrastructure{Workstations: 20},
	}
	tools := []VariableCostTool{
		{ID: "3433", NodesUnitsSupported: 1},
		{ID: "3516", NodesUnitsSupported: 1},
	}

	out := ApplyAutoQuantities(tools, customer, DefaultQuantityTable())

	if out[0].NodesUnitsSupported != 20 {
		t.Fatalf("workstation tool quantity = %d, want 20", out[0].NodesUnitsSupported)
	}
	if out[1].NodesUnitsSupported != 15 {
		t.Fatalf("user tool quantity = %d, want 15", out[1].NodesUnitsSupported)
	}
}

func TestApplyAutoQuantities_OptionalAndCustomStayManual(t *testing.T) {
	customer := CustomerInfo{Infrastructure: Infrastructure{Workstations: 20}}
	tools := []VariableCostTool{
		{ID: "3519", NodesUnitsSupported: 7},
		{ID: "custom-extra-backup", NodesUnitsSupported: 3},
		{ID: "9999", NodesUnitsSupported: 2},
	}

	out := ApplyAutoQuantities(tools, customer, DefaultQuantityTable())

	for i, want := range []int{7, 3, 2} {
		if out[i].NodesUnitsSupported != want {
			t.Fatalf("tool %s quantity = %d, want %d", out[i].ID, out[i].NodesUnitsSupported, want)
		}
	}
}

func TestApplyAutoQuantities_DoesNotMutateInput(t *testing.T) {
	customer := CustomerInfo{Infrastructure: Infrastructure{Workstations: 20}}
	tools := []VariableCostTool{{ID: "3433", NodesUnitsSupported: 1}}

	_ = ApplyAutoQuantities(tools, customer, DefaultQuantityTable())

	if tools[0].NodesUnitsSupported != 1 {
		t.Fatalf("input slice was mutated: quantity = %d", tools[0].NodesUnitsSupported)
	}
}

func TestIsCustomTool(t *testing.T) {
	if !IsCustomTool("custom-av") {
		t.Fatal("expected custom- prefix to be custom")
	}
	if IsCustomTool("3433") {
		t.Fatal("expected catalog id not to be custom")
	}
}
