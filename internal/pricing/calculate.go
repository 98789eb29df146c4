package pricing

// estimatedCostRatio approximates overall delivery cost as a share of the
// monthly total. The persisted profit margin is derived from this heuristic
// rather than the granular per-component costs; downstream records depend on
// that behavior, so it is kept even though the two disagree.
const estimatedCostRatio = 0.35

// Calculate produces a full QuoteCalculation from the current inputs and
// rate tables. It is a pure function: identical inputs yield identical
// output, and nothing is mutated. Inactive lines are dropped before pricing.
func Calculate(in Input, rates LaborRates, hours HoursTable) QuoteCalculation {
	out := QuoteCalculation{
		Customer:        in.Customer,
		SetupServices:   make([]SetupServiceLine, 0, len(in.SetupServices)),
		MonthlyServices: make([]VariableCostTool, 0, len(in.Tools)),
		SupportDevices:  make([]SupportDeviceLine, 0, len(in.SupportDevices)),
		OtherLabor: OtherLaborLines{
			MonthlyServices:  make([]MonthlyLaborLine, 0, len(in.OtherLabor.MonthlyServices)),
			IncidentServices: make([]IncidentLine, 0, len(in.OtherLabor.IncidentServices)),
		},
	}

	totals := Totals{UpfrontPayment: in.UpfrontPayment}

	for _, svc := range in.SetupServices {
		if !svc.IsActive {
			continue
		}
		line := PriceSetupService(svc, in.Customer, rates, hours)
		totals.SetupCosts += line.Price
		out.SetupServices = append(out.SetupServices, line)
	}

	for _, tool := range in.Tools {
		if !tool.IsActive {
			continue
		}
		priced := PriceTool(tool)
		totals.ToolsSoftware += priced.ExtendedPrice
		out.MonthlyServices = append(out.MonthlyServices, priced)
	}

	for _, dev := range in.SupportDevices {
		if !dev.IsActive {
			continue
		}
		line := PriceSupportDevice(dev, rates)
		totals.SupportLabor += line.Price
		out.SupportDevices = append(out.SupportDevices, line)
	}

	for _, svc := range in.OtherLabor.MonthlyServices {
		if !svc.IsActive {
			continue
		}
		line := PriceMonthlyLabor(svc, rates)
		totals.OtherLabor += line.Price
		out.OtherLabor.MonthlyServices = append(out.OtherLabor.MonthlyServices, line)
	}

	for _, svc := range in.OtherLabor.IncidentServices {
		if !svc.IsActive {
			continue
		}
		line := PriceIncidentService(svc, rates)
		totals.OtherLabor += line.Price
		out.OtherLabor.IncidentServices = append(out.OtherLabor.IncidentServices, line)
	}

	totals.MonthlyTotal = totals.ToolsSoftware + totals.SupportLabor + totals.OtherLabor
	if in.Customer.ContractMonths > 0 {
		totals.DeferredSetupMonthly = (totals.SetupCosts - in.UpfrontPayment) / float64(in.Customer.ContractMonths)
	}
	totals.ContractTotal = totals.MonthlyTotal * float64(in.Customer.ContractMonths)

	out.Totals = totals
	out.EstimatedCost = totals.MonthlyTotal * estimatedCostRatio
	if totals.MonthlyTotal > 0 {
		out.ProfitMargin = (totals.MonthlyTotal - out.EstimatedCost) / totals.MonthlyTotal * 100
	}

	return out
}
