package pricing

// Per-user email migration license rates, layered on top of the hours-based
// cost and price of the email migration setup service.
const (
	emailLicenseCostPerUser  = 28.0
	emailLicensePricePerUser = 42.0
)

// PriceSetupService derives hours for a setup service and prices them.
// The email migration service adds a flat per-user license on both sides,
// counting full and email-only users.
func PriceSetupService(svc SetupService, customer CustomerInfo, rates LaborRates, hours HoursTable) SetupServiceLine {
	line := SetupServiceLine{SetupService: svc}
	line.Hours = hours.Hours(svc.ID, svc.IsActive, customer)
	line.Cost = line.Hours * rates.CostRate(svc.SkillLevel)
	line.Price = line.Hours * rates.PriceRate(svc.SkillLevel, svc.Factor2)

	if svc.IsActive && svc.ID == EmailMigrationID {
		users := float64(customer.Users.Full + customer.Users.EmailOnly)
		line.Cost += emailLicenseCostPerUser * users
		line.Price += emailLicensePricePerUser * users
	}

	return line
}

// PriceSupportDevice prices a support device across its three service
// categories. Cost uses the time-invariant cost rate against all hours;
// price splits business and after-hours buckets across the two price rates.
// Both scale linearly with the device quantity.
func PriceSupportDevice(dev SupportDevice, rates LaborRates) SupportDeviceLine {
	line := SupportDeviceLine{SupportDevice: dev}
	if !dev.IsActive {
		return line
	}

	qty := float64(dev.Quantity)
	costRate := rates.CostRate(dev.SkillLevel)
	rate := rates[dev.SkillLevel]

	for _, category := range dev.Hours.Categories() {
		line.Cost += qty * category.Total() * costRate
		line.Price += qty * (category.Business()*rate.PriceBusinessHours + category.AfterHours()*rate.PriceAfterHours)
	}

	return line
}

// PriceMonthlyLabor prices a recurring labor service by hours per month.
func PriceMonthlyLabor(svc MonthlyLaborService, rates LaborRates) MonthlyLaborLine {
	line := MonthlyLaborLine{MonthlyLaborService: svc}
	if !svc.IsActive {
		return line
	}
	line.Cost = svc.HoursPerMonth * rates.CostRate(svc.SkillLevel)
	line.Price = svc.HoursPerMonth * rates.PriceRate(svc.SkillLevel, svc.Factor2)
	return line
}

// PriceIncidentService prices an incident-based labor service by expected
// monthly incident volume.
func PriceIncidentService(svc IncidentBasedService, rates LaborRates) IncidentLine {
	line := IncidentLine{IncidentBasedService: svc}
	if !svc.IsActive {
		return line
	}
	hours := svc.HoursPerIncident * svc.QuantityPerMonth
	line.Cost = hours * rates.CostRate(svc.SkillLevel)
	line.Price = hours * rates.PriceRate(svc.SkillLevel, svc.Factor2)
	return line
}
