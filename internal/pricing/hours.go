package pricing

import "strings"

// CountField names one numeric field of the customer snapshot. Hours and
// quantity rules reference fields by name so the tables stay plain data.
type CountField string

const (
	FieldWorkstations         CountField = "workstations"
	FieldServers              CountField = "servers"
	FieldPrinters             CountField = "printers"
	FieldPhoneExtensions      CountField = "phoneExtensions"
	FieldWifiAccessPoints     CountField = "wifiAccessPoints"
	FieldFirewalls            CountField = "firewalls"
	FieldSwitches             CountField = "switches"
	FieldUPS                  CountField = "ups"
	FieldNAS                  CountField = "nas"
	FieldManagedMobileDevices CountField = "managedMobileDevices"
	FieldDomainsUsedForEmail  CountField = "domainsUsedForEmail"
	FieldFullUsers            CountField = "fullUsers"
	FieldEmailOnlyUsers       CountField = "emailOnlyUsers"
)

// Count resolves a named field against the snapshot. Unknown names count as
// zero so a stale rule row can never break a calculation.
func (c CustomerInfo) Count(field CountField) int {
	switch field {
	case FieldWorkstations:
		return c.Infrastructure.Workstations
	case FieldServers:
		return c.Infrastructure.Servers
	case FieldPrinters:
		return c.Infrastructure.Printers
	case FieldPhoneExtensions:
		return c.Infrastructure.PhoneExtensions
	case FieldWifiAccessPoints:
		return c.Infrastructure.WifiAccessPoints
	case FieldFirewalls:
		return c.Infrastructure.Firewalls
	case FieldSwitches:
		return c.Infrastructure.Switches
	case FieldUPS:
		return c.Infrastructure.UPS
	case FieldNAS:
		return c.Infrastructure.NAS
	case FieldManagedMobileDevices:
		return c.Infrastructure.ManagedMobileDevices
	case FieldDomainsUsedForEmail:
		return c.Infrastructure.DomainsUsedForEmail
	case FieldFullUsers:
		return c.Users.Full
	case FieldEmailOnlyUsers:
		return c.Users.EmailOnly
	default:
		return 0
	}
}

// ValidCountField reports whether the name maps to a snapshot field.
func ValidCountField(field CountField) bool {
	switch field {
	case FieldWorkstations, FieldServers, FieldPrinters, FieldPhoneExtensions,
		FieldWifiAccessPoints, FieldFirewalls, FieldSwitches, FieldUPS, FieldNAS,
		FieldManagedMobileDevices, FieldDomainsUsedForEmail, FieldFullUsers,
		FieldEmailOnlyUsers:
		return true
	default:
		return false
	}
}

// CountSum adds up several named fields.
func (c CustomerInfo) CountSum(fields []CountField) int {
	total := 0
	for _, f := range fields {
		total += c.Count(f)
	}
	return total
}

// JoinCountFields encodes a field list as a comma-separated string for
// storage.
func JoinCountFields(fields []CountField) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

// SplitCountFields decodes a comma-separated field list. Blank entries are
// dropped.
func SplitCountFields(s string) []CountField {
	var fields []CountField
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields = append(fields, CountField(part))
	}
	return fields
}

// HoursRule derives billable hours for one setup service: hours per unit
// times the sum of the named count fields.
type HoursRule struct {
	Name         string       `json:"name"`
	HoursPerUnit float64      `json:"hoursPerUnit"`
	CountFields  []CountField `json:"countFields"`
}

// HoursTable maps setup service ids to their derivation rules.
type HoursTable map[string]HoursRule

// Hours returns the billable hours for a setup service. Inactive services
// and unknown ids yield 0.
func (t HoursTable) Hours(serviceID string, isActive bool, customer CustomerInfo) float64 {
	if !isActive {
		return 0
	}
	rule, ok := t[serviceID]
	if !ok {
		return 0
	}
	return rule.HoursPerUnit * float64(customer.CountSum(rule.CountFields))
}

// Well-known setup service ids. EmailMigrationID additionally carries a
// per-user license add-on, see PriceSetupService.
const (
	WorkstationSetupID = "workstation-setup"
	ServerSetupID      = "server-setup"
	EmailMigrationID   = "email-migration"
	FirewallSetupID    = "firewall-setup"
	SwitchSetupID      = "switch-setup"
	WifiSetupID        = "wifi-setup"
	UPSSetupID         = "ups-setup"
	NASSetupID         = "nas-setup"
	PrinterSetupID     = "printer-setup"
	PhoneSetupID       = "phone-setup"
	MDMEnrollmentID    = "mdm-enrollment"
	DNSCutoverID       = "dns-cutover"
)

// DefaultHoursTable returns the standard hour formulas for setup services.
func DefaultHoursTable() HoursTable {
	return HoursTable{
		WorkstationSetupID: {Name: "Workstation Setup", HoursPerUnit: 0.5, CountFields: []CountField{FieldWorkstations}},
		ServerSetupID:      {Name: "Server Setup", HoursPerUnit: 3, CountFields: []CountField{FieldServers}},
		EmailMigrationID:   {Name: "Email Migration", HoursPerUnit: 0.75, CountFields: []CountField{FieldFullUsers, FieldEmailOnlyUsers}},
		FirewallSetupID:    {Name: "Firewall Setup", HoursPerUnit: 1.5, CountFields: []CountField{FieldFirewalls}},
		SwitchSetupID:      {Name: "Switch Setup", HoursPerUnit: 0.75, CountFields: []CountField{FieldSwitches}},
		WifiSetupID:        {Name: "Wi-Fi Access Point Setup", HoursPerUnit: 0.5, CountFields: []CountField{FieldWifiAccessPoints}},
		UPSSetupID:         {Name: "UPS Setup", HoursPerUnit: 0.5, CountFields: []CountField{FieldUPS}},
		NASSetupID:         {Name: "NAS Setup", HoursPerUnit: 2, CountFields: []CountField{FieldNAS}},
		PrinterSetupID:     {Name: "Printer Setup", HoursPerUnit: 0.25, CountFields: []CountField{FieldPrinters}},
		PhoneSetupID:       {Name: "Phone Extension Setup", HoursPerUnit: 0.25, CountFields: []CountField{FieldPhoneExtensions}},
		MDMEnrollmentID:    {Name: "Mobile Device Enrollment", HoursPerUnit: 0.25, CountFields: []CountField{FieldManagedMobileDevices}},
		DNSCutoverID:       {Name: "Email Domain Cutover", HoursPerUnit: 1, CountFields: []CountField{FieldDomainsUsedForEmail}},
	}
}
