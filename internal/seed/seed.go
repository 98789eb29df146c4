package seed

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/brightline-it/mspquote/internal/pricing"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way: the admin user, the
// labor rate card, the setup-hours rules, the tool catalog, and the starter
// device templates. Existing rows are never overwritten.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := seedLaborRates(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := seedHoursRules(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := seedToolCatalog(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := seedDeviceTemplates(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func seedLaborRates(tx *sql.Tx, stats *Stats) error {
	for level, rate := range pricing.DefaultLaborRates() {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM labor_rates WHERE skill_level = ?)`, level).Scan(&exists); err != nil {
			return fmt.Errorf("check labor rate existence: %w", err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO labor_rates (skill_level, cost, price_business, price_after_hours)
			VALUES (?, ?, ?, ?)
		`, level, rate.Cost, rate.PriceBusinessHours, rate.PriceAfterHours); err != nil {
			return fmt.Errorf("insert labor rate level %d: %w", level, err)
		}
		stats.Inserts++
	}
	return nil
}

func seedHoursRules(tx *sql.Tx, stats *Stats) error {
	for id, rule := range pricing.DefaultHoursTable() {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM setup_hours_rules WHERE service_id = ?)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check hours rule existence: %w", err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO setup_hours_rules (service_id, name, hours_per_unit, count_fields)
			VALUES (?, ?, ?, ?)
		`, id, rule.Name, rule.HoursPerUnit, pricing.JoinCountFields(rule.CountFields)); err != nil {
			return fmt.Errorf("insert hours rule %s: %w", id, err)
		}
		stats.Inserts++
	}
	return nil
}

type toolSeed struct {
	id              string
	name            string
	costPerNodeUnit *float64
	costPerCustomer *float64
	pricePerUnit    float64
}

func floatPtr(v float64) *float64 { return &v }

func defaultToolCatalog() []toolSeed {
	return []toolSeed{
		{id: "3433", name: "Endpoint Protection", costPerNodeUnit: floatPtr(2.25), pricePerUnit: 6},
		{id: "3434", name: "Server Monitoring", costPerNodeUnit: floatPtr(15), pricePerUnit: 35},
		{id: "3435", name: "RMM Agent", costPerNodeUnit: floatPtr(1.8), pricePerUnit: 4.5},
		{id: "3440", name: "Firewall Subscription", costPerNodeUnit: floatPtr(18), pricePerUnit: 40},
		{id: "3441", name: "MDM Licensing", costPerNodeUnit: floatPtr(1.5), pricePerUnit: 4},
		{id: "3516", name: "Email Security", costPerNodeUnit: floatPtr(2.4), pricePerUnit: 5.5},
		{id: "3517", name: "Productivity Licensing", costPerNodeUnit: floatPtr(10.5), pricePerUnit: 18},
		{id: "3518", name: "Mailbox Backup", costPerNodeUnit: floatPtr(2), pricePerUnit: 4.5},
		{id: "3519", name: "Security Awareness Training", costPerCustomer: floatPtr(90), pricePerUnit: 4},
		{id: "3520", name: "Password Manager", costPerNodeUnit: floatPtr(2.5), pricePerUnit: 5},
		{id: "3442", name: "Co-Managed Tooling", costPerCustomer: floatPtr(150), pricePerUnit: 6},
	}
}

func seedToolCatalog(tx *sql.Tx, stats *Stats) error {
	quantities := pricing.DefaultQuantityTable()

	for _, tool := range defaultToolCatalog() {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM tool_catalog WHERE id = ?)`, tool.id).Scan(&exists); err != nil {
			return fmt.Errorf("check tool existence: %w", err)
		}
		if exists {
			continue
		}

		countFields := ""
		if rule, ok := quantities.Rules[tool.id]; ok {
			countFields = pricing.JoinCountFields(rule.CountFields)
		}

		if _, err := tx.Exec(`
			INSERT INTO tool_catalog (id, name, cost_per_node_unit, cost_per_customer, price_per_node_unit, count_fields, is_optional)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, tool.id, tool.name, tool.costPerNodeUnit, tool.costPerCustomer, tool.pricePerUnit, countFields, quantities.Optional[tool.id]); err != nil {
			return fmt.Errorf("insert tool %s: %w", tool.id, err)
		}
		stats.Inserts++
	}
	return nil
}

type deviceSeed struct {
	id         string
	name       string
	skillLevel int
	hours      pricing.DeviceHours
}

func defaultDeviceTemplates() []deviceSeed {
	return []deviceSeed{
		{
			id: "workstation", name: "Workstation", skillLevel: 1,
			hours: pricing.DeviceHours{
				Predictable: pricing.HourBuckets{RemoteBusiness: 0.15},
				Reactive:    pricing.HourBuckets{RemoteBusiness: 0.2},
				Emergency:   pricing.HourBuckets{RemoteAfterHours: 0.02},
			},
		},
		{
			id: "server", name: "Server", skillLevel: 3,
			hours: pricing.DeviceHours{
				Predictable: pricing.HourBuckets{OnsiteBusiness: 0.25, RemoteBusiness: 0.5},
				Reactive:    pricing.HourBuckets{RemoteBusiness: 0.5},
				Emergency:   pricing.HourBuckets{OnsiteAfterHours: 0.05, RemoteAfterHours: 0.1},
			},
		},
		{
			id: "firewall", name: "Firewall", skillLevel: 2,
			hours: pricing.DeviceHours{
				Predictable: pricing.HourBuckets{RemoteBusiness: 0.25},
				Reactive:    pricing.HourBuckets{RemoteBusiness: 0.1},
				Emergency:   pricing.HourBuckets{RemoteAfterHours: 0.05},
			},
		},
		{
			id: "printer", name: "Printer", skillLevel: 1,
			hours: pricing.DeviceHours{
				Reactive: pricing.HourBuckets{OnsiteBusiness: 0.1},
			},
		},
	}
}

func seedDeviceTemplates(tx *sql.Tx, stats *Stats) error {
	for _, dev := range defaultDeviceTemplates() {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM device_templates WHERE id = ?)`, dev.id).Scan(&exists); err != nil {
			return fmt.Errorf("check device template existence: %w", err)
		}
		if exists {
			continue
		}

		h := dev.hours
		if _, err := tx.Exec(`
			INSERT INTO device_templates (
				id, name, skill_level,
				predictable_onsite_business, predictable_remote_business, predictable_onsite_after_hours, predictable_remote_after_hours,
				reactive_onsite_business, reactive_remote_business, reactive_onsite_after_hours, reactive_remote_after_hours,
				emergency_onsite_business, emergency_remote_business, emergency_onsite_after_hours, emergency_remote_after_hours
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			dev.id, dev.name, dev.skillLevel,
			h.Predictable.OnsiteBusiness, h.Predictable.RemoteBusiness, h.Predictable.OnsiteAfterHours, h.Predictable.RemoteAfterHours,
			h.Reactive.OnsiteBusiness, h.Reactive.RemoteBusiness, h.Reactive.OnsiteAfterHours, h.Reactive.RemoteAfterHours,
			h.Emergency.OnsiteBusiness, h.Emergency.RemoteBusiness, h.Emergency.OnsiteAfterHours, h.Emergency.RemoteAfterHours,
		); err != nil {
			return fmt.Errorf("insert device template %s: %w", dev.id, err)
		}
		stats.Inserts++
	}
	return nil
}
