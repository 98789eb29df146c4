package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/brightline-it/mspquote/internal/pricing"
)

var errQuoteNotFound = errors.New("quote not found")

// loadLaborRates reads the rate card the engine prices labor with. Rows are
// written by seed, the admin form, and Halo sync.
func (s *server) loadLaborRates() (pricing.LaborRates, error) {
	rows, err := s.db.Query(`SELECT skill_level, cost, price_business, price_after_hours FROM labor_rates`)
	if err != nil {
		return nil, fmt.Errorf("query labor rates: %w", err)
	}
	defer rows.Close()

	rates := pricing.LaborRates{}
	for rows.Next() {
		var level int
		var rate pricing.LaborRate
		if err := rows.Scan(&level, &rate.Cost, &rate.PriceBusinessHours, &rate.PriceAfterHours); err != nil {
			return nil, fmt.Errorf("scan labor rate: %w", err)
		}
		rates[level] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labor rates: %w", err)
	}

	return rates, nil
}

// loadHoursTable reads the setup-hours rule table.
func (s *server) loadHoursTable() (pricing.HoursTable, error) {
	rows, err := s.db.Query(`SELECT service_id, name, hours_per_unit, count_fields FROM setup_hours_rules`)
	if err != nil {
		return nil, fmt.Errorf("query setup hours rules: %w", err)
	}
	defer rows.Close()

	table := pricing.HoursTable{}
	for rows.Next() {
		var id, fields string
		var rule pricing.HoursRule
		if err := rows.Scan(&id, &rule.Name, &rule.HoursPerUnit, &fields); err != nil {
			return nil, fmt.Errorf("scan hours rule: %w", err)
		}
		rule.CountFields = pricing.SplitCountFields(fields)
		table[id] = rule
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hours rules: %w", err)
	}

	return table, nil
}

// loadQuantityTable derives the auto-quantity mapping from the tool catalog.
func (s *server) loadQuantityTable() (pricing.QuantityTable, error) {
	rows, err := s.db.Query(`SELECT id, count_fields, is_optional FROM tool_catalog`)
	if err != nil {
		return pricing.QuantityTable{}, fmt.Errorf("query tool catalog: %w", err)
	}
	defer rows.Close()

	table := pricing.QuantityTable{
		Rules:    map[string]pricing.QuantityRule{},
		Optional: map[string]bool{},
	}
	for rows.Next() {
		var id, fields string
		var optional bool
		if err := rows.Scan(&id, &fields, &optional); err != nil {
			return pricing.QuantityTable{}, fmt.Errorf("scan tool catalog row: %w", err)
		}
		if optional {
			table.Optional[id] = true
		}
		if fields != "" {
			table.Rules[id] = pricing.QuantityRule{CountFields: pricing.SplitCountFields(fields)}
		}
	}
	if err := rows.Err(); err != nil {
		return pricing.QuantityTable{}, fmt.Errorf("iterate tool catalog: %w", err)
	}

	return table, nil
}

type catalogTool struct {
	ID               string
	Name             string
	CostPerNodeUnit  *float64
	CostPerCustomer  *float64
	PricePerNodeUnit float64
	CountFields      string
	IsOptional       bool
}

func (s *server) listCatalogTools() ([]catalogTool, error) {
	rows, err := s.db.Query(`
		SELECT id, name, cost_per_node_unit, cost_per_customer, price_per_node_unit, count_fields, is_optional
		FROM tool_catalog
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query tool catalog: %w", err)
	}
	defer rows.Close()

	tools := make([]catalogTool, 0)
	for rows.Next() {
		var t catalogTool
		if err := rows.Scan(&t.ID, &t.Name, &t.CostPerNodeUnit, &t.CostPerCustomer, &t.PricePerNodeUnit, &t.CountFields, &t.IsOptional); err != nil {
			return nil, fmt.Errorf("scan catalog tool: %w", err)
		}
		tools = append(tools, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tool catalog: %w", err)
	}

	return tools, nil
}

// deviceTemplate is a reusable support-device preset offered by the quote
// builder. Rows come from seed and Halo sync.
type deviceTemplate struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	SkillLevel int                 `json:"skillLevel"`
	Hours      pricing.DeviceHours `json:"hours"`
}

func (s *server) listDeviceTemplates() ([]deviceTemplate, error) {
	rows, err := s.db.Query(`
		SELECT
			id, name, skill_level,
			predictable_onsite_business, predictable_remote_business, predictable_onsite_after_hours, predictable_remote_after_hours,
			reactive_onsite_business, reactive_remote_business, reactive_onsite_after_hours, reactive_remote_after_hours,
			emergency_onsite_business, emergency_remote_business, emergency_onsite_after_hours, emergency_remote_after_hours
		FROM device_templates
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query device templates: %w", err)
	}
	defer rows.Close()

	templates := make([]deviceTemplate, 0)
	for rows.Next() {
		var t deviceTemplate
		h := &t.Hours
		if err := rows.Scan(
			&t.ID, &t.Name, &t.SkillLevel,
			&h.Predictable.OnsiteBusiness, &h.Predictable.RemoteBusiness, &h.Predictable.OnsiteAfterHours, &h.Predictable.RemoteAfterHours,
			&h.Reactive.OnsiteBusiness, &h.Reactive.RemoteBusiness, &h.Reactive.OnsiteAfterHours, &h.Reactive.RemoteAfterHours,
			&h.Emergency.OnsiteBusiness, &h.Emergency.RemoteBusiness, &h.Emergency.OnsiteAfterHours, &h.Emergency.RemoteAfterHours,
		); err != nil {
			return nil, fmt.Errorf("scan device template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate device templates: %w", err)
	}

	return templates, nil
}

// quoteRecord is the persisted quote row: the priced snapshot plus list
// metadata. The JSON columns hold the priced line lists so a detail view
// never recalculates.
type quoteRecord struct {
	ID          int64
	PublicToken string
	Title       string
	Notes       string
	Calc        pricing.QuoteCalculation
	Version     int
	CreatedAt   string
	UpdatedAt   string
}

func (s *server) insertQuote(title, notes string, calc pricing.QuoteCalculation) (quoteRecord, error) {
	cols, err := marshalQuoteColumns(calc)
	if err != nil {
		return quoteRecord{}, err
	}

	token := uuid.NewString()
	res, err := s.db.Exec(`
		INSERT INTO quotes (
			public_token, title, notes,
			customer_json, setup_services_json, monthly_services_json, support_devices_json, other_labor_json,
			upfront_payment, setup_costs, deferred_setup_monthly, tools_software, support_labor, other_labor,
			monthly_total, contract_total, discount_type, discount_value, discounted_total,
			estimated_cost, profit_margin, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`,
		token, title, notes,
		cols.customer, cols.setupServices, cols.monthlyServices, cols.supportDevices, cols.otherLabor,
		calc.Totals.UpfrontPayment, calc.Totals.SetupCosts, calc.Totals.DeferredSetupMonthly,
		calc.Totals.ToolsSoftware, calc.Totals.SupportLabor, calc.Totals.OtherLabor,
		calc.Totals.MonthlyTotal, calc.Totals.ContractTotal,
		string(discountTypeOrNone(calc.Totals.DiscountType)), calc.Totals.DiscountValue, calc.Totals.DiscountedTotal,
		calc.EstimatedCost, calc.ProfitMargin,
	)
	if err != nil {
		return quoteRecord{}, fmt.Errorf("insert quote: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return quoteRecord{}, fmt.Errorf("quote insert id: %w", err)
	}

	return s.getQuote(id)
}

// updateQuote replaces the stored snapshot. The version bumps on any change
// other than notes.
func (s *server) updateQuote(id int64, title, notes string, calc pricing.QuoteCalculation) (quoteRecord, error) {
	existing, err := s.getQuote(id)
	if err != nil {
		return quoteRecord{}, err
	}

	cols, err := marshalQuoteColumns(calc)
	if err != nil {
		return quoteRecord{}, err
	}
	existingCols, err := marshalQuoteColumns(existing.Calc)
	if err != nil {
		return quoteRecord{}, err
	}

	version := existing.Version
	if title != existing.Title || cols != existingCols || totalsChanged(calc.Totals, existing.Calc.Totals) {
		version++
	}

	_, err = s.db.Exec(`
		UPDATE quotes
		SET
			title = ?,
			notes = ?,
			customer_json = ?,
			setup_services_json = ?,
			monthly_services_json = ?,
			support_devices_json = ?,
			other_labor_json = ?,
			upfront_payment = ?,
			setup_costs = ?,
			deferred_setup_monthly = ?,
			tools_software = ?,
			support_labor = ?,
			other_labor = ?,
			monthly_total = ?,
			contract_total = ?,
			discount_type = ?,
			discount_value = ?,
			discounted_total = ?,
			estimated_cost = ?,
			profit_margin = ?,
			version = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		title, notes,
		cols.customer, cols.setupServices, cols.monthlyServices, cols.supportDevices, cols.otherLabor,
		calc.Totals.UpfrontPayment, calc.Totals.SetupCosts, calc.Totals.DeferredSetupMonthly,
		calc.Totals.ToolsSoftware, calc.Totals.SupportLabor, calc.Totals.OtherLabor,
		calc.Totals.MonthlyTotal, calc.Totals.ContractTotal,
		string(discountTypeOrNone(calc.Totals.DiscountType)), calc.Totals.DiscountValue, calc.Totals.DiscountedTotal,
		calc.EstimatedCost, calc.ProfitMargin,
		version, id,
	)
	if err != nil {
		return quoteRecord{}, fmt.Errorf("update quote: %w", err)
	}

	return s.getQuote(id)
}

func (s *server) getQuote(id int64) (quoteRecord, error) {
	var rec quoteRecord
	var customerJSON, setupJSON, monthlyJSON, devicesJSON, otherJSON string
	var discountType string
	var discountedTotal sql.NullFloat64

	err := s.db.QueryRow(`
		SELECT
			id, public_token, COALESCE(title, ''), COALESCE(notes, ''),
			customer_json, setup_services_json, monthly_services_json, support_devices_json, other_labor_json,
			upfront_payment, setup_costs, deferred_setup_monthly, tools_software, support_labor, other_labor,
			monthly_total, contract_total, discount_type, discount_value, discounted_total,
			estimated_cost, profit_margin, version, created_at, updated_at
		FROM quotes
		WHERE id = ?
	`, id).Scan(
		&rec.ID, &rec.PublicToken, &rec.Title, &rec.Notes,
		&customerJSON, &setupJSON, &monthlyJSON, &devicesJSON, &otherJSON,
		&rec.Calc.Totals.UpfrontPayment, &rec.Calc.Totals.SetupCosts, &rec.Calc.Totals.DeferredSetupMonthly,
		&rec.Calc.Totals.ToolsSoftware, &rec.Calc.Totals.SupportLabor, &rec.Calc.Totals.OtherLabor,
		&rec.Calc.Totals.MonthlyTotal, &rec.Calc.Totals.ContractTotal,
		&discountType, &rec.Calc.Totals.DiscountValue, &discountedTotal,
		&rec.Calc.EstimatedCost, &rec.Calc.ProfitMargin, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return quoteRecord{}, errQuoteNotFound
	}
	if err != nil {
		return quoteRecord{}, fmt.Errorf("query quote %d: %w", id, err)
	}

	rec.Calc.Totals.DiscountType = pricing.DiscountType(discountType)
	if discountedTotal.Valid {
		v := discountedTotal.Float64
		rec.Calc.Totals.DiscountedTotal = &v
	}

	if err := json.Unmarshal([]byte(customerJSON), &rec.Calc.Customer); err != nil {
		return quoteRecord{}, fmt.Errorf("decode customer snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(setupJSON), &rec.Calc.SetupServices); err != nil {
		return quoteRecord{}, fmt.Errorf("decode setup services snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(monthlyJSON), &rec.Calc.MonthlyServices); err != nil {
		return quoteRecord{}, fmt.Errorf("decode monthly services snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(devicesJSON), &rec.Calc.SupportDevices); err != nil {
		return quoteRecord{}, fmt.Errorf("decode support devices snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(otherJSON), &rec.Calc.OtherLabor); err != nil {
		return quoteRecord{}, fmt.Errorf("decode other labor snapshot: %w", err)
	}

	return rec, nil
}

type quoteListItem struct {
	ID            int64
	CreatedAt     string
	Title         string
	Company       string
	MonthlyTotal  float64
	ContractTotal float64
	Version       int
}

func (s *server) listQuotes(query string) ([]quoteListItem, error) {
	search := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT id, created_at, COALESCE(title, ''), customer_json, monthly_total, contract_total, version
		FROM quotes
		WHERE (? = ''
			OR COALESCE(title, '') LIKE ?
			OR COALESCE(notes, '') LIKE ?
			OR COALESCE(json_extract(customer_json, '$.companyName'), '') LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]quoteListItem, 0)
	for rows.Next() {
		var item quoteListItem
		var customerJSON string
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.Title, &customerJSON, &item.MonthlyTotal, &item.ContractTotal, &item.Version); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		item.Company = extractCompanyFromJSON(customerJSON)
		quotes = append(quotes, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}

func extractCompanyFromJSON(customerJSON string) string {
	var customer struct {
		CompanyName string `json:"companyName"`
	}
	if err := json.Unmarshal([]byte(customerJSON), &customer); err != nil {
		return ""
	}
	return customer.CompanyName
}

type quoteColumns struct {
	customer        string
	setupServices   string
	monthlyServices string
	supportDevices  string
	otherLabor      string
}

func marshalQuoteColumns(calc pricing.QuoteCalculation) (quoteColumns, error) {
	var cols quoteColumns

	for _, field := range []struct {
		name string
		src  any
		dst  *string
	}{
		{"customer", calc.Customer, &cols.customer},
		{"setup services", calc.SetupServices, &cols.setupServices},
		{"monthly services", calc.MonthlyServices, &cols.monthlyServices},
		{"support devices", calc.SupportDevices, &cols.supportDevices},
		{"other labor", calc.OtherLabor, &cols.otherLabor},
	} {
		data, err := json.Marshal(field.src)
		if err != nil {
			return quoteColumns{}, fmt.Errorf("encode %s snapshot: %w", field.name, err)
		}
		*field.dst = string(data)
	}

	return cols, nil
}

// totalsChanged compares the flat totals columns, including the discount
// fields a discount apply changes without touching the line snapshots. The
// stored discount type is "none" where a fresh calculation carries "".
func totalsChanged(a, b pricing.Totals) bool {
	if discountTypeOrNone(a.DiscountType) != discountTypeOrNone(b.DiscountType) {
		return true
	}
	if (a.DiscountedTotal == nil) != (b.DiscountedTotal == nil) {
		return true
	}
	if a.DiscountedTotal != nil && *a.DiscountedTotal != *b.DiscountedTotal {
		return true
	}
	a.DiscountType, b.DiscountType = "", ""
	a.DiscountedTotal, b.DiscountedTotal = nil, nil
	return a != b
}

func discountTypeOrNone(t pricing.DiscountType) pricing.DiscountType {
	if t == "" {
		return pricing.DiscountNone
	}
	return t
}
