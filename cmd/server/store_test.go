package main

import (
	"database/sql"
	"testing"

	"github.com/brightline-it/mspquote/internal/db"
	"github.com/brightline-it/mspquote/internal/migrations"
	"github.com/brightline-it/mspquote/internal/pricing"
	"github.com/brightline-it/mspquote/internal/seed"
)

func newServerTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	if err := migrations.Up(database, "../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if _, err := seed.Run(database, seed.Config{AdminEmail: "admin@example.com", AdminPassword: "secret"}); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	t.Cleanup(func() { _ = database.Close() })
	return database
}

func testCalc(t *testing.T, srv *server, company string) pricing.QuoteCalculation {
	t.Helper()

	in := pricing.Input{
		Customer: pricing.CustomerInfo{
			CompanyName:    company,
			ContractMonths: 12,
			ContractType:   "managed",
			Users:          pricing.Users{Full: 10},
		},
		Tools: []pricing.VariableCostTool{
			{ID: "custom-backup", Name: "Backup", IsActive: true, NodesUnitsSupported: 10, PricePerNodeUnit: 10},
		},
		OtherLabor: pricing.OtherLaborData{
			MonthlyServices: []pricing.MonthlyLaborService{
				{ID: "vcio", Name: "vCIO", IsActive: true, HoursPerMonth: 5, SkillLevel: 1, Factor2: pricing.FactorBusiness},
			},
		},
	}

	calc, err := srv.computeQuote(in, "", 0)
	if err != nil {
		t.Fatalf("computeQuote returned error: %v", err)
	}
	return calc
}

func TestLoadLaborRatesMatchesSeed(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}

	rates, err := srv.loadLaborRates()
	if err != nil {
		t.Fatalf("loadLaborRates returned error: %v", err)
	}

	if len(rates) != 3 {
		t.Fatalf("expected 3 skill levels, got %d", len(rates))
	}
	l2 := rates[2]
	if l2.Cost != 37 || l2.PriceBusinessHours != 185 || l2.PriceAfterHours != 275 {
		t.Fatalf("unexpected level 2 rate: %+v", l2)
	}
}

func TestLoadHoursTableDerivesSeededRules(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}

	hours, err := srv.loadHoursTable()
	if err != nil {
		t.Fatalf("loadHoursTable returned error: %v", err)
	}

	customer := pricing.CustomerInfo{
		Users:          pricing.Users{Full: 10, EmailOnly: 5},
		Infrastructure: pricing.Infrastructure{Workstations: 20},
	}
	if got := hours.Hours(pricing.WorkstationSetupID, true, customer); got != 10 {
		t.Fatalf("expected 10 workstation hours, got %v", got)
	}
	if got := hours.Hours(pricing.EmailMigrationID, true, customer); got != 11.25 {
		t.Fatalf("expected 11.25 migration hours, got %v", got)
	}
}

func TestLoadQuantityTableMarksOptionalTools(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}

	quantities, err := srv.loadQuantityTable()
	if err != nil {
		t.Fatalf("loadQuantityTable returned error: %v", err)
	}

	customer := pricing.CustomerInfo{Infrastructure: pricing.Infrastructure{Workstations: 7}}
	if qty, auto := quantities.Quantity("3433", customer); !auto || qty != 7 {
		t.Fatalf("expected auto quantity 7 for 3433, got %d auto=%v", qty, auto)
	}
	if _, auto := quantities.Quantity("3519", customer); auto {
		t.Fatalf("expected optional tool 3519 to stay manual")
	}
}

func TestListDeviceTemplatesReadsSeed(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}

	templates, err := srv.listDeviceTemplates()
	if err != nil {
		t.Fatalf("listDeviceTemplates returned error: %v", err)
	}
	if len(templates) != 4 {
		t.Fatalf("expected 4 seeded templates, got %d", len(templates))
	}

	var workstation *deviceTemplate
	for i := range templates {
		if templates[i].ID == "workstation" {
			workstation = &templates[i]
		}
	}
	if workstation == nil {
		t.Fatalf("expected a workstation template, got %+v", templates)
	}
	if workstation.SkillLevel != 1 || workstation.Hours.Categories()[0].Total() == 0 {
		t.Fatalf("unexpected workstation template: %+v", workstation)
	}
}

func TestInsertAndGetQuoteRoundTrip(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}
	calc := testCalc(t, srv, "Acme Co")

	rec, err := srv.insertQuote("Acme managed services", "initial draft", calc)
	if err != nil {
		t.Fatalf("insertQuote returned error: %v", err)
	}
	if rec.ID == 0 || rec.PublicToken == "" || rec.Version != 1 {
		t.Fatalf("unexpected inserted record: %+v", rec)
	}

	got, err := srv.getQuote(rec.ID)
	if err != nil {
		t.Fatalf("getQuote returned error: %v", err)
	}

	if got.Calc.Customer.CompanyName != "Acme Co" {
		t.Fatalf("expected stored company name, got %q", got.Calc.Customer.CompanyName)
	}
	if got.Calc.Totals.MonthlyTotal != calc.Totals.MonthlyTotal {
		t.Fatalf("expected monthly total %v, got %v", calc.Totals.MonthlyTotal, got.Calc.Totals.MonthlyTotal)
	}
	if len(got.Calc.MonthlyServices) != 1 || got.Calc.MonthlyServices[0].ExtendedPrice != 100 {
		t.Fatalf("expected tool snapshot to survive round trip: %+v", got.Calc.MonthlyServices)
	}
}

func TestGetQuoteNotFound(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}

	if _, err := srv.getQuote(9999); err != errQuoteNotFound {
		t.Fatalf("expected errQuoteNotFound, got %v", err)
	}
}

func TestUpdateQuoteBumpsVersionOnContentChange(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}
	calc := testCalc(t, srv, "Acme Co")

	rec, err := srv.insertQuote("Acme", "draft", calc)
	if err != nil {
		t.Fatalf("insertQuote returned error: %v", err)
	}

	changed := calc
	changed.Customer.Users.Full = 20
	updated, err := srv.updateQuote(rec.ID, "Acme", "draft", changed)
	if err != nil {
		t.Fatalf("updateQuote returned error: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2 after content change, got %d", updated.Version)
	}
}

func TestUpdateQuoteDiscountOnlyBumpsVersion(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}
	calc := testCalc(t, srv, "Acme Co")

	rec, err := srv.insertQuote("Acme", "draft", calc)
	if err != nil {
		t.Fatalf("insertQuote returned error: %v", err)
	}

	// A discount changes only the totals; the line snapshots stay identical.
	discounted := pricing.WithDiscount(rec.Calc, rec.Calc.Customer.Users.Full, pricing.DiscountPercentage, 10)
	updated, err := srv.updateQuote(rec.ID, rec.Title, rec.Notes, discounted)
	if err != nil {
		t.Fatalf("updateQuote returned error: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2 after discount change, got %d", updated.Version)
	}

	// Saving the same discounted totals again keeps the version.
	again, err := srv.updateQuote(rec.ID, rec.Title, rec.Notes, updated.Calc)
	if err != nil {
		t.Fatalf("updateQuote returned error: %v", err)
	}
	if again.Version != 2 {
		t.Fatalf("expected unchanged discount to keep version 2, got %d", again.Version)
	}
}

func TestUpdateQuoteNotesOnlyKeepsVersion(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}
	calc := testCalc(t, srv, "Acme Co")

	rec, err := srv.insertQuote("Acme", "draft", calc)
	if err != nil {
		t.Fatalf("insertQuote returned error: %v", err)
	}

	updated, err := srv.updateQuote(rec.ID, "Acme", "revised notes", calc)
	if err != nil {
		t.Fatalf("updateQuote returned error: %v", err)
	}
	if updated.Version != 1 {
		t.Fatalf("expected notes-only update to keep version 1, got %d", updated.Version)
	}
	if updated.Notes != "revised notes" {
		t.Fatalf("expected notes to be saved, got %q", updated.Notes)
	}
}

func TestListQuotesOrdersByDateDescAndSearches(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}

	first, err := srv.insertQuote("First", "alpha notes", testCalc(t, srv, "Acme Co"))
	if err != nil {
		t.Fatalf("insertQuote returned error: %v", err)
	}
	second, err := srv.insertQuote("Second", "beta notes", testCalc(t, srv, "Globex"))
	if err != nil {
		t.Fatalf("insertQuote returned error: %v", err)
	}

	setQuoteCreatedAt(t, srv.db, first.ID, "2026-01-01 10:00:00")
	setQuoteCreatedAt(t, srv.db, second.ID, "2026-01-02 10:00:00")

	quotes, err := srv.listQuotes("")
	if err != nil {
		t.Fatalf("listQuotes returned error: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}
	if quotes[0].Title != "Second" || quotes[1].Title != "First" {
		t.Fatalf("quotes are not sorted desc by created_at: %+v", quotes)
	}
	if quotes[0].Company != "Globex" {
		t.Fatalf("expected company extracted from snapshot, got %q", quotes[0].Company)
	}

	byNotes, err := srv.listQuotes("alpha")
	if err != nil {
		t.Fatalf("listQuotes notes filter returned error: %v", err)
	}
	if len(byNotes) != 1 || byNotes[0].Title != "First" {
		t.Fatalf("expected 1 quote filtered by notes, got %+v", byNotes)
	}

	byCompany, err := srv.listQuotes("Globex")
	if err != nil {
		t.Fatalf("listQuotes company filter returned error: %v", err)
	}
	if len(byCompany) != 1 || byCompany[0].Title != "Second" {
		t.Fatalf("expected 1 quote filtered by company, got %+v", byCompany)
	}

	// Field names inside the customer snapshot must not match.
	byJSONKey, err := srv.listQuotes("companyName")
	if err != nil {
		t.Fatalf("listQuotes key filter returned error: %v", err)
	}
	if len(byJSONKey) != 0 {
		t.Fatalf("expected snapshot key to match nothing, got %+v", byJSONKey)
	}
}

func setQuoteCreatedAt(t *testing.T, database *sql.DB, id int64, createdAt string) {
	t.Helper()

	if _, err := database.Exec(`UPDATE quotes SET created_at = ? WHERE id = ?`, createdAt, id); err != nil {
		t.Fatalf("failed to set created_at: %v", err)
	}
}
