package main

import (
	"database/sql"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightline-it/mspquote/internal/config"
	"github.com/brightline-it/mspquote/internal/db"
	"github.com/brightline-it/mspquote/internal/halo"
	"github.com/brightline-it/mspquote/internal/migrations"
	"github.com/brightline-it/mspquote/internal/pricing"
	"github.com/brightline-it/mspquote/internal/seed"
)

type server struct {
	auth *authService
	db   *sql.DB
	halo *halo.Client
}

type baseViewData struct {
	ErrorMessage   string
	SuccessMessage string
}

type loginViewData struct {
	baseViewData
}

type laborRateRow struct {
	SkillLevel         int
	Cost               float64
	PriceBusinessHours float64
	PriceAfterHours    float64
}

type ratesViewData struct {
	baseViewData
	Rates []laborRateRow
}

type toolsViewData struct {
	baseViewData
	Tools []catalogTool
}

type quotesViewData struct {
	baseViewData
	Query  string
	Quotes []quoteListItem
}

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database, "migrations"); err != nil {
			log.Fatalf("failed to run database migrations: %v", err)
		}
	}

	stats, err := seed.Run(database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		log.Fatalf("failed to seed database: %v", err)
	}
	if stats.Inserts > 0 {
		log.Printf("seeded %d rows", stats.Inserts)
	}

	srv := &server{
		auth: newAuthService(database, cfg.SessionSecret),
		db:   database,
	}
	if cfg.HaloEnabled() {
		srv.halo = halo.NewClient(cfg.HaloBaseURL, cfg.HaloClientID, cfg.HaloClientSecret)
	}

	r := chi.NewRouter()
	r.Use(srv.authMiddleware)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	r.Get("/", srv.handleHome)
	r.Get("/login", srv.handleLoginForm)
	r.Post("/login", srv.handleLoginSubmit)
	r.Post("/logout", srv.handleLogout)
	r.Get("/quotes", srv.handleQuotesList)
	r.Get("/quotes/{id}", srv.handleQuoteDetail)
	r.Get("/quotes/{id}/text", srv.handleQuoteText)
	r.Get("/admin/rates", srv.handleAdminRatesForm)
	r.Post("/admin/rates", srv.handleAdminRatesSubmit)
	r.Get("/admin/tools", srv.handleAdminToolsForm)
	r.Post("/admin/tools/{id}", srv.handleAdminToolsUpdate)
	r.Post("/admin/halo/sync", srv.handleHaloSync)
	r.Get("/api/device-templates", srv.handleDeviceTemplates)
	r.Post("/api/quotes/calc", srv.handleQuoteCalc)
	r.Post("/api/quotes", srv.handleQuoteCreate)
	r.Get("/api/quotes/{id}", srv.handleQuoteGet)
	r.Put("/api/quotes/{id}", srv.handleQuoteUpdate)
	r.Post("/api/quotes/{id}/discount", srv.handleQuoteDiscount)

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, "home.html", baseViewData{})
}

func (s *server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if isAuthenticated(r, s.auth) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderTemplate(w, "login.html", loginViewData{})
}

func (s *server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	valid, err := s.auth.validateCredentials(email, password)
	if err != nil {
		http.Error(w, "authentication error", http.StatusInternalServerError)
		return
	}
	if !valid {
		w.WriteHeader(http.StatusUnauthorized)
		s.renderTemplate(w, "login.html", loginViewData{baseViewData: baseViewData{ErrorMessage: "Invalid credentials. Please try again."}})
		return
	}

	s.auth.setSessionCookie(w, email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	quotes, err := s.listQuotes(query)
	if err != nil {
		http.Error(w, "failed to load quotes", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "quotes.html", quotesViewData{
		Query:  query,
		Quotes: quotes,
	})
}

func (s *server) handleAdminRatesForm(w http.ResponseWriter, r *http.Request) {
	rates, err := s.listLaborRateRows()
	if err != nil {
		http.Error(w, "failed to load labor rates", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "admin_rates.html", ratesViewData{Rates: rates})
}

func (s *server) handleAdminRatesSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	rates, validationErr := parseLaborRatesForm(r)
	if validationErr != nil {
		w.WriteHeader(http.StatusBadRequest)
		s.renderTemplate(w, "admin_rates.html", ratesViewData{
			baseViewData: baseViewData{ErrorMessage: validationErr.Error()},
			Rates:        rates,
		})
		return
	}

	if err := s.updateLaborRates(rates); err != nil {
		http.Error(w, "failed to save labor rates", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "admin_rates.html", ratesViewData{
		baseViewData: baseViewData{SuccessMessage: "Labor rates saved."},
		Rates:        rates,
	})
}

func (s *server) handleAdminToolsForm(w http.ResponseWriter, r *http.Request) {
	tools, err := s.listCatalogTools()
	if err != nil {
		http.Error(w, "failed to load tool catalog", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "admin_tools.html", toolsViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Tools: tools,
	})
}

func (s *server) handleAdminToolsUpdate(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		http.Error(w, "invalid tool id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	tool, err := parseCatalogToolForm(r)
	if err != nil {
		http.Redirect(w, r, "/admin/tools?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	result, err := s.db.Exec(`
		UPDATE tool_catalog
		SET
			name = ?,
			cost_per_node_unit = ?,
			cost_per_customer = ?,
			price_per_node_unit = ?,
			count_fields = ?,
			is_optional = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, tool.Name, tool.CostPerNodeUnit, tool.CostPerCustomer, tool.PricePerNodeUnit, tool.CountFields, tool.IsOptional, id)
	if err != nil {
		http.Error(w, "failed to update tool", http.StatusInternalServerError)
		return
	}

	affected, err := result.RowsAffected()
	if err != nil {
		http.Error(w, "failed to update tool", http.StatusInternalServerError)
		return
	}
	if affected == 0 {
		http.NotFound(w, r)
		return
	}

	http.Redirect(w, r, "/admin/tools?success=Tool+saved", http.StatusSeeOther)
}

func (s *server) handleHaloSync(w http.ResponseWriter, r *http.Request) {
	if s.halo == nil {
		http.Redirect(w, r, "/admin/rates?error="+url.QueryEscape("HaloPSA sync is not configured"), http.StatusSeeOther)
		return
	}

	stats, err := s.halo.Sync(r.Context(), s.db)
	if err != nil {
		log.Printf("halo sync failed: %v", err)
		http.Redirect(w, r, "/admin/rates?error="+url.QueryEscape("sync failed: "+err.Error()), http.StatusSeeOther)
		return
	}

	msg := fmt.Sprintf("Synced %d labor rates and %d device templates", stats.LaborRates, stats.DeviceTemplates)
	http.Redirect(w, r, "/admin/rates?success="+url.QueryEscape(msg), http.StatusSeeOther)
}

func (s *server) listLaborRateRows() ([]laborRateRow, error) {
	rows, err := s.db.Query(`
		SELECT skill_level, cost, price_business, price_after_hours
		FROM labor_rates
		ORDER BY skill_level
	`)
	if err != nil {
		return nil, fmt.Errorf("query labor rates: %w", err)
	}
	defer rows.Close()

	rates := make([]laborRateRow, 0, 3)
	for rows.Next() {
		var row laborRateRow
		if err := rows.Scan(&row.SkillLevel, &row.Cost, &row.PriceBusinessHours, &row.PriceAfterHours); err != nil {
			return nil, fmt.Errorf("scan labor rate: %w", err)
		}
		rates = append(rates, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labor rates: %w", err)
	}

	return rates, nil
}

func (s *server) updateLaborRates(rates []laborRateRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin rate update: %w", err)
	}

	for _, row := range rates {
		_, err := tx.Exec(`
			UPDATE labor_rates
			SET
				cost = ?,
				price_business = ?,
				price_after_hours = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE skill_level = ?
		`, row.Cost, row.PriceBusinessHours, row.PriceAfterHours, row.SkillLevel)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update labor rate %d: %w", row.SkillLevel, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rate update: %w", err)
	}

	return nil
}

func parseLaborRatesForm(r *http.Request) ([]laborRateRow, error) {
	rates := make([]laborRateRow, 0, 3)
	for level := 1; level <= 3; level++ {
		row := laborRateRow{SkillLevel: level}

		var err error
		suffix := strconv.Itoa(level)
		if row.Cost, err = parseNonNegativeFloat(r.FormValue("cost_"+suffix), "cost_"+suffix); err != nil {
			return rates, err
		}
		if row.PriceBusinessHours, err = parseNonNegativeFloat(r.FormValue("price_business_"+suffix), "price_business_"+suffix); err != nil {
			return rates, err
		}
		if row.PriceAfterHours, err = parseNonNegativeFloat(r.FormValue("price_after_hours_"+suffix), "price_after_hours_"+suffix); err != nil {
			return rates, err
		}

		rates = append(rates, row)
	}
	return rates, nil
}

func parseCatalogToolForm(r *http.Request) (catalogTool, error) {
	tool := catalogTool{
		Name:        strings.TrimSpace(r.FormValue("name")),
		CountFields: strings.TrimSpace(r.FormValue("count_fields")),
		IsOptional:  r.FormValue("is_optional") == "1",
	}

	if tool.Name == "" {
		return tool, fmt.Errorf("name is required")
	}
	for _, field := range pricing.SplitCountFields(tool.CountFields) {
		if !pricing.ValidCountField(field) {
			return tool, fmt.Errorf("unknown count field %q", field)
		}
	}

	var err error
	if tool.CostPerNodeUnit, err = parseOptionalFloat(r.FormValue("cost_per_node_unit"), "cost_per_node_unit"); err != nil {
		return tool, err
	}
	if tool.CostPerCustomer, err = parseOptionalFloat(r.FormValue("cost_per_customer"), "cost_per_customer"); err != nil {
		return tool, err
	}
	if tool.PricePerNodeUnit, err = parseNonNegativeFloat(r.FormValue("price_per_node_unit"), "price_per_node_unit"); err != nil {
		return tool, err
	}

	return tool, nil
}

func parseNonNegativeFloat(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be numeric", field)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must be zero or greater", field)
	}
	return value, nil
}

// parseOptionalFloat treats a blank field as "not set" so per-unit and flat
// cost columns can stay NULL.
func parseOptionalFloat(raw, field string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := parseNonNegativeFloat(raw, field)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (s *server) renderTemplate(w http.ResponseWriter, page string, data any) {
	templates, err := template.ParseFiles(
		"web/templates/layout.html",
		"web/templates/"+page,
	)
	if err != nil {
		http.Error(w, "failed to parse template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "layout.html", data); err != nil {
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" || r.URL.Path == "/static" || strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		if !isAuthenticated(r, s.auth) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isAuthenticated(r *http.Request, auth *authService) bool {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return false
	}

	_, ok := auth.verifySessionValue(cookie.Value)
	return ok
}
