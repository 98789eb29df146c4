package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightline-it/mspquote/internal/pricing"
)

// quoteRequest is the JSON body for calculate and save operations. The
// quote inputs are deeply nested, so they travel as JSON rather than form
// fields.
type quoteRequest struct {
	Title string `json:"title"`
	Notes string `json:"notes"`
	pricing.Input
	DiscountType  pricing.DiscountType `json:"discountType"`
	DiscountValue float64              `json:"discountValue"`
}

// quoteResponse is the persisted record shape. The totals are exposed both
// nested and flat; the flat names match what older saved quotes carried.
type quoteResponse struct {
	ID          int64  `json:"id,omitempty"`
	PublicToken string `json:"publicToken,omitempty"`
	Title       string `json:"title,omitempty"`
	Notes       string `json:"notes,omitempty"`
	pricing.QuoteCalculation
	MonthlyTotal    float64              `json:"monthlyTotal"`
	SetupCosts      float64              `json:"setupCosts"`
	ContractTotal   float64              `json:"contractTotal"`
	DiscountType    pricing.DiscountType `json:"discountType"`
	DiscountValue   float64              `json:"discountValue"`
	DiscountedTotal *float64             `json:"discountedTotal,omitempty"`
	Version         int                  `json:"version,omitempty"`
	CreatedAt       string               `json:"createdAt,omitempty"`
	UpdatedAt       string               `json:"updatedAt,omitempty"`
}

// DiscountedMonthly dereferences the optional discounted total for template
// rendering.
func (q quoteResponse) DiscountedMonthly() float64 {
	if q.DiscountedTotal == nil {
		return 0
	}
	return *q.DiscountedTotal
}

func calcResponse(calc pricing.QuoteCalculation) quoteResponse {
	return quoteResponse{
		QuoteCalculation: calc,
		MonthlyTotal:     calc.Totals.MonthlyTotal,
		SetupCosts:       calc.Totals.SetupCosts,
		ContractTotal:    calc.Totals.ContractTotal,
		DiscountType:     discountTypeOrNone(calc.Totals.DiscountType),
		DiscountValue:    calc.Totals.DiscountValue,
		DiscountedTotal:  calc.Totals.DiscountedTotal,
	}
}

func recordResponse(rec quoteRecord) quoteResponse {
	resp := calcResponse(rec.Calc)
	resp.ID = rec.ID
	resp.PublicToken = rec.PublicToken
	resp.Title = rec.Title
	resp.Notes = rec.Notes
	resp.Version = rec.Version
	resp.CreatedAt = rec.CreatedAt
	resp.UpdatedAt = rec.UpdatedAt
	return resp
}

// computeQuote runs the engine against the current rate tables: quantities
// are auto-derived, the quote is fully recomputed from the input snapshot,
// and an optional discount is applied on top.
func (s *server) computeQuote(in pricing.Input, discountType pricing.DiscountType, discountValue float64) (pricing.QuoteCalculation, error) {
	rates, err := s.loadLaborRates()
	if err != nil {
		return pricing.QuoteCalculation{}, err
	}
	hours, err := s.loadHoursTable()
	if err != nil {
		return pricing.QuoteCalculation{}, err
	}
	quantities, err := s.loadQuantityTable()
	if err != nil {
		return pricing.QuoteCalculation{}, err
	}

	in.Tools = pricing.ApplyAutoQuantities(in.Tools, in.Customer, quantities)
	calc := pricing.Calculate(in, rates, hours)

	if discountType != "" && discountType != pricing.DiscountNone {
		if !pricing.ValidDiscountType(discountType) {
			return pricing.QuoteCalculation{}, fmt.Errorf("unknown discount type %q", discountType)
		}
		calc = pricing.WithDiscount(calc, in.Customer.Users.Full, discountType, discountValue)
	}

	return calc, nil
}

func (s *server) handleQuoteCalc(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid quote payload")
		return
	}

	calc, err := s.computeQuote(req.Input, req.DiscountType, req.DiscountValue)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, calcResponse(calc))
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid quote payload")
		return
	}

	calc, err := s.computeQuote(req.Input, req.DiscountType, req.DiscountValue)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.insertQuote(strings.TrimSpace(req.Title), strings.TrimSpace(req.Notes), calc)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to save quote")
		return
	}

	writeJSON(w, http.StatusCreated, recordResponse(rec))
}

func (s *server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteIDParam(w, r)
	if !ok {
		return
	}

	rec, err := s.getQuote(id)
	if errors.Is(err, errQuoteNotFound) {
		writeJSONError(w, http.StatusNotFound, "quote not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load quote")
		return
	}

	writeJSON(w, http.StatusOK, recordResponse(rec))
}

func (s *server) handleQuoteUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteIDParam(w, r)
	if !ok {
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid quote payload")
		return
	}

	calc, err := s.computeQuote(req.Input, req.DiscountType, req.DiscountValue)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.updateQuote(id, strings.TrimSpace(req.Title), strings.TrimSpace(req.Notes), calc)
	if errors.Is(err, errQuoteNotFound) {
		writeJSONError(w, http.StatusNotFound, "quote not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to update quote")
		return
	}

	writeJSON(w, http.StatusOK, recordResponse(rec))
}

type discountRequest struct {
	DiscountType  pricing.DiscountType `json:"discountType"`
	DiscountValue float64              `json:"discountValue"`
}

// handleQuoteDiscount applies a discount to the stored snapshot without
// recomputing the underlying lines.
func (s *server) handleQuoteDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteIDParam(w, r)
	if !ok {
		return
	}

	var req discountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid discount payload")
		return
	}
	if !pricing.ValidDiscountType(req.DiscountType) {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown discount type %q", req.DiscountType))
		return
	}

	rec, err := s.getQuote(id)
	if errors.Is(err, errQuoteNotFound) {
		writeJSONError(w, http.StatusNotFound, "quote not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load quote")
		return
	}

	discounted := pricing.WithDiscount(rec.Calc, rec.Calc.Customer.Users.Full, req.DiscountType, req.DiscountValue)

	updated, err := s.updateQuote(id, rec.Title, rec.Notes, discounted)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to save discount")
		return
	}

	writeJSON(w, http.StatusOK, recordResponse(updated))
}

type quoteDetailViewData struct {
	baseViewData
	Quote quoteResponse
}

func (s *server) handleQuoteDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteIDParam(w, r)
	if !ok {
		return
	}

	rec, err := s.getQuote(id)
	if errors.Is(err, errQuoteNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to load quote", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "quote_detail.html", quoteDetailViewData{Quote: recordResponse(rec)})
}

// handleQuoteText renders the stored snapshot as a plain-text summary
// suitable for pasting into an email.
func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteIDParam(w, r)
	if !ok {
		return
	}

	rec, err := s.getQuote(id)
	if errors.Is(err, errQuoteNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to load quote", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(formatQuoteText(rec)))
}

func formatQuoteText(rec quoteRecord) string {
	var b strings.Builder
	t := rec.Calc.Totals

	fmt.Fprintf(&b, "Quote: %s (v%d)\n", rec.Title, rec.Version)
	fmt.Fprintf(&b, "Company: %s\n", rec.Calc.Customer.CompanyName)
	fmt.Fprintf(&b, "Contract: %s, %d months\n\n", rec.Calc.Customer.ContractType, rec.Calc.Customer.ContractMonths)

	fmt.Fprintf(&b, "Setup services: %.2f\n", t.SetupCosts)
	fmt.Fprintf(&b, "Upfront payment: %.2f\n", t.UpfrontPayment)
	fmt.Fprintf(&b, "Deferred setup (monthly): %.2f\n\n", t.DeferredSetupMonthly)

	fmt.Fprintf(&b, "Tools & software: %.2f\n", t.ToolsSoftware)
	fmt.Fprintf(&b, "Support labor: %.2f\n", t.SupportLabor)
	fmt.Fprintf(&b, "Other labor: %.2f\n", t.OtherLabor)
	fmt.Fprintf(&b, "Monthly total: %.2f\n", t.MonthlyTotal)

	if t.DiscountedTotal != nil {
		fmt.Fprintf(&b, "Discounted monthly total: %.2f (%s)\n", *t.DiscountedTotal, t.DiscountType)
	}

	fmt.Fprintf(&b, "Contract total: %.2f\n", t.ContractTotal)

	return b.String()
}

// handleDeviceTemplates lists the support-device presets for the quote
// builder.
func (s *server) handleDeviceTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.listDeviceTemplates()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load device templates")
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func quoteIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
