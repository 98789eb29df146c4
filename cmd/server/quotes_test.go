package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/brightline-it/mspquote/internal/pricing"
)

func quoteRequestBody(t *testing.T, req quoteRequest) *bytes.Reader {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return bytes.NewReader(body)
}

func withQuoteID(r *http.Request, id int64) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", strconv.FormatInt(id, 10))
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func calcFixtureRequest() quoteRequest {
	return quoteRequest{
		Title: "Acme managed services",
		Input: pricing.Input{
			Customer: pricing.CustomerInfo{
				CompanyName:    "Acme Co",
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
		},
	}
}

func TestHandleQuoteCalcComputesTotals(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}

	req := httptest.NewRequest(http.MethodPost, "/api/quotes/calc", quoteRequestBody(t, calcFixtureRequest()))
	rr := httptest.NewRecorder()
	srv.handleQuoteCalc(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp quoteResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// tools 10x10 plus 5 monthly L1 business hours at 155
	if resp.MonthlyTotal != 875 {
		t.Fatalf("expected monthly total 875, got %v", resp.MonthlyTotal)
	}
	if resp.ContractTotal != 875*12 {
		t.Fatalf("expected contract total %v, got %v", 875.0*12, resp.ContractTotal)
	}
	if resp.EstimatedCost != 875*0.35 {
		t.Fatalf("expected estimated cost %v, got %v", 875*0.35, resp.EstimatedCost)
	}
	if resp.DiscountedTotal != nil {
		t.Fatalf("expected no discount on plain calc, got %v", *resp.DiscountedTotal)
	}
}

func TestHandleQuoteCalcAppliesDiscount(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}

	reqBody := calcFixtureRequest()
	reqBody.DiscountType = pricing.DiscountPercentage
	reqBody.DiscountValue = 10

	req := httptest.NewRequest(http.MethodPost, "/api/quotes/calc", quoteRequestBody(t, reqBody))
	rr := httptest.NewRecorder()
	srv.handleQuoteCalc(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp quoteResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.DiscountedTotal == nil || *resp.DiscountedTotal != 787.5 {
		t.Fatalf("expected discounted total 787.5, got %+v", resp.DiscountedTotal)
	}
	if resp.MonthlyTotal != 875 {
		t.Fatalf("expected original monthly total preserved, got %v", resp.MonthlyTotal)
	}
	if resp.ContractTotal != 787.5*12 {
		t.Fatalf("expected contract total rebased on discount, got %v", resp.ContractTotal)
	}
}

func TestHandleQuoteCalcRejectsUnknownDiscountType(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}

	reqBody := calcFixtureRequest()
	reqBody.DiscountType = "half_off"

	req := httptest.NewRequest(http.MethodPost, "/api/quotes/calc", quoteRequestBody(t, reqBody))
	rr := httptest.NewRecorder()
	srv.handleQuoteCalc(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleQuoteCreateAndGet(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}

	req := httptest.NewRequest(http.MethodPost, "/api/quotes", quoteRequestBody(t, calcFixtureRequest()))
	rr := httptest.NewRecorder()
	srv.handleQuoteCreate(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created quoteResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == 0 || created.PublicToken == "" || created.Version != 1 {
		t.Fatalf("unexpected created quote: %+v", created)
	}

	getReq := withQuoteID(httptest.NewRequest(http.MethodGet, "/api/quotes/1", nil), created.ID)
	getRR := httptest.NewRecorder()
	srv.handleQuoteGet(getRR, getReq)

	if getRR.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", getRR.Code)
	}

	var got quoteResponse
	if err := json.NewDecoder(getRR.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Customer.CompanyName != "Acme Co" || got.MonthlyTotal != 875 {
		t.Fatalf("unexpected stored quote: company=%q monthly=%v", got.Customer.CompanyName, got.MonthlyTotal)
	}
}

func TestHandleQuoteGetNotFound(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}

	req := withQuoteID(httptest.NewRequest(http.MethodGet, "/api/quotes/9999", nil), 9999)
	rr := httptest.NewRecorder()
	srv.handleQuoteGet(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleQuoteDiscountUpdatesStoredSnapshot(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}
	rec, err := srv.insertQuote("Acme", "draft", testCalc(t, srv, "Acme Co"))
	if err != nil {
		t.Fatalf("insertQuote returned error: %v", err)
	}

	body := strings.NewReader(`{"discountType":"percentage","discountValue":10}`)
	req := withQuoteID(httptest.NewRequest(http.MethodPost, "/api/quotes/1/discount", body), rec.ID)
	rr := httptest.NewRecorder()
	srv.handleQuoteDiscount(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp quoteResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.DiscountedTotal == nil || *resp.DiscountedTotal != 787.5 {
		t.Fatalf("expected discounted total 787.5, got %+v", resp.DiscountedTotal)
	}
	if resp.DiscountType != pricing.DiscountPercentage || resp.DiscountValue != 10 {
		t.Fatalf("expected discount fields persisted, got %s %v", resp.DiscountType, resp.DiscountValue)
	}
	if resp.Version != 2 {
		t.Fatalf("expected version bump after discount, got %d", resp.Version)
	}
}

func TestHandleQuoteTextReturnsPlainText(t *testing.T) {
	srv := &server{db: newServerTestDB(t)}
	rec, err := srv.insertQuote("Acme managed services", "send by Friday", testCalc(t, srv, "Acme Co"))
	if err != nil {
		t.Fatalf("insertQuote returned error: %v", err)
	}

	req := withQuoteID(httptest.NewRequest(http.MethodGet, "/quotes/1/text", nil), rec.ID)
	rr := httptest.NewRecorder()
	srv.handleQuoteText(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", rr.Header().Get("Content-Type"))
	}

	body := rr.Body.String()
	for _, expected := range []string{"Quote: Acme managed services (v1)", "Company: Acme Co", "Monthly total: 875.00", "Contract total: 10500.00"} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, body)
		}
	}
}
