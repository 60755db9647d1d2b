package arb

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func doCheck(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	NewHandler(nil).Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/arb-check", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCheckEndpoint_Opportunity(t *testing.T) {
	t.Parallel()

	rec := doCheck(t, `{
		"book1": {"name": "Alpha", "outcome1": 2.10, "outcome2": 1.80},
		"book2": {"name": "Beta", "outcome1": 1.90, "outcome2": 2.20},
		"investment": 1000,
		"preferredBook": "Alpha",
		"usualStake": 500
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var res checkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Found || res.Plan == nil {
		t.Fatalf("expected opportunity with plan: %+v", res)
	}
	if res.Plan.Legs[0].Book != "Alpha" {
		t.Fatalf("plan must anchor on the preferred book: %+v", res.Plan)
	}
}

func TestCheckEndpoint_NoOpportunityOmitsPlan(t *testing.T) {
	t.Parallel()

	rec := doCheck(t, `{
		"book1": {"name": "Alpha", "outcome1": 1.90, "outcome2": 1.90},
		"book2": {"name": "Beta", "outcome1": 1.85, "outcome2": 1.95},
		"investment": 1000,
		"preferredBook": "Alpha",
		"usualStake": 500
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var res checkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Found || res.Plan != nil {
		t.Fatalf("no-margin response must omit the plan: %+v", res)
	}
}

func TestCheckEndpoint_Validation(t *testing.T) {
	t.Parallel()

	if rec := doCheck(t, `{"book1":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON: status = %d", rec.Code)
	}
	rec := doCheck(t, `{
		"book1": {"name": "Alpha", "outcome1": 1.0, "outcome2": 2.0},
		"book2": {"name": "Beta", "outcome1": 2.0, "outcome2": 2.0},
		"investment": 1000
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid odds: status = %d", rec.Code)
	}
}
