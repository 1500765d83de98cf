package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newCalculatorRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	registerValidatorsOnce.Do(RegisterValidators)
	r := gin.New()
	h := NewCalculatorHandler(zap.NewNop())
	r.POST("/api/calculators/emi", h.EMI)
	r.POST("/api/calculators/sip", h.SIP)
	return r
}

func TestEMIHandler(t *testing.T) {
	r := newCalculatorRouter()

	rec := performRequest(r, http.MethodPost, "/api/calculators/emi", map[string]any{
		"amount": 100000, "annualRate": 12, "tenureMonths": 12,
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			EMI           string `json:"emi"`
			TotalPayment  string `json:"total_payment"`
			TotalInterest string `json:"total_interest"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.EMI != "8884.88" {
		t.Fatalf("expected emi 8884.88, got %q", resp.Data.EMI)
	}
	if resp.Data.TotalPayment != "106618.56" || resp.Data.TotalInterest != "6618.56" {
		t.Fatalf("unexpected totals %+v", resp.Data)
	}
}

func TestEMIHandler_Validation(t *testing.T) {
	r := newCalculatorRouter()

	cases := []map[string]any{
		{"amount": 0, "annualRate": 12, "tenureMonths": 12},
		{"amount": 100000, "annualRate": 101, "tenureMonths": 12},
		{"amount": 100000, "annualRate": 12, "tenureMonths": 0},
		{"amount": 100000, "annualRate": 12, "tenureMonths": 481},
	}
	for i, body := range cases {
		rec := performRequest(r, http.MethodPost, "/api/calculators/emi", body, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, rec.Code)
		}
	}
}

func TestSIPHandler(t *testing.T) {
	r := newCalculatorRouter()

	rec := performRequest(r, http.MethodPost, "/api/calculators/sip", map[string]any{
		"monthlyAmount": 1000, "annualRate": 12, "tenureMonths": 12,
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			Invested         string `json:"invested"`
			EstimatedReturns string `json:"estimated_returns"`
			FutureValue      string `json:"future_value"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.FutureValue != "12809.33" {
		t.Fatalf("expected future value 12809.33, got %q", resp.Data.FutureValue)
	}
	if resp.Data.Invested != "12000" || resp.Data.EstimatedReturns != "809.33" {
		t.Fatalf("unexpected projection %+v", resp.Data)
	}
}

func TestSIPHandler_Validation(t *testing.T) {
	r := newCalculatorRouter()

	rec := performRequest(r, http.MethodPost, "/api/calculators/sip", map[string]any{
		"monthlyAmount": -5, "annualRate": 12, "tenureMonths": 12,
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
