package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/service"
)

// CalculatorHandler expone los cálculos cerrados de EMI y SIP.
type CalculatorHandler struct {
	logger *zap.Logger
}

func NewCalculatorHandler(logger *zap.Logger) *CalculatorHandler {
	return &CalculatorHandler{logger: logger}
}

// EMI maneja POST /api/calculators/emi.
func (h *CalculatorHandler) EMI(c *gin.Context) {
	var req struct {
		Amount       float64 `json:"amount" binding:"required,gt=0"`
		AnnualRate   float64 `json:"annualRate" binding:"gte=0,lte=100"`
		TenureMonths int     `json:"tenureMonths" binding:"required,gte=1,lte=480"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request", CodeValidation, bindingErrors(err)...)
		return
	}

	quote, err := service.CalculateEMI(
		decimal.NewFromFloat(req.Amount),
		decimal.NewFromFloat(req.AnnualRate),
		req.TenureMonths,
	)
	if err != nil {
		if errors.Is(err, service.ErrCalculatorInput) {
			respondError(c, http.StatusBadRequest, "calculator input out of range", CodeValidation)
			return
		}
		h.logger.Error("emi calculation failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not calculate", CodeInternal)
		return
	}
	respondOK(c, http.StatusOK, "emi calculated", quote)
}

// SIP maneja POST /api/calculators/sip.
func (h *CalculatorHandler) SIP(c *gin.Context) {
	var req struct {
		MonthlyAmount float64 `json:"monthlyAmount" binding:"required,gt=0"`
		AnnualRate    float64 `json:"annualRate" binding:"gte=0,lte=100"`
		TenureMonths  int     `json:"tenureMonths" binding:"required,gte=1,lte=480"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request", CodeValidation, bindingErrors(err)...)
		return
	}

	projection, err := service.CalculateSIP(
		decimal.NewFromFloat(req.MonthlyAmount),
		decimal.NewFromFloat(req.AnnualRate),
		req.TenureMonths,
	)
	if err != nil {
		if errors.Is(err, service.ErrCalculatorInput) {
			respondError(c, http.StatusBadRequest, "calculator input out of range", CodeValidation)
			return
		}
		h.logger.Error("sip calculation failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not calculate", CodeInternal)
		return
	}
	respondOK(c, http.StatusOK, "sip calculated", projection)
}
