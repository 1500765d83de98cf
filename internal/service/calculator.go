package service

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrCalculatorInput indica parámetros fuera de rango para los cálculos.
var ErrCalculatorInput = errors.New("calculator input out of range")

const maxTenureMonths = 480

var (
	one        = decimal.NewFromInt(1)
	hundred    = decimal.NewFromInt(100)
	twelveHund = decimal.NewFromInt(1200)
)

// LoanQuote es el desglose de una cuota mensual fija (EMI).
type LoanQuote struct {
	EMI           decimal.Decimal `json:"emi"`
	TotalPayment  decimal.Decimal `json:"total_payment"`
	TotalInterest decimal.Decimal `json:"total_interest"`
}

// SIPProjection es la proyección de un plan de inversión mensual.
type SIPProjection struct {
	Invested         decimal.Decimal `json:"invested"`
	EstimatedReturns decimal.Decimal `json:"estimated_returns"`
	FutureValue      decimal.Decimal `json:"future_value"`
}

// CalculateEMI aplica la fórmula cerrada E = P·r·(1+r)^n / ((1+r)^n − 1),
// con r como tasa mensual. Tasa cero degrada a división simple.
func CalculateEMI(principal, annualRate decimal.Decimal, months int) (LoanQuote, error) {
	if err := validateCalcInput(principal, annualRate, months); err != nil {
		return LoanQuote{}, err
	}
	n := decimal.NewFromInt(int64(months))

	var emi decimal.Decimal
	if annualRate.IsZero() {
		emi = principal.Div(n)
	} else {
		r := annualRate.Div(twelveHund)
		factor := one.Add(r).Pow(n)
		emi = principal.Mul(r).Mul(factor).Div(factor.Sub(one))
	}

	emi = emi.Round(2)
	total := emi.Mul(n).Round(2)
	return LoanQuote{
		EMI:           emi,
		TotalPayment:  total,
		TotalInterest: total.Sub(principal).Round(2),
	}, nil
}

// CalculateSIP proyecta el valor futuro de un aporte mensual:
// FV = P·((1+i)^n − 1)/i·(1+i), con i como rendimiento mensual.
func CalculateSIP(monthly, annualRate decimal.Decimal, months int) (SIPProjection, error) {
	if err := validateCalcInput(monthly, annualRate, months); err != nil {
		return SIPProjection{}, err
	}
	n := decimal.NewFromInt(int64(months))
	invested := monthly.Mul(n).Round(2)

	var future decimal.Decimal
	if annualRate.IsZero() {
		future = invested
	} else {
		i := annualRate.Div(twelveHund)
		growth := one.Add(i).Pow(n)
		future = monthly.Mul(growth.Sub(one)).Div(i).Mul(one.Add(i))
	}

	future = future.Round(2)
	return SIPProjection{
		Invested:         invested,
		EstimatedReturns: future.Sub(invested).Round(2),
		FutureValue:      future,
	}, nil
}

func validateCalcInput(amount, annualRate decimal.Decimal, months int) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrCalculatorInput
	}
	if annualRate.IsNegative() || annualRate.GreaterThan(hundred) {
		return ErrCalculatorInput
	}
	if months < 1 || months > maxTenureMonths {
		return ErrCalculatorInput
	}
	return nil
}
