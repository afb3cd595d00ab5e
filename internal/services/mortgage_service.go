package services

import (
	"errors"

	"github.com/partnerclub/booking-service/internal/dtos"
	"github.com/shopspring/decimal"
)

var ErrInvalidMortgageInput = errors.New("invalid_mortgage_input")

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// MortgageService computes annuity schedules for the in-app calculator.
// Pure arithmetic, nothing persisted.
type MortgageService struct{}

func NewMortgageService() *MortgageService {
	return &MortgageService{}
}

func (s *MortgageService) Calculate(req dtos.MortgageCalcRequest) (*dtos.MortgageCalcResponse, error) {
	if req.DownPayment >= req.Price {
		return nil, ErrInvalidMortgageInput
	}

	loan := decimal.NewFromInt(req.Price - req.DownPayment)
	months := req.TermYears * 12
	n := decimal.NewFromInt(int64(months))

	var monthly decimal.Decimal
	monthlyRate := decimal.NewFromFloat(req.AnnualRatePct).Div(twelve).Div(hundred)
	if monthlyRate.IsZero() {
		monthly = loan.Div(n).Round(2)
	} else {
		// annuity: P * r * (1+r)^n / ((1+r)^n - 1)
		growth := decimal.NewFromInt(1).Add(monthlyRate).Pow(n)
		monthly = loan.Mul(monthlyRate).Mul(growth).
			Div(growth.Sub(decimal.NewFromInt(1))).Round(2)
	}

	total := monthly.Mul(n)
	resp := &dtos.MortgageCalcResponse{
		Success:        true,
		LoanAmount:     loan.StringFixed(2),
		MonthlyPayment: monthly.StringFixed(2),
		TotalPaid:      total.StringFixed(2),
		Overpayment:    total.Sub(loan).StringFixed(2),
	}

	if req.IncludeSchedule {
		resp.Schedule = buildSchedule(loan, monthlyRate, monthly, months)
	}
	return resp, nil
}

func buildSchedule(loan, monthlyRate, payment decimal.Decimal, months int) []dtos.MortgageScheduleRow {
	rows := make([]dtos.MortgageScheduleRow, 0, months)
	balance := loan
	for m := 1; m <= months; m++ {
		interest := balance.Mul(monthlyRate).Round(2)
		principal := payment.Sub(interest)
		if m == months || principal.GreaterThan(balance) {
			// last payment clears the remainder exactly
			principal = balance
			payment = principal.Add(interest)
		}
		balance = balance.Sub(principal)
		rows = append(rows, dtos.MortgageScheduleRow{
			Month:     m,
			Payment:   payment.StringFixed(2),
			Principal: principal.StringFixed(2),
			Interest:  interest.StringFixed(2),
			Balance:   balance.StringFixed(2),
		})
	}
	return rows
}
