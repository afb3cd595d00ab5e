package dtos

type MortgageCalcRequest struct {
	Price           int64   `json:"price" validate:"required,gt=0"`
	DownPayment     int64   `json:"downPayment" validate:"gte=0"`
	AnnualRatePct   float64 `json:"annualRatePct" validate:"gte=0,lte=100"`
	TermYears       int     `json:"termYears" validate:"required,gt=0,lte=50"`
	IncludeSchedule bool    `json:"includeSchedule"`
}

type MortgageCalcResponse struct {
	Success        bool                  `json:"success"`
	LoanAmount     string                `json:"loanAmount"`
	MonthlyPayment string                `json:"monthlyPayment"`
	TotalPaid      string                `json:"totalPaid"`
	Overpayment    string                `json:"overpayment"`
	Schedule       []MortgageScheduleRow `json:"schedule,omitempty"`
}

type MortgageScheduleRow struct {
	Month     int    `json:"month"`
	Payment   string `json:"payment"`
	Principal string `json:"principal"`
	Interest  string `json:"interest"`
	Balance   string `json:"balance"`
}
