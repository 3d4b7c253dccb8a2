// Package schedule implements the period-accrual engine shared by the loan,
// deposit and projection calculators: it turns a principal, a periodic rate and
// a horizon into an ordered ledger of per-period principal, interest, fee and
// balance figures plus summary totals.
package schedule

import "errors"

// Policy selects how a schedule amortizes or accrues the balance.
type Policy string

const (
	// PolicyAnnuity models a fixed-installment loan: the total payment is
	// constant while the principal portion grows and the interest portion
	// shrinks over the term.
	PolicyAnnuity Policy = "annuity"

	// PolicyLinear models a differentiated loan: the principal portion is
	// constant while the total payment shrinks as interest shrinks.
	PolicyLinear Policy = "linear"

	// PolicyAccrual models compounding growth with periodic contributions,
	// used by deposit, pension, ROI and inflation projections.
	PolicyAccrual Policy = "accrual"
)

// ErrInvalidInput marks a request the engine refuses to compute. Use
// errors.Is to detect it; the wrapped message carries the offending field.
var ErrInvalidInput = errors.New("invalid schedule input")

// Request holds the validated numeric inputs for a single schedule
// computation. All amounts are in the home currency.
type Request struct {
	// Principal is the starting balance: the amount borrowed for loan
	// policies or the opening deposit for accrual.
	Principal float64

	// PeriodicRate is the interest rate applied once per period, already
	// divided down from an annual nominal rate.
	PeriodicRate float64

	// PeriodCount is the number of periods to project.
	PeriodCount int

	Policy Policy

	// PeriodicContribution is added to the balance at the start of each
	// period. Only meaningful for PolicyAccrual; a negative value is a
	// recurring withdrawal. Loan policies ignore it.
	PeriodicContribution float64

	// PeriodicFlatFee is a service or insurance add-on reported on top of
	// each period's payment. It never participates in the interest or
	// principal math.
	PeriodicFlatFee float64

	// UpfrontFee is a one-off charge reported in the totals but never
	// amortized.
	UpfrontFee float64

	// StartDate stamps each period with a human-readable date in the
	// "2006-01" layout. It has no effect on the math. Empty means the
	// current month.
	StartDate string

	// Frequency is the number of months each period spans; 0 means monthly.
	Frequency int
}

// PeriodRecord is one row of the produced ledger.
type PeriodRecord struct {
	// Index is 1-based and ascending.
	Index int

	// Date is StartDate offset by Index periods.
	Date string

	OpeningBalance float64

	// Interest is the growth or cost accrued over the period on the opening
	// balance.
	Interest float64

	// PrincipalMovement is the reduction of a loan balance for the loan
	// policies, or the contribution amount for PolicyAccrual.
	PrincipalMovement float64

	// Fee is the flat per-period fee copied from the request.
	Fee float64

	ClosingBalance float64
}

// Payment is the total amount changing hands in the period: principal plus
// interest plus fee. For accrual schedules it is the money paid in rather
// than a loan installment.
func (p PeriodRecord) Payment() float64 {
	return p.PrincipalMovement + p.Interest + p.Fee
}

// Result is the aggregate output of one schedule computation. The totals are
// computed once over Periods and always equal the sum of the corresponding
// per-period fields.
type Result struct {
	Periods []PeriodRecord

	TotalInterest       float64
	TotalPrincipalMoved float64

	// TotalFees is UpfrontFee plus PeriodCount times PeriodicFlatFee.
	TotalFees float64

	// TotalPaidOrAccrued is the sum of all payments including fees for the
	// loan policies, or the final balance for PolicyAccrual.
	TotalPaidOrAccrued float64

	// FinalBalance is the closing balance of the last period.
	FinalBalance float64
}
