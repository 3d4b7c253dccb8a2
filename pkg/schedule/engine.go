package schedule

import (
	"fmt"
	"math"
	"time"

	"github.com/okushnir/fincalc/pkg/constants"
	"github.com/okushnir/fincalc/pkg/datetime"
	"github.com/okushnir/fincalc/pkg/mathutil"
	"go.uber.org/zap"
)

// AnnuityPayment calculates the fixed per-period payment for a loan using the
// standard annuity formula. A non-positive rate degrades to dividing the
// principal evenly across the term.
func AnnuityPayment(principal, periodicRate float64, periodCount int) float64 {
	if periodicRate <= 0 {
		return principal / float64(periodCount)
	}
	power := math.Pow(1.00+periodicRate, float64(periodCount))
	discountFactor := (power - 1.00) / power
	return principal * periodicRate / discountFactor
}

// PeriodInterest calculates the interest accrued on a balance over one period.
func PeriodInterest(balance, periodicRate float64) float64 {
	if periodicRate <= 0 {
		return 0
	}
	return balance * periodicRate
}

// Engine computes schedules. It is stateless; the logger is the only field and
// operations are safe to call concurrently.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an engine instance. If logger is nil a no-op logger is
// used.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Compute dispatches to the policy-specific operation for the request.
func (e *Engine) Compute(req Request) (*Result, error) {
	switch req.Policy {
	case PolicyAnnuity:
		return e.ComputeAnnuity(req)
	case PolicyLinear:
		return e.ComputeLinear(req)
	case PolicyAccrual:
		return e.ComputeAccrual(req)
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidInput, req.Policy)
	}
}

// ComputeAnnuity produces the schedule for a fixed-installment loan. The last
// period's principal movement is forced to the exact remaining balance so the
// loan reaches exactly zero regardless of accumulated floating-point drift.
func (e *Engine) ComputeAnnuity(req Request) (*Result, error) {
	req.Policy = PolicyAnnuity
	start, err := e.prepare(&req, true)
	if err != nil {
		return nil, err
	}

	payment := AnnuityPayment(req.Principal, req.PeriodicRate, req.PeriodCount)
	e.logger.Debug(fmt.Sprintf("annuity payment %.2f for principal %.2f over %d periods",
		payment, req.Principal, req.PeriodCount),
		zap.String("op", "schedule.ComputeAnnuity"),
	)

	periods := make([]PeriodRecord, 0, req.PeriodCount)
	opening := req.Principal
	for i := 1; i <= req.PeriodCount; i++ {
		date, err := datetime.OffsetDate(start, datetime.DateTimeLayout, i*req.Frequency)
		if err != nil {
			return nil, err
		}

		interest := PeriodInterest(opening, req.PeriodicRate)
		movement := payment - interest
		if i == req.PeriodCount || mathutil.Round(opening-movement) <= 0 {
			// Absorb rounding drift: the final movement is the exact
			// remaining balance and the effective payment is recomputed
			// from it.
			movement = opening
		}
		closing := math.Max(0, opening-movement)

		periods = append(periods, PeriodRecord{
			Index:             i,
			Date:              date,
			OpeningBalance:    opening,
			Interest:          interest,
			PrincipalMovement: movement,
			Fee:               req.PeriodicFlatFee,
			ClosingBalance:    closing,
		})
		opening = closing
	}

	return e.finalize(req, periods), nil
}

// ComputeLinear produces the schedule for a differentiated loan: every period
// retires principal/periodCount of the balance, so interest and the total
// payment shrink period over period. The final period retires the exact
// remaining balance, same rationale as for annuities.
func (e *Engine) ComputeLinear(req Request) (*Result, error) {
	req.Policy = PolicyLinear
	start, err := e.prepare(&req, true)
	if err != nil {
		return nil, err
	}

	baseMovement := req.Principal / float64(req.PeriodCount)
	periods := make([]PeriodRecord, 0, req.PeriodCount)
	opening := req.Principal
	for i := 1; i <= req.PeriodCount; i++ {
		date, err := datetime.OffsetDate(start, datetime.DateTimeLayout, i*req.Frequency)
		if err != nil {
			return nil, err
		}

		interest := PeriodInterest(opening, req.PeriodicRate)
		movement := baseMovement
		if i == req.PeriodCount {
			movement = opening
		}
		closing := math.Max(0, opening-movement)

		periods = append(periods, PeriodRecord{
			Index:             i,
			Date:              date,
			OpeningBalance:    opening,
			Interest:          interest,
			PrincipalMovement: movement,
			Fee:               req.PeriodicFlatFee,
			ClosingBalance:    closing,
		})
		opening = closing
	}

	return e.finalize(req, periods), nil
}

// ComputeAccrual produces the schedule for compounding growth with periodic
// contributions. The contribution lands at the start of each period and earns
// that period's growth; the recorded interest is the growth alone, excluding
// the contribution itself. No final-period correction applies since there is
// no target balance to hit.
func (e *Engine) ComputeAccrual(req Request) (*Result, error) {
	req.Policy = PolicyAccrual
	start, err := e.prepare(&req, false)
	if err != nil {
		return nil, err
	}

	periods := make([]PeriodRecord, 0, req.PeriodCount)
	opening := req.Principal
	for i := 1; i <= req.PeriodCount; i++ {
		date, err := datetime.OffsetDate(start, datetime.DateTimeLayout, i*req.Frequency)
		if err != nil {
			return nil, err
		}

		contribution := req.PeriodicContribution
		if contribution < 0 && opening+contribution < 0 {
			e.logger.Debug(fmt.Sprintf("%s: capping withdrawal %.2f to balance %.2f",
				date, -contribution, opening),
				zap.String("op", "schedule.ComputeAccrual"),
			)
			contribution = -opening
		}

		closing := (opening + contribution) * (1.00 + req.PeriodicRate)
		interest := closing - opening - contribution

		periods = append(periods, PeriodRecord{
			Index:             i,
			Date:              date,
			OpeningBalance:    opening,
			Interest:          interest,
			PrincipalMovement: contribution,
			Fee:               req.PeriodicFlatFee,
			ClosingBalance:    closing,
		})
		opening = closing
	}

	return e.finalize(req, periods), nil
}

// prepare validates the request, applies defaults and resolves the start
// date. loanPolicy additionally requires a strictly positive principal.
func (e *Engine) prepare(req *Request, loanPolicy bool) (string, error) {
	if req.PeriodCount < 1 {
		return "", fmt.Errorf("%w: period count must be at least 1, got %d", ErrInvalidInput, req.PeriodCount)
	}
	if math.IsNaN(req.PeriodicRate) || math.IsInf(req.PeriodicRate, 0) {
		return "", fmt.Errorf("%w: periodic rate must be finite, got %v", ErrInvalidInput, req.PeriodicRate)
	}
	if req.Principal < 0 {
		return "", fmt.Errorf("%w: principal must not be negative, got %.2f", ErrInvalidInput, req.Principal)
	}
	if loanPolicy && req.Principal == 0 {
		return "", fmt.Errorf("%w: loan principal must be positive", ErrInvalidInput)
	}

	if req.Frequency <= 0 {
		req.Frequency = constants.DefaultFrequency
	}

	start := req.StartDate
	if start == "" {
		start = time.Now().Format(datetime.DateTimeLayout)
	} else if _, err := time.Parse(datetime.DateTimeLayout, start); err != nil {
		return "", fmt.Errorf("%w: start date %q does not match layout %s", ErrInvalidInput, start, datetime.DateTimeLayout)
	}
	return start, nil
}

// finalize derives the cached totals from the period ledger.
func (e *Engine) finalize(req Request, periods []PeriodRecord) *Result {
	result := &Result{
		Periods:   periods,
		TotalFees: req.UpfrontFee + float64(req.PeriodCount)*req.PeriodicFlatFee,
	}
	for _, p := range periods {
		result.TotalInterest += p.Interest
		result.TotalPrincipalMoved += p.PrincipalMovement
	}
	if len(periods) > 0 {
		result.FinalBalance = periods[len(periods)-1].ClosingBalance
	}
	if req.Policy == PolicyAccrual {
		result.TotalPaidOrAccrued = result.FinalBalance
	} else {
		result.TotalPaidOrAccrued = result.TotalInterest + result.TotalPrincipalMoved + result.TotalFees
	}
	return result
}
