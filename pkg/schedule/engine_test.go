package schedule

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
)

func TestAnnuityPayment(t *testing.T) {
	tests := []struct {
		name          string
		principal     float64
		periodicRate  float64
		periodCount   int
		expectedRange []float64 // [min, max] expected range
	}{
		{
			name:          "One year consumer credit",
			principal:     120000,
			periodicRate:  0.01,
			periodCount:   12,
			expectedRange: []float64{10600, 10700}, // around 10,661.86
		},
		{
			name:          "20-year mortgage",
			principal:     1200000,
			periodicRate:  0.01,
			periodCount:   240,
			expectedRange: []float64{13200, 13300}, // around 13,213.70
		},
		{
			name:          "Zero rate divides evenly",
			principal:     12000,
			periodicRate:  0,
			periodCount:   60,
			expectedRange: []float64{200, 200},
		},
		{
			name:          "High rate short term",
			principal:     10000,
			periodicRate:  0.015,
			periodCount:   36,
			expectedRange: []float64{355, 370}, // around 361.52
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnnuityPayment(tt.principal, tt.periodicRate, tt.periodCount)

			if result < tt.expectedRange[0] || result > tt.expectedRange[1] {
				t.Errorf("AnnuityPayment() = %.2f, expected range [%.2f, %.2f]",
					result, tt.expectedRange[0], tt.expectedRange[1])
			}
		})
	}
}

func TestPeriodInterest(t *testing.T) {
	tests := []struct {
		name         string
		balance      float64
		periodicRate float64
		expected     float64
	}{
		{"Full principal at one percent", 120000, 0.01, 1200.00},
		{"Small balance", 100, 0.005, 0.50},
		{"Zero rate", 10000, 0, 0},
		{"Negative rate treated as no interest", 10000, -0.01, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PeriodInterest(tt.balance, tt.periodicRate)
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("PeriodInterest() = %.2f, expected %.2f", result, tt.expected)
			}
		})
	}
}

func TestComputeAnnuityExample(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	result, err := engine.ComputeAnnuity(Request{
		Principal:    120000,
		PeriodicRate: 0.01,
		PeriodCount:  12,
		StartDate:    "2026-01",
	})
	if err != nil {
		t.Fatalf("ComputeAnnuity() error = %v", err)
	}

	if len(result.Periods) != 12 {
		t.Fatalf("ComputeAnnuity() produced %d periods, expected 12", len(result.Periods))
	}

	first := result.Periods[0]
	if math.Abs(first.Interest-1200.00) > 0.01 {
		t.Errorf("first period interest = %.2f, expected 1200.00", first.Interest)
	}
	if first.OpeningBalance != 120000 {
		t.Errorf("first period opening = %.2f, expected 120000", first.OpeningBalance)
	}
	if first.Date != "2026-02" {
		t.Errorf("first period date = %s, expected 2026-02", first.Date)
	}

	// The installment is constant across all periods except the corrected
	// last one.
	installment := first.Payment()
	for _, period := range result.Periods[:len(result.Periods)-1] {
		if math.Abs(period.Payment()-installment) > 0.01 {
			t.Errorf("period %d payment = %.2f, expected constant %.2f",
				period.Index, period.Payment(), installment)
		}
	}

	last := result.Periods[len(result.Periods)-1]
	if last.ClosingBalance != 0 {
		t.Errorf("final closing balance = %v, expected exactly 0", last.ClosingBalance)
	}
	if last.Date != "2027-01" {
		t.Errorf("last period date = %s, expected 2027-01", last.Date)
	}
}

func TestComputeLinearExample(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	result, err := engine.ComputeLinear(Request{
		Principal:    120000,
		PeriodicRate: 0.01,
		PeriodCount:  12,
		StartDate:    "2026-01",
	})
	if err != nil {
		t.Fatalf("ComputeLinear() error = %v", err)
	}

	first := result.Periods[0]
	if math.Abs(first.PrincipalMovement-10000.00) > 0.01 {
		t.Errorf("first period principal = %.2f, expected 10000.00", first.PrincipalMovement)
	}
	if math.Abs(first.Interest-1200.00) > 0.01 {
		t.Errorf("first period interest = %.2f, expected 1200.00", first.Interest)
	}
	if math.Abs(first.Payment()-11200.00) > 0.01 {
		t.Errorf("first period payment = %.2f, expected 11200.00", first.Payment())
	}

	// Interest shrinks strictly period over period, so the total payment is
	// not constant.
	for i := 1; i < len(result.Periods); i++ {
		if result.Periods[i].Interest >= result.Periods[i-1].Interest {
			t.Errorf("interest did not shrink between periods %d and %d", i, i+1)
		}
	}

	last := result.Periods[len(result.Periods)-1]
	if math.Abs(last.Interest-100.00) > 0.01 {
		t.Errorf("last period interest = %.2f, expected 100.00", last.Interest)
	}
	if last.ClosingBalance != 0 {
		t.Errorf("final closing balance = %v, expected exactly 0", last.ClosingBalance)
	}
}

func TestComputeAccrualExample(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	result, err := engine.ComputeAccrual(Request{
		Principal:            1000,
		PeriodicRate:         0.005,
		PeriodCount:          12,
		PeriodicContribution: 100,
		StartDate:            "2026-01",
	})
	if err != nil {
		t.Fatalf("ComputeAccrual() error = %v", err)
	}

	first := result.Periods[0]
	if first.OpeningBalance != 1000 {
		t.Errorf("first period opening = %.2f, expected 1000", first.OpeningBalance)
	}
	if math.Abs(first.ClosingBalance-1105.50) > 0.01 {
		t.Errorf("first period closing = %.2f, expected 1105.50", first.ClosingBalance)
	}
	if math.Abs(first.Interest-5.50) > 0.01 {
		t.Errorf("first period interest = %.2f, expected 5.50", first.Interest)
	}
	if first.PrincipalMovement != 100 {
		t.Errorf("first period principal movement = %.2f, expected 100", first.PrincipalMovement)
	}
}

func TestZeroResidual(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	tests := []struct {
		name    string
		policy  Policy
		request Request
	}{
		{
			name:   "Annuity typical",
			policy: PolicyAnnuity,
			request: Request{
				Principal:    250000,
				PeriodicRate: 0.0075,
				PeriodCount:  120,
				StartDate:    "2026-01",
			},
		},
		{
			name:   "Annuity awkward principal",
			policy: PolicyAnnuity,
			request: Request{
				Principal:    99999.99,
				PeriodicRate: 0.0123,
				PeriodCount:  37,
				StartDate:    "2026-01",
			},
		},
		{
			name:   "Linear typical",
			policy: PolicyLinear,
			request: Request{
				Principal:    250000,
				PeriodicRate: 0.0075,
				PeriodCount:  120,
				StartDate:    "2026-01",
			},
		},
		{
			name:   "Linear indivisible term",
			policy: PolicyLinear,
			request: Request{
				Principal:    1000,
				PeriodicRate: 0.01,
				PeriodCount:  7,
				StartDate:    "2026-01",
			},
		},
		{
			name:   "Single period",
			policy: PolicyAnnuity,
			request: Request{
				Principal:    5000,
				PeriodicRate: 0.02,
				PeriodCount:  1,
				StartDate:    "2026-01",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.request.Policy = tt.policy
			result, err := engine.Compute(tt.request)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}

			last := result.Periods[len(result.Periods)-1]
			if last.ClosingBalance != 0 {
				t.Errorf("final closing balance = %v, expected exactly 0", last.ClosingBalance)
			}

			movedTotal := 0.0
			for _, period := range result.Periods {
				movedTotal += period.PrincipalMovement
			}
			if math.Abs(movedTotal-tt.request.Principal) > 1e-6 {
				t.Errorf("total principal moved = %.10f, expected %.10f",
					movedTotal, tt.request.Principal)
			}
		})
	}
}

func TestChainContinuity(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	requests := []Request{
		{Policy: PolicyAnnuity, Principal: 120000, PeriodicRate: 0.01, PeriodCount: 12, StartDate: "2026-01"},
		{Policy: PolicyLinear, Principal: 50000, PeriodicRate: 0.008, PeriodCount: 24, StartDate: "2026-01"},
		{Policy: PolicyAccrual, Principal: 1000, PeriodicRate: 0.005, PeriodCount: 36, PeriodicContribution: 250, StartDate: "2026-01"},
	}

	for _, req := range requests {
		t.Run(string(req.Policy), func(t *testing.T) {
			result, err := engine.Compute(req)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}

			if result.Periods[0].OpeningBalance != req.Principal {
				t.Errorf("first opening balance = %.2f, expected principal %.2f",
					result.Periods[0].OpeningBalance, req.Principal)
			}
			for i := 1; i < len(result.Periods); i++ {
				if result.Periods[i].OpeningBalance != result.Periods[i-1].ClosingBalance {
					t.Errorf("period %d opening %.10f != period %d closing %.10f",
						i+1, result.Periods[i].OpeningBalance,
						i, result.Periods[i-1].ClosingBalance)
				}
			}
		})
	}
}

func TestTotalsConsistency(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	requests := []Request{
		{Policy: PolicyAnnuity, Principal: 120000, PeriodicRate: 0.01, PeriodCount: 12, PeriodicFlatFee: 150, UpfrontFee: 1000, StartDate: "2026-01"},
		{Policy: PolicyLinear, Principal: 75000, PeriodicRate: 0.0066, PeriodCount: 48, PeriodicFlatFee: 99, StartDate: "2026-01"},
		{Policy: PolicyAccrual, Principal: 2000, PeriodicRate: 0.004, PeriodCount: 18, PeriodicContribution: 500, StartDate: "2026-01"},
	}

	for _, req := range requests {
		t.Run(string(req.Policy), func(t *testing.T) {
			result, err := engine.Compute(req)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}

			var interest, moved, fees float64
			for _, period := range result.Periods {
				interest += period.Interest
				moved += period.PrincipalMovement
				fees += period.Fee
			}
			fees += req.UpfrontFee

			if math.Abs(result.TotalInterest-interest) > 1e-9 {
				t.Errorf("TotalInterest = %.10f, sum of periods = %.10f", result.TotalInterest, interest)
			}
			if math.Abs(result.TotalPrincipalMoved-moved) > 1e-9 {
				t.Errorf("TotalPrincipalMoved = %.10f, sum of periods = %.10f", result.TotalPrincipalMoved, moved)
			}
			if math.Abs(result.TotalFees-fees) > 1e-9 {
				t.Errorf("TotalFees = %.10f, upfront plus sum of periods = %.10f", result.TotalFees, fees)
			}
			if result.FinalBalance != result.Periods[len(result.Periods)-1].ClosingBalance {
				t.Errorf("FinalBalance = %.10f, last closing = %.10f",
					result.FinalBalance, result.Periods[len(result.Periods)-1].ClosingBalance)
			}
		})
	}
}

func TestZeroRateDegradation(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	for _, policy := range []Policy{PolicyAnnuity, PolicyLinear} {
		t.Run(string(policy), func(t *testing.T) {
			result, err := engine.Compute(Request{
				Policy:      policy,
				Principal:   1000,
				PeriodCount: 4,
				StartDate:   "2026-01",
			})
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}

			for _, period := range result.Periods {
				if period.Interest != 0 {
					t.Errorf("period %d interest = %v, expected 0", period.Index, period.Interest)
				}
				if math.Abs(period.PrincipalMovement-250.00) > 0.01 {
					t.Errorf("period %d principal movement = %.2f, expected 250.00",
						period.Index, period.PrincipalMovement)
				}
			}
			if result.FinalBalance != 0 {
				t.Errorf("final balance = %v, expected exactly 0", result.FinalBalance)
			}
		})
	}
}

func TestAccrualContributionOrdering(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	result, err := engine.ComputeAccrual(Request{
		Principal:            10000,
		PeriodicRate:         0.01,
		PeriodCount:          24,
		PeriodicContribution: 500,
		StartDate:            "2026-01",
	})
	if err != nil {
		t.Fatalf("ComputeAccrual() error = %v", err)
	}

	// The contribution earns growth in the same period it is added, so the
	// closing balance must exceed opening plus contribution whenever the
	// rate is positive.
	for _, period := range result.Periods {
		if period.ClosingBalance <= period.OpeningBalance+period.PrincipalMovement {
			t.Errorf("period %d closing %.2f should exceed opening %.2f plus contribution %.2f",
				period.Index, period.ClosingBalance, period.OpeningBalance, period.PrincipalMovement)
		}
		expectedInterest := period.ClosingBalance - period.OpeningBalance - period.PrincipalMovement
		if math.Abs(period.Interest-expectedInterest) > 1e-9 {
			t.Errorf("period %d interest = %.10f, expected growth only %.10f",
				period.Index, period.Interest, expectedInterest)
		}
	}
}

func TestAccrualWithdrawalCappedAtBalance(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	result, err := engine.ComputeAccrual(Request{
		Principal:            1000,
		PeriodicRate:         0.005,
		PeriodCount:          12,
		PeriodicContribution: -400,
		StartDate:            "2026-01",
	})
	if err != nil {
		t.Fatalf("ComputeAccrual() error = %v", err)
	}

	for _, period := range result.Periods {
		if period.ClosingBalance < 0 {
			t.Errorf("period %d closing balance went negative: %.2f",
				period.Index, period.ClosingBalance)
		}
	}
}

func TestComputeInvalidInput(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	tests := []struct {
		name    string
		request Request
	}{
		{
			name:    "Zero period count",
			request: Request{Policy: PolicyAnnuity, Principal: 1000, PeriodicRate: 0.01, PeriodCount: 0},
		},
		{
			name:    "Negative period count",
			request: Request{Policy: PolicyLinear, Principal: 1000, PeriodicRate: 0.01, PeriodCount: -3},
		},
		{
			name:    "NaN rate",
			request: Request{Policy: PolicyAccrual, Principal: 1000, PeriodicRate: math.NaN(), PeriodCount: 12},
		},
		{
			name:    "Infinite rate",
			request: Request{Policy: PolicyAnnuity, Principal: 1000, PeriodicRate: math.Inf(1), PeriodCount: 12},
		},
		{
			name:    "Negative principal",
			request: Request{Policy: PolicyAccrual, Principal: -5, PeriodicRate: 0.01, PeriodCount: 12},
		},
		{
			name:    "Zero principal loan",
			request: Request{Policy: PolicyAnnuity, Principal: 0, PeriodicRate: 0.01, PeriodCount: 12},
		},
		{
			name:    "Unknown policy",
			request: Request{Policy: "balloon", Principal: 1000, PeriodicRate: 0.01, PeriodCount: 12},
		},
		{
			name:    "Malformed start date",
			request: Request{Policy: PolicyAnnuity, Principal: 1000, PeriodicRate: 0.01, PeriodCount: 12, StartDate: "January 2026"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Compute(tt.request)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Compute() error = %v, expected ErrInvalidInput", err)
			}
			if result != nil {
				t.Errorf("Compute() returned a partial result for invalid input")
			}
		})
	}
}

func TestZeroPrincipalAccrualAllowed(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	result, err := engine.ComputeAccrual(Request{
		Principal:            0,
		PeriodicRate:         0.005,
		PeriodCount:          6,
		PeriodicContribution: 100,
		StartDate:            "2026-01",
	})
	if err != nil {
		t.Fatalf("ComputeAccrual() error = %v", err)
	}
	if result.FinalBalance <= 0 {
		t.Errorf("final balance = %.2f, expected contributions to accumulate", result.FinalBalance)
	}
}

func TestYearlyFrequencyStampsAnnualDates(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	result, err := engine.ComputeAccrual(Request{
		Principal:            50000,
		PeriodicRate:         0.08,
		PeriodCount:          3,
		PeriodicContribution: 24000,
		StartDate:            "2026-01",
		Frequency:            12,
	})
	if err != nil {
		t.Fatalf("ComputeAccrual() error = %v", err)
	}

	expected := []string{"2027-01", "2028-01", "2029-01"}
	for i, period := range result.Periods {
		if period.Date != expected[i] {
			t.Errorf("period %d date = %s, expected %s", period.Index, period.Date, expected[i])
		}
	}
}

func TestFeesReportedSeparately(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	withFee, err := engine.ComputeAnnuity(Request{
		Principal:       120000,
		PeriodicRate:    0.01,
		PeriodCount:     12,
		PeriodicFlatFee: 150,
		UpfrontFee:      1000,
		StartDate:       "2026-01",
	})
	if err != nil {
		t.Fatalf("ComputeAnnuity() error = %v", err)
	}
	withoutFee, err := engine.ComputeAnnuity(Request{
		Principal:    120000,
		PeriodicRate: 0.01,
		PeriodCount:  12,
		StartDate:    "2026-01",
	})
	if err != nil {
		t.Fatalf("ComputeAnnuity() error = %v", err)
	}

	// Fees never blend into the principal/interest math, including the
	// corrected final period.
	for i := range withFee.Periods {
		if withFee.Periods[i].Interest != withoutFee.Periods[i].Interest {
			t.Errorf("period %d interest changed by fee", i+1)
		}
		if withFee.Periods[i].PrincipalMovement != withoutFee.Periods[i].PrincipalMovement {
			t.Errorf("period %d principal movement changed by fee", i+1)
		}
		if withFee.Periods[i].Fee != 150 {
			t.Errorf("period %d fee = %.2f, expected 150", i+1, withFee.Periods[i].Fee)
		}
	}
	if math.Abs(withFee.TotalFees-(1000+12*150)) > 1e-9 {
		t.Errorf("TotalFees = %.2f, expected 2800.00", withFee.TotalFees)
	}
}

func TestNewEngine(t *testing.T) {
	if NewEngine(nil) == nil {
		t.Error("NewEngine(nil) returned nil")
	}

	logger := zap.NewNop()
	engine := NewEngine(logger)
	if engine.logger != logger {
		t.Error("NewEngine() logger not set correctly")
	}
}
