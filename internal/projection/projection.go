// Package projection composes the schedule engine and the rate converter into
// per-calculator results ready for presentation. The engine never calls the
// converter; this layer asks the converter to re-express amounts only after
// the schedule is computed in the home currency.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/okushnir/fincalc/internal/config"
	"github.com/okushnir/fincalc/pkg/constants"
	"github.com/okushnir/fincalc/pkg/format"
	"github.com/okushnir/fincalc/pkg/rates"
	"github.com/okushnir/fincalc/pkg/schedule"
	"go.uber.org/zap"
)

// Projection holds one calculator's computed schedule plus presentation
// derivations.
type Projection struct {
	Name   string
	Policy schedule.Policy

	// Currency is the currency the amounts are actually expressed in. It
	// stays the home currency when a requested display currency has no
	// usable exchange rate.
	Currency string

	Result *schedule.Result

	// RealValues is the purchasing-power value of each period's closing
	// balance, present only when an inflation rate is configured.
	RealValues []float64

	Notes []string
}

// Run computes a projection for every configured calculator. Calculators with
// invalid numeric input are reported once and skipped, leaving the rest of
// the run intact.
func Run(logger *zap.Logger, conf config.Configuration, converter *rates.Converter) ([]Projection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := schedule.NewEngine(logger)
	home := conf.Currency.HomeOrDefault()

	var projections []Projection
	for _, calc := range conf.Calculators {
		result, err := engine.Compute(calc.ScheduleRequest())
		if errors.Is(err, schedule.ErrInvalidInput) {
			logger.Warn(fmt.Sprintf("skipping calculator %s: %v", calc.Name, err),
				zap.String("op", "projection.Run"),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("compute schedule for %s: %w", calc.Name, err)
		}

		proj := Projection{
			Name:     calc.Name,
			Policy:   schedule.Policy(calc.Policy),
			Currency: home,
			Result:   result,
		}

		if calc.DisplayCurrency != "" && calc.DisplayCurrency != home && converter != nil {
			converted, err := convertResult(converter, result, home, calc.DisplayCurrency)
			switch {
			case errors.Is(err, rates.ErrRateUnavailable):
				proj.Notes = append(proj.Notes,
					fmt.Sprintf("no exchange rate for %s, amounts shown in %s", calc.DisplayCurrency, home))
				logger.Warn(fmt.Sprintf("falling back to %s for calculator %s", home, calc.Name),
					zap.String("op", "projection.Run"),
					zap.Error(err),
				)
			case err != nil:
				return nil, fmt.Errorf("convert %s to %s: %w", calc.Name, calc.DisplayCurrency, err)
			default:
				proj.Result = converted
				proj.Currency = calc.DisplayCurrency
				snap, freshness := converter.SnapshotFor(calc.DisplayCurrency)
				proj.Notes = append(proj.Notes,
					fmt.Sprintf("converted at %.4f %s per %s", snap.RatePerUnit, home, snap.Code))
				if freshness == rates.StaleFallback {
					proj.Notes = append(proj.Notes,
						fmt.Sprintf("exchange rate is stale (as of %s)", snap.AsOf))
				}
			}
		}

		if calc.InflationRate > 0 {
			proj.RealValues = realValues(proj.Result, calc.InflationRate, calc.Frequency)
		}

		proj.Notes = append(proj.Notes,
			fmt.Sprintf("final balance %s", format.Amount(proj.Result.FinalBalance, proj.Currency)))
		projections = append(projections, proj)
	}

	return projections, nil
}

// convertResult re-expresses every money field of a result in another
// currency. Conversion through the pivot is linear, so a single factor covers
// the whole ledger.
func convertResult(converter *rates.Converter, result *schedule.Result, fromCode, toCode string) (*schedule.Result, error) {
	factor, err := converter.Convert(1.00, fromCode, toCode)
	if err != nil {
		return nil, err
	}

	converted := schedule.Result{
		Periods:             make([]schedule.PeriodRecord, len(result.Periods)),
		TotalInterest:       result.TotalInterest * factor,
		TotalPrincipalMoved: result.TotalPrincipalMoved * factor,
		TotalFees:           result.TotalFees * factor,
		TotalPaidOrAccrued:  result.TotalPaidOrAccrued * factor,
		FinalBalance:        result.FinalBalance * factor,
	}
	for i, p := range result.Periods {
		p.OpeningBalance *= factor
		p.Interest *= factor
		p.PrincipalMovement *= factor
		p.Fee *= factor
		p.ClosingBalance *= factor
		converted.Periods[i] = p
	}
	return &converted, nil
}

// realValues divides each nominal closing balance by the inflation growth
// accumulated up to that period, yielding today's purchasing power.
func realValues(result *schedule.Result, annualInflationPercent float64, frequencyMonths int) []float64 {
	if frequencyMonths <= 0 {
		frequencyMonths = constants.DefaultFrequency
	}
	growth := 1.00 + annualInflationPercent/constants.PercentageMultiplier

	values := make([]float64, len(result.Periods))
	for i, p := range result.Periods {
		yearsElapsed := float64(p.Index*frequencyMonths) / constants.MonthsPerYear
		values[i] = p.ClosingBalance / math.Pow(growth, yearsElapsed)
	}
	return values
}
