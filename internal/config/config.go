// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"time"

	"github.com/okushnir/fincalc/pkg/constants"
	"github.com/okushnir/fincalc/pkg/mathutil"
	"github.com/okushnir/fincalc/pkg/schedule"
	"github.com/spf13/viper"
)

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for fincalc.
type Configuration struct {
	Calculators []Calculator
	Currency    CurrencyConfig `yaml:"currency,omitempty"`
	Logging     LoggingConfig  `yaml:"logging,omitempty"`
	Output      OutputConfig   `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, yaml
}

// CurrencyConfig describes the home currency and the tracked display
// currencies the rate converter maintains snapshots for.
type CurrencyConfig struct {
	Home            string
	Codes           []string
	SourceURL       string `yaml:"sourceUrl,omitempty"`
	RefreshTTLHours int    `yaml:"refreshTtlHours,omitempty"`
}

// HomeOrDefault returns the configured home currency or the default pivot.
func (c CurrencyConfig) HomeOrDefault() string {
	if c.Home == "" {
		return constants.DefaultHomeCurrency
	}
	return c.Home
}

// SourceURLOrDefault returns the configured rate endpoint or the default one.
func (c CurrencyConfig) SourceURLOrDefault() string {
	if c.SourceURL == "" {
		return constants.DefaultRateSourceURL
	}
	return c.SourceURL
}

// RefreshTTL returns the snapshot freshness window.
func (c CurrencyConfig) RefreshTTL() time.Duration {
	if c.RefreshTTLHours <= 0 {
		return constants.DefaultRateTTL
	}
	return time.Duration(c.RefreshTTLHours) * time.Hour
}

// Calculator configures one schedule computation.
type Calculator struct {
	Name   string
	Policy string // annuity, linear, accrual

	// Principal is the loan amount or opening deposit in the home currency.
	Principal float64

	// AnnualRate is the nominal annual interest or growth rate in percent.
	AnnualRate float64

	// Periods is the number of periods to project.
	Periods int

	// Frequency is the number of months each period spans; 0 means monthly.
	Frequency int

	// Contribution is added to the balance at the start of each period
	// (accrual policy only); negative means a recurring withdrawal.
	Contribution float64

	// PeriodicFee and UpfrontFee are reported on top of the schedule and
	// never blended into the interest or principal math.
	PeriodicFee float64
	UpfrontFee  float64

	// StartDate stamps the ledger rows; empty means the current month.
	StartDate string

	// DisplayCurrency re-expresses the ledger in another currency when set.
	DisplayCurrency string

	// InflationRate, when positive, is the annual inflation in percent used
	// to derive a purchasing-power column alongside the nominal figures.
	InflationRate float64
}

// PeriodicRate derives the per-period rate from the annual percentage and the
// period length in months.
func (c Calculator) PeriodicRate() float64 {
	months := c.Frequency
	if months <= 0 {
		months = constants.DefaultFrequency
	}
	return mathutil.ApplyPercentage(float64(months)/constants.MonthsPerYear, c.AnnualRate)
}

// ScheduleRequest converts the calculator definition into an engine request.
func (c Calculator) ScheduleRequest() schedule.Request {
	return schedule.Request{
		Principal:            c.Principal,
		PeriodicRate:         c.PeriodicRate(),
		PeriodCount:          c.Periods,
		Policy:               schedule.Policy(c.Policy),
		PeriodicContribution: c.Contribution,
		PeriodicFlatFee:      c.PeriodicFee,
		UpfrontFee:           c.UpfrontFee,
		StartDate:            c.StartDate,
		Frequency:            c.Frequency,
	}
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. The engine rejects invalid numeric input at compute time;
// these warnings catch configuration mistakes early and in one pass.
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(conf.Calculators) == 0 {
		warnings = append(warnings, "no calculators configured, nothing to compute")
	}

	tracked := make(map[string]bool, len(conf.Currency.Codes))
	for _, code := range conf.Currency.Codes {
		tracked[code] = true
	}
	home := conf.Currency.HomeOrDefault()

	seen := make(map[string]bool, len(conf.Calculators))
	for _, calc := range conf.Calculators {
		label := calc.Name
		if label == "" {
			label = "(unnamed calculator)"
			warnings = append(warnings, "calculator without a name")
		}
		if seen[calc.Name] && calc.Name != "" {
			warnings = append(warnings, fmt.Sprintf("duplicate calculator name %q", calc.Name))
		}
		seen[calc.Name] = true

		switch schedule.Policy(calc.Policy) {
		case schedule.PolicyAnnuity, schedule.PolicyLinear, schedule.PolicyAccrual:
		default:
			warnings = append(warnings, fmt.Sprintf("%s: unknown policy %q", label, calc.Policy))
		}

		if calc.Periods < 1 {
			warnings = append(warnings, fmt.Sprintf("%s: periods must be at least 1", label))
		}
		if calc.Principal < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: negative principal", label))
		}
		if calc.PeriodicFee < 0 || calc.UpfrontFee < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: negative fee", label))
		}
		if calc.Contribution != 0 && schedule.Policy(calc.Policy) != schedule.PolicyAccrual {
			warnings = append(warnings, fmt.Sprintf("%s: contribution is only applied by the accrual policy", label))
		}
		if calc.StartDate != "" {
			if _, err := time.Parse(DateTimeLayout, calc.StartDate); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: start date %q does not match layout %s", label, calc.StartDate, DateTimeLayout))
			}
		}
		if calc.DisplayCurrency != "" && calc.DisplayCurrency != home && !tracked[calc.DisplayCurrency] {
			warnings = append(warnings, fmt.Sprintf("%s: display currency %q is not in currency.codes", label, calc.DisplayCurrency))
		}
	}

	return warnings
}
