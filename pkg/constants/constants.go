// Package constants provides shared constants for the fincalc application.
package constants

import "time"

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// DefaultFrequency is the default number of months per schedule period
	DefaultFrequency = 1

	// AnnualFrequency is the number of months per period for yearly schedules
	AnnualFrequency = 12
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"
)

// Currency constants
const (
	// DefaultHomeCurrency is the pivot currency the engine computes in
	DefaultHomeCurrency = "UAH"

	// DefaultRateTTL is how long a fetched exchange-rate snapshot counts as fresh
	DefaultRateTTL = 12 * time.Hour

	// DefaultRateSourceURL is the public exchange-rate endpoint queried by the
	// HTTP rate source
	DefaultRateSourceURL = "https://bank.gov.ua/NBUStatService/v1/statdirectory/exchange?json"
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
