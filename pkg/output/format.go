// Package output provides utilities for formatting and displaying schedule
// projections.
package output

import (
	"fmt"
	"strings"

	"github.com/okushnir/fincalc/internal/projection"
	"github.com/okushnir/fincalc/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(projections []projection.Projection) {
	p := message.NewPrinter(language.English)
	for n, proj := range projections {
		fmt.Printf("--- Schedule for %s (%s, %s) ---\n", proj.Name, proj.Policy, proj.Currency)
		hasReal := len(proj.RealValues) == len(proj.Result.Periods)

		fmt.Printf("   # | Date    | Opening      | Interest   | Principal    | Fee      | Payment      | Closing     ")
		if hasReal {
			fmt.Printf(" | Real value  ")
		}
		fmt.Printf("\n")
		fmt.Printf("   _ | ____    | _______      | ________   | _________    | ___      | _______      | _______     ")
		if hasReal {
			fmt.Printf(" | __________  ")
		}
		fmt.Printf("\n")

		for i, period := range proj.Result.Periods {
			_, _ = p.Printf("%4d | %s | %12.2f | %10.2f | %12.2f | %8.2f | %12.2f | %12.2f",
				period.Index, period.Date, period.OpeningBalance, period.Interest,
				period.PrincipalMovement, period.Fee, period.Payment(), period.ClosingBalance)
			if hasReal {
				_, _ = p.Printf(" | %12.2f", proj.RealValues[i])
			}
			fmt.Printf("\n")
		}

		fmt.Printf("Total interest: %s | Total principal: %s | Total fees: %s | Total paid/accrued: %s\n",
			format.Amount(proj.Result.TotalInterest, proj.Currency),
			format.Amount(proj.Result.TotalPrincipalMoved, proj.Currency),
			format.Amount(proj.Result.TotalFees, proj.Currency),
			format.Amount(proj.Result.TotalPaidOrAccrued, proj.Currency))
		if len(proj.Notes) > 0 {
			fmt.Printf("Notes: %s\n", strings.Join(proj.Notes, "; "))
		}
		if n < len(projections)-1 {
			fmt.Printf("\n")
		}
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(projections []projection.Projection) {
	fmt.Printf(`"calculator","currency","index","date","opening","interest","principal","fee","payment","closing","real value"`)
	fmt.Printf("\n")
	for _, proj := range projections {
		hasReal := len(proj.RealValues) == len(proj.Result.Periods)
		for i, period := range proj.Result.Periods {
			fmt.Printf(`"%s","%s","%d","%s","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f"`,
				proj.Name, proj.Currency, period.Index, period.Date,
				period.OpeningBalance, period.Interest, period.PrincipalMovement,
				period.Fee, period.Payment(), period.ClosingBalance)
			if hasReal {
				fmt.Printf(`,"%.2f"`, proj.RealValues[i])
			} else {
				fmt.Printf(`,""`)
			}
			fmt.Printf("\n")
		}
	}
}

type yamlPeriod struct {
	Index     int     `yaml:"index"`
	Date      string  `yaml:"date"`
	Opening   float64 `yaml:"opening"`
	Interest  float64 `yaml:"interest"`
	Principal float64 `yaml:"principal"`
	Fee       float64 `yaml:"fee"`
	Payment   float64 `yaml:"payment"`
	Closing   float64 `yaml:"closing"`
	RealValue float64 `yaml:"realValue,omitempty"`
}

type yamlProjection struct {
	Name           string       `yaml:"name"`
	Policy         string       `yaml:"policy"`
	Currency       string       `yaml:"currency"`
	Periods        []yamlPeriod `yaml:"periods"`
	TotalInterest  float64      `yaml:"totalInterest"`
	TotalPrincipal float64      `yaml:"totalPrincipal"`
	TotalFees      float64      `yaml:"totalFees"`
	TotalPaid      float64      `yaml:"totalPaidOrAccrued"`
	FinalBalance   float64      `yaml:"finalBalance"`
	Notes          []string     `yaml:"notes,omitempty"`
}

// YamlFormat outputs the projections as a YAML document.
func YamlFormat(projections []projection.Projection) error {
	docs := make([]yamlProjection, 0, len(projections))
	for _, proj := range projections {
		hasReal := len(proj.RealValues) == len(proj.Result.Periods)
		doc := yamlProjection{
			Name:           proj.Name,
			Policy:         string(proj.Policy),
			Currency:       proj.Currency,
			Periods:        make([]yamlPeriod, 0, len(proj.Result.Periods)),
			TotalInterest:  proj.Result.TotalInterest,
			TotalPrincipal: proj.Result.TotalPrincipalMoved,
			TotalFees:      proj.Result.TotalFees,
			TotalPaid:      proj.Result.TotalPaidOrAccrued,
			FinalBalance:   proj.Result.FinalBalance,
			Notes:          proj.Notes,
		}
		for i, period := range proj.Result.Periods {
			row := yamlPeriod{
				Index:     period.Index,
				Date:      period.Date,
				Opening:   period.OpeningBalance,
				Interest:  period.Interest,
				Principal: period.PrincipalMovement,
				Fee:       period.Fee,
				Payment:   period.Payment(),
				Closing:   period.ClosingBalance,
			}
			if hasReal {
				row.RealValue = proj.RealValues[i]
			}
			doc.Periods = append(doc.Periods, row)
		}
		docs = append(docs, doc)
	}

	encoded, err := yaml.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal projections to yaml: %w", err)
	}
	fmt.Printf("%s", encoded)
	return nil
}
