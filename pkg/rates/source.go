package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultFetchTimeout bounds the outbound rate request when the caller
// supplies no client of its own.
const DefaultFetchTimeout = 30 * time.Second

// rateRow matches one element of the endpoint's JSON array.
type rateRow struct {
	Code         string  `json:"cc"`
	Rate         float64 `json:"rate"`
	ExchangeDate string  `json:"exchangedate"`
}

// NewHTTPSource returns a FetchFunc that performs a GET against a public
// exchange-rate endpoint returning a JSON array of code/rate/date objects.
// Network errors and undecodable responses surface as errors, which the
// converter downgrades to stale-fallback. If client is nil a default client
// with a timeout is used.
func NewHTTPSource(client *http.Client, url string, logger *zap.Logger) FetchFunc {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(ctx context.Context) ([]Snapshot, error) {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build rate request: %w", err)
		}

		response, err := client.Do(request)
		if err != nil {
			return nil, fmt.Errorf("fetch exchange rates: %w", err)
		}
		defer func() {
			_ = response.Body.Close()
		}()

		if response.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("exchange rate endpoint returned %s", response.Status)
		}

		var rows []rateRow
		if err := json.NewDecoder(response.Body).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode exchange rates: %w", err)
		}

		snapshots := make([]Snapshot, 0, len(rows))
		for _, row := range rows {
			if row.Code == "" || row.Rate <= 0 {
				logger.Debug(fmt.Sprintf("skipping rate row %q with rate %v", row.Code, row.Rate),
					zap.String("op", "rates.NewHTTPSource"),
				)
				continue
			}
			snapshots = append(snapshots, Snapshot{
				Code:        row.Code,
				RatePerUnit: row.Rate,
				AsOf:        row.ExchangeDate,
			})
		}
		logger.Debug(fmt.Sprintf("fetched %d exchange rates", len(snapshots)),
			zap.String("op", "rates.NewHTTPSource"),
		)
		return snapshots, nil
	}
}
