// Package rates maintains a cache of exchange-rate snapshots obtained from a
// fallible external source and re-expresses home-currency amounts in an
// alternate display currency on demand. Every rate is stored as home-currency
// units per one unit of the foreign code, so the home currency acts as the
// pivot for all conversions.
package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// ErrRateUnavailable indicates no usable snapshot exists for a required
// non-home currency code. Callers typically fall back to displaying the
// untouched home-currency amount.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Snapshot is one cached exchange-rate reading.
type Snapshot struct {
	// Code is the currency identifier, e.g. "USD".
	Code string

	// RatePerUnit is how many home-currency units equal 1 unit of Code.
	RatePerUnit float64

	// AsOf is the source's stated effective date, kept opaque.
	AsOf string

	// FetchedAt is when this snapshot entered the cache.
	FetchedAt time.Time
}

// Freshness describes how trustworthy a snapshot or refresh result is.
type Freshness string

const (
	// Fresh means the snapshot was fetched within the TTL.
	Fresh Freshness = "fresh"

	// StaleFallback means the latest refresh failed but an older snapshot
	// is still being served.
	StaleFallback Freshness = "stale-fallback"

	// Unavailable means no snapshot exists for the code at all.
	Unavailable Freshness = "unavailable"
)

// RefreshOutcome reports the per-code result of a refresh attempt.
type RefreshOutcome map[string]Freshness

// FetchFunc obtains current snapshots from the external source. The converter
// fills in FetchedAt; implementations only provide Code, RatePerUnit and AsOf.
type FetchFunc func(ctx context.Context) ([]Snapshot, error)

// Converter owns the snapshot cache for its configured currency codes and is
// its sole mutator. Reads are never blocked by an in-flight refresh; racing
// refreshes resolve last-writer-wins per code.
type Converter struct {
	home   string
	codes  []string
	ttl    time.Duration
	fetch  FetchFunc
	now    func() time.Time
	cache  *gocache.Cache
	logger *zap.Logger
}

// NewConverter creates a converter for the given home currency and tracked
// codes. If logger is nil a no-op logger is used.
func NewConverter(logger *zap.Logger, home string, codes []string, ttl time.Duration, fetch FetchFunc) *Converter {
	return NewConverterWithClock(logger, home, codes, ttl, fetch, time.Now)
}

// NewConverterWithClock creates a converter with an injected clock so TTL
// expiry is deterministically testable.
func NewConverterWithClock(logger *zap.Logger, home string, codes []string, ttl time.Duration, fetch FetchFunc, now func() time.Time) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Converter{
		home:   home,
		codes:  codes,
		ttl:    ttl,
		fetch:  fetch,
		now:    now,
		cache:  gocache.New(gocache.NoExpiration, 0),
		logger: logger,
	}
}

// HomeCurrency returns the pivot currency code.
func (c *Converter) HomeCurrency() string {
	return c.home
}

// Refresh attempts to fetch current rates for the configured codes. On a
// transport or decode failure existing snapshots keep being served and the
// outcome reports StaleFallback (or Unavailable where none exists); the fetch
// error is returned alongside for logging but requires no special handling.
func (c *Converter) Refresh(ctx context.Context) (RefreshOutcome, error) {
	snapshots, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("rate refresh failed, serving cached snapshots",
			zap.String("op", "rates.Refresh"),
			zap.Error(err),
		)
		return c.degradedOutcome(), fmt.Errorf("refresh exchange rates: %w", err)
	}

	byCode := make(map[string]Snapshot, len(snapshots))
	for _, snap := range snapshots {
		byCode[snap.Code] = snap
	}

	now := c.now()
	outcome := make(RefreshOutcome, len(c.codes))
	for _, code := range c.codes {
		snap, ok := byCode[code]
		if !ok || snap.RatePerUnit <= 0 {
			// Missing or nonsensical rate degrades the same way a failed
			// fetch does for this code.
			outcome[code] = c.fallbackFreshness(code)
			c.logger.Warn("no usable rate in refresh response",
				zap.String("op", "rates.Refresh"),
				zap.String("code", code),
			)
			continue
		}
		snap.FetchedAt = now
		c.cache.Set(code, snap, gocache.NoExpiration)
		outcome[code] = Fresh
		c.logger.Debug(fmt.Sprintf("cached rate %.4f for %s as of %s", snap.RatePerUnit, snap.Code, snap.AsOf),
			zap.String("op", "rates.Refresh"),
		)
	}
	return outcome, nil
}

// Convert re-expresses amount from one currency in another, routing through
// the home-currency pivot. The identity case short-circuits and is valid even
// before any rates have loaded; otherwise a usable snapshot is required for
// every non-home code involved, and ErrRateUnavailable is returned when one
// is missing.
func (c *Converter) Convert(amount float64, fromCode, toCode string) (float64, error) {
	if fromCode == toCode {
		return amount, nil
	}

	inHome := amount
	if fromCode != c.home {
		snap, ok := c.lookup(fromCode)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrRateUnavailable, fromCode)
		}
		inHome = amount * snap.RatePerUnit
	}

	if toCode == c.home {
		return inHome, nil
	}
	snap, ok := c.lookup(toCode)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrRateUnavailable, toCode)
	}
	return inHome / snap.RatePerUnit, nil
}

// SnapshotFor returns the cached snapshot for a code together with its
// current freshness. The home currency is always reported Fresh with the
// identity rate.
func (c *Converter) SnapshotFor(code string) (Snapshot, Freshness) {
	if code == c.home {
		return Snapshot{Code: code, RatePerUnit: 1.00}, Fresh
	}
	snap, ok := c.lookup(code)
	if !ok {
		return Snapshot{}, Unavailable
	}
	if c.now().Sub(snap.FetchedAt) > c.ttl {
		return snap, StaleFallback
	}
	return snap, Fresh
}

func (c *Converter) lookup(code string) (Snapshot, bool) {
	value, ok := c.cache.Get(code)
	if !ok {
		return Snapshot{}, false
	}
	snap, ok := value.(Snapshot)
	return snap, ok
}

func (c *Converter) degradedOutcome() RefreshOutcome {
	outcome := make(RefreshOutcome, len(c.codes))
	for _, code := range c.codes {
		outcome[code] = c.fallbackFreshness(code)
	}
	return outcome
}

func (c *Converter) fallbackFreshness(code string) Freshness {
	if _, ok := c.lookup(code); ok {
		return StaleFallback
	}
	return Unavailable
}
