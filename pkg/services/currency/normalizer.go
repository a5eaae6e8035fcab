package currency

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ReferenceCurrency is the currency every amount is normalized into.
const ReferenceCurrency = "USD"

// attemptTimeout bounds each provider attempt so a stalled provider cannot
// hold up a report row for longer than this.
const attemptTimeout = 5 * time.Second

// Source records how a conversion rate was obtained.
type Source string

const (
	SourceReference Source = "reference" // amount already in USD
	SourceCache     Source = "cache"
	SourceProvider  Source = "provider"
	SourceStatic    Source = "static" // approximate fallback table
	SourceParity    Source = "parity" // unknown currency, rate assumed 1.0
)

// Result is the outcome of one Normalize call. Static and parity sources are
// data-quality signals the caller should surface.
type Result struct {
	Amount   float64
	Source   Source
	Provider string
}

// Degraded reports whether the rate came from a fallback rather than a
// cached or live provider lookup.
func (r Result) Degraded() bool {
	return r.Source == SourceStatic || r.Source == SourceParity
}

// Normalizer converts amounts in arbitrary currencies into USD using a
// prioritized chain of rate providers with per-(currency, date) caching and a
// static fallback table.
type Normalizer struct {
	providers []RateProvider
	cache     *RateCache
}

func NewNormalizer(providers []RateProvider, cache *RateCache) *Normalizer {
	if cache == nil {
		cache = NewRateCache()
	}
	return &Normalizer{providers: providers, cache: cache}
}

// Normalize converts amountStr in currencyCode, as of isoDate (YYYY-MM-DD,
// may be empty), into USD. Providers are tried in priority order with an
// early exit on the first success; a resolved rate is cached for the rest of
// the process lifetime.
func (n *Normalizer) Normalize(ctx context.Context, amountStr, currencyCode, isoDate string) Result {
	logger := zerolog.Ctx(ctx)

	amount := ParseAmount(amountStr)
	code := strings.ToUpper(strings.TrimSpace(currencyCode))

	if code == "" || code == ReferenceCurrency {
		return Result{Amount: amount, Source: SourceReference}
	}

	if rate, ok := n.cache.Get(code, isoDate); ok {
		return Result{Amount: amount * rate, Source: SourceCache}
	}

	if isoDate != "" {
		for _, provider := range n.providers {
			attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
			rate, err := provider.FetchRate(attemptCtx, code, isoDate)
			cancel()
			if err != nil {
				logger.Debug().
					Str("provider", provider.Name()).
					Str("currency", code).
					Str("date", isoDate).
					Err(err).
					Msg("rate provider attempt failed")
				continue
			}

			n.cache.Put(code, isoDate, rate)
			return Result{Amount: amount * rate, Source: SourceProvider, Provider: provider.Name()}
		}
	}

	if rate, ok := staticRatesToUSD[code]; ok {
		logger.Warn().
			Str("currency", code).
			Str("date", isoDate).
			Msg("all rate providers unavailable, using static approximate rate")
		return Result{Amount: amount * rate, Source: SourceStatic}
	}

	logger.Warn().
		Str("currency", code).
		Msg("unknown currency, assuming parity with USD")
	return Result{Amount: amount, Source: SourceParity}
}

// ParseAmount parses a monetary string, stripping everything except digits,
// sign and decimal point first. Malformed amounts parse to 0.
func ParseAmount(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '+' {
			b.WriteRune(r)
		}
	}

	value, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return value
}
