package currency

import "sync"

// RateCache memoizes resolved rates per (currency, date). Finance reports
// deal with historical, immutable dates, so a rate once resolved never
// expires. Concurrent report tasks may race on the same key; last-write-wins
// is acceptable because both writers fetched the same historical rate.
type RateCache struct {
	entries sync.Map // "CUR@YYYY-MM-DD" -> float64
}

func NewRateCache() *RateCache {
	return &RateCache{}
}

func (c *RateCache) Get(currencyCode, isoDate string) (float64, bool) {
	value, ok := c.entries.Load(currencyCode + "@" + isoDate)
	if !ok {
		return 0, false
	}
	return value.(float64), true
}

func (c *RateCache) Put(currencyCode, isoDate string, rate float64) {
	c.entries.Store(currencyCode+"@"+isoDate, rate)
}
