package extractor

import "underwriter/internal/port"

// NoopMarketData is the default MarketDataProvider. It reports no ranges, so
// market-alignment scoring degrades to neutral for every field.
type NoopMarketData struct{}

// RangeFor always reports no data.
func (NoopMarketData) RangeFor(string) (port.MarketRange, bool) {
	return port.MarketRange{}, false
}

// StaticMarketData serves fixed ranges, keyed by field name. Useful for
// configured deployments and tests.
type StaticMarketData map[string]port.MarketRange

// RangeFor returns the configured range for field, if any.
func (s StaticMarketData) RangeFor(field string) (port.MarketRange, bool) {
	r, ok := s[field]
	return r, ok
}
